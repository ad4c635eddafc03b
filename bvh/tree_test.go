package bvh

import (
	"sort"
	"testing"

	"github.com/achilleasa/widebvh/spatial"
)

type testLeaf struct {
	id  int
	box spatial.AABB
}

func (l *testLeaf) GetBoundingBox(out *spatial.AABB) { *out = l.box }

type leafCollector struct {
	items []*testLeaf
}

func (c *leafCollector) Add(payload *testLeaf) { c.items = append(c.items, payload) }

func (c *leafCollector) ids() []int {
	ids := make([]int, len(c.items))
	for i, leaf := range c.items {
		ids[i] = leaf.id
	}
	sort.Ints(ids)
	return ids
}

func box(x, y, z, half float32) spatial.AABB {
	return spatial.AABB{
		Min: spatial.XYZ(x-half, y-half, z-half),
		Max: spatial.XYZ(x+half, y+half, z+half),
	}
}

func assertIDs(t *testing.T, got []int, want ...int) {
	t.Helper()
	sort.Ints(want)
	if len(got) != len(want) {
		t.Fatalf("got ids %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got ids %v, want %v", got, want)
		}
	}
}

func assertNoIntegrityErrors(t *testing.T, tree *Tree[*testLeaf]) {
	t.Helper()
	if errs := tree.CheckIntegrity(); len(errs) > 0 {
		for _, e := range errs {
			t.Errorf("integrity violation: %s", e)
		}
		t.FailNow()
	}
}

func TestEmptyTreeQueryReturnsNothing(t *testing.T) {
	tree := NewTree[*testLeaf](4)
	var out leafCollector
	tree.Query(box(0, 0, 0, 100), &out)
	if len(out.items) != 0 {
		t.Fatalf("query on empty tree returned %d items, want 0", len(out.items))
	}
	assertNoIntegrityErrors(t, tree)
}

func TestSingleInsertIsFound(t *testing.T) {
	tree := NewTree[*testLeaf](4)
	leaf := &testLeaf{id: 1, box: box(0, 0, 0, 1)}
	tree.Insert(leaf)

	var hit leafCollector
	tree.Query(box(0, 0, 0, 5), &hit)
	assertIDs(t, hit.ids(), 1)

	var miss leafCollector
	tree.Query(box(100, 100, 100, 1), &miss)
	if len(miss.items) != 0 {
		t.Fatalf("query far from the only leaf returned %d items, want 0", len(miss.items))
	}
	assertNoIntegrityErrors(t, tree)
}

func TestFillingRootThenInsertingSplitsALeafSlot(t *testing.T) {
	fanOut := 2
	tree := NewTree[*testLeaf](fanOut)

	leaves := []*testLeaf{
		{id: 0, box: box(0, 0, 0, 1)},
		{id: 1, box: box(10, 0, 0, 1)},
	}
	for _, l := range leaves {
		tree.Insert(l)
	}
	if got := tree.NodeCount(0); got != 1 {
		t.Fatalf("NodeCount(0) = %d, want 1", got)
	}
	assertNoIntegrityErrors(t, tree)

	// Root is full (fan-out 2, 2 leaves); the next insert must split one
	// of the occupied leaf slots into a new internal node one level down.
	extra := &testLeaf{id: 2, box: box(20, 0, 0, 1)}
	tree.Insert(extra)

	if got := tree.LevelCount(); got < 2 {
		t.Fatalf("LevelCount() = %d after forced split, want >= 2", got)
	}
	if got := tree.LeafCount(); got != 3 {
		t.Fatalf("LeafCount() = %d, want 3", got)
	}
	assertNoIntegrityErrors(t, tree)

	var out leafCollector
	tree.Query(box(0, 0, 0, 50), &out)
	assertIDs(t, out.ids(), 0, 1, 2)
}

func TestRefitWithoutMotionIsANoop(t *testing.T) {
	tree := NewTree[*testLeaf](4)
	for i := 0; i < 10; i++ {
		tree.Insert(&testLeaf{id: i, box: box(float32(i)*3, 0, 0, 1)})
	}

	var before leafCollector
	tree.Query(box(0, 0, 0, 100), &before)

	tree.Refit()

	var after leafCollector
	tree.Query(box(0, 0, 0, 100), &after)

	assertIDs(t, after.ids(), before.ids()...)
	assertNoIntegrityErrors(t, tree)
}

func TestRefitAfterMotionUpdatesQueryResults(t *testing.T) {
	tree := NewTree[*testLeaf](4)
	moving := &testLeaf{id: 0, box: box(0, 0, 0, 1)}
	tree.Insert(moving)
	for i := 1; i < 20; i++ {
		tree.Insert(&testLeaf{id: i, box: box(float32(i)*5, 0, 0, 1)})
	}

	query := box(0, 0, 0, 2)

	var beforeMove leafCollector
	tree.Query(query, &beforeMove)
	assertIDs(t, beforeMove.ids(), 0)

	// Move the leaf far away and refit: Query trusts cached bounds, so only
	// the refit makes the old position miss and the new one hit.
	moving.box = box(1000, 1000, 1000, 1)
	tree.Refit()

	var afterMove leafCollector
	tree.Query(query, &afterMove)
	if len(afterMove.items) != 0 {
		t.Fatalf("query at the old position returned %d items after refit, want 0", len(afterMove.items))
	}

	var atNewPosition leafCollector
	tree.Query(box(1000, 1000, 1000, 2), &atNewPosition)
	assertIDs(t, atNewPosition.ids(), 0)
	assertNoIntegrityErrors(t, tree)
}

func TestQueryAndQueryRecursiveAgree(t *testing.T) {
	for _, fanOut := range []int{2, 4, 8, 16, 32} {
		fanOut := fanOut
		t.Run(fanOutName(fanOut), func(t *testing.T) {
			tree := NewTree[*testLeaf](fanOut)
			const n = 200
			for i := 0; i < n; i++ {
				x := float32((i*37)%101) - 50
				y := float32((i*53)%97) - 48
				z := float32((i*13)%89) - 44
				tree.Insert(&testLeaf{id: i, box: box(x, y, z, 0.5)})
			}
			assertNoIntegrityErrors(t, tree)

			query := box(0, 0, 0, 30)
			var stack, recursive leafCollector
			tree.Query(query, &stack)
			tree.QueryRecursive(query, &recursive)

			assertIDs(t, recursive.ids(), stack.ids()...)
		})
	}
}

func fanOutName(k int) string {
	switch k {
	case 2:
		return "K2"
	case 4:
		return "K4"
	case 8:
		return "K8"
	case 16:
		return "K16"
	case 32:
		return "K32"
	default:
		return "Kother"
	}
}

func TestInvalidFanOutPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("NewTree with fan-out 3 did not panic")
		}
	}()
	NewTree[*testLeaf](3)
}

func TestCheckIntegrityOnLargeTree(t *testing.T) {
	tree := NewTree[*testLeaf](8)
	const n = 500
	for i := 0; i < n; i++ {
		x := float32((i * 7 % 211)) - 100
		y := float32((i * 11 % 193)) - 96
		z := float32((i * 17 % 179)) - 89
		tree.Insert(&testLeaf{id: i, box: box(x, y, z, 1)})
	}
	assertNoIntegrityErrors(t, tree)
	if got := tree.LeafCount(); got != n {
		t.Fatalf("LeafCount() = %d, want %d", got, n)
	}
}
