// Package bvh implements a wide-fanout (K ∈ {2,4,8,16,32}) bounding volume
// hierarchy: an on-line insertion heuristic, a bottom-up refit pass, and
// stack-based / recursive overlap queries, plus a treelet subtree collector
// used to select a bounded region of the tree for external rebalancing.
//
// The tree assumes single-threaded access; it provides no locking and no
// deletion path.
package bvh

import (
	"fmt"
	"math"

	"github.com/achilleasa/widebvh/log"
	"github.com/achilleasa/widebvh/spatial"
)

// BoundedObject is implemented by anything that can be inserted into a
// Tree. GetBoundingBox must be a pure function with respect to the tree: it
// may not mutate the tree it is being inserted into or refit within. It is
// called once per Insert and once per leaf per Refit.
type BoundedObject interface {
	GetBoundingBox(out *spatial.AABB)
}

// Collector receives the leaves produced by a Query.
type Collector[L any] interface {
	Add(payload L)
}

// leafRecord is the per-inserted-object bookkeeping entry: the object
// itself plus the (level, node, child) slot that currently owns its AABB.
type leafRecord[L BoundedObject] struct {
	object L
	level  int
	node   int
	child  int
}

// Tree is a wide-fanout BVH over leaves of type L. The zero value is not
// usable; construct with NewTree.
type Tree[L BoundedObject] struct {
	logger log.Logger

	fanOut               int
	initialLeafCapacity  int
	maxLevelExponent     int

	levels       []*levelArena
	leaves       []leafRecord[L]
	leafCount    int
	maximumDepth int
}

// NewTree constructs an empty tree with the given fixed fan-out (one of
// 2, 4, 8, 16, 32) and options. Invalid fan-outs or configuration values are
// programmer errors and panic rather than returning an error.
func NewTree[L BoundedObject](fanOut int, opts ...Option) *Tree[L] {
	if !validFanOut(fanOut) {
		panic(fmt.Sprintf("bvh: invalid fan-out %d: must be one of 2, 4, 8, 16, 32", fanOut))
	}

	cfg := newConfig(opts...)
	cfg.validate()

	logger := log.New("bvh")
	if cfg.loggerSet {
		logger = cfg.logger
	}

	t := &Tree[L]{
		logger:              logger,
		fanOut:              fanOut,
		initialLeafCapacity: cfg.InitialLeafCapacity,
		maxLevelExponent:    maxLevelExponent(fanOut),
		leaves:              make([]leafRecord[L], 0, cfg.InitialLeafCapacity),
	}

	t.levels = make([]*levelArena, 1, cfg.InitialTreeDepth)
	t.levels[0] = newLevelArena(fanOut, 1)
	t.levels[0].Add() // the root, created empty.

	return t
}

// debugf logs at Debug level if the tree was constructed with a non-nil
// logger, and is a no-op otherwise; every call site in this package goes
// through it so WithLogger(nil) silences logging without extra guards.
func (t *Tree[L]) debugf(format string, args ...interface{}) {
	if t.logger == nil {
		return
	}
	t.logger.Debugf(format, args...)
}

// FanOut returns the tree's fixed child count per node.
func (t *Tree[L]) FanOut() int { return t.fanOut }

// LeafCount returns the number of leaves inserted so far.
func (t *Tree[L]) LeafCount() int { return t.leafCount }

// MaximumDepth returns the index of the deepest level that holds any node.
func (t *Tree[L]) MaximumDepth() int { return t.maximumDepth }

// LevelCount returns the number of levels currently allocated.
func (t *Tree[L]) LevelCount() int { return len(t.levels) }

// NodeCount returns the number of nodes at the given level.
func (t *Tree[L]) NodeCount(level int) int { return t.levels[level].Len() }

// maxLevelExponent returns the largest depth exponent used to clamp initial
// per-level node capacity hints, computed as log_K(1e10) per the tree's
// construction-time sizing rule.
func maxLevelExponent(fanOut int) int {
	e := 0
	v := 1.0
	for v < 1e10 {
		v *= float64(fanOut)
		e++
	}
	return e
}

// initialLevelCapacity returns min(initialLeafCapacity, K^min(depth,maxExp)).
func initialLevelCapacity(fanOut, initialLeafCapacity, maxExponent, depth int) int {
	exponent := depth
	if exponent > maxExponent {
		exponent = maxExponent
	}

	capacity := 1
	for i := 0; i < exponent; i++ {
		capacity *= fanOut
		if capacity >= initialLeafCapacity {
			return initialLeafCapacity
		}
	}
	if capacity > initialLeafCapacity {
		capacity = initialLeafCapacity
	}
	return capacity
}

// ensureLevel grows the level array so that index d exists, sizing any
// newly created levels per initialLevelCapacity, and updates maximumDepth.
func (t *Tree[L]) ensureLevel(d int) {
	for len(t.levels) <= d {
		depth := len(t.levels)
		capHint := initialLevelCapacity(t.fanOut, t.initialLeafCapacity, t.maxLevelExponent, depth)
		t.levels = append(t.levels, newLevelArena(t.fanOut, capHint))
		t.debugf("bvh: grew to level %d (capacity hint %d)", depth, capHint)
	}
	if d > t.maximumDepth {
		t.maximumDepth = d
	}
}

func (t *Tree[L]) addLeafRecord(object L, level, node, child int) int {
	idx := t.leafCount
	t.leaves = append(t.leaves, leafRecord[L]{object: object, level: level, node: node, child: child})
	t.leafCount++
	return idx
}

func volumeOrZero(box spatial.AABB) float32 {
	v := spatial.Volume(box)
	if v < 0 {
		return 0
	}
	return v
}

// Insert adds leaf to the tree, walking down from the root and choosing at
// each step the child slot whose AABB union with leaf's box grows least,
// either dropping into an empty slot or splitting an occupied leaf slot
// into a fresh internal node at the next level.
func (t *Tree[L]) Insert(leaf L) {
	var box spatial.AABB
	leaf.GetBoundingBox(&box)

	level := 0
	nodeIndex := 0

	for {
		node := t.levels[level].At(nodeIndex)

		m := node.ChildCount + 1
		if m > t.fanOut {
			m = t.fanOut
		}

		best := 0
		bestDelta := float32(math.MaxFloat32)
		var bestMerged spatial.AABB
		for i := 0; i < m; i++ {
			oldVol := volumeOrZero(node.Bounds[i])
			merged := spatial.Merge(node.Bounds[i], box)
			delta := spatial.Volume(merged) - oldVol
			if delta < bestDelta {
				best = i
				bestDelta = delta
				bestMerged = merged
			}
		}

		code := node.Children[best]
		switch {
		case IsLeafChild(code):
			// The chosen slot is occupied by a leaf: split it into a new
			// internal node one level deeper holding both leaves.
			t.ensureLevel(level + 1)
			childLevel := t.levels[level+1]
			newNodeIndex := childLevel.Add()
			newNode := childLevel.At(newNodeIndex)

			oldLeafIndex := DecodeLeaf(code)

			newNode.ChildCount = 2
			newNode.Bounds[0] = node.Bounds[best]
			newNode.Children[0] = code
			newNode.Bounds[1] = box
			newLeafIndex := t.addLeafRecord(leaf, level+1, newNodeIndex, 1)
			newNode.Children[1] = EncodeLeaf(newLeafIndex)

			t.leaves[oldLeafIndex].level = level + 1
			t.leaves[oldLeafIndex].node = newNodeIndex
			t.leaves[oldLeafIndex].child = 0

			node.Children[best] = int32(newNodeIndex)
			node.Bounds[best] = bestMerged
			return

		case IsEmptyChild(code):
			node.ChildCount++
			leafIndex := t.addLeafRecord(leaf, level, nodeIndex, best)
			node.Children[best] = EncodeLeaf(leafIndex)
			node.Bounds[best] = bestMerged
			return

		default:
			// An internal child: refresh its slot's bound and descend.
			node.Bounds[best] = bestMerged
			nodeIndex = int(code)
			level++
		}
	}
}

// Refit recomputes every node's per-child AABBs from the children's AABBs
// (or from the owning leaf for the deepest entries), restoring invariant
// (3) after leaves have moved since the last refit. It does not restructure
// the tree.
func (t *Tree[L]) Refit() {
	for i := 0; i < t.leafCount; i++ {
		rec := &t.leaves[i]
		var box spatial.AABB
		rec.object.GetBoundingBox(&box)
		node := t.levels[rec.level].At(rec.node)
		node.Bounds[rec.child] = box
	}

	for d := t.maximumDepth - 1; d >= 0; d-- {
		level := t.levels[d]
		childLevel := t.levels[d+1]
		for ni := 0; ni < level.Len(); ni++ {
			node := level.At(ni)
			for i := 0; i < node.ChildCount; i++ {
				code := node.Children[i]
				if !IsNodeChild(code) {
					continue
				}
				child := childLevel.At(int(code))
				merged := child.Bounds[0]
				for j := 1; j < child.ChildCount; j++ {
					merged = spatial.Merge(merged, child.Bounds[j])
				}
				node.Bounds[i] = merged
			}
		}
	}
}

// stackEntry is one (level, node) target retained by the iterative Query.
type stackEntry struct {
	level int
	node  int
}

// Query traverses the tree from the root using an explicit stack,
// descending only into children whose AABBs intersect query, and appends
// every leaf encountered to out. Order of results is not part of the
// contract.
func (t *Tree[L]) Query(query spatial.AABB, out Collector[L]) {
	capacity := (t.fanOut-1)*t.maximumDepth + 1
	stack := make([]stackEntry, 0, capacity)
	stack = append(stack, stackEntry{level: 0, node: 0})

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		node := t.levels[top.level].At(top.node)
		for i := 0; i < node.ChildCount; i++ {
			if !spatial.Intersects(query, node.Bounds[i]) {
				continue
			}
			code := node.Children[i]
			if IsNodeChild(code) {
				stack = append(stack, stackEntry{level: top.level + 1, node: int(code)})
			} else {
				out.Add(t.leaves[DecodeLeaf(code)].object)
			}
		}
	}
}

// CheckIntegrity walks the tree verifying invariants P1-P2 (child-slot
// occupancy and leaf back-reference agreement) and returns one
// IntegrityError per violation found. A non-empty result means the tree is
// corrupt; callers may log and continue but should not trust it further.
func (t *Tree[L]) CheckIntegrity() []*IntegrityError {
	var errs []*IntegrityError

	for d := 0; d <= t.maximumDepth && d < len(t.levels); d++ {
		level := t.levels[d]
		for ni := 0; ni < level.Len(); ni++ {
			node := level.At(ni)
			if node.ChildCount < 0 || node.ChildCount > t.fanOut {
				errs = append(errs, &IntegrityError{
					Level: d, Node: ni,
					Invariant: fmt.Sprintf("ChildCount %d out of [0,%d]", node.ChildCount, t.fanOut),
				})
				continue
			}
			for i := 0; i < node.ChildCount; i++ {
				if IsEmptyChild(node.Children[i]) {
					errs = append(errs, &IntegrityError{
						Level: d, Node: ni,
						Invariant: fmt.Sprintf("slot %d within [0,ChildCount) is empty", i),
					})
				}
			}
			for i := node.ChildCount; i < t.fanOut; i++ {
				if !IsEmptyChild(node.Children[i]) {
					errs = append(errs, &IntegrityError{
						Level: d, Node: ni,
						Invariant: fmt.Sprintf("slot %d beyond ChildCount is not empty", i),
					})
				}
			}
		}
	}

	for leafIndex := 0; leafIndex < t.leafCount; leafIndex++ {
		rec := t.leaves[leafIndex]
		if rec.level < 0 || rec.level >= len(t.levels) || rec.node < 0 || rec.node >= t.levels[rec.level].Len() {
			errs = append(errs, &IntegrityError{
				Level: rec.level, Node: rec.node,
				Invariant: fmt.Sprintf("leaf %d back-reference targets a nonexistent node", leafIndex),
			})
			continue
		}
		node := t.levels[rec.level].At(rec.node)
		if rec.child < 0 || rec.child >= t.fanOut || node.Children[rec.child] != EncodeLeaf(leafIndex) {
			errs = append(errs, &IntegrityError{
				Level: rec.level, Node: rec.node,
				Invariant: fmt.Sprintf("leaf %d back-reference disagrees with its owner slot", leafIndex),
			})
			continue
		}
		if rec.child >= node.ChildCount {
			errs = append(errs, &IntegrityError{
				Level: rec.level, Node: rec.node,
				Invariant: fmt.Sprintf("leaf %d owner slot %d is outside ChildCount", leafIndex, rec.child),
			})
		}
	}

	for _, e := range errs {
		t.debugf("bvh: integrity violation at level %d node %d: %s", e.Level, e.Node, e.Invariant)
	}

	return errs
}
