package cmd

import (
	"bytes"
	"fmt"
	"math"
	"math/rand"

	"github.com/achilleasa/widebvh/bvh"
	"github.com/achilleasa/widebvh/spatial"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
)

// demoBox is a leaf that satisfies bvh.BoundedObject: a small axis-aligned
// cube centered at a random point, with a fixed half-extent.
type demoBox struct {
	id  int
	box spatial.AABB
}

func (b *demoBox) GetBoundingBox(out *spatial.AABB) { *out = b.box }

// sliceCollector appends query results to its items slice, satisfying
// bvh.Collector[L] for Query/QueryRecursive.
type sliceCollector[L any] struct {
	items []L
}

func (c *sliceCollector[L]) Add(payload L) { c.items = append(c.items, payload) }

func randomBox(rng *rand.Rand, id int, extent, halfSize float32) *demoBox {
	center := spatial.XYZ(
		(rng.Float32()*2-1)*extent,
		(rng.Float32()*2-1)*extent,
		(rng.Float32()*2-1)*extent,
	)
	half := spatial.XYZ(halfSize, halfSize, halfSize)
	return &demoBox{
		id: id,
		box: spatial.AABB{
			Min: center.Sub(half),
			Max: center.Add(half),
		},
	}
}

// Demo builds a wide-fanout tree from randomly scattered leaves, refits it
// after perturbing one leaf, runs both overlap-query forms, collects a
// bounded treelet around the root, and prints a summary table.
func Demo(ctx *cli.Context) error {
	setupLogging(ctx)

	fanOut := ctx.Int("fan-out")
	leafCount := ctx.Int("leaves")
	budget := ctx.Int("treelet-budget")
	seed := ctx.Int64("seed")

	tree := bvh.NewTree[*demoBox](fanOut, bvh.WithInitialLeafCapacity(leafCount))

	rng := rand.New(rand.NewSource(seed))
	const (
		sceneExtent  float32 = 100
		leafHalfSize float32 = 1
	)

	boxes := make([]*demoBox, 0, leafCount)
	for i := 0; i < leafCount; i++ {
		b := randomBox(rng, i, sceneExtent, leafHalfSize)
		boxes = append(boxes, b)
		tree.Insert(b)
	}
	logger.Noticef("inserted %d leaves into a fan-out %d tree (%d levels)", tree.LeafCount(), tree.FanOut(), tree.LevelCount())

	query := spatial.AABB{
		Min: spatial.XYZ(-sceneExtent/4, -sceneExtent/4, -sceneExtent/4),
		Max: spatial.XYZ(sceneExtent/4, sceneExtent/4, sceneExtent/4),
	}

	var stackHits sliceCollector[*demoBox]
	tree.Query(query, &stackHits)
	var recursiveHits sliceCollector[*demoBox]
	tree.QueryRecursive(query, &recursiveHits)
	logger.Infof("query before motion: %d stack hits, %d recursive hits", len(stackHits.items), len(recursiveHits.items))

	// Perturb one leaf far outside the query region and refit.
	moved := boxes[0]
	moved.box = spatial.AABB{
		Min: spatial.XYZ(sceneExtent, sceneExtent, sceneExtent),
		Max: spatial.XYZ(sceneExtent+leafHalfSize*2, sceneExtent+leafHalfSize*2, sceneExtent+leafHalfSize*2),
	}
	tree.Refit()

	var afterHits sliceCollector[*demoBox]
	tree.Query(query, &afterHits)
	logger.Infof("query after motion+refit: %d stack hits", len(afterHits.items))

	if errs := tree.CheckIntegrity(); len(errs) > 0 {
		for _, e := range errs {
			logger.Error(e)
		}
		return fmt.Errorf("tree failed integrity check: %d violation(s)", len(errs))
	}

	logCameraPlacement(query, sceneExtent)

	heapBuf := make([]bvh.HeapEntry, 0, budget)
	subtrees := bvh.NewQuickList[bvh.TreeletSubtree](bvh.NewPool[bvh.TreeletSubtree](), bvh.PoolIndex(budget))
	internalNodes := bvh.NewQuickList[bvh.TreeletInternalNode](bvh.NewPool[bvh.TreeletInternalNode](), bvh.PoolIndex(budget))
	cost := tree.CollectSubtrees(0, 0, budget, heapBuf, subtrees, internalNodes)

	displayDemoStats(tree, len(stackHits.items), len(afterHits.items), subtrees.Count(), internalNodes.Count(), cost)

	return nil
}

// logCameraPlacement builds a camera looking down the query region from a
// 45-degree yaw, derives its view-projection matrix the way the teacher's
// camera code does (rotation+translation for the view, a perspective matrix
// for the projection, composed and inverted as one Mat4), and round-trips
// the query box's center through the inverse to confirm it unprojects back
// to world space. It exists only to exercise spatial's quaternion/matrix
// math against a concrete scene; it has no effect on the tree.
func logCameraPlacement(query spatial.AABB, sceneExtent float32) {
	center := query.Min.Add(query.Max).Mul(0.5)

	yaw := spatial.QuatFromAxisAngle(spatial.XYZ(0, 1, 0), float32(math.Pi/4))
	view := yaw.Mat4().Mul(spatial.Translation(spatial.XYZ(0, sceneExtent/2, sceneExtent)))
	proj := spatial.Perspective(float32(math.Pi/3), 16.0/9.0, 0.1, sceneExtent*4)
	viewProj := view.Mul(proj)

	clip := viewProj.TransformPoint(center)
	back := viewProj.Inv().TransformPoint(clip)

	logger.Debugf("camera placement: query center %v -> clip %v -> unprojected %v", center, clip, back)
}

func displayDemoStats(tree *bvh.Tree[*demoBox], hitsBefore, hitsAfter, subtreeCount, internalCount int, treeletCost float32) {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Metric", "Value"})
	table.Append([]string{"Fan-out", fmt.Sprintf("%d", tree.FanOut())})
	table.Append([]string{"Leaves", fmt.Sprintf("%d", tree.LeafCount())})
	table.Append([]string{"Levels", fmt.Sprintf("%d", tree.LevelCount())})
	table.Append([]string{"Query hits before motion", fmt.Sprintf("%d", hitsBefore)})
	table.Append([]string{"Query hits after motion+refit", fmt.Sprintf("%d", hitsAfter)})
	table.Append([]string{"Treelet boundary subtrees", fmt.Sprintf("%d", subtreeCount)})
	table.Append([]string{"Treelet internal nodes", fmt.Sprintf("%d", internalCount)})
	table.SetFooter([]string{"Treelet cost", fmt.Sprintf("%.2f", treeletCost)})

	table.Render()
	logger.Noticef("tree statistics\n%s", buf.String())
}
