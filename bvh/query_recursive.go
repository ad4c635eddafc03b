package bvh

import "github.com/achilleasa/widebvh/spatial"

// QueryRecursive is the specialized recursive form of Query. It delivers
// the same result multiset as Query for identical inputs; the iterative
// stack form and this recursive form exist because the invariant "slots
// [ChildCount, K) hold no live children" lets a recursive walk early-exit
// on ChildCount alone, without the stack-management overhead of Query.
func (t *Tree[L]) QueryRecursive(query spatial.AABB, out Collector[L]) {
	t.queryRecursive(query, 0, 0, out)
}

func (t *Tree[L]) queryRecursive(query spatial.AABB, level, nodeIndex int, out Collector[L]) {
	node := t.levels[level].At(nodeIndex)
	for i := 0; i < node.ChildCount; i++ {
		if !spatial.Intersects(query, node.Bounds[i]) {
			continue
		}
		code := node.Children[i]
		if IsNodeChild(code) {
			t.queryRecursive(query, level+1, int(code), out)
		} else {
			out.Add(t.leaves[DecodeLeaf(code)].object)
		}
	}
}
