package bvh

import "github.com/achilleasa/widebvh/spatial"

// EmptyChild is the tri-state sentinel for an unfilled child slot.
const EmptyChild int32 = -1

// EncodeLeaf maps a nonnegative leaf index to the negative leaf-code range,
// distinguishable from EmptyChild (-1) and from nonnegative node indices.
func EncodeLeaf(leafIndex int) int32 {
	return int32(-(leafIndex + 2))
}

// DecodeLeaf reverses EncodeLeaf. The caller must first confirm the code is
// a leaf code (IsLeafChild).
func DecodeLeaf(code int32) int {
	return int(-(code + 2))
}

// IsLeafChild reports whether code encodes a leaf.
func IsLeafChild(code int32) bool { return code <= -2 }

// IsNodeChild reports whether code refers to a child node at the next level.
func IsNodeChild(code int32) bool { return code >= 0 }

// IsEmptyChild reports whether the slot is unfilled.
func IsEmptyChild(code int32) bool { return code == EmptyChild }

// Node is one fixed-fan-out BVH node. ChildCount is in [0, K]; slots
// [0, ChildCount) hold valid leaf or node codes, slots [ChildCount, K) hold
// EmptyChild. Bounds and Children both have length K.
type Node struct {
	ChildCount int
	Bounds     []spatial.AABB
	Children   []int32
}

// newNode returns a freshly initialized node with K empty slots.
func newNode(fanOut int) Node {
	children := make([]int32, fanOut)
	bounds := make([]spatial.AABB, fanOut)
	for i := range children {
		children[i] = EmptyChild
		bounds[i] = spatial.EmptyAABB()
	}
	return Node{Bounds: bounds, Children: children}
}
