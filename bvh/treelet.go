package bvh

import (
	"fmt"

	"github.com/achilleasa/widebvh/spatial"
)

// HeapEntry is one (level, node, cost) candidate held by a
// SubtreeBinaryHeap.
type HeapEntry struct {
	Level int
	Node  int
	Cost  float32
}

// SubtreeBinaryHeap is an intrusive, array-backed binary max-heap ordered
// by Cost. It is backed by a caller-provided buffer so the hot refinement
// path run by CollectSubtrees does not allocate.
type SubtreeBinaryHeap struct {
	buf []HeapEntry
}

// NewSubtreeBinaryHeap wraps buf as an empty heap. buf's existing contents
// are discarded; its capacity, not its length, sizes the heap's initial
// scratch space.
func NewSubtreeBinaryHeap(buf []HeapEntry) *SubtreeBinaryHeap {
	return &SubtreeBinaryHeap{buf: buf[:0]}
}

// Len returns the number of entries currently in the heap.
func (h *SubtreeBinaryHeap) Len() int { return len(h.buf) }

// Insert adds e to the heap.
func (h *SubtreeBinaryHeap) Insert(e HeapEntry) {
	h.buf = append(h.buf, e)
	h.siftUp(len(h.buf) - 1)
}

// Pop removes and returns the highest-cost entry. ok is false if the heap
// is empty.
func (h *SubtreeBinaryHeap) Pop() (entry HeapEntry, ok bool) {
	if len(h.buf) == 0 {
		return HeapEntry{}, false
	}

	top := h.buf[0]
	last := len(h.buf) - 1
	h.buf[0] = h.buf[last]
	h.buf = h.buf[:last]
	if len(h.buf) > 0 {
		h.siftDown(0)
	}
	return top, true
}

// Reset empties the heap without releasing its backing buffer.
func (h *SubtreeBinaryHeap) Reset() { h.buf = h.buf[:0] }

func (h *SubtreeBinaryHeap) siftUp(i int) {
	for i > 0 {
		parent := (i - 1) / 2
		if h.buf[parent].Cost >= h.buf[i].Cost {
			break
		}
		h.buf[parent], h.buf[i] = h.buf[i], h.buf[parent]
		i = parent
	}
}

func (h *SubtreeBinaryHeap) siftDown(i int) {
	n := len(h.buf)
	for {
		left, right := 2*i+1, 2*i+2
		largest := i
		if left < n && h.buf[left].Cost > h.buf[largest].Cost {
			largest = left
		}
		if right < n && h.buf[right].Cost > h.buf[largest].Cost {
			largest = right
		}
		if largest == i {
			return
		}
		h.buf[i], h.buf[largest] = h.buf[largest], h.buf[i]
		i = largest
	}
}

// TreeletSubtree is one boundary entry returned by CollectSubtrees: either
// an internal node at (Level, Node), or, when Leaf is true, a leaf with
// index Node (Level is unused for leaves).
type TreeletSubtree struct {
	Level int
	Node  int
	Leaf  bool
}

// TreeletInternalNode is one node kept in the treelet's interior.
type TreeletInternalNode struct {
	Level int
	Node  int
}

// CollectSubtrees collects a connected subtree region rooted at
// (rootLevel, rootNode), bounded by a subtree budget of M, by repeatedly
// popping the highest-surface-area boundary candidate from a binary max-
// heap (backed by heapBuf) and expanding it if the remaining budget allows.
// Results are appended to subtrees (boundary) and internalNodes
// (membership); internalNodes' last element is always the treelet root.
// CollectSubtrees panics if M is below the root's own child count — a
// precondition violation, per the tree's error-handling design.
func (t *Tree[L]) CollectSubtrees(
	rootLevel, rootNode, budget int,
	heapBuf []HeapEntry,
	subtrees *QuickList[TreeletSubtree],
	internalNodes *QuickList[TreeletInternalNode],
) float32 {
	root := t.levels[rootLevel].At(rootNode)
	if budget < root.ChildCount {
		panic(fmt.Sprintf("bvh: treelet budget %d is below root fan-out %d", budget, root.ChildCount))
	}

	heap := NewSubtreeBinaryHeap(heapBuf)

	pushChild := func(parentLevel int, parent *Node, slot int) {
		code := parent.Children[slot]
		if IsLeafChild(code) {
			subtrees.Add(TreeletSubtree{Node: DecodeLeaf(code), Leaf: true})
			return
		}
		heap.Insert(HeapEntry{
			Level: parentLevel + 1,
			Node:  int(code),
			Cost:  spatial.SurfaceAreaMetric(parent.Bounds[slot]),
		})
	}

	for i := 0; i < root.ChildCount; i++ {
		pushChild(rootLevel, root, i)
	}

	rootSlot := internalNodes.Count()
	internalNodes.Add(TreeletInternalNode{Level: rootLevel, Node: rootNode})

	var treeletCost float32
	remaining := budget - heap.Len()

	for heap.Len() > 0 {
		popped, _ := heap.Pop()
		poppedNode := t.levels[popped.Level].At(popped.Node)
		delta := poppedNode.ChildCount - 1

		if remaining >= delta {
			treeletCost += popped.Cost
			internalNodes.Add(TreeletInternalNode{Level: popped.Level, Node: popped.Node})
			remaining -= delta
			for i := 0; i < poppedNode.ChildCount; i++ {
				pushChild(popped.Level, poppedNode, i)
			}
		} else {
			subtrees.Add(TreeletSubtree{Level: popped.Level, Node: popped.Node})
		}
	}

	last := internalNodes.Count() - 1
	if last != rootSlot {
		rootEntry := internalNodes.Get(rootSlot)
		lastEntry := internalNodes.Get(last)
		internalNodes.Set(rootSlot, lastEntry)
		internalNodes.Set(last, rootEntry)
	}

	t.debugf("bvh: treelet at level %d node %d: budget %d, %d internal node(s), %d boundary subtree(s), cost %.2f",
		rootLevel, rootNode, budget, internalNodes.Count(), subtrees.Count(), treeletCost)

	return treeletCost
}
