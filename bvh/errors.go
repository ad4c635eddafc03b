package bvh

import "fmt"

// IntegrityError describes one violated invariant found by
// Tree.CheckIntegrity, naming the (level, node) it was found at. A tree
// that produces any IntegrityError is considered corrupt; callers may log
// and continue, but should not trust further query results.
type IntegrityError struct {
	Level     int
	Node      int
	Invariant string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("bvh: invariant violated at level %d node %d: %s", e.Level, e.Node, e.Invariant)
}
