// Package pool implements the position pool: an append-only arena of
// (position, next) nodes. Each pair key in the statistics map owns an
// intrusive singly-linked list through this arena, giving O(1) insertion
// and cheap snapshot iteration of the positions a pair occurs at.
//
// Nodes are never deleted or compacted. A stale list entry (one that
// points at a position already absorbed by an earlier merge) is detected
// by the caller at consumption time, not here.
package pool

// Node is a single position-pool record. Next is -1 when it terminates a
// list.
type Node struct {
	Pos  int32
	Next int32
}

// Pool is the arena. It grows by append only; indices already handed out
// remain valid for the lifetime of the pool.
type Pool struct {
	nodes []Node
}

// New returns a pool pre-reserved to hold roughly reserve nodes, to avoid
// reallocation during the training hot loop.
func New(reserve int) *Pool {
	if reserve < 0 {
		reserve = 0
	}
	return &Pool{nodes: make([]Node, 0, reserve)}
}

// Push prepends pos onto the list headed by *head, rewriting *head to the
// new node's index. Walk order from the resulting head is reverse
// insertion order.
func (p *Pool) Push(head *int32, pos int32) {
	p.nodes = append(p.nodes, Node{Pos: pos, Next: *head})
	*head = int32(len(p.nodes) - 1)
}

// Collect appends every position reachable from head onto dst and returns
// the extended slice. It does not deduplicate or filter stale positions;
// that is the caller's job once the snapshot is sorted.
func (p *Pool) Collect(dst []int32, head int32) []int32 {
	for head != -1 {
		n := p.nodes[head]
		dst = append(dst, n.Pos)
		head = n.Next
	}
	return dst
}

// Len reports how many nodes have been allocated so far.
func (p *Pool) Len() int {
	return len(p.nodes)
}
