package trainer

// candidate is one entry pushed onto the training priority queue: a
// frequency count as of the time it was pushed, and the pair it names.
// The count recorded here is compared against the pair's live count at
// pop time to detect staleness (§4.2 Phase 3, step 2) — the heap is never
// mutated in place on a count change, only appended to.
type candidate struct {
	count uint32
	key   uint64
}

// maxHeap is a binary max-heap ordered by count, then by pair key to give
// every implementation the same local, deterministic tie-break (§4.2).
// It implements container/heap.Interface.
type maxHeap []candidate

func (h maxHeap) Len() int { return len(h) }

func (h maxHeap) Less(i, j int) bool {
	if h[i].count != h[j].count {
		return h[i].count > h[j].count
	}
	return h[i].key > h[j].key
}

func (h maxHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *maxHeap) Push(x any) {
	*h = append(*h, x.(candidate))
}

func (h *maxHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
