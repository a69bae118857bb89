// Package seq implements the token sequence: three parallel arrays
// forming a doubly-linked run of tokens with segment boundaries, as
// described in spec §3/§4.2 Phase 1. It is built once from a pre-tokenized
// byte stream and mutated in place by the training engine; positions
// merged away become unreachable and their slots are simply left dead —
// compaction would invalidate indices already stored in the position pool.
package seq

import "github.com/gobpe/bpetok/internal/bpe/pretoken"

// Sequence holds the live token-ID-per-position array and its doubly
// linked segment structure.
type Sequence struct {
	Val  []uint32
	Next []int32
	Prev []int32
}

// Build runs split over text and derives Prev from the resulting forward
// links (split only produces Next; Prev is reconstructed by one forward
// pass, per Phase 1).
func Build(text []byte, split pretoken.Splitter) *Sequence {
	val, next := split(text)
	n := len(val)

	prev := make([]int32, n)
	for i := range prev {
		prev[i] = -1
	}
	for i := 0; i < n; i++ {
		if next[i] != -1 {
			prev[next[i]] = int32(i)
		}
	}

	return &Sequence{Val: val, Next: next, Prev: prev}
}

// Len reports the total number of positions, live or dead.
func (s *Sequence) Len() int {
	return len(s.Val)
}
