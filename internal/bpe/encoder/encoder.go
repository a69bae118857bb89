// Package encoder implements the inference side of the tokenizer: turning
// learned merges into a rank-lookup structure and greedily applying the
// lowest-rank applicable merge, per segment, until none apply (§4.4).
package encoder

import (
	"github.com/gobpe/bpetok/internal/bpe/merge"
	"github.com/gobpe/bpetok/internal/bpe/pairkey"
	"github.com/gobpe/bpetok/internal/bpe/pairmap"
	"github.com/gobpe/bpetok/internal/bpe/pretoken"
)

// Encoder applies a trained merge list to new text. It is read-only over
// its merges after construction, so one Encoder is safe to share across
// concurrent readers (§5).
type Encoder struct {
	merges      []merge.Rule
	rankMap     *pairmap.Map
	fast        *fastPairCache
	maxTokenLen int
	split       pretoken.Splitter

	scratch scratchPool
}

// New builds the inference structures from a trained (or loaded) merge
// list and vocabulary. Unlike the teacher's "probe table[0] for the
// sentinel" heuristic for lazy initialization, this always builds eagerly
// at construction — there is no uninitialized state to probe for (§9 open
// question).
func New(vocab [][]byte, merges []merge.Rule) *Encoder {
	e := &Encoder{
		merges: merges,
		split:  pretoken.Split,
	}
	e.build(vocab)
	return e
}

func (e *Encoder) build(vocab [][]byte) {
	size := pairmap.NextPow2(len(e.merges)*2 + 1)
	m := pairmap.New(size)
	for i, r := range e.merges {
		key := pairkey.Pack(r.A, r.B)
		entry := m.Get(key)
		entry.Key = key
		entry.Head = int32(i) // repurposed to carry the merge rank
	}
	e.rankMap = m
	e.fast = newFastPairCache(e.merges, len(vocab))

	maxLen := 0
	for _, tok := range vocab {
		if len(tok) > maxLen {
			maxLen = len(tok)
		}
	}
	e.maxTokenLen = maxLen
}

// MaxTokenLen returns the length, in bytes, of the longest token string in
// the vocabulary this encoder was built from.
func (e *Encoder) MaxTokenLen() int {
	return e.maxTokenLen
}

// rank looks up the merge rank for an adjacent pair, consulting the dense
// fast-path cache before falling back to the shared rank map.
func (e *Encoder) rank(a, b uint32) (int32, bool) {
	if r, ok := e.fast.lookup(a, b); ok {
		return r, true
	}
	entry := e.rankMap.Get(pairkey.Pack(a, b))
	if entry.Key == pairkey.Sentinel {
		return 0, false
	}
	return entry.Head, true
}

// Encode pre-tokenizes input exactly as training did and applies learned
// merges within each segment; no merge ever crosses a segment boundary.
func (e *Encoder) Encode(input []byte) []uint32 {
	if len(input) == 0 {
		return nil
	}

	val, next := e.split(input)
	result := make([]uint32, 0, len(val))

	wb := e.scratch.get()
	defer e.scratch.put(wb)

	for i := 0; i < len(val); i++ {
		wb.buf = append(wb.buf, val[i])
		if next[i] == -1 {
			wb.buf = e.encodePiece(wb.buf)
			result = append(result, wb.buf...)
			wb.buf = wb.buf[:0]
		}
	}

	return result
}

// encodePiece implements the greedy merge loop of §4.4: scan every
// adjacent pair, apply the lowest-rank one (leftmost on ties), repeat.
// O(L^2) in the segment length L, which the spec calls out as acceptable
// because segments are short.
func (e *Encoder) encodePiece(work []uint32) []uint32 {
	for len(work) >= 2 {
		bestRank := int32(-1)
		bestI := -1

		for i := 0; i+1 < len(work); i++ {
			r, ok := e.rank(work[i], work[i+1])
			if !ok {
				continue
			}
			if bestI == -1 || r < bestRank {
				bestRank = r
				bestI = i
			}
		}

		if bestI == -1 {
			break
		}

		newID := e.merges[bestRank].NewID
		work[bestI] = newID
		work = append(work[:bestI+1], work[bestI+2:]...)
	}
	return work
}
