// Package trainer implements the BPE training engine: the merge loop that
// repeatedly selects the most frequent adjacent token pair and replaces
// every occurrence with a freshly minted token, driven by a max-heap of
// pair-frequency candidates over a doubly-linked token sequence.
//
// This is the single most performance-sensitive part of the module; see
// spec §4.2/§4.3 for the exact algorithm this implements. The three
// coupled structures — pool.Pool, pairmap.Map, and the token sequence —
// are all pre-reserved up front and mutated in lock-step for the rest of
// training. None of it is safe for concurrent use (§5): a Train call owns
// all three exclusively until it returns.
package trainer

import (
	"container/heap"
	"fmt"
	"io"
	"sort"

	"github.com/gobpe/bpetok/internal/bpe/merge"
	"github.com/gobpe/bpetok/internal/bpe/pairkey"
	"github.com/gobpe/bpetok/internal/bpe/pairmap"
	"github.com/gobpe/bpetok/internal/bpe/pool"
	"github.com/gobpe/bpetok/internal/bpe/pretoken"
	"github.com/gobpe/bpetok/internal/bpe/seq"
)

const baseVocab = 256

// Options configures a training run.
type Options struct {
	// TargetVocab is the vocabulary size to stop at. Must be >= 256;
	// sizes <= 256 produce zero merges.
	TargetVocab uint32
	// MinFreq is the minimum pair frequency eligible for a merge. Must be
	// >= 1.
	MinFreq uint32
	// Split overrides the pre-tokenizer. A nil Split uses pretoken.Split.
	Split pretoken.Splitter
	// Progress, if non-nil, receives one line for each of the first five
	// accepted merges and for every 500th accepted merge after that (see
	// logProgress). A nil Progress disables all training output.
	Progress io.Writer
}

// Result is the trained artifact: the merge sequence (rank == index) and
// the vocabulary it implies, vocab[i] being the byte string for token i.
type Result struct {
	Merges []merge.Rule
	Vocab  [][]byte
}

// Train runs the full merge loop over corpus and returns the learned
// merges and vocabulary. It never mutates corpus.
func Train(corpus []byte, opts Options) Result {
	vocab := baseVocabulary()

	if opts.TargetVocab <= baseVocab {
		return Result{Vocab: vocab}
	}
	minFreq := opts.MinFreq
	if minFreq < 1 {
		minFreq = 1
	}
	split := opts.Split
	if split == nil {
		split = pretoken.Split
	}

	// Phase 1: seed the token sequence and the initial pair statistics.
	s := seq.Build(corpus, split)
	n := s.Len()

	mapSize := pairmap.NextPow2(int(opts.TargetVocab) * 4)
	stats := pairmap.New(mapSize)
	positions := pool.New(n / 2)

	for i := 0; i < n; i++ {
		if s.Next[i] == -1 {
			continue
		}
		key := pairkey.Pack(s.Val[i], s.Val[s.Next[i]])
		e := stats.Get(key)
		if e.Key == pairkey.Sentinel {
			e.Key = key
			e.Count = 0
			e.Head = -1
		}
		e.Count++
		positions.Push(&e.Head, int32(i))
	}

	// Phase 2: seed the priority queue from every pair that already
	// clears min_freq.
	h := make(maxHeap, 0, mapSize/4)
	for _, e := range stats.Table() {
		if e.Key != pairkey.Sentinel && e.Count >= minFreq {
			h = append(h, candidate{count: e.Count, key: e.Key})
		}
	}
	heap.Init(&h)

	// Phase 3: the merge loop.
	currentVocab := uint32(baseVocab)
	var merges []merge.Rule
	var snapshot []int32

	for currentVocab < opts.TargetVocab && h.Len() > 0 {
		top := heap.Pop(&h).(candidate)

		e := stats.Get(top.key)
		if e.Key == pairkey.Sentinel || e.Count != top.count {
			continue // stale: discard and keep going
		}
		if e.Count < minFreq {
			break // best remaining candidate is below the floor
		}

		a, b := pairkey.Unpack(top.key)
		newID := currentVocab
		currentVocab++

		vocab = append(vocab, concat(vocab[a], vocab[b]))
		merges = append(merges, merge.Rule{A: a, B: b, NewID: newID})
		logProgress(opts.Progress, len(merges), a, b, newID, e.Count, vocab[newID])

		savedHead := e.Head
		stats.Delete(e)
		e.Head = -1

		snapshot = positions.Collect(snapshot[:0], savedHead)
		sort.Slice(snapshot, func(i, j int) bool { return snapshot[i] < snapshot[j] })
		snapshot = dedupSorted(snapshot)

		for _, pos := range snapshot {
			applyMerge(s, stats, positions, &h, pos, a, b, newID, minFreq)
		}
	}

	return Result{Merges: merges, Vocab: vocab}
}

// applyMerge performs the per-position merge of spec §4.3 at a single
// snapshot position. Any failed validation means pos was already
// invalidated earlier in this pass (e.g. it was the right half of a prior
// merge) and is silently skipped — this is the expected, non-error stale
// case, not a bug.
func applyMerge(s *seq.Sequence, stats *pairmap.Map, positions *pool.Pool, h *maxHeap, pos int32, a, b, newID uint32, minFreq uint32) {
	n := int32(len(s.Val))
	if pos < 0 || pos >= n || s.Val[pos] != a {
		return
	}
	nxt := s.Next[pos]
	if nxt < 0 || nxt >= n || s.Val[nxt] != b {
		return
	}

	p := s.Prev[pos]
	nn := s.Next[nxt]
	if p != -1 && s.Next[p] != pos {
		return
	}
	if nn != -1 && s.Prev[nn] != nxt {
		return
	}

	if p != -1 {
		decrement(stats, pairkey.Pack(s.Val[p], a))
	}
	if nn != -1 {
		decrement(stats, pairkey.Pack(b, s.Val[nn]))
	}

	s.Val[pos] = newID
	s.Next[pos] = nn
	if nn != -1 {
		s.Prev[nn] = pos
	}
	// nxt is now unreachable; its Val/Next/Prev are dead, no compaction.

	if p != -1 {
		increment(stats, positions, h, pairkey.Pack(s.Val[p], newID), p, minFreq)
	}
	if nn != -1 {
		increment(stats, positions, h, pairkey.Pack(newID, s.Val[nn]), pos, minFreq)
	}
}

func decrement(stats *pairmap.Map, key uint64) {
	e := stats.Get(key)
	if e.Key == pairkey.Sentinel || e.Count == 0 {
		return
	}
	e.Count--
}

func increment(stats *pairmap.Map, positions *pool.Pool, h *maxHeap, key uint64, carrier int32, minFreq uint32) {
	e := stats.Get(key)
	if e.Key == pairkey.Sentinel {
		e.Key = key
		e.Count = 0
		e.Head = -1
	}
	e.Count++
	positions.Push(&e.Head, carrier)

	if e.Count >= minFreq {
		heap.Push(h, candidate{count: e.Count, key: key})
	}
}

func dedupSorted(s []int32) []int32 {
	if len(s) == 0 {
		return s
	}
	out := s[:1]
	for _, v := range s[1:] {
		if v != out[len(out)-1] {
			out = append(out, v)
		}
	}
	return out
}

func baseVocabulary() [][]byte {
	vocab := make([][]byte, baseVocab, baseVocab*4)
	for i := 0; i < baseVocab; i++ {
		vocab[i] = []byte{byte(i)}
	}
	return vocab
}

func concat(a, b []byte) []byte {
	out := make([]byte, len(a)+len(b))
	copy(out, a)
	copy(out[len(a):], b)
	return out
}

func logProgress(w io.Writer, rank int, a, b, newID uint32, count uint32, token []byte) {
	if w == nil {
		return
	}
	if rank <= 5 || rank%500 == 0 {
		fmt.Fprintf(w, "merge %6d: (%d,%d) -> %d  freq=%-6d token=%q\n", rank, a, b, newID, count, token)
	}
}
