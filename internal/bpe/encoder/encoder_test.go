package encoder

import (
	"testing"

	"github.com/gobpe/bpetok/internal/bpe/merge"
)

func baseVocab() [][]byte {
	v := make([][]byte, 256)
	for i := range v {
		v[i] = []byte{byte(i)}
	}
	return v
}

// buildTrivial constructs a tiny encoder equivalent to training on "aaab":
// merges (a,a)->256, (256,a)->257, matching a textbook greedy chain.
func buildTrivial() *Encoder {
	vocab := baseVocab()
	vocab = append(vocab, []byte("aa"))  // 256
	vocab = append(vocab, []byte("aaa")) // 257
	merges := []merge.Rule{
		{A: 'a', B: 'a', NewID: 256},
		{A: 256, B: 'a', NewID: 257},
	}
	return New(vocab, merges)
}

func TestEncodeAppliesLowestRankFirst(t *testing.T) {
	e := buildTrivial()
	got := e.Encode([]byte("aaa"))
	want := []uint32{257}
	if len(got) != 1 || got[0] != want[0] {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestEncodeRespectsSegmentBoundaries(t *testing.T) {
	e := buildTrivial()
	got := e.Encode([]byte("aaa aaa"))
	// Each "aaa" collapses to 257 independently; the space stays its own
	// token and no merge crosses it.
	want := []uint32{257, uint32(' '), 257}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestEncodeEmptyInput(t *testing.T) {
	e := buildTrivial()
	if got := e.Encode(nil); got != nil {
		t.Fatalf("expected nil for empty input, got %v", got)
	}
}

func TestEncodeNoApplicableMergeLeavesBytesAlone(t *testing.T) {
	e := buildTrivial()
	got := e.Encode([]byte("xyz"))
	want := []uint32{'x', 'y', 'z'}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestMaxTokenLenReflectsLongestVocabEntry(t *testing.T) {
	e := buildTrivial()
	if got := e.MaxTokenLen(); got != 3 {
		t.Fatalf("MaxTokenLen() = %d, want 3", got)
	}
}

func TestFastCacheAgreesWithRankMapFallback(t *testing.T) {
	e := buildTrivial()
	// Pairs within the dense cache's width must agree with what a direct
	// rankMap lookup would say for the same key.
	r1, ok1 := e.rank('a', 'a')
	if !ok1 || r1 != 0 {
		t.Fatalf("rank(a,a) = (%d,%v), want (0,true)", r1, ok1)
	}
	r2, ok2 := e.rank(256, 'a')
	if !ok2 || r2 != 1 {
		t.Fatalf("rank(256,a) = (%d,%v), want (1,true)", r2, ok2)
	}
	if _, ok := e.rank('x', 'y'); ok {
		t.Fatalf("expected no rank for an unmerged pair")
	}
}

// fakeSource lets the streaming tests drive StreamState without a full
// trained model: it encodes by treating every byte as its own token except
// that it collapses each run of 'a' bytes, up to 3 at a time, into one token
// whose length equals the collapsed run length, the minimum shape needed to
// exercise the tail-reserve margin.
type fakeSource struct{}

func (fakeSource) Encode(input []byte) []uint32 {
	out := make([]uint32, 0, len(input))
	i := 0
	for i < len(input) {
		if input[i] == 'a' {
			j := i
			for j < len(input) && input[j] == 'a' && j-i < 3 {
				j++
			}
			out = append(out, uint32(1000+(j-i)))
			i = j
			continue
		}
		out = append(out, uint32(input[i]))
		i++
	}
	return out
}

func (fakeSource) TokenLen(id uint32) int {
	if id >= 1000 {
		return int(id - 1000)
	}
	return 1
}

func (fakeSource) MaxTokenLen() int { return 3 }

func TestStreamStateHoldsBackTailReserve(t *testing.T) {
	s := NewStreamState(fakeSource{})

	// "aa" alone is within the tail reserve (MaxTokenLen-1 == 2 bytes) so
	// nothing should be emitted yet.
	out := s.Feed([]byte("aa"))
	if len(out) != 0 {
		t.Fatalf("expected nothing committed yet, got %v", out)
	}

	// Feeding "bc" makes the buffer "aabc": the reserve window is the last
	// 2 bytes "bc", so "aa" (as a single fake token of length 2) becomes
	// safe to emit while "b" and "c" stay held back.
	out = s.Feed([]byte("bc"))
	if len(out) != 1 || out[0] != 1002 {
		t.Fatalf("expected the aa-run token to commit, got %v", out)
	}

	out = s.Flush()
	if len(out) != 2 || out[0] != uint32('b') || out[1] != uint32('c') {
		t.Fatalf("expected flush to emit the held-back bytes, got %v", out)
	}
}

func TestStreamStateFlushOnEmptyBufferReturnsNil(t *testing.T) {
	s := NewStreamState(fakeSource{})
	if out := s.Flush(); out != nil {
		t.Fatalf("expected nil flush on empty buffer, got %v", out)
	}
}

func TestStreamStateFullRoundTripMatchesBatchEncode(t *testing.T) {
	src := fakeSource{}
	input := []byte("aaabaaaaac")

	s := NewStreamState(src)
	var got []uint32
	for i := 0; i < len(input); i++ {
		got = append(got, s.Feed(input[i:i+1])...)
	}
	got = append(got, s.Flush()...)

	want := src.Encode(input)
	if len(got) != len(want) {
		t.Fatalf("streamed %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("streamed %v, want %v", got, want)
		}
	}
}
