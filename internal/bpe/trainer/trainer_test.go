package trainer

import (
	"strings"
	"testing"
)

func TestTrainZeroMergesBelowVocabFloor(t *testing.T) {
	res := Train([]byte("aaaaaa"), Options{TargetVocab: 256, MinFreq: 2})
	if len(res.Merges) != 0 {
		t.Fatalf("expected no merges at target_vocab==256, got %d", len(res.Merges))
	}
	if len(res.Vocab) != 256 {
		t.Fatalf("expected 256-entry base vocab, got %d", len(res.Vocab))
	}
}

func TestTrainNoRepeatsProducesZeroMerges(t *testing.T) {
	// 256 distinct bytes, each exactly once: every adjacent pair occurs
	// exactly once, below min_freq=2, so the loop exits via the
	// min-freq floor with zero merges (spec §8 scenario 3).
	corpus := make([]byte, 256)
	for i := range corpus {
		corpus[i] = byte(i)
	}

	res := Train(corpus, Options{TargetVocab: 1000, MinFreq: 2})
	if len(res.Merges) != 0 {
		t.Fatalf("expected zero merges, got %d", len(res.Merges))
	}
	if len(res.Vocab) != 256 {
		t.Fatalf("expected vocab to stay at 256, got %d", len(res.Vocab))
	}
}

func TestTrainVocabSizeNeverExceedsTarget(t *testing.T) {
	corpus := []byte(strings.Repeat("the quick brown fox jumps over the lazy dog. ", 50))
	const target = 300

	res := Train(corpus, Options{TargetVocab: target, MinFreq: 2})
	if len(res.Vocab) > target {
		t.Fatalf("vocab grew to %d, want <= %d", len(res.Vocab), target)
	}
	if len(res.Vocab) != 256+len(res.Merges) {
		t.Fatalf("vocab length %d != 256+merges %d", len(res.Vocab), len(res.Merges))
	}
}

func TestTrainMergeWellFormedness(t *testing.T) {
	corpus := []byte(strings.Repeat("abababab cdcdcdcd ", 20))
	res := Train(corpus, Options{TargetVocab: 280, MinFreq: 2})

	for rank, m := range res.Merges {
		wantID := uint32(256 + rank)
		if m.NewID != wantID {
			t.Fatalf("merge %d: new_id=%d, want %d", rank, m.NewID, wantID)
		}
		if m.A >= m.NewID || m.B >= m.NewID {
			t.Fatalf("merge %d: operands (%d,%d) not both < new_id %d", rank, m.A, m.B, m.NewID)
		}
		want := append(append([]byte{}, res.Vocab[m.A]...), res.Vocab[m.B]...)
		if string(res.Vocab[m.NewID]) != string(want) {
			t.Fatalf("merge %d: vocab[%d]=%q, want %q", rank, m.NewID, res.Vocab[m.NewID], want)
		}
	}
}

// TestTrainMergesAreOrderStable checks that re-running Train on the same
// corpus with the same options always yields the identical merge sequence
// and vocabulary: the heap tie-break is a total order over (count, key), so
// nothing in the loop depends on map iteration order surviving between runs.
func TestTrainMergesAreOrderStable(t *testing.T) {
	corpus := []byte(strings.Repeat("mississippi river mississippi delta ", 30))

	first := Train(corpus, Options{TargetVocab: 320, MinFreq: 2})
	second := Train(corpus, Options{TargetVocab: 320, MinFreq: 2})

	if len(first.Merges) != len(second.Merges) {
		t.Fatalf("merge counts differ across runs: %d vs %d", len(first.Merges), len(second.Merges))
	}
	for i := range first.Merges {
		if first.Merges[i] != second.Merges[i] {
			t.Fatalf("merge %d differs across runs: %+v vs %+v", i, first.Merges[i], second.Merges[i])
		}
	}
}

func TestTrainSegmentIsolation(t *testing.T) {
	// "hello world" splits into {"hello", " ", "world"}; no merge token
	// may straddle the space (spec §8 scenario 2).
	corpus := []byte(strings.Repeat("hello world ", 40))
	res := Train(corpus, Options{TargetVocab: 280, MinFreq: 2})

	for _, tok := range res.Vocab[256:] {
		if containsSpace(tok) && !isAllSpace(tok) {
			t.Fatalf("merged token %q mixes whitespace with non-whitespace", tok)
		}
	}
}

func TestTrainRespectsMinFreqFloor(t *testing.T) {
	// "ab" occurs twice, "cd" occurs once; with min_freq=2 only "ab" may
	// merge.
	corpus := []byte("ab ab cd")
	res := Train(corpus, Options{TargetVocab: 300, MinFreq: 2})

	for _, m := range res.Merges {
		if string(res.Vocab[m.A]) == "c" && string(res.Vocab[m.B]) == "d" {
			t.Fatalf("merged (c,d) despite frequency 1 < min_freq 2")
		}
	}
}

func TestTrainLowProgressThresholdEmitsNothingWithNilSink(t *testing.T) {
	// Progress is opt-in: a nil sink must not panic and must produce the
	// same result as leaving it unset.
	corpus := []byte(strings.Repeat("foo bar ", 20))
	res := Train(corpus, Options{TargetVocab: 270, MinFreq: 2, Progress: nil})
	if len(res.Merges) == 0 {
		t.Fatalf("expected at least one merge")
	}
}

func containsSpace(b []byte) bool {
	for _, c := range b {
		if c == ' ' {
			return true
		}
	}
	return false
}

func isAllSpace(b []byte) bool {
	for _, c := range b {
		if c != ' ' {
			return false
		}
	}
	return true
}
