// Package model owns the trained artifact — vocabulary and merge rules —
// and the two things derived from it: the inference encoder and the
// on-disk binary format (§6.1). It is the glue between the training
// engine, the encoder, and the serializer; callers outside this module
// talk to a *Tokenizer and nothing else.
package model

import (
	"errors"
	"fmt"
	"io"

	"github.com/gobpe/bpetok/internal/bpe/encoder"
	"github.com/gobpe/bpetok/internal/bpe/merge"
	"github.com/gobpe/bpetok/internal/bpe/pretoken"
	"github.com/gobpe/bpetok/internal/bpe/trainer"
)

// Error kinds per §7. I/O failures surface as whatever the os package
// returned, wrapped with context; these four are the format and argument
// kinds that this package itself detects.
var (
	ErrBadMagic        = errors.New("bpetok: bad magic number")
	ErrBadVersion      = errors.New("bpetok: unsupported model version")
	ErrOutOfRange      = errors.New("bpetok: value out of range")
	ErrInvalidArgument = errors.New("bpetok: invalid argument")
)

// Tokenizer is the trained model: a vocabulary, the merges that produced
// it, and a lazily-irrelevant (built eagerly) inference encoder. A loaded
// or trained Tokenizer is read-only and safe to share across goroutines
// that only call Encode/Decode (§5).
type Tokenizer struct {
	Vocab  [][]byte
	Merges []merge.Rule

	enc *encoder.Encoder
}

// New wraps an already-decided vocab/merges pair (used by Train and Load)
// and builds its inference encoder.
func New(vocab [][]byte, merges []merge.Rule) *Tokenizer {
	return &Tokenizer{
		Vocab:  vocab,
		Merges: merges,
		enc:    encoder.New(vocab, merges),
	}
}

// TrainOptions configures Train; it is trainer.Options minus the pieces
// (Split) callers of this package don't need to reach for.
type TrainOptions struct {
	TargetVocab uint32
	MinFreq     uint32
	Progress    io.Writer
	Split       pretoken.Splitter
}

// Train learns a new tokenizer from corpus. target_vocab <= 256 or
// min_freq <= 0 are not errors (§4.2 is silent on rejecting them
// outright; the training engine simply produces zero merges, or floors
// min_freq to 1) — callers that want argument validation should check
// with ValidateTrainArgs first, which the CLI does.
func Train(corpus []byte, opts TrainOptions) *Tokenizer {
	result := trainer.Train(corpus, trainer.Options{
		TargetVocab: opts.TargetVocab,
		MinFreq:     opts.MinFreq,
		Progress:    opts.Progress,
		Split:       opts.Split,
	})
	return New(result.Vocab, result.Merges)
}

// ValidateTrainArgs enforces the §7 "argument violation" error kind for
// the CLI boundary: vocab sizes at or below the byte-level floor, and
// zero/negative min_freq, are rejected rather than silently accepted.
func ValidateTrainArgs(targetVocab int, minFreq int) error {
	if targetVocab <= 256 {
		return fmt.Errorf("%w: target vocab size %d must be greater than 256", ErrInvalidArgument, targetVocab)
	}
	if minFreq < 1 {
		return fmt.Errorf("%w: min_freq %d must be at least 1", ErrInvalidArgument, minFreq)
	}
	return nil
}

// Encode applies the tokenizer's learned merges to input, pre-tokenizing
// exactly as training did.
func (t *Tokenizer) Encode(input []byte) []uint32 {
	return t.enc.Encode(input)
}

// Decode looks up each ID's byte string and concatenates them. An
// out-of-range ID is a recoverable §7 "argument violation" — decode's
// CLI surface takes raw IDs straight from argv — not an internal
// consistency panic.
func (t *Tokenizer) Decode(ids []uint32) ([]byte, error) {
	total := 0
	for _, id := range ids {
		if int(id) >= len(t.Vocab) {
			return nil, fmt.Errorf("%w: token id %d (vocab size %d)", ErrOutOfRange, id, len(t.Vocab))
		}
		total += len(t.Vocab[id])
	}

	out := make([]byte, 0, total)
	for _, id := range ids {
		out = append(out, t.Vocab[id]...)
	}
	return out, nil
}

// TokenLen returns the byte length of the vocabulary entry for id, or 0
// if id is out of range.
func (t *Tokenizer) TokenLen(id uint32) int {
	if int(id) >= len(t.Vocab) {
		return 0
	}
	return len(t.Vocab[id])
}

// MaxTokenLen returns the length of the longest vocabulary entry.
func (t *Tokenizer) MaxTokenLen() int {
	return t.enc.MaxTokenLen()
}

// NewStream returns a streaming encoder (§4.10) over this tokenizer.
func (t *Tokenizer) NewStream() *encoder.StreamState {
	return encoder.NewStreamState(t)
}
