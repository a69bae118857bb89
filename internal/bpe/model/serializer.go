package model

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/gobpe/bpetok/internal/bpe/merge"
)

// Binary model format (§6.1): little-endian, fixed-width.
//
//	magic        u32
//	version      u32
//	vocab_size   u32
//	merge_count  u32
//	merges       (a,b,new_id u32 each) x merge_count
//	vocab        (len u32, bytes) x vocab_size
const (
	magic   uint32 = 0x42504521
	version uint32 = 1

	maxVocabSize  = 1_000_000
	maxMergeCount = 1_000_000
	maxTokenLen   = 1000
)

// Save writes t to path in the format above. It is atomic only to the
// extent the underlying filesystem's rename-free single Create/Write
// sequence allows — no journaling, per §4.5.
func (t *Tokenizer) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("bpetok: create %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if err := t.writeTo(w); err != nil {
		return fmt.Errorf("bpetok: write %s: %w", path, err)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("bpetok: flush %s: %w", path, err)
	}
	return nil
}

func (t *Tokenizer) writeTo(w io.Writer) error {
	var hdr [16]byte
	binary.LittleEndian.PutUint32(hdr[0:4], magic)
	binary.LittleEndian.PutUint32(hdr[4:8], version)
	binary.LittleEndian.PutUint32(hdr[8:12], uint32(len(t.Vocab)))
	binary.LittleEndian.PutUint32(hdr[12:16], uint32(len(t.Merges)))
	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}

	var rule [12]byte
	for _, m := range t.Merges {
		binary.LittleEndian.PutUint32(rule[0:4], m.A)
		binary.LittleEndian.PutUint32(rule[4:8], m.B)
		binary.LittleEndian.PutUint32(rule[8:12], m.NewID)
		if _, err := w.Write(rule[:]); err != nil {
			return err
		}
	}

	var lenBuf [4]byte
	for _, tok := range t.Vocab {
		binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(tok)))
		if _, err := w.Write(lenBuf[:]); err != nil {
			return err
		}
		if _, err := w.Write(tok); err != nil {
			return err
		}
	}
	return nil
}

// Load reads a tokenizer previously written by Save. It validates magic,
// version, and conservative bounds before trusting any length field, and
// rebuilds the inference encoder as its last step (§4.5).
func Load(path string) (*Tokenizer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("bpetok: open %s: %w", path, err)
	}
	defer f.Close()

	vocab, merges, err := readFrom(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("bpetok: load %s: %w", path, err)
	}
	return New(vocab, merges), nil
}

func readFrom(r io.Reader) ([][]byte, []merge.Rule, error) {
	var hdr [16]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, nil, fmt.Errorf("read header: %w", err)
	}

	gotMagic := binary.LittleEndian.Uint32(hdr[0:4])
	if gotMagic != magic {
		return nil, nil, fmt.Errorf("%w: got 0x%08x", ErrBadMagic, gotMagic)
	}
	gotVersion := binary.LittleEndian.Uint32(hdr[4:8])
	if gotVersion != version {
		return nil, nil, fmt.Errorf("%w: got %d, want %d", ErrBadVersion, gotVersion, version)
	}

	vocabSize := binary.LittleEndian.Uint32(hdr[8:12])
	mergeCount := binary.LittleEndian.Uint32(hdr[12:16])
	if vocabSize > maxVocabSize {
		return nil, nil, fmt.Errorf("%w: vocab_size %d exceeds %d", ErrOutOfRange, vocabSize, maxVocabSize)
	}
	if mergeCount > maxMergeCount {
		return nil, nil, fmt.Errorf("%w: merge_count %d exceeds %d", ErrOutOfRange, mergeCount, maxMergeCount)
	}
	if vocabSize != 256+mergeCount {
		return nil, nil, fmt.Errorf("%w: vocab_size %d != 256+merge_count %d", ErrOutOfRange, vocabSize, mergeCount)
	}

	merges := make([]merge.Rule, mergeCount)
	var rule [12]byte
	for i := range merges {
		if _, err := io.ReadFull(r, rule[:]); err != nil {
			return nil, nil, fmt.Errorf("read merge %d: %w", i, err)
		}
		a := binary.LittleEndian.Uint32(rule[0:4])
		b := binary.LittleEndian.Uint32(rule[4:8])
		newID := binary.LittleEndian.Uint32(rule[8:12])

		wantID := uint32(256 + i)
		if newID != wantID {
			return nil, nil, fmt.Errorf("%w: merge %d new_id %d != expected %d", ErrOutOfRange, i, newID, wantID)
		}
		if a >= newID || b >= newID {
			return nil, nil, fmt.Errorf("%w: merge %d operands (%d,%d) not less than new_id %d", ErrOutOfRange, i, a, b, newID)
		}
		merges[i] = merge.Rule{A: a, B: b, NewID: newID}
	}

	vocab := make([][]byte, 0, vocabSize)
	var lenBuf [4]byte
	for i := uint32(0); i < vocabSize; i++ {
		if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
			return nil, nil, fmt.Errorf("read vocab entry %d length: %w", i, err)
		}
		l := binary.LittleEndian.Uint32(lenBuf[:])
		if l > maxTokenLen {
			return nil, nil, fmt.Errorf("%w: token %d length %d exceeds %d", ErrOutOfRange, i, l, maxTokenLen)
		}
		tok := make([]byte, l)
		if _, err := io.ReadFull(r, tok); err != nil {
			return nil, nil, fmt.Errorf("read vocab entry %d bytes: %w", i, err)
		}
		vocab = append(vocab, tok)
	}

	return vocab, merges, nil
}
