package encoder

// Source is the minimal surface StreamState needs from a trained
// tokenizer: batch encoding plus enough vocabulary knowledge to know how
// many trailing bytes might still participate in a merge that spans a
// chunk boundary. model.Tokenizer satisfies this implicitly.
type Source interface {
	Encode(input []byte) []uint32
	TokenLen(id uint32) int
	MaxTokenLen() int
}

// StreamState implements chunked encoding for pipelines that don't have
// the whole input in memory at once (§4.10). It buffers raw bytes and
// re-encodes the buffer from scratch on every Feed, but only emits the
// prefix of the result that cannot be disturbed by a later merge — the
// trailing MaxTokenLen()-1 bytes are always held back, the same
// tailReserve margin the teacher's EncoderState uses.
//
// This is NOT the "streaming training" the spec's Non-goals exclude: it
// is the already in-scope batch encoder run repeatedly with a commit
// boundary, and it does not touch the training engine.
type StreamState struct {
	src         Source
	tailReserve int

	buf    []byte
	outBuf []uint32
}

// NewStreamState returns a fresh streaming encoder over src.
func NewStreamState(src Source) *StreamState {
	tail := 0
	if m := src.MaxTokenLen(); m > 0 {
		tail = m - 1
	}
	return &StreamState{src: src, tailReserve: tail}
}

// Feed consumes the next chunk of raw bytes and returns any token IDs
// that are now guaranteed final. The returned slice aliases internal
// memory and must be treated as read-only by the caller.
func (s *StreamState) Feed(chunk []byte) []uint32 {
	s.outBuf = s.outBuf[:0]
	if len(chunk) > 0 {
		s.buf = append(s.buf, chunk...)
	}
	s.emitCommitted()
	if len(s.outBuf) == 0 {
		return nil
	}
	return s.outBuf
}

// Flush encodes and returns whatever bytes remain buffered, then resets
// the state so it can be reused for a new stream.
func (s *StreamState) Flush() []uint32 {
	s.outBuf = s.outBuf[:0]
	if len(s.buf) > 0 {
		s.outBuf = append(s.outBuf, s.src.Encode(s.buf)...)
		s.buf = s.buf[:0]
	}
	if len(s.outBuf) == 0 {
		return nil
	}
	return s.outBuf
}

func (s *StreamState) emitCommitted() {
	emitLimit := len(s.buf) - s.tailReserve
	if emitLimit <= 0 {
		return
	}

	tokens := s.src.Encode(s.buf)

	consumed := 0
	for _, id := range tokens {
		tokLen := s.src.TokenLen(id)
		if consumed+tokLen > emitLimit {
			break
		}
		s.outBuf = append(s.outBuf, id)
		consumed += tokLen
	}

	if consumed > 0 {
		s.buf = s.buf[consumed:]
	}
}
