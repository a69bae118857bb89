// Package pretoken implements the default pre-tokenizer contract (§6.2):
// it groups maximal runs of ASCII whitespace, ASCII alphabetic, and ASCII
// digit bytes into segments; every other byte forms its own singleton
// segment. Multi-byte UTF-8 sequences are not classified specially — each
// byte of one is treated as an independent "other" byte, exactly as the
// original lexical_split does. The training and encoding engines only
// depend on the (val, next) contract below, not on this classification
// policy, so a caller is free to supply a different Splitter.
package pretoken

// Splitter segments raw bytes into token IDs (one per byte, pre-merge) and
// the forward links within each segment. next[i] == -1 marks the last
// position of a segment.
type Splitter func(text []byte) (val []uint32, next []int32)

// Split is the default ASCII-class splitter described by §6.2.
func Split(text []byte) (val []uint32, next []int32) {
	n := len(text)
	val = make([]uint32, 0, n)
	next = make([]int32, 0, n)

	i := 0
	for i < n {
		start := i
		c := text[i]

		switch {
		case isSpace(c):
			for i < n && isSpace(text[i]) {
				i++
			}
		case isAlpha(c):
			for i < n && isAlpha(text[i]) {
				i++
			}
		case isDigit(c):
			for i < n && isDigit(text[i]) {
				i++
			}
		default:
			i++
		}

		segBegin := len(val)
		for k := start; k < i; k++ {
			val = append(val, uint32(text[k]))
			next = append(next, -1)
		}

		segEnd := len(val)
		for p := segBegin; p+1 < segEnd; p++ {
			next[p] = int32(p + 1)
		}
		// next[segEnd-1] stays -1: end of this segment.
	}

	return val, next
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}

func isAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
