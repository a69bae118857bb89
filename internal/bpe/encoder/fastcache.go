package encoder

import "github.com/gobpe/bpetok/internal/bpe/merge"

// fastPairCache is a dense fast path for the inference rank lookup,
// adapted from the teacher's PairLookup hybrid (2-D array for small IDs,
// map fallback for the rest). Most adjacent pairs hit during encoding
// involve small, frequently reused token IDs — byte tokens and early
// merges — so a small dense array in front of the shared pairmap.Map
// avoids the hashing and probing cost for the common case.
type fastPairCache struct {
	width int
	ranks []int32
}

const maxCacheWidth = 256

func newFastPairCache(merges []merge.Rule, vocabSize int) *fastPairCache {
	width := vocabSize
	if width > maxCacheWidth {
		width = maxCacheWidth
	}
	if width <= 0 {
		return &fastPairCache{}
	}

	ranks := make([]int32, width*width)
	for i := range ranks {
		ranks[i] = -1
	}
	for i, r := range merges {
		if int(r.A) < width && int(r.B) < width {
			ranks[int(r.A)*width+int(r.B)] = int32(i)
		}
	}

	return &fastPairCache{width: width, ranks: ranks}
}

func (c *fastPairCache) lookup(a, b uint32) (int32, bool) {
	if c == nil || int(a) >= c.width || int(b) >= c.width {
		return 0, false
	}
	r := c.ranks[int(a)*c.width+int(b)]
	if r < 0 {
		return 0, false
	}
	return r, true
}
