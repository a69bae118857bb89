// Package merge holds the merge-rule type shared by the training engine,
// the encoder, and the serializer, so none of those packages need to
// import one another just to describe a learned rule.
package merge

// Rule is one learned merge: token A followed by token B collapses into
// NewID. Rank is implicit: a rule's position in a []Rule slice is its
// rank, and lower rank means higher priority during encoding.
type Rule struct {
	A, B, NewID uint32
}
