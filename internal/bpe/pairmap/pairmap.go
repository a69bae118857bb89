// Package pairmap implements the pair statistics map: an open-addressed,
// linear-probing hash table from a packed pair key to a {count, head}
// entry. During training, count is the pair's live frequency and head
// indexes into a position pool. During inference the same structure is
// reshaped: head is repurposed to carry a merge rank (see Entry doc) and
// count goes unused, per the "dual use of the pair map's head field"
// design note — this repo always makes the repurposing explicit by
// building a fresh Map for inference rather than mutating a training map
// in place, rather than relying on a runtime heuristic.
package pairmap

import "github.com/gobpe/bpetok/internal/bpe/pairkey"

// hashMul is the odd multiplicative hashing constant used to scramble
// packed pair keys before masking into the table.
const hashMul = 0x9E3779B97F4A7C15

// Entry is one slot. An empty slot has Key == pairkey.Sentinel, Count == 0,
// Head == -1. During training Head is a position-pool list head; during
// inference Head is a merge rank.
type Entry struct {
	Key   uint64
	Count uint32
	Head  int32
}

// Map is the open-addressed table. Size is always a power of two so probing
// can mask instead of mod.
type Map struct {
	table []Entry
	mask  uint64
}

// NextPow2 returns the smallest power of two that is >= n (minimum 1).
func NextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// New allocates a table of exactly sizePow2 slots. Callers are expected to
// have already rounded up with NextPow2.
func New(sizePow2 int) *Map {
	m := &Map{
		table: make([]Entry, sizePow2),
		mask:  uint64(sizePow2 - 1),
	}
	m.clear()
	return m
}

func (m *Map) clear() {
	for i := range m.table {
		m.table[i] = Entry{Key: pairkey.Sentinel, Count: 0, Head: -1}
	}
}

// Get returns a pointer to the entry for key: either the existing entry, or
// an empty slot ready for the caller to populate. The map is never resized
// by Get; callers must pre-size conservatively (see §4.1's invariant that
// the map is never full). A probe that visits every slot without finding
// either key or an empty one means that invariant was violated by the
// caller's sizing — not a recoverable stale-entry case, so it panics rather
// than looping forever.
func (m *Map) Get(key uint64) *Entry {
	idx := (key * hashMul) & m.mask
	for steps := 0; steps <= int(m.mask); steps++ {
		e := &m.table[idx]
		if e.Key == key || e.Key == pairkey.Sentinel {
			return e
		}
		idx = (idx + 1) & m.mask
	}
	panic("pairmap: table full, violating the never-full sizing invariant")
}

// Delete logically removes an entry: its key goes back to the sentinel and
// its count to zero. Head is deliberately left dangling — entries still
// reachable via stale queue or position-pool indices are detected as
// stale by the consumer, not by the map.
func (m *Map) Delete(e *Entry) {
	e.Key = pairkey.Sentinel
	e.Count = 0
}

// Table exposes the raw slots for bulk iteration (e.g. priority-queue
// seeding in Phase 2 of training).
func (m *Map) Table() []Entry {
	return m.table
}

// Len returns the number of slots (the table's fixed size, not the number
// of live entries).
func (m *Map) Len() int {
	return len(m.table)
}
