package chunk

import "slices"

// Split cuts text into consecutive chunks of the codec size for an
// all-literal entry sequence. A chunk that would end inside a surrogate
// pair keeps the whole pair. The last chunk may be shorter.
func (c Codec) Split(text string) []string {
	u := units(text)
	if len(u) == 0 {
		return nil
	}

	parts := make([]string, 0, (len(u)+c.size-1)/c.size)
	for start := 0; start < len(u); {
		end := min(start+c.size, len(u))
		if splitsPair(u, end) {
			end++
		}
		parts = append(parts, decode(u[start:end]))
		start = end
	}
	return parts
}

// Diff produces the entries that rebuild text from baseline. A chunk equal to
// the baseline chunk at the same index becomes Unchanged, a chunk found at
// another chunk-aligned offset of the baseline becomes Copied, and anything
// else is sent as a Literal.
func (c Codec) Diff(baseline, text string) []Entry {
	base := units(baseline)

	offsets := make(map[string]int)
	for off := 0; off < len(base); off += c.size {
		part, _ := slice(base, off, c.size)
		if key := unitKey(part); !hasKey(offsets, key) {
			offsets[key] = off
		}
	}

	next := units(text)
	n := (len(next) + c.size - 1) / c.size
	entries := make([]Entry, n)
	literal := make([]bool, n)
	for i := range entries {
		part, _ := slice(next, i*c.size, c.size)
		if same, _ := slice(base, i*c.size, c.size); slices.Equal(same, part) {
			entries[i] = Unchanged()
			continue
		}
		if off, ok := offsets[unitKey(part)]; ok {
			entries[i] = Copied(off)
			continue
		}
		literal[i] = true
	}

	// A literal cannot carry half of a surrogate pair. When a chunk boundary
	// splits a pair next to a literal, both neighbours become literals and
	// the left one takes the whole pair.
	for changed := true; changed; {
		changed = false
		for i := 0; i+1 < n; i++ {
			if literal[i] != literal[i+1] && splitsPair(next, (i+1)*c.size) {
				literal[i], literal[i+1] = true, true
				changed = true
			}
		}
	}

	for i := range entries {
		if !literal[i] {
			continue
		}
		start, end := i*c.size, min((i+1)*c.size, len(next))
		if splitsPair(next, start) {
			start++
		}
		if splitsPair(next, end) {
			end++
		}
		entries[i] = Literal(decode(next[start:end]))
	}
	return entries
}

func hasKey(m map[string]int, key string) bool {
	_, ok := m[key]
	return ok
}
