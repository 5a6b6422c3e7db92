package chunk

import (
	"fmt"
)

// Report counts what a reconstruction did with its entries
type Report struct {
	Unchanged int `json:"unchanged"`
	Copied    int `json:"copied"`
	Literal   int `json:"literal"`
	Invalid   int `json:"invalid"`
	// Clamped counts baseline slices that ran past the end of the baseline
	// and so contributed fewer than a full chunk.
	Clamped int `json:"clamped"`
}

// Total returns the number of entries seen
func (r Report) Total() int {
	return r.Unchanged + r.Copied + r.Literal + r.Invalid
}

// Codec turns a baseline plus an entry sequence into new document text.
// Text is measured in UTF-16 code units.
type Codec struct {
	size int
}

// NewCodec creates a codec for the given chunk size
func NewCodec(size int) (Codec, error) {
	if size <= 0 {
		return Codec{}, fmt.Errorf("%w: %d", ErrInvalidChunkSize, size)
	}
	return Codec{size: size}, nil
}

// Size returns the chunk size in UTF-16 code units
func (c Codec) Size() int {
	return c.size
}

// Reconstruct builds the new document text. It has no side effects.
// An empty entry sequence yields an empty document.
func (c Codec) Reconstruct(baseline string, entries []Entry) (string, Report) {
	var report Report
	if len(entries) == 0 {
		return "", report
	}

	base := units(baseline)
	// The capacity hint never exceeds the baseline; append grows past it.
	out := make([]uint16, 0, min(len(entries)*c.size, len(base)))

	for i, entry := range entries {
		switch entry.Kind {
		case KindUnchanged:
			report.Unchanged++
			part, whole := slice(base, i*c.size, c.size)
			if !whole {
				report.Clamped++
			}
			out = append(out, part...)
		case KindCopied:
			report.Copied++
			part, whole := slice(base, entry.Pos, c.size)
			if !whole {
				report.Clamped++
			}
			out = append(out, part...)
		case KindLiteral:
			report.Literal++
			out = append(out, units(entry.Data)...)
		default:
			report.Invalid++
		}
	}

	// Decoded once so a pair split across two slices is joined again.
	return decode(out), report
}
