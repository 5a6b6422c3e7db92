package chunk

import "errors"

// DefaultSize is the number of text units per chunk. Client and server must agree on it.
const DefaultSize = 64

// ErrInvalidChunkSize is returned when a codec is built with a non-positive size
var ErrInvalidChunkSize = errors.New("chunk size must be positive")

// Kind tags the way an entry derives its chunk of the new document
type Kind int

const (
	// KindInvalid marks an entry that matched none of the other kinds. It contributes nothing.
	KindInvalid Kind = iota
	// KindUnchanged reuses the baseline chunk at the entry's own index
	KindUnchanged
	// KindCopied takes one chunk of the baseline starting at an absolute offset
	KindCopied
	// KindLiteral carries the chunk text inline
	KindLiteral
)

func (k Kind) String() string {
	switch k {
	case KindUnchanged:
		return "unchanged"
	case KindCopied:
		return "copied"
	case KindLiteral:
		return "literal"
	default:
		return "invalid"
	}
}

// Entry describes how to derive one output chunk.
// Pos is only meaningful for KindCopied and Data only for KindLiteral.
type Entry struct {
	Kind Kind
	Pos  int
	Data string
}

// Unchanged returns an entry that reuses the baseline chunk at the same index
func Unchanged() Entry {
	return Entry{Kind: KindUnchanged}
}

// Copied returns an entry that copies a chunk of the baseline starting at pos
func Copied(pos int) Entry {
	return Entry{Kind: KindCopied, Pos: pos}
}

// Literal returns an entry carrying its text inline
func Literal(data string) Entry {
	return Entry{Kind: KindLiteral, Data: data}
}

// Invalid returns an entry that contributes nothing
func Invalid() Entry {
	return Entry{Kind: KindInvalid}
}
