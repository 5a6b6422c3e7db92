package chunk

import (
	"errors"
	"runtime"
	"strings"
	"testing"
	"unicode/utf16"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCodec(t *testing.T) Codec {
	t.Helper()
	codec, err := NewCodec(DefaultSize)
	require.NoError(t, err)
	return codec
}

func unchangedFor(text string, size int) []Entry {
	n := (len(utf16.Encode([]rune(text))) + size - 1) / size
	entries := make([]Entry, n)
	for i := range entries {
		entries[i] = Unchanged()
	}
	return entries
}

func TestNewCodec(t *testing.T) {
	_, err := NewCodec(0)
	assert.True(t, errors.Is(err, ErrInvalidChunkSize))

	_, err = NewCodec(-3)
	assert.True(t, errors.Is(err, ErrInvalidChunkSize))

	codec, err := NewCodec(8)
	require.NoError(t, err)
	assert.Equal(t, 8, codec.Size())
}

func TestReconstructUnchangedRoundTrip(t *testing.T) {
	codec := newTestCodec(t)

	baselines := []string{
		"",
		"short",
		strings.Repeat("a", 64),
		strings.Repeat("b", 65),
		strings.Repeat("0123456789", 30),
		strings.Repeat("é漢", 70),
		strings.Repeat("😀x", 50),
	}

	for _, baseline := range baselines {
		text, report := codec.Reconstruct(baseline, unchangedFor(baseline, DefaultSize))
		assert.Equal(t, baseline, text)
		assert.Zero(t, report.Invalid)
	}
}

func TestReconstructEmptyEntriesClears(t *testing.T) {
	codec := newTestCodec(t)

	text, report := codec.Reconstruct("some persisted draft", nil)
	assert.Equal(t, "", text)
	assert.Zero(t, report.Total())

	text, _ = codec.Reconstruct("some persisted draft", []Entry{})
	assert.Equal(t, "", text)
}

func TestReconstructLiteralsIgnoreBaseline(t *testing.T) {
	codec := newTestCodec(t)
	entries := []Entry{Literal("AB"), Literal("CD")}

	for _, baseline := range []string{"", "anything", strings.Repeat("z", 500)} {
		text, report := codec.Reconstruct(baseline, entries)
		assert.Equal(t, "ABCD", text)
		assert.Equal(t, 2, report.Literal)
	}
}

func TestReconstructCopyOfFirstChunk(t *testing.T) {
	codec := newTestCodec(t)
	baseline := "0123456789" + strings.Repeat("x", 54) + "ABCDEFGHIJ" + strings.Repeat("y", 54)
	require.Len(t, baseline, 128)

	text, report := codec.Reconstruct(baseline, []Entry{Unchanged(), Copied(0)})
	assert.Equal(t, baseline[0:64]+baseline[0:64], text)
	assert.Equal(t, Report{Unchanged: 1, Copied: 1}, report)
}

func TestReconstructCopyAtUnalignedOffset(t *testing.T) {
	codec, err := NewCodec(4)
	require.NoError(t, err)

	text, _ := codec.Reconstruct("abcdefghij", []Entry{Copied(3), Copied(8)})
	assert.Equal(t, "defgij", text)
}

func TestReconstructOutOfRange(t *testing.T) {
	codec := newTestCodec(t)

	tests := []struct {
		name        string
		baseline    string
		entries     []Entry
		wantText    string
		wantClamped int
	}{
		{
			name:        "negative copy offset",
			baseline:    "hello",
			entries:     []Entry{Copied(-1)},
			wantText:    "",
			wantClamped: 1,
		},
		{
			name:        "copy offset past the end",
			baseline:    "hello",
			entries:     []Entry{Copied(5), Copied(1000)},
			wantText:    "",
			wantClamped: 2,
		},
		{
			name:        "copy truncated at the end",
			baseline:    "hello",
			entries:     []Entry{Copied(3)},
			wantText:    "lo",
			wantClamped: 1,
		},
		{
			name:        "unchanged index past the end",
			baseline:    "hello",
			entries:     []Entry{Unchanged(), Unchanged(), Literal("!")},
			wantText:    "hello!",
			wantClamped: 2,
		},
		{
			name:        "unchanged against empty baseline",
			baseline:    "",
			entries:     []Entry{Unchanged()},
			wantText:    "",
			wantClamped: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, report := codec.Reconstruct(tt.baseline, tt.entries)
			assert.Equal(t, tt.wantText, text)
			assert.Equal(t, tt.wantClamped, report.Clamped)
		})
	}
}

func TestReconstructInvalidEntriesContributeNothing(t *testing.T) {
	codec := newTestCodec(t)

	text, report := codec.Reconstruct("base", []Entry{Literal("a"), Invalid(), {Kind: Kind(42)}, Literal("b")})
	assert.Equal(t, "ab", text)
	assert.Equal(t, 2, report.Invalid)
	assert.Equal(t, 4, report.Total())
}

func TestReconstructCountsUTF16Units(t *testing.T) {
	codec := newTestCodec(t)
	baseline := "😀" + strings.Repeat("a", 100)

	// The emoji takes two of the 64 units of the first chunk.
	text, report := codec.Reconstruct(baseline, []Entry{Unchanged(), Literal("|")})
	assert.Equal(t, "😀"+strings.Repeat("a", 62)+"|", text)
	assert.Zero(t, report.Clamped)

	text, _ = codec.Reconstruct(baseline, []Entry{Copied(2)})
	assert.Equal(t, strings.Repeat("a", 64), text)
}

func TestReconstructJoinsSplitSurrogatePair(t *testing.T) {
	codec, err := NewCodec(3)
	require.NoError(t, err)
	baseline := "ab😀c"

	text, _ := codec.Reconstruct(baseline, []Entry{Unchanged(), Unchanged()})
	assert.Equal(t, baseline, text)

	text, _ = codec.Reconstruct(baseline, []Entry{Literal(">"), Copied(0), Copied(3)})
	assert.Equal(t, ">ab😀c", text)

	// Half a pair on its own cannot be encoded.
	text, _ = codec.Reconstruct(baseline, []Entry{Copied(3), Literal("!")})
	assert.Equal(t, "\uFFFDc!", text)
}

func TestReconstructManyEntriesSmallBaseline(t *testing.T) {
	codec := newTestCodec(t)
	entries := make([]Entry, 1_000_000)
	for i := range entries {
		entries[i] = Unchanged()
	}

	var before, after runtime.MemStats
	runtime.ReadMemStats(&before)
	text, report := codec.Reconstruct("tiny", entries)
	runtime.ReadMemStats(&after)

	assert.Equal(t, "tiny", text)
	assert.Equal(t, len(entries), report.Unchanged)
	assert.Equal(t, len(entries), report.Clamped)
	assert.Less(t, after.TotalAlloc-before.TotalAlloc, uint64(1<<20))
}

func TestReconstructOrderSensitive(t *testing.T) {
	codec := newTestCodec(t)
	baseline := strings.Repeat("a", 64) + strings.Repeat("b", 64)

	forward, _ := codec.Reconstruct(baseline, []Entry{Unchanged(), Literal("tail")})
	swapped, _ := codec.Reconstruct(baseline, []Entry{Literal("tail"), Unchanged()})
	assert.NotEqual(t, forward, swapped)
	assert.Equal(t, strings.Repeat("a", 64)+"tail", forward)
	assert.Equal(t, "tail"+strings.Repeat("b", 64), swapped)

	same := []Entry{Literal("x"), Literal("x")}
	a, _ := codec.Reconstruct(baseline, same)
	b, _ := codec.Reconstruct(baseline, []Entry{same[1], same[0]})
	assert.Equal(t, a, b)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "unchanged", KindUnchanged.String())
	assert.Equal(t, "copied", KindCopied.String())
	assert.Equal(t, "literal", KindLiteral.String())
	assert.Equal(t, "invalid", KindInvalid.String())
	assert.Equal(t, "invalid", Kind(99).String())
}
