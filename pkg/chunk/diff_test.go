package chunk

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit(t *testing.T) {
	codec, err := NewCodec(3)
	require.NoError(t, err)

	assert.Nil(t, codec.Split(""))
	assert.Equal(t, []string{"abc"}, codec.Split("abc"))
	assert.Equal(t, []string{"abc", "de"}, codec.Split("abcde"))
	assert.Equal(t, []string{"äöü", "ß"}, codec.Split("äöüß"))
	assert.Equal(t, []string{"ab😀", "c"}, codec.Split("ab😀c"))
	assert.Equal(t, []string{"😀x", "y"}, codec.Split("😀xy"))
}

func TestDiffKinds(t *testing.T) {
	codec, err := NewCodec(4)
	require.NoError(t, err)

	baseline := "aaaabbbbcc"

	tests := []struct {
		name string
		text string
		want []Entry
	}{
		{
			name: "identical",
			text: baseline,
			want: []Entry{Unchanged(), Unchanged(), Unchanged()},
		},
		{
			name: "swapped chunks",
			text: "bbbbaaaa",
			want: []Entry{Copied(4), Copied(0)},
		},
		{
			name: "edited tail",
			text: "aaaabbbbcX",
			want: []Entry{Unchanged(), Unchanged(), Literal("cX")},
		},
		{
			name: "cleared",
			text: "",
			want: []Entry{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, codec.Diff(baseline, tt.text))
		})
	}
}

func TestDiffReconstructs(t *testing.T) {
	codec, err := NewCodec(DefaultSize)
	require.NoError(t, err)

	baseline := strings.Repeat("lorem ipsum dolor sit amet ", 20)
	edits := []string{
		baseline,
		"",
		"prefix " + baseline,
		baseline + " suffix",
		baseline[64:] + baseline[:64],
		strings.ToUpper(baseline),
		strings.Repeat("日本語", 50),
		strings.Repeat("😀", 100),
		"a" + strings.Repeat("😀", 100),
	}

	for _, text := range edits {
		got, report := codec.Reconstruct(baseline, codec.Diff(baseline, text))
		assert.Equal(t, text, got)
		assert.Zero(t, report.Invalid)
	}
}

func TestDiffNeverSplitsSurrogatePairInLiterals(t *testing.T) {
	codec, err := NewCodec(3)
	require.NoError(t, err)

	tests := []struct {
		name     string
		baseline string
		text     string
	}{
		{name: "pair across boundary, both literal", baseline: "", text: "ab😀cd"},
		{name: "unchanged left of a literal", baseline: "ab😀cd", text: "ab😀XY"},
		{name: "literal left of an unchanged", baseline: "ab😀cd", text: "XY😀cd"},
		{name: "copied pair halves", baseline: "ab😀cdab😀cd", text: "ab😀cdab😀cd"},
		{name: "emoji run", baseline: "😀😀😀😀", text: "😀😀😁😀😀"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries := codec.Diff(tt.baseline, tt.text)
			for _, e := range entries {
				if e.Kind == KindLiteral {
					assert.NotContains(t, e.Data, "\uFFFD")
				}
			}
			got, _ := codec.Reconstruct(tt.baseline, entries)
			assert.Equal(t, tt.text, got)
		})
	}
}

func TestDiffLiteralTakesWholePair(t *testing.T) {
	codec, err := NewCodec(3)
	require.NoError(t, err)

	entries := codec.Diff("ab😀cd", "ab😀XY")
	assert.Equal(t, []Entry{Literal("ab😀"), Literal("XY")}, entries)
}
