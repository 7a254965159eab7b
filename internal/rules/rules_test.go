package rules

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseLibrarySkipsBlankAndCommentLines(t *testing.T) {
	src := `
# a comment
A + B => A ^ B

  # indented comment
A - B => A ^ B
`
	got, err := ParseLibrary(src)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "A + B", got[0].pattern)
	require.Equal(t, "A ^ B", got[0].replacement)
	require.Equal(t, "custom-3", got[0].name)
}

func TestParseLibraryRejectsMalformedLine(t *testing.T) {
	_, err := ParseLibrary("A + B without an arrow\n")
	require.Error(t, err)
}

func TestDefaultPreservesListOrder(t *testing.T) {
	loaded, err := Default(8)
	require.NoError(t, err)
	require.Len(t, loaded, len(defaultText))
	for i, r := range defaultText {
		require.Equal(t, r.name, loaded[i].Name)
	}
}

func TestDefaultRuleLastEntryIsXor127(t *testing.T) {
	loaded, err := Default(8)
	require.NoError(t, err)
	require.Equal(t, "xor127-to-not", loaded[len(loaded)-1].Name)
}

func TestLoadParsesAndPreparesPattern(t *testing.T) {
	rs := []TextRule{{name: "sum-or-to-and", pattern: "A + B - (A | B)", replacement: "A & B"}}
	loaded, err := Load(rs, 8)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	require.NotNil(t, loaded[0].Pattern)
	require.NotNil(t, loaded[0].Replacement)
}

func TestLoadReportsPatternParseError(t *testing.T) {
	rs := []TextRule{{name: "bad", pattern: "A + )", replacement: "A"}}
	_, err := Load(rs, 8)
	require.Error(t, err)
}
