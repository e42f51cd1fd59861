package tree

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func joinTokens(tokens []Token) string {
	var sb strings.Builder
	for _, t := range tokens {
		sb.WriteString(t.Text)
	}
	return sb.String()
}

func TestTokenize_Completeness(t *testing.T) {
	inputs := []string{
		"",
		"hash",
		"A merkle tree (or hash tree) stores hashes.",
		"  leading and trailing  ",
		"well-known—really? Yes: \"quoted\" [a] {b} 'c'; done!",
		"multi\n\nline\ttext",
		"Café – naïve résumé...",
		"!!!",
	}
	for _, in := range inputs {
		tokens := Tokenize(in)
		require.Equal(t, in, joinTokens(tokens), "tokens must reproduce the input")

		pos := 0
		for _, tok := range tokens {
			require.NotEmpty(t, tok.Text)
			require.Equal(t, pos, tok.Start, "token %q starts at wrong offset", tok.Text)
			require.Equal(t, tok.Start+len([]rune(tok.Text)), tok.End)
			pos = tok.End
		}
	}
}

func TestTokenize_Kinds(t *testing.T) {
	tokens := Tokenize("root hash, (top)-level")
	var got []string
	for _, tok := range tokens {
		got = append(got, tok.Kind.String()+":"+tok.Text)
	}
	require.Equal(t, []string{
		"word:root", "space: ", "word:hash", "punct:,", "space: ",
		"punct:(", "word:top", "punct:)", "punct:-", "word:level",
	}, got)
}

func TestTokenize_PunctuationIsSingleCharacters(t *testing.T) {
	tokens := Tokenize("...")
	require.Len(t, tokens, 3)
	for _, tok := range tokens {
		require.Equal(t, Punct, tok.Kind)
		require.False(t, tok.Clickable())
	}
}

func TestTokenize_OnlyWordsClickable(t *testing.T) {
	for _, tok := range Tokenize("a b, c") {
		require.Equal(t, tok.Kind == Word, tok.Clickable())
	}
}

func TestTokenize_NonListedSymbolsStayInWords(t *testing.T) {
	tokens := Tokenize("TCP/IP uses 100% of SHA-256")
	var words []string
	for _, tok := range tokens {
		if tok.Clickable() {
			words = append(words, tok.Text)
		}
	}
	require.Equal(t, []string{"TCP/IP", "uses", "100%", "of", "SHA", "256"}, words)
}

func TestWordTermID(t *testing.T) {
	require.Equal(t, "word-hash-0", WordTermID("hash", 0))
	require.Equal(t, WordTermID("hash", 2), WordTermID("hash", 2))
	require.NotEqual(t, WordTermID("hash", 1), WordTermID("hash", 2))
}
