package tree

import (
	"fmt"
	"strings"
	"unicode"
)

// Kind classifies a token.
type Kind int

const (
	Word Kind = iota
	Space
	Punct
)

func (k Kind) String() string {
	switch k {
	case Word:
		return "word"
	case Space:
		return "space"
	case Punct:
		return "punct"
	}
	return "unknown"
}

// Token is a slice of node text. Start and End are rune offsets.
type Token struct {
	Text  string
	Kind  Kind
	Start int
	End   int
}

// Clickable reports whether the token can be expanded.
func (t Token) Clickable() bool { return t.Kind == Word }

const punctuation = ".,!?;:()[]{}\"'—–-"

func isPunct(r rune) bool {
	return strings.ContainsRune(punctuation, r)
}

// Tokenize splits text into runs of whitespace, single punctuation characters
// and words. The token texts concatenate back to text exactly.
func Tokenize(text string) []Token {
	var tokens []Token
	var cur []rune
	curKind := Word
	start, pos := 0, 0

	flush := func() {
		if len(cur) == 0 {
			return
		}
		tokens = append(tokens, Token{Text: string(cur), Kind: curKind, Start: start, End: pos})
		cur = cur[:0]
	}

	for _, r := range text {
		switch {
		case unicode.IsSpace(r):
			if curKind != Space {
				flush()
				curKind, start = Space, pos
			}
			cur = append(cur, r)
		case isPunct(r):
			flush()
			tokens = append(tokens, Token{Text: string(r), Kind: Punct, Start: pos, End: pos + 1})
			curKind = Punct
		default:
			if curKind != Word {
				flush()
				curKind, start = Word, pos
			}
			cur = append(cur, r)
		}
		pos++
	}
	flush()
	return tokens
}

// WordTermID is the synthesized term id for an ad-hoc word click.
func WordTermID(word string, depth int) string {
	return fmt.Sprintf("word-%s-%d", word, depth)
}
