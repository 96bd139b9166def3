package tsql

import (
	"strings"
	"unicode"
)

// Tokens the lexer emits on their own even when glued to other text.
const (
	tokenComma      = ","
	tokenDot        = "."
	tokenParenOpen  = "("
	tokenParenClose = ")"
)

// closingQuote maps an opening identifier delimiter to its closing one.
var closingQuote = map[rune]rune{
	'[': ']',
	'"': '"',
}

// token is one lexeme of a line. glued is set when no whitespace separates
// it from the token before it on the same line.
type token struct {
	text  string
	glued bool
}

// Tokenize splits one line of T-SQL into tokens.
//
// Whitespace separates tokens. Text inside [...] or "..." is kept verbatim as
// a single token, delimiters stripped; an empty quoted region yields nothing.
// Bare commas and parentheses are emitted as tokens of their own. Quoting
// never carries over to the next line.
func Tokenize(line string) []string {
	lexemes := lex(line)
	if lexemes == nil {
		return nil
	}
	tokens := make([]string, len(lexemes))
	for i, t := range lexemes {
		tokens[i] = t.text
	}
	return tokens
}

func lex(line string) []token {
	var (
		tokens []token
		buf    strings.Builder
		closer rune
		quoted bool
		gap    = true
	)

	emit := func(text string) {
		tokens = append(tokens, token{text: text, glued: !gap})
		gap = false
	}
	flush := func() {
		if buf.Len() > 0 {
			emit(buf.String())
			buf.Reset()
		}
	}

	for _, r := range line {
		switch {
		case quoted:
			if r == closer {
				flush()
				quoted = false
				continue
			}
			buf.WriteRune(r)
		case unicode.IsSpace(r):
			flush()
			gap = true
		case r == '[' || r == '"':
			flush()
			closer = closingQuote[r]
			quoted = true
		case r == ',' || r == '(' || r == ')':
			flush()
			emit(string(r))
		default:
			buf.WriteRune(r)
		}
	}
	flush()

	return tokens
}
