package expression

import (
	"strings"
	"unicode/utf8"
)

// Lexer splits expression strings into tokens using the definition table.
type Lexer struct {
	unaryContext string
}

// LexerOption configures a Lexer.
type LexerOption func(*Lexer)

// WithUnaryContext sets the characters after which '-' is lexed as a sign.
func WithUnaryContext(chars string) LexerOption {
	return func(l *Lexer) {
		l.unaryContext = chars
	}
}

// NewLexer creates a new Lexer.
func NewLexer(opts ...LexerOption) *Lexer {
	l := &Lexer{unaryContext: DefaultUnaryContext}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

var defaultLexer = NewLexer()

// Tokenize tokenizes input with the default lexer.
func Tokenize(input string) ([]Token, error) {
	return defaultLexer.Tokenize(input)
}

// UnaryContext returns the characters after which '-' is lexed as a sign.
func (l *Lexer) UnaryContext() string {
	return l.unaryContext
}

// Tokenize scans input left to right. At each position the first definition
// in table order that matches wins; whitespace is consumed but not emitted.
func (l *Lexer) Tokenize(input string) ([]Token, error) {
	tokens := make([]Token, 0, len(input)/2+1)
	pos := 0

	for pos < len(input) {
		matched := false
		for i := range definitions {
			def := &definitions[i]
			n := def.match(input, pos, l.unaryContext)
			if n == 0 {
				continue
			}
			if def.Type != TokenWhitespace {
				tokens = append(tokens, Token{Type: def.Type, Value: input[pos : pos+n], Pos: pos})
			}
			pos += n
			matched = true
			break
		}
		if !matched {
			r, _ := utf8.DecodeRuneInString(input[pos:])
			return nil, newInvalidCharacterError(string(r), pos)
		}
	}

	return tokens, nil
}

// Join reconstructs expression text from token values separated by sep.
// A single space keeps adjacent numbers and names from merging.
func Join(tokens []Token, sep string) string {
	parts := make([]string, len(tokens))
	for i, tok := range tokens {
		parts[i] = tok.Value
	}
	return strings.Join(parts, sep)
}

// Format renders tokens as infix text that lexes back to the same tokens,
// provided the unary context holds no whitespace. A sign stays attached to
// the character before it and a binary minus always has a space before it.
func Format(tokens []Token) string {
	var b strings.Builder
	for i, tok := range tokens {
		switch {
		case tok.Type == TokenMinus:
			b.WriteByte(' ')
		case i == 0, tok.Type == TokenSign, tokens[i-1].Type == TokenSign:
		default:
			b.WriteByte(' ')
		}
		b.WriteString(tok.Value)
	}
	return b.String()
}
