// Package expression provides arithmetic and dice expression tokenizing,
// conversion to reverse Polish notation and evaluation.
package expression

import "fmt"

// TokenType represents the lexical category of a token.
type TokenType int

const (
	TokenNumber TokenType = iota
	TokenFunction
	TokenLeftParen
	TokenRightParen
	TokenDice
	TokenMultiply
	TokenDivide
	TokenPlus
	TokenMinus
	TokenSign
	TokenComma
	TokenWhitespace
)

var tokenTypeNames = map[TokenType]string{
	TokenNumber:     "Number",
	TokenFunction:   "Function",
	TokenLeftParen:  "LeftParenthesis",
	TokenRightParen: "RightParenthesis",
	TokenDice:       "Dice",
	TokenMultiply:   "Multiply",
	TokenDivide:     "Divide",
	TokenPlus:       "Plus",
	TokenMinus:      "Minus",
	TokenSign:       "Sign",
	TokenComma:      "Comma",
	TokenWhitespace: "Whitespace",
}

// String returns the string representation of the token type.
func (t TokenType) String() string {
	if name, ok := tokenTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TokenType(%d)", int(t))
}

// MarshalText implements encoding.TextMarshaler.
func (t TokenType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *TokenType) UnmarshalText(text []byte) error {
	for typ, name := range tokenTypeNames {
		if name == string(text) {
			*t = typ
			return nil
		}
	}
	return fmt.Errorf("unknown token type %q", string(text))
}

// Associativity decides how operators of equal precedence group.
type Associativity int

const (
	AssocNone Associativity = iota
	AssocLeftToRight
	AssocRightToLeft
)

// String returns the string representation of the associativity.
func (a Associativity) String() string {
	switch a {
	case AssocLeftToRight:
		return "LeftToRight"
	case AssocRightToLeft:
		return "RightToLeft"
	default:
		return "None"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (a Associativity) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// Token represents a lexical token.
type Token struct {
	Type  TokenType `json:"type" yaml:"type"`
	Value string    `json:"value" yaml:"value"`
	// Pos is the byte offset in the source, or -1 for evaluator results.
	Pos int `json:"pos" yaml:"pos"`
}

// NewNumberToken creates a Number token that has no source position.
func NewNumberToken(value string) Token {
	return Token{Type: TokenNumber, Value: value, Pos: -1}
}

// Definition returns the table entry describing the token's category.
func (t Token) Definition() TokenDefinition {
	def, _ := FindDefinition(t.Type)
	return def
}

// IsOperator reports whether the token is an operator.
func (t Token) IsOperator() bool { return t.Definition().IsOperator }

// IsFunction reports whether the token names a function.
func (t Token) IsFunction() bool { return t.Definition().IsFunction }

// IsParenthesis reports whether the token is a parenthesis.
func (t Token) IsParenthesis() bool { return t.Definition().IsParenthesis }

// Precedence returns the binding strength of the token.
func (t Token) Precedence() int { return t.Definition().Precedence }

// Associativity returns the token's associativity.
func (t Token) Associativity() Associativity { return t.Definition().Associativity }

// String returns a compact debug form such as Number(3).
func (t Token) String() string {
	return fmt.Sprintf("%s(%s)", t.Type, t.Value)
}
