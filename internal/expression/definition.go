package expression

import (
	"regexp"
	"strings"
)

// DefaultUnaryContext lists the characters after which a '-' is a sign
// rather than a binary minus.
const DefaultUnaryContext = `d(^-+*\`

// TokenDefinition describes one lexical category: how it is matched and how
// the parser treats it.
type TokenDefinition struct {
	Type          TokenType     `json:"type" yaml:"type"`
	Pattern       string        `json:"pattern" yaml:"pattern"`
	Precedence    int           `json:"precedence" yaml:"precedence"`
	Associativity Associativity `json:"associativity" yaml:"associativity"`
	IsOperator    bool          `json:"is_operator" yaml:"is_operator"`
	IsFunction    bool          `json:"is_function" yaml:"is_function"`
	IsParenthesis bool          `json:"is_parenthesis" yaml:"is_parenthesis"`

	re *regexp.Regexp
}

// Order matters: the lexer takes the first definition that matches.
var definitions = []TokenDefinition{
	{Type: TokenFunction, Pattern: `^([a-zA-Z][a-zA-Z]+|[a-ce-zA-CE-Z])`, Precedence: 6, Associativity: AssocLeftToRight, IsFunction: true},
	{Type: TokenNumber, Pattern: `^[0-9]+(\.[0-9]+)?`},
	{Type: TokenLeftParen, Pattern: `^\(`, Precedence: 12, Associativity: AssocLeftToRight, IsParenthesis: true},
	{Type: TokenRightParen, Pattern: `^\)`, Precedence: 12, Associativity: AssocLeftToRight, IsParenthesis: true},
	{Type: TokenDice, Pattern: `^d`, Precedence: 10, Associativity: AssocLeftToRight, IsOperator: true},
	{Type: TokenMultiply, Pattern: `^\*`, Precedence: 9, Associativity: AssocLeftToRight, IsOperator: true},
	{Type: TokenDivide, Pattern: `^/`, Precedence: 9, Associativity: AssocLeftToRight, IsOperator: true},
	{Type: TokenPlus, Pattern: `^\+`, Precedence: 8, Associativity: AssocLeftToRight, IsOperator: true},
	// RE2 has no lookbehind; the preceding character is checked in matchMinus.
	{Type: TokenMinus, Pattern: `^-`, Precedence: 8, Associativity: AssocLeftToRight, IsOperator: true},
	{Type: TokenSign, Pattern: `^-`, Precedence: 11, Associativity: AssocRightToLeft, IsOperator: true},
	{Type: TokenComma, Pattern: `^,`, Precedence: 7, Associativity: AssocLeftToRight},
	{Type: TokenWhitespace, Pattern: `^\s+`},
}

var functionNamePattern = regexp.MustCompile(`^([a-zA-Z][a-zA-Z]+|[a-ce-zA-CE-Z])$`)

func init() {
	for i := range definitions {
		definitions[i].re = regexp.MustCompile(definitions[i].Pattern)
	}
}

// Definitions returns a copy of the ordered token definition table.
func Definitions() []TokenDefinition {
	out := make([]TokenDefinition, len(definitions))
	copy(out, definitions)
	return out
}

// FindDefinition returns the first definition of the given category.
func FindDefinition(typ TokenType) (TokenDefinition, bool) {
	for _, def := range definitions {
		if def.Type == typ {
			return def, true
		}
	}
	return TokenDefinition{}, false
}

// IsValidFunctionName reports whether name would be lexed as a single
// function token.
func IsValidFunctionName(name string) bool {
	return functionNamePattern.MatchString(name)
}

// match returns the length of the text matched at input[pos:], or 0.
func (d *TokenDefinition) match(input string, pos int, unaryContext string) int {
	if d.Type == TokenMinus {
		return matchMinus(input, pos, unaryContext)
	}
	loc := d.re.FindStringIndex(input[pos:])
	if loc == nil {
		return 0
	}
	return loc[1]
}

// matchMinus matches a binary minus: a '-' with a character immediately
// before it that is not part of the unary context. Whitespace counts, so
// "2 * -3" holds a binary minus while "2 *-3" holds a sign.
func matchMinus(input string, pos int, unaryContext string) int {
	if input[pos] != '-' || pos == 0 {
		return 0
	}
	if strings.IndexByte(unaryContext, input[pos-1]) >= 0 {
		return 0
	}
	return 1
}
