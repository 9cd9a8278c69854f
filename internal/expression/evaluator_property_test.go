// Package expression provides property-based tests for the expression pipeline.
// Arithmetic results are checked against govaluate as an independent oracle.
package expression

import (
	"fmt"
	"math"
	"strconv"
	"testing"

	"github.com/Knetic/govaluate"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func oracle(expr string) (float64, error) {
	parsed, err := govaluate.NewEvaluableExpression(expr)
	if err != nil {
		return 0, err
	}
	v, err := parsed.Evaluate(nil)
	if err != nil {
		return 0, err
	}
	f, ok := v.(float64)
	if !ok {
		return 0, fmt.Errorf("oracle returned %T", v)
	}
	return f, nil
}

func sameFloat(a, b float64) bool {
	if math.IsNaN(a) || math.IsNaN(b) {
		return math.IsNaN(a) && math.IsNaN(b)
	}
	if a == b {
		return true
	}
	scale := math.Max(math.Abs(a), math.Abs(b))
	return math.Abs(a-b) <= 1e-9*scale
}

// TestArithmeticMatchesOracleProperty checks that + - * / follow standard
// precedence and left associativity.
func TestArithmeticMatchesOracleProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)
	calc := NewCalculator(nil, nil)

	properties.Property("a op b op c matches oracle", prop.ForAll(
		func(a, b, c int, op1, op2 string) bool {
			expr := fmt.Sprintf("%d %s %d %s %d", a, op1, b, op2, c)
			got, err := calc.Calculate(expr)
			if err != nil {
				return false
			}
			want, err := oracle(expr)
			if err != nil {
				return false
			}
			return sameFloat(got, want)
		},
		gen.IntRange(0, 1000),
		gen.IntRange(1, 1000),
		gen.IntRange(1, 1000),
		gen.OneConstOf("+", "-", "*", "/"),
		gen.OneConstOf("+", "-", "*", "/"),
	))

	properties.Property("parenthesised groups match oracle", prop.ForAll(
		func(a, b, c, d int, op1, op2, op3 string) bool {
			expr := fmt.Sprintf("(%d %s %d) %s (%d %s %d)", a, op1, b, op2, c, op3, d)
			got, err := calc.Calculate(expr)
			if err != nil {
				return false
			}
			want, err := oracle(expr)
			if err != nil {
				return false
			}
			return sameFloat(got, want)
		},
		gen.IntRange(0, 100),
		gen.IntRange(1, 100),
		gen.IntRange(0, 100),
		gen.IntRange(1, 100),
		gen.OneConstOf("+", "-", "*", "/"),
		gen.OneConstOf("+", "-", "*"),
		gen.OneConstOf("+", "-", "*", "/"),
	))

	properties.Property("leading sign negates", prop.ForAll(
		func(a int) bool {
			result, err := calc.Evaluate("-" + strconv.Itoa(a))
			return err == nil && result == FormatNumber(-float64(a))
		},
		gen.IntRange(0, 1_000_000),
	))

	properties.TestingRun(t)
}

func genArithmetic(t *rapid.T, depth int) string {
	if depth == 0 || rapid.IntRange(0, 2).Draw(t, "leaf") == 0 {
		return strconv.Itoa(rapid.IntRange(0, 50).Draw(t, "n"))
	}
	left := genArithmetic(t, depth-1)
	right := genArithmetic(t, depth-1)
	op := rapid.SampledFrom([]string{"+", "-", "*", "/"}).Draw(t, "op")
	expr := left + " " + op + " " + right
	if rapid.Bool().Draw(t, "paren") {
		expr = "(" + expr + ")"
	}
	return expr
}

// TestNestedArithmeticProperty compares nested expressions against the oracle.
func TestNestedArithmeticProperty(t *testing.T) {
	calc := NewCalculator(nil, nil)

	rapid.Check(t, func(t *rapid.T) {
		expr := genArithmetic(t, 4)

		got, err := calc.Calculate(expr)
		if err != nil {
			t.Fatalf("evaluate %q: %v", expr, err)
		}
		want, err := oracle(expr)
		if err != nil {
			t.Fatalf("oracle %q: %v", expr, err)
		}
		if !sameFloat(got, want) {
			t.Fatalf("%q: got %v, oracle %v", expr, got, want)
		}
	})
}

var fragments = []string{
	"0", "7", "42", " 3.25 ", "ab", "x", "max", "d", "+", "-", "*", "/", "(", ")", ",", " ", "  ",
}

// TestTokenizeIdempotenceProperty re-tokenizes the formatted tokens and
// expects the same token sequence.
func TestTokenizeIdempotenceProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		parts := rapid.SliceOfN(rapid.SampledFrom(fragments), 1, 30).Draw(t, "parts")
		input := ""
		for _, p := range parts {
			input += p
		}

		first, err := Tokenize(input)
		if err != nil {
			t.Fatalf("tokenize %q: %v", input, err)
		}
		text := Format(first)
		second, err := Tokenize(text)
		if err != nil {
			t.Fatalf("re-tokenize %q: %v", text, err)
		}

		if len(first) != len(second) {
			t.Fatalf("%q: %d tokens, re-tokenized %q gave %d", input, len(first), text, len(second))
		}
		for i := range first {
			if first[i].Type != second[i].Type || first[i].Value != second[i].Value {
				t.Fatalf("%q: token %d is %s, re-tokenized %s", input, i, first[i], second[i])
			}
		}
	})
}

// TestRPNStructureProperty checks that RPN output never carries parentheses
// or commas and that evaluation collapses a valid expression to one number.
func TestRPNStructureProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		expr := genArithmetic(t, 3)
		tokens, err := Tokenize(expr)
		if err != nil {
			t.Fatalf("tokenize %q: %v", expr, err)
		}
		rpn, err := ToRPN(tokens)
		if err != nil {
			t.Fatalf("to rpn %q: %v", expr, err)
		}
		for _, tok := range rpn {
			if tok.IsParenthesis() || tok.Type == TokenComma {
				t.Fatalf("%q: structural token %s in rpn", expr, tok)
			}
		}
		if _, err := NewEvaluator().Evaluate(rpn); err != nil {
			t.Fatalf("evaluate %q: %v", expr, err)
		}
	})
}

func TestOracleSanity(t *testing.T) {
	v, err := oracle("10 / 2 - 3")
	require.NoError(t, err)
	require.Equal(t, 2.0, v)
}
