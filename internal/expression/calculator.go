package expression

import (
	"fmt"
	"strconv"
)

// Calculator runs the full pipeline: tokenize, convert to RPN, evaluate.
type Calculator struct {
	lexer     *Lexer
	evaluator *Evaluator
}

// NewCalculator creates a Calculator. Nil arguments fall back to a default
// lexer and an evaluator without functions or dice.
func NewCalculator(lexer *Lexer, evaluator *Evaluator) *Calculator {
	if lexer == nil {
		lexer = NewLexer()
	}
	if evaluator == nil {
		evaluator = NewEvaluator()
	}
	return &Calculator{lexer: lexer, evaluator: evaluator}
}

// Lexer returns the calculator's lexer.
func (c *Calculator) Lexer() *Lexer { return c.lexer }

// Evaluator returns the calculator's evaluator.
func (c *Calculator) Evaluator() *Evaluator { return c.evaluator }

// Functions returns the function registry used for evaluation.
func (c *Calculator) Functions() *Registry { return c.evaluator.Functions() }

// Tokenize tokenizes expr.
func (c *Calculator) Tokenize(expr string) ([]Token, error) {
	return c.lexer.Tokenize(expr)
}

// ToRPN tokenizes expr and converts it to reverse Polish notation.
func (c *Calculator) ToRPN(expr string) ([]Token, error) {
	tokens, err := c.lexer.Tokenize(expr)
	if err != nil {
		return nil, err
	}
	return ToRPN(tokens)
}

// Evaluate evaluates expr and returns the formatted result.
func (c *Calculator) Evaluate(expr string) (string, error) {
	rpn, err := c.ToRPN(expr)
	if err != nil {
		return "", err
	}
	return c.evaluator.Evaluate(rpn)
}

// Calculate evaluates expr and returns the result as a float64.
func (c *Calculator) Calculate(expr string) (float64, error) {
	s, err := c.Evaluate(expr)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse result %q: %w", s, err)
	}
	return v, nil
}

// Validate evaluates expr and returns the error, if any. Dice are rolled.
func (c *Calculator) Validate(expr string) error {
	_, err := c.Evaluate(expr)
	return err
}

// IsValid reports whether expr evaluates without error.
func (c *Calculator) IsValid(expr string) bool {
	return c.Validate(expr) == nil
}
