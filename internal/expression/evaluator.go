package expression

import (
	"strconv"
	"sync"
)

// DiceRoller rolls count dice with the given number of sides and returns
// the individual faces.
type DiceRoller interface {
	Roll(count, sides int) ([]int, error)
}

// DiceRollerFunc adapts a function to DiceRoller.
type DiceRollerFunc func(count, sides int) ([]int, error)

// Roll implements DiceRoller.
func (f DiceRollerFunc) Roll(count, sides int) ([]int, error) {
	return f(count, sides)
}

// Evaluator evaluates RPN token queues.
type Evaluator struct {
	functions *Registry
	roller    DiceRoller

	mu      sync.Mutex
	lastErr error
}

// EvaluatorOption configures an Evaluator.
type EvaluatorOption func(*Evaluator)

// WithDiceRoller sets the roller used by the dice operator.
func WithDiceRoller(roller DiceRoller) EvaluatorOption {
	return func(e *Evaluator) {
		e.roller = roller
	}
}

// WithRegistry makes the evaluator resolve functions from registry.
func WithRegistry(registry *Registry) EvaluatorOption {
	return func(e *Evaluator) {
		if registry != nil {
			e.functions = registry
		}
	}
}

// NewEvaluator creates a new Evaluator with an empty function registry and
// no dice roller unless options say otherwise.
func NewEvaluator(opts ...EvaluatorOption) *Evaluator {
	e := &Evaluator{functions: NewRegistry()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// RegisterFunction registers a function with the evaluator's registry.
func (e *Evaluator) RegisterFunction(def *FunctionDefinition) error {
	return e.functions.Register(def)
}

// Functions returns the evaluator's function registry.
func (e *Evaluator) Functions() *Registry {
	return e.functions
}

// LastError returns the operand conversion failure of the most recent
// Evaluate call, or nil when that call had none. Each Evaluate clears it.
func (e *Evaluator) LastError() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastErr
}

func (e *Evaluator) setLastError(err error) {
	e.mu.Lock()
	e.lastErr = err
	e.mu.Unlock()
}

// Evaluate consumes an RPN queue and returns the single resulting number,
// formatted with FormatNumber.
func (e *Evaluator) Evaluate(rpn []Token) (string, error) {
	e.setLastError(nil)
	stack := make([]Token, 0, len(rpn))

	for _, tok := range rpn {
		switch {
		case tok.IsOperator():
			if len(stack) == 0 {
				return "", newTokenError(KindMissingRightOperand, tok)
			}
			right := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			var result Token
			var err error
			if tok.Type == TokenSign {
				result, err = e.evaluateSign(right)
			} else {
				if len(stack) == 0 {
					return "", newTokenError(KindMissingLeftOperand, tok)
				}
				left := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				result, err = e.evaluateBinary(tok, left, right)
			}
			if err != nil {
				return "", err
			}
			stack = append(stack, result)

		case tok.IsFunction():
			var result Token
			var err error
			stack, result, err = e.evaluateFunction(tok, stack)
			if err != nil {
				return "", err
			}
			stack = append(stack, result)

		case tok.Type == TokenNumber:
			stack = append(stack, tok)

		default:
			return "", &ExpressionError{
				Kind:     KindInvalidTokenType,
				Position: tok.Pos,
				Expected: "Number, operator or function",
				Actual:   tok.Type.String(),
			}
		}
	}

	if len(stack) != 1 {
		return "", &ExpressionError{
			Kind:     KindFailedToEvaluateExpression,
			Position: -1,
			Message:  strconv.Itoa(len(stack)) + " values remain on the stack",
		}
	}

	return stack[0].Value, nil
}

func (e *Evaluator) evaluateSign(right Token) (Token, error) {
	v, err := e.toFloat(right)
	if err != nil {
		return Token{}, err
	}
	return NewNumberToken(FormatNumber(-v)), nil
}

func (e *Evaluator) evaluateBinary(op, left, right Token) (Token, error) {
	switch op.Type {
	case TokenPlus, TokenMinus, TokenMultiply, TokenDivide:
		l, err := e.toFloat(left)
		if err != nil {
			return Token{}, err
		}
		r, err := e.toFloat(right)
		if err != nil {
			return Token{}, err
		}

		var v float64
		switch op.Type {
		case TokenPlus:
			v = l + r
		case TokenMinus:
			v = l - r
		case TokenMultiply:
			v = l * r
		case TokenDivide:
			v = l / r
		}
		return NewNumberToken(FormatNumber(v)), nil

	case TokenDice:
		if e.roller == nil {
			return Token{}, newTokenError(KindMissingDiceEvaluator, op)
		}
		count, err := e.toInt(left)
		if err != nil {
			return Token{}, err
		}
		sides, err := e.toInt(right)
		if err != nil {
			return Token{}, err
		}
		faces, err := e.roller.Roll(count, sides)
		if err != nil {
			return Token{}, &ExpressionError{
				Kind:     KindDiceRollFailed,
				Position: op.Pos,
				Operator: op.Value,
				Message:  strconv.Itoa(count) + "d" + strconv.Itoa(sides),
				Cause:    err,
			}
		}
		sum := 0
		for _, face := range faces {
			sum += face
		}
		return NewNumberToken(strconv.Itoa(sum)), nil
	}

	return Token{}, newTokenError(KindOperatorNotSupported, op)
}

func (e *Evaluator) evaluateFunction(tok Token, stack []Token) ([]Token, Token, error) {
	def, ok := e.functions.Lookup(tok.Value)
	if !ok {
		return stack, Token{}, newFunctionError(KindUnknownFunction, tok, "", nil)
	}

	n := def.ArgumentCount()
	if len(stack) < n {
		msg := "expects " + strconv.Itoa(n) + " arguments, " + strconv.Itoa(len(stack)) + " available"
		return stack, Token{}, newFunctionError(KindMissingFunctionArgument, tok, msg, nil)
	}

	args := make([]float64, n)
	for i := 0; i < n; i++ {
		arg := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		// args[i] holds the (n-1-i)th declared argument.
		var v float64
		var err error
		if def.Arguments[n-1-i].Type == ArgInteger {
			var iv int
			iv, err = e.toInt(arg)
			v = float64(iv)
		} else {
			v, err = e.toFloat(arg)
		}
		if err != nil {
			return stack, Token{}, err
		}
		args[i] = v
	}

	result, err := def.Invoke(args)
	if err != nil {
		return stack, Token{}, newFunctionError(KindFunctionFailed, tok, "", err)
	}
	return stack, NewNumberToken(FormatNumber(result)), nil
}

func (e *Evaluator) toFloat(tok Token) (float64, error) {
	if err := e.checkNumber(tok); err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(tok.Value, 64)
	if err != nil {
		return 0, e.invalidValue(tok, "number", err)
	}
	return v, nil
}

func (e *Evaluator) toInt(tok Token) (int, error) {
	if err := e.checkNumber(tok); err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(tok.Value)
	if err != nil {
		return 0, e.invalidValue(tok, "integer", err)
	}
	return v, nil
}

func (e *Evaluator) checkNumber(tok Token) error {
	if tok.Type == TokenNumber {
		return nil
	}
	return &ExpressionError{
		Kind:     KindInvalidTokenType,
		Position: tok.Pos,
		Expected: TokenNumber.String(),
		Actual:   tok.Type.String(),
	}
}

func (e *Evaluator) invalidValue(tok Token, expected string, cause error) error {
	e.setLastError(cause)
	return &ExpressionError{
		Kind:     KindInvalidTokenValue,
		Position: tok.Pos,
		Expected: expected,
		Actual:   tok.Value,
		Cause:    cause,
	}
}

// FormatNumber formats v independently of locale: '.' as the decimal
// separator, no grouping and the shortest representation that round-trips.
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
