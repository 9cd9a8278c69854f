package expression

import (
	"errors"
	"fmt"
)

// ErrorKind classifies expression failures.
type ErrorKind int

const (
	KindInvalidExpression ErrorKind = iota + 1
	KindMismatchedParentheses
	KindMisplacedParenthesisOrArgumentSeparator
	KindMissingRightOperand
	KindMissingLeftOperand
	KindOperatorNotSupported
	KindMissingDiceEvaluator
	KindUnknownFunction
	KindInvalidTokenType
	KindInvalidTokenValue
	KindFailedToEvaluateExpression
	KindDuplicateFunctionDeclaration
	KindMissingFunctionArgument
	KindFunctionFailed
	KindDiceRollFailed
)

// Sentinels for errors.Is. An *ExpressionError matches the sentinel of its kind.
var (
	ErrInvalidExpression                       = errors.New("invalid expression")
	ErrMismatchedParentheses                   = errors.New("mismatched parentheses")
	ErrMisplacedParenthesisOrArgumentSeparator = errors.New("misplaced parenthesis or argument separator")
	ErrMissingRightOperand                     = errors.New("missing right operand")
	ErrMissingLeftOperand                      = errors.New("missing left operand")
	ErrOperatorNotSupported                    = errors.New("operator not supported")
	ErrMissingDiceEvaluator                    = errors.New("missing dice evaluator")
	ErrUnknownFunction                         = errors.New("unknown function")
	ErrInvalidTokenType                        = errors.New("invalid token type")
	ErrInvalidTokenValue                       = errors.New("invalid token value")
	ErrFailedToEvaluateExpression              = errors.New("failed to evaluate expression")
	ErrDuplicateFunctionDeclaration            = errors.New("duplicate function declaration")
	ErrMissingFunctionArgument                 = errors.New("missing function argument")
	ErrFunctionFailed                          = errors.New("function failed")
	ErrDiceRollFailed                          = errors.New("dice roll failed")
)

var kindInfo = map[ErrorKind]struct {
	name     string
	sentinel error
}{
	KindInvalidExpression:                       {"InvalidExpression", ErrInvalidExpression},
	KindMismatchedParentheses:                   {"MismatchedParentheses", ErrMismatchedParentheses},
	KindMisplacedParenthesisOrArgumentSeparator: {"MisplacedParenthesisOrArgumentSeparator", ErrMisplacedParenthesisOrArgumentSeparator},
	KindMissingRightOperand:                     {"MissingRightOperand", ErrMissingRightOperand},
	KindMissingLeftOperand:                      {"MissingLeftOperand", ErrMissingLeftOperand},
	KindOperatorNotSupported:                    {"OperatorNotSupported", ErrOperatorNotSupported},
	KindMissingDiceEvaluator:                    {"MissingDiceEvaluator", ErrMissingDiceEvaluator},
	KindUnknownFunction:                         {"UnknownFunction", ErrUnknownFunction},
	KindInvalidTokenType:                        {"InvalidTokenType", ErrInvalidTokenType},
	KindInvalidTokenValue:                       {"InvalidTokenValue", ErrInvalidTokenValue},
	KindFailedToEvaluateExpression:              {"FailedToEvaluateExpression", ErrFailedToEvaluateExpression},
	KindDuplicateFunctionDeclaration:            {"DuplicateFunctionDeclaration", ErrDuplicateFunctionDeclaration},
	KindMissingFunctionArgument:                 {"MissingFunctionArgument", ErrMissingFunctionArgument},
	KindFunctionFailed:                          {"FunctionFailed", ErrFunctionFailed},
	KindDiceRollFailed:                          {"DiceRollFailed", ErrDiceRollFailed},
}

// String returns the name of the kind.
func (k ErrorKind) String() string {
	if info, ok := kindInfo[k]; ok {
		return info.name
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// ExpressionError represents an error during tokenizing, parsing or evaluation.
type ExpressionError struct {
	Kind      ErrorKind
	Position  int    // Byte offset in the expression, -1 when unknown
	Character string // Offending character (lexer)
	Expected  string // Expected token type or value
	Actual    string // Actual token type or value
	Operator  string // Operator symbol involved
	Function  string // Function name involved
	Message   string // Extra detail
	Cause     error  // Underlying error
}

// Error implements the error interface.
func (e *ExpressionError) Error() string {
	msg := e.describe()
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	if e.Position >= 0 {
		return fmt.Sprintf("expression error at position %d: %s", e.Position, msg)
	}
	return fmt.Sprintf("expression error: %s", msg)
}

func (e *ExpressionError) describe() string {
	switch e.Kind {
	case KindInvalidExpression:
		return fmt.Sprintf("invalid character '%s'", e.Character)
	case KindMissingRightOperand, KindMissingLeftOperand:
		return fmt.Sprintf("%s for operator '%s'", kindInfo[e.Kind].sentinel, e.Operator)
	case KindOperatorNotSupported:
		return fmt.Sprintf("operator '%s' (%s) is not supported", e.Operator, e.Actual)
	case KindMissingDiceEvaluator:
		return fmt.Sprintf("operator '%s' requires a dice roller", e.Operator)
	case KindUnknownFunction:
		return fmt.Sprintf("unknown function '%s'", e.Function)
	case KindInvalidTokenType:
		return fmt.Sprintf("invalid token type: expected %s, got %s", e.Expected, e.Actual)
	case KindInvalidTokenValue:
		return fmt.Sprintf("invalid token value: expected %s, got '%s'", e.Expected, e.Actual)
	case KindDuplicateFunctionDeclaration:
		return fmt.Sprintf("duplicate function declaration '%s' (%s)", e.Function, e.Message)
	case KindMissingFunctionArgument:
		return fmt.Sprintf("function '%s' %s", e.Function, e.Message)
	case KindFunctionFailed:
		return fmt.Sprintf("function '%s' failed", e.Function)
	}
	if info, ok := kindInfo[e.Kind]; ok {
		if e.Message != "" {
			return fmt.Sprintf("%s: %s", info.sentinel, e.Message)
		}
		return info.sentinel.Error()
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *ExpressionError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is the sentinel for the error's kind.
func (e *ExpressionError) Is(target error) bool {
	info, ok := kindInfo[e.Kind]
	return ok && info.sentinel == target
}

// NewExpressionError creates a new ExpressionError without position information.
func NewExpressionError(kind ErrorKind, message string, cause error) *ExpressionError {
	return &ExpressionError{
		Kind:     kind,
		Position: -1,
		Message:  message,
		Cause:    cause,
	}
}

func newInvalidCharacterError(ch string, pos int) *ExpressionError {
	return &ExpressionError{Kind: KindInvalidExpression, Position: pos, Character: ch}
}

func newTokenError(kind ErrorKind, tok Token) *ExpressionError {
	return &ExpressionError{Kind: kind, Position: tok.Pos, Operator: tok.Value, Actual: tok.Type.String()}
}

func newFunctionError(kind ErrorKind, tok Token, message string, cause error) *ExpressionError {
	return &ExpressionError{Kind: kind, Position: tok.Pos, Function: tok.Value, Message: message, Cause: cause}
}

// KindOf returns the kind of an expression error anywhere in err's chain, or 0.
func KindOf(err error) ErrorKind {
	var exprErr *ExpressionError
	if errors.As(err, &exprErr) {
		return exprErr.Kind
	}
	return 0
}
