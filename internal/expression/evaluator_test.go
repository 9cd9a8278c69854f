package expression

import (
	"errors"
	"fmt"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sequenceRoller returns 1, 2, 3, ... across every die it rolls.
type sequenceRoller struct {
	next int
}

func (s *sequenceRoller) Roll(count, sides int) ([]int, error) {
	faces := make([]int, count)
	for i := range faces {
		s.next++
		faces[i] = s.next
	}
	return faces, nil
}

func fixedRoller(faces ...int) DiceRoller {
	return DiceRollerFunc(func(count, sides int) ([]int, error) {
		return faces, nil
	})
}

func evaluate(t *testing.T, e *Evaluator, input string) (string, error) {
	t.Helper()
	return NewCalculator(nil, e).Evaluate(input)
}

func TestEvaluator_Arithmetic(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"1+2", "3"},
		{"2*(3+4)", "14"},
		{"10/2-3", "2"},
		{"-5+3", "-2"},
		{"5-3", "2"},
		{"5*-3", "-15"},
		{"2 *-3", "-6"},
		{"1 --2", "3"},
		{"(-3)", "-3"},
		{"--2", "2"},
		{"2.50", "2.50"},
		{"0.1+0.2", "0.30000000000000004"},
		{"7/2", "3.5"},
		{"1/3*3", "1"},
		{"1/0", "+Inf"},
		{"-1/0", "-Inf"},
		{"0/0", "NaN"},
		{"1/0+1", "+Inf"},
		{"-0", "-0"},
		{"1000000*1000000", "1000000000000"},
		{"  ( ( 4 ) ) ", "4"},
	}

	e := NewEvaluator()
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result, err := evaluate(t, e, tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestEvaluator_Dice(t *testing.T) {
	e := NewEvaluator(WithDiceRoller(fixedRoller(3, 3, 3)))
	result, err := evaluate(t, e, "3d6")
	require.NoError(t, err)
	assert.Equal(t, "9", result)
}

func TestEvaluator_DiceReceivesCountAndSides(t *testing.T) {
	var gotCount, gotSides int
	roller := DiceRollerFunc(func(count, sides int) ([]int, error) {
		gotCount, gotSides = count, sides
		return []int{1}, nil
	})

	_, err := evaluate(t, NewEvaluator(WithDiceRoller(roller)), "(1+1)d(2*10)")
	require.NoError(t, err)
	assert.Equal(t, 2, gotCount)
	assert.Equal(t, 20, gotSides)
}

func TestEvaluator_SequentialDice(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"1d20", "1"},
		{"2d20", "3"},
		{"1d6", "1"},
		{"1d6+1d6", "3"},
		{"2*1d6", "2"},
		{"2*1d6+2", "4"},
		{"2*1d6-2", "0"},
		{"2*(2*2d6-2)-2", "6"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			e := NewEvaluator(WithDiceRoller(&sequenceRoller{}))
			result, err := evaluate(t, e, tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestEvaluator_ComplexDiceWithFunction(t *testing.T) {
	e := NewEvaluator(WithDiceRoller(&sequenceRoller{}))
	require.NoError(t, e.RegisterFunction(NewFunction("min", func(args []float64) (float64, error) {
		if args[0] < args[1] {
			return args[0], nil
		}
		return args[1], nil
	}, Integer("a"), Integer("b"))))

	result, err := evaluate(t, e, "2*min(2*(2*2d6-2)-2+2*(2*2d6-2)-2, 5+2*(2*2d6-2)-2+2*(2*2d6-2)-2)")
	require.NoError(t, err)
	assert.Equal(t, "56", result)
}

func TestEvaluator_Functions(t *testing.T) {
	e := NewEvaluator()
	require.NoError(t, e.RegisterFunction(NewFunction("sin", func(args []float64) (float64, error) {
		return args[0], nil
	}, Integer("x"))))
	require.NoError(t, e.RegisterFunction(NewFunction("max", func(args []float64) (float64, error) {
		if args[0] > args[1] {
			return args[0], nil
		}
		return args[1], nil
	}, Number("a"), Number("b"))))
	require.NoError(t, e.RegisterFunction(NewFunction("min", func(args []float64) (float64, error) {
		if args[0] < args[1] {
			return args[0], nil
		}
		return args[1], nil
	}, Number("a"), Number("b"))))

	tests := []struct {
		input    string
		expected string
	}{
		{"max(3,7)", "7"},
		{"max(7,3)", "7"},
		{"2+3*(3-3)+sin(3)-min(4,3)", "2"},
		{"max(1, max(2, 3))", "3"},
		{"max(1+1, 2*2)*10", "40"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result, err := evaluate(t, e, tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestEvaluator_FunctionArgumentOrder(t *testing.T) {
	var got []float64
	e := NewEvaluator()
	require.NoError(t, e.RegisterFunction(NewFunction("order", func(args []float64) (float64, error) {
		got = append([]float64(nil), args...)
		return 0, nil
	}, Number("a"), Number("b"), Number("c"))))

	_, err := evaluate(t, e, "order(1, 2, 3)")
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 2, 1}, got)
}

func TestEvaluator_FirstOverloadWins(t *testing.T) {
	e := NewEvaluator()
	require.NoError(t, e.RegisterFunction(NewFunction("pick", func(args []float64) (float64, error) {
		return 1, nil
	}, Number("a"))))
	require.NoError(t, e.RegisterFunction(NewFunction("pick", func(args []float64) (float64, error) {
		return 2, nil
	}, Integer("a"))))

	result, err := evaluate(t, e, "pick(5)")
	require.NoError(t, err)
	assert.Equal(t, "1", result)
}

func TestEvaluator_Errors(t *testing.T) {
	e := NewEvaluator()
	require.NoError(t, e.RegisterFunction(NewFunction("max", func(args []float64) (float64, error) {
		return args[0], nil
	}, Number("a"), Number("b"))))
	require.NoError(t, e.RegisterFunction(NewFunction("fail", func(args []float64) (float64, error) {
		return 0, fmt.Errorf("boom")
	}, Number("a"))))
	require.NoError(t, e.RegisterFunction(NewFunction("id", func(args []float64) (float64, error) {
		return args[0], nil
	}, Integer("a"))))

	tests := []struct {
		input string
		kind  ErrorKind
	}{
		{"1+", KindMissingLeftOperand},
		{"+", KindMissingRightOperand},
		{"-", KindMissingRightOperand},
		{"3d6", KindMissingDiceEvaluator},
		{"foo(1)", KindUnknownFunction},
		{"max(1)", KindMissingFunctionArgument},
		{"fail(1)", KindFunctionFailed},
		{"id(1.5)", KindInvalidTokenValue},
		{"1 2", KindFailedToEvaluateExpression},
		{"", KindFailedToEvaluateExpression},
		{"(", KindMismatchedParentheses},
		{"1 @ 2", KindInvalidExpression},
		// A space before '-' makes it a binary minus.
		{"2 * -3", KindMissingLeftOperand},
		{"1 - -2", KindMissingLeftOperand},
		{"( -3)", KindMissingLeftOperand},
		{" -3", KindMissingLeftOperand},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := evaluate(t, e, tt.input)
			require.Error(t, err)
			assert.Equal(t, tt.kind, KindOf(err), "error: %v", err)
		})
	}
}

func TestEvaluator_FunctionFailedKeepsCause(t *testing.T) {
	cause := errors.New("boom")
	e := NewEvaluator()
	require.NoError(t, e.RegisterFunction(NewFunction("fail", func(args []float64) (float64, error) {
		return 0, cause
	}, Number("a"))))

	_, err := evaluate(t, e, "fail(1)")
	require.Error(t, err)
	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, ErrFunctionFailed)
	assert.Contains(t, err.Error(), "function 'fail' failed: boom")
}

func TestEvaluator_InvalidTokenValue(t *testing.T) {
	e := NewEvaluator()
	assert.Nil(t, e.LastError())

	_, err := e.Evaluate([]Token{
		{Type: TokenNumber, Value: "abc", Pos: 0},
		{Type: TokenNumber, Value: "1", Pos: 4},
		{Type: TokenPlus, Value: "+", Pos: 3},
	})
	require.Error(t, err)

	var exprErr *ExpressionError
	require.ErrorAs(t, err, &exprErr)
	assert.Equal(t, KindInvalidTokenValue, exprErr.Kind)
	assert.Equal(t, "abc", exprErr.Actual)
	assert.Equal(t, 0, exprErr.Position)

	var numErr *strconv.NumError
	assert.ErrorAs(t, err, &numErr)
	assert.ErrorAs(t, e.LastError(), &numErr)
}

func TestEvaluator_LastErrorClearedOnNextEvaluate(t *testing.T) {
	e := NewEvaluator()
	_, err := e.Evaluate([]Token{{Type: TokenNumber, Value: "abc"}, {Type: TokenSign, Value: "-"}})
	require.Error(t, err)
	require.Error(t, e.LastError())

	result, err := e.Evaluate([]Token{{Type: TokenNumber, Value: "2"}, {Type: TokenNumber, Value: "3"}, {Type: TokenPlus, Value: "+"}})
	require.NoError(t, err)
	assert.Equal(t, "5", result)
	assert.NoError(t, e.LastError())
}

func TestEvaluator_DiceRequiresIntegers(t *testing.T) {
	e := NewEvaluator(WithDiceRoller(fixedRoller(1)))
	_, err := evaluate(t, e, "1.5d6")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidTokenValue))
	assert.NotNil(t, e.LastError())
}

func TestEvaluator_DiceRollFailed(t *testing.T) {
	roller := DiceRollerFunc(func(count, sides int) ([]int, error) {
		return nil, fmt.Errorf("sides must be positive")
	})
	_, err := evaluate(t, NewEvaluator(WithDiceRoller(roller)), "1d0")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDiceRollFailed))
	assert.Contains(t, err.Error(), "1d0")
}

func TestEvaluator_InvalidTokenTypeInQueue(t *testing.T) {
	_, err := NewEvaluator().Evaluate([]Token{
		{Type: TokenNumber, Value: "1"},
		{Type: TokenLeftParen, Value: "("},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidTokenType))
}

func TestEvaluator_SharedRegistry(t *testing.T) {
	registry := NewRegistry()
	require.NoError(t, RegisterBuiltins(registry))

	e1 := NewEvaluator(WithRegistry(registry))
	e2 := NewEvaluator(WithRegistry(registry))
	assert.Same(t, e1.Functions(), e2.Functions())

	result, err := evaluate(t, e2, "max(2, 9)")
	require.NoError(t, err)
	assert.Equal(t, "9", result)
}

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "3", FormatNumber(3))
	assert.Equal(t, "-2.5", FormatNumber(-2.5))
	assert.Equal(t, "1234567.125", FormatNumber(1234567.125))
	assert.Equal(t, "0.001", FormatNumber(0.001))
}
