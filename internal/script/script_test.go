package script

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tariel36/rpncalc/internal/expression"
)

func engines(t *testing.T) []Engine {
	t.Helper()
	var out []Engine
	for _, name := range []string{EngineGoja, EngineOtto} {
		e, err := NewEngine(name)
		require.NoError(t, err)
		out = append(out, e)
	}
	return out
}

func TestNewEngine(t *testing.T) {
	e, err := NewEngine("")
	require.NoError(t, err)
	assert.Equal(t, EngineGoja, e.Name())

	e, err = NewEngine("otto")
	require.NoError(t, err)
	assert.Equal(t, EngineOtto, e.Name())

	_, err = NewEngine("v8")
	assert.Error(t, err)
}

func TestProgram_Run(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		vars   map[string]float64
		expect float64
	}{
		{"completion value", "a + b", map[string]float64{"a": 2, "b": 3}, 5},
		{"math object", "Math.sqrt(a*a + b*b)", map[string]float64{"a": 3, "b": 4}, 5},
		{"result variable", "var result = x * 2;", map[string]float64{"x": 21}, 42},
		{"fractional", "x / 4", map[string]float64{"x": 1}, 0.25},
		{"statements", "var t = 0; for (var i = 1; i <= n; i++) { t += i; } t", map[string]float64{"n": 4}, 10},
	}

	for _, engine := range engines(t) {
		for _, tt := range tests {
			t.Run(engine.Name()+"/"+tt.name, func(t *testing.T) {
				prog, err := engine.Compile(tt.name, tt.src)
				require.NoError(t, err)

				got, err := prog.Run(context.Background(), tt.vars)
				require.NoError(t, err)
				assert.Equal(t, tt.expect, got)
			})
		}
	}
}

func TestProgram_Errors(t *testing.T) {
	for _, engine := range engines(t) {
		t.Run(engine.Name(), func(t *testing.T) {
			_, err := engine.Compile("broken", "a +* (")
			assert.Error(t, err)

			prog, err := engine.Compile("text", "'abc'")
			require.NoError(t, err)
			_, err = prog.Run(context.Background(), nil)
			assert.ErrorIs(t, err, ErrNotANumber)

			prog, err = engine.Compile("undef", "var y = 1;")
			require.NoError(t, err)
			_, err = prog.Run(context.Background(), nil)
			assert.ErrorIs(t, err, ErrNotANumber)

			prog, err = engine.Compile("throws", "throw new Error('nope')")
			require.NoError(t, err)
			_, err = prog.Run(context.Background(), nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "nope")
		})
	}
}

func TestProgram_Timeout(t *testing.T) {
	for _, engine := range engines(t) {
		t.Run(engine.Name(), func(t *testing.T) {
			prog, err := engine.Compile("spin", "while (true) {}")
			require.NoError(t, err)

			ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer cancel()

			start := time.Now()
			_, err = prog.Run(ctx, nil)
			assert.ErrorIs(t, err, ErrTimeout)
			assert.Less(t, time.Since(start), 5*time.Second)
		})
	}
}

func TestNewFunction_ArgumentBinding(t *testing.T) {
	for _, engine := range engines(t) {
		t.Run(engine.Name(), func(t *testing.T) {
			fn, err := NewFunction(engine, Definition{
				Name:        "sub",
				Description: "a minus b",
				Args:        []expression.Argument{expression.Number("a"), expression.Number("b")},
				Script:      "a - b",
			}, time.Second)
			require.NoError(t, err)
			assert.Equal(t, "sub(a number, b number)", fn.Signature())
			assert.Equal(t, "a minus b", fn.Description)

			e := expression.NewEvaluator()
			require.NoError(t, e.RegisterFunction(fn))

			result, err := expression.NewCalculator(nil, e).Evaluate("sub(10, 3)")
			require.NoError(t, err)
			assert.Equal(t, "7", result)
		})
	}
}

func TestNewFunction_Invalid(t *testing.T) {
	engine := GojaEngine{}

	_, err := NewFunction(engine, Definition{Name: "d", Script: "1"}, 0)
	assert.Error(t, err)

	_, err = NewFunction(engine, Definition{Name: "f", Args: []expression.Argument{{Name: ""}}, Script: "1"}, 0)
	assert.Error(t, err)

	_, err = NewFunction(engine, Definition{
		Name:   "f",
		Args:   []expression.Argument{expression.Number("x"), expression.Number("x")},
		Script: "x",
	}, 0)
	assert.Error(t, err)

	_, err = NewFunction(engine, Definition{Name: "f", Script: "(("}, 0)
	assert.Error(t, err)
}

func TestNewFunction_FailureSurfacesAsFunctionFailed(t *testing.T) {
	fn, err := NewFunction(GojaEngine{}, Definition{
		Name:   "spin",
		Args:   []expression.Argument{expression.Number("x")},
		Script: "while (true) {}",
	}, 20*time.Millisecond)
	require.NoError(t, err)

	e := expression.NewEvaluator()
	require.NoError(t, e.RegisterFunction(fn))

	_, err = expression.NewCalculator(nil, e).Evaluate("1 + spin(2)")
	require.Error(t, err)
	assert.True(t, errors.Is(err, expression.ErrFunctionFailed))
	assert.True(t, errors.Is(err, ErrTimeout))
}

func TestRegister(t *testing.T) {
	registry := expression.NewRegistry()
	defs := []Definition{
		{Name: "hyp", Args: []expression.Argument{expression.Number("a"), expression.Number("b")}, Script: "Math.sqrt(a*a + b*b)"},
		{Name: "pi", Script: "Math.PI"},
	}

	require.NoError(t, Register(registry, OttoEngine{}, time.Second, defs...))
	assert.Equal(t, []string{"hyp", "pi"}, registry.Names())

	calc := expression.NewCalculator(nil, expression.NewEvaluator(expression.WithRegistry(registry)))
	v, err := calc.Calculate("hyp(3, 4)")
	require.NoError(t, err)
	assert.Equal(t, 5.0, v)

	v, err = calc.Calculate("2 * pi()")
	require.NoError(t, err)
	assert.InDelta(t, 2*math.Pi, v, 1e-12)

	err = Register(registry, GojaEngine{}, time.Second, defs[0])
	assert.True(t, errors.Is(err, expression.ErrDuplicateFunctionDeclaration))
}

func TestToNumber(t *testing.T) {
	v, err := toNumber(int64(3))
	require.NoError(t, err)
	assert.Equal(t, 3.0, v)

	v, err = toNumber(math.Inf(1))
	require.NoError(t, err)
	assert.True(t, math.IsInf(v, 1))

	_, err = toNumber(true)
	assert.ErrorIs(t, err, ErrNotANumber)
}
