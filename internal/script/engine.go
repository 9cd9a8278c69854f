// Package script runs expression functions written in JavaScript.
package script

import (
	"context"
	"errors"
	"fmt"
	"math"
)

// Engine names.
const (
	EngineGoja = "goja"
	EngineOtto = "otto"
)

var (
	// ErrTimeout is returned when a script runs past its deadline.
	ErrTimeout = errors.New("script execution timed out")
	// ErrNotANumber is returned when a script does not produce a number.
	ErrNotANumber = errors.New("script result is not a number")
)

// Engine compiles JavaScript source into runnable programs.
type Engine interface {
	Name() string
	Compile(name, src string) (Program, error)
}

// Program is a compiled script. Run binds vars as globals and returns the
// script's numeric completion value, or the global result when the completion
// value is undefined. Programs are safe for concurrent use.
type Program interface {
	Run(ctx context.Context, vars map[string]float64) (float64, error)
}

// NewEngine returns the engine registered under name. An empty name selects goja.
func NewEngine(name string) (Engine, error) {
	switch name {
	case "", EngineGoja:
		return GojaEngine{}, nil
	case EngineOtto:
		return OttoEngine{}, nil
	default:
		return nil, fmt.Errorf("unknown script engine %q", name)
	}
}

func toNumber(v any) (float64, error) {
	switch n := v.(type) {
	case int64:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case nil:
		return math.NaN(), fmt.Errorf("%w: undefined", ErrNotANumber)
	default:
		return math.NaN(), fmt.Errorf("%w: got %T", ErrNotANumber, v)
	}
}
