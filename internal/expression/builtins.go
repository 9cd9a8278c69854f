package expression

import (
	"fmt"
	"math"
)

// Builtins returns the standard function set. Each call returns fresh
// definitions.
func Builtins() []*FunctionDefinition {
	return []*FunctionDefinition{
		NewFunction("min", func(args []float64) (float64, error) {
			return math.Min(args[1], args[0]), nil
		}, Number("a"), Number("b")).WithDescription("smaller of a and b"),

		NewFunction("max", func(args []float64) (float64, error) {
			return math.Max(args[1], args[0]), nil
		}, Number("a"), Number("b")).WithDescription("greater of a and b"),

		NewFunction("abs", unary(math.Abs), Number("x")).WithDescription("absolute value"),
		NewFunction("floor", unary(math.Floor), Number("x")).WithDescription("round down"),
		NewFunction("ceil", unary(math.Ceil), Number("x")).WithDescription("round up"),
		NewFunction("round", unary(math.Round), Number("x")).WithDescription("round half away from zero"),

		NewFunction("sqrt", func(args []float64) (float64, error) {
			if args[0] < 0 {
				return 0, fmt.Errorf("square root of negative number %s", FormatNumber(args[0]))
			}
			return math.Sqrt(args[0]), nil
		}, Number("x")).WithDescription("square root"),

		// args arrive last-written first: args[1] is the base.
		NewFunction("pow", func(args []float64) (float64, error) {
			return math.Pow(args[1], args[0]), nil
		}, Number("base"), Number("exponent")).WithDescription("base raised to exponent"),
	}
}

// RegisterBuiltins registers Builtins into registry.
func RegisterBuiltins(registry *Registry) error {
	for _, def := range Builtins() {
		if err := registry.Register(def); err != nil {
			return err
		}
	}
	return nil
}

func unary(fn func(float64) float64) Func {
	return func(args []float64) (float64, error) {
		return fn(args[0]), nil
	}
}
