package script

import (
	"context"
	"fmt"
	"time"

	"github.com/tariel36/rpncalc/internal/expression"
)

// Definition describes a scripted function. Args are listed in the order
// they are written in a call.
type Definition struct {
	Name        string
	Description string
	Args        []expression.Argument
	Script      string
}

// NewFunction compiles def with engine and wraps it as an expression function.
// Each call binds the arguments by name and runs with the given timeout;
// zero disables the timeout.
func NewFunction(engine Engine, def Definition, timeout time.Duration) (*expression.FunctionDefinition, error) {
	if !expression.IsValidFunctionName(def.Name) {
		return nil, fmt.Errorf("invalid function name %q", def.Name)
	}
	seen := make(map[string]bool, len(def.Args))
	for _, a := range def.Args {
		if a.Name == "" {
			return nil, fmt.Errorf("function %s: argument without a name", def.Name)
		}
		if seen[a.Name] {
			return nil, fmt.Errorf("function %s: duplicate argument %q", def.Name, a.Name)
		}
		seen[a.Name] = true
	}

	prog, err := engine.Compile(def.Name, def.Script)
	if err != nil {
		return nil, err
	}

	names := make([]string, len(def.Args))
	for i, a := range def.Args {
		names[i] = a.Name
	}

	invoke := func(args []float64) (float64, error) {
		n := len(names)
		vars := make(map[string]float64, n)
		for i, name := range names {
			vars[name] = args[n-1-i]
		}

		ctx := context.Background()
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		return prog.Run(ctx, vars)
	}

	return expression.NewFunction(def.Name, invoke, def.Args...).WithDescription(def.Description), nil
}

// Register compiles every definition and adds it to registry. It stops at the
// first failure.
func Register(registry *expression.Registry, engine Engine, timeout time.Duration, defs ...Definition) error {
	for _, def := range defs {
		fn, err := NewFunction(engine, def, timeout)
		if err != nil {
			return err
		}
		if err := registry.Register(fn); err != nil {
			return fmt.Errorf("register %s: %w", def.Name, err)
		}
	}
	return nil
}
