package script

import (
	"context"
	"errors"
	"fmt"

	"github.com/dop251/goja"
)

// GojaEngine runs scripts on github.com/dop251/goja.
type GojaEngine struct{}

// Name implements Engine.
func (GojaEngine) Name() string { return EngineGoja }

// Compile implements Engine.
func (GojaEngine) Compile(name, src string) (Program, error) {
	prog, err := goja.Compile(name, src, false)
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", name, err)
	}
	return &gojaProgram{prog: prog}, nil
}

type gojaProgram struct {
	prog *goja.Program
}

// Run executes the program on a fresh runtime; goja runtimes are not
// goroutine safe.
func (p *gojaProgram) Run(ctx context.Context, vars map[string]float64) (float64, error) {
	vm := goja.New()
	for name, v := range vars {
		if err := vm.Set(name, v); err != nil {
			return 0, fmt.Errorf("bind %s: %w", name, err)
		}
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			vm.Interrupt(ErrTimeout)
		case <-done:
		}
	}()

	val, err := vm.RunProgram(p.prog)
	if err != nil {
		var interrupted *goja.InterruptedError
		if errors.As(err, &interrupted) {
			return 0, ErrTimeout
		}
		return 0, err
	}

	if val == nil || goja.IsUndefined(val) || goja.IsNull(val) {
		val = vm.Get("result")
	}
	if val == nil {
		return toNumber(nil)
	}
	return toNumber(val.Export())
}
