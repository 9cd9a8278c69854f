package script

import (
	"context"
	"fmt"

	"github.com/robertkrimen/otto"
)

// OttoEngine runs scripts on github.com/robertkrimen/otto.
type OttoEngine struct{}

// Name implements Engine.
func (OttoEngine) Name() string { return EngineOtto }

// Compile implements Engine. Otto has no standalone program type, so the
// source is parsed once here to surface syntax errors and again per run.
func (OttoEngine) Compile(name, src string) (Program, error) {
	if _, err := otto.New().Compile(name, src); err != nil {
		return nil, fmt.Errorf("compile %s: %w", name, err)
	}
	return &ottoProgram{name: name, src: src}, nil
}

type ottoProgram struct {
	name string
	src  string
}

type ottoHalt struct{}

func (p *ottoProgram) Run(ctx context.Context, vars map[string]float64) (result float64, err error) {
	vm := otto.New()
	for name, v := range vars {
		if err := vm.Set(name, v); err != nil {
			return 0, fmt.Errorf("bind %s: %w", name, err)
		}
	}

	vm.Interrupt = make(chan func(), 1)
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			vm.Interrupt <- func() {
				panic(ottoHalt{})
			}
		case <-done:
		}
	}()

	defer func() {
		if caught := recover(); caught != nil {
			if _, ok := caught.(ottoHalt); ok {
				result, err = 0, ErrTimeout
				return
			}
			panic(caught)
		}
	}()

	val, err := vm.Run(p.src)
	if err != nil {
		return 0, err
	}

	if val.IsUndefined() || val.IsNull() {
		if val, err = vm.Get("result"); err != nil {
			return 0, err
		}
	}
	if !val.IsNumber() {
		return 0, fmt.Errorf("%w: got %q", ErrNotANumber, val.String())
	}
	return val.ToFloat()
}
