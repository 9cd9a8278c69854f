// Package app assembles the calculator and its collaborators from
// configuration.
package app

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/tariel36/rpncalc/internal/config"
	"github.com/tariel36/rpncalc/internal/dice"
	"github.com/tariel36/rpncalc/internal/expression"
	"github.com/tariel36/rpncalc/internal/metrics"
	"github.com/tariel36/rpncalc/internal/rpncache"
	"github.com/tariel36/rpncalc/internal/script"
	"github.com/tariel36/rpncalc/pkg/logger"
)

// App holds the components every command works with.
type App struct {
	Config     *config.Config
	Dice       *dice.Service
	Registry   *expression.Registry
	Calculator *expression.Calculator
	Cache      *rpncache.Cache
	Recorder   *metrics.Recorder
}

// New builds an App from cfg. The configuration is validated first.
func New(cfg *config.Config) (*App, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	roller, err := dice.New(dice.Options{
		Provider: cfg.Dice.Provider,
		Seed:     cfg.Dice.Seed,
		Sequence: cfg.Dice.Sequence,
		Limits:   dice.Limits{MaxCount: cfg.Dice.MaxCount, MaxSides: cfg.Dice.MaxSides},
	})
	if err != nil {
		return nil, fmt.Errorf("dice: %w", err)
	}

	registry, err := NewRegistry(cfg.Functions)
	if err != nil {
		return nil, err
	}

	lexer := expression.NewLexer(expression.WithUnaryContext(cfg.Lexer.UnaryContext))
	evaluator := expression.NewEvaluator(
		expression.WithRegistry(registry),
		expression.WithDiceRoller(roller),
	)

	a := &App{
		Config:     cfg,
		Dice:       roller,
		Registry:   registry,
		Calculator: expression.NewCalculator(lexer, evaluator),
		Recorder:   metrics.NewRecorder(),
	}
	if cfg.Cache.Enabled {
		a.Cache = rpncache.New(a.Calculator, cfg.Cache.Size)
	}

	logger.Debug("calculator ready",
		zap.String("dice", cfg.Dice.Provider),
		zap.Int("functions", registry.Count()),
		zap.Bool("cache", a.Cache != nil),
	)
	return a, nil
}

// Evaluator evaluates expressions through the cache when it is enabled.
type Evaluator interface {
	ToRPN(expr string) ([]expression.Token, error)
	Evaluate(expr string) (string, error)
}

// Evaluator returns the cache if enabled and the calculator otherwise.
func (a *App) Evaluator() Evaluator {
	if a.Cache != nil {
		return a.Cache
	}
	return a.Calculator
}

// NewRegistry creates the function registry described by cfg: the
// built-ins when enabled, followed by the scripted functions.
func NewRegistry(cfg config.FunctionsConfig) (*expression.Registry, error) {
	registry := expression.NewRegistry()
	if cfg.Builtins {
		if err := expression.RegisterBuiltins(registry); err != nil {
			return nil, err
		}
	}
	if len(cfg.Scripts) == 0 {
		return registry, nil
	}

	engine, err := script.NewEngine(cfg.Engine)
	if err != nil {
		return nil, err
	}
	defs, err := ScriptDefinitions(cfg.Scripts)
	if err != nil {
		return nil, err
	}
	if err := script.Register(registry, engine, cfg.ScriptTimeout, defs...); err != nil {
		return nil, err
	}
	return registry, nil
}

// ScriptDefinitions converts configured script functions.
func ScriptDefinitions(fns []config.ScriptFunction) ([]script.Definition, error) {
	defs := make([]script.Definition, 0, len(fns))
	for _, fn := range fns {
		def := script.Definition{
			Name:        fn.Name,
			Description: fn.Description,
			Script:      fn.Script,
		}
		for _, arg := range fn.Args {
			var typ expression.ArgumentType
			if err := typ.UnmarshalText([]byte(arg.Type)); err != nil {
				return nil, fmt.Errorf("function %s argument %s: %w", fn.Name, arg.Name, err)
			}
			def.Args = append(def.Args, expression.Argument{Name: arg.Name, Type: typ})
		}
		defs = append(defs, def)
	}
	return defs, nil
}

// Time evaluates expr through Evaluator and records the outcome.
func (a *App) Time(expr string) (string, time.Duration, error) {
	start := time.Now()
	result, err := a.Evaluator().Evaluate(expr)
	d := time.Since(start)
	a.Recorder.Observe(d, err)
	return result, d, err
}
