package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/shlex"
	"github.com/spf13/cobra"

	"github.com/tariel36/rpncalc/internal/app"
	"github.com/tariel36/rpncalc/internal/config"
	"github.com/tariel36/rpncalc/internal/dice"
	"github.com/tariel36/rpncalc/internal/expression"
)

const replHelp = `Enter an expression to evaluate it, or a command:
  :tokens <expr>      print the tokens of an expression
  :rpn <expr>         print an expression in reverse Polish notation
  :functions          list the available functions
  :seed <n>           reseed the dice
  :sequence <n>...    roll these faces in order
  :stats              evaluation latency so far
  :help               show this help
  :quit               leave
`

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Evaluate expressions interactively",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(nil)
		if err != nil {
			return err
		}
		r := &repl{app: a, out: cmd.OutOrStdout(), prompt: !quiet}
		return r.run(cmd.InOrStdin())
	},
}

func init() {
	rootCmd.AddCommand(replCmd)
}

type repl struct {
	app    *app.App
	out    io.Writer
	prompt bool
}

func (r *repl) run(in io.Reader) error {
	scanner := bufio.NewScanner(in)
	for {
		if r.prompt {
			fmt.Fprint(r.out, "> ")
		}
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case strings.HasPrefix(line, ":"):
			done, err := r.command(line[1:])
			if err != nil {
				fmt.Fprintln(r.out, "error:", err)
			}
			if done {
				return nil
			}
		default:
			result, _, err := r.app.Time(line)
			if err != nil {
				fmt.Fprintln(r.out, "error:", err)
				continue
			}
			fmt.Fprintln(r.out, result)
		}
	}
}

// command runs a ':' command and reports whether the session should end.
func (r *repl) command(line string) (bool, error) {
	fields, err := shlex.Split(line)
	if err != nil {
		return false, err
	}
	if len(fields) == 0 {
		return false, fmt.Errorf("empty command, try :help")
	}
	name, rest := fields[0], fields[1:]
	expr := strings.Join(rest, " ")

	switch name {
	case "q", "quit", "exit":
		return true, nil
	case "h", "help":
		fmt.Fprint(r.out, replHelp)
	case "tokens":
		tokens, err := r.app.Calculator.Tokenize(expr)
		if err != nil {
			return false, err
		}
		return false, printTokens(r.out, tokens, outputText)
	case "rpn":
		rpn, err := r.app.Evaluator().ToRPN(expr)
		if err != nil {
			return false, err
		}
		fmt.Fprintln(r.out, expression.Join(rpn, " "))
	case "functions":
		for _, def := range r.app.Registry.List() {
			fmt.Fprintln(r.out, def.Signature())
		}
	case "seed":
		if len(rest) != 1 {
			return false, fmt.Errorf("usage: :seed <n>")
		}
		seed, err := strconv.ParseUint(rest[0], 10, 64)
		if err != nil {
			return false, fmt.Errorf("invalid seed %q", rest[0])
		}
		return false, r.rebuild(diceOverrides(seed, nil))
	case "sequence":
		if len(rest) == 0 {
			return false, fmt.Errorf("usage: :sequence <n>...")
		}
		faces := make([]int, len(rest))
		for i, f := range rest {
			n, err := strconv.Atoi(strings.TrimSuffix(f, ","))
			if err != nil {
				return false, fmt.Errorf("invalid face %q", f)
			}
			faces[i] = n
		}
		return false, r.rebuild(diceOverrides(0, faces))
	case "stats":
		s := r.app.Recorder.Snapshot()
		fmt.Fprintf(r.out, "%d evaluations, %d errors, p50 %dus, p99 %dus, max %dus\n",
			s.Count, s.Errors, s.P50Micros, s.P99Micros, s.MaxMicros)
	default:
		return false, fmt.Errorf("unknown command %q, try :help", name)
	}
	return false, nil
}

// rebuild replaces the app with one built from the current configuration
// plus mutate. The recorder carries over.
func (r *repl) rebuild(mutate func(*config.Config)) error {
	cfg := r.app.Config.Clone()
	mutate(cfg)
	a, err := app.New(cfg)
	if err != nil {
		return err
	}
	a.Recorder = r.app.Recorder
	r.app = a
	if r.prompt {
		fmt.Fprintf(r.out, "dice: %s\n", describeDice(cfg.Dice))
	}
	return nil
}

func describeDice(cfg config.DiceConfig) string {
	switch cfg.Provider {
	case dice.ProviderSequence:
		return fmt.Sprintf("sequence %v", cfg.Sequence)
	case dice.ProviderPCG:
		if cfg.Seed != 0 {
			return fmt.Sprintf("pcg seed %d", cfg.Seed)
		}
	}
	return cfg.Provider
}
