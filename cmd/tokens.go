package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tariel36/rpncalc/internal/expression"
)

var tokensOutput string

var tokensCmd = &cobra.Command{
	Use:   "tokens <expression>",
	Short: "Print the tokens of an expression",
	Example: `  rpncalc tokens -- "-2d6 + max(1, 2)"
  rpncalc tokens -o json "1 + 2"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(nil)
		if err != nil {
			return err
		}
		tokens, err := a.Calculator.Tokenize(strings.Join(args, " "))
		if err != nil {
			return err
		}
		return printTokens(cmd.OutOrStdout(), tokens, tokensOutput)
	},
}

var rpnCmd = &cobra.Command{
	Use:   "rpn <expression>",
	Short: "Print an expression in reverse Polish notation",
	Example: `  rpncalc rpn "1 + 2 * 3"     # 1 2 3 * +`,
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(nil)
		if err != nil {
			return err
		}
		rpn, err := a.Calculator.ToRPN(strings.Join(args, " "))
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), expression.Join(rpn, " "))
		return err
	},
}

var checkCmd = &cobra.Command{
	Use:   "check <expression>",
	Short: "Check that an expression evaluates",
	Long: `Evaluate an expression and report whether it succeeded. Dice are rolled.
The exit status is non-zero when the expression is invalid.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(nil)
		if err != nil {
			return err
		}
		if err := a.Calculator.Validate(strings.Join(args, " ")); err != nil {
			return err
		}
		if !quiet {
			fmt.Fprintln(cmd.OutOrStdout(), "ok")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tokensCmd, rpnCmd, checkCmd)

	tokensCmd.Flags().StringVarP(&tokensOutput, "output", "o", outputText, "output format (text, json)")
}

func printTokens(out io.Writer, tokens []expression.Token, format string) error {
	switch format {
	case outputJSON:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(tokens)
	case outputText:
		for _, tok := range tokens {
			if _, err := fmt.Fprintf(out, "%4d  %-16s %s\n", tok.Pos, tok.Type, tok.Value); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}
