package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/tariel36/rpncalc/internal/expression"
)

var tableFormat string

var functionsCmd = &cobra.Command{
	Use:   "functions",
	Short: "List the functions expressions may call",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(nil)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, def := range a.Registry.List() {
			if def.Description != "" {
				fmt.Fprintf(out, "%-32s %s\n", def.Signature(), def.Description)
			} else {
				fmt.Fprintln(out, def.Signature())
			}
		}
		return nil
	},
}

var tableCmd = &cobra.Command{
	Use:   "table",
	Short: "Print the token definition table",
	Long: `Print the ordered token definition table the lexer and parser use:
match pattern, precedence, associativity and role of each token type.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return printTable(cmd.OutOrStdout(), expression.Definitions(), tableFormat)
	},
}

func init() {
	rootCmd.AddCommand(functionsCmd, tableCmd)

	tableCmd.Flags().StringVar(&tableFormat, "format", outputText, "output format (text, yaml)")
}

func printTable(out io.Writer, defs []expression.TokenDefinition, format string) error {
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(defs); err != nil {
			return err
		}
		return enc.Close()
	case outputText:
		fmt.Fprintf(out, "%-18s %-26s %4s  %-12s %s\n", "TYPE", "PATTERN", "PREC", "ASSOC", "ROLE")
		for _, def := range defs {
			fmt.Fprintf(out, "%-18s %-26s %4d  %-12s %s\n",
				def.Type, def.Pattern, def.Precedence, def.Associativity, role(def))
		}
		return nil
	default:
		return fmt.Errorf("unknown table format %q", format)
	}
}

func role(def expression.TokenDefinition) string {
	switch {
	case def.IsOperator:
		return "operator"
	case def.IsFunction:
		return "function"
	case def.IsParenthesis:
		return "parenthesis"
	default:
		return "-"
	}
}
