package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tariel36/rpncalc/internal/dice"
)

var (
	rollSeed     uint64
	rollSequence []int
	rollTimes    int
)

var rollCmd = &cobra.Command{
	Use:   "roll <NdM[+K]>...",
	Short: "Roll dice and show each face",
	Example: `  rpncalc roll 3d6
  rpncalc roll d20+5 2d8-1
  rpncalc roll --times 4 4d6`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRoll,
}

func init() {
	rootCmd.AddCommand(rollCmd)

	rollCmd.Flags().Uint64Var(&rollSeed, "seed", 0, "seed the dice for reproducible rolls")
	rollCmd.Flags().IntSliceVar(&rollSequence, "dice-sequence", nil, "roll these faces in order, repeating")
	rollCmd.Flags().IntVarP(&rollTimes, "times", "n", 1, "roll each notation this many times")
}

func runRoll(cmd *cobra.Command, args []string) error {
	notations := make([]dice.Notation, len(args))
	for i, arg := range args {
		n, err := dice.ParseNotation(arg)
		if err != nil {
			return err
		}
		notations[i] = n
	}
	if rollTimes < 1 {
		return fmt.Errorf("--times must be at least 1")
	}

	a, err := newApp(diceOverrides(rollSeed, rollSequence))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, n := range notations {
		for i := 0; i < rollTimes; i++ {
			outcome, err := a.Dice.RollNotation(n)
			if err != nil {
				return fmt.Errorf("roll %s: %w", n, err)
			}
			fmt.Fprintln(out, formatOutcome(outcome))
		}
	}
	return nil
}

// formatOutcome renders an outcome as "2d6+1: [3 4] +1 = 8".
func formatOutcome(o dice.Outcome) string {
	faces := make([]string, len(o.Faces))
	for i, f := range o.Faces {
		faces[i] = fmt.Sprint(f)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s: [%s]", o.Notation, strings.Join(faces, " "))
	switch {
	case o.Notation.Modifier > 0:
		fmt.Fprintf(&b, " +%d", o.Notation.Modifier)
	case o.Notation.Modifier < 0:
		fmt.Fprintf(&b, " -%d", -o.Notation.Modifier)
	}
	fmt.Fprintf(&b, " = %d", o.Total)
	return b.String()
}
