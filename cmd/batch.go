package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/tariel36/rpncalc/internal/batch"
	"github.com/tariel36/rpncalc/pkg/logger"
)

const outputYAML = "yaml"

var (
	batchFile     string
	batchJSONPath string
	batchSchema   string
	batchWorkers  int
	batchSeed     uint64
	batchOutput   string
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Evaluate many expressions concurrently",
	Long: `Evaluate expressions read from a file or stdin on a pool of workers.

Plain input holds one expression per line; blank lines and lines starting
with '#' are skipped. JSON input (a .json file or --json-path) selects the
expressions with a JSONPath query and may be checked against a JSON Schema
first. Results keep input order. The exit status is non-zero when any
expression fails.`,
	Example: `  rpncalc batch --file rolls.txt
  rpncalc batch --file rolls.json --json-path '$.rolls[*].expr' --schema rolls.schema.json
  cat rolls.txt | rpncalc batch --workers 8 -o json`,
	Args: cobra.NoArgs,
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().StringVarP(&batchFile, "file", "f", "", "input file (default stdin)")
	batchCmd.Flags().StringVar(&batchJSONPath, "json-path", "", "JSONPath selecting expressions in JSON input")
	batchCmd.Flags().StringVar(&batchSchema, "schema", "", "JSON Schema the input must satisfy")
	batchCmd.Flags().IntVarP(&batchWorkers, "workers", "w", 0, "number of workers (default from config)")
	batchCmd.Flags().Uint64Var(&batchSeed, "seed", 0, "seed the dice for reproducible rolls")
	batchCmd.Flags().StringVarP(&batchOutput, "output", "o", outputText, "output format (text, json, yaml)")
}

func runBatch(cmd *cobra.Command, args []string) error {
	switch batchOutput {
	case outputText, outputJSON, outputYAML:
	default:
		return fmt.Errorf("unknown output format %q", batchOutput)
	}

	a, err := newApp(diceOverrides(batchSeed, nil))
	if err != nil {
		return err
	}
	cfg := a.Config.Batch

	data, err := readBatchInput(cmd.InOrStdin(), batchFile)
	if err != nil {
		return err
	}

	jsonPath := firstNonEmpty(batchJSONPath, cfg.JSONPath)
	schemaPath := firstNonEmpty(batchSchema, cfg.Schema)
	isJSON := jsonPath != "" || schemaPath != "" || strings.EqualFold(filepath.Ext(batchFile), ".json")

	var exprs []string
	if isJSON {
		if schemaPath != "" {
			if err := validateBatchInput(cmd, schemaPath, data); err != nil {
				return err
			}
		}
		exprs, err = batch.SelectJSON(data, firstNonEmpty(jsonPath, batch.DefaultJSONPath))
	} else {
		exprs, err = batch.ReadLines(bytes.NewReader(data))
	}
	if err != nil {
		return err
	}
	if len(exprs) == 0 {
		return batch.ErrNoExpressions
	}

	workers := cfg.Workers
	if batchWorkers > 0 {
		workers = batchWorkers
	}
	runner := batch.NewRunner(a.Evaluator(),
		batch.WithWorkers(workers),
		batch.WithRecorder(a.Recorder),
		batch.WithLogger(logger.Named("batch")),
	)

	report, err := runner.Run(cmd.Context(), exprs)
	if err != nil {
		return err
	}
	if err := printReport(cmd.OutOrStdout(), report, batchOutput); err != nil {
		return err
	}
	if report.Summary.Failed > 0 {
		return fmt.Errorf("%d of %d expressions failed", report.Summary.Failed, report.Summary.Total)
	}
	return nil
}

func readBatchInput(stdin io.Reader, path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(stdin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return data, nil
}

func validateBatchInput(cmd *cobra.Command, schemaPath string, data []byte) error {
	raw, err := os.ReadFile(schemaPath)
	if err != nil {
		return fmt.Errorf("read schema: %w", err)
	}
	schema, err := batch.ParseSchema(raw)
	if err != nil {
		return err
	}
	return schema.Validate(cmd.Context(), data)
}

func printReport(out io.Writer, report *batch.Report, format string) error {
	switch format {
	case outputJSON:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	case outputYAML:
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(report); err != nil {
			return err
		}
		return enc.Close()
	}

	for _, r := range report.Results {
		if r.Failed() {
			fmt.Fprintf(out, "%-24s error: %s\n", r.Expression, r.Error)
			continue
		}
		fmt.Fprintf(out, "%-24s %s\n", r.Expression, r.Value)
	}
	s := report.Summary
	if !quiet {
		fmt.Fprintf(out, "\n%d expressions, %d ok, %d failed, %d workers, %dms (p50 %dus, p99 %dus)\n",
			s.Total, s.Succeeded, s.Failed, s.Workers, s.ElapsedMs, s.Latency.P50Micros, s.Latency.P99Micros)
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
