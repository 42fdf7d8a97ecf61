// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/award-matcher/internal/evaluate"
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Score a results file against a benchmark",
	Long: `Evaluate compares the OpenAlex work ids in a results CSV with a benchmark
CSV of known matches. Rows are joined on id and title; the id, title and
work id columns are detected when not given. Full mode counts products
from either file; overlap mode only those in both.`,
	Example: `  award-matcher evaluate -b benchmark.csv -r results.csv
  award-matcher evaluate -b benchmark.csv -r results.csv --mode overlap --output report.json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		benchPath, _ := cmd.Flags().GetString("benchmark")
		resultsPath, _ := cmd.Flags().GetString("results")
		mode, _ := cmd.Flags().GetString("mode")
		idCol, _ := cmd.Flags().GetString("id-column")
		titleCol, _ := cmd.Flags().GetString("title-column")
		oaCol, _ := cmd.Flags().GetString("openalex-column")
		maxErrors, _ := cmd.Flags().GetInt("max-errors")
		output, _ := cmd.Flags().GetString("output")

		ctx := cmd.Context()
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "Loading data files...")
		bench, err := evaluate.LoadTable(ctx, benchPath)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Loaded benchmark: %d rows\n", len(bench.Rows))
		results, err := evaluate.LoadTable(ctx, resultsPath)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Loaded results: %d rows\n", len(results.Rows))

		rep, err := evaluate.Evaluate(bench, results, evaluate.Options{
			IDColumn:       idCol,
			TitleColumn:    titleCol,
			OpenAlexColumn: oaCol,
			Mode:           evaluate.Mode(mode),
			MaxErrors:      maxErrors,
		})
		if err != nil {
			return err
		}
		rep.Print(out)

		if output != "" {
			errPath, err := rep.Save(output)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Detailed report saved to: %s\n", output)
			if errPath != "" {
				fmt.Fprintf(out, "Error details saved to: %s\n", errPath)
			}
		}
		return nil
	},
}

func init() {
	evaluateCmd.Flags().StringP("benchmark", "b", "", "benchmark CSV (ground truth)")
	evaluateCmd.Flags().StringP("results", "r", "", "results CSV (predictions)")
	evaluateCmd.Flags().String("mode", string(evaluate.ModeFull), "full or overlap")
	evaluateCmd.Flags().String("id-column", "", "award id column (detected when empty)")
	evaluateCmd.Flags().String("title-column", "", "title column (detected when empty)")
	evaluateCmd.Flags().String("openalex-column", evaluate.DefaultOpenAlexColumn, "OpenAlex work id column")
	evaluateCmd.Flags().Int("max-errors", evaluate.DefaultMaxErrors, "maximum error examples to report")
	evaluateCmd.Flags().String("output", "", "write a JSON report (and an _errors.csv) to this path")
	_ = evaluateCmd.MarkFlagRequired("benchmark")
	_ = evaluateCmd.MarkFlagRequired("results")

	rootCmd.AddCommand(evaluateCmd)
}
