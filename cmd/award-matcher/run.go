// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pdiddy/award-matcher/internal/config"
	"github.com/pdiddy/award-matcher/internal/recordio"
	"github.com/pdiddy/award-matcher/internal/runner"
)

var errRunAborted = eris.New("run stopped by an API fault")

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Match every input record and write enriched output",
	Long: `Run reads the configured input file, matches each record against OpenAlex
and writes the enriched records. Records are processed one at a time. A
persistent API fault (rate limiting, server errors, unhealthy error rates)
stops the run; output written so far is kept.`,
	Example: `  award-matcher run -c config.yaml
  award-matcher run -c config.yaml --dry-run --limit 20
  award-matcher run -c config.yaml --summary reports/summary.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := requireConfig()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("dry-run") {
			cfg.Processing.DryRun, _ = cmd.Flags().GetBool("dry-run")
		}
		if cmd.Flags().Changed("limit") {
			cfg.Processing.Limit, _ = cmd.Flags().GetInt("limit")
		}
		if err := config.Validate(cfg); err != nil {
			return err
		}

		s, err := openSession(cmd, cfg, true)
		if err != nil {
			return err
		}
		defer s.Close()

		out := cmd.OutOrStdout()
		if configFile != "" {
			fmt.Fprintf(out, "Loading configuration from: %s\n", configFile)
		}
		zap.L().Info("starting matching run",
			zap.String("mode", string(cfg.Matching.Mode)),
			zap.String("input", cfg.Input.Path),
			zap.String("input_format", cfg.Input.Format),
			zap.String("output", cfg.Output.Path),
			zap.String("output_format", cfg.Output.Format),
			zap.Float64("similarity_threshold", cfg.API.SimilarityThreshold),
			zap.String("log_file", s.logFile),
		)

		eng, err := s.engine()
		if err != nil {
			return err
		}
		reader, err := recordio.NewReader(cfg.Input)
		if err != nil {
			return err
		}
		var writer recordio.Writer
		if !cfg.Processing.DryRun {
			fields := cfg.Output.Fields
			if len(fields) == 0 {
				fields = recordio.FieldsForMode(cfg.Matching.Mode)
			}
			if writer, err = recordio.NewWriter(cfg.Output, fields); err != nil {
				return err
			}
		}

		fmt.Fprintf(out, "\nStarting processing...\n")
		if cfg.Processing.Limit > 0 {
			fmt.Fprintf(out, "Processing limit: %d records\n", cfg.Processing.Limit)
		}
		r := runner.New(eng, reader, writer, runner.Options{
			Limit:    cfg.Processing.Limit,
			Progress: out,
			Tracker:  s.tracker,
			Now:      time.Now,
		})
		sum, runErr := r.Run(cmd.Context())
		sum.LogFile = s.logFile
		if writer != nil {
			sum.OutputPath = cfg.Output.Path
		}
		sum.Print(out)

		if path, _ := cmd.Flags().GetString("summary"); path != "" {
			if err := sum.WriteYAML(path); err != nil {
				return err
			}
			fmt.Fprintf(out, "Summary written to: %s\n", path)
		}
		if runErr != nil {
			return runErr
		}
		if cfg.Processing.DryRun {
			fmt.Fprintln(out, "Dry run completed - no output written")
		} else {
			fmt.Fprintf(out, "Output written to: %s\n", cfg.Output.Path)
		}
		if sum.Aborted {
			return errRunAborted
		}
		return nil
	},
}

func init() {
	runCmd.Flags().Bool("dry-run", false, "process records without writing output")
	runCmd.Flags().Int("limit", 0, "stop after this many input records (0 = all)")
	runCmd.Flags().String("summary", "", "write the run summary as YAML to this path")

	rootCmd.AddCommand(runCmd)
}
