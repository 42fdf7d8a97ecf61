// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the award-matcher CLI.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pdiddy/award-matcher/internal/config"
	"github.com/pdiddy/award-matcher/internal/secrets"
	"github.com/pdiddy/award-matcher/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

const (
	secretsDir = ".secrets/"
	envFile    = ".env"

	exitError       = 1
	exitInterrupted = 130
)

var (
	// loadedSecrets holds credentials loaded from .secrets/ and .env at startup.
	loadedSecrets map[string]string

	// loadedConfig is the configuration read by initConfig; configErr is
	// reported by the commands that need it.
	loadedConfig *types.Config
	configFile   string
	configErr    error
)

// secretDefault returns the secret value for key if it exists, or fallback otherwise.
func secretDefault(key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	if v, ok := loadedSecrets[key]; ok {
		return v
	}
	return ""
}

// rootCmd is the base command for the award-matcher CLI.
var rootCmd = &cobra.Command{
	Use:   "award-matcher",
	Short: "Match award records to OpenAlex works",
	Long: `award-matcher links research award records (grants, projects) to the
publications they produced by searching the OpenAlex catalog.

Records are read from CSV, JSON or XLSX, matched by title or by author and
affiliation, enriched with work metadata and written as CSV or JSON. The
run subcommand processes a file; lookup, normalize and evaluate help tune
and check a configuration.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(secretsDir)
		if err != nil {
			return err
		}
		mailto, err := secrets.Mailto(secretsDir, envFile)
		if err != nil {
			return err
		}
		if mailto != "" {
			s[secrets.KeyOpenAlexEmail] = mailto
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default: ./award-matcher.yaml or ~/.config/award-matcher/award-matcher.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")
}

func initConfig() {
	path, _ := rootCmd.PersistentFlags().GetString("config")
	loadedConfig, configFile, configErr = config.Load(path)
}

// requireConfig returns the loaded configuration with secrets applied.
func requireConfig() (*types.Config, error) {
	if configErr != nil {
		return nil, configErr
	}
	cfg := loadedConfig
	cfg.API.Mailto = secretDefault(secrets.KeyOpenAlexEmail, cfg.API.Mailto)
	return cfg, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	interrupted := ctx.Err() != nil
	stop()

	switch {
	case err == nil:
	case interrupted || errors.Is(err, context.Canceled):
		fmt.Fprintln(os.Stderr, "\nProcessing interrupted by user")
		os.Exit(exitInterrupted)
	default:
		os.Exit(exitError)
	}
}
