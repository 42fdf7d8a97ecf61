// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package config loads and validates the run configuration from a YAML
// file and AWARD_MATCHER_* environment variables.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"

	"github.com/pdiddy/award-matcher/internal/names"
	"github.com/pdiddy/award-matcher/pkg/types"
)

// ErrConfiguration marks missing or invalid settings.
var ErrConfiguration = eris.New("configuration error")

const (
	envPrefix  = "AWARD_MATCHER"
	configName = "award-matcher"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("input.format", "csv")
	v.SetDefault("output.format", "csv")

	v.SetDefault("api.mailto", "")
	v.SetDefault("api.base_url", "https://api.openalex.org")
	v.SetDefault("api.ror_base_url", "https://api.ror.org/v2")
	v.SetDefault("api.user_agent", "award-matcher/1.0")
	v.SetDefault("api.similarity_threshold", 95)
	v.SetDefault("api.rate_limit", 10)
	v.SetDefault("api.max_retries", 3)
	v.SetDefault("api.retry_delay", 10*time.Second)
	v.SetDefault("api.timeout", 30*time.Second)
	v.SetDefault("api.error_tracking.max_error_rate", 0.8)
	v.SetDefault("api.error_tracking.max_client_error_rate", 0.5)
	v.SetDefault("api.error_tracking.max_server_error_rate", 0.3)
	v.SetDefault("api.error_tracking.window_seconds", 300)
	v.SetDefault("api.error_tracking.min_attempts", 10)
	v.SetDefault("api.error_tracking.max_consecutive_failures", 5)
	v.SetDefault("api.error_tracking.max_consecutive_client_errors", 10)
	v.SetDefault("api.error_tracking.max_consecutive_server_errors", 5)
	v.SetDefault("api.error_tracking.max_consecutive_rate_limits", 3)

	v.SetDefault("matching.mode", string(types.ModeTitle))
	v.SetDefault("matching.author_name_style", string(names.StyleAuto))
	v.SetDefault("matching.author_separator", ";")
	v.SetDefault("matching.name_matching_threshold", 0.85)
	v.SetDefault("matching.affiliation_matching_threshold", 0.8)
	v.SetDefault("matching.use_embedding_model", false)
	v.SetDefault("matching.embedding_model", "nomic-embed-text")
	v.SetDefault("matching.embedding_base_url", "http://localhost:11434")
	v.SetDefault("matching.embedding_similarity_threshold", 0.7)
	v.SetDefault("matching.max_results_per_author", 50)
	v.SetDefault("matching.author_weight", 0.5)
	v.SetDefault("matching.affiliation_weight", 0.5)
	v.SetDefault("matching.minimum_affiliation_score", 0.0)
	v.SetDefault("matching.institution_first", true)
	v.SetDefault("matching.title_year_filter", false)
	v.SetDefault("matching.validate_authors", true)
	v.SetDefault("matching.validate_year", true)

	v.SetDefault("processing.limit", 0)
	v.SetDefault("processing.dry_run", false)

	v.SetDefault("cache.path", "")
	v.SetDefault("cache.ttl", 0)

	v.SetDefault("log.format", "console")
	v.SetDefault("log.dir", ".")
}

// Load reads the configuration and returns it with the file it came
// from. With an empty path it looks for award-matcher.yaml in the working
// directory and then in ~/.config/award-matcher. An explicit path that
// cannot be read is an ErrConfiguration; a missing default file is not,
// and the returned file name is then empty.
func Load(path string) (*types.Config, string, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(configName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", configName))
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, "", eris.Wrapf(ErrConfiguration, "reading config: %v", err)
		}
	}

	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", eris.Wrapf(ErrConfiguration, "decoding config: %v", err)
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
		if cfg.Processing.LogLevel != "" {
			cfg.Log.Level = strings.ToLower(cfg.Processing.LogLevel)
		}
	}
	return &cfg, v.ConfigFileUsed(), nil
}

// Defaults returns the configuration with every default applied and no
// file or environment read.
func Defaults() (*types.Config, error) {
	v := viper.New()
	setDefaults(v)
	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "decoding defaults")
	}
	return &cfg, nil
}

func invalid(format string, args ...any) error {
	return eris.Wrapf(ErrConfiguration, format, args...)
}

func inUnit(v float64) bool { return v >= 0 && v <= 1 }

// Validate checks that cfg has everything a run needs.
func Validate(cfg *types.Config) error {
	in := cfg.Input
	if in.Path == "" {
		return invalid("missing required field: input.path")
	}
	switch strings.ToLower(in.Format) {
	case "csv", "json", "xlsx":
	default:
		return invalid("invalid input format %q: must be csv, json or xlsx", in.Format)
	}
	if len(in.Mappings) == 0 {
		return invalid("missing required field: input.mappings")
	}

	required := []string{types.FieldAwardID, types.FieldTitle}
	switch cfg.Matching.Mode {
	case types.ModeTitle:
	case types.ModeAuthorAffiliation:
		required = []string{types.FieldAwardID, types.FieldAuthors, types.FieldAffiliation}
	default:
		return invalid("invalid matching.mode %q: must be title or author_affiliation", cfg.Matching.Mode)
	}
	for _, field := range required {
		if _, ok := in.Mappings[field]; !ok {
			return invalid("missing required mapping for %s mode: input.mappings.%s", cfg.Matching.Mode, field)
		}
	}

	out := cfg.Output
	if out.Path == "" {
		return invalid("missing required field: output.path")
	}
	switch strings.ToLower(out.Format) {
	case "csv", "json":
	default:
		return invalid("invalid output format %q: must be csv or json", out.Format)
	}

	api := cfg.API
	if strings.TrimSpace(api.Mailto) == "" {
		return invalid("missing required field: api.mailto (required for the OpenAlex polite pool)")
	}
	if api.SimilarityThreshold < 0 || api.SimilarityThreshold > 100 {
		return invalid("api.similarity_threshold must be between 0 and 100")
	}
	et := api.ErrorTracking
	for name, rate := range map[string]float64{
		"max_error_rate":        et.MaxErrorRate,
		"max_client_error_rate": et.MaxClientErrorRate,
		"max_server_error_rate": et.MaxServerErrorRate,
	} {
		if !inUnit(rate) {
			return invalid("api.error_tracking.%s must be between 0.0 and 1.0", name)
		}
	}
	if api.MaxRetries < 0 {
		return invalid("api.max_retries must not be negative")
	}

	m := cfg.Matching
	if _, err := names.ParseStyle(m.AuthorNameStyle); err != nil {
		return invalid("matching.author_name_style: %v", err)
	}
	for name, t := range map[string]float64{
		"name_matching_threshold":        m.NameMatchingThreshold,
		"affiliation_matching_threshold": m.AffiliationMatchingThreshold,
		"embedding_similarity_threshold": m.EmbeddingSimilarityThreshold,
		"minimum_affiliation_score":      m.MinimumAffiliationScore,
		"author_weight":                  m.AuthorWeight,
		"affiliation_weight":             m.AffiliationWeight,
	} {
		if !inUnit(t) {
			return invalid("matching.%s must be between 0.0 and 1.0", name)
		}
	}
	if m.YearSearchWindow != nil && *m.YearSearchWindow < 0 {
		return invalid("matching.year_search_window must not be negative")
	}
	if cfg.Processing.Limit < 0 {
		return invalid("processing.limit must not be negative")
	}
	return nil
}
