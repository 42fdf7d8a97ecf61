// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// MatchingMode selects how input records are matched to works.
type MatchingMode string

const (
	ModeTitle             MatchingMode = "title"
	ModeAuthorAffiliation MatchingMode = "author_affiliation"
)

// Config is the complete configuration for a matching run.
type Config struct {
	Input      InputConfig      `json:"input" yaml:"input" mapstructure:"input"`
	Output     OutputConfig     `json:"output" yaml:"output" mapstructure:"output"`
	API        APIConfig        `json:"api" yaml:"api" mapstructure:"api"`
	Matching   MatchingConfig   `json:"matching" yaml:"matching" mapstructure:"matching"`
	Processing ProcessingConfig `json:"processing" yaml:"processing" mapstructure:"processing"`
	Cache      CacheConfig      `json:"cache" yaml:"cache" mapstructure:"cache"`
	Log        LogConfig        `json:"log" yaml:"log" mapstructure:"log"`
}

// InputConfig describes where records come from and how their fields map
// onto the names the matcher understands (title, authors, year, ...).
type InputConfig struct {
	// Path is the input file.
	Path string `json:"path" yaml:"path" mapstructure:"path"`

	// Format is csv, json or xlsx.
	Format string `json:"format" yaml:"format" mapstructure:"format"`

	// Mappings maps canonical field names to source column names or,
	// for JSON input, dotted paths ("authors.0.name").
	Mappings map[string]string `json:"mappings" yaml:"mappings" mapstructure:"mappings"`

	// RecordsPath is the dotted path to the record array inside a JSON
	// document. Empty means the document itself is the array.
	RecordsPath string `json:"records_path,omitempty" yaml:"records_path,omitempty" mapstructure:"records_path"`

	// Sheet names the worksheet to read from an xlsx workbook (default: first).
	Sheet string `json:"sheet,omitempty" yaml:"sheet,omitempty" mapstructure:"sheet"`
}

// OutputConfig describes where enriched records are written.
type OutputConfig struct {
	Path   string `json:"path" yaml:"path" mapstructure:"path"`
	Format string `json:"format" yaml:"format" mapstructure:"format"`

	// Fields overrides the column order for csv output. When empty the
	// per-mode field list is used.
	Fields []string `json:"fields,omitempty" yaml:"fields,omitempty" mapstructure:"fields"`
}

// ErrorTrackingConfig holds the health ceilings for remote calls.
type ErrorTrackingConfig struct {
	MaxErrorRate       float64 `json:"max_error_rate" yaml:"max_error_rate" mapstructure:"max_error_rate"`
	MaxClientErrorRate float64 `json:"max_client_error_rate" yaml:"max_client_error_rate" mapstructure:"max_client_error_rate"`
	MaxServerErrorRate float64 `json:"max_server_error_rate" yaml:"max_server_error_rate" mapstructure:"max_server_error_rate"`

	// WindowSeconds is the sliding window over which rates are computed.
	WindowSeconds int `json:"window_seconds" yaml:"window_seconds" mapstructure:"window_seconds"`

	// MinAttempts is the number of attempts in the window before rate
	// ceilings apply.
	MinAttempts int `json:"min_attempts" yaml:"min_attempts" mapstructure:"min_attempts"`

	MaxConsecutiveFailures     int `json:"max_consecutive_failures" yaml:"max_consecutive_failures" mapstructure:"max_consecutive_failures"`
	MaxConsecutiveClientErrors int `json:"max_consecutive_client_errors" yaml:"max_consecutive_client_errors" mapstructure:"max_consecutive_client_errors"`
	MaxConsecutiveServerErrors int `json:"max_consecutive_server_errors" yaml:"max_consecutive_server_errors" mapstructure:"max_consecutive_server_errors"`
	MaxConsecutiveRateLimits   int `json:"max_consecutive_rate_limits" yaml:"max_consecutive_rate_limits" mapstructure:"max_consecutive_rate_limits"`
}

// APIConfig holds the remote service settings.
type APIConfig struct {
	// Mailto is the contact email sent with every request (polite pool).
	Mailto string `json:"mailto" yaml:"mailto" mapstructure:"mailto"`

	// BaseURL is the OpenAlex API root (default https://api.openalex.org).
	BaseURL string `json:"base_url" yaml:"base_url" mapstructure:"base_url"`

	// RORBaseURL is the ROR API root used for institution fallback lookups.
	RORBaseURL string `json:"ror_base_url" yaml:"ror_base_url" mapstructure:"ror_base_url"`

	// UserAgent is the User-Agent header sent with requests.
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`

	// SimilarityThreshold is the minimum title ratio (0-100) for a match.
	SimilarityThreshold float64 `json:"similarity_threshold" yaml:"similarity_threshold" mapstructure:"similarity_threshold"`

	// TargetFunderIDs lists OpenAlex funder ids whose grants are flagged.
	TargetFunderIDs []string `json:"target_funder_ids,omitempty" yaml:"target_funder_ids,omitempty" mapstructure:"target_funder_ids"`

	// TargetFunderID is the single-funder form kept for older configs.
	TargetFunderID string `json:"target_funder_id,omitempty" yaml:"target_funder_id,omitempty" mapstructure:"target_funder_id"`

	// RateLimit is the number of calls allowed per second.
	RateLimit int `json:"rate_limit" yaml:"rate_limit" mapstructure:"rate_limit"`

	// MaxRetries is the generic retry budget per request.
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`

	// RetryDelay is the base delay between retries.
	RetryDelay time.Duration `json:"retry_delay" yaml:"retry_delay" mapstructure:"retry_delay"`

	// Timeout is the per-request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	ErrorTracking ErrorTrackingConfig `json:"error_tracking" yaml:"error_tracking" mapstructure:"error_tracking"`
}

// FunderIDs returns the configured target funders, folding the single-id
// form into the list.
func (c APIConfig) FunderIDs() []string {
	if len(c.TargetFunderIDs) > 0 {
		return c.TargetFunderIDs
	}
	if c.TargetFunderID != "" {
		return []string{c.TargetFunderID}
	}
	return nil
}

// MatchingConfig controls the matching engine.
type MatchingConfig struct {
	Mode MatchingMode `json:"mode" yaml:"mode" mapstructure:"mode"`

	// AuthorNameStyle is one of last_initial, first_last, last_comma_first, auto.
	AuthorNameStyle string `json:"author_name_style" yaml:"author_name_style" mapstructure:"author_name_style"`

	// AuthorSeparator splits a multi-author cell.
	AuthorSeparator string `json:"author_separator" yaml:"author_separator" mapstructure:"author_separator"`

	NameMatchingThreshold        float64 `json:"name_matching_threshold" yaml:"name_matching_threshold" mapstructure:"name_matching_threshold"`
	AffiliationMatchingThreshold float64 `json:"affiliation_matching_threshold" yaml:"affiliation_matching_threshold" mapstructure:"affiliation_matching_threshold"`

	// UseEmbeddingModel switches affiliation similarity to an embedding backend.
	UseEmbeddingModel            bool    `json:"use_embedding_model" yaml:"use_embedding_model" mapstructure:"use_embedding_model"`
	EmbeddingModel               string  `json:"embedding_model" yaml:"embedding_model" mapstructure:"embedding_model"`
	EmbeddingBaseURL             string  `json:"embedding_base_url" yaml:"embedding_base_url" mapstructure:"embedding_base_url"`
	EmbeddingSimilarityThreshold float64 `json:"embedding_similarity_threshold" yaml:"embedding_similarity_threshold" mapstructure:"embedding_similarity_threshold"`

	// MaxResultsPerAuthor caps the works fetched for a single author.
	MaxResultsPerAuthor int `json:"max_results_per_author" yaml:"max_results_per_author" mapstructure:"max_results_per_author"`

	// YearSearchWindow, when set, limits author work searches to
	// [year, year+window]. Nil means [year, current year + 2].
	YearSearchWindow *int `json:"year_search_window,omitempty" yaml:"year_search_window,omitempty" mapstructure:"year_search_window"`

	AuthorWeight            float64 `json:"author_weight" yaml:"author_weight" mapstructure:"author_weight"`
	AffiliationWeight       float64 `json:"affiliation_weight" yaml:"affiliation_weight" mapstructure:"affiliation_weight"`
	MinimumAffiliationScore float64 `json:"minimum_affiliation_score" yaml:"minimum_affiliation_score" mapstructure:"minimum_affiliation_score"`

	// InstitutionFirst tries the institution-scoped author search before
	// the free-text author search.
	InstitutionFirst bool `json:"institution_first" yaml:"institution_first" mapstructure:"institution_first"`

	// TitleYearFilter passes the input year to title search so candidates
	// published far from it are skipped.
	TitleYearFilter bool `json:"title_year_filter" yaml:"title_year_filter" mapstructure:"title_year_filter"`

	ValidateAuthors bool `json:"validate_authors" yaml:"validate_authors" mapstructure:"validate_authors"`
	ValidateYear    bool `json:"validate_year" yaml:"validate_year" mapstructure:"validate_year"`
}

// ProcessingConfig holds run-level knobs.
type ProcessingConfig struct {
	// Limit stops the run after this many input records (0 = all).
	Limit int `json:"limit" yaml:"limit" mapstructure:"limit"`

	// DryRun processes records without writing output.
	DryRun bool `json:"dry_run" yaml:"dry_run" mapstructure:"dry_run"`

	// LogLevel is the older spelling of log.level, used when log.level is
	// not set.
	LogLevel string `json:"log_level,omitempty" yaml:"log_level,omitempty" mapstructure:"log_level"`
}

// CacheConfig configures the optional on-disk response cache.
type CacheConfig struct {
	// Path is the SQLite database file. Empty disables caching.
	Path string `json:"path" yaml:"path" mapstructure:"path"`

	// TTL expires cached responses. Zero keeps them forever.
	TTL time.Duration `json:"ttl" yaml:"ttl" mapstructure:"ttl"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `json:"level" yaml:"level" mapstructure:"level"`
	Format string `json:"format" yaml:"format" mapstructure:"format"`

	// Dir, when set, receives a per-run log file.
	Dir string `json:"dir" yaml:"dir" mapstructure:"dir"`
}
