// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"math"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pdiddy/award-matcher/internal/apihealth"
	"github.com/pdiddy/award-matcher/internal/cache"
	"github.com/pdiddy/award-matcher/internal/logging"
	"github.com/pdiddy/award-matcher/internal/matching"
	"github.com/pdiddy/award-matcher/internal/openalex"
	"github.com/pdiddy/award-matcher/internal/similarity"
	"github.com/pdiddy/award-matcher/internal/textnorm"
	"github.com/pdiddy/award-matcher/pkg/types"
)

// session holds the collaborators built from the configuration for one
// command invocation.
type session struct {
	cfg     *types.Config
	logger  *zap.Logger
	logFile string
	tracker *apihealth.Tracker
	store   *cache.Store
	norm    *textnorm.Normalizer
	client  *openalex.Client
}

// openSession installs logging and builds the OpenAlex client. runLog
// controls whether the per-run log file is written.
func openSession(cmd *cobra.Command, cfg *types.Config, runLog bool) (*session, error) {
	verbose, _ := cmd.Flags().GetBool("verbose")
	logCfg := cfg.Log
	if !runLog {
		logCfg.Dir = ""
	}
	logger, logFile, err := logging.Setup(logCfg, logging.Options{Verbose: verbose})
	if err != nil {
		return nil, err
	}

	s := &session{
		cfg:     cfg,
		logger:  logger,
		logFile: logFile,
		tracker: apihealth.NewTracker(apihealth.ConfigFrom(cfg.API.ErrorTracking)),
		norm:    textnorm.New(textnorm.EnglishStopwords()),
	}
	if cfg.Cache.Path != "" {
		store, err := cache.Open(cfg.Cache)
		if err != nil {
			_ = logger.Sync()
			return nil, err
		}
		if n, err := store.Prune(); err == nil && n > 0 {
			zap.L().Info("pruned expired cache entries", zap.Int64("count", n))
		}
		s.store = store
	}

	opts := openalex.Options{
		BaseURL:             cfg.API.BaseURL,
		RORBaseURL:          cfg.API.RORBaseURL,
		Mailto:              cfg.API.Mailto,
		UserAgent:           cfg.API.UserAgent,
		SimilarityThreshold: titleThreshold(cfg.API.SimilarityThreshold),
		RateLimit:           float64(cfg.API.RateLimit),
		MaxRetries:          cfg.API.MaxRetries,
		RetryDelay:          cfg.API.RetryDelay,
		Timeout:             cfg.API.Timeout,
		Tracker:             s.tracker,
		Normalizer:          s.norm,
	}
	if s.store != nil {
		opts.Cache = s.store
	}
	s.client = openalex.New(opts)
	return s, nil
}

// titleThreshold converts the configured title threshold to the integer
// ratio scale. Ratios are whole numbers, so a fractional threshold rounds
// up: 85.5 accepts 86 and above.
func titleThreshold(t float64) int {
	return int(math.Ceil(t))
}

// engine builds the matching engine for the configured mode.
func (s *session) engine() (matching.Engine, error) {
	deps := matching.Deps{Titles: s.client, Normalizer: s.norm}
	if s.cfg.Matching.Mode == types.ModeAuthorAffiliation {
		var embedder similarity.Embedder
		if s.cfg.Matching.UseEmbeddingModel {
			embedder = similarity.NewOllamaEmbedder(s.cfg.Matching.EmbeddingBaseURL, s.cfg.Matching.EmbeddingModel)
		}
		aff := similarity.NewAffiliationSimilarity(similarity.AffiliationConfig{
			UseEmbeddings: s.cfg.Matching.UseEmbeddingModel,
			Embedder:      embedder,
		})
		zap.L().Info("affiliation similarity", zap.String("backend", aff.Name()))
		deps.Authors = openalex.NewAuthorSearcher(s.client, matching.SearcherOptions(s.cfg.Matching, aff))
	}
	return matching.New(*s.cfg, deps)
}

func (s *session) Close() {
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			zap.L().Warn("closing cache", zap.Error(err))
		}
	}
	_ = s.logger.Sync()
}
