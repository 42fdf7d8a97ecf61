// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package similarity

import (
	"context"
	"math"
	"regexp"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/pdiddy/award-matcher/internal/textnorm"
)

// AffiliationSimilarity compares an input affiliation with a candidate
// institution name.
type AffiliationSimilarity interface {
	Match(ctx context.Context, input, candidate string, threshold float64) (bool, float64)
	Name() string
}

// AffiliationConfig selects and configures an AffiliationSimilarity.
type AffiliationConfig struct {
	UseEmbeddings bool
	Embedder      Embedder
}

// NewAffiliationSimilarity returns the embedding-backed scorer when
// embeddings are enabled and an embedder is supplied, else the string
// scorer.
func NewAffiliationSimilarity(cfg AffiliationConfig) AffiliationSimilarity {
	if cfg.UseEmbeddings && cfg.Embedder != nil {
		return NewEmbeddingAffiliation(cfg.Embedder)
	}
	return StringAffiliation{}
}

var affNonWordRe = regexp.MustCompile(`[^\p{L}\p{N}_\s]`)

// NormalizeAffiliation folds Latin text to ASCII, lowercases and deletes
// punctuation.
func NormalizeAffiliation(s string) string {
	if hasLatin(s) {
		s = textnorm.FoldASCII(s)
	}
	s = strings.ToLower(s)
	s = affNonWordRe.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// hasLatin reports whether s has any rune in the Latin blocks up to
// Latin Extended-B.
func hasLatin(s string) bool {
	for _, r := range s {
		if r <= 0x024F {
			return true
		}
	}
	return false
}

// StringAffiliation accepts containment outright and otherwise thresholds
// the Jaro-Winkler similarity of the normalized strings.
type StringAffiliation struct{}

// Name identifies the scorer in logs.
func (StringAffiliation) Name() string { return "string" }

// Match implements AffiliationSimilarity.
func (StringAffiliation) Match(_ context.Context, input, candidate string, threshold float64) (bool, float64) {
	if input == "" || candidate == "" {
		return false, 0
	}
	a, b := NormalizeAffiliation(input), NormalizeAffiliation(candidate)
	if a == "" || b == "" {
		return false, 0
	}
	if strings.Contains(b, a) || strings.Contains(a, b) {
		return true, 1
	}
	sim := JaroWinkler(a, b)
	return sim >= threshold, sim
}

// Embedder turns texts into vectors.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

type pairKey struct{ a, b string }

// EmbeddingAffiliation scores affiliations by cosine similarity of their
// embeddings, clamped to [0,1]. Scores are cached per normalized pair for
// the life of the scorer. When the embedder fails the string scorer is
// used for that comparison.
type EmbeddingAffiliation struct {
	embedder Embedder
	fallback StringAffiliation

	mu    sync.Mutex
	cache map[pairKey]float64
}

// NewEmbeddingAffiliation wraps embedder.
func NewEmbeddingAffiliation(embedder Embedder) *EmbeddingAffiliation {
	return &EmbeddingAffiliation{embedder: embedder, cache: make(map[pairKey]float64)}
}

// Name identifies the scorer in logs.
func (e *EmbeddingAffiliation) Name() string { return "embedding" }

// Match implements AffiliationSimilarity.
func (e *EmbeddingAffiliation) Match(ctx context.Context, input, candidate string, threshold float64) (bool, float64) {
	if input == "" || candidate == "" {
		return false, 0
	}
	a := strings.ToLower(strings.TrimSpace(input))
	b := strings.ToLower(strings.TrimSpace(candidate))
	if a == b {
		return true, 1
	}

	key := pairKey{a, b}
	if b < a {
		key = pairKey{b, a}
	}

	e.mu.Lock()
	sim, ok := e.cache[key]
	e.mu.Unlock()
	if !ok {
		vecs, err := e.embedder.Embed(ctx, []string{key.a, key.b})
		if err != nil || len(vecs) != 2 {
			zap.L().Warn("embedding similarity failed, using string matching",
				zap.String("input", input), zap.Error(err))
			return e.fallback.Match(ctx, input, candidate, threshold)
		}
		sim = clamp01(cosine(vecs[0], vecs[1]))
		e.mu.Lock()
		e.cache[key] = sim
		e.mu.Unlock()
	}
	return sim >= threshold, sim
}

// CacheSize returns the number of cached pairs.
func (e *EmbeddingAffiliation) CacheSize() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.cache)
}

func cosine(a, b []float32) float64 {
	n := min(len(a), len(b))
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
