// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package similarity

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

const (
	defaultOllamaURL   = "http://localhost:11434"
	defaultOllamaModel = "nomic-embed-text"
)

// OllamaEmbedder computes embeddings with a local Ollama server.
type OllamaEmbedder struct {
	baseURL string
	model   string
	client  *http.Client
}

// NewOllamaEmbedder returns an embedder for model at baseURL. Empty
// arguments select the local default server and nomic-embed-text.
func NewOllamaEmbedder(baseURL, model string) *OllamaEmbedder {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultOllamaURL
	}
	if strings.TrimSpace(model) == "" {
		model = defaultOllamaModel
	}
	return &OllamaEmbedder{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		client:  &http.Client{Timeout: 90 * time.Second},
	}
}

// Embed returns one vector per text, in order.
func (o *OllamaEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, eris.New("ollama: no embedding inputs")
	}
	out := make([][]float32, 0, len(texts))
	for _, text := range texts {
		payload, err := json.Marshal(map[string]any{"model": o.model, "prompt": text})
		if err != nil {
			return nil, eris.Wrap(err, "ollama: encode request")
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/api/embeddings", bytes.NewReader(payload))
		if err != nil {
			return nil, eris.Wrap(err, "ollama: create request")
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := o.client.Do(req)
		if err != nil {
			return nil, eris.Wrap(err, "ollama: embedding request")
		}
		body, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if resp.StatusCode >= 400 {
			return nil, eris.Errorf("ollama: embedding error %d: %s", resp.StatusCode, string(body))
		}

		var parsed struct {
			Embedding []float32 `json:"embedding"`
		}
		if err := json.Unmarshal(body, &parsed); err != nil {
			return nil, eris.Wrap(err, "ollama: decode embedding response")
		}
		if len(parsed.Embedding) == 0 {
			return nil, eris.New("ollama: empty embedding")
		}
		out = append(out, parsed.Embedding)
	}
	return out, nil
}
