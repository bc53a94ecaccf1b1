// ABOUTME: Ollama embedding provider for self-hosted deployments
// ABOUTME: Bounded concurrent fan-out with per-text retry
package embedding

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/ollama/ollama/api"
	"github.com/ollama/ollama/envconfig"

	"clauselens/internal/util"
)

const ollamaRequestTimeout = 30 * time.Second

// OllamaEmbedder generates embeddings through a local or remote Ollama host.
type OllamaEmbedder struct {
	client      *api.Client
	model       string
	dimension   int
	concurrency int
	maxRetries  int
	retryDelay  time.Duration
}

// NewOllamaEmbedder creates an embedder. An empty host falls back to the
// OLLAMA_HOST environment configuration.
func NewOllamaEmbedder(host, model string, dimension, concurrency int) (*OllamaEmbedder, error) {
	if model == "" {
		return nil, fmt.Errorf("ollama model is required")
	}
	if dimension <= 0 {
		return nil, fmt.Errorf("embedding dimension must be positive, got %d", dimension)
	}
	hostURL := envconfig.Host()
	if host != "" {
		parsed, err := url.Parse(host)
		if err != nil {
			return nil, fmt.Errorf("invalid ollama host %q: %w", host, err)
		}
		hostURL = parsed
	}
	if concurrency <= 0 {
		concurrency = 3
	}
	return &OllamaEmbedder{
		client:      api.NewClient(hostURL, http.DefaultClient),
		model:       model,
		dimension:   dimension,
		concurrency: concurrency,
		maxRetries:  3,
		retryDelay:  time.Second,
	}, nil
}

// Dimension returns the configured vector length.
func (e *OllamaEmbedder) Dimension() int {
	return e.dimension
}

// Embed fans texts out to the Ollama host with bounded concurrency.
func (e *OllamaEmbedder) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float64, len(texts))
	sem := make(chan struct{}, e.concurrency)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	for i := range texts {
		wg.Add(1)
		sem <- struct{}{}

		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()

			vec, err := e.embedText(ctx, texts[i])

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = fmt.Errorf("embed text %d: %w", i, err)
				}
				return
			}
			out[i] = vec
		}(i)
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return out, nil
}

func (e *OllamaEmbedder) embedText(ctx context.Context, text string) ([]float64, error) {
	var lastErr error

	for attempt := 0; attempt <= e.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(util.CalculateBackoff(e.retryDelay, attempt)):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		reqCtx, cancel := context.WithTimeout(ctx, ollamaRequestTimeout)
		resp, err := e.client.Embeddings(reqCtx, &api.EmbeddingRequest{
			Model:  e.model,
			Prompt: text,
		})
		cancel()

		if err != nil {
			lastErr = fmt.Errorf("attempt %d: %w", attempt+1, err)
			continue
		}
		if len(resp.Embedding) != e.dimension {
			return nil, fmt.Errorf("embedding dimension %d, want %d", len(resp.Embedding), e.dimension)
		}
		return resp.Embedding, nil
	}

	return nil, fmt.Errorf("failed to generate embedding after %d attempts: %w", e.maxRetries+1, lastErr)
}
