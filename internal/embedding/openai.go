// ABOUTME: OpenAI embedding provider using text-embedding-3-small
// ABOUTME: Batched requests with retry and per-attempt timeouts
package embedding

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"clauselens/internal/util"
)

// DefaultOpenAIModel is the embedding model used unless configured otherwise.
const DefaultOpenAIModel = openai.SmallEmbedding3

const (
	openaiBatchSize      = 100
	openaiRequestTimeout = 30 * time.Second
)

// OpenAIEmbedder talks to the OpenAI embeddings API with retry logic.
type OpenAIEmbedder struct {
	client     *openai.Client
	model      openai.EmbeddingModel
	dimension  int
	maxRetries int
	retryDelay time.Duration
}

// NewOpenAIEmbedder creates an embedder for the given API key. A zero
// dimension falls back to DefaultDimension.
func NewOpenAIEmbedder(apiKey string, model openai.EmbeddingModel, dimension, maxRetries int, retryDelay time.Duration) (*OpenAIEmbedder, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}
	if model == "" {
		model = DefaultOpenAIModel
	}
	if dimension <= 0 {
		dimension = DefaultDimension
	}
	if maxRetries < 0 {
		maxRetries = 3
	}
	if retryDelay <= 0 {
		retryDelay = 2 * time.Second
	}
	return &OpenAIEmbedder{
		client:     openai.NewClient(apiKey),
		model:      model,
		dimension:  dimension,
		maxRetries: maxRetries,
		retryDelay: retryDelay,
	}, nil
}

// Dimension returns the configured vector length.
func (e *OpenAIEmbedder) Dimension() int {
	return e.dimension
}

// Embed returns one vector per input text, batching large inputs.
func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float64, len(texts))
	for start := 0; start < len(texts); start += openaiBatchSize {
		end := start + openaiBatchSize
		if end > len(texts) {
			end = len(texts)
		}
		if err := e.embedBatch(ctx, texts[start:end], out[start:end]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (e *OpenAIEmbedder) embedBatch(ctx context.Context, texts []string, out [][]float64) error {
	var lastErr error

	for attempt := 0; attempt <= e.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(util.CalculateBackoff(e.retryDelay, attempt)):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		reqCtx, cancel := context.WithTimeout(ctx, openaiRequestTimeout)
		resp, err := e.client.CreateEmbeddings(reqCtx, openai.EmbeddingRequestStrings{
			Input: texts,
			Model: e.model,
		})
		cancel()

		if err != nil {
			lastErr = fmt.Errorf("attempt %d: %w", attempt+1, err)
			continue
		}
		if len(resp.Data) != len(texts) {
			lastErr = fmt.Errorf("attempt %d: got %d embeddings for %d inputs", attempt+1, len(resp.Data), len(texts))
			continue
		}

		for _, d := range resp.Data {
			if d.Index < 0 || d.Index >= len(out) {
				return fmt.Errorf("embedding index %d out of range", d.Index)
			}
			if len(d.Embedding) != e.dimension {
				return fmt.Errorf("embedding dimension %d, want %d", len(d.Embedding), e.dimension)
			}
			vec := make([]float64, len(d.Embedding))
			for i, v := range d.Embedding {
				vec[i] = float64(v)
			}
			out[d.Index] = vec
		}
		return nil
	}

	return fmt.Errorf("failed to generate embeddings after %d attempts: %w", e.maxRetries+1, lastErr)
}
