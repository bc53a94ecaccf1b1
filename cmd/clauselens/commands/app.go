// ABOUTME: Shared dependency wiring for CLI commands
// ABOUTME: Builds the full analysis stack from configuration once per invocation
package commands

import (
	"context"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"
	openai "github.com/sashabaranov/go-openai"

	"clauselens/internal/analysis"
	"clauselens/internal/chunker"
	"clauselens/internal/config"
	"clauselens/internal/docstore"
	"clauselens/internal/embedding"
	"clauselens/internal/index"
	"clauselens/internal/llm"
	"clauselens/internal/retrieval"
	"clauselens/internal/risk"
)

// app bundles the wired analysis stack for one CLI invocation.
type app struct {
	cfg      *config.Config
	store    *docstore.Store
	analyzer *analysis.Analyzer
	pool     *pgxpool.Pool
}

// newApp loads configuration and wires the analyzer. The corpus index is
// pgvector when DATABASE_URL is set and in-memory otherwise; the contract
// index is always in-memory since contracts re-embed on ingest.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	store, err := docstore.Open(&docstore.Config{
		Host:     cfg.Docstore.Host,
		DBName:   cfg.Docstore.DBName,
		AutoSync: cfg.Docstore.AutoSync,
	})
	if err != nil {
		return nil, fmt.Errorf("opening docstore: %w", err)
	}

	a := &app{cfg: cfg, store: store}

	embedder, err := buildEmbedder(cfg)
	if err != nil {
		a.Close()
		return nil, err
	}

	generator, err := buildGenerator(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}

	contractIdx := index.NewMemoryIndex(cfg.Embedding.Dimension)

	var corpusIdx index.VectorIndex
	if cfg.Database.URL != "" {
		pool, err := index.Connect(ctx, cfg.Database.URL)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("connecting to postgres: %w", err)
		}
		a.pool = pool

		pg := index.NewPostgresIndex(pool, cfg.Embedding.Dimension)
		if err := pg.EnsureSchema(ctx); err != nil {
			a.Close()
			return nil, fmt.Errorf("preparing corpus schema: %w", err)
		}
		corpusIdx = pg
	} else {
		if verbose {
			log.Println("DATABASE_URL not set, using in-memory corpus index")
		}
		corpusIdx = index.NewMemoryIndex(cfg.Embedding.Dimension)
	}

	scorer, err := risk.NewScorer(cfg.Risk.Weights, cfg.Risk.Bands(), risk.DefaultRules())
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("building risk scorer: %w", err)
	}

	a.analyzer = analysis.New(analysis.Deps{
		Chunker:     chunker.New(cfg.Chunker.SplitThreshold, cfg.Chunker.Overlap, cfg.Chunker.SectionKeywords),
		Embedder:    embedder,
		ContractIdx: contractIdx,
		CorpusIdx:   corpusIdx,
		Engine:      retrieval.New(embedder, contractIdx, corpusIdx, cfg.Retrieval.EngineConfig()),
		Generator:   generator,
		Prompts:     llm.NewPromptBuilder(cfg.Generator.MaxPromptTokens),
		Scorer:      scorer,
		Store:       store,
	})

	return a, nil
}

// Close releases the database pool and the docstore.
func (a *app) Close() {
	if a.pool != nil {
		a.pool.Close()
	}
	if err := a.store.Close(); err != nil {
		log.Printf("Warning: Error closing docstore: %v", err)
	}
}

// buildEmbedder selects the embedding provider from config.
func buildEmbedder(cfg *config.Config) (embedding.Port, error) {
	switch cfg.Embedding.Provider {
	case "openai":
		if cfg.Embedding.OpenAIKey == "" {
			return nil, fmt.Errorf("embedding provider openai requires OPENAI_API_KEY")
		}
		return embedding.NewOpenAIEmbedder(
			cfg.Embedding.OpenAIKey,
			openai.EmbeddingModel(cfg.Embedding.Model),
			cfg.Embedding.Dimension,
			cfg.Embedding.MaxRetries,
			cfg.Embedding.RetryDelay(),
		)
	case "ollama":
		return embedding.NewOllamaEmbedder(
			cfg.Embedding.OllamaHost,
			cfg.Embedding.Model,
			cfg.Embedding.Dimension,
			cfg.Embedding.Concurrency,
		)
	case "hashing":
		return embedding.NewHashingEmbedder(cfg.Embedding.Dimension), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Embedding.Provider)
	}
}

// buildGenerator selects the generator provider from config. A missing API
// key degrades to rule-based analysis rather than failing startup; ask and
// explain report the absence when they actually need the generator.
func buildGenerator(ctx context.Context, cfg *config.Config) (llm.Generator, error) {
	switch cfg.Generator.Provider {
	case "none":
		return nil, nil
	case "openai":
		if cfg.Generator.OpenAIKey == "" {
			log.Println("Warning: OPENAI_API_KEY not set, analysis will be rule-based only")
			return nil, nil
		}
		return llm.NewOpenAIGenerator(llm.GeneratorConfig{
			APIKey:      cfg.Generator.OpenAIKey,
			Model:       cfg.Generator.Model,
			Temperature: cfg.Generator.Temperature,
			MaxRetries:  cfg.Generator.MaxRetries,
			RetryDelay:  cfg.Generator.RetryDelay(),
		})
	case "gemini":
		if cfg.Generator.GeminiKey == "" {
			log.Println("Warning: GEMINI_API_KEY not set, analysis will be rule-based only")
			return nil, nil
		}
		return llm.NewGeminiGenerator(ctx, llm.GeneratorConfig{
			APIKey:      cfg.Generator.GeminiKey,
			Model:       cfg.Generator.Model,
			Temperature: cfg.Generator.Temperature,
			MaxRetries:  cfg.Generator.MaxRetries,
			RetryDelay:  cfg.Generator.RetryDelay(),
		})
	default:
		return nil, fmt.Errorf("unknown generator provider %q", cfg.Generator.Provider)
	}
}
