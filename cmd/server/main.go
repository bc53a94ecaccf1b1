// ABOUTME: HTTP server entry point for the ClauseLens API
// ABOUTME: Wires config, docstore, indices and the analyzer behind gin
package main

import (
	"context"
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	openai "github.com/sashabaranov/go-openai"

	"clauselens/internal/analysis"
	"clauselens/internal/blobstore"
	"clauselens/internal/chunker"
	"clauselens/internal/config"
	"clauselens/internal/docstore"
	"clauselens/internal/embedding"
	"clauselens/internal/httpapi"
	"clauselens/internal/index"
	"clauselens/internal/llm"
	"clauselens/internal/retrieval"
	"clauselens/internal/risk"
)

func main() {
	// Load .env file from project root (relative to cmd/server/)
	// Try current directory first, then project root
	if err := godotenv.Load(); err != nil {
		if err := godotenv.Load("../../.env"); err != nil {
			log.Printf("Warning: No .env file found, using environment variables")
		}
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	ctx := context.Background()

	// Initialize document store
	store, err := docstore.Open(&docstore.Config{
		Host:     cfg.Docstore.Host,
		DBName:   cfg.Docstore.DBName,
		AutoSync: cfg.Docstore.AutoSync,
	})
	if err != nil {
		log.Fatal("Failed to open docstore:", err)
	}
	defer func() { _ = store.Close() }()
	log.Println("Docstore initialized")

	// Initialize embedding provider
	embedder, err := initEmbedder(cfg)
	if err != nil {
		log.Fatal("Failed to initialize embedder:", err)
	}

	// Initialize generator (nil keeps analyses rule-based)
	generator, err := initGenerator(ctx, cfg)
	if err != nil {
		log.Fatal("Failed to initialize generator:", err)
	}

	// Contracts index in memory, corpus index in pgvector when configured
	contractIdx := index.NewMemoryIndex(cfg.Embedding.Dimension)
	corpusIdx, err := initCorpusIndex(ctx, cfg)
	if err != nil {
		log.Fatal("Failed to initialize corpus index:", err)
	}

	scorer, err := risk.NewScorer(cfg.Risk.Weights, cfg.Risk.Bands(), risk.DefaultRules())
	if err != nil {
		log.Fatal("Failed to build risk scorer:", err)
	}

	blobs, err := initBlobstore(cfg)
	if err != nil {
		log.Fatal("Failed to initialize blob storage:", err)
	}

	analyzer := analysis.New(analysis.Deps{
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

	// Setup Gin router
	r := gin.Default()
	httpapi.New(analyzer, store, blobs).Register(r)

	// Start server
	log.Printf("Server starting on %s", cfg.Server.Addr)
	if err := r.Run(cfg.Server.Addr); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}

func initEmbedder(cfg *config.Config) (embedding.Port, error) {
	switch cfg.Embedding.Provider {
	case "openai":
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
	}
	return nil, fmt.Errorf("unknown embedding provider %q", cfg.Embedding.Provider)
}

func initGenerator(ctx context.Context, cfg *config.Config) (llm.Generator, error) {
	switch cfg.Generator.Provider {
	case "none":
		log.Println("Generator disabled, analyses will be rule-based only")
		return nil, nil
	case "openai":
		if cfg.Generator.OpenAIKey == "" {
			log.Println("Warning: OPENAI_API_KEY not set, analyses will be rule-based only")
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
			log.Println("Warning: GEMINI_API_KEY not set, analyses will be rule-based only")
			return nil, nil
		}
		return llm.NewGeminiGenerator(ctx, llm.GeneratorConfig{
			APIKey:      cfg.Generator.GeminiKey,
			Model:       cfg.Generator.Model,
			Temperature: cfg.Generator.Temperature,
			MaxRetries:  cfg.Generator.MaxRetries,
			RetryDelay:  cfg.Generator.RetryDelay(),
		})
	}
	return nil, fmt.Errorf("unknown generator provider %q", cfg.Generator.Provider)
}

func initCorpusIndex(ctx context.Context, cfg *config.Config) (index.VectorIndex, error) {
	if cfg.Database.URL == "" {
		log.Println("DATABASE_URL not set, corpus index is in-memory and will not survive restarts")
		return index.NewMemoryIndex(cfg.Embedding.Dimension), nil
	}

	pool, err := index.Connect(ctx, cfg.Database.URL)
	if err != nil {
		return nil, err
	}

	pg := index.NewPostgresIndex(pool, cfg.Embedding.Dimension)
	if err := pg.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	log.Println("Postgres connection established with pgvector support")
	return pg, nil
}

func initBlobstore(cfg *config.Config) (blobstore.Storage, error) {
	if cfg.Storage.Type == "" {
		log.Println("STORAGE_TYPE not set, raw document archival disabled")
		return nil, nil
	}

	blobs, err := blobstore.New(cfg.Storage.BlobConfig())
	if err != nil {
		return nil, err
	}

	log.Printf("Blob storage initialized (%s)", cfg.Storage.Type)
	return blobs, nil
}
