// ABOUTME: Centralized configuration: defaults, optional YAML file, env overrides
// ABOUTME: Validation fails fast on inconsistent weights, bands or chunk sizes
package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"clauselens/internal/blobstore"
	"clauselens/internal/chunker"
	"clauselens/internal/embedding"
	"clauselens/internal/llm"
	"clauselens/internal/retrieval"
	"clauselens/internal/risk"
)

const configPathEnv = "CLAUSELENS_CONFIG"

const weightSumEpsilon = 1e-9

// Config holds all settings for the clause analysis system.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Docstore  DocstoreConfig  `yaml:"docstore"`
	Storage   StorageConfig   `yaml:"storage"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Generator GeneratorConfig `yaml:"generator"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Chunker   ChunkerConfig   `yaml:"chunker"`
	Risk      RiskConfig      `yaml:"risk"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// DatabaseConfig holds the pgvector connection. An empty URL selects the
// in-memory corpus index for single-process use.
type DatabaseConfig struct {
	URL string `yaml:"url"`
}

// DocstoreConfig holds charm KV settings.
type DocstoreConfig struct {
	Host     string `yaml:"host"`
	DBName   string `yaml:"db_name"`
	AutoSync bool   `yaml:"auto_sync"`
}

// StorageConfig selects the blob archive for raw contract uploads. An empty
// type disables archival. AWS credentials are read from the environment only.
type StorageConfig struct {
	Type         string `yaml:"type"`
	LocalPath    string `yaml:"local_path"`
	S3Bucket     string `yaml:"s3_bucket"`
	S3Region     string `yaml:"s3_region"`
	AWSAccessKey string `yaml:"-"`
	AWSSecretKey string `yaml:"-"`
}

// EmbeddingConfig selects and configures the embedding provider.
// The API key is read from the environment only, never from the file.
type EmbeddingConfig struct {
	Provider       string `yaml:"provider"`
	Model          string `yaml:"model"`
	Dimension      int    `yaml:"dimension"`
	OllamaHost     string `yaml:"ollama_host"`
	Concurrency    int    `yaml:"concurrency"`
	MaxRetries     int    `yaml:"max_retries"`
	RetryDelaySecs int    `yaml:"retry_delay_secs"`
	OpenAIKey      string `yaml:"-"`
}

// GeneratorConfig selects and configures the generator provider.
// Provider "none" runs analyses rule-based only.
type GeneratorConfig struct {
	Provider        string  `yaml:"provider"`
	Model           string  `yaml:"model"`
	Temperature     float32 `yaml:"temperature"`
	MaxRetries      int     `yaml:"max_retries"`
	RetryDelaySecs  int     `yaml:"retry_delay_secs"`
	MaxPromptTokens int     `yaml:"max_prompt_tokens"`
	OpenAIKey       string  `yaml:"-"`
	GeminiKey       string  `yaml:"-"`
}

// RetrievalConfig tunes the retrieval engine.
type RetrievalConfig struct {
	ContractTopK     int     `yaml:"contract_top_k"`
	CorpusTopK       int     `yaml:"corpus_top_k"`
	MinSimilarity    float64 `yaml:"min_similarity"`
	BoostMultiplier  float64 `yaml:"boost_multiplier"`
	Hybrid           bool    `yaml:"hybrid"`
	VectorWeight     float64 `yaml:"vector_weight"`
	KeywordWeight    float64 `yaml:"keyword_weight"`
	MMRLambda        float64 `yaml:"mmr_lambda"`
	QueryTimeoutSecs int     `yaml:"query_timeout_secs"`
}

// ChunkerConfig tunes clause extraction and sub-chunking.
type ChunkerConfig struct {
	SplitThreshold  int      `yaml:"split_threshold"`
	Overlap         int      `yaml:"overlap"`
	SectionKeywords []string `yaml:"section_keywords"`
}

// RiskConfig holds category weights and band boundaries.
type RiskConfig struct {
	Weights    map[string]float64 `yaml:"weights"`
	BandMedium float64            `yaml:"band_medium"`
	BandHigh   float64            `yaml:"band_high"`
}

// Load builds the configuration: defaults, then the YAML file named by
// CLAUSELENS_CONFIG (if set), then environment overrides, then validation.
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv(configPathEnv); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the built-in configuration. Tunables mirror the defaults
// of the packages they configure.
func Default() *Config {
	r := retrieval.DefaultConfig()
	bands := risk.DefaultBands()
	return &Config{
		Server:   ServerConfig{Addr: ":8080"},
		Docstore: DocstoreConfig{Host: "cloud.charm.sh", DBName: "clauselens", AutoSync: true},
		Storage:  StorageConfig{LocalPath: "./storage/documents", S3Region: "us-east-1"},
		Embedding: EmbeddingConfig{
			Provider:       "openai",
			Model:          string(embedding.DefaultOpenAIModel),
			Dimension:      embedding.DefaultDimension,
			OllamaHost:     "http://localhost:11434",
			Concurrency:    4,
			MaxRetries:     3,
			RetryDelaySecs: 2,
		},
		Generator: GeneratorConfig{
			Provider:        "openai",
			Model:           llm.DefaultChatModel,
			Temperature:     0.2,
			MaxRetries:      3,
			RetryDelaySecs:  2,
			MaxPromptTokens: llm.DefaultMaxPromptTokens,
		},
		Retrieval: RetrievalConfig{
			ContractTopK:     r.ContractTopK,
			CorpusTopK:       r.CorpusTopK,
			MinSimilarity:    r.MinSimilarity,
			BoostMultiplier:  r.BoostMultiplier,
			Hybrid:           r.Hybrid,
			VectorWeight:     r.VectorWeight,
			KeywordWeight:    r.KeywordWeight,
			MMRLambda:        r.MMRLambda,
			QueryTimeoutSecs: int(r.QueryTimeout / time.Second),
		},
		Chunker: ChunkerConfig{
			SplitThreshold:  chunker.DefaultSplitThreshold,
			Overlap:         chunker.DefaultOverlap,
			SectionKeywords: chunker.DefaultSectionKeywords,
		},
		Risk: RiskConfig{
			Weights:    risk.DefaultWeights(),
			BandMedium: bands.Medium,
			BandHigh:   bands.High,
		},
	}
}

func (c *Config) applyEnvOverrides() {
	c.Server.Addr = getEnv("CLAUSELENS_ADDR", c.Server.Addr)
	c.Database.URL = getEnv("DATABASE_URL", c.Database.URL)

	c.Docstore.Host = getEnv("CHARM_HOST", c.Docstore.Host)
	c.Docstore.DBName = getEnv("CHARM_DB", c.Docstore.DBName)
	c.Docstore.AutoSync = getEnvBool("CHARM_AUTO_SYNC", c.Docstore.AutoSync)

	c.Storage.Type = getEnv("STORAGE_TYPE", c.Storage.Type)
	c.Storage.LocalPath = getEnv("STORAGE_LOCAL_PATH", c.Storage.LocalPath)
	c.Storage.S3Bucket = getEnv("AWS_S3_BUCKET", c.Storage.S3Bucket)
	c.Storage.S3Region = getEnv("AWS_REGION", c.Storage.S3Region)
	c.Storage.AWSAccessKey = os.Getenv("AWS_ACCESS_KEY_ID")
	c.Storage.AWSSecretKey = os.Getenv("AWS_SECRET_ACCESS_KEY")

	c.Embedding.Provider = getEnv("CLAUSELENS_EMBEDDING_PROVIDER", c.Embedding.Provider)
	c.Embedding.Model = getEnv("CLAUSELENS_EMBEDDING_MODEL", c.Embedding.Model)
	c.Embedding.Dimension = getEnvInt("VECTOR_DIMENSION", c.Embedding.Dimension)
	c.Embedding.OllamaHost = getEnv("OLLAMA_HOST", c.Embedding.OllamaHost)
	c.Embedding.OpenAIKey = os.Getenv("OPENAI_API_KEY")

	c.Generator.Provider = getEnv("CLAUSELENS_GENERATOR_PROVIDER", c.Generator.Provider)
	c.Generator.Model = getEnv("CLAUSELENS_GENERATOR_MODEL", c.Generator.Model)
	c.Generator.OpenAIKey = os.Getenv("OPENAI_API_KEY")
	c.Generator.GeminiKey = os.Getenv("GEMINI_API_KEY")

	c.Retrieval.MinSimilarity = getEnvFloat("CLAUSELENS_MIN_SIMILARITY", c.Retrieval.MinSimilarity)
	c.Retrieval.QueryTimeoutSecs = getEnvInt("CLAUSELENS_QUERY_TIMEOUT_SECS", c.Retrieval.QueryTimeoutSecs)
}

// Validate rejects configurations the scoring and retrieval layers would
// refuse or silently misbehave on.
func (c *Config) Validate() error {
	switch c.Embedding.Provider {
	case "openai", "ollama", "hashing":
	default:
		return fmt.Errorf("unknown embedding provider %q", c.Embedding.Provider)
	}
	if c.Embedding.Dimension <= 0 {
		return fmt.Errorf("embedding dimension must be positive, got %d", c.Embedding.Dimension)
	}
	if c.Embedding.MaxRetries < 0 || c.Embedding.MaxRetries > 10 {
		return fmt.Errorf("embedding max_retries must be 0-10, got %d", c.Embedding.MaxRetries)
	}

	switch c.Storage.Type {
	case "", "local", "s3":
	default:
		return fmt.Errorf("unknown storage type %q", c.Storage.Type)
	}
	if c.Storage.Type == "s3" && c.Storage.S3Bucket == "" {
		return fmt.Errorf("storage type s3 requires AWS_S3_BUCKET")
	}

	switch c.Generator.Provider {
	case "openai", "gemini", "none":
	default:
		return fmt.Errorf("unknown generator provider %q", c.Generator.Provider)
	}
	if c.Generator.MaxRetries < 0 || c.Generator.MaxRetries > 10 {
		return fmt.Errorf("generator max_retries must be 0-10, got %d", c.Generator.MaxRetries)
	}
	if c.Generator.Temperature < 0 || c.Generator.Temperature > 2 {
		return fmt.Errorf("generator temperature must be 0-2, got %f", c.Generator.Temperature)
	}

	if c.Retrieval.ContractTopK <= 0 || c.Retrieval.CorpusTopK <= 0 {
		return fmt.Errorf("retrieval top-k values must be positive")
	}
	if c.Retrieval.MinSimilarity < 0 || c.Retrieval.MinSimilarity > 1 {
		return fmt.Errorf("min_similarity must be 0-1, got %f", c.Retrieval.MinSimilarity)
	}
	if c.Retrieval.MMRLambda < 0 || c.Retrieval.MMRLambda > 1 {
		return fmt.Errorf("mmr_lambda must be 0-1, got %f", c.Retrieval.MMRLambda)
	}
	if c.Retrieval.Hybrid {
		if sum := c.Retrieval.VectorWeight + c.Retrieval.KeywordWeight; math.Abs(sum-1.0) > weightSumEpsilon {
			return fmt.Errorf("hybrid weights sum to %.6f, want 1.0", sum)
		}
	}

	if c.Chunker.SplitThreshold <= 0 {
		return fmt.Errorf("split_threshold must be positive, got %d", c.Chunker.SplitThreshold)
	}
	if c.Chunker.Overlap < 0 || c.Chunker.Overlap >= c.Chunker.SplitThreshold {
		return fmt.Errorf("overlap must be in [0, split_threshold), got %d", c.Chunker.Overlap)
	}

	sum := 0.0
	for category, weight := range c.Risk.Weights {
		if weight < 0 {
			return fmt.Errorf("negative risk weight for category %q", category)
		}
		sum += weight
	}
	if math.Abs(sum-1.0) > weightSumEpsilon {
		return fmt.Errorf("risk weights sum to %.6f, want 1.0", sum)
	}
	if c.Risk.BandMedium <= 0 || c.Risk.BandHigh <= c.Risk.BandMedium {
		return fmt.Errorf("risk bands must increase, got medium=%.1f high=%.1f", c.Risk.BandMedium, c.Risk.BandHigh)
	}
	return nil
}

// EngineConfig converts retrieval settings into an engine configuration.
func (r RetrievalConfig) EngineConfig() retrieval.Config {
	return retrieval.Config{
		ContractTopK:    r.ContractTopK,
		CorpusTopK:      r.CorpusTopK,
		MinSimilarity:   r.MinSimilarity,
		BoostMultiplier: r.BoostMultiplier,
		Hybrid:          r.Hybrid,
		VectorWeight:    r.VectorWeight,
		KeywordWeight:   r.KeywordWeight,
		MMRLambda:       r.MMRLambda,
		QueryTimeout:    time.Duration(r.QueryTimeoutSecs) * time.Second,
	}
}

// Bands returns the configured risk band boundaries.
func (r RiskConfig) Bands() risk.Bands {
	return risk.Bands{Medium: r.BandMedium, High: r.BandHigh}
}

// BlobConfig converts storage settings into a blobstore configuration.
func (s StorageConfig) BlobConfig() blobstore.Config {
	return blobstore.Config{
		Type:         blobstore.Type(s.Type),
		LocalPath:    s.LocalPath,
		S3Bucket:     s.S3Bucket,
		S3Region:     s.S3Region,
		AWSAccessKey: s.AWSAccessKey,
		AWSSecretKey: s.AWSSecretKey,
	}
}

// RetryDelay returns the embedding retry delay as a duration.
func (e EmbeddingConfig) RetryDelay() time.Duration {
	return time.Duration(e.RetryDelaySecs) * time.Second
}

// RetryDelay returns the generator retry delay as a duration.
func (g GeneratorConfig) RetryDelay() time.Duration {
	return time.Duration(g.RetryDelaySecs) * time.Second
}

// Helper functions
func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	return v == "true" || v == "1"
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}
