// ABOUTME: RetrievalEngine runs contract-internal and corpus-wide searches concurrently
// ABOUTME: Falls back to single-source grounding when one side fails and reports what answered
package retrieval

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"clauselens/internal/embedding"
	"clauselens/internal/index"
	"clauselens/internal/models"
)

// Source labels reported in a grounding bundle.
const (
	SourceContract = "contract"
	SourceCorpus   = "corpus"
)

// Config tunes the retrieval pipeline. Zero values are filled by Normalize;
// use DefaultConfig for the documented defaults.
type Config struct {
	ContractTopK    int
	CorpusTopK      int
	MinSimilarity   float64
	BoostMultiplier float64
	Hybrid          bool
	VectorWeight    float64
	KeywordWeight   float64
	MMRLambda       float64
	OverfetchFactor int
	QueryTimeout    time.Duration
}

// DefaultConfig returns the standard retrieval configuration.
func DefaultConfig() Config {
	return Config{
		ContractTopK:    5,
		CorpusTopK:      8,
		MinSimilarity:   0.5,
		BoostMultiplier: 1.5,
		Hybrid:          true,
		VectorWeight:    0.7,
		KeywordWeight:   0.3,
		MMRLambda:       0.5,
		OverfetchFactor: 4,
		QueryTimeout:    10 * time.Second,
	}
}

// Normalize fills unset numeric fields with their defaults.
func (c Config) Normalize() Config {
	def := DefaultConfig()
	if c.ContractTopK <= 0 {
		c.ContractTopK = def.ContractTopK
	}
	if c.CorpusTopK <= 0 {
		c.CorpusTopK = def.CorpusTopK
	}
	if c.MinSimilarity < 0 {
		c.MinSimilarity = def.MinSimilarity
	}
	if c.BoostMultiplier <= 0 {
		c.BoostMultiplier = def.BoostMultiplier
	}
	if c.VectorWeight <= 0 {
		c.VectorWeight = def.VectorWeight
	}
	if c.KeywordWeight < 0 {
		c.KeywordWeight = def.KeywordWeight
	}
	if c.MMRLambda <= 0 || c.MMRLambda > 1 {
		c.MMRLambda = def.MMRLambda
	}
	if c.OverfetchFactor <= 0 {
		c.OverfetchFactor = def.OverfetchFactor
	}
	if c.QueryTimeout <= 0 {
		c.QueryTimeout = def.QueryTimeout
	}
	return c
}

// Request describes one retrieval call. Scope defaults to both indices when a
// contract id is present and corpus-only otherwise. Category, when set, is
// appended to the query text to bias both the embedding and keyword signals.
// BoostArticle pushes that contract article's chunks up; BoostMultiplier
// overrides the configured multiplier when positive.
type Request struct {
	Query           string
	ContractID      string
	Scope           models.Scope
	Category        string
	BoostArticle    int
	BoostMultiplier float64
}

// Engine coordinates embedding, the two vector indices, and the rerank
// stages into grounding bundles.
type Engine struct {
	embedder    embedding.Port
	contractIdx index.VectorIndex
	corpusIdx   index.VectorIndex
	cfg         Config
}

// New creates a retrieval engine. Either index may be nil when the
// deployment only serves one scope; requests touching a missing index fail.
func New(embedder embedding.Port, contractIdx, corpusIdx index.VectorIndex, cfg Config) *Engine {
	return &Engine{
		embedder:    embedder,
		contractIdx: contractIdx,
		corpusIdx:   corpusIdx,
		cfg:         cfg.Normalize(),
	}
}

// Retrieve embeds the query once and fans out to the requested indices
// concurrently. If both sources were requested and one fails, the bundle is
// marked degraded and carries the surviving side; if every requested source
// fails the call errors.
func (e *Engine) Retrieve(ctx context.Context, req Request) (*models.GroundingBundle, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, fmt.Errorf("retrieval: query required")
	}

	scope := req.Scope
	if scope == "" {
		if req.ContractID != "" {
			scope = models.ScopeBoth
		} else {
			scope = models.ScopeCorpus
		}
	}
	if req.ContractID == "" {
		if scope == models.ScopeContract {
			return nil, fmt.Errorf("retrieval: contract scope requires a contract id")
		}
		scope = models.ScopeCorpus
	}
	switch scope {
	case models.ScopeContract, models.ScopeCorpus, models.ScopeBoth:
	default:
		return nil, fmt.Errorf("retrieval: unknown scope %q", scope)
	}

	embedText := query
	if req.Category != "" {
		embedText = query + " " + req.Category
	}
	vectors, err := e.embedder.Embed(ctx, []string{embedText})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("embedder returned %d vectors for one query", len(vectors))
	}
	vector := vectors[0]
	queryTokens := tokenSet(embedText)

	if _, hasDeadline := ctx.Deadline(); !hasDeadline && e.cfg.QueryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.QueryTimeout)
		defer cancel()
	}

	runContract := scope == models.ScopeContract || scope == models.ScopeBoth
	runCorpus := scope == models.ScopeCorpus || scope == models.ScopeBoth

	var (
		wg          sync.WaitGroup
		contractRes []models.SearchResult
		corpusRes   []models.SearchResult
		contractErr error
		corpusErr   error
	)
	if runContract {
		wg.Add(1)
		go func() {
			defer wg.Done()
			contractRes, contractErr = e.searchContract(ctx, vector, queryTokens, req)
		}()
	}
	if runCorpus {
		wg.Add(1)
		go func() {
			defer wg.Done()
			corpusRes, corpusErr = e.searchCorpus(ctx, vector, queryTokens)
		}()
	}
	wg.Wait()

	bundle := &models.GroundingBundle{Query: query}
	if runContract && contractErr == nil {
		bundle.ContractResults = contractRes
		bundle.Sources = append(bundle.Sources, SourceContract)
	}
	if runCorpus && corpusErr == nil {
		bundle.CorpusResults = corpusRes
		bundle.Sources = append(bundle.Sources, SourceCorpus)
	}

	if len(bundle.Sources) == 0 {
		if contractErr != nil {
			return nil, fmt.Errorf("all retrieval sources failed: %w", contractErr)
		}
		return nil, fmt.Errorf("all retrieval sources failed: %w", corpusErr)
	}
	if runContract && contractErr != nil {
		log.Printf("[RetrievalEngine] Warning: contract search degraded to corpus only: %v", contractErr)
		bundle.Degraded = true
	}
	if runCorpus && corpusErr != nil {
		log.Printf("[RetrievalEngine] Warning: corpus search degraded to contract only: %v", corpusErr)
		bundle.Degraded = true
	}
	return bundle, nil
}

func (e *Engine) searchContract(ctx context.Context, vector []float64, queryTokens map[string]struct{}, req Request) ([]models.SearchResult, error) {
	if e.contractIdx == nil {
		return nil, fmt.Errorf("contract index not configured")
	}

	q := index.Query{
		Vector:        vector,
		TopK:          e.cfg.ContractTopK * e.cfg.OverfetchFactor,
		MinSimilarity: e.cfg.MinSimilarity,
		Filters:       map[string]string{"document_id": req.ContractID},
	}
	if req.BoostArticle > 0 {
		multiplier := req.BoostMultiplier
		if multiplier <= 0 {
			multiplier = e.cfg.BoostMultiplier
		}
		q.Boost = &index.Boost{ArticleNumber: req.BoostArticle, Multiplier: multiplier}
	}

	pool, err := e.contractIdx.Search(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("contract search failed: %w", err)
	}
	pool = e.fuse(pool, queryTokens)

	final := mmrSelect(pool, nil, e.cfg.ContractTopK, e.cfg.MMRLambda)
	sortByScore(final)
	return final, nil
}

func (e *Engine) searchCorpus(ctx context.Context, vector []float64, queryTokens map[string]struct{}) ([]models.SearchResult, error) {
	if e.corpusIdx == nil {
		return nil, fmt.Errorf("corpus index not configured")
	}

	q := index.Query{
		Vector:        vector,
		TopK:          e.cfg.CorpusTopK * e.cfg.OverfetchFactor,
		MinSimilarity: e.cfg.MinSimilarity,
	}
	pool, err := e.corpusIdx.Search(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("corpus search failed: %w", err)
	}
	pool = e.fuse(pool, queryTokens)

	return assembleCorpus(pool, e.cfg.CorpusTopK, e.cfg.MMRLambda), nil
}

// fuse blends keyword overlap into the vector scores and re-sorts. The
// keyword signal is computed over the same over-fetched pool the vector
// search returned.
func (e *Engine) fuse(pool []models.SearchResult, queryTokens map[string]struct{}) []models.SearchResult {
	if !e.cfg.Hybrid {
		return pool
	}
	for i := range pool {
		kw := keywordScore(queryTokens, pool[i].Title+" "+pool[i].Content)
		pool[i].KeywordScore = kw
		pool[i].Score = e.cfg.VectorWeight*pool[i].Score + e.cfg.KeywordWeight*kw
	}
	sortByScore(pool)
	return pool
}
