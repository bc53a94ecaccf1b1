// ABOUTME: Unit tests for the retrieval engine's dual-source orchestration
// ABOUTME: Exercises degradation, hybrid fusion, boost routing, and deterministic ordering
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"
	"testing"

	"clauselens/internal/index"
	"clauselens/internal/models"
)

type fakeEmbedder struct {
	dim     int
	vectors map[string][]float64
	err     error
	calls   []string
}

func (f *fakeEmbedder) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float64, len(texts))
	for i, text := range texts {
		f.calls = append(f.calls, text)
		if vec, ok := f.vectors[text]; ok {
			out[i] = vec
		} else {
			out[i] = []float64{1, 0, 0}
		}
	}
	return out, nil
}

func (f *fakeEmbedder) Dimension() int { return f.dim }

type failingIndex struct{ err error }

func (f *failingIndex) Upsert(context.Context, string, []models.Chunk) error { return f.err }
func (f *failingIndex) Search(context.Context, index.Query) ([]models.SearchResult, error) {
	return nil, f.err
}
func (f *failingIndex) DeleteDocument(context.Context, string) error { return f.err }
func (f *failingIndex) Count(context.Context) (int, error)           { return 0, f.err }

// unitVec builds a 3-d unit vector whose cosine against [1,0,0] equals sim.
func unitVec(sim float64) []float64 {
	return []float64{sim, math.Sqrt(1 - sim*sim), 0}
}

func contractChunk(id string, article int, content string, vec []float64) models.Chunk {
	return models.Chunk{
		ID:            id,
		DocumentID:    "doc1",
		ArticleNumber: article,
		Type:          models.ChunkTypeClause,
		SourceType:    models.SourceContract,
		Content:       content,
		Embedding:     vec,
	}
}

func corpusChunk(id string, st models.SourceType, content string, vec []float64) models.Chunk {
	return models.Chunk{
		ID:         id,
		DocumentID: "corpus",
		Type:       models.ChunkTypeClause,
		SourceType: st,
		Content:    content,
		Embedding:  vec,
	}
}

func newTestEngine(t *testing.T, cfg Config) (*Engine, *fakeEmbedder) {
	t.Helper()
	ctx := context.Background()

	contractIdx := index.NewMemoryIndex(3)
	err := contractIdx.Upsert(ctx, "doc1", []models.Chunk{
		contractChunk("chunk_c1", 1, "Overtime pay rules for work beyond eight hours", unitVec(0.9)),
		contractChunk("chunk_c2", 2, "Probation period of three months", unitVec(0.7)),
		contractChunk("chunk_c3", 3, "Severance on termination", unitVec(0.3)),
	})
	if err != nil {
		t.Fatalf("Failed to seed contract index: %v", err)
	}

	corpusIdx := index.NewMemoryIndex(3)
	err = corpusIdx.Upsert(ctx, "corpus", []models.Chunk{
		corpusChunk("chunk_statute", models.SourceStatute, "Statutory overtime premium", unitVec(0.85)),
		corpusChunk("chunk_guide", models.SourceGuide, "Guide to wage rules", unitVec(0.8)),
		corpusChunk("chunk_precedent", models.SourcePrecedent, "Precedent on unpaid overtime", unitVec(0.75)),
	})
	if err != nil {
		t.Fatalf("Failed to seed corpus index: %v", err)
	}

	embedder := &fakeEmbedder{dim: 3, vectors: map[string][]float64{}}
	return New(embedder, contractIdx, corpusIdx, cfg), embedder
}

func TestEngine_RetrieveBothSources(t *testing.T) {
	engine, _ := newTestEngine(t, DefaultConfig())

	bundle, err := engine.Retrieve(context.Background(), Request{
		Query:      "overtime pay rules",
		ContractID: "doc1",
	})
	if err != nil {
		t.Fatalf("Failed to retrieve: %v", err)
	}

	if bundle.Degraded {
		t.Error("Expected a non-degraded bundle")
	}
	wantSources := []string{SourceContract, SourceCorpus}
	if !reflect.DeepEqual(bundle.Sources, wantSources) {
		t.Errorf("Expected sources %v, got %v", wantSources, bundle.Sources)
	}

	if len(bundle.ContractResults) != 2 {
		t.Fatalf("Expected 2 contract results above the floor, got %d", len(bundle.ContractResults))
	}
	if bundle.ContractResults[0].ChunkID != "chunk_c1" {
		t.Errorf("Expected chunk_c1 first, got %s", bundle.ContractResults[0].ChunkID)
	}
	for _, r := range bundle.ContractResults {
		if r.ChunkID == "chunk_c3" {
			t.Error("chunk_c3 is below the similarity floor and must not appear")
		}
	}

	if len(bundle.CorpusResults) != 3 {
		t.Errorf("Expected 3 corpus results, got %d", len(bundle.CorpusResults))
	}
}

func TestEngine_DegradesWhenCorpusFails(t *testing.T) {
	engine, _ := newTestEngine(t, DefaultConfig())
	engine.corpusIdx = &failingIndex{err: fmt.Errorf("%w: dial refused", index.ErrUnavailable)}

	bundle, err := engine.Retrieve(context.Background(), Request{
		Query:      "overtime pay rules",
		ContractID: "doc1",
	})
	if err != nil {
		t.Fatalf("Degraded retrieval should not error: %v", err)
	}

	if !bundle.Degraded {
		t.Error("Expected the bundle to be marked degraded")
	}
	if !reflect.DeepEqual(bundle.Sources, []string{SourceContract}) {
		t.Errorf("Expected contract-only sources, got %v", bundle.Sources)
	}
	if len(bundle.ContractResults) == 0 {
		t.Error("Surviving source should still carry results")
	}
	if len(bundle.CorpusResults) != 0 {
		t.Errorf("Failed source must not carry results, got %d", len(bundle.CorpusResults))
	}
}

func TestEngine_DegradesWhenContractFails(t *testing.T) {
	engine, _ := newTestEngine(t, DefaultConfig())
	engine.contractIdx = &failingIndex{err: errors.New("boom")}

	bundle, err := engine.Retrieve(context.Background(), Request{
		Query:      "overtime pay rules",
		ContractID: "doc1",
	})
	if err != nil {
		t.Fatalf("Degraded retrieval should not error: %v", err)
	}
	if !bundle.Degraded {
		t.Error("Expected the bundle to be marked degraded")
	}
	if !reflect.DeepEqual(bundle.Sources, []string{SourceCorpus}) {
		t.Errorf("Expected corpus-only sources, got %v", bundle.Sources)
	}
}

func TestEngine_ErrorWhenAllSourcesFail(t *testing.T) {
	engine, _ := newTestEngine(t, DefaultConfig())
	engine.contractIdx = &failingIndex{err: errors.New("contract down")}
	engine.corpusIdx = &failingIndex{err: errors.New("corpus down")}

	_, err := engine.Retrieve(context.Background(), Request{
		Query:      "overtime pay rules",
		ContractID: "doc1",
	})
	if err == nil {
		t.Fatal("Expected an error when every source fails")
	}
	if !strings.Contains(err.Error(), "all retrieval sources failed") {
		t.Errorf("Unexpected error: %v", err)
	}
}

func TestEngine_CorpusOnlyWithoutContractID(t *testing.T) {
	engine, _ := newTestEngine(t, DefaultConfig())

	bundle, err := engine.Retrieve(context.Background(), Request{Query: "overtime pay rules"})
	if err != nil {
		t.Fatalf("Failed to retrieve: %v", err)
	}
	if !reflect.DeepEqual(bundle.Sources, []string{SourceCorpus}) {
		t.Errorf("Expected corpus-only sources, got %v", bundle.Sources)
	}
	if len(bundle.ContractResults) != 0 {
		t.Error("No contract results expected without a contract id")
	}
}

func TestEngine_ContractScopeRequiresID(t *testing.T) {
	engine, _ := newTestEngine(t, DefaultConfig())

	_, err := engine.Retrieve(context.Background(), Request{
		Query: "overtime pay rules",
		Scope: models.ScopeContract,
	})
	if err == nil {
		t.Fatal("Expected an error for contract scope without a contract id")
	}
}

func TestEngine_EmptyQuery(t *testing.T) {
	engine, _ := newTestEngine(t, DefaultConfig())
	if _, err := engine.Retrieve(context.Background(), Request{ContractID: "doc1"}); err == nil {
		t.Fatal("Expected an error for an empty query")
	}
}

func TestEngine_EmbedderFailure(t *testing.T) {
	engine, embedder := newTestEngine(t, DefaultConfig())
	embedder.err = errors.New("quota exceeded")

	_, err := engine.Retrieve(context.Background(), Request{Query: "overtime", ContractID: "doc1"})
	if err == nil {
		t.Fatal("Expected an error when embedding fails")
	}
}

func TestEngine_CategoryBiasesQueryText(t *testing.T) {
	engine, embedder := newTestEngine(t, DefaultConfig())

	_, err := engine.Retrieve(context.Background(), Request{
		Query:    "is this clause acceptable",
		Category: "wage",
	})
	if err != nil {
		t.Fatalf("Failed to retrieve: %v", err)
	}
	if len(embedder.calls) != 1 || embedder.calls[0] != "is this clause acceptable wage" {
		t.Errorf("Expected category-augmented embed text, got %v", embedder.calls)
	}
}

func TestEngine_HybridFusionReordersByKeyword(t *testing.T) {
	ctx := context.Background()
	contractIdx := index.NewMemoryIndex(3)
	// Same cosine against the query, different directions and contents.
	err := contractIdx.Upsert(ctx, "doc1", []models.Chunk{
		contractChunk("chunk_a", 1, "irrelevant clause body", []float64{0.8, 0.6, 0}),
		contractChunk("chunk_z", 2, "overtime pay rules apply here", []float64{0.8, -0.6, 0}),
	})
	if err != nil {
		t.Fatalf("Failed to seed contract index: %v", err)
	}
	embedder := &fakeEmbedder{dim: 3}

	plainCfg := DefaultConfig()
	plainCfg.Hybrid = false
	plain := New(embedder, contractIdx, index.NewMemoryIndex(3), plainCfg)
	bundle, err := plain.Retrieve(ctx, Request{Query: "overtime pay rules", ContractID: "doc1", Scope: models.ScopeContract})
	if err != nil {
		t.Fatalf("Failed plain retrieve: %v", err)
	}
	if bundle.ContractResults[0].ChunkID != "chunk_a" {
		t.Fatalf("Without fusion the tie should break by id, got %s", bundle.ContractResults[0].ChunkID)
	}

	hybrid := New(embedder, contractIdx, index.NewMemoryIndex(3), DefaultConfig())
	bundle, err = hybrid.Retrieve(ctx, Request{Query: "overtime pay rules", ContractID: "doc1", Scope: models.ScopeContract})
	if err != nil {
		t.Fatalf("Failed hybrid retrieve: %v", err)
	}
	first := bundle.ContractResults[0]
	if first.ChunkID != "chunk_z" {
		t.Errorf("Keyword overlap should lift chunk_z, got %s", first.ChunkID)
	}
	if math.Abs(first.KeywordScore-1.0) > 1e-9 {
		t.Errorf("Expected full keyword overlap, got %f", first.KeywordScore)
	}
	wantScore := 0.7*0.8 + 0.3*1.0
	if math.Abs(first.Score-wantScore) > 1e-9 {
		t.Errorf("Expected fused score %f, got %f", wantScore, first.Score)
	}
}

func TestEngine_BoostFlowsToContractQuery(t *testing.T) {
	ctx := context.Background()
	contractIdx := index.NewMemoryIndex(3)
	err := contractIdx.Upsert(ctx, "doc1", []models.Chunk{
		contractChunk("chunk_target", 2, "probation terms", unitVec(0.6)),
		contractChunk("chunk_other", 1, "general duties", unitVec(0.7)),
	})
	if err != nil {
		t.Fatalf("Failed to seed contract index: %v", err)
	}

	cfg := DefaultConfig()
	cfg.Hybrid = false
	engine := New(&fakeEmbedder{dim: 3}, contractIdx, index.NewMemoryIndex(3), cfg)

	bundle, err := engine.Retrieve(ctx, Request{
		Query:      "probation",
		ContractID: "doc1",
		Scope:      models.ScopeContract,
	})
	if err != nil {
		t.Fatalf("Failed retrieve: %v", err)
	}
	if bundle.ContractResults[0].ChunkID != "chunk_other" {
		t.Fatalf("Without boost chunk_other should lead, got %s", bundle.ContractResults[0].ChunkID)
	}

	bundle, err = engine.Retrieve(ctx, Request{
		Query:        "probation",
		ContractID:   "doc1",
		Scope:        models.ScopeContract,
		BoostArticle: 2,
	})
	if err != nil {
		t.Fatalf("Failed boosted retrieve: %v", err)
	}
	first := bundle.ContractResults[0]
	if first.ChunkID != "chunk_target" {
		t.Errorf("Boost should lift chunk_target, got %s", first.ChunkID)
	}
	if math.Abs(first.Score-0.9) > 1e-9 {
		t.Errorf("Expected boosted score 0.9, got %f", first.Score)
	}
}

func TestEngine_CorpusTypeDiversity(t *testing.T) {
	ctx := context.Background()
	corpusIdx := index.NewMemoryIndex(3)

	chunks := make([]models.Chunk, 0, 11)
	for i := 0; i < 8; i++ {
		sim := 0.95 - float64(i)*0.01
		chunks = append(chunks, corpusChunk(
			fmt.Sprintf("chunk_statute_%d", i), models.SourceStatute, "statutory rule", unitVec(sim)))
	}
	chunks = append(chunks,
		corpusChunk("chunk_guide", models.SourceGuide, "ministry guide", unitVec(0.6)),
		corpusChunk("chunk_template", models.SourceTemplate, "model contract", unitVec(0.58)),
		corpusChunk("chunk_precedent", models.SourcePrecedent, "court ruling", unitVec(0.55)),
	)
	if err := corpusIdx.Upsert(ctx, "corpus", chunks); err != nil {
		t.Fatalf("Failed to seed corpus index: %v", err)
	}

	engine := New(&fakeEmbedder{dim: 3}, index.NewMemoryIndex(3), corpusIdx, DefaultConfig())
	bundle, err := engine.Retrieve(ctx, Request{Query: "working hours"})
	if err != nil {
		t.Fatalf("Failed retrieve: %v", err)
	}

	if len(bundle.CorpusResults) != 8 {
		t.Fatalf("Expected 8 corpus results, got %d", len(bundle.CorpusResults))
	}
	var statutes, guideLike, precedents int
	for _, r := range bundle.CorpusResults {
		switch r.SourceType {
		case models.SourceStatute:
			statutes++
		case models.SourceGuide, models.SourceTemplate:
			guideLike++
		case models.SourcePrecedent:
			precedents++
		}
	}
	if statutes < 1 {
		t.Error("Expected at least one statute result")
	}
	if guideLike < 1 {
		t.Error("Expected at least one guide or template result")
	}
	if precedents < 1 {
		t.Error("Expected a precedent result while one is above the floor")
	}
}

func TestEngine_DeterministicOrdering(t *testing.T) {
	engine, _ := newTestEngine(t, DefaultConfig())
	req := Request{Query: "overtime pay rules", ContractID: "doc1"}

	var baseline []string
	for run := 0; run < 5; run++ {
		bundle, err := engine.Retrieve(context.Background(), req)
		if err != nil {
			t.Fatalf("Run %d failed: %v", run, err)
		}
		got := append(ids(bundle.ContractResults), ids(bundle.CorpusResults)...)
		if run == 0 {
			baseline = got
			continue
		}
		if !reflect.DeepEqual(baseline, got) {
			t.Fatalf("Run %d ordering differs: %v vs %v", run, got, baseline)
		}
	}
}
