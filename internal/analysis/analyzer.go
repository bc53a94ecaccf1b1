// ABOUTME: Analyzer orchestrates ingestion, retrieval, generation and scoring
// ABOUTME: Degradations become report flags; only empty extraction is fatal
package analysis

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"clauselens/internal/chunker"
	"clauselens/internal/corpus"
	"clauselens/internal/embedding"
	"clauselens/internal/index"
	"clauselens/internal/llm"
	"clauselens/internal/models"
	"clauselens/internal/retrieval"
	"clauselens/internal/risk"
)

var (
	// ErrExtractionEmpty is returned when a submitted document contains no
	// usable text. Nothing is chunked or persisted.
	ErrExtractionEmpty = errors.New("analysis: document text is empty")

	// ErrGeneratorRequired is returned by operations whose entire output is
	// generated prose when no generator is configured.
	ErrGeneratorRequired = errors.New("analysis: no generator configured")
)

// defaultAnalysisQuery seeds retrieval when the caller describes no situation.
const defaultAnalysisQuery = "working hours overtime wage payment probation termination intellectual property"

// DocumentStore is the persistence boundary the analyzer reads and writes
// through. *docstore.Store satisfies it.
type DocumentStore interface {
	SaveContract(doc *models.ContractDocument) error
	GetContract(id string) (*models.ContractDocument, error)
	SaveClauses(documentID string, clauses []models.Clause) error
	GetClauses(documentID string) ([]models.Clause, error)
	SaveReport(report *models.AnalysisReport) error
}

// Deps carries the analyzer's collaborators. Generator may be nil to run
// analyses rule-based only. Chunker, Prompts, Loader and Engine get defaults
// when nil; the remaining fields are required.
type Deps struct {
	Chunker     *chunker.ClauseChunker
	Embedder    embedding.Port
	ContractIdx index.VectorIndex
	CorpusIdx   index.VectorIndex
	Engine      *retrieval.Engine
	Generator   llm.Generator
	Prompts     *llm.PromptBuilder
	Scorer      *risk.Scorer
	Store       DocumentStore
	Loader      *corpus.Loader
}

// Analyzer wires the pipeline into the user-facing operations.
type Analyzer struct {
	chunker     *chunker.ClauseChunker
	embedder    embedding.Port
	contractIdx index.VectorIndex
	corpusIdx   index.VectorIndex
	engine      *retrieval.Engine
	generator   llm.Generator
	prompts     *llm.PromptBuilder
	scorer      *risk.Scorer
	store       DocumentStore
	loader      *corpus.Loader
}

// New creates an analyzer from its dependencies.
func New(deps Deps) *Analyzer {
	if deps.Chunker == nil {
		deps.Chunker = chunker.New(0, 0, nil)
	}
	if deps.Prompts == nil {
		deps.Prompts = llm.NewPromptBuilder(0)
	}
	if deps.Loader == nil {
		deps.Loader = corpus.NewLoader()
	}
	if deps.Engine == nil {
		deps.Engine = retrieval.New(deps.Embedder, deps.ContractIdx, deps.CorpusIdx, retrieval.Config{})
	}
	return &Analyzer{
		chunker:     deps.Chunker,
		embedder:    deps.Embedder,
		contractIdx: deps.ContractIdx,
		corpusIdx:   deps.CorpusIdx,
		engine:      deps.Engine,
		generator:   deps.Generator,
		prompts:     deps.Prompts,
		scorer:      deps.Scorer,
		store:       deps.Store,
		loader:      deps.Loader,
	}
}

// Answer carries generated prose plus the grounding it drew from.
type Answer struct {
	Text   string                  `json:"text"`
	Bundle *models.GroundingBundle `json:"bundle"`
}

// AskOptions scope an Ask call. An empty scope defaults to both indices when
// a contract id is present and corpus-only otherwise.
type AskOptions struct {
	ContractID string
	Scope      models.Scope
}

// IngestContract extracts clauses, embeds their chunks and indexes them,
// replacing any previous ingestion of the same document id. An empty docID
// gets a generated one. The stored document snapshot and the extracted
// clauses are returned.
func (a *Analyzer) IngestContract(ctx context.Context, docID, title, text string) (*models.ContractDocument, []models.Clause, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil, ErrExtractionEmpty
	}
	if docID == "" {
		docID = models.NewContractID()
	}

	clauses, chunks := a.chunker.Chunk(docID, text)
	if len(clauses) == 0 {
		return nil, nil, ErrExtractionEmpty
	}

	if err := a.embedChunks(ctx, chunks); err != nil {
		return nil, nil, err
	}
	if err := a.contractIdx.Upsert(ctx, docID, chunks); err != nil {
		return nil, nil, fmt.Errorf("failed to index contract %s: %w", docID, err)
	}

	doc := &models.ContractDocument{
		ID:          docID,
		Title:       title,
		Text:        text,
		ClauseCount: len(clauses),
		ChunkCount:  len(chunks),
		IngestedAt:  time.Now().UTC(),
	}
	if err := a.store.SaveContract(doc); err != nil {
		return nil, nil, fmt.Errorf("failed to persist contract %s: %w", docID, err)
	}
	if err := a.store.SaveClauses(docID, clauses); err != nil {
		return nil, nil, fmt.Errorf("failed to persist clauses for %s: %w", docID, err)
	}
	return doc, clauses, nil
}

// LoadCorpusDir loads every reference document under root and indexes it.
// Returns the number of documents and chunks indexed.
func (a *Analyzer) LoadCorpusDir(ctx context.Context, root string) (int, int, error) {
	docs, err := a.loader.LoadDir(root)
	if err != nil {
		return 0, 0, err
	}

	totalChunks := 0
	for i := range docs {
		n, err := a.indexCorpusDocument(ctx, docs[i])
		if err != nil {
			return 0, 0, err
		}
		totalChunks += n
	}
	return len(docs), totalChunks, nil
}

// LoadCorpusFile loads one reference document with an explicit source type.
// Returns the number of chunks indexed.
func (a *Analyzer) LoadCorpusFile(ctx context.Context, path string, sourceType models.SourceType) (int, error) {
	doc, err := a.loader.LoadFile(path, sourceType)
	if err != nil {
		return 0, err
	}
	return a.indexCorpusDocument(ctx, *doc)
}

func (a *Analyzer) indexCorpusDocument(ctx context.Context, doc models.CorpusDocument) (int, error) {
	chunks := a.chunker.ChunkDocument(doc)
	if len(chunks) == 0 {
		return 0, nil
	}
	if err := a.embedChunks(ctx, chunks); err != nil {
		return 0, err
	}
	if err := a.corpusIdx.Upsert(ctx, doc.ID, chunks); err != nil {
		return 0, fmt.Errorf("failed to index corpus document %s: %w", doc.ID, err)
	}
	return len(chunks), nil
}

// Search retrieves grounding without generating anything. Scope semantics
// match Ask.
func (a *Analyzer) Search(ctx context.Context, query string, opts AskOptions) (*models.GroundingBundle, error) {
	return a.engine.Retrieve(ctx, retrieval.Request{
		Query:      query,
		ContractID: opts.ContractID,
		Scope:      opts.Scope,
	})
}

// Ask retrieves grounding for a question and generates an answer from it.
func (a *Analyzer) Ask(ctx context.Context, query string, opts AskOptions) (*Answer, error) {
	if a.generator == nil {
		return nil, ErrGeneratorRequired
	}

	bundle, err := a.engine.Retrieve(ctx, retrieval.Request{
		Query:      query,
		ContractID: opts.ContractID,
		Scope:      opts.Scope,
	})
	if err != nil {
		return nil, err
	}

	system, user := a.prompts.BuildAnswer(bundle)
	text, err := a.generator.Complete(ctx, system, user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate answer: %w", err)
	}
	return &Answer{Text: text, Bundle: bundle}, nil
}

// Explain generates a plain-language explanation of the stored clauses most
// relevant to the query, grounded against the reference corpus. When
// retrieval selects no clauses the full clause list is explained.
func (a *Analyzer) Explain(ctx context.Context, contractID, query string) (*Answer, error) {
	if a.generator == nil {
		return nil, ErrGeneratorRequired
	}

	clauses, err := a.store.GetClauses(contractID)
	if err != nil {
		return nil, err
	}

	bundle, err := a.engine.Retrieve(ctx, retrieval.Request{
		Query:      query,
		ContractID: contractID,
		Scope:      models.ScopeBoth,
	})
	if err != nil {
		return nil, err
	}

	selected := selectClauses(clauses, bundle.ContractResults)
	system, user := a.prompts.BuildExplain(selected, bundle)
	text, err := a.generator.Complete(ctx, system, user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate explanation: %w", err)
	}
	return &Answer{Text: text, Bundle: bundle}, nil
}

// Analyze runs the full pipeline for a stored contract: retrieve grounding,
// generate a structured assessment, blend it with rule-based scoring, map
// issues to clause locations, and persist the resulting report. Retrieval
// and generator failures degrade the report instead of failing it; the
// flags record what was missing.
func (a *Analyzer) Analyze(ctx context.Context, contractID, situation string, boostArticle int) (*models.AnalysisReport, error) {
	clauses, err := a.store.GetClauses(contractID)
	if err != nil {
		return nil, err
	}

	query := strings.TrimSpace(situation)
	if query == "" {
		query = defaultAnalysisQuery
	}

	bundle, err := a.engine.Retrieve(ctx, retrieval.Request{
		Query:        query,
		ContractID:   contractID,
		Scope:        models.ScopeBoth,
		BoostArticle: boostArticle,
	})
	if err != nil {
		log.Printf("[Analyzer] Warning: retrieval failed, analyzing ungrounded: %v", err)
		bundle = &models.GroundingBundle{Query: query, Degraded: true}
	}

	var payload models.StructuredPayload
	generatorAttempted := false
	if a.generator != nil {
		generatorAttempted = true
		system, user := a.prompts.BuildAnalyze(clauses, bundle)
		raw, genErr := a.generator.Complete(ctx, system, user)
		if genErr != nil {
			log.Printf("[Analyzer] Warning: generator failed, scoring rule-based only: %v", genErr)
		} else {
			payload = llm.ParsePayload(raw)
			if !payload.Valid {
				log.Printf("[Analyzer] Warning: generator payload unparseable, scoring rule-based only")
			}
		}
	}

	var generatorScores map[string]float64
	if payload.Valid {
		generatorScores = payload.CategoryScores
	}
	assessment := a.scorer.Score(clauses, generatorScores)

	var matched, unmatched []models.Issue
	if payload.Valid {
		matched, unmatched = MapIssues(payload.Issues, clauses)
	}

	report := &models.AnalysisReport{
		ID:             models.NewReportID(),
		DocumentID:     contractID,
		CreatedAt:      time.Now().UTC(),
		OverallScore:   assessment.OverallScore,
		RiskLevel:      assessment.Level,
		CategoryScores: assessment.CategoryScores,
		Issues:         matched,
		Unmatched:      unmatched,
		Grounding:      bundle.Results(),
		Answer:         payload.Summary,
		Flags: models.ReportFlags{
			RulesOnly:         assessment.RulesOnly,
			ReducedConfidence: generatorAttempted && !payload.Valid,
			DegradedRetrieval: bundle.Degraded,
		},
	}
	if err := a.store.SaveReport(report); err != nil {
		return nil, fmt.Errorf("failed to persist report %s: %w", report.ID, err)
	}
	return report, nil
}

func (a *Analyzer) embedChunks(ctx context.Context, chunks []models.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	texts := make([]string, len(chunks))
	for i, ch := range chunks {
		texts[i] = ch.Content
	}
	vectors, err := a.embedder.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to embed %d chunks: %w", len(chunks), err)
	}
	if len(vectors) != len(chunks) {
		return fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(chunks))
	}
	for i := range chunks {
		chunks[i].Embedding = vectors[i]
	}
	return nil
}

// selectClauses keeps the clauses that contract retrieval surfaced, in
// retrieval order, deduplicated. An empty selection falls back to the full
// clause list so an explanation is always possible.
func selectClauses(clauses []models.Clause, results []models.SearchResult) []models.Clause {
	byID := make(map[string]models.Clause, len(clauses))
	for _, cl := range clauses {
		byID[cl.ID] = cl
	}

	seen := make(map[string]bool, len(results))
	var out []models.Clause
	for _, r := range results {
		if r.ClauseID == "" || seen[r.ClauseID] {
			continue
		}
		cl, ok := byID[r.ClauseID]
		if !ok {
			continue
		}
		seen[r.ClauseID] = true
		out = append(out, cl)
	}
	if len(out) == 0 {
		return clauses
	}
	return out
}
