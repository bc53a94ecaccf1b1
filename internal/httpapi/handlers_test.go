// ABOUTME: httptest coverage for the API surface: envelopes, status codes, error paths
// ABOUTME: Runs the real analyzer over in-memory indices and a fake docstore
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"clauselens/internal/analysis"
	"clauselens/internal/blobstore"
	"clauselens/internal/docstore"
	"clauselens/internal/embedding"
	"clauselens/internal/index"
	"clauselens/internal/llm"
	"clauselens/internal/models"
	"clauselens/internal/risk"
)

const sampleContract = `Article 1 (Working Hours)
Working hours are 9:00 to 18:00 with a one hour break. Overtime may be required without additional pay.

Article 2 (Wages)
The monthly wage is 300,000 yen, paid on the 25th of each month.

Article 3 (Probation)
The probation period is 6 months with dismissal possible at any time.`

type fakeStore struct {
	contracts map[string]models.ContractDocument
	clauses   map[string][]models.Clause
	reports   map[string]models.AnalysisReport
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		contracts: make(map[string]models.ContractDocument),
		clauses:   make(map[string][]models.Clause),
		reports:   make(map[string]models.AnalysisReport),
	}
}

func (s *fakeStore) SaveContract(doc *models.ContractDocument) error {
	s.contracts[doc.ID] = *doc
	return nil
}

func (s *fakeStore) GetContract(id string) (*models.ContractDocument, error) {
	doc, ok := s.contracts[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", docstore.ErrNotFound, id)
	}
	return &doc, nil
}

func (s *fakeStore) ListContracts() ([]models.ContractDocument, error) {
	out := make([]models.ContractDocument, 0, len(s.contracts))
	for _, doc := range s.contracts {
		out = append(out, doc)
	}
	return out, nil
}

func (s *fakeStore) SaveClauses(documentID string, clauses []models.Clause) error {
	s.clauses[documentID] = clauses
	return nil
}

func (s *fakeStore) GetClauses(documentID string) ([]models.Clause, error) {
	clauses, ok := s.clauses[documentID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", docstore.ErrNotFound, documentID)
	}
	return clauses, nil
}

func (s *fakeStore) SaveReport(report *models.AnalysisReport) error {
	s.reports[report.ID] = *report
	return nil
}

func (s *fakeStore) GetReport(id string) (*models.AnalysisReport, error) {
	report, ok := s.reports[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", docstore.ErrNotFound, id)
	}
	return &report, nil
}

type cannedGenerator struct {
	reply string
}

func (g *cannedGenerator) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return g.reply, nil
}

func newTestRouter(t *testing.T, gen llm.Generator) *gin.Engine {
	return newRouter(t, gen, nil)
}

func newRouter(t *testing.T, gen llm.Generator, blobs blobstore.Storage) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	scorer, err := risk.NewScorer(risk.DefaultWeights(), risk.DefaultBands(), risk.DefaultRules())
	if err != nil {
		t.Fatalf("Failed to create scorer: %v", err)
	}
	store := newFakeStore()
	analyzer := analysis.New(analysis.Deps{
		Embedder:    embedding.NewHashingEmbedder(64),
		ContractIdx: index.NewMemoryIndex(64),
		CorpusIdx:   index.NewMemoryIndex(64),
		Generator:   gen,
		Scorer:      scorer,
		Store:       store,
	})

	r := gin.New()
	New(analyzer, store, blobs).Register(r)
	return r
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *apiError       `json:"error"`
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Buffer
	if body != nil {
		reader = &bytes.Buffer{}
		if err := json.NewEncoder(reader).Encode(body); err != nil {
			t.Fatalf("Failed to encode request body: %v", err)
		}
	}

	var req *http.Request
	if reader != nil {
		req = httptest.NewRequest(method, path, reader)
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("Failed to decode response %q: %v", w.Body.String(), err)
	}
	return env
}

func ingestSample(t *testing.T, r *gin.Engine) (string, []models.Clause) {
	t.Helper()

	w := doJSON(t, r, http.MethodPost, "/api/contracts", gin.H{
		"title": "Employment Agreement",
		"text":  sampleContract,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	env := decode(t, w)

	var data struct {
		Contract models.ContractDocument `json:"contract"`
		Clauses  []models.Clause         `json:"clauses"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("Failed to decode ingest data: %v", err)
	}
	return data.Contract.ID, data.Clauses
}

func TestHealth(t *testing.T) {
	r := newTestRouter(t, nil)

	w := doJSON(t, r, http.MethodGet, "/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "ok") {
		t.Errorf("Expected ok status, got %s", w.Body.String())
	}
}

func TestIngestContract(t *testing.T) {
	r := newTestRouter(t, nil)

	id, clauses := ingestSample(t, r)
	if !strings.HasPrefix(id, "contract_") {
		t.Errorf("Expected generated contract id, got %q", id)
	}
	if len(clauses) != 3 {
		t.Errorf("Expected 3 clauses, got %d", len(clauses))
	}
}

func TestIngestContract_EmptyDocument(t *testing.T) {
	r := newTestRouter(t, nil)

	w := doJSON(t, r, http.MethodPost, "/api/contracts", gin.H{"text": "   \n  "})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", w.Code)
	}
	env := decode(t, w)
	if env.Error == nil || env.Error.Code != "EMPTY_DOCUMENT" {
		t.Errorf("Expected EMPTY_DOCUMENT error, got %+v", env.Error)
	}
}

func TestIngestContract_MissingText(t *testing.T) {
	r := newTestRouter(t, nil)

	w := doJSON(t, r, http.MethodPost, "/api/contracts", gin.H{"title": "no text"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", w.Code)
	}
	env := decode(t, w)
	if env.Error == nil || env.Error.Code != "INVALID_REQUEST" {
		t.Errorf("Expected INVALID_REQUEST error, got %+v", env.Error)
	}
}

func TestIngestContract_ArchivesOriginal(t *testing.T) {
	blobs, err := blobstore.NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create blob storage: %v", err)
	}
	r := newRouter(t, nil, blobs)

	w := doJSON(t, r, http.MethodPost, "/api/contracts", gin.H{
		"title": "Employment Agreement",
		"text":  sampleContract,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	env := decode(t, w)

	var data struct {
		Contract    models.ContractDocument `json:"contract"`
		StoragePath string                  `json:"storage_path"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("Failed to decode ingest data: %v", err)
	}
	if data.StoragePath == "" {
		t.Fatal("Expected storage_path in archived ingest response")
	}

	w = doJSON(t, r, http.MethodGet, "/api/contracts/"+data.Contract.ID+"/original", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200 fetching original, got %d: %s", w.Code, w.Body.String())
	}
	if w.Body.String() != sampleContract {
		t.Errorf("Original text mismatch: %q", w.Body.String())
	}
}

func TestGetOriginal_ArchiveDisabled(t *testing.T) {
	r := newTestRouter(t, nil)
	id, _ := ingestSample(t, r)

	w := doJSON(t, r, http.MethodGet, "/api/contracts/"+id+"/original", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("Expected 404, got %d", w.Code)
	}
	env := decode(t, w)
	if env.Error == nil || env.Error.Code != "ARCHIVE_DISABLED" {
		t.Errorf("Expected ARCHIVE_DISABLED error, got %+v", env.Error)
	}
}

func TestGetOriginal_NotFound(t *testing.T) {
	blobs, err := blobstore.NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create blob storage: %v", err)
	}
	r := newRouter(t, nil, blobs)

	w := doJSON(t, r, http.MethodGet, "/api/contracts/contract_missing/original", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("Expected 404, got %d", w.Code)
	}
	env := decode(t, w)
	if env.Error == nil || env.Error.Code != "NOT_FOUND" {
		t.Errorf("Expected NOT_FOUND error, got %+v", env.Error)
	}
}

func TestGetClauses(t *testing.T) {
	r := newTestRouter(t, nil)
	id, _ := ingestSample(t, r)

	w := doJSON(t, r, http.MethodGet, "/api/contracts/"+id+"/clauses", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	env := decode(t, w)

	var data struct {
		DocumentID string          `json:"document_id"`
		Clauses    []models.Clause `json:"clauses"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("Failed to decode clauses data: %v", err)
	}
	if data.DocumentID != id {
		t.Errorf("Expected document id %s, got %s", id, data.DocumentID)
	}
	if len(data.Clauses) != 3 {
		t.Errorf("Expected 3 clauses, got %d", len(data.Clauses))
	}
}

func TestGetClauses_NotFound(t *testing.T) {
	r := newTestRouter(t, nil)

	w := doJSON(t, r, http.MethodGet, "/api/contracts/contract_missing/clauses", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("Expected 404, got %d", w.Code)
	}
	env := decode(t, w)
	if env.Error == nil || env.Error.Code != "NOT_FOUND" {
		t.Errorf("Expected NOT_FOUND error, got %+v", env.Error)
	}
}

func TestListContracts(t *testing.T) {
	r := newTestRouter(t, nil)
	ingestSample(t, r)

	w := doJSON(t, r, http.MethodGet, "/api/contracts", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	env := decode(t, w)

	var contracts []models.ContractDocument
	if err := json.Unmarshal(env.Data, &contracts); err != nil {
		t.Fatalf("Failed to decode contracts: %v", err)
	}
	if len(contracts) != 1 {
		t.Errorf("Expected 1 contract, got %d", len(contracts))
	}
}

func TestQuery(t *testing.T) {
	r := newTestRouter(t, &cannedGenerator{reply: "Overtime requires a 25 percent premium."})
	id, _ := ingestSample(t, r)

	w := doJSON(t, r, http.MethodPost, "/api/query", gin.H{
		"query":       "what are the overtime rules",
		"contract_id": id,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	env := decode(t, w)

	var data struct {
		Answer string                  `json:"answer"`
		Bundle *models.GroundingBundle `json:"bundle"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("Failed to decode query data: %v", err)
	}
	if data.Answer != "Overtime requires a 25 percent premium." {
		t.Errorf("Expected generator answer, got %q", data.Answer)
	}
	if data.Bundle == nil {
		t.Error("Expected grounding bundle in response")
	}
}

func TestQuery_InvalidScope(t *testing.T) {
	r := newTestRouter(t, &cannedGenerator{reply: "unused"})

	w := doJSON(t, r, http.MethodPost, "/api/query", gin.H{
		"query": "anything",
		"scope": "galaxy",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", w.Code)
	}
	env := decode(t, w)
	if env.Error == nil || env.Error.Code != "INVALID_SCOPE" {
		t.Errorf("Expected INVALID_SCOPE error, got %+v", env.Error)
	}
}

func TestQuery_NoGenerator(t *testing.T) {
	r := newTestRouter(t, nil)

	w := doJSON(t, r, http.MethodPost, "/api/query", gin.H{"query": "anything"})
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("Expected 503, got %d", w.Code)
	}
	env := decode(t, w)
	if env.Error == nil || env.Error.Code != "GENERATOR_UNAVAILABLE" {
		t.Errorf("Expected GENERATOR_UNAVAILABLE error, got %+v", env.Error)
	}
}

func TestAnalyzeAndFetchReport(t *testing.T) {
	payload := `{"summary": "Unpaid overtime is the main risk.", "overall_risk": 65,
		"category_scores": {"working_hours": 80, "wage": 30, "probation_termination": 60, "ip": 20},
		"issues": []}`
	r := newTestRouter(t, &cannedGenerator{reply: payload})
	id, _ := ingestSample(t, r)

	w := doJSON(t, r, http.MethodPost, "/api/contracts/"+id+"/analyze", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	env := decode(t, w)

	var report models.AnalysisReport
	if err := json.Unmarshal(env.Data, &report); err != nil {
		t.Fatalf("Failed to decode report: %v", err)
	}
	if report.DocumentID != id {
		t.Errorf("Expected document id %s, got %s", id, report.DocumentID)
	}
	if report.Answer != "Unpaid overtime is the main risk." {
		t.Errorf("Expected generator summary, got %q", report.Answer)
	}
	if report.Flags.RulesOnly {
		t.Error("Expected generator-informed report")
	}

	// The persisted report is retrievable by id.
	w = doJSON(t, r, http.MethodGet, "/api/reports/"+report.ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200 fetching report, got %d", w.Code)
	}
}

func TestAnalyze_ArchivesReport(t *testing.T) {
	blobs, err := blobstore.NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create blob storage: %v", err)
	}
	r := newRouter(t, nil, blobs)
	id, _ := ingestSample(t, r)

	w := doJSON(t, r, http.MethodPost, "/api/contracts/"+id+"/analyze", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	env := decode(t, w)

	var report models.AnalysisReport
	if err := json.Unmarshal(env.Data, &report); err != nil {
		t.Fatalf("Failed to decode report: %v", err)
	}

	rc, err := blobs.Download(context.Background(), blobstore.Path(id, report.ID+".json"))
	if err != nil {
		t.Fatalf("Expected archived report blob: %v", err)
	}
	defer rc.Close()

	var archived models.AnalysisReport
	if err := json.NewDecoder(rc).Decode(&archived); err != nil {
		t.Fatalf("Failed to decode archived report: %v", err)
	}
	if archived.ID != report.ID {
		t.Errorf("Archived report id %s, want %s", archived.ID, report.ID)
	}
}

func TestAnalyze_UnknownContract(t *testing.T) {
	r := newTestRouter(t, nil)

	w := doJSON(t, r, http.MethodPost, "/api/contracts/contract_missing/analyze", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("Expected 404, got %d", w.Code)
	}
}

func TestGetReport_NotFound(t *testing.T) {
	r := newTestRouter(t, nil)

	w := doJSON(t, r, http.MethodGet, "/api/reports/report_missing", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("Expected 404, got %d", w.Code)
	}
	env := decode(t, w)
	if env.Error == nil || env.Error.Code != "NOT_FOUND" {
		t.Errorf("Expected NOT_FOUND error, got %+v", env.Error)
	}
}
