// ABOUTME: HTTP handlers exposing ingestion, query, analysis and report lookup
// ABOUTME: Envelopes every response as success/data or success/error with a code
package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"clauselens/internal/analysis"
	"clauselens/internal/blobstore"
	"clauselens/internal/docstore"
	"clauselens/internal/models"
)

// originalFilename is the fixed blob name for a contract's raw upload, so
// the download path can be rebuilt from the contract id alone.
const originalFilename = "original.txt"

// Store is the read surface the handlers need beyond the analyzer.
// *docstore.Store satisfies it.
type Store interface {
	GetContract(id string) (*models.ContractDocument, error)
	ListContracts() ([]models.ContractDocument, error)
	GetClauses(documentID string) ([]models.Clause, error)
	GetReport(id string) (*models.AnalysisReport, error)
}

// Handler handles HTTP requests for the clause analysis API.
type Handler struct {
	analyzer *analysis.Analyzer
	store    Store
	blobs    blobstore.Storage
}

// New creates a new API handler. A nil blobs disables raw document archival.
func New(analyzer *analysis.Analyzer, store Store, blobs blobstore.Storage) *Handler {
	return &Handler{
		analyzer: analyzer,
		store:    store,
		blobs:    blobs,
	}
}

// Register attaches all routes to the router.
func (h *Handler) Register(r *gin.Engine) {
	r.GET("/health", h.Health)

	api := r.Group("/api")
	{
		api.POST("/contracts", h.IngestContract)
		api.GET("/contracts", h.ListContracts)
		api.GET("/contracts/:id/clauses", h.GetClauses)
		api.GET("/contracts/:id/original", h.GetOriginal)
		api.POST("/contracts/:id/analyze", h.AnalyzeContract)
		api.POST("/query", h.Query)
		api.GET("/reports/:id", h.GetReport)
	}
}

// Health handles GET /health
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// IngestRequest represents the request body for ingesting a contract
type IngestRequest struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Text  string `json:"text" binding:"required"`
}

// IngestContract handles POST /api/contracts
func (h *Handler) IngestContract(c *gin.Context) {
	var req IngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": err.Error(),
			},
		})
		return
	}

	doc, clauses, err := h.analyzer.IngestContract(c.Request.Context(), req.ID, req.Title, req.Text)
	if err != nil {
		if errors.Is(err, analysis.ErrExtractionEmpty) {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "EMPTY_DOCUMENT",
					"message": "Document contains no extractable text",
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INGEST_FAILED",
				"message": err.Error(),
			},
		})
		return
	}

	data := gin.H{
		"contract": doc,
		"clauses":  clauses,
	}

	// Archival is best effort: a blob failure must not undo a successful
	// ingestion, the raw text is still recoverable from the clause offsets.
	if h.blobs != nil {
		path, err := h.blobs.Upload(c.Request.Context(), doc.ID, originalFilename, strings.NewReader(req.Text))
		if err != nil {
			log.Printf("Warning: failed to archive original for %s: %v", doc.ID, err)
		} else {
			data["storage_path"] = path
		}
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    data,
	})
}

// GetOriginal handles GET /api/contracts/:id/original
func (h *Handler) GetOriginal(c *gin.Context) {
	id := c.Param("id")

	if h.blobs == nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "ARCHIVE_DISABLED",
				"message": "Document archival is not configured",
			},
		})
		return
	}

	rc, err := h.blobs.Download(c.Request.Context(), blobstore.Path(id, originalFilename))
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "NOT_FOUND",
					"message": "Original document not found",
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "RETRIEVAL_FAILED",
				"message": err.Error(),
			},
		})
		return
	}
	defer rc.Close()

	c.DataFromReader(http.StatusOK, -1, "text/plain; charset=utf-8", rc, nil)
}

// ListContracts handles GET /api/contracts
func (h *Handler) ListContracts(c *gin.Context) {
	contracts, err := h.store.ListContracts()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "LIST_FAILED",
				"message": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    contracts,
	})
}

// GetClauses handles GET /api/contracts/:id/clauses
func (h *Handler) GetClauses(c *gin.Context) {
	id := c.Param("id")

	clauses, err := h.store.GetClauses(id)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "NOT_FOUND",
					"message": "Contract not found",
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "RETRIEVAL_FAILED",
				"message": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"document_id": id,
			"clauses":     clauses,
		},
	})
}

// QueryRequest represents the request body for a grounded question
type QueryRequest struct {
	Query      string `json:"query" binding:"required"`
	ContractID string `json:"contract_id"`
	Scope      string `json:"scope"`
}

// Query handles POST /api/query
func (h *Handler) Query(c *gin.Context) {
	var req QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": err.Error(),
			},
		})
		return
	}

	scope := models.Scope(strings.ToLower(strings.TrimSpace(req.Scope)))
	switch scope {
	case "", models.ScopeContract, models.ScopeCorpus, models.ScopeBoth:
	default:
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_SCOPE",
				"message": "Scope must be contract, corpus or both",
			},
		})
		return
	}

	ans, err := h.analyzer.Ask(c.Request.Context(), req.Query, analysis.AskOptions{
		ContractID: req.ContractID,
		Scope:      scope,
	})
	if err != nil {
		if errors.Is(err, analysis.ErrGeneratorRequired) {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "GENERATOR_UNAVAILABLE",
					"message": "No generator provider is configured",
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "QUERY_FAILED",
				"message": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"answer": ans.Text,
			"bundle": ans.Bundle,
		},
	})
}

// AnalyzeRequest represents the optional request body for an analysis
type AnalyzeRequest struct {
	Situation    string `json:"situation"`
	BoostArticle int    `json:"boost_article"`
}

// AnalyzeContract handles POST /api/contracts/:id/analyze
func (h *Handler) AnalyzeContract(c *gin.Context) {
	id := c.Param("id")

	// Body is optional; an absent body analyzes with defaults.
	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": err.Error(),
			},
		})
		return
	}

	report, err := h.analyzer.Analyze(c.Request.Context(), id, req.Situation, req.BoostArticle)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "NOT_FOUND",
					"message": "Contract not found",
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "ANALYSIS_FAILED",
				"message": err.Error(),
			},
		})
		return
	}

	if h.blobs != nil {
		// Report archival is best effort; the docstore copy is the serving one.
		js, merr := json.Marshal(report)
		if merr == nil {
			_, merr = h.blobs.Upload(c.Request.Context(), report.DocumentID, report.ID+".json", bytes.NewReader(js))
		}
		if merr != nil {
			log.Printf("Warning: failed to archive report %s: %v", report.ID, merr)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    report,
	})
}

// GetReport handles GET /api/reports/:id
func (h *Handler) GetReport(c *gin.Context) {
	id := c.Param("id")

	report, err := h.store.GetReport(id)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "NOT_FOUND",
					"message": "Report not found",
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "RETRIEVAL_FAILED",
				"message": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    report,
	})
}
