// ABOUTME: MCP tool handler implementations for the clause analysis server
// ABOUTME: Each handler returns tool errors in-band, never as transport failures
package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"clauselens/internal/analysis"
	"clauselens/internal/models"
)

// Store is the report lookup surface the MCP handlers need.
// *docstore.Store satisfies it.
type Store interface {
	GetReport(id string) (*models.AnalysisReport, error)
}

// Handlers contains the handler functions for all MCP tools
type Handlers struct {
	analyzer *analysis.Analyzer
	store    Store
}

// IngestContract handles the ingest_contract tool
func (h *Handlers) IngestContract(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := request.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError("text argument is required and must be a string"), nil
	}
	title := request.GetString("title", "")
	id := request.GetString("id", "")

	doc, clauses, err := h.analyzer.IngestContract(ctx, id, title, text)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("ingestion failed: %v", err)), nil
	}

	clauseSummaries := make([]map[string]interface{}, 0, len(clauses))
	for _, cl := range clauses {
		clauseSummaries = append(clauseSummaries, map[string]interface{}{
			"id":             cl.ID,
			"article_number": cl.ArticleNumber,
			"title":          cl.Title,
		})
	}

	response := map[string]interface{}{
		"contract_id":  doc.ID,
		"clause_count": doc.ClauseCount,
		"chunk_count":  doc.ChunkCount,
		"clauses":      clauseSummaries,
	}

	responseJSON, err := json.Marshal(response)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(responseJSON)), nil
}

// SearchCorpus handles the search_corpus tool
func (h *Handlers) SearchCorpus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("query argument is required and must be a string"), nil
	}

	bundle, err := h.analyzer.Search(ctx, query, analysis.AskOptions{Scope: models.ScopeCorpus})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}

	results := make([]map[string]interface{}, 0, len(bundle.CorpusResults))
	for _, r := range bundle.CorpusResults {
		results = append(results, map[string]interface{}{
			"source_type": string(r.SourceType),
			"title":       r.Title,
			"content":     r.Content,
			"score":       r.Score,
		})
	}

	response := map[string]interface{}{
		"results":  results,
		"degraded": bundle.Degraded,
	}

	responseJSON, err := json.Marshal(response)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(responseJSON)), nil
}

// ExplainContract handles the explain_contract tool
func (h *Handlers) ExplainContract(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	contractID, err := request.RequireString("contract_id")
	if err != nil {
		return mcp.NewToolResultError("contract_id argument is required and must be a string"), nil
	}
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("query argument is required and must be a string"), nil
	}

	ans, err := h.analyzer.Explain(ctx, contractID, query)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("explanation failed: %v", err)), nil
	}

	response := map[string]interface{}{
		"explanation": ans.Text,
		"sources":     ans.Bundle.Sources,
		"degraded":    ans.Bundle.Degraded,
	}

	responseJSON, err := json.Marshal(response)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(responseJSON)), nil
}

// AnalyzeContract handles the analyze_contract tool
func (h *Handlers) AnalyzeContract(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	contractID, err := request.RequireString("contract_id")
	if err != nil {
		return mcp.NewToolResultError("contract_id argument is required and must be a string"), nil
	}
	situation := request.GetString("situation", "")
	boostArticle := request.GetInt("boost_article", 0)

	report, err := h.analyzer.Analyze(ctx, contractID, situation, boostArticle)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("analysis failed: %v", err)), nil
	}

	response := map[string]interface{}{
		"report_id":       report.ID,
		"overall_score":   report.OverallScore,
		"risk_level":      string(report.RiskLevel),
		"category_scores": report.CategoryScores,
		"issues":          report.Issues,
		"unmatched":       report.Unmatched,
		"summary":         report.Answer,
		"flags":           report.Flags,
	}

	responseJSON, err := json.Marshal(response)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(responseJSON)), nil
}

// GetReport handles the get_report tool
func (h *Handlers) GetReport(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	reportID, err := request.RequireString("report_id")
	if err != nil {
		return mcp.NewToolResultError("report_id argument is required and must be a string"), nil
	}

	report, err := h.store.GetReport(reportID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to get report: %v", err)), nil
	}

	responseJSON, err := json.Marshal(report)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(responseJSON)), nil
}
