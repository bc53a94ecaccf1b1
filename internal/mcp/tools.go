// ABOUTME: MCP tool definitions and registration for the clause analysis server
// ABOUTME: Defines JSON schemas for the five contract analysis tools
package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"clauselens/internal/analysis"
)

// RegisterTools registers all MCP tools with the server
func RegisterTools(server *mcpserver.MCPServer, analyzer *analysis.Analyzer, store Store) *Handlers {
	handlers := &Handlers{
		analyzer: analyzer,
		store:    store,
	}

	// 1. ingest_contract - Extract, embed and index a contract document
	server.AddTool(mcp.Tool{
		Name:        "ingest_contract",
		Description: "Ingest a contract document. Extracts clauses, embeds them, and indexes them for retrieval and risk analysis. Re-ingesting the same id replaces the previous version.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"text": map[string]interface{}{
					"type":        "string",
					"description": "Full contract text",
				},
				"title": map[string]interface{}{
					"type":        "string",
					"description": "Optional document title",
				},
				"id": map[string]interface{}{
					"type":        "string",
					"description": "Contract id to replace; omit to create a new contract",
				},
			},
			Required: []string{"text"},
		},
	}, handlers.IngestContract)

	// 2. search_corpus - Search the reference corpus without generation
	server.AddTool(mcp.Tool{
		Name:        "search_corpus",
		Description: "Search the reference corpus of statutes, guides, precedents and templates. Returns scored excerpts without calling a generator.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Search query",
				},
			},
			Required: []string{"query"},
		},
	}, handlers.SearchCorpus)

	// 3. explain_contract - Plain-language explanation of relevant clauses
	server.AddTool(mcp.Tool{
		Name:        "explain_contract",
		Description: "Explain the clauses of an ingested contract most relevant to a question, in plain language grounded against the reference corpus.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"contract_id": map[string]interface{}{
					"type":        "string",
					"description": "Id of an ingested contract",
				},
				"query": map[string]interface{}{
					"type":        "string",
					"description": "What to explain, e.g. 'the overtime provisions'",
				},
			},
			Required: []string{"contract_id", "query"},
		},
	}, handlers.ExplainContract)

	// 4. analyze_contract - Full risk analysis producing a persisted report
	server.AddTool(mcp.Tool{
		Name:        "analyze_contract",
		Description: "Run a full risk analysis of an ingested contract: retrieval-grounded generation, rule-based scoring, and issue mapping. Returns the persisted report.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"contract_id": map[string]interface{}{
					"type":        "string",
					"description": "Id of an ingested contract",
				},
				"situation": map[string]interface{}{
					"type":        "string",
					"description": "Optional description of the concern, e.g. 'unpaid overtime'",
				},
				"boost_article": map[string]interface{}{
					"type":        "number",
					"description": "Optional article number to weight up during retrieval",
				},
			},
			Required: []string{"contract_id"},
		},
	}, handlers.AnalyzeContract)

	// 5. get_report - Fetch a previously produced analysis report
	server.AddTool(mcp.Tool{
		Name:        "get_report",
		Description: "Fetch a previously produced analysis report by its id.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"report_id": map[string]interface{}{
					"type":        "string",
					"description": "Report id returned by analyze_contract",
				},
			},
			Required: []string{"report_id"},
		},
	}, handlers.GetReport)

	return handlers
}
