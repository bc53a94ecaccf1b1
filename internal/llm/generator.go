// ABOUTME: Generator port for producing grounded answers and structured analyses
// ABOUTME: Implementations wrap chat models; prompt assembly and payload parsing live beside it
package llm

import "context"

// Generator produces a completion for an assembled prompt pair. The system
// prompt fixes behavior; the user prompt carries grounding and the question.
type Generator interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}
