// ABOUTME: Port is the boundary to external embedding providers
// ABOUTME: Vector dimensionality is fixed per deployment and validated on every response
package embedding

import "context"

// DefaultDimension matches text-embedding-3-small.
const DefaultDimension = 1536

// Port converts text into fixed-length vectors. Implementations return one
// vector per input, each exactly Dimension() long; a provider returning a
// different length is an error, never truncated or padded.
type Port interface {
	Embed(ctx context.Context, texts []string) ([][]float64, error)
	Dimension() int
}
