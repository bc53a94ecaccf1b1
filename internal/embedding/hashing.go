// ABOUTME: HashingEmbedder is a deterministic offline embedder using token feature hashing
// ABOUTME: Backs development, tests, and the retrieval benchmark; makes no network calls
package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"regexp"
	"strings"
)

var hashingTokenRe = regexp.MustCompile(`[\p{L}\p{N}]+`)

// HashingEmbedder maps each token to a signed bucket of a fixed-length
// vector and L2-normalizes the result. Texts sharing tokens get positive
// cosine similarity; identical texts always embed identically.
type HashingEmbedder struct {
	dimension int
}

// NewHashingEmbedder creates an embedder of the given dimension. A
// non-positive dimension falls back to DefaultDimension.
func NewHashingEmbedder(dimension int) *HashingEmbedder {
	if dimension <= 0 {
		dimension = DefaultDimension
	}
	return &HashingEmbedder{dimension: dimension}
}

// Dimension returns the configured vector length.
func (e *HashingEmbedder) Dimension() int {
	return e.dimension
}

// Embed hashes each text independently. It never fails; a text with no
// tokens embeds as the zero vector.
func (e *HashingEmbedder) Embed(_ context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i, text := range texts {
		out[i] = e.embedOne(text)
	}
	return out, nil
}

func (e *HashingEmbedder) embedOne(text string) []float64 {
	vec := make([]float64, e.dimension)
	tokens := hashingTokenRe.FindAllString(strings.ToLower(text), -1)
	for _, tok := range tokens {
		bucket, sign := hashToken(tok, e.dimension)
		vec[bucket] += sign
	}

	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	if norm == 0 {
		return vec
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] /= norm
	}
	return vec
}

// hashToken picks the bucket from a 64-bit hash and the sign from an
// independent 32-bit hash so colliding tokens do not always reinforce.
func hashToken(tok string, dimension int) (int, float64) {
	h64 := fnv.New64a()
	h64.Write([]byte(tok))
	bucket := int(h64.Sum64() % uint64(dimension))

	h32 := fnv.New32a()
	h32.Write([]byte(tok))
	if h32.Sum32()&1 == 1 {
		return bucket, 1
	}
	return bucket, -1
}
