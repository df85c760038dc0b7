// Package embedding abstracts the vector-embedding provider behind a
// small contract so retrieval can be exercised with fakes and the real
// provider can be any OpenAI-compatible endpoint.
package embedding

import "context"

// Provider turns text into a fixed-width vector. Implementations must
// return a vector of exactly the configured dimension or an error; they
// must never return a partial vector.
type Provider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	// Dimensions is the fixed width of every vector this provider emits.
	Dimensions() int
}
