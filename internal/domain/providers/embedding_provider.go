package providers

import "context"

// EmbeddingProvider converts text to a fixed-length numeric vector.
// A failure here degrades a search to non-semantic ranking; it is never
// surfaced to the caller.
type EmbeddingProvider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}
