package driven

import "context"

// EmbeddingService maps text to vectors. All vectors from one service have
// Dimensions() entries, so they can be compared with each other.
type EmbeddingService interface {
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch returns one vector per text, in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	Dimensions() int
	ModelName() string

	// Ping checks the endpoint and credentials without embedding anything
	// when the provider allows it.
	Ping(ctx context.Context) error
	Close() error
}
