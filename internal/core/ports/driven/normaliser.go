package driven

import (
	"context"

	"github.com/qplens/qplens/internal/core/domain"
)

// Normaliser extracts plain text from one family of file formats.
type Normaliser interface {
	SupportedMIMETypes() []string

	// Priority breaks ties when two normalisers accept the same type.
	// Format readers use 50 to 89, catch-all readers 1 to 9.
	Priority() int

	Normalise(ctx context.Context, raw *domain.RawDocument) (*domain.Document, error)
}
