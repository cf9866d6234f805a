package driven

import (
	"context"

	"github.com/qplens/qplens/internal/core/domain"
)

// NormaliserRegistry routes an upload to the normaliser for its MIME type.
type NormaliserRegistry interface {
	// Normalise fails with domain.ErrUnsupportedType when no registered
	// normaliser accepts raw.MIMEType.
	Normalise(ctx context.Context, raw *domain.RawDocument) (*domain.Document, error)

	Register(normaliser Normaliser)
	SupportedMIMETypes() []string
}
