package driven

import "github.com/qplens/qplens/internal/core/domain"

// MetadataReader loads the description of a paper that sits next to the paper file.
type MetadataReader interface {
	// Read returns the metadata for the paper at path.
	// Returns domain.ErrNotFound when no sidecar exists.
	Read(path string) (*domain.PaperMeta, error)
}
