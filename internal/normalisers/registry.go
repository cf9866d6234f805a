package normalisers

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/qplens/qplens/internal/core/domain"
	"github.com/qplens/qplens/internal/core/ports/driven"
	"github.com/qplens/qplens/internal/normalisers/docx"
	"github.com/qplens/qplens/internal/normalisers/markdown"
	"github.com/qplens/qplens/internal/normalisers/pdf"
	"github.com/qplens/qplens/internal/normalisers/plaintext"
)

var _ driven.NormaliserRegistry = (*Registry)(nil)

// extensionMIMETypes maps lower-case file extensions to MIME types.
var extensionMIMETypes = map[string]string{
	".pdf":      "application/pdf",
	".txt":      "text/plain",
	".text":     "text/plain",
	".md":       "text/markdown",
	".markdown": "text/markdown",
	".docx":     "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

// Registry maps MIME types to the normalisers that handle them.
// When several normalisers claim a type the one with the highest priority wins.
type Registry struct {
	mu     sync.RWMutex
	byMIME map[string][]driven.Normaliser
}

// NewRegistry creates an empty normaliser registry.
func NewRegistry() *Registry {
	return &Registry{
		byMIME: make(map[string][]driven.Normaliser),
	}
}

// NewDefaultRegistry creates a registry with every built-in normaliser.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(plaintext.New())
	r.Register(markdown.New())
	r.Register(docx.New())
	r.Register(pdf.New())
	return r
}

// Register adds a normaliser for each MIME type it supports.
func (r *Registry) Register(n driven.Normaliser) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, mime := range n.SupportedMIMETypes() {
		list := append(r.byMIME[mime], n)
		sort.SliceStable(list, func(i, j int) bool {
			return list[i].Priority() > list[j].Priority()
		})
		r.byMIME[mime] = list
	}
}

// Normalise extracts text with the highest-priority normaliser for raw's MIME type.
func (r *Registry) Normalise(ctx context.Context, raw *domain.RawDocument) (*domain.Document, error) {
	if raw == nil {
		return nil, fmt.Errorf("%w: nil document", domain.ErrInvalidInput)
	}

	r.mu.RLock()
	list := r.byMIME[raw.MIMEType]
	r.mu.RUnlock()

	if len(list) == 0 {
		return nil, fmt.Errorf("%w: %q (%s)", domain.ErrUnsupportedType, raw.MIMEType, raw.URI)
	}
	return list[0].Normalise(ctx, raw)
}

// SupportedMIMETypes returns all MIME types that can be normalised, sorted.
func (r *Registry) SupportedMIMETypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, 0, len(r.byMIME))
	for mime := range r.byMIME {
		types = append(types, mime)
	}
	sort.Strings(types)
	return types
}

// MIMEForPath guesses a MIME type from the file extension.
// Unknown extensions return "application/octet-stream".
func MIMEForPath(path string) string {
	if mime, ok := extensionMIMETypes[strings.ToLower(filepath.Ext(path))]; ok {
		return mime
	}
	return "application/octet-stream"
}

// SupportedExtension reports whether files with path's extension can be read.
func SupportedExtension(path string) bool {
	_, ok := extensionMIMETypes[strings.ToLower(filepath.Ext(path))]
	return ok
}

// ReadFile loads a file from disk as a raw document.
func ReadFile(path string) (*domain.RawDocument, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return &domain.RawDocument{
		URI:      path,
		MIMEType: MIMEForPath(path),
		Content:  content,
	}, nil
}

// LoadFile reads and normalises a file in one step.
func (r *Registry) LoadFile(ctx context.Context, path string) (*domain.Document, error) {
	raw, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	return r.Normalise(ctx, raw)
}
