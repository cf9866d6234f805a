// Package pdf extracts the text layer of PDF files.
package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/qplens/qplens/internal/core/domain"
	"github.com/qplens/qplens/internal/core/ports/driven"
	"github.com/qplens/qplens/internal/logger"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// ErrNoText is returned when a PDF has no text layer, typically a scan.
var ErrNoText = errors.New("no text could be extracted from pdf")

// Normaliser extracts text from PDF documents page by page.
type Normaliser struct {
	maxPages int
}

// Option configures a Normaliser.
type Option func(*Normaliser)

// WithMaxPages limits extraction to the first n pages. Zero means all pages.
func WithMaxPages(n int) Option {
	return func(p *Normaliser) {
		if n >= 0 {
			p.maxPages = n
		}
	}
}

// New creates a new PDF normaliser.
func New(opts ...Option) *Normaliser {
	n := &Normaliser{}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"application/pdf"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// Normalise extracts the plain text of every page, one page per block.
// Pages that fail to decode are skipped and logged.
func (n *Normaliser) Normalise(ctx context.Context, raw *domain.RawDocument) (doc *domain.Document, err error) {
	if raw == nil {
		return nil, fmt.Errorf("%w: nil document", domain.ErrInvalidInput)
	}

	// The pdf package panics on some malformed object graphs.
	defer func() {
		if r := recover(); r != nil {
			doc = nil
			err = fmt.Errorf("%w: %s: malformed pdf: %v", domain.ErrInvalidInput, raw.URI, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(raw.Content), int64(len(raw.Content)))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrInvalidInput, raw.URI, err)
	}

	pages := reader.NumPage()
	if n.maxPages > 0 && n.maxPages < pages {
		pages = n.maxPages
	}

	texts := make([]string, 0, pages)
	for i := 1; i <= pages; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			logger.Warn("pdf %s: skipping page %d: %v", raw.URI, i, err)
			continue
		}
		if text = strings.TrimSpace(text); text != "" {
			texts = append(texts, text)
		}
	}

	if len(texts) == 0 {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrInvalidInput, raw.URI, ErrNoText)
	}

	logger.Debug("pdf %s: extracted %d of %d pages", raw.URI, len(texts), pages)

	return &domain.Document{
		Name:    displayName(raw.URI),
		Content: strings.Join(texts, "\n\n"),
	}, nil
}

func displayName(uri string) string {
	if uri == "" {
		return "document"
	}
	return filepath.Base(uri)
}
