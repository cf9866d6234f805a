// Package plaintext is the catch-all reader for text files.
package plaintext

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/qplens/qplens/internal/core/domain"
	"github.com/qplens/qplens/internal/core/ports/driven"
)

var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser passes text through with only encoding fixes, so markdown
// and CSV read here keep their markup.
type Normaliser struct{}

func New() *Normaliser {
	return &Normaliser{}
}

func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"text/plain", "text/csv", "text/markdown", "text/x-markdown"}
}

// Priority is low so format-specific normalisers win.
func (n *Normaliser) Priority() int {
	return 5
}

// Normalise drops a leading byte order mark, turns CRLF into LF and
// replaces invalid UTF-8 so chunk offsets fall on rune boundaries.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*domain.Document, error) {
	if raw == nil {
		return nil, fmt.Errorf("%w: nil document", domain.ErrInvalidInput)
	}

	text := string(raw.Content)
	if !utf8.ValidString(text) {
		text = strings.ToValidUTF8(text, string(utf8.RuneError))
	}
	text = strings.TrimPrefix(text, "\uFEFF")

	name := "document"
	if raw.URI != "" {
		name = filepath.Base(raw.URI)
	}
	return &domain.Document{Name: name, Content: strings.ReplaceAll(text, "\r\n", "\n")}, nil
}
