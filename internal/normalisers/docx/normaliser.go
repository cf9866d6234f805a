// Package docx reads the text of Word documents.
package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/qplens/qplens/internal/core/domain"
	"github.com/qplens/qplens/internal/core/ports/driven"
)

var _ driven.Normaliser = (*Normaliser)(nil)

const (
	mimeType     = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	documentPart = "word/document.xml"
	corePart     = "docProps/core.xml"
)

// Normaliser extracts the body text of a .docx archive.
type Normaliser struct{}

func New() *Normaliser {
	return &Normaliser{}
}

func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{mimeType}
}

func (n *Normaliser) Priority() int {
	return 50
}

// Normalise returns one line per paragraph, including paragraphs inside
// tables and hyperlinks. The document title, when set, names the result.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*domain.Document, error) {
	if raw == nil {
		return nil, fmt.Errorf("%w: nil document", domain.ErrInvalidInput)
	}

	archive, err := zip.NewReader(bytes.NewReader(raw.Content), int64(len(raw.Content)))
	if err != nil {
		return nil, fmt.Errorf("%w: %s is not a docx archive: %w", domain.ErrInvalidInput, raw.URI, err)
	}

	body, err := readPart(archive, documentPart)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrInvalidInput, raw.URI, err)
	}

	return &domain.Document{
		Name:    documentName(archive, raw.URI),
		Content: parseDocumentXML(body),
	}, nil
}

// readPart returns an archive member, or nil if the archive lacks it.
func readPart(archive *zip.Reader, name string) ([]byte, error) {
	b, err := fs.ReadFile(archive, name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	return b, err
}

// parseDocumentXML walks the WordprocessingML tokens. Text runs are
// concatenated with their tabs and breaks, and each paragraph ends a line.
// Malformed XML yields no text.
func parseDocumentXML(content []byte) string {
	var b strings.Builder
	dec := xml.NewDecoder(bytes.NewReader(content))
	inText := false

	for {
		tok, err := dec.Token()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				return ""
			}
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				b.WriteByte('\t')
			case "br", "cr":
				b.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				b.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				b.Write(t)
			}
		}
	}
	return strings.TrimSpace(b.String())
}

// documentName prefers the dc:title of docProps/core.xml over the file name.
func documentName(archive *zip.Reader, uri string) string {
	if core, _ := readPart(archive, corePart); len(core) > 0 {
		var props struct {
			Title string `xml:"title"`
		}
		if xml.Unmarshal(core, &props) == nil {
			if title := strings.TrimSpace(props.Title); title != "" {
				return title
			}
		}
	}
	if uri == "" {
		return "document"
	}
	return filepath.Base(uri)
}
