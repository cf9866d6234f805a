package normalisers

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qplens/qplens/internal/core/domain"
)

type stubNormaliser struct {
	name     string
	mimes    []string
	priority int
}

func (s *stubNormaliser) SupportedMIMETypes() []string { return s.mimes }
func (s *stubNormaliser) Priority() int                { return s.priority }
func (s *stubNormaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*domain.Document, error) {
	return &domain.Document{Name: s.name, Content: string(raw.Content)}, nil
}

func TestRegistry_HighestPriorityWins(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubNormaliser{name: "fallback", mimes: []string{"text/plain"}, priority: 5})
	r.Register(&stubNormaliser{name: "specific", mimes: []string{"text/plain"}, priority: 50})
	r.Register(&stubNormaliser{name: "middle", mimes: []string{"text/plain"}, priority: 20})

	doc, err := r.Normalise(context.Background(), &domain.RawDocument{MIMEType: "text/plain", Content: []byte("x")})
	require.NoError(t, err)
	assert.Equal(t, "specific", doc.Name)
}

func TestRegistry_UnsupportedType(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubNormaliser{name: "text", mimes: []string{"text/plain"}, priority: 5})

	_, err := r.Normalise(context.Background(), &domain.RawDocument{URI: "a.bin", MIMEType: "application/octet-stream"})
	assert.ErrorIs(t, err, domain.ErrUnsupportedType)
}

func TestRegistry_NilDocument(t *testing.T) {
	_, err := NewRegistry().Normalise(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRegistry_SupportedMIMETypes(t *testing.T) {
	r := NewDefaultRegistry()
	types := r.SupportedMIMETypes()

	assert.Contains(t, types, "application/pdf")
	assert.Contains(t, types, "text/plain")
	assert.Contains(t, types, "text/markdown")
	assert.Contains(t, types, "application/vnd.openxmlformats-officedocument.wordprocessingml.document")
	assert.IsNonDecreasing(t, types)
}

func TestMIMEForPath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"notes.txt", "text/plain"},
		{"/tmp/Paper.PDF", "application/pdf"},
		{"readme.md", "text/markdown"},
		{"chapter.markdown", "text/markdown"},
		{"essay.docx", "application/vnd.openxmlformats-officedocument.wordprocessingml.document"},
		{"image.png", "application/octet-stream"},
		{"noext", "application/octet-stream"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, MIMEForPath(tt.path))
		})
	}
}

func TestSupportedExtension(t *testing.T) {
	assert.True(t, SupportedExtension("a.pdf"))
	assert.True(t, SupportedExtension("b.TXT"))
	assert.False(t, SupportedExtension("c.yaml"))
}

func TestRegistry_LoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lecture-notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("Newton's second law relates force and mass."), 0o600))

	doc, err := NewDefaultRegistry().LoadFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "lecture-notes.txt", doc.Name)
	assert.Equal(t, "Newton's second law relates force and mass.", doc.Content)
}

func TestRegistry_LoadFileMissing(t *testing.T) {
	_, err := NewDefaultRegistry().LoadFile(context.Background(), filepath.Join(t.TempDir(), "absent.txt"))
	assert.Error(t, err)
}
