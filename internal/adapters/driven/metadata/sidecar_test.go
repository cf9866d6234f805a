package metadata

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qplens/qplens/internal/core/domain"
)

const physicsMeta = `title: Physics Final
course: PHY201
year: 2023
term: fall
uploaded_by: ana
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestSidecarReader_Read(t *testing.T) {
	dir := t.TempDir()
	paper := filepath.Join(dir, "phy201-2023.pdf")
	writeFile(t, paper, "%PDF-1.4")
	writeFile(t, filepath.Join(dir, "phy201-2023.yaml"), physicsMeta)

	meta, err := NewSidecarReader().Read(paper)
	require.NoError(t, err)
	assert.Equal(t, "Physics Final", meta.Title)
	assert.Equal(t, "PHY201", meta.Course)
	assert.Equal(t, 2023, meta.Year)
	assert.Equal(t, domain.TermFall, meta.Term)
	assert.Equal(t, "ana", meta.UploadedBy)
	assert.Equal(t, paper, meta.FileURI)
}

func TestSidecarReader_YmlExtension(t *testing.T) {
	dir := t.TempDir()
	paper := filepath.Join(dir, "chem.txt")
	writeFile(t, filepath.Join(dir, "chem.yml"), "title: Chem\ncourse: CHM101\nyear: 2021\nterm: SPRING\n")

	meta, err := NewSidecarReader().Read(paper)
	require.NoError(t, err)
	assert.Equal(t, domain.TermSpring, meta.Term)
}

func TestSidecarReader_Missing(t *testing.T) {
	_, err := NewSidecarReader().Read(filepath.Join(t.TempDir(), "lonely.pdf"))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"malformed yaml", "title: [unterminated"},
		{"missing course", "title: A\nyear: 2020\nterm: FALL\n"},
		{"zero year", "title: A\ncourse: B\nyear: 0\nterm: FALL\n"},
		{"unknown term", "title: A\ncourse: B\nyear: 2020\nterm: AUTUMN\n"},
		{"missing term", "title: A\ncourse: B\nyear: 2020\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.content))
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestWrite_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	paper := filepath.Join(dir, "math.pdf")
	in := domain.PaperMeta{Title: "Calculus", Course: "MTH110", Year: 2022, Term: domain.TermMidterm}

	path, err := Write(paper, in)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "math.yaml"), path)

	out, err := NewSidecarReader().Read(paper)
	require.NoError(t, err)
	in.FileURI = paper
	assert.Equal(t, in, *out)
}

func TestIsSidecar(t *testing.T) {
	assert.True(t, IsSidecar("a.yaml"))
	assert.True(t, IsSidecar("a.YML"))
	assert.False(t, IsSidecar("a.pdf"))
}

func TestReadFile_NotFound(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "none.yaml"))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
