// Package metadata reads paper descriptions from YAML sidecar files.
//
// A paper at exams/phy201-2023.pdf is described by exams/phy201-2023.yaml
// (or .yml):
//
//	title: Physics Final
//	course: PHY201
//	year: 2023
//	term: fall
package metadata

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/qplens/qplens/internal/core/domain"
	"github.com/qplens/qplens/internal/core/ports/driven"
)

// Ensure SidecarReader implements the interface.
var _ driven.MetadataReader = (*SidecarReader)(nil)

var sidecarExtensions = []string{".yaml", ".yml"}

// sidecar mirrors the file layout. Term is parsed leniently.
type sidecar struct {
	Title      string `yaml:"title"`
	Course     string `yaml:"course"`
	Year       int    `yaml:"year"`
	Term       string `yaml:"term"`
	UploadedBy string `yaml:"uploaded_by"`
}

// SidecarReader loads PaperMeta from a YAML file next to the paper.
type SidecarReader struct{}

// NewSidecarReader creates a sidecar metadata reader.
func NewSidecarReader() *SidecarReader {
	return &SidecarReader{}
}

// SidecarPath returns the first existing sidecar for paperPath, or "" if none exists.
func SidecarPath(paperPath string) string {
	base := strings.TrimSuffix(paperPath, filepath.Ext(paperPath))
	for _, ext := range sidecarExtensions {
		candidate := base + ext
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

// IsSidecar reports whether path looks like a metadata file rather than a paper.
func IsSidecar(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range sidecarExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// Read returns the metadata for the paper at paperPath.
// FileURI is set to paperPath. Returns domain.ErrNotFound without a sidecar.
func (r *SidecarReader) Read(paperPath string) (*domain.PaperMeta, error) {
	path := SidecarPath(paperPath)
	if path == "" {
		return nil, fmt.Errorf("%w: no metadata file for %s", domain.ErrNotFound, paperPath)
	}

	meta, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	meta.FileURI = paperPath
	return meta, nil
}

// ReadFile parses a metadata file given explicitly, e.g. with --meta.
func ReadFile(path string) (*domain.PaperMeta, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, path)
		}
		return nil, fmt.Errorf("read metadata %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes YAML metadata and validates it.
func Parse(data []byte) (*domain.PaperMeta, error) {
	var sc sidecar
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("%w: parse metadata: %w", domain.ErrInvalidInput, err)
	}

	meta := &domain.PaperMeta{
		Title:      strings.TrimSpace(sc.Title),
		Course:     strings.TrimSpace(sc.Course),
		Year:       sc.Year,
		UploadedBy: strings.TrimSpace(sc.UploadedBy),
	}
	if sc.Term != "" {
		term, err := domain.ParseTerm(sc.Term)
		if err != nil {
			return nil, err
		}
		meta.Term = term
	}

	if err := meta.Validate(); err != nil {
		return nil, err
	}
	return meta, nil
}

// Write stores meta as the sidecar of paperPath using the .yaml extension.
func Write(paperPath string, meta domain.PaperMeta) (string, error) {
	sc := sidecar{
		Title:      meta.Title,
		Course:     meta.Course,
		Year:       meta.Year,
		Term:       meta.Term.String(),
		UploadedBy: meta.UploadedBy,
	}
	data, err := yaml.Marshal(&sc)
	if err != nil {
		return "", fmt.Errorf("encode metadata: %w", err)
	}

	path := strings.TrimSuffix(paperPath, filepath.Ext(paperPath)) + sidecarExtensions[0]
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("write metadata %s: %w", path, err)
	}
	return path, nil
}
