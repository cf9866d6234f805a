package domain

import (
	"fmt"
	"strings"
	"time"
)

// Term identifies the examination sitting of a paper.
type Term string

// Available terms.
const (
	TermFall    Term = "FALL"
	TermSpring  Term = "SPRING"
	TermSummer  Term = "SUMMER"
	TermWinter  Term = "WINTER"
	TermMidterm Term = "MIDTERM"
	TermFinal   Term = "FINAL"
)

// IsValid returns true if the term is recognised.
func (t Term) IsValid() bool {
	switch t {
	case TermFall, TermSpring, TermSummer, TermWinter, TermMidterm, TermFinal:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (t Term) String() string {
	return string(t)
}

// ParseTerm converts user input to a Term, ignoring case and surrounding space.
func ParseTerm(s string) (Term, error) {
	t := Term(strings.ToUpper(strings.TrimSpace(s)))
	if !t.IsValid() {
		return "", fmt.Errorf("%w: unknown term %q", ErrInvalidInput, s)
	}
	return t, nil
}

// AllTerms returns every recognised term.
func AllTerms() []Term {
	return []Term{TermFall, TermSpring, TermSummer, TermWinter, TermMidterm, TermFinal}
}

// Paper is an uploaded question paper.
type Paper struct {
	// ID is the unique identifier for the paper.
	ID string

	Title  string
	Course string
	Year   int
	Term   Term

	// UploadedBy identifies the uploader. Optional for local use.
	UploadedBy string

	// FileURI is where the original file lives, if known.
	FileURI string

	// TotalCount is the number of questions extracted from the paper.
	TotalCount int

	// NewCount is the number of questions first recorded by this paper.
	NewCount int

	// ReusedCount is the number of questions merged into other papers' questions.
	ReusedCount int

	// QuestionIDs lists the questions this paper owns.
	QuestionIDs []string

	// ReusedQuestionIDs lists questions owned by other papers that this paper repeated.
	ReusedQuestionIDs []string

	// PageCount is an estimate derived from the text length.
	PageCount int

	// WordCount is the number of words in the extracted text.
	WordCount int

	// ExtractedAt is when the text was processed.
	ExtractedAt time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// PaperMeta is the caller-supplied description of an upload.
type PaperMeta struct {
	Title      string `yaml:"title"`
	Course     string `yaml:"course"`
	Year       int    `yaml:"year"`
	Term       Term   `yaml:"term"`
	UploadedBy string `yaml:"uploaded_by,omitempty"`
	FileURI    string `yaml:"file_uri,omitempty"`
}

// Validate checks that the required metadata is present.
func (m PaperMeta) Validate() error {
	var missing []string
	if strings.TrimSpace(m.Title) == "" {
		missing = append(missing, "title")
	}
	if strings.TrimSpace(m.Course) == "" {
		missing = append(missing, "course")
	}
	if m.Year <= 0 {
		missing = append(missing, "year")
	}
	if m.Term == "" {
		missing = append(missing, "term")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing required metadata: %s", ErrInvalidInput, strings.Join(missing, ", "))
	}
	if !m.Term.IsValid() {
		return fmt.Errorf("%w: unknown term %q", ErrInvalidInput, m.Term)
	}
	return nil
}

// PaperSummary is the part of a paper shown next to its questions.
type PaperSummary struct {
	ID     string
	Title  string
	Course string
	Year   int
	Term   Term
}

// Summary returns the display summary of the paper.
func (p *Paper) Summary() PaperSummary {
	return PaperSummary{ID: p.ID, Title: p.Title, Course: p.Course, Year: p.Year, Term: p.Term}
}

// ReuseDetail describes one extracted question that merged into an existing one.
type ReuseDetail struct {
	QuestionID      string
	Content         string
	Similarity      float64
	OccurrenceCount int
}

// UploadResult summarises a processed paper upload.
type UploadResult struct {
	PaperID     string
	Title       string
	TotalCount  int
	NewCount    int
	ReusedCount int

	// SkippedCount is the number of extracted questions dropped after a per-question failure.
	SkippedCount int

	Reused []ReuseDetail
}

// LeaderboardEntry is a question ranked by recurrence with its paper summary.
type LeaderboardEntry struct {
	Question Question
	Paper    PaperSummary
}
