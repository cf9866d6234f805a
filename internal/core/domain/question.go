package domain

import (
	"strings"
	"time"
)

// Difficulty grades a question.
type Difficulty string

// Available difficulty grades.
const (
	DifficultyEasy    Difficulty = "EASY"
	DifficultyMedium  Difficulty = "MEDIUM"
	DifficultyHard    Difficulty = "HARD"
	DifficultyUnknown Difficulty = "UNKNOWN"
)

// IsValid returns true if the difficulty is recognised.
func (d Difficulty) IsValid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard, DifficultyUnknown:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (d Difficulty) String() string {
	return string(d)
}

// Question is a recurring exam question.
//
// A question is created the first time it is seen with OccurrenceCount 1.
// Afterwards only the recurrence tracker touches it, and only to add one
// to OccurrenceCount. Questions are never deleted.
type Question struct {
	// ID is the unique identifier for the question.
	ID string

	// Content is the question text.
	Content string

	// Embedding is the vector representation used for deduplication.
	Embedding []float32

	// PaperID links to the Paper that first recorded this question.
	PaperID string

	// Number is the numeric question number on the paper (e.g. 3 for "3b").
	Number int

	// Identifier is the full label printed on the paper (e.g. "3b").
	Identifier string

	// OccurrenceCount is the number of distinct papers this question appeared in.
	OccurrenceCount int

	// Marks is the mark allocation, nil when the paper does not state one.
	Marks *float64

	// Difficulty grades the question.
	Difficulty Difficulty

	// Similar records near matches seen when the question was created.
	Similar []SimilarLink

	// WordCount is the number of whitespace-separated words in Content.
	WordCount int

	// Revision increases on every update and guards conditional writes.
	Revision int64

	// CreatedAt is when the question was first recorded.
	CreatedAt time.Time

	// UpdatedAt is when the question was last updated.
	UpdatedAt time.Time
}

// SimilarLink points at another question with the similarity recorded at link time.
type SimilarLink struct {
	QuestionID string
	Similarity float64
	PaperYear  int
	PaperTerm  Term
}

// ExtractedQuestion is one question pulled out of a paper's raw text by the extractor.
type ExtractedQuestion struct {
	Number     int
	Identifier string
	Content    string
	Marks      *float64
}

// Resolution is the outcome of comparing a new question against the corpus.
type Resolution struct {
	// Merged is true when an existing question absorbed the new one.
	Merged bool

	// Target is the question that was incremented. Nil unless Merged.
	Target *Question

	// Nearest is the most similar candidate even when below threshold.
	// Nil when no candidate has a positive similarity.
	Nearest *Question

	// Similarity is the best similarity found, 0 without a nearest candidate.
	Similarity float64
}

// CountWords returns the number of whitespace-separated words in s.
func CountWords(s string) int {
	return len(strings.Fields(s))
}
