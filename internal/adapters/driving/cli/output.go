package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/qplens/qplens/internal/core/domain"
	"github.com/qplens/qplens/internal/normalisers"
)

// Truncation widths for table output.
const (
	snippetMaxLen  = 120
	questionMaxLen = 70
)

// writeJSON prints v as indented JSON to the command's output.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return nil
}

// readDocument loads a file from disk and extracts its text.
func readDocument(ctx context.Context, path string) (*domain.Document, error) {
	if normaliserRegistry == nil {
		return nil, fmt.Errorf("document reader not configured")
	}
	raw, err := normalisers.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return normaliserRegistry.Normalise(ctx, raw)
}

// truncate shortens s to at most n runes on one line.
func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n-3]) + "..."
}

// questionView is the JSON form of a question. Embeddings are left out.
type questionView struct {
	ID              string   `json:"id"`
	Content         string   `json:"content"`
	PaperID         string   `json:"paper_id"`
	Number          int      `json:"number,omitempty"`
	Identifier      string   `json:"identifier,omitempty"`
	OccurrenceCount int      `json:"occurrence_count"`
	Marks           *float64 `json:"marks,omitempty"`
	Difficulty      string   `json:"difficulty"`
	WordCount       int      `json:"word_count"`
}

func newQuestionView(q domain.Question) questionView {
	return questionView{
		ID:              q.ID,
		Content:         q.Content,
		PaperID:         q.PaperID,
		Number:          q.Number,
		Identifier:      q.Identifier,
		OccurrenceCount: q.OccurrenceCount,
		Marks:           q.Marks,
		Difficulty:      q.Difficulty.String(),
		WordCount:       q.WordCount,
	}
}

// paperView is the JSON form of a paper.
type paperView struct {
	ID                string   `json:"id"`
	Title             string   `json:"title"`
	Course            string   `json:"course"`
	Year              int      `json:"year"`
	Term              string   `json:"term"`
	UploadedBy        string   `json:"uploaded_by,omitempty"`
	FileURI           string   `json:"file_uri,omitempty"`
	TotalCount        int      `json:"total_count"`
	NewCount          int      `json:"new_count"`
	ReusedCount       int      `json:"reused_count"`
	QuestionIDs       []string `json:"question_ids"`
	ReusedQuestionIDs []string `json:"reused_question_ids"`
	PageCount         int      `json:"page_count"`
	WordCount         int      `json:"word_count"`
	CreatedAt         string   `json:"created_at"`
}

func newPaperView(p domain.Paper) paperView {
	return paperView{
		ID:                p.ID,
		Title:             p.Title,
		Course:            p.Course,
		Year:              p.Year,
		Term:              p.Term.String(),
		UploadedBy:        p.UploadedBy,
		FileURI:           p.FileURI,
		TotalCount:        p.TotalCount,
		NewCount:          p.NewCount,
		ReusedCount:       p.ReusedCount,
		QuestionIDs:       nonNil(p.QuestionIDs),
		ReusedQuestionIDs: nonNil(p.ReusedQuestionIDs),
		PageCount:         p.PageCount,
		WordCount:         p.WordCount,
		CreatedAt:         p.CreatedAt.Format(time.RFC3339),
	}
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
