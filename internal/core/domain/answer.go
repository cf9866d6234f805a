package domain

import (
	"fmt"
	"strings"
)

// Answer is the generated response to one query of a batch.
type Answer struct {
	// Query is the question as submitted.
	Query string

	// Text is the generated answer. Empty when Err is set.
	Text string

	// Sources are the chunks the answer was grounded on, best first.
	Sources []ScoredChunk

	// Err holds the failure for this query when the batch continues past failures.
	Err error
}

// Failed returns true if the answer could not be generated.
func (a Answer) Failed() bool {
	return a.Err != nil
}

// RenderMarkdown formats answers as a markdown document, one section per query.
// Queries without a trailing question mark get one appended.
func RenderMarkdown(answers []Answer) string {
	sections := make([]string, 0, len(answers))
	for i, a := range answers {
		q := strings.TrimSpace(a.Query)
		if !strings.HasSuffix(q, "?") {
			q += "?"
		}
		body := a.Text
		if a.Err != nil {
			body = fmt.Sprintf("_Failed to generate an answer: %v_", a.Err)
		}
		sections = append(sections, fmt.Sprintf("**Q%d.** %s\n\n**Answer:**\n\n%s", i+1, q, body))
	}
	return strings.Join(sections, "\n\n---\n\n")
}
