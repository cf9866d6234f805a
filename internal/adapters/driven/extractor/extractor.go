// Package extractor provides a QuestionExtractor that asks an LLM to split
// a question paper into individual questions.
package extractor

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/qplens/qplens/internal/core/domain"
	"github.com/qplens/qplens/internal/core/ports/driven"
	"github.com/qplens/qplens/internal/logger"
)

// Ensure LLMExtractor implements the interfaces.
var (
	_ driven.QuestionExtractor = (*LLMExtractor)(nil)
	_ driven.PromptStoreAware  = (*LLMExtractor)(nil)
)

// defaultPrompt is used when no prompt store is configured or the stored
// template does not have exactly one %s.
const defaultPrompt = `You are an expert at analysing exam question papers.
Identify and extract every question from the text below.

Respond with a valid JSON array of objects with the fields:
- number: numerical question number
- identifier: the full question identifier (e.g. "1a", "Question 2")
- content: the full text of the question
- marks: number of marks (null if not mentioned)

Here's the text:
%s`

// jsonArray finds the outermost JSON array in a reply that may carry prose
// or code fences around it.
var jsonArray = regexp.MustCompile(`(?s)\[.*\]`)

// LLMExtractor extracts questions with a single generation call.
type LLMExtractor struct {
	llm         driven.LLMService
	promptStore driven.PromptStore
}

// New creates an extractor backed by llm.
func New(llm driven.LLMService) *LLMExtractor {
	return &LLMExtractor{llm: llm}
}

// SetPromptStore sets the prompt store for loading the extraction prompt.
func (e *LLMExtractor) SetPromptStore(store driven.PromptStore) {
	e.promptStore = store
}

// rawQuestion tolerates the loose typing LLMs produce: numbers may come back
// as strings and marks as "7M".
type rawQuestion struct {
	Number     any    `json:"number"`
	Identifier any    `json:"identifier"`
	Content    string `json:"content"`
	Marks      any    `json:"marks"`
}

// Extract returns the questions found in rawText, in paper order.
func (e *LLMExtractor) Extract(ctx context.Context, rawText string) ([]domain.ExtractedQuestion, error) {
	if e.llm == nil {
		return nil, domain.ErrLLMUnavailable
	}

	prompt := fmt.Sprintf(e.loadPrompt(), rawText)
	reply, err := e.llm.Generate(ctx, prompt, driven.GenerateOptions{Temperature: 0.1})
	if err != nil {
		return nil, fmt.Errorf("%w: extract questions: %w", domain.ErrProvider, err)
	}

	return ParseReply(reply)
}

// ParseReply decodes the JSON array embedded in an LLM reply.
func ParseReply(reply string) ([]domain.ExtractedQuestion, error) {
	match := jsonArray.FindString(reply)
	if match == "" {
		return nil, fmt.Errorf("%w: no JSON array in extraction reply", domain.ErrProvider)
	}

	var raw []rawQuestion
	if err := json.Unmarshal([]byte(match), &raw); err != nil {
		return nil, fmt.Errorf("%w: decode extraction reply: %w", domain.ErrProvider, err)
	}

	questions := make([]domain.ExtractedQuestion, 0, len(raw))
	for _, r := range raw {
		questions = append(questions, domain.ExtractedQuestion{
			Number:     toInt(r.Number),
			Identifier: toString(r.Identifier),
			Content:    strings.TrimSpace(r.Content),
			Marks:      toMarks(r.Marks),
		})
	}
	return questions, nil
}

func (e *LLMExtractor) loadPrompt() string {
	if e.promptStore == nil {
		return defaultPrompt
	}
	tmpl, err := e.promptStore.Load(driven.PromptExtractQuestions)
	if err != nil || strings.Count(tmpl, "%s") != 1 {
		logger.Debug("Using built-in extraction prompt: %v", err)
		return defaultPrompt
	}
	return tmpl
}

func toInt(v any) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case string:
		i, _ := strconv.Atoi(leadingNumber(n))
		return i
	default:
		return 0
	}
}

func toString(v any) string {
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s)
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	default:
		return ""
	}
}

func toMarks(v any) *float64 {
	switch m := v.(type) {
	case float64:
		return &m
	case string:
		f, err := strconv.ParseFloat(leadingNumber(m), 64)
		if err != nil {
			return nil
		}
		return &f
	default:
		return nil
	}
}

// leadingNumber returns the numeric prefix of s, so "7M" yields "7".
func leadingNumber(s string) string {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) && (s[end] >= '0' && s[end] <= '9' || s[end] == '.') {
		end++
	}
	return s[:end]
}
