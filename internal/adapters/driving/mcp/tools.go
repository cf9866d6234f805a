package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/qplens/qplens/internal/core/domain"
	"github.com/qplens/qplens/internal/normalisers"
)

// AnswerInput is the input schema for the answer_questions tool.
type AnswerInput struct {
	SessionID string   `json:"session_id" jsonschema:"the session whose documents ground the answers"`
	Questions []string `json:"questions" jsonschema:"questions to answer, in order"`
}

// AnswerOutput is the output schema for the answer_questions tool.
type AnswerOutput struct {
	Answers  []AnswerResult `json:"answers"`
	Markdown string         `json:"markdown"`
	Error    string         `json:"error,omitempty"`
}

// AnswerResult is one answered question.
type AnswerResult struct {
	Question string          `json:"question"`
	Answer   string          `json:"answer,omitempty"`
	Sources  []PassageOutput `json:"sources,omitempty"`
	Error    string          `json:"error,omitempty"`
}

// PassageOutput is a retrieved chunk.
type PassageOutput struct {
	Source   string  `json:"source"`
	Position int     `json:"position"`
	Score    float64 `json:"score"`
	Text     string  `json:"text"`
}

// LeaderboardInput is the input schema for the leaderboard tool.
type LeaderboardInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"maximum number of questions to return (default 50)"`
}

// LeaderboardOutput is the output schema for the leaderboard tool.
type LeaderboardOutput struct {
	Entries []LeaderboardEntryOutput `json:"entries"`
	Count   int                      `json:"count"`
}

// LeaderboardEntryOutput is one ranked question.
type LeaderboardEntryOutput struct {
	Rank            int    `json:"rank"`
	QuestionID      string `json:"question_id"`
	Content         string `json:"content"`
	OccurrenceCount int    `json:"occurrence_count"`
	PaperID         string `json:"paper_id"`
	PaperTitle      string `json:"paper_title,omitempty"`
	Course          string `json:"course,omitempty"`
	Year            int    `json:"year,omitempty"`
	Term            string `json:"term,omitempty"`
}

// ProcessPaperInput is the input schema for the process_paper tool.
type ProcessPaperInput struct {
	Text       string `json:"text,omitempty" jsonschema:"the full text of the paper; alternative to path"`
	Path       string `json:"path,omitempty" jsonschema:"local file path of the paper (.pdf, .txt, .md, .docx)"`
	Title      string `json:"title" jsonschema:"paper title"`
	Course     string `json:"course" jsonschema:"course code"`
	Year       int    `json:"year" jsonschema:"exam year"`
	Term       string `json:"term" jsonschema:"one of FALL, SPRING, SUMMER, WINTER, MIDTERM, FINAL"`
	UploadedBy string `json:"uploaded_by,omitempty" jsonschema:"uploader name"`
}

// ProcessPaperOutput is the output schema for the process_paper tool.
type ProcessPaperOutput struct {
	PaperID      string              `json:"paper_id"`
	TotalCount   int                 `json:"total_count"`
	NewCount     int                 `json:"new_count"`
	ReusedCount  int                 `json:"reused_count"`
	SkippedCount int                 `json:"skipped_count"`
	Reused       []ReuseDetailOutput `json:"reused,omitempty"`
}

// ReuseDetailOutput describes a question that was seen before.
type ReuseDetailOutput struct {
	QuestionID      string  `json:"question_id"`
	Content         string  `json:"content"`
	Similarity      float64 `json:"similarity"`
	OccurrenceCount int     `json:"occurrence_count"`
}

// IndexTextInput is the input schema for the index_text tool.
type IndexTextInput struct {
	SessionID string `json:"session_id,omitempty" jsonschema:"session to add to; empty starts a new session"`
	Name      string `json:"name" jsonschema:"display name of the document"`
	Text      string `json:"text" jsonschema:"document text"`
}

// IndexTextOutput is the output schema for the index_text tool.
type IndexTextOutput struct {
	SessionID  string `json:"session_id"`
	ChunkCount int    `json:"chunk_count"`
}

// QuerySessionInput is the input schema for the query_session tool.
type QuerySessionInput struct {
	SessionID string `json:"session_id" jsonschema:"the session to search"`
	Query     string `json:"query" jsonschema:"the text to find passages for"`
	K         int    `json:"k,omitempty" jsonschema:"number of passages (default 3)"`
}

// QuerySessionOutput is the output schema for the query_session tool.
type QuerySessionOutput struct {
	Passages []PassageOutput `json:"passages"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "answer_questions",
		Description: "Answer questions, in order, from the documents indexed in a study session",
	}, s.handleAnswer)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "leaderboard",
		Description: "List exam questions ranked by how many papers they appeared in",
	}, s.handleLeaderboard)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "process_paper",
		Description: "Upload a past exam paper: extract its questions and count the ones seen before",
	}, s.handleProcessPaper)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "index_text",
		Description: "Index a study document into a session for later answers",
	}, s.handleIndexText)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "query_session",
		Description: "Find the passages of a session most relevant to a text",
	}, s.handleQuerySession)
}

// handleAnswer handles the answer_questions tool invocation.
// A batch that stops early still returns the answers produced before the failure.
func (s *Server) handleAnswer(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AnswerInput,
) (*mcp.CallToolResult, AnswerOutput, error) {
	if s.ports.Answer == nil {
		return nil, AnswerOutput{}, fmt.Errorf("answer_questions: %w", errServiceUnavailable)
	}

	answers, err := s.ports.Answer.AnswerQueries(ctx, input.SessionID, input.Questions)
	if err != nil && len(answers) == 0 {
		return nil, AnswerOutput{}, err
	}

	output := AnswerOutput{
		Answers:  make([]AnswerResult, len(answers)),
		Markdown: domain.RenderMarkdown(answers),
	}
	if err != nil {
		output.Error = err.Error()
	}
	for i, a := range answers {
		output.Answers[i] = AnswerResult{
			Question: a.Query,
			Answer:   a.Text,
			Sources:  passages(a.Sources),
		}
		if a.Err != nil {
			output.Answers[i].Error = a.Err.Error()
		}
	}
	return nil, output, nil
}

// handleLeaderboard handles the leaderboard tool invocation.
func (s *Server) handleLeaderboard(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input LeaderboardInput,
) (*mcp.CallToolResult, LeaderboardOutput, error) {
	entries, err := s.ports.Leaderboard.Leaderboard(ctx, input.Limit)
	if err != nil {
		return nil, LeaderboardOutput{}, err
	}

	output := LeaderboardOutput{
		Entries: make([]LeaderboardEntryOutput, len(entries)),
		Count:   len(entries),
	}
	for i, e := range entries {
		output.Entries[i] = LeaderboardEntryOutput{
			Rank:            i + 1,
			QuestionID:      e.Question.ID,
			Content:         e.Question.Content,
			OccurrenceCount: e.Question.OccurrenceCount,
			PaperID:         e.Paper.ID,
			PaperTitle:      e.Paper.Title,
			Course:          e.Paper.Course,
			Year:            e.Paper.Year,
			Term:            e.Paper.Term.String(),
		}
	}
	return nil, output, nil
}

// handleProcessPaper handles the process_paper tool invocation.
func (s *Server) handleProcessPaper(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ProcessPaperInput,
) (*mcp.CallToolResult, ProcessPaperOutput, error) {
	term, err := domain.ParseTerm(input.Term)
	if err != nil {
		return nil, ProcessPaperOutput{}, err
	}
	meta := domain.PaperMeta{
		Title:      input.Title,
		Course:     input.Course,
		Year:       input.Year,
		Term:       term,
		UploadedBy: input.UploadedBy,
		FileURI:    input.Path,
	}

	text, err := s.paperText(ctx, input)
	if err != nil {
		return nil, ProcessPaperOutput{}, err
	}

	result, err := s.ports.Papers.ProcessUpload(ctx, text, meta)
	if err != nil {
		return nil, ProcessPaperOutput{}, err
	}

	output := ProcessPaperOutput{
		PaperID:      result.PaperID,
		TotalCount:   result.TotalCount,
		NewCount:     result.NewCount,
		ReusedCount:  result.ReusedCount,
		SkippedCount: result.SkippedCount,
	}
	for _, d := range result.Reused {
		output.Reused = append(output.Reused, ReuseDetailOutput{
			QuestionID:      d.QuestionID,
			Content:         d.Content,
			Similarity:      d.Similarity,
			OccurrenceCount: d.OccurrenceCount,
		})
	}
	return nil, output, nil
}

// paperText returns the inline text or reads it from the given path.
func (s *Server) paperText(ctx context.Context, input ProcessPaperInput) (string, error) {
	if strings.TrimSpace(input.Text) != "" {
		return input.Text, nil
	}
	if input.Path == "" {
		return "", fmt.Errorf("%w: either text or path is required", domain.ErrInvalidInput)
	}
	if s.ports.Normalisers == nil {
		return "", fmt.Errorf("reading files: %w", errServiceUnavailable)
	}

	raw, err := normalisers.ReadFile(input.Path)
	if err != nil {
		return "", err
	}
	doc, err := s.ports.Normalisers.Normalise(ctx, raw)
	if err != nil {
		return "", err
	}
	return doc.Content, nil
}

// handleIndexText handles the index_text tool invocation.
func (s *Server) handleIndexText(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input IndexTextInput,
) (*mcp.CallToolResult, IndexTextOutput, error) {
	if s.ports.Retrieval == nil {
		return nil, IndexTextOutput{}, fmt.Errorf("index_text: %w", errServiceUnavailable)
	}

	name := input.Name
	if name == "" {
		name = "document"
	}
	result, err := s.ports.Retrieval.IndexDocuments(ctx, input.SessionID, []domain.Document{{Name: name, Content: input.Text}})
	if err != nil {
		return nil, IndexTextOutput{}, err
	}
	return nil, IndexTextOutput{SessionID: result.SessionID, ChunkCount: result.ChunkCount}, nil
}

// handleQuerySession handles the query_session tool invocation.
func (s *Server) handleQuerySession(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input QuerySessionInput,
) (*mcp.CallToolResult, QuerySessionOutput, error) {
	if s.ports.Retrieval == nil {
		return nil, QuerySessionOutput{}, fmt.Errorf("query_session: %w", errServiceUnavailable)
	}

	k := input.K
	if k <= 0 {
		k = domain.DefaultTopK
	}
	results, err := s.ports.Retrieval.QueryText(ctx, input.SessionID, input.Query, k)
	if err != nil {
		return nil, QuerySessionOutput{}, err
	}
	return nil, QuerySessionOutput{Passages: passages(results)}, nil
}

func passages(chunks []domain.ScoredChunk) []PassageOutput {
	out := make([]PassageOutput, len(chunks))
	for i, c := range chunks {
		out[i] = PassageOutput{
			Source:   c.Chunk.SourceName,
			Position: c.Chunk.Position,
			Score:    c.Score,
			Text:     c.Chunk.Text,
		}
	}
	return out
}
