package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/qplens/qplens/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for qplens resources.
	uriScheme = "qplens://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "leaderboard",
		Name:        "leaderboard",
		Description: "The 50 most frequently recurring exam questions",
		MIMEType:    "application/json",
	}, s.handleLeaderboardResource)

	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "papers",
		Name:        "papers",
		Description: "All uploaded question papers, newest first",
		MIMEType:    "application/json",
	}, s.handlePapersResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "papers/{paperId}",
		Name:        "paper",
		Description: "One uploaded question paper with its question ids",
		MIMEType:    "application/json",
	}, s.handlePaperResource)
}

// paperInfo is the resource form of a paper.
type paperInfo struct {
	ID                string   `json:"id"`
	Title             string   `json:"title"`
	Course            string   `json:"course"`
	Year              int      `json:"year"`
	Term              string   `json:"term"`
	TotalCount        int      `json:"total_count"`
	NewCount          int      `json:"new_count"`
	ReusedCount       int      `json:"reused_count"`
	QuestionIDs       []string `json:"question_ids,omitempty"`
	ReusedQuestionIDs []string `json:"reused_question_ids,omitempty"`
	CreatedAt         string   `json:"created_at"`
}

func newPaperInfo(p domain.Paper, withQuestions bool) paperInfo {
	info := paperInfo{
		ID:          p.ID,
		Title:       p.Title,
		Course:      p.Course,
		Year:        p.Year,
		Term:        p.Term.String(),
		TotalCount:  p.TotalCount,
		NewCount:    p.NewCount,
		ReusedCount: p.ReusedCount,
		CreatedAt:   p.CreatedAt.Format(time.RFC3339),
	}
	if withQuestions {
		info.QuestionIDs = p.QuestionIDs
		info.ReusedQuestionIDs = p.ReusedQuestionIDs
	}
	return info
}

// handleLeaderboardResource returns the default leaderboard.
func (s *Server) handleLeaderboardResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	_, output, err := s.handleLeaderboard(ctx, nil, LeaderboardInput{})
	if err != nil {
		return nil, fmt.Errorf("loading leaderboard: %w", err)
	}
	return jsonResource(req.Params.URI, output.Entries)
}

// handlePapersResource returns a list of all papers.
func (s *Server) handlePapersResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	papers, err := s.ports.Papers.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing papers: %w", err)
	}

	infos := make([]paperInfo, len(papers))
	for i := range papers {
		infos[i] = newPaperInfo(papers[i], false)
	}
	return jsonResource(req.Params.URI, infos)
}

// handlePaperResource returns one paper.
func (s *Server) handlePaperResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	// Extract paperId from URI: qplens://papers/{paperId}
	paperID := extractPaperID(req.Params.URI)
	if paperID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	paper, err := s.ports.Papers.Get(ctx, paperID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	if err != nil {
		return nil, fmt.Errorf("getting paper: %w", err)
	}
	return jsonResource(req.Params.URI, newPaperInfo(*paper, true))
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling resource: %w", err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractPaperID extracts the paper ID from a URI like qplens://papers/{paperId}.
func extractPaperID(uri string) string {
	const prefix = uriScheme + "papers/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	id := strings.TrimPrefix(uri, prefix)
	if strings.Contains(id, "/") {
		return ""
	}
	return id
}
