package mcp

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qplens/qplens/internal/core/domain"
)

// Helper to create a ReadResourceRequest with the given URI.
func makeReadResourceRequest(uri string) *mcp.ReadResourceRequest {
	return &mcp.ReadResourceRequest{
		Params: &mcp.ReadResourceParams{
			URI: uri,
		},
	}
}

func TestExtractPaperID(t *testing.T) {
	tests := []struct {
		name     string
		uri      string
		expected string
	}{
		{"valid paper URI", "qplens://papers/p-123", "p-123"},
		{"invalid prefix", "file://papers/p-123", ""},
		{"nested path", "qplens://papers/p-123/questions", ""},
		{"empty URI", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, extractPaperID(tt.uri))
		})
	}
}

func TestServer_handlePapersResource(t *testing.T) {
	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	papers := &mockPaperService{papers: []domain.Paper{
		{ID: "p1", Title: "Physics Final", Course: "PHY201", Year: 2023, Term: domain.TermFall, TotalCount: 10, QuestionIDs: []string{"q1"}, CreatedAt: created},
	}}
	server := newTestServer(t, &Ports{Papers: papers})

	result, err := server.handlePapersResource(context.Background(), makeReadResourceRequest("qplens://papers"))
	require.NoError(t, err)
	require.Len(t, result.Contents, 1)
	assert.Equal(t, "application/json", result.Contents[0].MIMEType)

	var infos []paperInfo
	require.NoError(t, json.Unmarshal([]byte(result.Contents[0].Text), &infos))
	require.Len(t, infos, 1)
	assert.Equal(t, "p1", infos[0].ID)
	assert.Equal(t, "FALL", infos[0].Term)
	assert.Nil(t, infos[0].QuestionIDs)
	assert.Equal(t, "2024-05-01T10:00:00Z", infos[0].CreatedAt)
}

func TestServer_handlePaperResource(t *testing.T) {
	ctx := context.Background()

	t.Run("returns paper with question ids", func(t *testing.T) {
		papers := &mockPaperService{paper: &domain.Paper{ID: "p1", QuestionIDs: []string{"q1", "q2"}, ReusedQuestionIDs: []string{"q0"}}}
		server := newTestServer(t, &Ports{Papers: papers})

		result, err := server.handlePaperResource(ctx, makeReadResourceRequest("qplens://papers/p1"))
		require.NoError(t, err)

		var info paperInfo
		require.NoError(t, json.Unmarshal([]byte(result.Contents[0].Text), &info))
		assert.Equal(t, []string{"q1", "q2"}, info.QuestionIDs)
		assert.Equal(t, []string{"q0"}, info.ReusedQuestionIDs)
	})

	t.Run("unknown paper", func(t *testing.T) {
		server := newTestServer(t, &Ports{Papers: &mockPaperService{err: domain.ErrNotFound}})
		_, err := server.handlePaperResource(ctx, makeReadResourceRequest("qplens://papers/missing"))
		assert.Error(t, err)
	})

	t.Run("malformed uri", func(t *testing.T) {
		server := newTestServer(t, &Ports{})
		_, err := server.handlePaperResource(ctx, makeReadResourceRequest("qplens://papers/"))
		assert.Error(t, err)
	})
}

func TestServer_handleLeaderboardResource(t *testing.T) {
	lb := &mockLeaderboardService{entries: []domain.LeaderboardEntry{
		{Question: domain.Question{ID: "q1", Content: "Define force.", OccurrenceCount: 3}},
	}}
	server := newTestServer(t, &Ports{Leaderboard: lb})

	result, err := server.handleLeaderboardResource(context.Background(), makeReadResourceRequest("qplens://leaderboard"))
	require.NoError(t, err)

	var entries []LeaderboardEntryOutput
	require.NoError(t, json.Unmarshal([]byte(result.Contents[0].Text), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, 3, entries[0].OccurrenceCount)
}
