package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/qplens/qplens/internal/core/domain"
	"github.com/qplens/qplens/internal/logger"
)

var (
	sessionID   string
	sessionTopK int
	sessionJSON bool
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage study sessions",
	Long: `A session groups the documents you index together. Questions answered
with --session are grounded only in that session's documents.`,
}

var sessionIndexCmd = &cobra.Command{
	Use:   "index <files...>",
	Short: "Index study documents into a session",
	Long: `Extract text from each file, split it into chunks, embed the chunks and
store them under a session. Without --session a new session is started and
its id is printed.

Supported formats: .pdf, .txt, .md, .docx`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSessionIndex,
}

var sessionQueryCmd = &cobra.Command{
	Use:   "query <session> <question>",
	Short: "Show the passages most relevant to a question",
	Args:  cobra.ExactArgs(2),
	RunE:  runSessionQuery,
}

var sessionDropCmd = &cobra.Command{
	Use:   "drop <session>",
	Short: "Delete every chunk of a session",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionDrop,
}

func init() {
	sessionIndexCmd.Flags().StringVar(&sessionID, "session", "", "session to add the documents to")
	sessionQueryCmd.Flags().IntVarP(&sessionTopK, "top", "k", domain.DefaultTopK, "number of passages to show")
	sessionQueryCmd.Flags().BoolVar(&sessionJSON, "json", false, "output passages as JSON")
	skipAI(sessionDropCmd)

	sessionCmd.AddCommand(sessionIndexCmd)
	sessionCmd.AddCommand(sessionQueryCmd)
	sessionCmd.AddCommand(sessionDropCmd)
	rootCmd.AddCommand(sessionCmd)
}

func runSessionIndex(cmd *cobra.Command, args []string) error {
	if err := requireService(retrievalService != nil, "retrieval"); err != nil {
		return err
	}

	ctx := cmd.Context()
	docs := make([]domain.Document, 0, len(args))
	for _, path := range args {
		doc, err := readDocument(ctx, path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		logger.Debug("read %s: %d bytes of text", path, len(doc.Content))
		docs = append(docs, *doc)
	}

	result, err := retrievalService.IndexDocuments(ctx, sessionID, docs)
	if err != nil {
		return explain(fmt.Errorf("indexing failed: %w", err))
	}

	cmd.Printf("Indexed %d document(s) into %d chunk(s).\n", result.DocumentCount, result.ChunkCount)
	cmd.Printf("Session: %s\n", result.SessionID)
	return nil
}

// passageView is the JSON form of a retrieved chunk.
type passageView struct {
	Score    float64 `json:"score"`
	Source   string  `json:"source"`
	Position int     `json:"position"`
	Text     string  `json:"text"`
}

func runSessionQuery(cmd *cobra.Command, args []string) error {
	if err := requireService(retrievalService != nil, "retrieval"); err != nil {
		return err
	}

	results, err := retrievalService.QueryText(cmd.Context(), args[0], args[1], sessionTopK)
	if err != nil {
		return explain(fmt.Errorf("query failed: %w", err))
	}

	if sessionJSON {
		views := make([]passageView, 0, len(results))
		for _, r := range results {
			views = append(views, passageView{
				Score:    r.Score,
				Source:   r.Chunk.SourceName,
				Position: r.Chunk.Position,
				Text:     r.Chunk.Text,
			})
		}
		return writeJSON(cmd, views)
	}

	if len(results) == 0 {
		cmd.Println("No passages found.")
		return nil
	}
	for i, r := range results {
		cmd.Printf("[%d] %s #%d (%.3f)\n", i+1, r.Chunk.SourceName, r.Chunk.Position, r.Score)
		cmd.Printf("    %s\n", truncate(r.Chunk.Text, snippetMaxLen))
	}
	return nil
}

func runSessionDrop(cmd *cobra.Command, args []string) error {
	if err := requireService(retrievalService != nil, "retrieval"); err != nil {
		return err
	}

	n, err := retrievalService.DropSession(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("drop failed: %w", err)
	}
	cmd.Printf("Removed %d chunk(s) from session %s.\n", n, args[0])
	return nil
}
