package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/qplens/qplens/internal/core/domain"
)

var (
	leaderboardLimit int
	leaderboardJSON  bool
)

var leaderboardCmd = &cobra.Command{
	Use:     "leaderboard",
	Aliases: []string{"top"},
	Short:   "Show the questions that recur most often",
	Long: `Rank recorded questions by how many papers they appeared in. Ties keep
the order in which the questions were first recorded.`,
	Args: cobra.NoArgs,
	RunE: runLeaderboard,
}

func init() {
	leaderboardCmd.Flags().IntVarP(&leaderboardLimit, "limit", "n", domain.DefaultLeaderboardLimit, "maximum number of questions")
	leaderboardCmd.Flags().BoolVar(&leaderboardJSON, "json", false, "output entries as JSON")
	skipAI(leaderboardCmd)
	rootCmd.AddCommand(leaderboardCmd)
}

// leaderboardView is the JSON form of a leaderboard entry.
type leaderboardView struct {
	Rank     int          `json:"rank"`
	Question questionView `json:"question"`
	Paper    struct {
		ID     string `json:"id"`
		Title  string `json:"title"`
		Course string `json:"course"`
		Year   int    `json:"year"`
		Term   string `json:"term"`
	} `json:"paper"`
}

func newLeaderboardViews(entries []domain.LeaderboardEntry) []leaderboardView {
	views := make([]leaderboardView, 0, len(entries))
	for i, e := range entries {
		v := leaderboardView{Rank: i + 1, Question: newQuestionView(e.Question)}
		v.Paper.ID = e.Paper.ID
		v.Paper.Title = e.Paper.Title
		v.Paper.Course = e.Paper.Course
		v.Paper.Year = e.Paper.Year
		v.Paper.Term = e.Paper.Term.String()
		views = append(views, v)
	}
	return views
}

func runLeaderboard(cmd *cobra.Command, _ []string) error {
	if err := requireService(leaderboardService != nil, "leaderboard"); err != nil {
		return err
	}

	entries, err := leaderboardService.Leaderboard(cmd.Context(), leaderboardLimit)
	if err != nil {
		return fmt.Errorf("failed to load leaderboard: %w", err)
	}

	if leaderboardJSON {
		return writeJSON(cmd, newLeaderboardViews(entries))
	}

	if len(entries) == 0 {
		cmd.Println("No questions recorded yet. Upload a paper with 'qplens paper upload <file>'.")
		return nil
	}

	cmd.Printf("%-4s %-5s %-22s %s\n", "#", "SEEN", "FIRST PAPER", "QUESTION")
	for i, e := range entries {
		cmd.Printf("%-4d %-5d %-22s %s\n", i+1, e.Question.OccurrenceCount,
			truncate(paperLabel(e.Paper), 22), truncate(e.Question.Content, questionMaxLen))
	}
	return nil
}

// paperLabel renders a paper summary as "PHY201 FALL 2023".
func paperLabel(p domain.PaperSummary) string {
	if p.Course == "" && p.Year == 0 {
		return p.ID
	}
	return fmt.Sprintf("%s %s %d", p.Course, p.Term, p.Year)
}
