package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/qplens/qplens/internal/core/domain"
)

var (
	answerSession string
	answerFile    string
	answerOut     string
)

var answerCmd = &cobra.Command{
	Use:   "answer [questions...]",
	Short: "Answer questions from a session's documents",
	Long: `Answer each question using the passages of a session that match it best.
Questions come from the arguments and from --file (one per line; blank lines
and lines starting with # are ignored). Answers are printed as markdown, or
written to --out.

Questions are answered one at a time, in order. By default the batch stops at
the first failure; set engine.answer_failure_policy to "continue" to keep going.`,
	Example: `  qplens answer --session 3f2c... "What is entropy?" "State Hooke's law"
  qplens answer --session 3f2c... --file questions.txt --out answers.md`,
	RunE: runAnswer,
}

func init() {
	answerCmd.Flags().StringVarP(&answerSession, "session", "s", "", "session to answer from (required)")
	answerCmd.Flags().StringVarP(&answerFile, "file", "f", "", "file with one question per line")
	answerCmd.Flags().StringVarP(&answerOut, "out", "o", "", "write the markdown answers to this file")
	_ = answerCmd.MarkFlagRequired("session")
	rootCmd.AddCommand(answerCmd)
}

func runAnswer(cmd *cobra.Command, args []string) error {
	if err := requireService(answerService != nil, "answer"); err != nil {
		return err
	}

	queries := append([]string{}, args...)
	if answerFile != "" {
		fromFile, err := readQuestions(answerFile)
		if err != nil {
			return err
		}
		queries = append(queries, fromFile...)
	}
	if len(queries) == 0 {
		return errors.New("no questions given: pass them as arguments or with --file")
	}

	answers, batchErr := answerService.AnswerQueries(cmd.Context(), answerSession, queries)
	if len(answers) > 0 {
		if err := writeAnswers(cmd, answers); err != nil {
			return err
		}
	}
	if batchErr != nil {
		return explain(fmt.Errorf("answered %d of %d question(s): %w", countAnswered(answers), len(queries), batchErr))
	}
	if failed := len(answers) - countAnswered(answers); failed > 0 {
		cmd.PrintErrf("%d question(s) could not be answered.\n", failed)
	}
	return nil
}

// readQuestions reads one question per non-empty, non-comment line.
func readQuestions(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open questions file: %w", err)
	}
	defer f.Close()

	var questions []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		questions = append(questions, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read questions file: %w", err)
	}
	return questions, nil
}

func writeAnswers(cmd *cobra.Command, answers []domain.Answer) error {
	md := domain.RenderMarkdown(answers) + "\n"
	if answerOut == "" {
		cmd.Print(md)
		return nil
	}
	if err := os.WriteFile(answerOut, []byte(md), 0o600); err != nil {
		return fmt.Errorf("failed to write answers: %w", err)
	}
	cmd.Printf("Wrote %d answer(s) to %s\n", len(answers), answerOut)
	return nil
}

func countAnswered(answers []domain.Answer) int {
	n := 0
	for _, a := range answers {
		if !a.Failed() {
			n++
		}
	}
	return n
}
