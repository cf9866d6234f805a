package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/qplens/qplens/internal/adapters/driven/metadata"
	"github.com/qplens/qplens/internal/adapters/driving/watcher"
	"github.com/qplens/qplens/internal/core/domain"
	"github.com/qplens/qplens/internal/logger"
	"github.com/qplens/qplens/internal/normalisers"
)

var (
	paperMetaFile   string
	paperTitle      string
	paperCourse     string
	paperYear       int
	paperTerm       string
	paperUploadedBy string
	paperJSON       bool
)

var paperCmd = &cobra.Command{
	Use:   "paper",
	Short: "Upload and inspect question papers",
}

var paperUploadCmd = &cobra.Command{
	Use:   "upload <file>",
	Short: "Extract a paper's questions and merge them into the corpus",
	Long: `Extract the questions of a past paper and compare each one with every
question already recorded from other papers. A question close enough to an
existing one raises that question's occurrence count; anything else is stored
as a new question.

Paper metadata comes from, in order of preference:
  1. --meta file.yaml
  2. --title, --course, --year and --term
  3. a sidecar file next to the paper (exam.pdf -> exam.yaml)`,
	Example: `  qplens paper upload phy201-2023.pdf --title "Physics Final" --course PHY201 --year 2023 --term fall
  qplens paper upload phy201-2023.pdf --meta phy201-2023.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runPaperUpload,
}

var paperListCmd = &cobra.Command{
	Use:   "list",
	Short: "List uploaded papers, newest first",
	Args:  cobra.NoArgs,
	RunE:  runPaperList,
}

var paperGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show one paper",
	Args:  cobra.ExactArgs(1),
	RunE:  runPaperGet,
}

var paperWatchCmd = &cobra.Command{
	Use:   "watch <dir>",
	Short: "Upload papers as they appear in a directory",
	Long: `Watch a directory and upload every new paper dropped into it. Each paper
needs a sidecar metadata file with the same base name (exam.pdf -> exam.yaml):

  title: Physics Final
  course: PHY201
  year: 2023
  term: fall

A paper whose sidecar is missing is uploaded once the sidecar appears.
Each file is uploaded at most once per run. Stop with Ctrl+C.`,
	Args: cobra.ExactArgs(1),
	RunE: runPaperWatch,
}

func init() {
	paperUploadCmd.Flags().StringVarP(&paperMetaFile, "meta", "m", "", "YAML metadata file")
	paperUploadCmd.Flags().StringVar(&paperTitle, "title", "", "paper title")
	paperUploadCmd.Flags().StringVar(&paperCourse, "course", "", "course code")
	paperUploadCmd.Flags().IntVar(&paperYear, "year", 0, "exam year")
	paperUploadCmd.Flags().StringVar(&paperTerm, "term", "", "term: fall, spring, summer, winter, midterm or final")
	paperUploadCmd.Flags().StringVar(&paperUploadedBy, "uploaded-by", "", "uploader name")
	paperUploadCmd.Flags().BoolVar(&paperJSON, "json", false, "output the result as JSON")
	paperListCmd.Flags().BoolVar(&paperJSON, "json", false, "output papers as JSON")
	paperGetCmd.Flags().BoolVar(&paperJSON, "json", false, "output the paper as JSON")
	skipAI(paperListCmd)
	skipAI(paperGetCmd)

	paperCmd.AddCommand(paperUploadCmd)
	paperCmd.AddCommand(paperListCmd)
	paperCmd.AddCommand(paperGetCmd)
	paperCmd.AddCommand(paperWatchCmd)
	rootCmd.AddCommand(paperCmd)
}

func runPaperUpload(cmd *cobra.Command, args []string) error {
	if err := requireService(paperService != nil, "paper"); err != nil {
		return err
	}

	path := args[0]
	meta, err := resolvePaperMeta(cmd, path)
	if err != nil {
		return err
	}

	result, err := uploadPaper(cmd.Context(), path, *meta)
	if err != nil {
		return explain(err)
	}

	if paperJSON {
		return writeJSON(cmd, result)
	}
	printUploadResult(cmd, result)
	return nil
}

// resolvePaperMeta picks metadata from --meta, the flags or the sidecar.
func resolvePaperMeta(cmd *cobra.Command, path string) (*domain.PaperMeta, error) {
	var (
		meta *domain.PaperMeta
		err  error
	)

	flagsSet := cmd.Flags().Changed("title") || cmd.Flags().Changed("course") ||
		cmd.Flags().Changed("year") || cmd.Flags().Changed("term")

	switch {
	case paperMetaFile != "":
		meta, err = metadata.ReadFile(paperMetaFile)
	case flagsSet:
		meta = &domain.PaperMeta{Title: paperTitle, Course: paperCourse, Year: paperYear}
		if paperTerm != "" {
			var term domain.Term
			if term, err = domain.ParseTerm(paperTerm); err == nil {
				meta.Term = term
			}
		}
		if err == nil {
			err = meta.Validate()
		}
	case metadataReader != nil:
		meta, err = metadataReader.Read(path)
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("no metadata for %s: pass --meta, the --title/--course/--year/--term flags, or create %s",
				path, strings.TrimSuffix(path, filepath.Ext(path))+".yaml")
		}
	default:
		err = errors.New("no metadata given: pass --meta or --title/--course/--year/--term")
	}
	if err != nil {
		return nil, err
	}

	if paperUploadedBy != "" {
		meta.UploadedBy = paperUploadedBy
	}
	if meta.FileURI == "" {
		if abs, absErr := filepath.Abs(path); absErr == nil {
			meta.FileURI = abs
		} else {
			meta.FileURI = path
		}
	}
	return meta, nil
}

// uploadPaper extracts the file's text and runs the upload.
func uploadPaper(ctx context.Context, path string, meta domain.PaperMeta) (*domain.UploadResult, error) {
	doc, err := readDocument(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	result, err := paperService.ProcessUpload(ctx, doc.Content, meta)
	if err != nil {
		return nil, fmt.Errorf("upload failed: %w", err)
	}
	return result, nil
}

func printUploadResult(cmd *cobra.Command, r *domain.UploadResult) {
	cmd.Printf("Paper %s: %s\n", r.PaperID, r.Title)
	cmd.Printf("  Questions: %d (new %d, repeated %d", r.TotalCount, r.NewCount, r.ReusedCount)
	if r.SkippedCount > 0 {
		cmd.Printf(", skipped %d", r.SkippedCount)
	}
	cmd.Println(")")
	if r.TotalCount == 0 {
		cmd.Println("  No questions were extracted. Run with --verbose for details.")
	}
	for _, d := range r.Reused {
		cmd.Printf("  seen before (x%d, %.2f): %s\n", d.OccurrenceCount, d.Similarity, truncate(d.Content, questionMaxLen))
	}
}

func runPaperList(cmd *cobra.Command, _ []string) error {
	if err := requireService(paperService != nil, "paper"); err != nil {
		return err
	}

	papers, err := paperService.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list papers: %w", err)
	}

	if paperJSON {
		views := make([]paperView, 0, len(papers))
		for _, p := range papers {
			views = append(views, newPaperView(p))
		}
		return writeJSON(cmd, views)
	}

	if len(papers) == 0 {
		cmd.Println("No papers uploaded yet. Add one with 'qplens paper upload <file>'.")
		return nil
	}
	for _, p := range papers {
		cmd.Printf("%s  %-8s %d %-8s %-30s %d questions (%d new)\n",
			p.ID, p.Course, p.Year, p.Term, truncate(p.Title, 30), p.TotalCount, p.NewCount)
	}
	return nil
}

func runPaperGet(cmd *cobra.Command, args []string) error {
	if err := requireService(paperService != nil, "paper"); err != nil {
		return err
	}

	p, err := paperService.Get(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get paper: %w", err)
	}

	if paperJSON {
		return writeJSON(cmd, newPaperView(*p))
	}

	cmd.Printf("ID:        %s\n", p.ID)
	cmd.Printf("Title:     %s\n", p.Title)
	cmd.Printf("Course:    %s\n", p.Course)
	cmd.Printf("Sitting:   %s %d\n", p.Term, p.Year)
	if p.UploadedBy != "" {
		cmd.Printf("Uploader:  %s\n", p.UploadedBy)
	}
	if p.FileURI != "" {
		cmd.Printf("File:      %s\n", p.FileURI)
	}
	cmd.Printf("Pages:     ~%d (%d words)\n", p.PageCount, p.WordCount)
	cmd.Printf("Questions: %d (new %d, repeated %d)\n", p.TotalCount, p.NewCount, p.ReusedCount)
	cmd.Printf("Uploaded:  %s\n", p.CreatedAt.Format("2006-01-02 15:04"))
	return nil
}

func runPaperWatch(cmd *cobra.Command, args []string) error {
	if err := requireService(paperService != nil, "paper"); err != nil {
		return err
	}
	if metadataReader == nil {
		return errors.New("metadata reader not configured")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	w, err := watcher.New(func(path string) bool {
		return normalisers.SupportedExtension(path) || metadata.IsSidecar(path)
	})
	if err != nil {
		return err
	}
	defer w.Close()

	changes, err := w.Watch(ctx, args[0])
	if err != nil {
		return err
	}

	cmd.Printf("Watching %s for papers. Press Ctrl+C to stop.\n", args[0])

	uploaded := make(map[string]bool)
	for change := range changes {
		if change.Type == domain.ChangeDeleted {
			continue
		}
		paper := paperForChange(change.Path)
		if paper == "" || uploaded[paper] {
			continue
		}

		meta, err := metadataReader.Read(paper)
		if errors.Is(err, domain.ErrNotFound) {
			logger.Info("waiting for metadata of %s", paper)
			continue
		}
		if err != nil {
			cmd.PrintErrf("skipping %s: %v\n", paper, err)
			continue
		}

		uploaded[paper] = true
		result, err := uploadPaper(ctx, paper, *meta)
		if err != nil {
			cmd.PrintErrf("failed to upload %s: %v\n", paper, explain(err))
			continue
		}
		printUploadResult(cmd, result)
	}
	return nil
}

// paperForChange maps a changed file to the paper it belongs to.
// A sidecar maps to the paper file with the same base name, if one exists.
func paperForChange(path string) string {
	if !metadata.IsSidecar(path) {
		return path
	}
	base := strings.TrimSuffix(path, filepath.Ext(path))
	matches, err := filepath.Glob(base + ".*")
	if err != nil {
		return ""
	}
	for _, m := range matches {
		if m != path && normalisers.SupportedExtension(m) {
			return m
		}
	}
	return ""
}
