// Package cli provides the qplens command line interface.
//
// Commands reach the core only through driving ports. The composition root
// (cmd/qplens) supplies a Bootstrap that builds those services once global
// flags are parsed; tests install services directly with SetServices.
package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/qplens/qplens/internal/core/domain"
	"github.com/qplens/qplens/internal/core/ports/driven"
	"github.com/qplens/qplens/internal/core/ports/driving"
	"github.com/qplens/qplens/internal/logger"
)

// skipAIAnnotation marks commands that never call an AI provider, so the
// bootstrap does not spend time connecting to one.
const skipAIAnnotation = "qplens/skip-ai"

// Options are the global settings a Bootstrap builds services from.
type Options struct {
	// DataDir holds the SQLite database. Empty means ~/.qplens/data.
	DataDir string

	// ConfigDir holds config.toml and prompts/. Empty means ~/.qplens.
	ConfigDir string

	// Ephemeral keeps all data in memory for the lifetime of the process.
	Ephemeral bool

	// SkipAI leaves the embedding and LLM services unset.
	SkipAI bool
}

// Services are the ports the commands drive.
type Services struct {
	Retrieval   driving.RetrievalService
	Answer      driving.AnswerService
	Papers      driving.PaperService
	Leaderboard driving.LeaderboardService
	Settings    driving.SettingsService

	// Normalisers turns files into text.
	Normalisers driven.NormaliserRegistry

	// Metadata reads paper sidecar files.
	Metadata driven.MetadataReader

	// Warnings explain services that could not be created.
	Warnings []string
}

// Bootstrap builds services from options. The returned func releases them.
type Bootstrap func(ctx context.Context, opts Options) (*Services, func(), error)

var (
	version   = "dev"
	bootstrap Bootstrap

	verbose   bool
	dataDir   string
	configDir string
	ephemeral bool

	// Active services, set by the bootstrap or by SetServices.
	retrievalService   driving.RetrievalService
	answerService      driving.AnswerService
	paperService       driving.PaperService
	leaderboardService driving.LeaderboardService
	settingsService    driving.SettingsService
	normaliserRegistry driven.NormaliserRegistry
	metadataReader     driven.MetadataReader
	serviceWarnings    []string

	servicesReady bool
	cleanup       func()
)

var rootCmd = &cobra.Command{
	Use:   "qplens",
	Short: "Exam preparation from your own notes and past papers",
	Long: `qplens indexes study documents per session to answer questions from them,
and tracks which exam questions keep coming back across uploaded papers.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: teardown,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "database directory (default ~/.qplens/data)")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "configuration directory (default ~/.qplens)")
	rootCmd.PersistentFlags().BoolVar(&ephemeral, "ephemeral", false, "keep all data in memory for this run only")
}

// SetVersion sets the version printed by `qplens version`.
func SetVersion(v string) {
	version = v
}

// SetBootstrap installs the function that builds services before a command runs.
func SetBootstrap(b Bootstrap) {
	bootstrap = b
}

// SetServices installs ready-made services. The bootstrap is then skipped.
func SetServices(s *Services) {
	if s == nil {
		retrievalService, answerService, paperService = nil, nil, nil
		leaderboardService, settingsService = nil, nil
		normaliserRegistry, metadataReader, serviceWarnings = nil, nil, nil
		servicesReady = false
		return
	}
	retrievalService = s.Retrieval
	answerService = s.Answer
	paperService = s.Papers
	leaderboardService = s.Leaderboard
	settingsService = s.Settings
	normaliserRegistry = s.Normalisers
	metadataReader = s.Metadata
	serviceWarnings = s.Warnings
	servicesReady = true
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	defer logger.Sync()
	return rootCmd.ExecuteContext(ctx)
}

func setup(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)
	logger.SetOutput(cmd.ErrOrStderr())

	// API keys may live in a .env file in the working directory.
	if err := godotenv.Load(); err == nil {
		logger.Debug("loaded .env")
	}

	if servicesReady || bootstrap == nil {
		return nil
	}

	opts := Options{
		DataDir:   dataDir,
		ConfigDir: configDir,
		Ephemeral: ephemeral,
		SkipAI:    skipsAI(cmd),
	}
	logger.Section("Bootstrap")
	logger.Debug("data dir %q, config dir %q, ephemeral %v, skip ai %v",
		opts.DataDir, opts.ConfigDir, opts.Ephemeral, opts.SkipAI)

	s, release, err := bootstrap(cmd.Context(), opts)
	if err != nil {
		return fmt.Errorf("initialise: %w", err)
	}
	SetServices(s)
	cleanup = release
	for _, w := range s.Warnings {
		logger.Debug("warning: %s", w)
	}
	return nil
}

func teardown(_ *cobra.Command, _ []string) {
	if cleanup != nil {
		cleanup()
		cleanup = nil
		SetServices(nil)
	}
}

// skipAI marks cmd as not needing AI providers.
func skipAI(cmd *cobra.Command) {
	if cmd.Annotations == nil {
		cmd.Annotations = map[string]string{}
	}
	cmd.Annotations[skipAIAnnotation] = "true"
}

// skipsAI reports whether cmd or one of its parents was marked with skipAI.
func skipsAI(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations[skipAIAnnotation] == "true" {
			return true
		}
	}
	return false
}

// explain adds configuration hints to provider availability errors.
func explain(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrEmbeddingUnavailable) || errors.Is(err, domain.ErrLLMUnavailable) {
		for _, w := range serviceWarnings {
			err = fmt.Errorf("%w\n  - %s", err, w)
		}
	}
	return err
}

// requireService returns an error when a command's service is missing.
func requireService(ok bool, name string) error {
	if !ok {
		return fmt.Errorf("%s service not configured", name)
	}
	return nil
}
