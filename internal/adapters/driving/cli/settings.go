package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/qplens/qplens/internal/core/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and change engine tunables and AI providers.

Settings live in ~/.qplens/config.toml (or --config-dir). Use 'settings set'
for single values or 'settings wizard' to configure providers interactively.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change one setting",
	Long: `Change one setting by its key. Values are validated before they are saved.

Keys:
  engine.similarity_threshold    cosine similarity in [0, 1] (default 0.8)
  engine.top_k                   passages used per answer (default 3)
  engine.chunk_size              characters per chunk (default 1000)
  engine.generation_interval_ms  minimum gap between answers (default 2000)
  engine.answer_failure_policy   abort or continue (default abort)
  embedding.provider             ollama or openai
  embedding.model | embedding.base_url | embedding.api_key
  llm.provider                   ollama, openai or anthropic
  llm.model | llm.base_url | llm.api_key`,
	Example: `  qplens settings set engine.similarity_threshold 0.85
  qplens settings set llm.provider anthropic`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

var settingsWizardCmd = &cobra.Command{
	Use:   "wizard",
	Short: "Interactive setup wizard",
	Long:  `Configure the embedding and LLM providers step by step.`,
	RunE:  runSettingsWizard,
}

var settingsEmbeddingCmd = &cobra.Command{
	Use:   "embedding",
	Short: "Configure embedding provider",
	Long:  `Configure the embedding provider used for indexing, retrieval and question matching.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runProviderStep(cmd, embeddingStep)
	},
}

var settingsLLMCmd = &cobra.Command{
	Use:   "llm",
	Short: "Configure LLM provider",
	Long:  `Configure the LLM provider used to answer questions and extract them from papers.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runProviderStep(cmd, llmStep)
	},
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd, settingsSetCmd, settingsWizardCmd, settingsEmbeddingCmd, settingsLLMCmd)
	skipAI(settingsCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if err := requireService(settingsService != nil, "settings"); err != nil {
		return err
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	out := cmd.OutOrStdout()
	e := settings.Engine
	fmt.Fprintln(out, "[Engine]")
	fmt.Fprintf(out, "  Similarity threshold: %.2f\n", e.SimilarityThreshold)
	fmt.Fprintf(out, "  Top K: %d\n", e.TopK)
	fmt.Fprintf(out, "  Chunk size: %d\n", e.ChunkSize)
	fmt.Fprintf(out, "  Generation interval: %s\n", e.GenerationInterval)
	fmt.Fprintf(out, "  Answer failure policy: %s\n\n", e.AnswerFailurePolicy)

	fmt.Fprintln(out, "[Embedding]")
	writeProvider(out, providerView{
		provider: settings.Embedding.Provider, model: settings.Embedding.Model,
		baseURL: settings.Embedding.BaseURL, apiKey: settings.Embedding.APIKey,
		configured: settings.Embedding.IsConfigured(),
	})
	fmt.Fprintln(out, "[LLM]")
	writeProvider(out, providerView{
		provider: settings.LLM.Provider, model: settings.LLM.Model,
		baseURL: settings.LLM.BaseURL, apiKey: settings.LLM.APIKey,
		configured: settings.LLM.IsConfigured(),
	})

	if err := settingsService.Validate(); err != nil {
		fmt.Fprintf(out, "Warning: %v\nRun 'qplens settings wizard' to fix it.\n", err)
	}
	return nil
}

type providerView struct {
	provider   domain.AIProvider
	model      string
	baseURL    string
	apiKey     string
	configured bool
}

func writeProvider(w io.Writer, p providerView) {
	fmt.Fprintf(w, "  Provider: %s\n", p.provider.Description())
	if p.provider != "" {
		fmt.Fprintf(w, "  Model: %s\n", p.model)
	}
	if p.provider.IsLocal() {
		fmt.Fprintf(w, "  Base URL: %s\n", p.baseURL)
	}
	if p.provider.RequiresAPIKey() {
		key := "(not set)"
		if p.apiKey != "" {
			key = maskAPIKey(p.apiKey)
		}
		fmt.Fprintf(w, "  API Key: %s\n", key)
	}
	status := "configured"
	if !p.configured {
		status = "not configured"
	}
	fmt.Fprintf(w, "  Status: %s\n\n", status)
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if err := requireService(settingsService != nil, "settings"); err != nil {
		return err
	}

	key, value := args[0], args[1]
	if err := settingsService.SetValue(key, value); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}

	if strings.HasSuffix(key, "api_key") {
		value = maskAPIKey(value)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", key, value)
	return nil
}

func runSettingsWizard(cmd *cobra.Command, _ []string) error {
	if err := requireService(settingsService != nil, "settings"); err != nil {
		return err
	}

	in := bufio.NewReader(cmd.InOrStdin())
	for i, step := range []providerStep{embeddingStep(), llmStep()} {
		fmt.Fprintf(cmd.OutOrStdout(), "Step %d: %s\n%s\n\n", i+1, step.title, step.purpose)
		if err := configureProvider(cmd, in, step); err != nil {
			return err
		}
	}

	if err := settingsService.Validate(); err != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "Warning: %v\n", err)
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), "All settings are valid and saved.")
	return nil
}

// providerStep is one provider prompt of the wizard.
type providerStep struct {
	title     string
	purpose   string
	kind      string
	providers []domain.AIProvider
	models    map[domain.AIProvider]string
	save      func(p domain.AIProvider, model, apiKey string) error
	validate  func() error
}

func embeddingStep() providerStep {
	return providerStep{
		title:     "Embedding provider",
		purpose:   "Embeddings power indexing, retrieval and recurring-question matching.",
		kind:      "embedding",
		providers: domain.AllEmbeddingProviders(),
		models:    domain.DefaultEmbeddingModels(),
		save:      settingsService.SetEmbeddingProvider,
		validate:  settingsService.ValidateEmbeddingConfig,
	}
}

func llmStep() providerStep {
	return providerStep{
		title:     "LLM provider",
		purpose:   "The LLM answers questions and extracts them from uploaded papers.",
		kind:      "LLM",
		providers: domain.AllLLMProviders(),
		models:    domain.DefaultLLMModels(),
		save:      settingsService.SetLLMProvider,
		validate:  settingsService.ValidateLLMConfig,
	}
}

func runProviderStep(cmd *cobra.Command, step func() providerStep) error {
	if err := requireService(settingsService != nil, "settings"); err != nil {
		return err
	}
	return configureProvider(cmd, bufio.NewReader(cmd.InOrStdin()), step())
}

// configureProvider asks for provider, model and key, saves them and pings
// the provider.
func configureProvider(cmd *cobra.Command, in *bufio.Reader, step providerStep) error {
	out := cmd.OutOrStdout()

	for i, p := range step.providers {
		fmt.Fprintf(out, "  %d. %s\n", i+1, p.Description())
	}
	fmt.Fprint(out, "Enter choice [1]: ")
	provider := step.providers[parseChoice(readLine(in), len(step.providers), 1)-1]

	model := step.models[provider]
	fmt.Fprintf(out, "Enter model name [%s]: ", model)
	if typed := readLine(in); typed != "" {
		model = typed
	}

	var apiKey string
	if provider.RequiresAPIKey() {
		fmt.Fprint(out, "Enter API key: ")
		apiKey = readSecret(in)
		fmt.Fprintln(out)
		if apiKey == "" {
			return errors.New("API key is required for this provider")
		}
	}

	if err := step.save(provider, model, apiKey); err != nil {
		return fmt.Errorf("failed to configure %s provider: %w", step.kind, err)
	}

	fmt.Fprint(out, "Validating configuration... ")
	if err := step.validate(); err != nil {
		fmt.Fprintln(out, "FAILED")
		return fmt.Errorf("%s configuration validation failed: %w", step.kind, err)
	}
	fmt.Fprintln(out, "OK")
	fmt.Fprintf(out, "%s provider configured: %s (%s)\n\n", step.kind, provider.Description(), model)
	return nil
}

func readLine(in *bufio.Reader) string {
	line, _ := in.ReadString('\n')
	return strings.TrimSpace(line)
}

// parseChoice returns the 1-based choice in input, or def when it is not
// a number in [1, n].
func parseChoice(input string, n, def int) int {
	v, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil || v < 1 || v > n {
		return def
	}
	return v
}

// readSecret reads without echo on a terminal and falls back to a plain line.
func readSecret(in *bufio.Reader) string {
	fd := int(os.Stdin.Fd())
	if in.Buffered() == 0 && term.IsTerminal(fd) {
		if b, err := term.ReadPassword(fd); err == nil {
			return strings.TrimSpace(string(b))
		}
	}
	return readLine(in)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
