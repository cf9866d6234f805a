package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/qplens/qplens/internal/adapters/driven/ai"
	"github.com/qplens/qplens/internal/adapters/driven/config/file"
	"github.com/qplens/qplens/internal/adapters/driven/metadata"
	"github.com/qplens/qplens/internal/adapters/driven/storage/memory"
	"github.com/qplens/qplens/internal/adapters/driven/storage/sqlite"
	"github.com/qplens/qplens/internal/adapters/driving/cli"
	"github.com/qplens/qplens/internal/core/domain"
	"github.com/qplens/qplens/internal/core/ports/driven"
	"github.com/qplens/qplens/internal/core/services"
	"github.com/qplens/qplens/internal/logger"
	"github.com/qplens/qplens/internal/normalisers"
	"github.com/qplens/qplens/internal/postprocessors/chunker"
)

// Environment variables that supply API keys missing from config.toml.
const (
	envOpenAIKey    = "OPENAI_API_KEY"
	envAnthropicKey = "ANTHROPIC_API_KEY"
)

// stores groups the persistence ports one bootstrap uses.
type stores struct {
	chunks    driven.ChunkStore
	questions driven.QuestionStore
	papers    driven.PaperStore
	close     func()
}

// bootstrap builds every service the CLI drives from the global options.
func bootstrap(_ context.Context, opts cli.Options) (*cli.Services, func(), error) {
	configStore, err := file.NewConfigStore(opts.ConfigDir)
	if err != nil {
		return nil, nil, fmt.Errorf("open config: %w", err)
	}

	logger.Debug("Config: %s", configStore.Path())

	promptDir := ""
	if opts.ConfigDir != "" {
		promptDir = filepath.Join(opts.ConfigDir, "prompts")
	}
	promptStore, err := file.NewPromptStore(promptDir)
	if err != nil {
		return nil, nil, fmt.Errorf("open prompts: %w", err)
	}

	settingsService := services.NewSettingsService(configStore, ai.NewConfigValidator())
	settings, err := settingsService.Get()
	if err != nil {
		return nil, nil, fmt.Errorf("load settings: %w", err)
	}
	applyEnvKeys(settings, os.Getenv)
	if err := settings.Engine.Validate(); err != nil {
		logger.Warn("Invalid engine settings, using defaults: %v", err)
		settings.Engine = domain.DefaultEngineSettings()
	}

	st, err := openStores(opts)
	if err != nil {
		return nil, nil, err
	}

	var (
		aiServices *ai.InitResult
		warnings   []string
	)
	if opts.SkipAI {
		aiServices = &ai.InitResult{PromptStore: promptStore}
	} else {
		aiServices = ai.Initialise(settings, promptStore)
		warnings = aiServices.Warnings
	}

	s := wire(st, settings.Engine, aiServices, settingsService)
	s.Warnings = warnings

	release := func() {
		aiServices.Close()
		st.close()
	}
	return s, release, nil
}

// wire connects the core services to their adapters.
func wire(
	st *stores, engine domain.EngineSettings, aiServices *ai.InitResult, settingsService *services.SettingsService,
) *cli.Services {
	retrieval := services.NewRetrievalService(
		st.chunks, chunker.New(chunker.WithChunkSize(engine.ChunkSize)), aiServices.EmbeddingService)

	answer := services.NewAnswerService(retrieval, aiServices.EmbeddingService, aiServices.LLMService, engine)
	if aiServices.PromptStore != nil {
		answer.SetPromptStore(aiServices.PromptStore)
	}

	tracker := services.NewRecurrenceTracker(st.questions)
	papers := services.NewPaperService(st.papers, st.questions, tracker,
		aiServices.Extractor, aiServices.EmbeddingService, engine.SimilarityThreshold)

	return &cli.Services{
		Retrieval:   retrieval,
		Answer:      answer,
		Papers:      papers,
		Leaderboard: services.NewLeaderboardService(st.questions, st.papers),
		Settings:    settingsService,
		Normalisers: normalisers.NewDefaultRegistry(),
		Metadata:    metadata.NewSidecarReader(),
	}
}

// openStores opens SQLite under the data dir, or memory stores when ephemeral.
func openStores(opts cli.Options) (*stores, error) {
	if opts.Ephemeral {
		logger.Debug("Using in-memory stores")
		return &stores{
			chunks:    memory.NewChunkStore(),
			questions: memory.NewQuestionStore(),
			papers:    memory.NewPaperStore(),
			close:     func() {},
		}, nil
	}

	db, err := sqlite.NewStore(opts.DataDir)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	logger.Debug("Database: %s", db.Path())
	return &stores{
		chunks:    db.ChunkStore(),
		questions: db.QuestionStore(),
		papers:    db.PaperStore(),
		close: func() {
			if err := db.Close(); err != nil {
				logger.Warn("Failed to close database: %v", err)
			}
		},
	}, nil
}

// applyEnvKeys fills API keys left empty in config from the environment.
// Stored settings are not changed.
func applyEnvKeys(settings *domain.AppSettings, getenv func(string) string) {
	if settings.Embedding.APIKey == "" && settings.Embedding.Provider == domain.AIProviderOpenAI {
		settings.Embedding.APIKey = getenv(envOpenAIKey)
	}
	if settings.LLM.APIKey == "" {
		switch settings.LLM.Provider {
		case domain.AIProviderOpenAI:
			settings.LLM.APIKey = getenv(envOpenAIKey)
		case domain.AIProviderAnthropic:
			settings.LLM.APIKey = getenv(envAnthropicKey)
		}
	}
}
