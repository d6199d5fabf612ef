package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jonathan/blog-agent/internal/config"
	"github.com/jonathan/blog-agent/internal/db"
	"github.com/jonathan/blog-agent/internal/index"
	"github.com/jonathan/blog-agent/internal/llm"
	"github.com/jonathan/blog-agent/internal/mailer"
	"github.com/jonathan/blog-agent/internal/pipeline"
	"github.com/jonathan/blog-agent/internal/worker"
	"github.com/jonathan/blog-agent/internal/youtube"
)

// deps holds the wired service graph shared by the serve and generate
// commands.
type deps struct {
	cfg      config.Config
	database *db.DB
	llm      *llm.GeminiClient
	videos   *youtube.Provider
	pipeline *pipeline.Pipeline
	indexer  *index.Indexer
	mailer   *mailer.Mailer
	executor *worker.Executor
}

// loadConfig layers configuration: defaults, then the config file, then
// environment variables.
func loadConfig(configPath string) (config.Config, error) {
	cfg := config.FromEnv()
	if configPath != "" {
		fileCfg, err := config.LoadConfig(configPath)
		if err != nil {
			return config.Config{}, err
		}
		cfg = cfg.MergeWithDefaults(*fileCfg)
	}
	cfg = cfg.MergeWithDefaults(config.DefaultConfig())

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// buildDeps connects the database and constructs every collaborator.
func buildDeps(ctx context.Context, cfg config.Config) (*deps, error) {
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}
	if cfg.YouTubeAPIKey == "" {
		return nil, fmt.Errorf("YOUTUBE_API_KEY is required")
	}

	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := database.Migrate(ctx, cfg.EmbedDim); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	llmCfg := llm.DefaultConfig()
	llmCfg.EmbedModel = cfg.EmbedModel
	llmCfg.EmbedDim = cfg.EmbedDim

	llmClient, err := llm.NewClient(ctx, llmCfg, cfg.GeminiAPIKey)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	ytClient, err := youtube.New(ctx, cfg.YouTubeAPIKey)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to create youtube client: %w", err)
	}

	transcripts := youtube.NewTranscriptFetcher()
	if cfg.UseBrowser {
		transcripts = transcripts.WithBrowserFallback(60 * time.Second)
	}

	indexer := index.New(llmClient, database, cfg.ChunkSize, cfg.ChunkOverlap)
	mail := mailer.New(mailer.Config{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
	})

	videos := youtube.NewProvider(ytClient, transcripts)
	pipe := pipeline.New(llmClient)

	// A disabled mailer would report success without delivering anything, so
	// the executor only gets one when SMTP is actually configured.
	var workerMail worker.Mailer
	if mail.Enabled() {
		workerMail = mail
	}

	return &deps{
		cfg:      cfg,
		database: database,
		llm:      llmClient,
		videos:   videos,
		pipeline: pipe,
		indexer:  indexer,
		mailer:   mail,
		executor: worker.NewExecutor(videos, pipe, database, indexer, workerMail),
	}, nil
}

// Close releases held connections.
func (d *deps) Close() {
	if d.llm != nil {
		_ = d.llm.Close()
	}
	if d.database != nil {
		d.database.Close()
	}
}
