package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/jonathan/blog-agent/internal/config"
	"github.com/jonathan/blog-agent/internal/jobs"
	"github.com/jonathan/blog-agent/internal/llm"
	"github.com/jonathan/blog-agent/internal/observability"
	"github.com/jonathan/blog-agent/internal/pipeline"
	"github.com/jonathan/blog-agent/internal/types"
	"github.com/jonathan/blog-agent/internal/youtube"
	"github.com/spf13/cobra"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a blog post from a YouTube video",
	Long: `Runs the full generation flow once, without the server: resolve the video
on the channel, fetch its transcript, synthesize the article, and write it
to stdout or a file.

When DATABASE_URL is set the post is also persisted and indexed for
similarity queries, exactly as a server-submitted job would be.

Configuration can be loaded from a JSON file using --config. Command-line
arguments override config file values.`,
	RunE: runGenerate,
}

var (
	genConfigPath string
	genChannel    string
	genTitle      string
	genOutput     string
	genEmail      string
	genAPIKey     string
	genYTKey      string
	genDBURL      string
	genUseBrowser bool
	genVerbose    bool
)

func init() {
	generateCmd.Flags().StringVar(&genConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")

	generateCmd.Flags().StringVarP(&genChannel, "channel", "c", "", "YouTube channel name (required)")
	generateCmd.Flags().StringVarP(&genTitle, "title", "t", "", "Video title to search for (required)")
	generateCmd.Flags().StringVarP(&genOutput, "output", "o", "", "Write the article to this file instead of stdout")
	generateCmd.Flags().StringVar(&genEmail, "email", "", "Email the finished article to this address (requires SMTP config and DATABASE_URL)")
	generateCmd.Flags().BoolVar(&genUseBrowser, "use-browser", false, "Use headless browser fallback for transcript pages (requires Chrome)")
	generateCmd.Flags().BoolVarP(&genVerbose, "verbose", "v", false, "Print detailed debug information")

	// API keys can be passed as flags, or read from env vars
	generateCmd.Flags().StringVar(&genAPIKey, "api-key", "", "Gemini API Key (optional, defaults to GEMINI_API_KEY env var)")
	generateCmd.Flags().StringVar(&genYTKey, "youtube-api-key", "", "YouTube Data API Key (optional, defaults to YOUTUBE_API_KEY env var)")

	// Database URL for persistence and indexing
	generateCmd.Flags().StringVar(&genDBURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")

	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	cfg, err := loadConfig(genConfigPath)
	if err != nil {
		return err
	}

	if cmd.Flags().Changed("api-key") {
		cfg.GeminiAPIKey = genAPIKey
	}
	if cmd.Flags().Changed("youtube-api-key") {
		cfg.YouTubeAPIKey = genYTKey
	}
	if cmd.Flags().Changed("db-url") {
		cfg.DatabaseURL = genDBURL
	}
	if cmd.Flags().Changed("use-browser") {
		cfg.UseBrowser = genUseBrowser
	}
	if cmd.Flags().Changed("verbose") {
		cfg.Verbose = genVerbose
	}

	if genChannel == "" {
		return fmt.Errorf("--channel is required")
	}
	if genTitle == "" {
		return fmt.Errorf("--title is required")
	}
	if cfg.GeminiAPIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY environment variable or --api-key flag is required")
	}
	if cfg.YouTubeAPIKey == "" {
		return fmt.Errorf("YOUTUBE_API_KEY environment variable or --youtube-api-key flag is required")
	}

	// With a database we run the job exactly as the server would, including
	// persistence, indexing, and optional email. Without one we run the
	// generation in-process and only emit the article text.
	if cfg.DatabaseURL != "" {
		return generateWithStore(ctx, cfg, genChannel, genTitle, genEmail, genOutput)
	}
	if genEmail != "" {
		return fmt.Errorf("--email requires DATABASE_URL to be set")
	}
	return generateStandalone(ctx, cfg, genChannel, genTitle, genOutput)
}

func generateWithStore(ctx context.Context, cfg config.Config, channel, title, email, output string) error {
	d, err := buildDeps(ctx, cfg)
	if err != nil {
		return err
	}
	defer d.Close()

	var emailPtr *string
	if email != "" {
		emailPtr = &email
	}

	job, err := d.database.CreateJob(ctx, channel, title, emailPtr)
	if err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}
	log.Printf("[GENERATE] created job %s", job.ID)

	tracker := jobs.NewTracker(d.database, job)
	if err := d.executor.Run(ctx, tracker, job); err != nil {
		return err
	}

	post, err := d.database.GetPostByJob(ctx, job.ID)
	if err != nil {
		return fmt.Errorf("job completed but post could not be loaded: %w", err)
	}
	return writeArticle(output, post.Content)
}

func generateStandalone(ctx context.Context, cfg config.Config, channel, title, output string) error {
	llmCfg := llm.DefaultConfig()
	llmCfg.EmbedModel = cfg.EmbedModel
	llmCfg.EmbedDim = cfg.EmbedDim

	client, err := llm.NewClient(ctx, llmCfg, cfg.GeminiAPIKey)
	if err != nil {
		return fmt.Errorf("failed to create LLM client: %w", err)
	}
	defer client.Close()

	ytClient, err := youtube.New(ctx, cfg.YouTubeAPIKey)
	if err != nil {
		return fmt.Errorf("failed to create youtube client: %w", err)
	}
	transcripts := youtube.NewTranscriptFetcher()
	if cfg.UseBrowser {
		transcripts = transcripts.WithBrowserFallback(60 * time.Second)
	}
	videos := youtube.NewProvider(ytClient, transcripts)

	out := io.Discard
	if cfg.Verbose {
		out = os.Stderr
	}
	printer := observability.NewPrinter(out)

	video, err := videos.Search(ctx, channel, title)
	if err != nil {
		return fmt.Errorf("could not find video '%s' on channel '%s': %w", title, channel, err)
	}
	printer.PrintVideo(video)

	transcript, err := videos.Transcript(ctx, video.VideoID)
	if err != nil {
		return fmt.Errorf("could not fetch transcript for video %s: %w", video.VideoID, err)
	}

	bc := types.BlogContext{
		VideoID:          video.VideoID,
		VideoTitle:       video.Title,
		VideoDescription: video.Description,
		ChannelTitle:     video.ChannelTitle,
		Transcript:       transcript,
	}
	if meta, err := videos.Metadata(ctx, video.VideoID); err == nil {
		bc.VideoTitle = meta.Title
		bc.VideoDescription = meta.Description
		bc.ChannelTitle = meta.ChannelTitle
	} else {
		log.Printf("[GENERATE] metadata fetch failed, using search result: %v", err)
	}

	bc = pipeline.New(client).Run(ctx, bc)
	if bc.Failed() {
		return fmt.Errorf("generation failed: %s", bc.Err)
	}

	printer.PrintKeyPoints(bc.KeyPoints)
	printer.PrintSections(bc.Sections)
	printer.PrintBlogStats(&bc)

	return writeArticle(output, bc.FinalBlog)
}

func writeArticle(path, content string) error {
	if path == "" {
		fmt.Println(content)
		return nil
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	log.Printf("[GENERATE] article written to %s", path)
	return nil
}
