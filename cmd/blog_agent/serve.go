package main

import (
	"context"
	"fmt"

	"github.com/jonathan/blog-agent/internal/config"
	"github.com/jonathan/blog-agent/internal/server"
	"github.com/spf13/cobra"
)

var (
	serveConfigPath string
	serveAddr       string
	serveUseBrowser bool
	serveVerbose    bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long: `Start an HTTP server that exposes REST endpoints for submitting blog
generation jobs, polling their status, and querying indexed content.

Configuration can be loaded from a JSON file using --config. Environment
variables and command-line flags override config file values.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveConfigPath, "config", "", "Path to config.json file (values can be overridden by flags)")
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address, e.g. :8000")
	serveCmd.Flags().BoolVar(&serveUseBrowser, "use-browser", false, "Use headless browser fallback for transcript pages (requires Chrome)")
	serveCmd.Flags().BoolVarP(&serveVerbose, "verbose", "v", false, "Print detailed debug information")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	cfg, err := loadConfig(serveConfigPath)
	if err != nil {
		return err
	}

	// Flags take priority over env and config file, but only when set.
	if cmd.Flags().Changed("addr") {
		cfg.Addr = serveAddr
	}
	if cmd.Flags().Changed("use-browser") {
		cfg.UseBrowser = serveUseBrowser
	}
	if cmd.Flags().Changed("verbose") {
		cfg.Verbose = serveVerbose
	}

	d, err := buildDeps(ctx, cfg)
	if err != nil {
		return err
	}
	defer d.Close()

	jwtCfg, err := config.NewJWTConfig()
	if err != nil {
		return fmt.Errorf("invalid JWT configuration: %w", err)
	}

	var mail server.Mailer
	if d.mailer.Enabled() {
		mail = d.mailer
	}

	srv := server.New(server.Config{
		Addr: cfg.Addr,
		JWT:  jwtCfg,
	}, server.Deps{
		Store:    d.database,
		Runner:   d.executor,
		Embedder: d.llm,
		Mailer:   mail,
	})

	return srv.Start()
}
