// Package main provides the entry point for the blog agent HTTP API server
// and CLI.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "blog_agent",
	Short: "Blog Agent HTTP API Server",
	Long:  "Blog Agent turns YouTube videos into published blog articles: it resolves a channel and title to a video, fetches the transcript, generates a multi-section article, and indexes it for semantic search.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
