// Package main provides the entry point for the fit analysis CLI and HTTP API server.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "fit_agent",
	Short: "Job fit analysis CLI and HTTP API server",
	Long: `fit_agent assesses how well a candidate profile fits a job description.
It streams the analysis from an OpenAI-compatible model, reports progress as it goes
and keeps the last few results in history.

Configuration is read from environment variables (and .env), optionally layered over
a JSON or YAML file given with --config.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config.json or config.yaml")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
