package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/portfolio-fit/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Start an HTTP server exposing the streaming analyze endpoint and the per-session
history endpoints. Shuts down gracefully on SIGINT or SIGTERM.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Address to listen on (overrides config, e.g. :8080)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx, false)
	if err != nil {
		return err
	}
	defer a.close()

	runner, err := a.runner()
	if err != nil {
		return err
	}

	addr := a.cfg.Addr
	if cmd.Flags().Changed("addr") {
		addr = serveAddr
	}

	srv, err := server.New(server.Config{
		Addr:    addr,
		Runner:  runner,
		History: a.history,
		Logger:  a.logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	return srv.Start(ctx)
}
