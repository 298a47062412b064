package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/jonathan/portfolio-fit/internal/history"
	"github.com/jonathan/portfolio-fit/internal/observability"
)

var historySession string

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect or clear saved analyses",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved analyses, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withHistory(cmd, func(store *history.Store, out io.Writer) error {
			observability.NewPrinter(out).PrintHistory(store.Load(cmd.Context()))
			return nil
		})
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one saved analysis",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withHistory(cmd, func(store *history.Store, out io.Writer) error {
			return showEntry(cmd, store, args[0], out)
		})
	},
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every saved analysis",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withHistory(cmd, func(store *history.Store, out io.Writer) error {
			if !store.Clear(cmd.Context()) {
				return fmt.Errorf("failed to clear history")
			}
			_, _ = fmt.Fprintln(out, "History cleared.")
			return nil
		})
	},
}

var historyShowJSON bool

func init() {
	historyCmd.PersistentFlags().StringVar(&historySession, "session", "", "Session id whose history to use (as set by the server's fit_session cookie)")
	historyShowCmd.Flags().BoolVar(&historyShowJSON, "json", false, "Print the stored record as JSON")

	historyCmd.AddCommand(historyListCmd, historyShowCmd, historyClearCmd)
	rootCmd.AddCommand(historyCmd)
}

// withHistory opens the configured history, scoped to --session when given
func withHistory(cmd *cobra.Command, fn func(store *history.Store, out io.Writer) error) error {
	a, err := newApp(cmd.Context(), true)
	if err != nil {
		return err
	}
	defer a.close()

	store := a.history
	if historySession != "" {
		store = store.ForSession(historySession)
	}
	return fn(store, cmd.OutOrStdout())
}

func showEntry(cmd *cobra.Command, store *history.Store, id string, out io.Writer) error {
	entry, ok := store.LoadByID(cmd.Context(), id)
	if !ok {
		return fmt.Errorf("no analysis with id %s", id)
	}
	if historyShowJSON {
		return writeJSON(out, entry.Record())
	}
	observability.NewPrinter(out).PrintAssessment(&entry.Assessment)
	return nil
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
