package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonathan/portfolio-fit/internal/observability"
	"github.com/jonathan/portfolio-fit/internal/pipeline"
)

var (
	analyzeJob  string
	analyzeRaw  bool
	analyzeJSON bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze how well the profile fits a job description",
	Long: `Streams a fit analysis for a job description read from --job (a file path)
or from stdin, printing progress as the model writes and the assessment at the end.
The result is saved to history.`,
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeJob, "job", "j", "", "Path to job description text file (defaults to stdin)")
	analyzeCmd.Flags().BoolVar(&analyzeRaw, "raw", false, "Echo model output as it streams instead of progress lines")
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "Print the final assessment as JSON")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	text, err := readJobDescription(analyzeJob, cmd.InOrStdin())
	if err != nil {
		return err
	}

	a, err := newApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.close()

	runner, err := a.runner()
	if err != nil {
		return err
	}

	return analyze(ctx, runner, text, cmd.OutOrStdout(), analyzeOptions{Raw: analyzeRaw, JSON: analyzeJSON})
}

// readJobDescription reads the job text from path, or from stdin when path is empty or "-"
func readJobDescription(path string, stdin io.Reader) (string, error) {
	var data []byte
	var err error
	if path == "" || path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read job description: %w", err)
	}

	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", errors.New("job description is empty")
	}
	return text, nil
}

type analyzeOptions struct {
	Raw  bool
	JSON bool
}

// errAnalysisFailed reports a failure whose message was already printed
var errAnalysisFailed = errors.New("analysis failed")

// analyze runs one analysis, rendering events to out
func analyze(ctx context.Context, runner *pipeline.Runner, text string, out io.Writer, opts analyzeOptions) error {
	printer := observability.NewPrinter(out)

	result, err := runner.Run(ctx, pipeline.RunOptions{
		JobDescription: text,
		OnEvent: func(event pipeline.Event) {
			switch event.Type {
			case pipeline.EventProgress:
				// phase lines would interleave with echoed model output
				if !opts.JSON && !opts.Raw {
					printer.PrintPhase(event.Phase)
				}
			case pipeline.EventChunk:
				if opts.Raw {
					_, _ = io.WriteString(out, event.Content)
				}
			case pipeline.EventDone:
				if opts.Raw {
					_, _ = io.WriteString(out, "\n")
				}
			case pipeline.EventError:
				printer.PrintError(event.Message, event.Retryable)
			}
		},
	})
	if err != nil {
		return errAnalysisFailed
	}

	if opts.JSON {
		return writeJSON(out, result.Assessment)
	}
	printer.PrintAssessment(result.Assessment)
	if !result.Saved {
		_, _ = fmt.Fprintln(out, "Warning: the result could not be saved to history.")
	}
	return nil
}
