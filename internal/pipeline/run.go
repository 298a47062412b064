// Package pipeline orchestrates one fit analysis: stream the completion, track
// progress, parse the result and record it in history.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/portfolio-fit/internal/history"
	"github.com/jonathan/portfolio-fit/internal/ids"
	"github.com/jonathan/portfolio-fit/internal/llm"
	"github.com/jonathan/portfolio-fit/internal/parsing"
	"github.com/jonathan/portfolio-fit/internal/progress"
	"github.com/jonathan/portfolio-fit/internal/prompts"
	"github.com/jonathan/portfolio-fit/internal/types"
)

// rejectedMessage is shown when the guardrail refuses an input
const rejectedMessage = "This job description can't be analyzed. Please check the text and try again."

// Completer opens streaming completions
type Completer interface {
	Stream(ctx context.Context, systemPrompt string, messages []llm.Message, cfg llm.Config) (*llm.Stream, error)
}

// Guardrail screens an input before any completion is requested
type Guardrail interface {
	Check(ctx context.Context, input string) error
}

// RejectedError is returned when the guardrail refuses the input
type RejectedError struct {
	Cause error
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("input rejected by guardrail: %v", e.Cause)
}

func (e *RejectedError) Unwrap() error {
	return e.Cause
}

// Runner runs analyses. Store, Guardrail, NewID, Now and Logger are optional.
type Runner struct {
	Client    Completer
	Store     *history.Store
	Guardrail Guardrail
	Config    llm.Config
	Profile   string // candidate profile the job is assessed against
	NewID     ids.Generator
	Now       func() time.Time
	Logger    *zap.Logger
}

// RunOptions holds the input of a single analysis
type RunOptions struct {
	JobDescription string
	// Store overrides Runner.Store, e.g. with a session-scoped history
	Store   *history.Store
	OnEvent EventCallback
}

// Result is the outcome of a successful analysis
type Result struct {
	Assessment *types.MatchAssessment
	Raw        string // accumulated model output
	Saved      bool   // whether the assessment was written to history
}

// Run performs one analysis, reporting every step through opts.OnEvent. The
// returned error is a *RejectedError, an *llm.LLMError or a *parsing.ParseError;
// an error event carrying its user-facing message has already been emitted.
func (r *Runner) Run(ctx context.Context, opts RunOptions) (*Result, error) {
	logger := r.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("pipeline")
	start := time.Now()

	emit(&opts, progressEvent(progress.PhasePreparing))

	if r.Guardrail != nil {
		if err := r.Guardrail.Check(ctx, opts.JobDescription); err != nil {
			logger.Info("input rejected by guardrail", zap.Error(err))
			emit(&opts, Event{Type: EventError, Message: rejectedMessage})
			return nil, &RejectedError{Cause: err}
		}
	}

	system := prompts.AnalysisSystem(r.Profile)
	messages := []llm.Message{{Role: "user", Content: prompts.AnalysisUser(opts.JobDescription)}}

	logger.Debug("starting analysis",
		zap.String("model", r.Config.Model),
		zap.Int("input_chars", len(opts.JobDescription)))

	stream, err := r.Client.Stream(ctx, system, messages, r.Config)
	if err != nil {
		return nil, r.fail(&opts, logger, err)
	}
	defer func() { _ = stream.Close() }()

	tracker := progress.NewTracker()
	chunks := 0
	for stream.Next() {
		chunk := stream.Chunk()
		chunks++
		phase, advanced := tracker.Observe(chunk)
		emit(&opts, Event{Type: EventChunk, Content: chunk})
		if advanced {
			emit(&opts, progressEvent(phase))
		}
	}
	if err := stream.Err(); err != nil {
		return nil, r.fail(&opts, logger, err)
	}

	emit(&opts, Event{Type: EventDone})
	if tracker.Advance(progress.PhaseFinalizing) {
		emit(&opts, progressEvent(progress.PhaseFinalizing))
	}

	raw := stream.Accumulated()
	assessment, err := parsing.ParseAssessment(raw, parsing.Context{
		OriginalInput: opts.JobDescription,
		NewID:         r.NewID,
		Now:           r.Now,
	})
	if err != nil {
		logger.Warn("failed to parse analysis",
			zap.Int("chunks", chunks),
			zap.Int("chars", len(raw)),
			zap.Error(err))
		return nil, r.fail(&opts, logger, err)
	}

	result := &Result{Assessment: assessment, Raw: raw}
	store := opts.Store
	if store == nil {
		store = r.Store
	}
	if store != nil {
		result.Saved = store.Save(ctx, *assessment, opts.JobDescription)
	}

	emit(&opts, Event{Type: EventComplete, Assessment: assessment})

	logger.Info("analysis complete",
		zap.String("id", assessment.ID),
		zap.String("confidence", string(assessment.ConfidenceScore)),
		zap.Int("alignments", len(assessment.AlignmentAreas)),
		zap.Int("gaps", len(assessment.GapAreas)),
		zap.Bool("saved", result.Saved),
		zap.Duration("elapsed", time.Since(start)))

	return result, nil
}

// fail emits the error event for err and returns it unchanged
func (r *Runner) fail(opts *RunOptions, logger *zap.Logger, err error) error {
	var llmErr *llm.LLMError
	var parseErr *parsing.ParseError
	switch {
	case errors.As(err, &llmErr):
		logger.Warn("completion failed", zap.String("type", string(llmErr.Type)), zap.Bool("retryable", llmErr.Retryable))
		emit(opts, Event{Type: EventError, Message: llmErr.Message, Retryable: llmErr.Retryable})
	case errors.As(err, &parseErr):
		emit(opts, Event{Type: EventError, Message: parseErr.Message, Retryable: true})
	default:
		logger.Error("analysis failed", zap.Error(err))
		emit(opts, Event{Type: EventError, Message: llm.UserMessage(""), Retryable: true})
	}
	return err
}
