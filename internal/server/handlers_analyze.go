package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/jonathan/portfolio-fit/internal/pipeline"
)

const (
	minJobDescription = 50
	maxJobDescription = 15000
	// maxRequestBytes leaves room for multi-byte text and JSON escaping
	maxRequestBytes = 8 * maxJobDescription
)

// AnalyzeRequest is the body of POST /api/analyze/stream
type AnalyzeRequest struct {
	JobDescription string `json:"jobDescription" validate:"required,min=50,max=15000"`
}

var validate = validator.New()

// Validate trims the job description and checks its length in characters
func (req *AnalyzeRequest) Validate() error {
	req.JobDescription = strings.TrimSpace(req.JobDescription)
	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 && verrs[0].Tag() == "required" {
			return &ErrValidation{Field: "jobDescription", Message: "is required"}
		}
		return &ErrValidation{
			Field:   "jobDescription",
			Message: fmt.Sprintf("must be between %d and %d characters", minJobDescription, maxJobDescription),
		}
	}
	return nil
}

// handleAnalyzeStream runs one analysis and relays its events as SSE
func (s *Server) handleAnalyzeStream(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	store := s.sessionHistory(w, r)

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	opts := pipeline.RunOptions{
		JobDescription: req.JobDescription,
		Store:          store,
		OnEvent: func(event pipeline.Event) {
			if err := sse.WriteEvent(string(event.Type), event); err != nil {
				s.logger.Debug("error writing SSE event", zap.Error(err))
			}
		},
	}

	// Errors have already been relayed as an error event
	result, err := s.runner.Run(r.Context(), opts)
	if err != nil {
		s.logger.Info("analysis ended with error", zap.Error(err))
		return
	}
	s.logger.Info("analysis streamed",
		zap.String("id", result.Assessment.ID),
		zap.Bool("saved", result.Saved))
}
