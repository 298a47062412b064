package server

import (
	"net/http"

	"github.com/jonathan/portfolio-fit/internal/types"
)

// HistoryResponse is the body of GET /api/history
type HistoryResponse struct {
	Entries    []types.HistoryRecord `json:"entries"`
	Count      int                   `json:"count"`
	MaxEntries int                   `json:"maxEntries"`
	// LastUpdated is empty until the session saves its first analysis
	LastUpdated string `json:"lastUpdated,omitempty"`
}

// handleListHistory returns the session's analyses, newest first
func (s *Server) handleListHistory(w http.ResponseWriter, r *http.Request) {
	store := s.sessionHistory(w, r)
	entries := store.Load(r.Context())

	records := make([]types.HistoryRecord, 0, len(entries))
	for _, e := range entries {
		records = append(records, e.Record())
	}
	resp := HistoryResponse{
		Entries:    records,
		Count:      len(records),
		MaxEntries: store.MaxEntries(),
	}
	if ts, ok := store.LastUpdated(r.Context()); ok {
		resp.LastUpdated = types.FormatTimestamp(ts)
	}
	s.jsonResponse(w, http.StatusOK, resp)
}

// handleGetHistory returns one analysis by id
func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	entry, ok := s.sessionHistory(w, r).LoadByID(r.Context(), id)
	if !ok {
		err := &ErrNotFound{ID: id}
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, entry.Record())
}

// handleClearHistory removes every analysis of the session
func (s *Server) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	if !s.sessionHistory(w, r).Clear(r.Context()) {
		s.errorResponse(w, http.StatusServiceUnavailable, "History is temporarily unavailable")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
