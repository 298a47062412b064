package server

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/portfolio-fit/internal/history"
)

// SessionCookie names the cookie that scopes history to one browser
const SessionCookie = "fit_session"

const sessionMaxAge = 30 * 24 * time.Hour

// sessionID returns the caller's session id, issuing a new cookie when the
// request carries none or an unparsable one.
func sessionID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(SessionCookie); err == nil {
		if id, err := uuid.Parse(c.Value); err == nil {
			return id.String()
		}
	}

	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    id,
		Path:     "/",
		MaxAge:   int(sessionMaxAge.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   r.TLS != nil,
	})
	return id
}

// sessionHistory returns the history store scoped to the caller's session
func (s *Server) sessionHistory(w http.ResponseWriter, r *http.Request) *history.Store {
	return s.history.ForSession(sessionID(w, r))
}
