package history

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/portfolio-fit/internal/schemas"
	"github.com/jonathan/portfolio-fit/internal/types"
)

const (
	// DefaultKey is the storage key of an unscoped history
	DefaultKey = "fit-analysis-history"
	// DefaultMaxEntries is how many analyses a history retains
	DefaultMaxEntries = 5
)

// SessionKey returns the storage key of the history belonging to sessionID
func SessionKey(sessionID string) string {
	return DefaultKey + ":" + sessionID
}

// Option configures a Store
type Option func(*Store)

// WithMaxEntries sets the capacity. Values below 1 are ignored.
func WithMaxEntries(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxEntries = n
		}
	}
}

// WithKey sets the storage key
func WithKey(key string) Option {
	return func(s *Store) {
		s.key = key
	}
}

// WithLogger sets the logger used for medium and decode failures
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger.Named("history")
		}
	}
}

// WithClock overrides the clock used for lastUpdated
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// Store is a capped, newest-first list of analyses kept under one key.
// Every method degrades to a false or empty result when the medium fails.
type Store struct {
	medium     Medium
	key        string
	maxEntries int
	logger     *zap.Logger
	now        func() time.Time
	mu         *sync.Mutex
}

// NewStore creates a Store over medium
func NewStore(medium Medium, opts ...Option) *Store {
	s := &Store{
		medium:     medium,
		key:        DefaultKey,
		maxEntries: DefaultMaxEntries,
		logger:     zap.NewNop(),
		now:        time.Now,
		mu:         &sync.Mutex{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ForSession returns a Store sharing this store's medium and settings but
// keyed to one session
func (s *Store) ForSession(sessionID string) *Store {
	scoped := *s
	scoped.key = SessionKey(sessionID)
	return &scoped
}

// MaxEntries returns the capacity
func (s *Store) MaxEntries() int {
	return s.maxEntries
}

// Save prepends an analysis, evicting the oldest entries beyond capacity.
// It reports whether the history was written.
func (s *Store) Save(ctx context.Context, a types.MatchAssessment, fullText string) bool {
	record := Serialize(a, fullText)
	if err := schemas.ValidateAssessment(record); err != nil {
		s.logger.Warn("refusing to save invalid assessment", zap.String("id", a.ID), invalidFields(err))
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.read(ctx)
	if !ok {
		return false
	}

	entries := make([]types.HistoryRecord, 0, s.maxEntries)
	entries = append(entries, record)
	for _, r := range existing.Entries {
		if len(entries) == s.maxEntries {
			break
		}
		if r.ID == record.ID {
			continue
		}
		entries = append(entries, r)
	}

	if err := s.write(ctx, payload{Entries: entries, LastUpdated: types.FormatTimestamp(s.now())}); err != nil {
		s.logger.Warn("failed to save history", zap.String("key", s.key), zap.Error(err))
		return false
	}
	s.logger.Debug("saved analysis to history", zap.String("id", a.ID), zap.Int("entries", len(entries)))
	return true
}

// Load returns every retained entry, most recent first. Records that no longer
// validate are skipped.
func (s *Store) Load(ctx context.Context) []Entry {
	s.mu.Lock()
	stored, ok := s.read(ctx)
	s.mu.Unlock()
	if !ok {
		return []Entry{}
	}

	entries := make([]Entry, 0, len(stored.Entries))
	for _, rec := range stored.Entries {
		if len(entries) == s.maxEntries {
			break
		}
		entry, err := Deserialize(rec)
		if err != nil {
			s.logger.Warn("skipping unreadable history record",
				zap.String("key", s.key), invalidFields(err), zap.Error(err))
			continue
		}
		entries = append(entries, entry)
	}
	return entries
}

// LoadByID returns the entry with the given assessment id
func (s *Store) LoadByID(ctx context.Context, id string) (*Entry, bool) {
	for _, entry := range s.Load(ctx) {
		if entry.Assessment.ID == id {
			e := entry
			return &e, true
		}
	}
	return nil, false
}

// Clear removes the whole history. It reports whether the medium accepted the delete.
func (s *Store) Clear(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.medium.Delete(ctx, s.key); err != nil {
		s.logger.Warn("failed to clear history", zap.String("key", s.key), zap.Error(err))
		return false
	}
	return true
}

// Count returns the number of retained entries, never more than MaxEntries
func (s *Store) Count(ctx context.Context) int {
	return len(s.Load(ctx))
}

// LastUpdated returns when the history was last written
func (s *Store) LastUpdated(ctx context.Context) (time.Time, bool) {
	s.mu.Lock()
	stored, ok := s.read(ctx)
	s.mu.Unlock()
	if !ok || stored.LastUpdated == "" {
		return time.Time{}, false
	}
	ts, err := types.ParseTimestamp(stored.LastUpdated)
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}

// read returns the stored payload. A missing or corrupt value reads as empty;
// ok is false only when the medium itself failed.
func (s *Store) read(ctx context.Context) (payload, bool) {
	raw, found, err := s.medium.Get(ctx, s.key)
	if err != nil {
		s.logger.Warn("failed to read history", zap.String("key", s.key), zap.Error(err))
		return payload{}, false
	}
	if !found || raw == "" {
		return payload{}, true
	}

	var p payload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		s.logger.Warn("discarding corrupt history payload", zap.String("key", s.key), zap.Error(err))
		return payload{}, true
	}
	return p, true
}

func (s *Store) write(ctx context.Context, p payload) error {
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return s.medium.Set(ctx, s.key, string(data))
}

// invalidFields logs the failing field paths of a schema violation, or the error itself
func invalidFields(err error) zap.Field {
	var verr *schemas.ValidationError
	if errors.As(err, &verr) {
		return zap.Strings("invalid_fields", verr.Fields())
	}
	return zap.Error(err)
}
