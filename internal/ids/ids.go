// Package ids provides identifier generators for assessments and their sub-records.
package ids

import (
	"crypto/rand"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// Generator returns a fresh identifier on every call
type Generator func() string

// UUID generates random version 4 UUIDs
func UUID() string {
	return uuid.New().String()
}

// NewULID returns a Generator producing lexicographically sortable ULIDs.
// IDs from the same generator are strictly increasing, even within one millisecond.
func NewULID() Generator {
	var mu sync.Mutex
	entropy := ulid.Monotonic(rand.Reader, 0)
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
	}
}

// Sequence returns a deterministic Generator yielding prefix-1, prefix-2, ...
// Intended for tests and fixtures.
func Sequence(prefix string) Generator {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return prefix + "-" + strconv.Itoa(n)
	}
}
