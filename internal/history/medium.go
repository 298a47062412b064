// Package history keeps the most recent fit analyses for a session in a
// key/value medium, newest first, with a fixed capacity.
package history

import "context"

// Medium is the key/value storage a Store persists into. Implementations live
// in internal/storage and internal/db.
type Medium interface {
	// Get returns the value under key; found is false when the key is absent
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}
