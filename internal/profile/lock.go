package profile

import (
	"context"
	"fmt"
	"time"

	"github.com/gofrs/flock"
)

// ConcurrencyError indicates a table file lock could not be acquired within
// the retry window. Callers should treat it as transient.
type ConcurrencyError struct {
	Path string
}

func (e *ConcurrencyError) Error() string {
	return fmt.Sprintf("table file is busy: %s", e.Path)
}

const (
	lockRetryDelay = 50 * time.Millisecond
	lockTimeout    = 2 * time.Second
)

// withFileLock runs fn while holding an exclusive lock on path's sidecar
// lock file. Every read-modify-write of an index or record table goes
// through here so concurrent writers cannot lose updates.
func withFileLock(path string, fn func() error) error {
	fl := flock.New(path + ".lock")

	ctx, cancel := context.WithTimeout(context.Background(), lockTimeout)
	defer cancel()

	locked, err := fl.TryLockContext(ctx, lockRetryDelay)
	if err != nil || !locked {
		return &ConcurrencyError{Path: path}
	}
	defer fl.Unlock()

	return fn()
}
