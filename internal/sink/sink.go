// Package sink defines export targets and their implementations.
package sink

import (
	"context"
	"errors"

	"tg_export/internal/model"
)

// Outcome reports what a successful Write did with a message.
type Outcome int

const (
	// Written means the message was recorded in the target.
	Written Outcome = iota
	// Skipped means the target deliberately ignored the message,
	// e.g. a duplicate ID already present in an archive.
	Skipped
)

// ErrRateLimited marks a transient remote throttling signal. Writes failing
// with it are worth retrying; any other error is a permanent per-message
// failure.
var ErrRateLimited = errors.New("rate limited")

// Sink is one export target. Open is idempotent and must be called before
// Write; Close flushes and releases the target's resource and runs on every
// pipeline exit path. A sink's resource is owned exclusively by that sink
// for the duration of a run.
type Sink interface {
	Name() string
	Open(ctx context.Context) error
	Write(ctx context.Context, msg model.Message) (Outcome, error)
	Close() error
}
