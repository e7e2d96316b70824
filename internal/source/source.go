// Package source streams saved messages from Telegram, newest first.
package source

import (
	"context"

	"tg_export/internal/model"
)

// Source yields messages lazily in reverse-chronological order.
// Next blocks on network I/O and returns false when the history is
// exhausted. A Source is not restartable; build a new one for a fresh pass.
type Source interface {
	Next(ctx context.Context) (model.Message, bool, error)
}
