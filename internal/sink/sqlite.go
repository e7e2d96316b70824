package sink

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver registration.

	"tg_export/internal/model"
	"tg_export/migrations"
)

const timeLayout = "2006-01-02T15:04:05Z"

// Archive writes accepted messages into a local SQLite database so an
// export can be queried with ordinary SQL tooling. Messages already present
// (by ID) are skipped, which makes re-running a narrower export into the
// same archive safe.
type Archive struct {
	path string
	db   *sql.DB
}

// NewArchive creates a SQLite archive sink for the given database path.
func NewArchive(path string) *Archive {
	return &Archive{path: path}
}

// Name returns "sqlite".
func (a *Archive) Name() string { return string(FormatSQLite) }

// Path returns the archive path.
func (a *Archive) Path() string { return a.path }

// Open opens the archive database and applies pending schema migrations.
func (a *Archive) Open(_ context.Context) error {
	if a.db != nil {
		return nil
	}
	if dir := filepath.Dir(a.path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("create archive directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", a.path)
	if err != nil {
		return fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return fmt.Errorf("set WAL mode: %w", err)
	}
	if err := migrations.Run(db); err != nil {
		_ = db.Close()
		return fmt.Errorf("run migrations: %w", err)
	}

	a.db = db
	return nil
}

// Write inserts one message row. A duplicate message ID yields Skipped.
func (a *Archive) Write(ctx context.Context, msg model.Message) (Outcome, error) {
	if a.db == nil {
		return 0, fmt.Errorf("archive %s is not open", a.path)
	}
	res, err := a.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO messages (id, created_at, kind, body, hashtags, urls, media_url)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		msg.ID,
		msg.Timestamp.UTC().Format(timeLayout),
		string(msg.Kind),
		msg.Text,
		strings.Join(msg.Hashtags, " "),
		strings.Join(msg.URLs, " "),
		msg.MediaURL,
	)
	if err != nil {
		return 0, fmt.Errorf("insert message %d: %w", msg.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return Skipped, nil
	}
	return Written, nil
}

// Close closes the underlying database connection.
func (a *Archive) Close() error {
	if a.db == nil {
		return nil
	}
	db := a.db
	a.db = nil
	return db.Close()
}

// Count returns the number of archived messages, for tests and tooling.
func (a *Archive) Count(ctx context.Context) (int, error) {
	if a.db == nil {
		return 0, fmt.Errorf("archive %s is not open", a.path)
	}
	var n int
	if err := a.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM messages`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count messages: %w", err)
	}
	return n, nil
}

// ReadAll returns every archived message ordered by ID, for tests and tooling.
func (a *Archive) ReadAll(ctx context.Context) ([]model.Message, error) {
	if a.db == nil {
		return nil, fmt.Errorf("archive %s is not open", a.path)
	}
	rows, err := a.db.QueryContext(ctx,
		`SELECT id, created_at, kind, body, hashtags, urls, media_url FROM messages ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var msgs []model.Message
	for rows.Next() {
		var m model.Message
		var created, kind, hashtags, urls string
		if err := rows.Scan(&m.ID, &created, &kind, &m.Text, &hashtags, &urls, &m.MediaURL); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		m.Timestamp, err = time.Parse(timeLayout, created)
		if err != nil {
			return nil, fmt.Errorf("parse created_at %q: %w", created, err)
		}
		m.Kind = model.MediaKind(kind)
		if hashtags != "" {
			m.Hashtags = strings.Split(hashtags, " ")
		}
		if urls != "" {
			m.URLs = strings.Split(urls, " ")
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}
