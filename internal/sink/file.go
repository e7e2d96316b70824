package sink

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"tg_export/internal/model"
)

// Format is a local file serialization format.
type Format string

// Supported file formats.
const (
	FormatJSON     Format = "json"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
	FormatText     Format = "text"
	FormatSQLite   Format = "sqlite"
)

// FormatForPath infers the format from the file extension.
// Unknown extensions fall back to plain text, matching the historical
// default of a single .txt export file.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".csv":
		return FormatCSV
	case ".md", ".markdown":
		return FormatMarkdown
	case ".db", ".sqlite", ".sqlite3":
		return FormatSQLite
	default:
		return FormatText
	}
}

// NewFile creates a file sink for path, picking the writer by extension.
// SQLite paths get the archive sink; everything else a serializing writer.
func NewFile(path string) Sink {
	if FormatForPath(path) == FormatSQLite {
		return NewArchive(path)
	}
	return &File{path: path, format: FormatForPath(path)}
}

// jsonRecord is the shape of one message in a JSON export.
type jsonRecord struct {
	ID       int64    `json:"id"`
	Date     string   `json:"date"`
	Type     string   `json:"type"`
	Text     string   `json:"text"`
	URLs     []string `json:"urls"`
	Hashtags []string `json:"hashtags"`
}

// File writes accepted messages to a local file. JSON buffers records and
// writes one array at Close; the other formats append incrementally.
type File struct {
	path   string
	format Format
	f      *os.File
	csv    *csv.Writer
	buf    []jsonRecord
}

// Name returns the format name.
func (s *File) Name() string { return string(s.format) }

// Path returns the destination path. The pipeline uses it to reject two
// file sinks sharing one path.
func (s *File) Path() string { return s.path }

// Open creates (or truncates) the destination file and writes any header.
func (s *File) Open(_ context.Context) error {
	if s.f != nil {
		return nil
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("create export directory: %w", err)
		}
	}
	f, err := os.Create(s.path)
	if err != nil {
		return fmt.Errorf("create %s: %w", s.path, err)
	}
	s.f = f

	switch s.format {
	case FormatCSV:
		s.csv = csv.NewWriter(f)
		if err := s.csv.Write([]string{"ID", "Date", "Type", "Text", "URLs", "Hashtags"}); err != nil {
			return fmt.Errorf("write csv header: %w", err)
		}
	case FormatMarkdown:
		header := fmt.Sprintf("# Telegram Saved Messages Export\n\nExported: %s\n\n---\n\n",
			time.Now().UTC().Format("2006-01-02 15:04"))
		if _, err := f.WriteString(header); err != nil {
			return fmt.Errorf("write markdown header: %w", err)
		}
	}
	return nil
}

// Write appends one message in the target format.
func (s *File) Write(_ context.Context, msg model.Message) (Outcome, error) {
	if s.f == nil {
		return 0, fmt.Errorf("sink %s is not open", s.format)
	}

	switch s.format {
	case FormatJSON:
		s.buf = append(s.buf, jsonRecord{
			ID:       msg.ID,
			Date:     msg.Timestamp.Format(time.RFC3339),
			Type:     string(msg.Kind),
			Text:     msg.Text,
			URLs:     msg.URLs,
			Hashtags: msg.Hashtags,
		})
		return Written, nil

	case FormatCSV:
		err := s.csv.Write([]string{
			fmt.Sprintf("%d", msg.ID),
			msg.Timestamp.Format(time.RFC3339),
			string(msg.Kind),
			msg.Text,
			strings.Join(msg.URLs, ", "),
			strings.Join(msg.Hashtags, ", "),
		})
		if err != nil {
			return 0, fmt.Errorf("write csv record: %w", err)
		}
		return Written, nil

	case FormatMarkdown:
		if _, err := s.f.WriteString(markdownBlock(msg)); err != nil {
			return 0, fmt.Errorf("write markdown block: %w", err)
		}
		return Written, nil

	default:
		if _, err := s.f.WriteString(textBlock(msg)); err != nil {
			return 0, fmt.Errorf("write text block: %w", err)
		}
		return Written, nil
	}
}

// Close flushes buffered output and closes the file.
func (s *File) Close() error {
	if s.f == nil {
		return nil
	}
	defer func() { s.f = nil }()

	switch s.format {
	case FormatJSON:
		records := s.buf
		if records == nil {
			records = []jsonRecord{}
		}
		data, err := json.MarshalIndent(records, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal export: %w", err)
		}
		if _, err := s.f.Write(append(data, '\n')); err != nil {
			return fmt.Errorf("write export: %w", err)
		}
	case FormatCSV:
		s.csv.Flush()
		if err := s.csv.Error(); err != nil {
			return fmt.Errorf("flush csv: %w", err)
		}
	}
	return s.f.Close()
}

func markdownBlock(msg model.Message) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## [%s] %s\n\n", msg.Kind, msg.Timestamp.Format("2006-01-02 15:04"))
	if msg.Text != "" {
		b.WriteString(msg.Text)
		b.WriteString("\n\n")
	}
	if len(msg.URLs) > 0 {
		b.WriteString("**Links:**\n")
		for _, u := range msg.URLs {
			fmt.Fprintf(&b, "- %s\n", u)
		}
		b.WriteString("\n")
	}
	b.WriteString("---\n\n")
	return b.String()
}

func textBlock(msg model.Message) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Message ID: %d\n", msg.ID)
	fmt.Fprintf(&b, "Date: %s\n", msg.Timestamp.Format(time.RFC3339))
	fmt.Fprintf(&b, "Type: %s\n", msg.Kind)
	if len(msg.Hashtags) > 0 {
		fmt.Fprintf(&b, "Hashtags: #%s\n", strings.Join(msg.Hashtags, " #"))
	}
	if len(msg.URLs) > 0 {
		fmt.Fprintf(&b, "URLs: %s\n", strings.Join(msg.URLs, " "))
	}
	b.WriteString("\n")
	if msg.Text != "" {
		b.WriteString(msg.Text)
	} else {
		b.WriteString("(no text)")
	}
	b.WriteString("\n\n")
	return b.String()
}
