package sink

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"tg_export/internal/model"
)

var testMessages = []model.Message{
	{
		ID:        101,
		Timestamp: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC),
		Text:      "read this https://example.com #reading",
		Kind:      model.KindText,
		Hashtags:  []string{"reading"},
		URLs:      []string{"https://example.com"},
	},
	{
		ID:        100,
		Timestamp: time.Date(2024, 4, 30, 18, 30, 0, 0, time.UTC),
		Kind:      model.KindPhoto,
	},
}

func TestFormatForPath(t *testing.T) {
	tests := []struct {
		path string
		want Format
	}{
		{path: "export.json", want: FormatJSON},
		{path: "export.csv", want: FormatCSV},
		{path: "notes.md", want: FormatMarkdown},
		{path: "notes.markdown", want: FormatMarkdown},
		{path: "archive.db", want: FormatSQLite},
		{path: "archive.sqlite", want: FormatSQLite},
		{path: "dump.txt", want: FormatText},
		{path: "no_extension", want: FormatText},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, FormatForPath(tt.path)); diff != "" {
				t.Errorf("FormatForPath mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func writeAll(t *testing.T, s Sink, msgs []model.Message) {
	t.Helper()
	ctx := context.Background()
	if err := s.Open(ctx); err != nil {
		t.Fatalf("open: %v", err)
	}
	for _, m := range msgs {
		if _, err := s.Write(ctx, m); err != nil {
			t.Fatalf("write %d: %v", m.ID, err)
		}
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestJSONSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.json")
	writeAll(t, NewFile(path), testMessages)

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}

	var records []map[string]any
	if err := json.Unmarshal(data, &records); err != nil {
		t.Fatalf("unmarshal export: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if diff := cmp.Diff(float64(101), records[0]["id"]); diff != "" {
		t.Errorf("first record id mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff("Photo", records[1]["type"]); diff != "" {
		t.Errorf("second record type mismatch (-want +got):\n%s", diff)
	}
}

func TestJSONSinkEmptyRunWritesArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.json")
	writeAll(t, NewFile(path), nil)

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	var records []any
	if err := json.Unmarshal(data, &records); err != nil {
		t.Fatalf("expected a valid JSON array, got: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected empty array, got %d records", len(records))
	}
}

func TestCSVSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.csv")
	writeAll(t, NewFile(path), testMessages)

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open export: %v", err)
	}
	defer func() { _ = f.Close() }()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}

	want := [][]string{
		{"ID", "Date", "Type", "Text", "URLs", "Hashtags"},
		{"101", "2024-05-01T09:00:00Z", "Text", "read this https://example.com #reading", "https://example.com", "reading"},
		{"100", "2024-04-30T18:30:00Z", "Photo", "", "", ""},
	}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Errorf("csv rows mismatch (-want +got):\n%s", diff)
	}
}

func TestMarkdownSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.md")
	writeAll(t, NewFile(path), testMessages)

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	content := string(data)

	for _, fragment := range []string{
		"# Telegram Saved Messages Export",
		"## [Text] 2024-05-01 09:00",
		"## [Photo] 2024-04-30 18:30",
		"**Links:**\n- https://example.com",
	} {
		if !strings.Contains(content, fragment) {
			t.Errorf("markdown export missing %q", fragment)
		}
	}
}

func TestTextSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.txt")
	writeAll(t, NewFile(path), testMessages)

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	content := string(data)

	for _, fragment := range []string{
		"Message ID: 101",
		"Hashtags: #reading",
		"URLs: https://example.com",
		"Message ID: 100",
		"Type: Photo",
		"(no text)",
	} {
		if !strings.Contains(content, fragment) {
			t.Errorf("text export missing %q", fragment)
		}
	}
}

func TestFileSinkTruncatesPreviousRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.txt")
	writeAll(t, NewFile(path), testMessages)
	writeAll(t, NewFile(path), testMessages[:1])

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if strings.Contains(string(data), "Message ID: 100") {
		t.Error("expected second run to start fresh")
	}
}

func TestWriteBeforeOpenFails(t *testing.T) {
	s := NewFile(filepath.Join(t.TempDir(), "export.txt"))
	if _, err := s.Write(context.Background(), testMessages[0]); err == nil {
		t.Fatal("expected error writing to unopened sink")
	}
}

// File sinks expose their path for duplicate-target detection.
var _ interface{ Path() string } = (*File)(nil)
var _ Sink = (*File)(nil)
