package model

import (
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestExtractHashtags(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{name: "empty text", text: "", want: nil},
		{name: "no hashtags", text: "plain text with no tags", want: nil},
		{name: "single hashtag", text: "remember #project notes", want: []string{"project"}},
		{name: "multiple hashtags", text: "#work #project deadline", want: []string{"work", "project"}},
		{name: "duplicates collapse", text: "#go tips #go tricks", want: []string{"go"}},
		{name: "unicode word characters", text: "#дом and #work2", want: []string{"дом", "work2"}},
		{name: "hash without word", text: "# not a tag", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractHashtags(tt.text)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ExtractHashtags mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestExtractURLs(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{name: "empty text", text: "", want: nil},
		{name: "no urls", text: "nothing to see", want: nil},
		{
			name: "single url",
			text: "check https://example.com/page out",
			want: []string{"https://example.com/page"},
		},
		{
			name: "http and https",
			text: "http://a.example and https://b.example/x?q=1",
			want: []string{"http://a.example", "https://b.example/x?q=1"},
		},
		{
			name: "duplicates collapse",
			text: "https://example.com and again https://example.com",
			want: []string{"https://example.com"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractURLs(tt.text)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ExtractURLs mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseMediaKind(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    MediaKind
		wantErr bool
	}{
		{name: "exact", input: "Photo", want: KindPhoto},
		{name: "lowercase", input: "video", want: KindVideo},
		{name: "animation alias", input: "animation", want: KindGIF},
		{name: "gif", input: "GIF", want: KindGIF},
		{name: "whitespace trimmed", input: " text ", want: KindText},
		{name: "unknown", input: "hologram", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMediaKind(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ParseMediaKind mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestTitle(t *testing.T) {
	tests := []struct {
		name string
		msg  Message
		want string
	}{
		{
			name: "short text",
			msg:  Message{Text: "buy milk", Kind: KindText},
			want: "buy milk",
		},
		{
			name: "first line only",
			msg:  Message{Text: "heading\nrest of the note", Kind: KindText},
			want: "heading",
		},
		{
			name: "long line truncated",
			msg:  Message{Text: strings.Repeat("a", 150), Kind: KindText},
			want: strings.Repeat("a", 100) + "...",
		},
		{
			name: "no text falls back to kind placeholder",
			msg:  Message{Kind: KindPhoto},
			want: "Photo message",
		},
		{
			name: "whitespace only is placeholder",
			msg:  Message{Text: "   \n ", Kind: KindVoice},
			want: "Voice message",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, tt.msg.Title()); diff != "" {
				t.Errorf("Title mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestPreview(t *testing.T) {
	msg := Message{
		Text:      "line one\nline two",
		Kind:      KindText,
		Timestamp: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	if diff := cmp.Diff("line one line two", msg.Preview()); diff != "" {
		t.Errorf("Preview mismatch (-want +got):\n%s", diff)
	}

	empty := Message{Kind: KindSticker}
	if diff := cmp.Diff("(no text)", empty.Preview()); diff != "" {
		t.Errorf("empty Preview mismatch (-want +got):\n%s", diff)
	}
}
