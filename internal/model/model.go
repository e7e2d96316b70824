// Package model defines the domain types used across the application.
package model

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

// MediaKind classifies what a message carries besides (or instead of) text.
type MediaKind string

// Supported media kinds. KindGIF covers Telegram animations.
const (
	KindText     MediaKind = "Text"
	KindPhoto    MediaKind = "Photo"
	KindVideo    MediaKind = "Video"
	KindDocument MediaKind = "Document"
	KindAudio    MediaKind = "Audio"
	KindVoice    MediaKind = "Voice"
	KindGIF      MediaKind = "GIF"
	KindSticker  MediaKind = "Sticker"
	KindPoll     MediaKind = "Poll"
	KindLocation MediaKind = "Location"
	KindContact  MediaKind = "Contact"
	KindOther    MediaKind = "Other"
)

// Kinds lists every media kind in display order.
var Kinds = []MediaKind{
	KindText, KindPhoto, KindVideo, KindDocument, KindAudio, KindVoice,
	KindGIF, KindSticker, KindPoll, KindLocation, KindContact, KindOther,
}

// ParseMediaKind resolves a case-insensitive kind name.
// "animation" is accepted as an alias for GIF.
func ParseMediaKind(s string) (MediaKind, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "animation" {
		return KindGIF, nil
	}
	for _, k := range Kinds {
		if strings.ToLower(string(k)) == name {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown message type %q", s)
}

// Message is one immutable record from the saved-messages history.
// IDs are unique and non-decreasing in fetch order. Text is empty when the
// message has no body or caption. Hashtags and URLs are derived from Text.
type Message struct {
	ID        int64
	Timestamp time.Time
	Text      string
	Kind      MediaKind
	MediaURL  string
	Hashtags  []string
	URLs      []string
}

var (
	// \w in RE2 is ASCII-only; hashtags may carry any Unicode letter.
	hashtagRe = regexp.MustCompile(`#([\p{L}\p{N}_]+)`)
	urlRe     = regexp.MustCompile(`https?://[^\s<>"']+`)
)

// ExtractHashtags returns the hashtags found in text, without the leading
// '#', deduplicated, in order of first appearance.
func ExtractHashtags(text string) []string {
	if text == "" {
		return nil
	}
	var tags []string
	seen := map[string]bool{}
	for _, m := range hashtagRe.FindAllStringSubmatch(text, -1) {
		if seen[m[1]] {
			continue
		}
		seen[m[1]] = true
		tags = append(tags, m[1])
	}
	return tags
}

// ExtractURLs returns the http/https URLs found in text, deduplicated, in
// order of first appearance.
func ExtractURLs(text string) []string {
	if text == "" {
		return nil
	}
	var urls []string
	seen := map[string]bool{}
	for _, u := range urlRe.FindAllString(text, -1) {
		if seen[u] {
			continue
		}
		seen[u] = true
		urls = append(urls, u)
	}
	return urls
}

const titleLimit = 100

// Title derives a short title: the first line of the text truncated to 100
// runes, or a "<Kind> message" placeholder when there is no text.
func (m Message) Title() string {
	text := strings.TrimSpace(m.Text)
	if text == "" {
		return fmt.Sprintf("%s message", m.Kind)
	}
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = strings.TrimSpace(text[:i])
	}
	return truncate(text, titleLimit)
}

// Preview returns a one-line excerpt of the message body for display.
func (m Message) Preview() string {
	text := strings.ReplaceAll(m.Text, "\n", " ")
	if strings.TrimSpace(text) == "" {
		return "(no text)"
	}
	return truncate(text, 80)
}

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit]) + "..."
}
