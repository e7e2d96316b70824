// Package filter implements the message matching engine.
//
// A Spec is a set of independent clauses. Clauses of different categories
// combine with AND; values within one category (hashtags, types) combine
// with OR. A Spec with no clauses matches every message.
package filter

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"tg_export/internal/model"
)

// Options describes the clauses of a filter, as collected from the CLI.
type Options struct {
	// Word is a case-insensitive regular expression matched against the
	// message text. Use | for alternatives: "python|javascript".
	Word string
	// Hashtags match when the message carries at least one of them.
	// A leading '#' is allowed and ignored; comparison is case-insensitive.
	Hashtags []string
	// Types match when the message kind is one of them.
	Types []string
	// HasURL keeps only messages containing at least one URL.
	HasURL bool
	// HasMedia keeps only messages carrying media (kind is neither Text
	// nor Other). Mutually exclusive with NoMedia.
	HasMedia bool
	// NoMedia keeps only plain text messages.
	NoMedia bool
}

// Spec is an immutable, compiled filter. Construct it with New.
type Spec struct {
	word     *regexp.Regexp
	wordRaw  string
	hashtags map[string]bool
	kinds    map[model.MediaKind]bool
	hasURL   bool
	hasMedia bool
	noMedia  bool
}

// New validates and compiles a filter specification.
func New(opts Options) (*Spec, error) {
	if opts.HasMedia && opts.NoMedia {
		return nil, fmt.Errorf("-has-media and -no-media are mutually exclusive")
	}

	s := &Spec{
		wordRaw:  opts.Word,
		hasURL:   opts.HasURL,
		hasMedia: opts.HasMedia,
		noMedia:  opts.NoMedia,
	}

	if opts.Word != "" {
		re, err := regexp.Compile("(?i)" + opts.Word)
		if err != nil {
			return nil, fmt.Errorf("invalid word pattern %q: %w", opts.Word, err)
		}
		s.word = re
	}

	if len(opts.Hashtags) > 0 {
		s.hashtags = make(map[string]bool, len(opts.Hashtags))
		for _, tag := range opts.Hashtags {
			tag = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(tag), "#"))
			if tag == "" {
				continue
			}
			s.hashtags[tag] = true
		}
	}

	if len(opts.Types) > 0 {
		s.kinds = make(map[model.MediaKind]bool, len(opts.Types))
		for _, name := range opts.Types {
			kind, err := model.ParseMediaKind(name)
			if err != nil {
				return nil, err
			}
			s.kinds[kind] = true
		}
	}

	return s, nil
}

// Match reports whether a message passes every configured clause.
// Cheap structural clauses are evaluated before the keyword regex; all
// clauses are pure, so the order is not observable.
func (s *Spec) Match(m model.Message) bool {
	if s.hasURL && len(m.URLs) == 0 {
		return false
	}
	if s.hasMedia && (m.Kind == model.KindText || m.Kind == model.KindOther) {
		return false
	}
	if s.noMedia && m.Kind != model.KindText {
		return false
	}
	if len(s.kinds) > 0 && !s.kinds[m.Kind] {
		return false
	}
	if len(s.hashtags) > 0 {
		found := false
		for _, tag := range m.Hashtags {
			if s.hashtags[strings.ToLower(tag)] {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	// Messages without text are matched against the empty string: only a
	// pattern that matches empty input accepts them.
	if s.word != nil && !s.word.MatchString(m.Text) {
		return false
	}
	return true
}

// Describe lists the active clauses for display, or "none (all messages)".
func (s *Spec) Describe() string {
	var parts []string
	if s.wordRaw != "" {
		parts = append(parts, fmt.Sprintf("word: %q", s.wordRaw))
	}
	if len(s.hashtags) > 0 {
		tags := make([]string, 0, len(s.hashtags))
		for tag := range s.hashtags {
			tags = append(tags, "#"+tag)
		}
		sort.Strings(tags)
		parts = append(parts, "hashtags: "+strings.Join(tags, ", "))
	}
	if len(s.kinds) > 0 {
		var names []string
		for _, k := range model.Kinds {
			if s.kinds[k] {
				names = append(names, string(k))
			}
		}
		parts = append(parts, "types: "+strings.Join(names, ", "))
	}
	if s.hasURL {
		parts = append(parts, "has URL")
	}
	if s.hasMedia {
		parts = append(parts, "has media")
	}
	if s.noMedia {
		parts = append(parts, "text only")
	}
	if len(parts) == 0 {
		return "none (all messages)"
	}
	return strings.Join(parts, " | ")
}
