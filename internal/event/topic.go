package event

import "strings"

// Topic represents a hierarchical event type using dot notation.
// Examples: "scene.object.added", "config.reloaded".
type Topic string

// Wildcard constants for pattern matching.
const (
	// WildcardSingle matches exactly one segment.
	WildcardSingle = "*"

	// WildcardMulti matches zero or more trailing segments.
	WildcardMulti = "**"

	// Separator is the character used to separate topic segments.
	Separator = "."
)

// String returns the topic as a string.
func (t Topic) String() string {
	return string(t)
}

// Segments returns the topic split by the separator.
func (t Topic) Segments() []string {
	if t == "" {
		return nil
	}
	return strings.Split(string(t), Separator)
}

// IsValid returns true if the topic is non-empty and has no empty segments.
func (t Topic) IsValid() bool {
	if t == "" {
		return false
	}
	for _, seg := range t.Segments() {
		if seg == "" {
			return false
		}
	}
	return true
}

// Matches reports whether the concrete topic t matches pattern.
// A "*" segment matches exactly one segment; a trailing "**" matches
// zero or more segments.
func (t Topic) Matches(pattern Topic) bool {
	return matchSegments(t.Segments(), pattern.Segments())
}

func matchSegments(topic, pattern []string) bool {
	for i, p := range pattern {
		if p == WildcardMulti {
			return i == len(pattern)-1
		}
		if i >= len(topic) {
			return false
		}
		if p != WildcardSingle && p != topic[i] {
			return false
		}
	}
	return len(topic) == len(pattern)
}
