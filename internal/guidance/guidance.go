// Package guidance parses the semi-structured guidance strings attached to
// slides, such as "Goal: show growth, Content: Q3 revenue trend, Style: line chart".
package guidance

import (
	"strings"
	"unicode"
)

// Well-known labels used by the request builder.
const (
	LabelGoal    = "goal"
	LabelContent = "content"
	LabelStyle   = "style"
)

// Parse splits s into lower-cased labels and trimmed values.
//
// Segments are separated by commas and take the form "label: value". Labels
// are letters, spaces, underscores or hyphens; markdown emphasis such as
// "**Goal:**" is ignored. A segment that does not start with a label
// continues the previous value, so commas and colons inside a value
// survive. Unlabeled text before the first label, empty labels and empty
// values are dropped. A repeated label keeps its last value. Parse never
// fails; empty input yields an empty map.
func Parse(s string) map[string]string {
	out := make(map[string]string)
	if strings.TrimSpace(s) == "" {
		return out
	}

	var (
		label string
		value strings.Builder
	)
	flush := func() {
		if label == "" {
			return
		}
		if v := trimEmphasis(value.String()); v != "" {
			out[label] = v
		}
		label = ""
		value.Reset()
	}

	for _, seg := range strings.Split(s, ",") {
		if k, v, ok := splitLabel(seg); ok {
			flush()
			label = k
			value.WriteString(v)
			continue
		}
		if label == "" {
			continue
		}
		value.WriteString(",")
		value.WriteString(seg)
	}
	flush()

	return out
}

// Field returns the value for key, or "" when it is absent.
func Field(m map[string]string, key string) string {
	return m[strings.ToLower(key)]
}

// splitLabel recognises "label: value", with or without emphasis markers
// around the label.
func splitLabel(seg string) (string, string, bool) {
	i := strings.IndexByte(seg, ':')
	if i < 0 {
		return "", "", false
	}
	label := strings.ToLower(trimEmphasis(seg[:i]))
	if label == "" || len(label) > 32 {
		return "", "", false
	}
	for _, r := range label {
		if !unicode.IsLetter(r) && r != ' ' && r != '_' && r != '-' {
			return "", "", false
		}
	}
	return label, seg[i+1:], true
}

// trimEmphasis strips surrounding whitespace and markdown * or _ markers.
func trimEmphasis(s string) string {
	return strings.TrimSpace(strings.Trim(strings.TrimSpace(s), "*_"))
}
