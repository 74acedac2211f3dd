package pipeline

import (
	"strings"
	"time"
)

var dateFormats = []string{
	"2006-01-02",
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05-07:00",
	time.RFC3339,
}

func isValidDate(value string) bool {
	if value == "" {
		return false
	}
	for _, format := range dateFormats {
		if _, err := time.Parse(format, value); err == nil {
			return true
		}
	}
	return false
}

// withOwner returns the de-duplicated assignees with the owner included.
func withOwner(assignees []string, owner string) []string {
	seen := map[string]bool{}
	out := []string{}
	for _, id := range assignees {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	if owner != "" && !seen[owner] {
		out = append(out, owner)
	}
	return out
}

func trimmed(p *string) string {
	if p == nil {
		return ""
	}
	return strings.TrimSpace(*p)
}
