package tree

import (
	"regexp"
	"strings"
)

const (
	summaryUnavailable = "Content summary unavailable"
	summaryEmpty       = "Empty content"

	boldMinLen        = 3
	substantiveMinLen = 10
	sentenceMaxLen    = 60
	fallbackMaxLen    = 50
)

var (
	boldRe     = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	headingRe  = regexp.MustCompile(`(?m)^#+\s+(.+)$`)
	listItemRe = regexp.MustCompile(`^(\d+\.|[-*#])`)
)

// Summarize derives a one-line summary from markdown content. It
// prefers explicit emphasis, then structure, then prose, before giving
// up with a placeholder.
func Summarize(content string) string {
	if strings.TrimSpace(content) == "" {
		return summaryEmpty
	}

	if m := boldRe.FindStringSubmatch(content); m != nil {
		if span := strings.TrimSpace(m[1]); len(span) > boldMinLen {
			return span
		}
	}

	if m := headingRe.FindStringSubmatch(content); m != nil {
		return strings.TrimSpace(m[1])
	}

	lines := strings.Split(content, "\n")
	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" || listItemRe.MatchString(line) || len(line) <= substantiveMinLen {
			continue
		}
		sentence := line
		if idx := strings.Index(line, ". "); idx >= 0 {
			sentence = line[:idx+1]
		}
		if len(sentence) > sentenceMaxLen {
			return sentence[:sentenceMaxLen] + "..."
		}
		return sentence
	}

	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if len(line) > fallbackMaxLen {
			return line[:fallbackMaxLen]
		}
		return line
	}

	return summaryUnavailable
}
