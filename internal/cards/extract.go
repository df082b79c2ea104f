package cards

import (
	"strings"

	"github.com/starford/decknotes/internal/models"
)

// Extract splits one document into cards, one per level-2 heading, in heading
// order. headings must be sorted by position and non-overlapping; Start/End
// are byte offsets into text of the heading line start and line end.
//
// The second return value is false when the document has no level-2
// headings and was skipped.
func Extract(path, text string, headings []models.Heading, fileTags []string) ([]models.Card, bool) {
	if len(headings) == 0 {
		return nil, false
	}

	fileLevel := FileTags(fileTags)
	out := make([]models.Card, 0, len(headings))

	for i, h := range headings {
		end := len(text)
		if i+1 < len(headings) {
			end = headings[i+1].Start
		}

		// Inline tags live between the previous heading and this one.
		zoneStart := 0
		if i > 0 {
			zoneStart = headings[i-1].End
		}
		tags := mergeTags(fileLevel, InlineTags(text[zoneStart:h.Start]))

		out = append(out, models.Card{
			Key:     path + "#" + h.Text,
			Hash:    LowerKebab(h.Text),
			Path:    path,
			Heading: h.Text,
			Content: cleanContent(text[h.End:end]),
			Tags:    tags,
		})
	}
	return out, true
}

// cleanContent truncates a raw section at its first horizontal rule, drops
// lines that only carry a flashcards tag, and trims the result.
func cleanContent(raw string) string {
	raw = truncateAtRule(raw)
	lines := strings.Split(raw, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if !isTagLine(line) {
			kept = append(kept, line)
		}
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}

// truncateAtRule cuts s at the first newline followed by a "---" line.
func truncateAtRule(s string) string {
	const rule = "\n---"
	for from := 0; ; {
		i := strings.Index(s[from:], rule)
		if i < 0 {
			return s
		}
		i += from
		rest := s[i+len(rule):]
		lineEnd := strings.IndexByte(rest, '\n')
		if lineEnd < 0 {
			lineEnd = len(rest)
		}
		if strings.TrimRight(rest[:lineEnd], " \t\r") == "" {
			return s[:i]
		}
		from = i + 1
	}
}
