// Package cards implements the card pipeline: splitting markdown documents into
// cards, deriving deck tags, and choosing the next card to show.
package cards

import (
	"regexp"
	"sort"
	"strings"
)

const tagMarker = "flashcards"

var inlineTagRe = regexp.MustCompile(`#flashcards(?:/[\w-]+)*`)

// NormalizeTag converts a raw "#flashcards/deck/subdeck" token into the deck tag
// "deck/subdeck". A bare "#flashcards" marker and anything outside the
// flashcards namespace are rejected.
func NormalizeTag(raw string) (string, bool) {
	cleaned := strings.TrimPrefix(raw, "#")
	if !strings.HasPrefix(cleaned, tagMarker) || cleaned == tagMarker {
		return "", false
	}
	rest, ok := strings.CutPrefix(cleaned, tagMarker+"/")
	if !ok || rest == "" {
		return "", false
	}
	return rest, true
}

// FileTags normalizes frontmatter tag tokens, dropping rejected ones.
func FileTags(raw []string) []string {
	var out []string
	for _, t := range raw {
		if n, ok := NormalizeTag(t); ok {
			out = append(out, n)
		}
	}
	return out
}

// InlineTags returns the normalized deck tags of every #flashcards marker in text.
func InlineTags(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		for _, m := range inlineTagRe.FindAllString(strings.TrimSpace(line), -1) {
			if n, ok := NormalizeTag(m); ok {
				out = append(out, n)
			}
		}
	}
	return out
}

// isTagLine reports whether line holds nothing but a flashcards marker.
func isTagLine(line string) bool {
	return strings.HasPrefix(strings.TrimSpace(line), "#"+tagMarker)
}

// mergeTags unions the given tag lists, keeping the first occurrence of each.
func mergeTags(lists ...[]string) []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, list := range lists {
		for _, t := range list {
			if _, dup := seen[t]; dup {
				continue
			}
			seen[t] = struct{}{}
			out = append(out, t)
		}
	}
	return out
}

// sortedKeys returns the keys of set in ascending order.
func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
