package cards

import (
	"strings"

	"github.com/starford/decknotes/internal/models"
)

// BuildEmbedText wraps a card in a collapsed callout block:
//
//	> [!tip]- Heading
//	> first content line
//	> second content line
func BuildEmbedText(c models.Card, calloutType string) string {
	lines := strings.Split(c.Content, "\n")
	out := make([]string, 0, len(lines)+1)
	out = append(out, "> [!"+calloutType+"]- "+c.Heading)
	for _, line := range lines {
		out = append(out, "> "+line)
	}
	return strings.Join(out, "\n")
}
