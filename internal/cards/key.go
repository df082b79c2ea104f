package cards

import (
	"regexp"
	"strings"
)

var (
	kebabSepRe   = regexp.MustCompile(`[\s\p{Zs}_]+`)
	kebabStripRe = regexp.MustCompile(`[^0-9a-zA-Z_-]`)
	kebabCamelRe = regexp.MustCompile(`([a-z])([A-Z])`)
)

// LowerKebab turns a heading into a compact hash-safe key:
// "Morning Walk" -> "morning-walk", "camelCase" -> "camel-case".
func LowerKebab(name string) string {
	s := kebabSepRe.ReplaceAllString(name, "-")
	s = kebabStripRe.ReplaceAllString(s, "")
	s = kebabCamelRe.ReplaceAllString(s, "$1-$2")
	return strings.ToLower(s)
}
