package cards

import (
	"slices"
	"testing"
)

func TestNormalizeTag(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"#flashcards", "", false},
		{"flashcards", "", false},
		{"#flashcards/x", "x", true},
		{"flashcards/x/y", "x/y", true},
		{"#flashcards/activities/morning", "activities/morning", true},
		{"#other", "", false},
		{"", "", false},
		{"#flashcardsX", "", false},
		{"#flashcards/", "", false},
		{"##flashcards/x", "", false},
	}
	for _, c := range cases {
		got, ok := NormalizeTag(c.in)
		if got != c.want || ok != c.ok {
			t.Errorf("NormalizeTag(%q) = (%q, %v), want (%q, %v)", c.in, got, ok, c.want, c.ok)
		}
	}
}

func TestInlineTags_ScansEveryLine(t *testing.T) {
	text := "intro #flashcards/a and #flashcards/b/c\n#flashcards\n  #flashcards/d-e  \n#other/x"
	got := InlineTags(text)
	want := []string{"a", "b/c", "d-e"}
	if !slices.Equal(got, want) {
		t.Errorf("InlineTags = %v, want %v", got, want)
	}
}

func TestFileTags_DropsForeignTags(t *testing.T) {
	got := FileTags([]string{"flashcards/x", "journal", "#flashcards/y", "flashcards"})
	if !slices.Equal(got, []string{"x", "y"}) {
		t.Errorf("FileTags = %v", got)
	}
}

func TestLowerKebab(t *testing.T) {
	cases := map[string]string{
		"Morning Walk":       "morning-walk",
		"camelCase heading":  "camel-case-heading",
		"snake_case  spaced": "snake-case-spaced",
		"What? (really!)":    "what-really",
		"Deep\u00a0Breath":   "deep-breath",
		"Em\u2003Space":      "em-space",
		"":                   "",
	}
	for in, want := range cases {
		if got := LowerKebab(in); got != want {
			t.Errorf("LowerKebab(%q) = %q, want %q", in, got, want)
		}
	}
}
