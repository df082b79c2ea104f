// Package parser extracts frontmatter tags and level-2 heading positions from Markdown content.
package parser

import (
	"bytes"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"gopkg.in/yaml.v3"

	"github.com/starford/decknotes/internal/models"
)

// CardHeadingLevel is the heading level that starts a card.
const CardHeadingLevel = 2

var md = goldmark.New()

// Result holds the output of parsing a Markdown file.
type Result struct {
	Frontmatter map[string]any
	// BodyOffset is the byte offset where the body starts after frontmatter.
	BodyOffset int
	// Headings are the level-2 ATX headings, offsets relative to the whole file.
	Headings []models.Heading
	// Tags are the raw frontmatter tag tokens.
	Tags []string
}

// Parse extracts frontmatter and level-2 headings from raw Markdown bytes.
func Parse(data []byte) (*Result, error) {
	fm, bodyOffset := splitFrontmatter(data)
	return &Result{
		Frontmatter: fm,
		BodyOffset:  bodyOffset,
		Headings:    extractHeadings(data[bodyOffset:], bodyOffset),
		Tags:        frontmatterTags(fm),
	}, nil
}

// splitFrontmatter finds YAML frontmatter between --- delimiters at the very
// start of data and returns it together with the offset of the first body
// byte. Without frontmatter (or with invalid YAML) the body starts at 0.
func splitFrontmatter(data []byte) (map[string]any, int) {
	const delim = "---"
	if !bytes.HasPrefix(data, []byte(delim)) {
		return nil, 0
	}

	rest := data[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		return nil, 0
	}

	yamlBlock := rest[:idx]
	bodyOffset := len(delim) + idx + 1 + len(delim)
	// Body starts on the line after the closing delimiter.
	if nl := bytes.IndexByte(data[bodyOffset:], '\n'); nl >= 0 {
		bodyOffset += nl + 1
	} else {
		bodyOffset = len(data)
	}

	var fm map[string]any
	if err := yaml.Unmarshal(yamlBlock, &fm); err != nil {
		return nil, 0
	}
	return fm, bodyOffset
}

// extractHeadings walks the Markdown AST of body and returns every level-2
// ATX heading. base is added to all offsets. Setext headings are ignored so a
// "---" line under a paragraph stays a card divider.
func extractHeadings(body []byte, base int) []models.Heading {
	doc := md.Parser().Parse(text.NewReader(body))

	var out []models.Heading
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		h, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}
		if h.Level != CardHeadingLevel || h.Lines().Len() == 0 {
			return ast.WalkSkipChildren, nil
		}

		seg := h.Lines().At(0)
		start := bytes.LastIndexByte(body[:seg.Start], '\n') + 1
		if !bytes.HasPrefix(bytes.TrimLeft(body[start:seg.Start], " "), []byte("#")) {
			return ast.WalkSkipChildren, nil
		}
		end := len(body)
		if nl := bytes.IndexByte(body[seg.Start:], '\n'); nl >= 0 {
			end = seg.Start + nl
		}

		title := strings.TrimSpace(string(seg.Value(body)))
		if title == "" {
			return ast.WalkSkipChildren, nil
		}
		out = append(out, models.Heading{
			Text:  title,
			Level: h.Level,
			Start: base + start,
			End:   base + end,
		})
		return ast.WalkSkipChildren, nil
	})
	return out
}

// frontmatterTags collects the "tags" field as a list of raw tokens. Lists,
// maps (keys), and comma or space separated strings are accepted.
func frontmatterTags(fm map[string]any) []string {
	if fm == nil {
		return nil
	}
	var out []string
	switch v := fm["tags"].(type) {
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok {
				if s = strings.TrimSpace(s); s != "" {
					out = append(out, s)
				}
			}
		}
	case map[string]any:
		for k := range v {
			out = append(out, k)
		}
		sort.Strings(out)
	case string:
		out = strings.FieldsFunc(v, func(r rune) bool {
			return r == ',' || r == ' '
		})
	}
	return out
}
