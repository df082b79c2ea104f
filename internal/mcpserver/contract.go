package mcpserver

// CardFormatContract describes how Markdown documents are split into cards,
// for LLM consumers that write decks.
const CardFormatContract = `# decknotes Card Format

Every level-2 heading in a configured document starts a card.

## Structure

` + "```" + `markdown
---
tags:                               # OPTIONAL – deck tags for every card in the file
  - flashcards/coping
---

# Document title                     (level-1 headings are ignored)

## Box breathing                     (card heading, becomes the card name)
Breathe in for four, hold for four, out for four.

#flashcards/coping/quick
## Grounding
Name five things you can see.
---
Anything after a "---" line is private and never shown.
` + "```" + `

## Rules

1. **Cards** start at a ` + "`" + `## ` + "`" + ` heading and end at the next one or the end of the file.
   Only ATX headings (` + "`" + `## Title` + "`" + `) count. A document without them is skipped.
2. **Deck tags** live in the ` + "`" + `flashcards` + "`" + ` namespace: ` + "`" + `#flashcards/deck/subdeck` + "`" + ` puts a
   card in deck ` + "`" + `deck/subdeck` + "`" + `. A bare ` + "`" + `#flashcards` + "`" + ` is only a marker.
3. **Frontmatter tags** apply to every card of the document.
4. **Inline tags** apply to the card whose heading follows them. Put the tag on its own
   line just above the heading; the line is removed from the content of the card before it.
5. **Decks nest.** Selecting deck ` + "`" + `activities` + "`" + ` includes ` + "`" + `activities/morning` + "`" + `.
6. **Private notes** go after a line containing only ` + "`" + `---` + "`" + `; the card content stops there.
7. **Card keys** are ` + "`" + `path#Heading` + "`" + `. Renaming a heading or moving the file resets its view history.
`

func contractFor(uri string) string {
	if uri == cardFormatURI {
		return CardFormatContract
	}
	return ""
}
