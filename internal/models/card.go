// Package models defines the domain types for decknotes.
package models

import "strings"

// Card is one level-2 section of a markdown document.
type Card struct {
	Key     string   `json:"key"`  // "path#heading", used for view tracking
	Hash    string   `json:"hash"` // lower-kebab heading
	Path    string   `json:"path"`
	Heading string   `json:"heading"`
	Content string   `json:"content"`
	Tags    []string `json:"tags"`
}

// HasTag reports whether the card carries tag or any subdeck of it.
func (c Card) HasTag(tag string) bool {
	for _, t := range c.Tags {
		if t == tag || strings.HasPrefix(t, tag+"/") {
			return true
		}
	}
	return false
}

// Heading is a level-2 heading occurrence inside a document.
// Start is the offset of the heading line, End the offset where the line ends.
type Heading struct {
	Text  string `json:"text"`
	Level int    `json:"level"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}
