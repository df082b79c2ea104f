package session

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/starford/decknotes/internal/models"
)

// NoCardsMessage is shown when the filtered deck is empty.
const NoCardsMessage = "No cards available. Check your settings."

// Review drives s from line commands read from in: "n" shows the next card,
// "s" switches deck, "q" (or end of input) closes the session.
func Review(ctx context.Context, s *Session, in io.Reader, out io.Writer) error {
	snap, err := s.Start(ctx)
	if err != nil {
		return err
	}
	render(out, snap)

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "[n]ext  [s]witch deck  [q]uit > ")
		if !scanner.Scan() {
			break
		}
		switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
		case "n", "":
			snap, err = s.Next(ctx)
		case "s":
			snap, err = s.SwitchDeck(ctx)
		case "q":
			s.Close()
			return nil
		default:
			fmt.Fprintln(out, "unknown command")
			continue
		}
		if err != nil {
			return err
		}
		render(out, snap)
	}
	s.Close()
	return scanner.Err()
}

func render(out io.Writer, snap Snapshot) {
	if snap.Card == nil {
		fmt.Fprintln(out, NoCardsMessage)
		return
	}
	fmt.Fprintln(out, FormatCard(*snap.Card, snap.Filter))
}

// FormatCard renders a card for a terminal.
func FormatCard(c models.Card, deck string) string {
	var b strings.Builder
	if deck != "" {
		fmt.Fprintf(&b, "[%s] ", deck)
	}
	fmt.Fprintf(&b, "%s\n%s\n\n%s\n", c.Heading, strings.Repeat("-", len(c.Heading)), c.Content)
	if len(c.Tags) > 0 {
		fmt.Fprintf(&b, "\ntags: %s\n", strings.Join(c.Tags, ", "))
	}
	fmt.Fprintf(&b, "source: %s\n", c.Path)
	return b.String()
}
