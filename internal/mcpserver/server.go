// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the card deck to LLM clients via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/decknotes/internal/apperr"
	"github.com/starford/decknotes/internal/cardservice"
)

const cardFormatURI = "decknotes://card-format"

// Server wraps the MCP server with deck tools.
type Server struct {
	mcp *server.MCPServer
	svc *cardservice.Service
}

// New creates a new MCP server with all deck tools registered.
func New(svc *cardservice.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"decknotes",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("next_card",
		mcp.WithDescription("Pick the next card to show. Least-recently viewed cards come first "+
			"unless random selection is configured."),
		mcp.WithString("filter", mcp.Description("Deck tag (e.g. activities/morning) or path prefix; default deck when empty")),
		mcp.WithBoolean("record", mcp.Description("Record a view of the returned card")),
	), s.nextCard)

	s.mcp.AddTool(mcp.NewTool("embed_card",
		mcp.WithDescription("Pick a card and return it as a collapsed Markdown callout, ready to paste into a note. "+
			"Records a view when view tracking is on."),
		mcp.WithString("filter", mcp.Description("Deck tag or path prefix; default deck when empty")),
	), s.embedCard)

	s.mcp.AddTool(mcp.NewTool("record_view",
		mcp.WithDescription("Mark a card as viewed now so least-recent selection moves on."),
		mcp.WithString("key", mcp.Required(), mcp.Description("Card key, e.g. Journal/coping.md#Breathe")),
	), s.recordView)

	s.mcp.AddTool(mcp.NewTool("list_decks",
		mcp.WithDescription("List the decks cards can be filtered by."),
	), s.listDecks)

	s.mcp.AddTool(mcp.NewTool("search_cards",
		mcp.WithDescription("Search card headings and content."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
		mcp.WithNumber("limit", mcp.Description("Max results (default 20)")),
	), s.searchCards)

	s.mcp.AddTool(mcp.NewTool("rescan_cards",
		mcp.WithDescription("Re-read every configured card path and rebuild the deck."),
	), s.rescanCards)

	s.mcp.AddTool(mcp.NewTool("get_card_contract",
		mcp.WithDescription("Returns the card format: how headings, tags, and dividers become cards. "+
			"Call this before writing deck documents."),
	), s.getCardContract)

	// Resource: card format contract.
	s.mcp.AddResource(
		mcp.NewResource(cardFormatURI, "Card Format",
			mcp.WithResourceDescription("How Markdown documents are split into cards and decks."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readCardFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func optionalString(req mcp.CallToolRequest, key string) string {
	if v, err := req.RequireString(key); err == nil {
		return v
	}
	return ""
}

func (s *Server) nextCard(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	card, ok := s.svc.SelectCard(ctx, optionalString(req, "filter"))
	if !ok {
		return mcp.NewToolResultError("no cards available"), nil
	}
	if record, err := req.RequireBool("record"); err == nil && record {
		if err := s.svc.MarkViewed(ctx, card.Key); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}
	out, _ := json.MarshalIndent(card, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) embedCard(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, ok, err := s.svc.EmbedCard(ctx, optionalString(req, "filter"))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !ok {
		return mcp.NewToolResultError("no cards available"), nil
	}
	return mcp.NewToolResultText(text), nil
}

func (s *Server) recordView(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key, err := req.RequireString("key")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.svc.RecordView(ctx, key); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("unknown card: %s", key)), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("viewed: %s", key)), nil
}

func (s *Server) listDecks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	decks := s.svc.Decks()
	if len(decks) == 0 {
		return mcp.NewToolResultText("no decks found"), nil
	}
	return mcp.NewToolResultText(strings.Join(decks, "\n")), nil
}

func (s *Server) searchCards(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	limit := 20
	if v, err := req.RequireFloat("limit"); err == nil && v > 0 {
		limit = int(v)
	}
	results, err := s.svc.Search(ctx, query, limit)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(results, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) rescanCards(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	report, err := s.svc.Scan(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("rescanned: %d cards from %d documents (%d skipped, %d missing paths)",
		report.Cards, report.Documents, report.Skipped, report.Missing)), nil
}

func (s *Server) getCardContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(CardFormatContract), nil
}

func (s *Server) readCardFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "text/markdown",
			Text:     contractFor(req.Params.URI),
		},
	}, nil
}
