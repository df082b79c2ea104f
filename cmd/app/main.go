package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/decknotes/internal"
	"github.com/starford/decknotes/internal/cards"
	"github.com/starford/decknotes/internal/session"
	pkgconfig "github.com/starford/decknotes/pkg/config"
)

var version = "dev"

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadOptional(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// openDeck loads config and the deck for one-shot commands. Logs go to
// stderr so stdout only carries card output.
func openDeck(ctx context.Context, cmd *cli.Command) (*internal.Deck, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger := internal.NewLogger(cfg, os.Stderr)
	slog.SetDefault(logger)
	return internal.OpenDeck(ctx, cfg, logger)
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	opts := []internal.Option{
		internal.WithConfig(cfg),
		internal.WithVersion(version),
	}

	if err := internal.Run(ctx, opts...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}

	return nil
}

func serveMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.RunMCP(ctx,
		internal.WithConfig(cfg),
		internal.WithVersion(version),
		internal.WithLogOutput(os.Stderr),
	)
}

func next(ctx context.Context, cmd *cli.Command) error {
	deck, err := openDeck(ctx, cmd)
	if err != nil {
		return err
	}
	defer deck.Close()
	svc := deck.Service

	card, ok := svc.SelectCard(ctx, cmd.String("filter"))
	if !ok {
		fmt.Println(session.NoCardsMessage)
		return nil
	}
	fmt.Print(session.FormatCard(card, cmd.String("filter")))
	if cmd.Bool("record") {
		return svc.MarkViewed(ctx, card.Key)
	}
	return nil
}

func embed(ctx context.Context, cmd *cli.Command) error {
	deck, err := openDeck(ctx, cmd)
	if err != nil {
		return err
	}
	defer deck.Close()

	text, ok, err := deck.Service.EmbedCard(ctx, cmd.String("filter"))
	if err != nil {
		return err
	}
	if !ok {
		fmt.Println(session.NoCardsMessage)
		return nil
	}
	fmt.Println(text)
	return nil
}

func decks(ctx context.Context, cmd *cli.Command) error {
	deck, err := openDeck(ctx, cmd)
	if err != nil {
		return err
	}
	defer deck.Close()
	svc := deck.Service

	for _, d := range svc.Decks() {
		fmt.Printf("%s\t%d\n", d, len(svc.Cards(d)))
	}
	stats := svc.Stats()
	fmt.Printf("\n%d cards from %d card paths, %d viewed\n",
		stats.Cards, len(svc.Settings().CardPaths), stats.Views)
	return nil
}

func review(ctx context.Context, cmd *cli.Command) error {
	deck, err := openDeck(ctx, cmd)
	if err != nil {
		return err
	}
	defer deck.Close()

	s := session.New("cli", deck.Service, cmd.String("filter"))
	return session.Review(ctx, s, os.Stdin, os.Stdout)
}

func hash(ctx context.Context, cmd *cli.Command) error {
	deck, err := openDeck(ctx, cmd)
	if err != nil {
		return err
	}
	defer deck.Close()

	heading := strings.Join(cmd.Args().Slice(), " ")
	if heading == "" {
		return fmt.Errorf("usage: hash <heading>")
	}
	key := cards.LowerKebab(heading)
	card, ok := deck.Service.CardByHash([]string{key})
	if !ok {
		fmt.Println(key)
		return nil
	}
	fmt.Printf("%s\t%s\n", key, card.Key)
	return nil
}

func filterFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "filter",
		Aliases: []string{"f"},
		Usage:   "Deck tag (e.g. activities/morning) or path prefix; default deck when empty",
	}
}

func main() {
	cmd := &cli.Command{
		Name:    "decknotes",
		Usage:   "Turn Markdown notes into a deck of cards and show the least recently seen one",
		Version: version,
		Action:  serve,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API with watcher-driven rescans",
				Action: serve,
			},
			{
				Name:  "next",
				Usage: "Print the next card",
				Flags: []cli.Flag{
					filterFlag(),
					&cli.BoolFlag{Name: "record", Aliases: []string{"r"}, Usage: "Record a view of the printed card"},
				},
				Action: next,
			},
			{
				Name:   "embed",
				Usage:  "Print the next card as a callout block, recording a view when tracking is on",
				Flags:  []cli.Flag{filterFlag()},
				Action: embed,
			},
			{
				Name:   "decks",
				Usage:  "List decks with their card counts",
				Action: decks,
			},
			{
				Name:   "review",
				Usage:  "Review cards interactively (n: next, s: switch deck, q: quit)",
				Flags:  []cli.Flag{filterFlag()},
				Action: review,
			},
			{
				Name:      "hash",
				Usage:     "Print the compact key of a heading and the card it resolves to",
				ArgsUsage: "<heading>",
				Action:    hash,
			},
			{
				Name:   "mcp",
				Usage:  "Serve the deck over MCP on stdin/stdout",
				Action: serveMCP,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
