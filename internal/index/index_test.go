package index

import (
	"context"
	"os"
	"testing"

	"github.com/starford/decknotes/internal/models"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	f, err := os.CreateTemp("", "decknotes-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := Open(f.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func sampleCards() []models.Card {
	return []models.Card{
		{Key: "a.md#Breathe", Hash: "breathe", Path: "a.md", Heading: "Breathe", Content: "Box breathing for calm.", Tags: []string{"coping"}},
		{Key: "b.md#Walk", Hash: "walk", Path: "b.md", Heading: "Walk", Content: "A short uniqueword stroll.", Tags: []string{"activities/morning"}},
	}
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	for _, table := range []string{"cards", "card_views", "settings"} {
		var count int
		if err := db.conn.QueryRow(`SELECT count(*) FROM ` + table).Scan(&count); err != nil {
			t.Fatalf("%s table missing: %v", table, err)
		}
	}
}

func TestReplaceCards(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	if err := db.ReplaceCards(ctx, sampleCards()); err != nil {
		t.Fatalf("ReplaceCards: %v", err)
	}
	if n, _ := db.CountCards(ctx); n != 2 {
		t.Fatalf("count = %d, want 2", n)
	}

	if err := db.ReplaceCards(ctx, sampleCards()[:1]); err != nil {
		t.Fatalf("ReplaceCards: %v", err)
	}
	if n, _ := db.CountCards(ctx); n != 1 {
		t.Errorf("count after replace = %d, want 1", n)
	}
}

func TestSearch_Basic(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	_ = db.ReplaceCards(ctx, sampleCards())

	results, err := db.Search(ctx, "uniqueword", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].Key != "b.md#Walk" {
		t.Errorf("search results = %+v, want 1 hit for b.md#Walk", results)
	}
}

func TestSearch_ReplacedCardsGone(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	_ = db.ReplaceCards(ctx, sampleCards())
	_ = db.ReplaceCards(ctx, nil)

	results, _ := db.Search(ctx, "uniqueword", 10)
	if len(results) != 0 {
		t.Errorf("stale search results: %+v", results)
	}
}

func TestState_EmptyLoadsNil(t *testing.T) {
	db := testDB(t)
	st, err := db.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if st != nil {
		t.Errorf("expected nil state, got %+v", st)
	}
}

func TestState_SaveAndLoad(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	in := &models.State{Settings: models.DefaultSettings(), CardViews: map[string]int64{"a.md#Breathe": 10, "b.md#Walk": 20}}
	in.CardPaths = []string{"Cards"}
	in.FilterKind = models.FilterPath
	if err := db.Save(ctx, in); err != nil {
		t.Fatalf("Save: %v", err)
	}

	// Rewrite drops views that are no longer present.
	in.CardViews = map[string]int64{"a.md#Breathe": 30}
	if err := db.Save(ctx, in); err != nil {
		t.Fatalf("Save: %v", err)
	}

	out, err := db.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if out.FilterKind != models.FilterPath || len(out.CardPaths) != 1 {
		t.Errorf("settings = %+v", out.Settings)
	}
	if len(out.CardViews) != 1 || out.CardViews["a.md#Breathe"] != 30 {
		t.Errorf("views = %v", out.CardViews)
	}
}
