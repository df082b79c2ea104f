package state

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/starford/decknotes/internal/models"
)

func TestJSONFile_MissingFileLoadsNil(t *testing.T) {
	s := NewJSONFile(filepath.Join(t.TempDir(), "data.json"))
	st, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if st != nil {
		t.Errorf("expected nil state, got %+v", st)
	}
}

func TestJSONFile_SaveAndLoad(t *testing.T) {
	ctx := context.Background()
	s := NewJSONFile(filepath.Join(t.TempDir(), "data.json"))

	in := &models.State{
		Settings:  models.DefaultSettings(),
		CardViews: map[string]int64{"a.md#One": 42},
	}
	in.CardPaths = []string{"Journal", "Activities/cards.md"}
	in.SelectionMode = models.SelectionRandom
	if err := s.Save(ctx, in); err != nil {
		t.Fatalf("Save: %v", err)
	}

	out, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if out.SelectionMode != models.SelectionRandom || len(out.CardPaths) != 2 {
		t.Errorf("settings = %+v", out.Settings)
	}
	if out.CardViews["a.md#One"] != 42 {
		t.Errorf("cardViews = %v", out.CardViews)
	}
}

func TestJSONFile_FlatSchema(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "data.json")
	s := NewJSONFile(path)
	_ = s.Save(ctx, &models.State{Settings: models.DefaultSettings(), CardViews: map[string]int64{}})

	raw, _ := os.ReadFile(path)
	for _, key := range []string{`"cardPaths"`, `"selectionMode"`, `"trackViews"`, `"calloutType"`, `"cardViews"`, `"filterKind"`} {
		if !strings.Contains(string(raw), key) {
			t.Errorf("missing %s in %s", key, raw)
		}
	}
	if strings.Contains(string(raw), `"Settings"`) {
		t.Errorf("settings should be flattened: %s", raw)
	}
}

func TestJSONFile_MissingFieldsKeepDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	if err := os.WriteFile(path, []byte(`{"cardPaths":["Cards"],"cardViews":{"x":1}}`), 0o644); err != nil {
		t.Fatal(err)
	}
	st, err := NewJSONFile(path).Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if st.SelectionMode != models.SelectionLeastRecent || !st.TrackViews || st.CalloutType != "tip" {
		t.Errorf("defaults lost: %+v", st.Settings)
	}
}
