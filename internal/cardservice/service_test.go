package cardservice

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/starford/decknotes/internal/apperr"
	"github.com/starford/decknotes/internal/models"
	"github.com/starford/decknotes/internal/state"
	"github.com/starford/decknotes/internal/testutil"
)

const morningDeck = `---
tags:
  - flashcards/activities
---
# Morning

## Stretch
Reach for the ceiling.

#flashcards/activities/morning
## Walk
Ten minutes outside.
---
Notes for myself only.
`

const copingDeck = `## Breathe
Box breathing.

## Ground
Name five things you can see.
`

type env struct {
	vault string
	svc   *Service
	state *state.JSONFile
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newEnv(t *testing.T, settings models.Settings, opts ...Option) *env {
	t.Helper()
	vault, store := testutil.TestVault(t)
	testutil.WriteDoc(t, vault, "Activities/morning.md", morningDeck)
	testutil.WriteDoc(t, vault, "Journal/Coping/coping.md", copingDeck)
	testutil.WriteDoc(t, vault, "Journal/Coping/empty.md", "# Only a title\n")
	testutil.WriteDoc(t, vault, "Journal/Coping/notes.txt", "## Not markdown\n")

	st := state.NewJSONFile(filepath.Join(t.TempDir(), "data.json"))
	opts = append([]Option{WithLogger(quietLogger()), WithClock(testutil.NewClock(1000).Now)}, opts...)
	svc := New(store, st, settings, opts...)
	if err := svc.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, err := svc.Scan(context.Background()); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	return &env{vault: vault, svc: svc, state: st}
}

func settingsFor(paths ...string) models.Settings {
	s := models.DefaultSettings()
	s.CardPaths = paths
	return s
}

func TestScan_WalksPathsInOrder(t *testing.T) {
	e := newEnv(t, settingsFor("Journal", "Activities/morning.md", "Missing"))

	got := e.svc.Cards("")
	var keys []string
	for _, c := range got {
		keys = append(keys, c.Key)
	}
	want := []string{
		"Journal/Coping/coping.md#Breathe",
		"Journal/Coping/coping.md#Ground",
		"Activities/morning.md#Stretch",
		"Activities/morning.md#Walk",
	}
	if !slices.Equal(keys, want) {
		t.Errorf("keys = %v, want %v", keys, want)
	}
}

func TestScan_Report(t *testing.T) {
	e := newEnv(t, settingsFor("Journal", "Missing"))
	report, err := e.svc.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if report.Documents != 2 || report.Skipped != 1 || report.Missing != 1 || report.Cards != 2 {
		t.Errorf("report = %+v", report)
	}
}

func TestScan_OverlappingPathsCountOnce(t *testing.T) {
	e := newEnv(t, settingsFor("Activities", "Activities/morning.md"))
	if n := len(e.svc.Cards("")); n != 2 {
		t.Errorf("cards = %d, want 2", n)
	}
}

func TestScan_ContentAndTags(t *testing.T) {
	e := newEnv(t, settingsFor("Activities"))
	walk, ok := e.svc.CardByKey("Activities/morning.md#Walk")
	if !ok {
		t.Fatal("walk card missing")
	}
	if walk.Content != "Ten minutes outside." {
		t.Errorf("content = %q", walk.Content)
	}
	if !slices.Equal(walk.Tags, []string{"activities", "activities/morning"}) {
		t.Errorf("tags = %v", walk.Tags)
	}
	stretch, _ := e.svc.CardByKey("Activities/morning.md#Stretch")
	if stretch.Content != "Reach for the ceiling." {
		t.Errorf("stretch content = %q", stretch.Content)
	}
}

func TestScan_PicksUpChanges(t *testing.T) {
	e := newEnv(t, settingsFor("Journal"))
	testutil.WriteDoc(t, e.vault, "Journal/Coping/coping.md", "## Only one\nleft\n")
	if _, err := e.svc.Scan(context.Background()); err != nil {
		t.Fatal(err)
	}
	got := e.svc.Cards("")
	if len(got) != 1 || got[0].Heading != "Only one" {
		t.Errorf("cards = %+v", got)
	}
}

func TestSelectCard_TagFilterHierarchical(t *testing.T) {
	e := newEnv(t, settingsFor("Activities", "Journal"))

	c, ok := e.svc.SelectCard(context.Background(), "activities/morning")
	if !ok || c.Heading != "Walk" {
		t.Errorf("got %+v, ok=%v", c, ok)
	}
	if n := len(e.svc.Cards("activities")); n != 2 {
		t.Errorf("activities cards = %d, want 2", n)
	}
	if _, ok := e.svc.SelectCard(context.Background(), "unknown"); ok {
		t.Error("expected no card for unknown deck")
	}
}

func TestSelectCard_PathFilterAndDefault(t *testing.T) {
	s := settingsFor("Activities", "Journal")
	s.FilterKind = models.FilterPath
	s.DefaultDeckPath = "Journal/Coping"
	e := newEnv(t, s)

	c, ok := e.svc.SelectCard(context.Background(), "")
	if !ok || c.Path != "Journal/Coping/coping.md" {
		t.Errorf("default path deck picked %+v", c)
	}
	if decks := e.svc.Decks(); !slices.Equal(decks, []string{"Activities", "Journal"}) {
		t.Errorf("decks = %v", decks)
	}
}

func TestSelectCard_LeastRecentCyclesThroughDeck(t *testing.T) {
	e := newEnv(t, settingsFor("Journal"))
	ctx := context.Background()

	first, _ := e.svc.SelectCard(ctx, "")
	if first.Hash != "breathe" {
		t.Fatalf("first = %q, want breathe", first.Hash)
	}
	if err := e.svc.RecordView(ctx, first.Key); err != nil {
		t.Fatal(err)
	}
	second, _ := e.svc.SelectCard(ctx, "")
	if second.Hash != "ground" {
		t.Fatalf("second = %q, want ground", second.Hash)
	}
	_ = e.svc.RecordView(ctx, second.Key)
	third, _ := e.svc.SelectCard(ctx, "")
	if third.Hash != "breathe" {
		t.Errorf("third = %q, want breathe", third.Hash)
	}
}

func TestSelectCard_Random(t *testing.T) {
	s := settingsFor("Journal")
	s.SelectionMode = models.SelectionRandom
	e := newEnv(t, s, WithRand(testutil.FixedRand(1)))
	c, ok := e.svc.SelectCard(context.Background(), "")
	if !ok || c.Heading != "Ground" {
		t.Errorf("got %+v", c)
	}
}

func TestRecordView_UnknownKey(t *testing.T) {
	e := newEnv(t, settingsFor("Journal"))
	err := e.svc.RecordView(context.Background(), "nope.md#Nope")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestMarkViewed_KeyLeftPool(t *testing.T) {
	e := newEnv(t, settingsFor("Journal"))
	ctx := context.Background()
	key := "Journal/Coping/coping.md#Breathe"

	testutil.WriteDoc(t, e.vault, "Journal/Coping/coping.md", strings.Replace(copingDeck, "## Breathe", "## Exhale", 1))
	if _, err := e.svc.Scan(ctx); err != nil {
		t.Fatal(err)
	}
	if err := e.svc.RecordView(ctx, key); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("RecordView err = %v, want ErrNotFound", err)
	}
	if err := e.svc.MarkViewed(ctx, key); err != nil {
		t.Fatalf("MarkViewed: %v", err)
	}
	if e.svc.LastViewed(key) == 0 {
		t.Error("view not recorded")
	}
	st, err := e.state.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := st.CardViews[key]; !ok {
		t.Errorf("persisted views = %v", st.CardViews)
	}
}

func TestRecordView_PersistsAndOnlyTouchesOneKey(t *testing.T) {
	e := newEnv(t, settingsFor("Journal"))
	ctx := context.Background()

	_ = e.svc.RecordView(ctx, "Journal/Coping/coping.md#Breathe")
	_ = e.svc.RecordView(ctx, "Journal/Coping/coping.md#Ground")
	before := e.svc.LastViewed("Journal/Coping/coping.md#Breathe")
	_ = e.svc.RecordView(ctx, "Journal/Coping/coping.md#Ground")

	if got := e.svc.LastViewed("Journal/Coping/coping.md#Breathe"); got != before {
		t.Errorf("breathe changed from %d to %d", before, got)
	}

	st, err := e.state.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(st.CardViews) != 2 {
		t.Errorf("persisted views = %v", st.CardViews)
	}
}

func TestLoad_RestoresSettingsAndViews(t *testing.T) {
	e := newEnv(t, settingsFor("Journal"))
	ctx := context.Background()
	_ = e.svc.RecordView(ctx, "Journal/Coping/coping.md#Breathe")

	_, store := testutil.TestVault(t)
	fresh := New(store, e.state, models.DefaultSettings(), WithLogger(quietLogger()))
	if err := fresh.Load(ctx); err != nil {
		t.Fatal(err)
	}
	if got := fresh.Settings().CardPaths; !slices.Equal(got, []string{"Journal"}) {
		t.Errorf("card paths = %v", got)
	}
	if fresh.LastViewed("Journal/Coping/coping.md#Breathe") == 0 {
		t.Error("view not restored")
	}
}

func TestSaveSettings_RescansAndPersists(t *testing.T) {
	e := newEnv(t, settingsFor("Journal"))
	ctx := context.Background()

	next := e.svc.Settings()
	next.CardPaths = []string{"Activities"}
	if err := e.svc.SaveSettings(ctx, next); err != nil {
		t.Fatalf("SaveSettings: %v", err)
	}
	if n := len(e.svc.Cards("")); n != 2 || e.svc.Cards("")[0].Path != "Activities/morning.md" {
		t.Errorf("pool not rescanned: %+v", e.svc.Cards(""))
	}
	st, _ := e.state.Load(ctx)
	if !slices.Equal(st.CardPaths, []string{"Activities"}) {
		t.Errorf("persisted paths = %v", st.CardPaths)
	}
}

func TestSaveSettings_Invalid(t *testing.T) {
	e := newEnv(t, settingsFor("Journal"))
	bad := e.svc.Settings()
	bad.SelectionMode = "sm2"
	if err := e.svc.SaveSettings(context.Background(), bad); !errors.Is(err, apperr.ErrInvalid) {
		t.Errorf("err = %v, want ErrInvalid", err)
	}
	if e.svc.Settings().SelectionMode != models.SelectionLeastRecent {
		t.Error("invalid settings were applied")
	}
}

func TestEmbedCard_RecordsWhenTracking(t *testing.T) {
	e := newEnv(t, settingsFor("Journal"))
	text, ok, err := e.svc.EmbedCard(context.Background(), "")
	if err != nil || !ok {
		t.Fatalf("EmbedCard: %v ok=%v", err, ok)
	}
	if text != "> [!tip]- Breathe\n> Box breathing." {
		t.Errorf("text = %q", text)
	}
	if e.svc.LastViewed("Journal/Coping/coping.md#Breathe") == 0 {
		t.Error("embed did not record a view")
	}
}

func TestEmbedCard_NoTracking(t *testing.T) {
	s := settingsFor("Journal")
	s.TrackViews = false
	e := newEnv(t, s)
	_, _, _ = e.svc.EmbedCard(context.Background(), "")
	if e.svc.Stats().Views != 0 {
		t.Error("view recorded with tracking off")
	}
}

func TestEmbedCard_Empty(t *testing.T) {
	e := newEnv(t, settingsFor("Missing"))
	if _, ok, err := e.svc.EmbedCard(context.Background(), ""); ok || err != nil {
		t.Errorf("ok=%v err=%v, want empty result", ok, err)
	}
}

func TestRoundTrip_ExtractionIsIdempotent(t *testing.T) {
	e := newEnv(t, settingsFor("Activities", "Journal"))
	ctx := context.Background()
	before := e.svc.Cards("")

	c, _ := e.svc.SelectCard(ctx, "")
	_ = e.svc.RecordView(ctx, c.Key)
	_, _ = e.svc.Scan(ctx)

	after := e.svc.Cards("")
	if len(before) != len(after) {
		t.Fatalf("len %d != %d", len(before), len(after))
	}
	for i := range before {
		if before[i].Key != after[i].Key || before[i].Content != after[i].Content || !slices.Equal(before[i].Tags, after[i].Tags) {
			t.Errorf("card %d changed: %+v -> %+v", i, before[i], after[i])
		}
	}
	if e.svc.Stats().Views != 1 {
		t.Errorf("views = %d, want 1", e.svc.Stats().Views)
	}
}

func TestHashLookups(t *testing.T) {
	e := newEnv(t, settingsFor("Activities", "Journal"))
	got := e.svc.CardsByHash([]string{"walk", "ground"})
	if len(got) != 2 {
		t.Errorf("by hash = %+v", got)
	}
	if _, ok := e.svc.CardByHash([]string{"missing"}); ok {
		t.Error("expected no card")
	}
}

func TestSearch_WithAndWithoutIndex(t *testing.T) {
	e := newEnv(t, settingsFor("Journal"))
	res, err := e.svc.Search(context.Background(), "five things", 10)
	if err != nil || len(res) != 1 || res[0].Key != "Journal/Coping/coping.md#Ground" {
		t.Errorf("in-memory search = %+v, %v", res, err)
	}

	indexed := newEnv(t, settingsFor("Journal"), WithIndex(testutil.TestDB(t)))
	res, err = indexed.svc.Search(context.Background(), "Box breathing", 10)
	if err != nil || len(res) != 1 || res[0].Heading != "Breathe" {
		t.Errorf("indexed search = %+v, %v", res, err)
	}
}

func TestEvents(t *testing.T) {
	var mu sync.Mutex
	var kinds []string
	e := newEnv(t, settingsFor("Journal"), WithEvents(func(kind string, _ any) {
		mu.Lock()
		kinds = append(kinds, kind)
		mu.Unlock()
	}))
	_ = e.svc.RecordView(context.Background(), "Journal/Coping/coping.md#Breathe")

	mu.Lock()
	defer mu.Unlock()
	if !slices.Equal(kinds, []string{EventRescanned, EventCardViewed}) {
		t.Errorf("events = %v", kinds)
	}
}

func TestScan_ReadersSeeWholePools(t *testing.T) {
	e := newEnv(t, settingsFor("Journal"))
	ctx := context.Background()

	next := e.svc.Settings()
	next.CardPaths = []string{"Activities", "Journal"}

	var wg sync.WaitGroup
	stop := make(chan struct{})
	bad := make(chan int, 1)
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
			}
			if n := len(e.svc.Cards("")); n != 2 && n != 4 {
				select {
				case bad <- n:
				default:
				}
			}
		}
	}()

	for range 20 {
		_ = e.svc.SaveSettings(ctx, next)
		_ = e.svc.SaveSettings(ctx, settingsFor("Journal"))
	}
	close(stop)
	wg.Wait()

	select {
	case n := <-bad:
		t.Errorf("observed partial pool of %d cards", n)
	default:
	}
}
