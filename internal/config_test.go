package internal

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	pkgconfig "github.com/starford/decknotes/pkg/config"
)

func TestAuthConfig_DisabledMode(t *testing.T) {
	cfg := AuthConfig{Mode: "disabled", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled mode should pass: %v", err)
	}
	if cfg.AuthEnabled() {
		t.Error("disabled mode should not be enabled")
	}
}

func TestAuthConfig_EmptyModeDefaultsDisabled(t *testing.T) {
	cfg := AuthConfig{Mode: "", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty mode should default to disabled: %v", err)
	}
	if cfg.Mode != AuthModeDisabled {
		t.Errorf("mode = %q, want %q", cfg.Mode, AuthModeDisabled)
	}
}

func TestAuthConfig_TokenModeValid(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: "mysecret"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("token mode with token should pass: %v", err)
	}
	if !cfg.AuthEnabled() {
		t.Error("token mode should be enabled")
	}
}

func TestAuthConfig_TokenModeEmptyToken(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: ""}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("token mode with empty token should fail")
	}
	if !strings.Contains(err.Error(), "token is empty") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestAuthConfig_InvalidMode(t *testing.T) {
	cfg := AuthConfig{Mode: "magic", Token: "x"}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("invalid mode should fail validation")
	}
}

func TestFullConfig_AuthValidationCalled(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Auth.Mode = "token"
	cfg.Auth.Token = ""
	err := cfg.Validate()
	if err == nil {
		t.Fatal("full config validate should catch auth error")
	}
}

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if cfg.Deck.SelectionMode != "least-recent" || !cfg.Deck.TrackViews || cfg.Deck.CalloutType != "tip" {
		t.Errorf("deck defaults = %+v", cfg.Deck)
	}
}

func TestStateConfig_EmptyDriverDefaultsJSON(t *testing.T) {
	cfg := StateConfig{Path: "state.json"}
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	if cfg.Driver != StateDriverJSON {
		t.Errorf("driver = %q", cfg.Driver)
	}
}

func TestStateConfig_JSONNeedsPath(t *testing.T) {
	cfg := StateConfig{Driver: StateDriverJSON}
	if err := cfg.Validate(); err == nil {
		t.Fatal("json driver without path should fail")
	}
}

func TestFullConfig_SQLiteStateNeedsDatabase(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.State.Driver = StateDriverSQLite
	cfg.SQLite.Path = ""
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "sqlite.path is empty") {
		t.Fatalf("err = %v", err)
	}
}

func TestFullConfig_InvalidDeck(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Deck.FilterKind = "folder"
	if err := cfg.Validate(); err == nil {
		t.Fatal("invalid filter kind should fail")
	}
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	t.Setenv("DECK_TOKEN", "s3cret")
	data := `
app:
  log_level: debug
  http:
    port: 9090
vault:
  path: ./notes
state:
  driver: sqlite
sqlite:
  path: ./deck.db
auth:
  mode: token
  token: ${DECK_TOKEN}
deck:
  card_paths: [Journal, Activities/morning.md]
  selection_mode: random
watch:
  enabled: false
  debounce: 1s
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := NewDefaultConfig()
	if err := pkgconfig.Load(path, cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.App.HTTP.Port != 9090 || cfg.Auth.Token != "s3cret" {
		t.Errorf("app/auth = %+v %+v", cfg.App, cfg.Auth)
	}
	if cfg.State.Driver != StateDriverSQLite {
		t.Errorf("state = %+v", cfg.State)
	}
	if len(cfg.Deck.CardPaths) != 2 || cfg.Deck.SelectionMode != "random" {
		t.Errorf("deck = %+v", cfg.Deck)
	}
	// Fields absent from the file keep their defaults.
	if !cfg.Deck.TrackViews || cfg.Deck.CalloutType != "tip" {
		t.Errorf("deck defaults lost: %+v", cfg.Deck)
	}
	if cfg.Watch.Enabled || cfg.Watch.Debounce != time.Second {
		t.Errorf("watch = %+v", cfg.Watch)
	}
}
