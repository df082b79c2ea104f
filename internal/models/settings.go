package models

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Selection modes.
const (
	SelectionRandom      = "random"
	SelectionLeastRecent = "least-recent"
)

// Filter kinds.
const (
	FilterTag  = "tag"
	FilterPath = "path"
)

// Settings is the user-editable deck configuration. Every field is always present.
type Settings struct {
	CardPaths       []string `json:"cardPaths" yaml:"card_paths"`
	FilterKind      string   `json:"filterKind" yaml:"filter_kind"`
	DefaultDeckTag  string   `json:"defaultDeckTag" yaml:"default_deck_tag"`
	DefaultDeckPath string   `json:"defaultDeckPath" yaml:"default_deck_path"`
	SelectionMode   string   `json:"selectionMode" yaml:"selection_mode"`
	TrackViews      bool     `json:"trackViews" yaml:"track_views"`
	CalloutType     string   `json:"calloutType" yaml:"callout_type"`
}

// DefaultSettings returns settings with every field defaulted.
func DefaultSettings() Settings {
	return Settings{
		CardPaths:     []string{},
		FilterKind:    FilterTag,
		SelectionMode: SelectionLeastRecent,
		TrackViews:    true,
		CalloutType:   "tip",
	}
}

// Validate validates the settings.
func (s *Settings) Validate() error {
	return validation.ValidateStruct(s,
		validation.Field(&s.FilterKind, validation.Required, validation.In(FilterTag, FilterPath)),
		validation.Field(&s.SelectionMode, validation.Required, validation.In(SelectionRandom, SelectionLeastRecent)),
		validation.Field(&s.CalloutType, validation.Required),
	)
}

// DefaultFilter returns the configured default deck for the active filter kind.
func (s *Settings) DefaultFilter() string {
	if s.FilterKind == FilterPath {
		return s.DefaultDeckPath
	}
	return s.DefaultDeckTag
}

// Clone returns a deep copy.
func (s Settings) Clone() Settings {
	s.CardPaths = append([]string{}, s.CardPaths...)
	return s
}

// State is the persisted blob: settings plus the view ledger.
type State struct {
	Settings
	CardViews map[string]int64 `json:"cardViews"`
}
