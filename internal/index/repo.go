package index

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/starford/decknotes/internal/models"
)

// SearchResult represents one search hit.
type SearchResult struct {
	Key     string `json:"key"`
	Path    string `json:"path"`
	Heading string `json:"heading"`
	Snippet string `json:"snippet"`
}

// ReplaceCards swaps the indexed pool for cards within a transaction.
func (db *DB) ReplaceCards(ctx context.Context, cards []models.Card) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	if _, err := tx.ExecContext(ctx, `DELETE FROM cards`); err != nil {
		return fmt.Errorf("index: clear cards: %w", err)
	}
	if err := ftsClear(ctx, tx); err != nil {
		return err
	}

	if len(cards) > 0 {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT OR REPLACE INTO cards (card_key, hash, path, heading, content, tags, position)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("index: prepare card insert: %w", err)
		}
		defer stmt.Close()

		for i, c := range cards {
			tagsJSON, _ := json.Marshal(c.Tags)
			if _, err := stmt.ExecContext(ctx, c.Key, c.Hash, c.Path, c.Heading, c.Content, string(tagsJSON), i); err != nil {
				return fmt.Errorf("index: insert card %s: %w", c.Key, err)
			}
			// FTS insert (no-op when FTS5 tag is absent).
			if err := ftsInsert(ctx, tx, c); err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}

// CountCards returns the number of indexed cards.
func (db *DB) CountCards(ctx context.Context) (int, error) {
	var n int
	if err := db.conn.QueryRowContext(ctx, `SELECT count(*) FROM cards`).Scan(&n); err != nil {
		return 0, fmt.Errorf("index: count cards: %w", err)
	}
	return n, nil
}

// Load implements state.Store. It returns nil when neither settings nor
// views were saved yet.
func (db *DB) Load(ctx context.Context) (*models.State, error) {
	st := &models.State{
		Settings:  models.DefaultSettings(),
		CardViews: map[string]int64{},
	}

	var raw string
	err := db.conn.QueryRowContext(ctx, `SELECT data FROM settings WHERE id = 1`).Scan(&raw)
	found := err == nil
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return nil, fmt.Errorf("index: load settings: %w", err)
	default:
		if err := json.Unmarshal([]byte(raw), &st.Settings); err != nil {
			return nil, fmt.Errorf("index: decode settings: %w", err)
		}
	}

	rows, err := db.conn.QueryContext(ctx, `SELECT card_key, viewed_at FROM card_views`)
	if err != nil {
		return nil, fmt.Errorf("index: load views: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var key string
		var at int64
		if err := rows.Scan(&key, &at); err != nil {
			return nil, err
		}
		st.CardViews[key] = at
		found = true
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if !found {
		return nil, nil
	}
	return st, nil
}

// Save implements state.Store by rewriting settings and every view.
func (db *DB) Save(ctx context.Context, st *models.State) error {
	settingsJSON, err := json.Marshal(st.Settings)
	if err != nil {
		return fmt.Errorf("index: encode settings: %w", err)
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO settings (id, data) VALUES (1, ?)
		ON CONFLICT(id) DO UPDATE SET data = excluded.data
	`, string(settingsJSON)); err != nil {
		return fmt.Errorf("index: save settings: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM card_views`); err != nil {
		return fmt.Errorf("index: clear views: %w", err)
	}
	if len(st.CardViews) > 0 {
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO card_views (card_key, viewed_at) VALUES (?, ?)`)
		if err != nil {
			return fmt.Errorf("index: prepare view insert: %w", err)
		}
		defer stmt.Close()
		for key, at := range st.CardViews {
			if _, err := stmt.ExecContext(ctx, key, at); err != nil {
				return fmt.Errorf("index: insert view: %w", err)
			}
		}
	}

	return tx.Commit()
}
