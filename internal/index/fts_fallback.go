//go:build !sqlite_fts5

package index

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/starford/decknotes/internal/models"
)

func initFTS(_ *sql.DB) error {
	// FTS5 not available; search uses LIKE fallback on the cards table.
	return nil
}

func ftsInsert(_ context.Context, _ *sql.Tx, _ models.Card) error { return nil }

func ftsClear(_ context.Context, _ *sql.Tx) error { return nil }

// Search performs a LIKE-based search (fallback when FTS5 is not compiled in).
func (db *DB) Search(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	like := "%" + query + "%"
	rows, err := db.conn.QueryContext(ctx, `
		SELECT card_key, path, heading, substr(content, 1, 200)
		FROM cards
		WHERE heading LIKE ? OR content LIKE ? OR tags LIKE ?
		ORDER BY position
		LIMIT ?
	`, like, like, like, limit)
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}
	defer rows.Close()

	var out []SearchResult
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.Key, &r.Path, &r.Heading, &r.Snippet); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
