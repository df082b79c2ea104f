package cardservice

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"

	"github.com/starford/decknotes/internal/cards"
	"github.com/starford/decknotes/internal/checksum"
	"github.com/starford/decknotes/internal/models"
	"github.com/starford/decknotes/internal/parser"
	"github.com/starford/decknotes/internal/storage"
)

// ScanReport summarizes one rescan.
type ScanReport struct {
	Documents int `json:"documents"`
	Skipped   int `json:"skipped"`
	Missing   int `json:"missing"`
	Cards     int `json:"cards"`
}

type cachedDoc struct {
	digest checksum.Digest
	cards  []models.Card
	ok     bool
}

// scanBuffer collects a new pool before it is published.
type scanBuffer struct {
	cards   []models.Card
	byKey   map[string]int
	visited map[string]struct{}
	cache   map[string]cachedDoc
	report  ScanReport
}

// Scan walks every configured card path in order and replaces the pool.
// Missing paths, unreadable documents, and documents without level-2
// headings are logged and skipped. Readers see either the previous pool or
// the new one.
func (s *Service) Scan(ctx context.Context) (ScanReport, error) {
	s.scanMu.Lock()
	defer s.scanMu.Unlock()

	settings := s.Settings()
	buf := &scanBuffer{
		byKey:   make(map[string]int),
		visited: make(map[string]struct{}),
		cache:   make(map[string]cachedDoc),
	}

	for _, root := range settings.CardPaths {
		if err := ctx.Err(); err != nil {
			return buf.report, err
		}
		kind, err := s.store.Stat(root)
		if err != nil {
			buf.report.Missing++
			if errors.Is(err, os.ErrNotExist) {
				s.logger.Warn("scan: card path not found", slog.String("path", root))
			} else {
				s.logger.Warn("scan: stat failed", slog.String("path", root), slog.String("error", err.Error()))
			}
			continue
		}
		switch kind {
		case storage.KindDir:
			if err := s.scanFolder(ctx, root, buf); err != nil {
				return buf.report, err
			}
		case storage.KindFile:
			s.scanFile(root, buf)
		}
	}

	s.cache = buf.cache
	buf.report.Cards = len(buf.cards)
	snap := &snapshot{cards: buf.cards, byKey: buf.byKey, scannedAt: s.now()}
	s.pool.Store(snap)

	s.logger.Info("scan: done",
		slog.Int("cards", buf.report.Cards),
		slog.Int("documents", buf.report.Documents),
		slog.Int("skipped", buf.report.Skipped),
		slog.Int("missing", buf.report.Missing))

	if s.index != nil {
		if err := s.index.ReplaceCards(ctx, snap.cards); err != nil {
			s.logger.Warn("scan: index update failed", slog.String("error", err.Error()))
		}
	}
	s.emit(EventRescanned, buf.report)
	return buf.report, nil
}

func (s *Service) scanFolder(ctx context.Context, dir string, buf *scanBuffer) error {
	children, err := s.store.Children(dir)
	if err != nil {
		s.logger.Warn("scan: list failed", slog.String("path", dir), slog.String("error", err.Error()))
		return nil
	}
	for _, child := range children {
		if err := ctx.Err(); err != nil {
			return err
		}
		if child.IsDir {
			if err := s.scanFolder(ctx, child.Path, buf); err != nil {
				return err
			}
			continue
		}
		if strings.HasSuffix(child.Path, ".md") {
			s.scanFile(child.Path, buf)
		}
	}
	return nil
}

// scanFile extracts one document into buf. A document reached twice through
// overlapping card paths contributes its cards once.
func (s *Service) scanFile(path string, buf *scanBuffer) {
	if _, seen := buf.visited[path]; seen {
		return
	}
	buf.visited[path] = struct{}{}

	data, err := s.store.Read(path)
	if err != nil {
		s.logger.Warn("scan: read failed", slog.String("path", path), slog.String("error", err.Error()))
		return
	}
	buf.report.Documents++

	doc := s.extract(path, data)
	buf.cache[path] = doc
	if !doc.ok {
		buf.report.Skipped++
		s.logger.Warn("scan: skipping document without level-2 headings", slog.String("path", path))
		return
	}

	for _, c := range doc.cards {
		if _, dup := buf.byKey[c.Key]; !dup {
			buf.byKey[c.Key] = len(buf.cards)
		}
		buf.cards = append(buf.cards, c)
	}
}

// extract parses and splits data, reusing the previous scan's result when
// the document is unchanged.
func (s *Service) extract(path string, data []byte) cachedDoc {
	sum := checksum.Of(data)
	if prev, ok := s.cache[path]; ok && prev.digest == sum {
		s.logger.Debug("scan: unchanged", slog.String("path", path))
		return prev
	}

	res, err := parser.Parse(data)
	if err != nil {
		s.logger.Warn("scan: parse failed", slog.String("path", path), slog.String("error", err.Error()))
		return cachedDoc{digest: sum}
	}
	extracted, ok := cards.Extract(path, string(data), res.Headings, res.Tags)
	s.logger.Debug("scan: extracted", slog.String("path", path), slog.Int("cards", len(extracted)))
	return cachedDoc{digest: sum, cards: extracted, ok: ok}
}
