// Package sqlite provides a SQLite-backed blackjack.Store and the card
// catalog table new decks are built from.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/neilgarb/blackjack"
	"github.com/neilgarb/blackjack/storage/sqlite/migrations"
	_ "modernc.org/sqlite"
)

// Store persists sessions and the card catalog in SQLite.
type Store struct {
	sqlDB *sql.DB
	now   func() time.Time
}

var _ blackjack.Store = (*Store)(nil)

// Open opens the database at path and applies embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(context.Background(), sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB, now: time.Now}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// SeedCatalog inserts cards when the catalog table is empty. It returns
// whether anything was written.
func (s *Store) SeedCatalog(ctx context.Context, cards []blackjack.Card) (bool, error) {
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin seed: %w", err)
	}
	defer tx.Rollback()

	var n int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(1) FROM cards`).Scan(&n); err != nil {
		return false, fmt.Errorf("count cards: %w", err)
	}
	if n > 0 {
		return false, nil
	}
	for _, c := range cards {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO cards (id, suit, rank) VALUES (?, ?, ?)`,
			int(c.ID()), c.Suit().String(), c.Rank().String(),
		); err != nil {
			return false, fmt.Errorf("insert card %d: %w", c.ID(), err)
		}
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit seed: %w", err)
	}
	return true, nil
}

// LoadCatalog reads the card catalog. The caller decides whether its
// size is acceptable.
func (s *Store) LoadCatalog(ctx context.Context) (*blackjack.Catalog, error) {
	rows, err := s.sqlDB.QueryContext(ctx, `SELECT id, suit, rank FROM cards ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query cards: %w", err)
	}
	defer rows.Close()

	var cards []blackjack.Card
	for rows.Next() {
		var (
			id         int
			suit, rank string
		)
		if err := rows.Scan(&id, &suit, &rank); err != nil {
			return nil, fmt.Errorf("scan card: %w", err)
		}
		st, err := blackjack.ParseSuit(suit)
		if err != nil {
			return nil, fmt.Errorf("card %d: %w", id, err)
		}
		rk, err := blackjack.ParseRank(rank)
		if err != nil {
			return nil, fmt.Errorf("card %d: %w", id, err)
		}
		cards = append(cards, blackjack.NewCard(blackjack.CardID(id), st, rk))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cards: %w", err)
	}
	return blackjack.NewCatalog(cards)
}

// SaveSession upserts rec unless a newer version is already stored.
func (s *Store) SaveSession(ctx context.Context, rec blackjack.SessionRecord) error {
	if rec.ID == "" {
		return errors.New("session id is required")
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", rec.ID, err)
	}

	_, err = s.sqlDB.ExecContext(ctx,
		`INSERT INTO sessions (id, join_code, owner_id, version, data, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   join_code = excluded.join_code,
		   owner_id = excluded.owner_id,
		   version = excluded.version,
		   data = excluded.data,
		   updated_at = excluded.updated_at
		 WHERE excluded.version > sessions.version`,
		rec.ID, rec.JoinCode, int(rec.Owner), rec.Version, string(data), s.now().UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("save session %s: %w", rec.ID, err)
	}
	return nil
}

func (s *Store) LoadSessions(ctx context.Context) ([]blackjack.SessionRecord, error) {
	rows, err := s.sqlDB.QueryContext(ctx, `SELECT id, data FROM sessions ORDER BY updated_at`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var recs []blackjack.SessionRecord
	for rows.Next() {
		var id, data string
		if err := rows.Scan(&id, &data); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		var rec blackjack.SessionRecord
		if err := json.Unmarshal([]byte(data), &rec); err != nil {
			return nil, fmt.Errorf("decode session %s: %w", id, err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return recs, nil
}

func (s *Store) DeleteSession(ctx context.Context, id string) error {
	if _, err := s.sqlDB.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	return nil
}
