package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"coursegate/internal/claims/models"
	id "coursegate/pkg/domain"
	"coursegate/pkg/platform/sentinel"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS claims_cache (
	slot       TEXT PRIMARY KEY,
	subject_id TEXT NOT NULL,
	claims     TEXT NOT NULL,
	stored_at  INTEGER NOT NULL
)`

// SQLiteStore persists the cache slot in a local SQLite file so cached claims
// survive a process restart.
type SQLiteStore struct {
	db   *sql.DB
	slot string
}

// SQLiteOption configures a SQLiteStore.
type SQLiteOption func(*SQLiteStore)

// WithSQLiteSlot selects the slot row; defaults to DefaultSlot.
func WithSQLiteSlot(slot string) SQLiteOption {
	return func(s *SQLiteStore) {
		if slot != "" {
			s.slot = slot
		}
	}
}

// OpenSQLite opens (creating if needed) the database at path.
// SQLite serializes writers, so the pool is pinned to one connection.
func OpenSQLite(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, `PRAGMA busy_timeout = 5000`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("configure sqlite: %w", err)
	}
	return db, nil
}

// NewSQLite constructs a store on db and ensures the schema exists.
func NewSQLite(ctx context.Context, db *sql.DB, opts ...SQLiteOption) (*SQLiteStore, error) {
	s := &SQLiteStore{db: db, slot: DefaultSlot}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		return nil, fmt.Errorf("create claims_cache table: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) Load(ctx context.Context) (*models.CacheEntry, error) {
	var (
		subject  string
		rawClaim string
		storedAt int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT subject_id, claims, stored_at FROM claims_cache WHERE slot = ?`, s.slot,
	).Scan(&subject, &rawClaim, &storedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("claims cache slot empty: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("load claims cache: %w", err)
	}

	var claims models.Claims
	if err := json.Unmarshal([]byte(rawClaim), &claims); err != nil {
		return nil, fmt.Errorf("decode cached claims: %w", err)
	}
	return &models.CacheEntry{
		SubjectID: id.SubjectID(subject),
		Claims:    &claims,
		Timestamp: time.Unix(0, storedAt).UTC(),
	}, nil
}

// Save upserts the slot. The conditional update is what makes the monotonic
// check atomic: a same-subject row with a newer timestamp is not touched.
func (s *SQLiteStore) Save(ctx context.Context, entry *models.CacheEntry) error {
	if err := validateEntry(entry); err != nil {
		return err
	}
	payload, err := json.Marshal(entry.Claims)
	if err != nil {
		return fmt.Errorf("encode claims: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO claims_cache (slot, subject_id, claims, stored_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (slot) DO UPDATE SET
			subject_id = excluded.subject_id,
			claims     = excluded.claims,
			stored_at  = excluded.stored_at
		WHERE claims_cache.subject_id <> excluded.subject_id
		   OR excluded.stored_at >= claims_cache.stored_at`,
		s.slot, entry.SubjectID.String(), string(payload), entry.Timestamp.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("save claims cache: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("save claims cache: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("claims entry for %s older than stored entry: %w", entry.SubjectID, sentinel.ErrStaleWrite)
	}
	return nil
}

func (s *SQLiteStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM claims_cache WHERE slot = ?`, s.slot); err != nil {
		return fmt.Errorf("clear claims cache: %w", err)
	}
	return nil
}
