package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/arelunainstituto/financeerp/internal/domain"

	_ "modernc.org/sqlite"
)

const (
	keyToken    = "auth_token"
	keyIdentity = "user_data"
)

// Open opens (creating if needed) the local session database.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open session db: %w", err)
	}
	// sqlite allows a single writer; one pooled connection serializes
	// access instead of surfacing busy errors.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS session (
			key   TEXT PRIMARY KEY,
			value BLOB NOT NULL
		)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("init session schema: %w", err)
	}
	return db, nil
}

// SQLiteStore persists the session record in a local key/value table.
// Both logical keys are always written and cleared inside one transaction,
// so readers see either the full prior record or the full new one.
type SQLiteStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSQLiteStore builds a store over an opened session database.
func NewSQLiteStore(db *sql.DB, logger *zap.Logger) *SQLiteStore {
	return &SQLiteStore{db: db, logger: logger}
}

// Load reads the persisted record. Both keys are read in one statement, so
// a save committing concurrently is seen wholly or not at all. Missing
// counterpart keys or an identity blob without the required fields mean
// corrupt partial state: both entries are purged and the store reports
// empty. Storage faults also degrade to empty rather than crashing the
// caller.
func (s *SQLiteStore) Load(ctx context.Context) (*Record, error) {
	entries, err := s.loadEntries(ctx)
	if err != nil {
		s.logger.Warn("session load failed, treating as empty", zap.Error(err))
		return nil, nil
	}
	token, tokenOK := entries[keyToken]
	identityBlob, identityOK := entries[keyIdentity]

	if !tokenOK && !identityOK {
		return nil, nil
	}
	if !tokenOK || !identityOK {
		s.logger.Warn("partial session state found, purging")
		s.purge(ctx)
		return nil, nil
	}

	var identity domain.Identity
	if err := json.Unmarshal(identityBlob, &identity); err != nil || !identity.Complete() {
		s.logger.Warn("corrupt identity blob, purging", zap.Error(err))
		s.purge(ctx)
		return nil, nil
	}
	if len(token) == 0 {
		s.purge(ctx)
		return nil, nil
	}

	return &Record{Token: string(token), Identity: identity}, nil
}

// Save persists token and identity atomically. A failed save is security
// relevant (a login that did not complete), so the fault is surfaced.
func (s *SQLiteStore) Save(ctx context.Context, token string, identity domain.Identity) error {
	blob, err := json.Marshal(identity)
	if err != nil {
		return fmt.Errorf("%w: encode identity: %v", ErrPersistence, err)
	}

	err = s.withTx(ctx, func(tx *sql.Tx) error {
		if err := upsert(ctx, tx, keyToken, []byte(token)); err != nil {
			return err
		}
		return upsert(ctx, tx, keyIdentity, blob)
	})
	if err != nil {
		return fmt.Errorf("%w: save: %v", ErrPersistence, err)
	}
	return nil
}

// Clear purges both entries. Idempotent: clearing an empty store succeeds.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `DELETE FROM session WHERE key IN (?, ?)`, keyToken, keyIdentity)
		return err
	})
	if err != nil {
		return fmt.Errorf("%w: clear: %v", ErrPersistence, err)
	}
	return nil
}

func (s *SQLiteStore) loadEntries(ctx context.Context) (map[string][]byte, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM session WHERE key IN (?, ?)`, keyToken, keyIdentity)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make(map[string][]byte, 2)
	for rows.Next() {
		var key string
		var value []byte
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		entries[key] = value
	}
	return entries, rows.Err()
}

// purge is best effort: it runs while already degrading to empty.
func (s *SQLiteStore) purge(ctx context.Context) {
	if err := s.Clear(ctx); err != nil {
		s.logger.Warn("failed to purge corrupt session state", zap.Error(err))
	}
}

func (s *SQLiteStore) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func upsert(ctx context.Context, tx *sql.Tx, key string, value []byte) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO session (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}
