package store

import (
	"context"
	"database/sql"
	"errors"
	"sync"
)

// InMemoryCursorStore keeps subscription cursors in memory. Used in tests and
// single-process setups; restarts replay the whole feed, which handlers must
// tolerate anyway.
type InMemoryCursorStore struct {
	mu      sync.RWMutex
	cursors map[string]int64
}

func NewInMemoryCursorStore() *InMemoryCursorStore {
	return &InMemoryCursorStore{cursors: make(map[string]int64)}
}

func (s *InMemoryCursorStore) SaveCursor(ctx context.Context, handlerName string, position int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cursors[handlerName] = position
	return nil
}

func (s *InMemoryCursorStore) GetCursor(ctx context.Context, handlerName string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cursors[handlerName], nil
}

// PostgresCursorStore persists subscription cursors in PostgreSQL.
//
// Expected schema:
//
//	CREATE TABLE handler_cursors (
//	    handler_name TEXT PRIMARY KEY,
//	    position     BIGINT NOT NULL,
//	    updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
//	);
type PostgresCursorStore struct {
	db *sql.DB
}

func NewPostgresCursorStore(db *sql.DB) *PostgresCursorStore {
	return &PostgresCursorStore{db: db}
}

func (s *PostgresCursorStore) SaveCursor(ctx context.Context, handlerName string, position int64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO handler_cursors (handler_name, position, updated_at)
		 VALUES ($1, $2, NOW())
		 ON CONFLICT (handler_name)
		 DO UPDATE SET position = $2, updated_at = NOW()`,
		handlerName, position,
	)
	return err
}

func (s *PostgresCursorStore) GetCursor(ctx context.Context, handlerName string) (int64, error) {
	var position int64
	err := s.db.QueryRowContext(ctx,
		`SELECT position FROM handler_cursors WHERE handler_name = $1`,
		handlerName,
	).Scan(&position)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, err
	}
	return position, nil
}
