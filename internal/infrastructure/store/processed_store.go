package store

import (
	"context"
	"database/sql"
	"sync"
)

// InMemoryProcessedStore tracks processed saga events in memory
type InMemoryProcessedStore struct {
	mu   sync.RWMutex
	keys map[string]struct{}
}

func NewInMemoryProcessedStore() *InMemoryProcessedStore {
	return &InMemoryProcessedStore{keys: make(map[string]struct{})}
}

func (s *InMemoryProcessedStore) Seen(ctx context.Context, handlerName, eventKey string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.keys[handlerName+"|"+eventKey]
	return ok, nil
}

func (s *InMemoryProcessedStore) Mark(ctx context.Context, handlerName, eventKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys[handlerName+"|"+eventKey] = struct{}{}
	return nil
}

// PostgresProcessedStore persists processed saga events in PostgreSQL.
//
// Expected schema:
//
//	CREATE TABLE processed_events (
//	    handler_name TEXT NOT NULL,
//	    event_key    TEXT NOT NULL,
//	    processed_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
//	    PRIMARY KEY (handler_name, event_key)
//	);
type PostgresProcessedStore struct {
	db *sql.DB
}

func NewPostgresProcessedStore(db *sql.DB) *PostgresProcessedStore {
	return &PostgresProcessedStore{db: db}
}

func (s *PostgresProcessedStore) Seen(ctx context.Context, handlerName, eventKey string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM processed_events WHERE handler_name = $1 AND event_key = $2)`,
		handlerName, eventKey,
	).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

func (s *PostgresProcessedStore) Mark(ctx context.Context, handlerName, eventKey string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO processed_events (handler_name, event_key)
		 VALUES ($1, $2)
		 ON CONFLICT DO NOTHING`,
		handlerName, eventKey,
	)
	return err
}
