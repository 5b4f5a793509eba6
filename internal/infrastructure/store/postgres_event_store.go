package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/example/fulfillment-event-driven/internal/infrastructure/kafka"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// PostgresEventStore stores events in PostgreSQL.
//
// Expected schema:
//
//	CREATE TABLE events (
//	    global_seq     BIGSERIAL PRIMARY KEY,
//	    id             UUID NOT NULL,
//	    aggregate_id   TEXT NOT NULL,
//	    aggregate_type TEXT NOT NULL,
//	    event_type     TEXT NOT NULL,
//	    data           JSONB NOT NULL,
//	    version        INT NOT NULL,
//	    created_at     TIMESTAMPTZ NOT NULL,
//	    UNIQUE (aggregate_id, version)
//	);
//	CREATE TABLE snapshots (
//	    aggregate_id   TEXT PRIMARY KEY,
//	    aggregate_type TEXT NOT NULL,
//	    version        INT NOT NULL,
//	    state          JSONB NOT NULL,
//	    created_at     TIMESTAMPTZ NOT NULL
//	);
//
// The UNIQUE (aggregate_id, version) constraint is what turns a lost append
// race into ErrVersionConflict.
type PostgresEventStore struct {
	db       *sql.DB
	producer *kafka.Producer
}

func NewPostgresEventStore(db *sql.DB, producer *kafka.Producer) *PostgresEventStore {
	return &PostgresEventStore{
		db:       db,
		producer: producer,
	}
}

// Append stores an event at expectedVersion+1 and publishes it to Kafka.
// A concurrent writer that appended first trips the unique constraint and
// the caller gets ErrVersionConflict.
func (es *PostgresEventStore) Append(ctx context.Context, aggregateID, aggregateType, eventType string, expectedVersion int, data any) (*Event, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	event := Event{
		ID:            uuid.New().String(),
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		EventType:     eventType,
		Data:          jsonData,
		Timestamp:     time.Now(),
		Version:       expectedVersion + 1,
	}

	err = es.db.QueryRowContext(ctx,
		`INSERT INTO events (id, aggregate_id, aggregate_type, event_type, data, version, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING global_seq`,
		event.ID,
		event.AggregateID,
		event.AggregateType,
		event.EventType,
		event.Data,
		event.Version,
		event.Timestamp,
	).Scan(&event.GlobalSeq)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return nil, ErrVersionConflict
		}
		return nil, err
	}

	// Publish to Kafka
	if es.producer != nil {
		if err := es.producer.Publish(ctx, aggregateID, event); err != nil {
			return nil, err
		}
	}

	return &event, nil
}

// GetEvents returns all events for an aggregate in version order
func (es *PostgresEventStore) GetEvents(aggregateID string) []Event {
	return es.queryEvents(context.Background(),
		`SELECT global_seq, id, aggregate_id, aggregate_type, event_type, data, version, created_at
		 FROM events
		 WHERE aggregate_id = $1
		 ORDER BY version ASC`,
		aggregateID,
	)
}

// GetEventsFromVersion returns events for an aggregate with version > afterVersion
func (es *PostgresEventStore) GetEventsFromVersion(ctx context.Context, aggregateID string, afterVersion int) []Event {
	return es.queryEvents(ctx,
		`SELECT global_seq, id, aggregate_id, aggregate_type, event_type, data, version, created_at
		 FROM events
		 WHERE aggregate_id = $1 AND version > $2
		 ORDER BY version ASC`,
		aggregateID, afterVersion,
	)
}

// GetAllEvents returns all events in global append order
func (es *PostgresEventStore) GetAllEvents() []Event {
	return es.queryEvents(context.Background(),
		`SELECT global_seq, id, aggregate_id, aggregate_type, event_type, data, version, created_at
		 FROM events
		 ORDER BY global_seq ASC`,
	)
}

// GetEventsByTypeAfter returns up to limit events of an aggregate type past the cursor
func (es *PostgresEventStore) GetEventsByTypeAfter(ctx context.Context, aggregateType string, afterSeq int64, limit int) ([]Event, error) {
	rows, err := es.db.QueryContext(ctx,
		`SELECT global_seq, id, aggregate_id, aggregate_type, event_type, data, version, created_at
		 FROM events
		 WHERE aggregate_type = $1 AND global_seq > $2
		 ORDER BY global_seq ASC
		 LIMIT $3`,
		aggregateType, afterSeq, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEvents(rows), nil
}

// GetSnapshot returns the latest snapshot for an aggregate, or nil
func (es *PostgresEventStore) GetSnapshot(ctx context.Context, aggregateID string) (*Snapshot, error) {
	var s Snapshot
	err := es.db.QueryRowContext(ctx,
		`SELECT aggregate_id, aggregate_type, version, state, created_at
		 FROM snapshots
		 WHERE aggregate_id = $1`,
		aggregateID,
	).Scan(&s.AggregateID, &s.AggregateType, &s.Version, &s.State, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

// SaveSnapshot upserts the snapshot for an aggregate
func (es *PostgresEventStore) SaveSnapshot(ctx context.Context, snapshot *Snapshot) error {
	_, err := es.db.ExecContext(ctx,
		`INSERT INTO snapshots (aggregate_id, aggregate_type, version, state, created_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (aggregate_id)
		 DO UPDATE SET aggregate_type = $2, version = $3, state = $4, created_at = $5`,
		snapshot.AggregateID,
		snapshot.AggregateType,
		snapshot.Version,
		snapshot.State,
		snapshot.CreatedAt,
	)
	return err
}

func (es *PostgresEventStore) queryEvents(ctx context.Context, query string, args ...any) []Event {
	rows, err := es.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil
	}
	defer rows.Close()
	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) []Event {
	var events []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.GlobalSeq, &e.ID, &e.AggregateID, &e.AggregateType, &e.EventType, &e.Data, &e.Version, &e.Timestamp); err != nil {
			continue
		}
		events = append(events, e)
	}
	return events
}

// ConnectPostgres establishes a connection to PostgreSQL
func ConnectPostgres(connStr string) (*sql.DB, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	// Test connection
	if err := db.Ping(); err != nil {
		return nil, err
	}

	// Configure connection pool
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return db, nil
}
