// Package sqlite keeps the committed event stream in an embedded database.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/urbandao/urbandao/internal/domain"
	"github.com/urbandao/urbandao/internal/domain/config"
	"github.com/urbandao/urbandao/internal/usecase"

	_ "modernc.org/sqlite"
)

// EventStoreAdapter implements EventStore over sqlite. The database is opened
// on first use so commands that never touch events do not create it.
type EventStoreAdapter struct {
	path string
	db   *sql.DB
}

// NewEventStoreAdapter creates a new EventStoreAdapter
func NewEventStoreAdapter(cfg *config.RuntimeConfig) *EventStoreAdapter {
	return &EventStoreAdapter{path: cfg.EventsPath()}
}

// Open opens and migrates the database at path. ":memory:" is accepted.
func Open(path string) (*EventStoreAdapter, error) {
	s := &EventStoreAdapter{path: path}
	if _, err := s.conn(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *EventStoreAdapter) conn() (*sql.DB, error) {
	if s.db != nil {
		return s.db, nil
	}
	if s.path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create event store directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open event store: %w", err)
	}
	// one connection keeps ":memory:" databases alive and serializes writers
	db.SetMaxOpenConns(1)
	if err := runMigrations(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	s.db = db
	return db, nil
}

// Publish appends committed events in one transaction
func (s *EventStoreAdapter) Publish(ctx context.Context, events []domain.Event) error {
	if len(events) == 0 {
		return nil
	}
	db, err := s.conn()
	if err != nil {
		return err
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin event transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO events (
		seq, id, type, module, entity_id, from_status, to_status, actor, data, at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare event insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, ev := range events {
		data, err := json.Marshal(ev.Data)
		if err != nil {
			return fmt.Errorf("failed to encode event %d: %w", ev.Seq, err)
		}
		if _, err := stmt.ExecContext(ctx,
			ev.Seq, ev.ID, string(ev.Type), ev.Module, ev.EntityID, ev.From, ev.To,
			ev.Actor.Hex(), string(data), ev.At.UTC().Format(time.RFC3339Nano),
		); err != nil {
			return fmt.Errorf("failed to insert event %d: %w", ev.Seq, err)
		}
	}
	return tx.Commit()
}

// List returns events matching filter in sequence order. A positive limit
// keeps the most recent matches.
func (s *EventStoreAdapter) List(ctx context.Context, filter domain.EventFilter) ([]domain.Event, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}

	var (
		where []string
		args  []interface{}
	)
	if filter.Module != "" {
		where = append(where, "module = ?")
		args = append(args, filter.Module)
	}
	if filter.Type != "" {
		where = append(where, "type = ?")
		args = append(args, string(filter.Type))
	}
	if filter.EntityID != 0 {
		where = append(where, "entity_id = ?")
		args = append(args, filter.EntityID)
	}
	if filter.Actor != (common.Address{}) {
		where = append(where, "actor = ?")
		args = append(args, filter.Actor.Hex())
	}

	query := "SELECT seq, id, type, module, entity_id, from_status, to_status, actor, data, at FROM events"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY seq DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []domain.Event
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func scanEvent(rows *sql.Rows) (domain.Event, error) {
	var (
		ev         domain.Event
		typ, actor string
		data, at   string
	)
	if err := rows.Scan(&ev.Seq, &ev.ID, &typ, &ev.Module, &ev.EntityID, &ev.From, &ev.To, &actor, &data, &at); err != nil {
		return ev, fmt.Errorf("failed to scan event: %w", err)
	}
	ev.Type = domain.EventType(typ)
	ev.Actor = common.HexToAddress(actor)
	if err := json.Unmarshal([]byte(data), &ev.Data); err != nil {
		return ev, fmt.Errorf("failed to decode event %d data: %w", ev.Seq, err)
	}
	t, err := time.Parse(time.RFC3339Nano, at)
	if err != nil {
		return ev, fmt.Errorf("failed to parse event %d time: %w", ev.Seq, err)
	}
	ev.At = t
	return ev, nil
}

// Reset drops every stored event
func (s *EventStoreAdapter) Reset(ctx context.Context) error {
	db, err := s.conn()
	if err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, "DELETE FROM events"); err != nil {
		return fmt.Errorf("failed to reset event store: %w", err)
	}
	return nil
}

// Close releases the database
func (s *EventStoreAdapter) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// Ensure EventStoreAdapter implements EventStore
var _ usecase.EventStore = (*EventStoreAdapter)(nil)
