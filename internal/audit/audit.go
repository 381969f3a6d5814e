// Package audit persists session lifecycle records to PostgreSQL in small
// batches, the same ticker-driven batch-then-flush shape this lineage uses
// for its own metric ingestion, repurposed here for connection auditing.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/lib/pq"
)

// EventKind identifies the lifecycle transition a Record describes.
type EventKind string

const (
	EventConnectionOpened   EventKind = "connection_opened"
	EventConnectionClosed   EventKind = "connection_closed"
	EventCommandMalformed   EventKind = "command_malformed"
	EventHandshakeFailed    EventKind = "handshake_failed"
)

// Record is one session lifecycle transition.
type Record struct {
	ConnectionID string
	RemoteAddr   string
	Kind         EventKind
	Detail       string
	At           time.Time
}

// Log batches Records and flushes them to PostgreSQL's session_events table.
type Log struct {
	db            *sql.DB
	batchSize     int
	flushInterval time.Duration

	mu      sync.Mutex
	pending []Record

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// Connect opens the PostgreSQL connection and configures pool sizing the way
// the rest of this lineage's services do.
func Connect(connectionString string) (*sql.DB, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("audit: opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("audit: pinging database: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	return db, nil
}

// NewLog creates a batching audit log backed by db.
func NewLog(db *sql.DB, batchSize int, flushInterval time.Duration) *Log {
	return &Log{
		db:            db,
		batchSize:     batchSize,
		flushInterval: flushInterval,
		stopCh:        make(chan struct{}),
	}
}

// Start launches the background flush loop.
func (l *Log) Start() {
	l.wg.Add(1)
	go l.run()
}

// Stop flushes any pending records and halts the flush loop.
func (l *Log) Stop() {
	close(l.stopCh)
	l.wg.Wait()
}

// Record enqueues a lifecycle event for the next flush. Once the pending
// batch reaches batchSize, Record flushes it to the database synchronously on
// the calling goroutine; otherwise it does no I/O.
func (l *Log) Record(r Record) {
	if r.At.IsZero() {
		r.At = time.Now()
	}

	l.mu.Lock()
	l.pending = append(l.pending, r)
	shouldFlush := len(l.pending) >= l.batchSize
	l.mu.Unlock()

	if shouldFlush {
		l.flush()
	}
}

func (l *Log) run() {
	defer l.wg.Done()

	ticker := time.NewTicker(l.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.flush()
		case <-l.stopCh:
			l.flush()
			return
		}
	}
}

func (l *Log) flush() {
	l.mu.Lock()
	batch := l.pending
	l.pending = nil
	l.mu.Unlock()

	if len(batch) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO session_events (connection_id, remote_addr, kind, detail, occurred_at)
		VALUES ($1, $2, $3, $4, $5)
	`)
	if err != nil {
		tx.Rollback()
		return
	}
	defer stmt.Close()

	for _, r := range batch {
		if _, err := stmt.ExecContext(ctx, r.ConnectionID, r.RemoteAddr, string(r.Kind), r.Detail, r.At); err != nil {
			tx.Rollback()
			return
		}
	}

	tx.Commit()
}
