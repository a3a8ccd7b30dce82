package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/avlasenko/taxikit/internal/domain"
)

// ErrNoSnapshot is returned when the cache holds nothing for the
// requested driver and year.
var ErrNoSnapshot = errors.New("no cached snapshot")

// Cache persists flow snapshots and chat history locally. All methods
// are safe for concurrent use; the underlying *sql.DB serializes access.
type Cache struct {
	db  *sql.DB
	now func() time.Time
}

func NewCache(db *sql.DB) *Cache {
	return &Cache{db: db, now: time.Now}
}

// SaveSnapshot replaces the cached snapshot for a driver and year.
func (c *Cache) SaveSnapshot(ctx context.Context, driverID int64, year int, status domain.PeriodStatus) error {
	payload, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	_, err = c.db.ExecContext(ctx,
		`INSERT INTO flow_snapshots (driver_id, year, payload, fetched_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (driver_id, year) DO UPDATE SET
			payload = excluded.payload,
			fetched_at = excluded.fetched_at`,
		driverID, year, string(payload), c.now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("saving snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot returns the cached snapshot and the time it was fetched.
// Returns ErrNoSnapshot when the cache is empty for this key.
func (c *Cache) LoadSnapshot(ctx context.Context, driverID int64, year int) (domain.PeriodStatus, time.Time, error) {
	var payload, fetchedAt string
	err := c.db.QueryRowContext(ctx,
		`SELECT payload, fetched_at FROM flow_snapshots WHERE driver_id = ? AND year = ?`,
		driverID, year).Scan(&payload, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.PeriodStatus{}, time.Time{}, ErrNoSnapshot
	}
	if err != nil {
		return domain.PeriodStatus{}, time.Time{}, fmt.Errorf("loading snapshot: %w", err)
	}

	var status domain.PeriodStatus
	if err := json.Unmarshal([]byte(payload), &status); err != nil {
		return domain.PeriodStatus{}, time.Time{}, fmt.Errorf("decoding snapshot: %w", err)
	}
	at, err := time.Parse(time.RFC3339, fetchedAt)
	if err != nil {
		return domain.PeriodStatus{}, time.Time{}, fmt.Errorf("decoding fetch time: %w", err)
	}
	return status, at, nil
}

// SaveMessages replaces the cached chat history for a driver. Pending
// local echoes are skipped; only confirmed messages survive a restart.
func (c *Cache) SaveMessages(ctx context.Context, driverID int64, messages []domain.ChatMessage) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM chat_messages WHERE driver_id = ?`, driverID); err != nil {
		return fmt.Errorf("clearing messages: %w", err)
	}
	for _, m := range messages {
		if m.State != domain.MessageConfirmed {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO chat_messages (driver_id, message_id, sender_id, body, sent_at)
			 VALUES (?, ?, ?, ?, ?)`,
			driverID, m.ID, m.SenderID, m.Text, m.SentAt.UTC().Format(time.RFC3339Nano)); err != nil {
			return fmt.Errorf("saving message %s: %w", m.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing messages: %w", err)
	}
	return nil
}

// LoadMessages returns the cached history for a driver in sent order.
func (c *Cache) LoadMessages(ctx context.Context, driverID int64) ([]domain.ChatMessage, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT message_id, sender_id, body, sent_at
		 FROM chat_messages WHERE driver_id = ? ORDER BY sent_at, message_id`,
		driverID)
	if err != nil {
		return nil, fmt.Errorf("loading messages: %w", err)
	}
	defer rows.Close()

	var out []domain.ChatMessage
	for rows.Next() {
		var m domain.ChatMessage
		var sentAt string
		if err := rows.Scan(&m.ID, &m.SenderID, &m.Text, &sentAt); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		m.SentAt, err = time.Parse(time.RFC3339Nano, sentAt)
		if err != nil {
			return nil, fmt.Errorf("decoding sent time: %w", err)
		}
		m.State = domain.MessageConfirmed
		out = append(out, m)
	}
	return out, rows.Err()
}
