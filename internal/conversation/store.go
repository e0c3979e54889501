// Package conversation persists per-thread checkpoint logs. Each successful
// turn appends exactly one batch of messages; a thread's full history is the
// ordered concatenation of its batches.
package conversation

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/stridelab/stridecoach/pkg/fault"
	"github.com/stridelab/stridecoach/pkg/models"
)

const schemaDDL = `
CREATE TABLE IF NOT EXISTS checkpoints (
	thread_id  TEXT    NOT NULL,
	turn_index INTEGER NOT NULL,
	messages   TEXT    NOT NULL,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (thread_id, turn_index)
);
`

// SQLiteStore is the durable checkpoint log. It shares the application
// database; one row per (thread, turn) with the turn's messages serialized
// as JSON.
type SQLiteStore struct {
	db    *sql.DB
	locks *lockTable
}

// NewSQLiteStore bootstraps the checkpoint table on the given database.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	if _, err := db.Exec(schemaDDL); err != nil {
		return nil, fmt.Errorf("conversation schema: %w", err)
	}
	return &SQLiteStore{db: db, locks: newLockTable()}, nil
}

// Load returns the thread's full message history in turn order. Unknown
// threads return an empty history.
func (s *SQLiteStore) Load(ctx context.Context, threadID string) ([]models.ChatMessage, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT messages FROM checkpoints WHERE thread_id = ? ORDER BY turn_index ASC`, threadID)
	if err != nil {
		return nil, fault.Wrap(fault.Unavailable, "load checkpoints", err)
	}
	defer rows.Close()

	var history []models.ChatMessage
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fault.Wrap(fault.Unavailable, "scan checkpoint", err)
		}
		var batch []models.ChatMessage
		if err := json.Unmarshal([]byte(raw), &batch); err != nil {
			return nil, fmt.Errorf("decode checkpoint for thread %s: %w", threadID, err)
		}
		history = append(history, batch...)
	}
	if err := rows.Err(); err != nil {
		return nil, fault.Wrap(fault.Unavailable, "load checkpoints", err)
	}
	return history, nil
}

// Append writes one turn's messages as the next checkpoint row in a single
// transaction, so a crash never leaves a partial turn behind.
func (s *SQLiteStore) Append(ctx context.Context, threadID string, msgs []models.ChatMessage) error {
	if len(msgs) == 0 {
		return nil
	}

	raw, err := json.Marshal(msgs)
	if err != nil {
		return fmt.Errorf("encode checkpoint: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fault.Wrap(fault.Unavailable, "begin checkpoint append", err)
	}
	defer tx.Rollback()

	var next int64
	err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(turn_index) + 1, 0) FROM checkpoints WHERE thread_id = ?`, threadID,
	).Scan(&next)
	if err != nil {
		return fault.Wrap(fault.Unavailable, "next turn index", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO checkpoints (thread_id, turn_index, messages) VALUES (?, ?, ?)`,
		threadID, next, string(raw))
	if err != nil {
		return fault.Wrap(fault.Unavailable, "insert checkpoint", err)
	}

	if err := tx.Commit(); err != nil {
		return fault.Wrap(fault.Unavailable, "commit checkpoint", err)
	}

	log.Debug().
		Str("thread_id", threadID).
		Int64("turn_index", next).
		Int("messages", len(msgs)).
		Msg("Checkpoint appended")
	return nil
}

// Acquire takes the per-thread turn lock.
func (s *SQLiteStore) Acquire(threadID string) (func(), error) {
	return s.locks.Acquire(threadID)
}
