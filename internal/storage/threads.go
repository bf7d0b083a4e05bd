package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"taxrag/internal/models"
)

// ThreadStore persists thread checkpoints in SQL so conversation continuity
// survives restarts. Saves rewrite the thread's messages in one transaction;
// summarization therefore compacts rows atomically.
type ThreadStore struct {
	db *sql.DB
}

func NewThreadStore(db *sql.DB) *ThreadStore {
	return &ThreadStore{db: db}
}

// Load returns the checkpoint for a thread, or (nil, nil) when the thread
// does not exist yet.
func (s *ThreadStore) Load(ctx context.Context, threadID string) (*models.Checkpoint, error) {
	cp := &models.Checkpoint{ThreadID: threadID}
	err := s.db.QueryRowContext(ctx,
		`SELECT summary, updated_at FROM threads WHERE id = ?`,
		threadID,
	).Scan(&cp.Summary, &cp.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load thread: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, role, content, internal, created_at FROM messages WHERE thread_id = ? ORDER BY id ASC`,
		threadID,
	)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		m := &models.Message{ThreadID: threadID}
		if err := rows.Scan(&m.ID, &m.Role, &m.Content, &m.Internal, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		cp.Messages = append(cp.Messages, m)
	}
	return cp, rows.Err()
}

// Save upserts the thread row and replaces its messages.
func (s *ThreadStore) Save(ctx context.Context, cp *models.Checkpoint) error {
	if cp == nil || cp.ThreadID == "" {
		return &models.ValidationError{Field: "checkpoint", Reason: "thread id required"}
	}
	now := time.Now().UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE threads SET summary = ?, updated_at = ? WHERE id = ?`,
		cp.Summary, now, cp.ThreadID,
	)
	if err != nil {
		return fmt.Errorf("update thread: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("thread rows affected: %w", err)
	}
	if affected == 0 {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO threads (id, summary, created_at, updated_at) VALUES (?, ?, ?, ?)`,
			cp.ThreadID, cp.Summary, now, now,
		); err != nil {
			return fmt.Errorf("insert thread: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE thread_id = ?`, cp.ThreadID); err != nil {
		return fmt.Errorf("clear messages: %w", err)
	}
	for _, m := range cp.Messages {
		createdAt := m.CreatedAt
		if createdAt.IsZero() {
			createdAt = now
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO messages (thread_id, role, content, internal, created_at) VALUES (?, ?, ?, ?, ?)`,
			cp.ThreadID, m.Role, m.Content, m.Internal, createdAt,
		); err != nil {
			return fmt.Errorf("insert message: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit thread save: %w", err)
	}
	return nil
}
