package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/kirillkom/lost-time-companion/internal/core/domain"
)

// ConversationRepository keeps each session's messages ordered by a per-session
// sequence number.
type ConversationRepository struct {
	db *sql.DB
}

func NewConversationRepository(db *sql.DB) *ConversationRepository {
	return &ConversationRepository{db: db}
}

func (r *ConversationRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across concurrent api/mcp startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026101401)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS conversation_messages (
	session_id TEXT NOT NULL,
	seq BIGINT NOT NULL,
	role TEXT NOT NULL,
	content TEXT NOT NULL DEFAULT '',
	passages JSONB,
	created_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (session_id, seq)
);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

// AppendTurn writes both messages in one transaction holding a per-session
// advisory lock, so concurrent turns of a session never interleave.
func (r *ConversationRepository) AppendTurn(ctx context.Context, sessionID string, user, assistant domain.Message) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin append tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, sessionID); err != nil {
		return fmt.Errorf("acquire session lock: %w", err)
	}

	var lastSeq int64
	row := tx.QueryRowContext(ctx, `
SELECT COALESCE(MAX(seq), 0)
FROM conversation_messages
WHERE session_id = $1
`, sessionID)
	if err := row.Scan(&lastSeq); err != nil {
		return fmt.Errorf("read last seq: %w", err)
	}

	for i, msg := range []domain.Message{user, assistant} {
		if err := insertMessage(ctx, tx, sessionID, lastSeq+int64(i)+1, msg); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit append tx: %w", err)
	}
	return nil
}

func insertMessage(ctx context.Context, tx *sql.Tx, sessionID string, seq int64, msg domain.Message) error {
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	passages, err := marshalPassages(msg.Passages)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `
INSERT INTO conversation_messages (session_id, seq, role, content, passages, created_at)
VALUES ($1,$2,$3,$4,$5,$6)
`, sessionID, seq, string(msg.Role), msg.Content, passages, msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert message seq=%d: %w", seq, err)
	}
	return nil
}

func (r *ConversationRepository) ListMessages(ctx context.Context, sessionID string) ([]domain.Message, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT role, content, passages, created_at
FROM conversation_messages
WHERE session_id = $1
ORDER BY seq ASC
`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Message, 0, 16)
	for rows.Next() {
		var (
			msg      domain.Message
			role     string
			passages []byte
		)
		if err := rows.Scan(&role, &msg.Content, &passages, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		msg.Role = domain.Role(role)
		if len(passages) > 0 {
			if err := json.Unmarshal(passages, &msg.Passages); err != nil {
				return nil, fmt.Errorf("decode passages: %w", err)
			}
		}
		out = append(out, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}
	return out, nil
}

func marshalPassages(passages []domain.PassageRecord) (interface{}, error) {
	if passages == nil {
		return nil, nil
	}
	raw, err := json.Marshal(passages)
	if err != nil {
		return nil, fmt.Errorf("marshal passages: %w", err)
	}
	return raw, nil
}
