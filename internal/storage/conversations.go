package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

const tsLayout = time.RFC3339Nano

func formatTime(t time.Time) string { return t.UTC().Format(tsLayout) }

func parseTime(s string) (time.Time, error) {
	return time.Parse(tsLayout, s)
}

func parseNullTime(ns sql.NullString) (*time.Time, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	t, err := parseTime(ns.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// --- Conversations ---

func (s *Store) CreateConversation(ctx context.Context, c Conversation) error {
	startedAt := c.StartedAt
	if startedAt.IsZero() {
		startedAt = time.Now()
	}
	var userID sql.NullInt64
	if c.UserID != nil {
		userID = sql.NullInt64{Int64: *c.UserID, Valid: true}
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO conversations (id, user_id, started_at) VALUES (?, ?, ?)`,
		c.ID, userID, formatTime(startedAt))
	return err
}

func (s *Store) GetConversation(ctx context.Context, id string) (Conversation, error) {
	return getConversation(ctx, s.db, id)
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getConversation(ctx context.Context, q queryRower, id string) (Conversation, error) {
	var (
		c         Conversation
		userID    sql.NullInt64
		startedAt string
		endedAt   sql.NullString
	)
	err := q.QueryRowContext(ctx,
		`SELECT id, user_id, started_at, ended_at FROM conversations WHERE id = ?`, id,
	).Scan(&c.ID, &userID, &startedAt, &endedAt)
	if err == sql.ErrNoRows {
		return Conversation{}, ErrNotFound
	}
	if err != nil {
		return Conversation{}, err
	}
	if userID.Valid {
		uid := userID.Int64
		c.UserID = &uid
	}
	if c.StartedAt, err = parseTime(startedAt); err != nil {
		return Conversation{}, fmt.Errorf("parsing started_at: %w", err)
	}
	if c.EndedAt, err = parseNullTime(endedAt); err != nil {
		return Conversation{}, fmt.Errorf("parsing ended_at: %w", err)
	}
	return c, nil
}

// EndConversation marks an active conversation ended. Ending a conversation
// that has already ended returns ErrConflict.
func (s *Store) EndConversation(ctx context.Context, id string, at time.Time) (Conversation, error) {
	var c Conversation
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE conversations SET ended_at = ? WHERE id = ? AND ended_at IS NULL`, formatTime(at), id)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		c, err = getConversation(ctx, tx, id)
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrConflict
		}
		return nil
	})
	return c, err
}

// SaveTurn appends one dialogue turn atomically. The conversation must
// exist and still be active at commit time.
func (s *Store) SaveTurn(ctx context.Context, t *Turn) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		c, err := getConversation(ctx, tx, t.Incoming.ConversationID)
		if err != nil {
			return err
		}
		if !c.Active() {
			return ErrConflict
		}

		if t.Incoming.ID, err = insertMessage(ctx, tx, t.Incoming); err != nil {
			return fmt.Errorf("inserting incoming message: %w", err)
		}
		if t.Outgoing.ID, err = insertMessage(ctx, tx, t.Outgoing); err != nil {
			return fmt.Errorf("inserting outgoing message: %w", err)
		}

		if inv := t.Invocation; inv != nil {
			inv.MessageID = t.Incoming.ID
			var completedAt sql.NullString
			if inv.CompletedAt != nil {
				completedAt = sql.NullString{String: formatTime(*inv.CompletedAt), Valid: true}
			}
			_, err := tx.ExecContext(ctx, `
				INSERT INTO function_invocations
					(id, conversation_id, message_id, name, parameters_json, status, result_json, error, created_at, completed_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				inv.ID, inv.ConversationID, inv.MessageID, inv.Name, inv.ParametersJSON, inv.Status,
				inv.ResultJSON, inv.Error, formatTime(inv.CreatedAt), completedAt)
			if err != nil {
				return fmt.Errorf("inserting invocation: %w", err)
			}
		}
		return nil
	})
}

func insertMessage(ctx context.Context, tx *sql.Tx, m Message) (int64, error) {
	createdAt := m.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	res, err := tx.ExecContext(ctx, `
		INSERT INTO messages (conversation_id, direction, content, intent, confidence, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		m.ConversationID, m.Direction, m.Content, m.Intent, m.Confidence, formatTime(createdAt))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ListMessages returns a conversation's messages in insertion order.
func (s *Store) ListMessages(ctx context.Context, conversationID string) ([]Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, conversation_id, direction, content, intent, confidence, created_at
		FROM messages WHERE conversation_id = ? ORDER BY id ASC`, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Message
	for rows.Next() {
		var m Message
		var createdAt string
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.Direction, &m.Content, &m.Intent, &m.Confidence, &createdAt); err != nil {
			return nil, err
		}
		if m.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// ListInvocations returns a conversation's function invocations keyed by
// the incoming message they belong to.
func (s *Store) ListInvocations(ctx context.Context, conversationID string) (map[int64]Invocation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, conversation_id, message_id, name, parameters_json, status, result_json, error, created_at, completed_at
		FROM function_invocations WHERE conversation_id = ?`, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[int64]Invocation)
	for rows.Next() {
		var (
			inv         Invocation
			createdAt   string
			completedAt sql.NullString
		)
		if err := rows.Scan(&inv.ID, &inv.ConversationID, &inv.MessageID, &inv.Name, &inv.ParametersJSON,
			&inv.Status, &inv.ResultJSON, &inv.Error, &createdAt, &completedAt); err != nil {
			return nil, err
		}
		if inv.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		if inv.CompletedAt, err = parseNullTime(completedAt); err != nil {
			return nil, fmt.Errorf("parsing completed_at: %w", err)
		}
		out[inv.MessageID] = inv
	}
	return out, rows.Err()
}

// CountMessages returns the number of stored messages for a conversation.
func (s *Store) CountMessages(ctx context.Context, conversationID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM messages WHERE conversation_id = ?`, conversationID).Scan(&n)
	return n, err
}

// --- Conversation contexts ---

func (s *Store) SaveContext(ctx context.Context, row ContextRow) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO conversation_contexts (conversation_id, intent, params_json, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(conversation_id) DO UPDATE SET intent = excluded.intent, params_json = excluded.params_json, updated_at = excluded.updated_at`,
		row.ConversationID, row.Intent, row.ParamsJSON, formatTime(row.UpdatedAt))
	return err
}

func (s *Store) GetContext(ctx context.Context, conversationID string) (ContextRow, error) {
	var (
		row       ContextRow
		updatedAt string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT conversation_id, intent, params_json, updated_at FROM conversation_contexts WHERE conversation_id = ?`,
		conversationID).Scan(&row.ConversationID, &row.Intent, &row.ParamsJSON, &updatedAt)
	if err == sql.ErrNoRows {
		return ContextRow{}, ErrNotFound
	}
	if err != nil {
		return ContextRow{}, err
	}
	if row.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return ContextRow{}, fmt.Errorf("parsing updated_at: %w", err)
	}
	return row, nil
}

func (s *Store) DeleteContext(ctx context.Context, conversationID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM conversation_contexts WHERE conversation_id = ?`, conversationID)
	return err
}
