package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/kalambet/shopbot/internal/intent"
	"github.com/kalambet/shopbot/internal/params"
	"github.com/kalambet/shopbot/internal/storage"
)

// Store persists one Context per conversation. Implementations need not be
// safe for concurrent access to the same conversation; the orchestrator
// serialises turns per conversation.
type Store interface {
	Load(ctx context.Context, conversationID string) (Context, bool, error)
	Save(ctx context.Context, conversationID string, c Context) error
	Delete(ctx context.Context, conversationID string) error
}

// MemoryStore keeps contexts in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]Context
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string]Context)}
}

func (s *MemoryStore) Load(_ context.Context, id string) (Context, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.items[id]
	if !ok {
		return Context{}, false, nil
	}
	c.Params = c.Params.Clone()
	return c, true, nil
}

func (s *MemoryStore) Save(_ context.Context, id string, c Context) error {
	c.Params = c.Params.Clone()
	s.mu.Lock()
	s.items[id] = c
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	delete(s.items, id)
	s.mu.Unlock()
	return nil
}

// ContextRows is the slice of storage.Store the SQLite backend needs.
type ContextRows interface {
	SaveContext(ctx context.Context, row storage.ContextRow) error
	GetContext(ctx context.Context, conversationID string) (storage.ContextRow, error)
	DeleteContext(ctx context.Context, conversationID string) error
}

// SQLiteStore keeps contexts in the conversation_contexts table so they
// survive a restart within their TTL.
type SQLiteStore struct {
	rows ContextRows
}

func NewSQLiteStore(rows ContextRows) *SQLiteStore {
	return &SQLiteStore{rows: rows}
}

func (s *SQLiteStore) Load(ctx context.Context, id string) (Context, bool, error) {
	row, err := s.rows.GetContext(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return Context{}, false, nil
	}
	if err != nil {
		return Context{}, false, fmt.Errorf("loading context: %w", err)
	}
	var p params.Set
	if err := json.Unmarshal([]byte(row.ParamsJSON), &p); err != nil {
		return Context{}, false, fmt.Errorf("decoding context params: %w", err)
	}
	return Context{Intent: intent.Parse(row.Intent), Params: p, UpdatedAt: row.UpdatedAt}, true, nil
}

func (s *SQLiteStore) Save(ctx context.Context, id string, c Context) error {
	data, err := json.Marshal(c.Params)
	if err != nil {
		return fmt.Errorf("encoding context params: %w", err)
	}
	return s.rows.SaveContext(ctx, storage.ContextRow{
		ConversationID: id,
		Intent:         string(c.Intent),
		ParamsJSON:     string(data),
		UpdatedAt:      c.UpdatedAt,
	})
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	return s.rows.DeleteContext(ctx, id)
}
