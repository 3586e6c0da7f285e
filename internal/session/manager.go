// Package session holds the short-lived per-conversation memory used to
// resume multi-turn requests.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kalambet/shopbot/internal/intent"
	"github.com/kalambet/shopbot/internal/params"
)

const (
	// DefaultTTL bounds how long a context survives after its last update.
	DefaultTTL = 300 * time.Second
	// DefaultContinuationThreshold is the confidence under which an
	// utterance may be read as a follow-up to the stored intent.
	DefaultContinuationThreshold = 0.3
)

// Context is the remembered intent and parameters of a conversation.
type Context struct {
	Intent    intent.Intent
	Params    params.Set
	UpdatedAt time.Time
}

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// resumable intents can absorb a low-confidence follow-up.
var resumable = map[intent.Intent]bool{
	intent.ModifyUser:    true,
	intent.ProductSearch: true,
	intent.OrderStatus:   true,
}

// Manager owns conversation contexts. Expiry is checked lazily on Read; no
// background sweep runs.
type Manager struct {
	store     Store
	clock     Clock
	ttl       time.Duration
	threshold float64
	logger    *slog.Logger
}

// Option configures a Manager.
type Option func(*Manager)

func WithClock(c Clock) Option { return func(m *Manager) { m.clock = c } }

func WithTTL(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.ttl = d
		}
	}
}

func WithContinuationThreshold(t float64) Option {
	return func(m *Manager) {
		if t > 0 && t <= 1 {
			m.threshold = t
		}
	}
}

func WithLogger(l *slog.Logger) Option { return func(m *Manager) { m.logger = l } }

// NewManager creates a Manager over store. A nil store means in-memory.
func NewManager(store Store, opts ...Option) *Manager {
	if store == nil {
		store = NewMemoryStore()
	}
	m := &Manager{
		store:     store,
		clock:     realClock{},
		ttl:       DefaultTTL,
		threshold: DefaultContinuationThreshold,
		logger:    slog.Default(),
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Update stores in and p as the conversation's context. Unknown is never
// stored.
func (m *Manager) Update(ctx context.Context, conversationID string, in intent.Intent, p params.Set) error {
	if in == intent.Unknown {
		return nil
	}
	if p == nil {
		p = params.Set{}
	}
	c := Context{Intent: in, Params: p, UpdatedAt: m.clock.Now()}
	if err := m.store.Save(ctx, conversationID, c); err != nil {
		return fmt.Errorf("saving context: %w", err)
	}
	return nil
}

// Read returns the live context. A context older than the TTL is deleted
// and reported as absent.
func (m *Manager) Read(ctx context.Context, conversationID string) (Context, bool, error) {
	c, ok, err := m.store.Load(ctx, conversationID)
	if err != nil || !ok {
		return Context{}, false, err
	}
	if m.clock.Now().Sub(c.UpdatedAt) > m.ttl {
		m.logger.Debug("conversation context expired", "conversation", conversationID, "intent", c.Intent)
		if err := m.store.Delete(ctx, conversationID); err != nil {
			return Context{}, false, fmt.Errorf("clearing expired context: %w", err)
		}
		return Context{}, false, nil
	}
	return c, true, nil
}

// Clear drops the conversation's context.
func (m *Manager) Clear(ctx context.Context, conversationID string) error {
	if err := m.store.Delete(ctx, conversationID); err != nil {
		return fmt.Errorf("clearing context: %w", err)
	}
	return nil
}

// Touch replaces the stored parameters and refreshes the timestamp while
// keeping the stored intent. It is a no-op when no context exists.
func (m *Manager) Touch(ctx context.Context, conversationID string, p params.Set) error {
	c, ok, err := m.store.Load(ctx, conversationID)
	if err != nil || !ok {
		return err
	}
	c.Params = p
	c.UpdatedAt = m.clock.Now()
	if err := m.store.Save(ctx, conversationID, c); err != nil {
		return fmt.Errorf("refreshing context: %w", err)
	}
	return nil
}

// Resolution is the effective intent and parameters for one turn.
type Resolution struct {
	Intent      intent.Intent
	Confidence  float64
	Params      params.Set
	Ambiguities []string
	// Continued is set when the turn resumed the stored intent.
	Continued bool
}

// Reextract runs parameter extraction for the given intent over the
// current utterance.
type Reextract func(in intent.Intent) params.Result

// Continue settles the turn's intent. A confident classification is used
// as is. Below the continuation threshold the utterance resumes a live
// resumable context, with freshly extracted parameters merged over the
// stored ones; otherwise it collapses to Unknown. Continue reads but never
// writes the context beyond lazy expiry; the caller commits the change once
// the turn is persisted.
func (m *Manager) Continue(ctx context.Context, conversationID string, res intent.Result, extract Reextract) (Resolution, error) {
	if res.Confidence >= m.threshold && res.Intent != intent.Unknown {
		r := extract(res.Intent)
		return Resolution{Intent: res.Intent, Confidence: res.Confidence, Params: r.Params, Ambiguities: r.Ambiguities}, nil
	}

	c, ok, err := m.Read(ctx, conversationID)
	if err != nil {
		return Resolution{}, err
	}
	if !ok || !resumable[c.Intent] {
		return Resolution{Intent: intent.Unknown, Confidence: res.Confidence, Params: params.Set{}}, nil
	}

	r := extract(c.Intent)
	m.logger.Debug("continuing conversation", "conversation", conversationID, "intent", c.Intent,
		"confidence", res.Confidence, "new_slots", r.Params.Keys())
	return Resolution{
		Intent:      c.Intent,
		Confidence:  res.Confidence,
		Params:      params.Merge(c.Params, r.Params),
		Ambiguities: r.Ambiguities,
		Continued:   true,
	}, nil
}
