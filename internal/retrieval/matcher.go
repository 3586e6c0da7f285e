package retrieval

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/kalambet/shopbot/internal/intent"
)

// ErrNotWarm is returned by Match before Warmup has completed.
var ErrNotWarm = errors.New("exemplar matcher not warmed up")

const defaultMatchTimeout = 3 * time.Second

var (
	_ intent.Matcher = (*ExemplarMatcher)(nil)
	_ intent.Warmer  = (*ExemplarMatcher)(nil)
)

type curated struct {
	ex  intent.Exemplar
	vec []float32
}

// ExemplarMatcher scores an utterance against the curated exemplar catalog
// and any learned exemplars in a VectorStore. The curated vectors are
// computed once in Warmup and never mutated afterwards.
type ExemplarMatcher struct {
	embedder  *Embedder
	store     VectorStore
	exemplars []intent.Exemplar
	timeout   time.Duration
	logger    *slog.Logger

	once    sync.Once
	warmErr error
	curated []curated
	ready   bool
	mu      sync.RWMutex
}

// NewExemplarMatcher creates a matcher. store may be nil, in which case only
// the curated exemplars are consulted.
func NewExemplarMatcher(embedder *Embedder, store VectorStore, exemplars []intent.Exemplar) *ExemplarMatcher {
	return &ExemplarMatcher{
		embedder:  embedder,
		store:     store,
		exemplars: exemplars,
		timeout:   defaultMatchTimeout,
		logger:    slog.Default(),
	}
}

// SetTimeout bounds the embedding call made per Match.
func (m *ExemplarMatcher) SetTimeout(d time.Duration) {
	if d > 0 {
		m.timeout = d
	}
}

// Warmup embeds the curated exemplars. It runs once; later calls return the
// first result.
func (m *ExemplarMatcher) Warmup(ctx context.Context) error {
	m.once.Do(func() {
		texts := make([]string, len(m.exemplars))
		for i, ex := range m.exemplars {
			texts[i] = ex.Text
		}
		start := time.Now()
		vecs, err := m.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			m.warmErr = fmt.Errorf("embedding exemplars: %w", err)
			return
		}
		cs := make([]curated, len(vecs))
		for i, v := range vecs {
			cs[i] = curated{ex: m.exemplars[i], vec: v}
		}
		m.mu.Lock()
		m.curated = cs
		m.ready = true
		m.mu.Unlock()
		m.logger.Info("exemplar matcher warm", "exemplars", len(cs), "duration", time.Since(start))
	})
	return m.warmErr
}

// Match returns the best scoring exemplar across the curated catalog and the
// learned store. A failing learned store only narrows the search.
func (m *ExemplarMatcher) Match(ctx context.Context, text string) (intent.Match, error) {
	m.mu.RLock()
	ready, cs := m.ready, m.curated
	m.mu.RUnlock()
	if !ready {
		return intent.Match{}, ErrNotWarm
	}

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	vec, err := m.embedder.Embed(ctx, text)
	if err != nil {
		return intent.Match{}, err
	}

	best := intent.Match{Intent: intent.Unknown}
	qn := norm(vec)
	for _, c := range cs {
		if s := float64(dotProduct(vec, c.vec, qn)); s > best.Score {
			best = intent.Match{Intent: c.ex.Intent, Score: s, Exemplar: c.ex.Text}
		}
	}

	if m.store != nil {
		hits, err := m.store.Search(ctx, vec, 1)
		if err != nil {
			m.logger.Warn("learned exemplar search failed", "error", err)
		} else if len(hits) > 0 && float64(hits[0].Score) > best.Score && hits[0].Intent != intent.Unknown {
			best = intent.Match{Intent: hits[0].Intent, Score: float64(hits[0].Score), Exemplar: hits[0].Text}
		}
	}
	return best, nil
}
