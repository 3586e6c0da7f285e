package intent

import (
	"context"
	"log/slog"
	"strings"
)

// DefaultLowConfidenceThreshold is the score under which a semantic match is
// not trusted and the keyword scan takes over.
const DefaultLowConfidenceThreshold = 0.2

// Match is the best exemplar hit for an utterance.
type Match struct {
	Intent   Intent
	Score    float64
	Exemplar string
}

// Matcher scores an utterance against exemplar phrases. Implementations must
// be safe for concurrent use once warmed up.
type Matcher interface {
	Match(ctx context.Context, text string) (Match, error)
}

// Warmer is implemented by matchers that need a one-off preparation step
// before serving traffic.
type Warmer interface {
	Warmup(ctx context.Context) error
}

// Classifier turns an utterance into an intent and a confidence. It is
// read-only after Warmup and shared by all conversations.
type Classifier struct {
	rules     []rule
	keywords  []keywordGroup
	matcher   Matcher
	threshold float64
	logger    *slog.Logger
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithMatcher enables the semantic stage. Without a matcher the classifier
// runs rules and keywords only.
func WithMatcher(m Matcher) Option {
	return func(c *Classifier) { c.matcher = m }
}

// WithLowConfidenceThreshold overrides DefaultLowConfidenceThreshold.
func WithLowConfidenceThreshold(t float64) Option {
	return func(c *Classifier) {
		if t > 0 && t <= 1 {
			c.threshold = t
		}
	}
}

// WithLogger sets the logger used for degraded-mode warnings.
func WithLogger(l *slog.Logger) Option {
	return func(c *Classifier) { c.logger = l }
}

// NewClassifier creates a Classifier with the built-in rule and keyword tables.
func NewClassifier(opts ...Option) *Classifier {
	c := &Classifier{
		rules:     defaultRules,
		keywords:  defaultKeywords,
		threshold: DefaultLowConfidenceThreshold,
		logger:    slog.Default(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Warmup prepares the semantic matcher, if any. It is called once by process
// initialisation before the classifier is shared.
func (c *Classifier) Warmup(ctx context.Context) error {
	if w, ok := c.matcher.(Warmer); ok {
		return w.Warmup(ctx)
	}
	return nil
}

// Classify never fails: an unavailable matcher degrades to keyword matching
// and anything unrecognised is Unknown.
func (c *Classifier) Classify(ctx context.Context, text string) Result {
	text = strings.TrimSpace(text)
	if text == "" {
		return Result{Intent: Unknown, Confidence: 0, Source: SourceNone}
	}

	if r, ok := matchRule(c.rules, text); ok {
		return Result{Intent: r.intent, Confidence: RuleConfidence, Source: SourceRule}
	}

	best := Result{Intent: Unknown, Confidence: 0, Source: SourceNone}
	if c.matcher != nil {
		m, err := c.matcher.Match(ctx, text)
		if err != nil {
			c.logger.Warn("semantic matching unavailable, using keyword fallback", "error", err)
		} else {
			best = Result{Intent: m.Intent, Confidence: clamp01(m.Score), Source: SourceSemantic}
		}
	}

	if best.Confidence >= c.threshold {
		return best
	}

	if in, ok := matchKeywords(c.keywords, text); ok {
		return Result{Intent: in, Confidence: KeywordConfidence, Source: SourceKeyword}
	}
	return Result{Intent: Unknown, Confidence: best.Confidence, Source: best.Source}
}

func clamp01(f float64) float64 {
	switch {
	case f < 0:
		return 0
	case f > 1:
		return 1
	}
	return f
}
