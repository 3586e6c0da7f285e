package params

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/kalambet/shopbot/internal/intent"
)

// Config tunes extraction heuristics.
type Config struct {
	// MinProductIDDigits is the digit count from which a bare number is
	// read as a product ID rather than a quantity.
	MinProductIDDigits int
	DefaultCountry     string
	DefaultZip         string
	MaxQuantity        int
	MaxPageSize        int
}

// DefaultConfig returns the stock heuristics.
func DefaultConfig() Config {
	return Config{
		MinProductIDDigits: 5,
		DefaultCountry:     "USA",
		DefaultZip:         "00000",
		MaxQuantity:        100,
		MaxPageSize:        50,
	}
}

// Entity is a span labelled by an entity recogniser.
type Entity struct {
	Text  string
	Label string // MONEY, PERSON, GPE, LOC, CARDINAL, ...
}

// EntityRecognizer finds named entities in text. It is the fallback tier
// between explicit patterns and token heuristics.
type EntityRecognizer interface {
	Entities(text string) []Entity
}

// Result is the output of one extraction.
type Result struct {
	Params Set
	// Ambiguities names slots whose cues conflicted; such slots are left out
	// of Params.
	Ambiguities []string
}

// Extractor turns (text, intent) into a parameter set. It holds only
// compiled patterns and configuration, so Extract is a pure function and
// safe for concurrent use.
type Extractor struct {
	cfg  Config
	ner  EntityRecognizer
	idRe *regexp.Regexp
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithEntityRecognizer enables the entity tier.
func WithEntityRecognizer(r EntityRecognizer) Option {
	return func(e *Extractor) { e.ner = r }
}

// New creates an Extractor. Zero fields in cfg take their defaults.
func New(cfg Config, opts ...Option) *Extractor {
	def := DefaultConfig()
	if cfg.MinProductIDDigits <= 0 {
		cfg.MinProductIDDigits = def.MinProductIDDigits
	}
	if cfg.DefaultCountry == "" {
		cfg.DefaultCountry = def.DefaultCountry
	}
	if cfg.DefaultZip == "" {
		cfg.DefaultZip = def.DefaultZip
	}
	if cfg.MaxQuantity <= 0 {
		cfg.MaxQuantity = def.MaxQuantity
	}
	if cfg.MaxPageSize <= 0 {
		cfg.MaxPageSize = def.MaxPageSize
	}
	e := &Extractor{
		cfg:  cfg,
		idRe: regexp.MustCompile(fmt.Sprintf(`#\s*(\d+)|\b(\d{%d,})\b`, cfg.MinProductIDDigits)),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Config returns the effective configuration.
func (e *Extractor) Config() Config { return e.cfg }

// Extract runs the pipeline for in over text. Intents without slots yield
// an empty set.
func (e *Extractor) Extract(text string, in intent.Intent) Result {
	res := Result{Params: Set{}}
	text = strings.TrimSpace(text)
	if text == "" {
		return res
	}
	switch in {
	case intent.ProductSearch:
		e.extractSearch(text, &res)
	case intent.OrderStatus, intent.CancelOrder:
		e.extractOrderID(text, &res)
	case intent.ModifyUser:
		e.extractUserData(text, &res)
	case intent.CreateOrder:
		e.extractOrder(text, &res)
	}
	return res
}

func (e *Extractor) entities(text string, labels ...string) []Entity {
	if e.ner == nil {
		return nil
	}
	var out []Entity
	for _, ent := range e.ner.Entities(text) {
		for _, l := range labels {
			if strings.EqualFold(ent.Label, l) {
				out = append(out, ent)
				break
			}
		}
	}
	return out
}

func (r *Result) ambiguous(slot string) {
	for _, s := range r.Ambiguities {
		if s == slot {
			return
		}
	}
	r.Ambiguities = append(r.Ambiguities, slot)
}
