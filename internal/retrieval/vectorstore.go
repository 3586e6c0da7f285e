package retrieval

import (
	"context"
	"time"

	"github.com/kalambet/shopbot/internal/intent"
)

// VectorStore holds learned exemplar embeddings and answers similarity
// queries over them. The SQLite implementation scans every row; the learned
// set is expected to stay small next to the curated catalog.
type VectorStore interface {
	// Insert adds records in a single transaction.
	Insert(ctx context.Context, records []Record) error

	// Search returns the top-K records by cosine similarity, best first.
	Search(ctx context.Context, vector []float32, topK int) ([]ScoredRecord, error)

	// Delete removes a record by ID.
	Delete(ctx context.Context, id string) error

	// Count returns the number of stored records.
	Count(ctx context.Context) (int, error)
}

// Record is one embedded exemplar phrase.
type Record struct {
	ID        string
	Intent    intent.Intent
	Text      string
	Embedding []float32
	Source    string // "curated" or "learned"
	CreatedAt time.Time
}

// ScoredRecord is a Record with a similarity score attached.
type ScoredRecord struct {
	Record
	Score float32
}
