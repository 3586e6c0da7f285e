// Package ingest embeds exemplar phrases learned at runtime so the semantic
// intent matcher can use them.
package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kalambet/shopbot/internal/intent"
	"github.com/kalambet/shopbot/internal/retrieval"
	"github.com/kalambet/shopbot/internal/storage"
)

// JobTypeExemplarEmbed is the queue type for a learned exemplar phrase.
const JobTypeExemplarEmbed = "exemplar_embed"

// ErrInvalidExemplar is returned by Enqueue for an empty phrase or an intent
// that cannot be learned.
var ErrInvalidExemplar = errors.New("invalid exemplar")

// JobStore abstracts the job queue operations.
type JobStore interface {
	EnqueueJob(ctx context.Context, job storage.Job) error
	ClaimNextJob(ctx context.Context, types []string) (*storage.Job, error)
	CompleteJob(ctx context.Context, id string) error
	FailJob(ctx context.Context, id string, errMsg string) error
}

// ContentEmbedder generates embeddings for text.
type ContentEmbedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// VectorInserter inserts records into the exemplar vector store.
type VectorInserter interface {
	Insert(ctx context.Context, records []retrieval.Record) error
}

// ExemplarPayload is the JSON payload of an exemplar_embed job.
type ExemplarPayload struct {
	Intent intent.Intent `json:"intent"`
	Text   string        `json:"text"`
}

// Enqueue validates a phrase and queues it for embedding. It returns the
// job ID.
func Enqueue(ctx context.Context, store JobStore, in intent.Intent, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%w: text is required", ErrInvalidExemplar)
	}
	if intent.Parse(string(in)) != in || in == intent.Unknown {
		return "", fmt.Errorf("%w: unknown intent %q", ErrInvalidExemplar, in)
	}

	payload, err := json.Marshal(ExemplarPayload{Intent: in, Text: text})
	if err != nil {
		return "", err
	}
	job := storage.Job{
		ID:          uuid.NewString(),
		Type:        JobTypeExemplarEmbed,
		PayloadJSON: string(payload),
	}
	if err := store.EnqueueJob(ctx, job); err != nil {
		return "", fmt.Errorf("enqueueing exemplar: %w", err)
	}
	return job.ID, nil
}

// Worker processes exemplar_embed jobs from the SQLite job queue.
type Worker struct {
	store    JobStore
	embedder ContentEmbedder
	vectors  VectorInserter
	poll     time.Duration
	logger   *slog.Logger
}

// NewWorker creates a Worker with the given dependencies.
// If pollInterval is <= 0, it defaults to 500ms.
func NewWorker(store JobStore, embedder ContentEmbedder, vectors VectorInserter, pollInterval time.Duration) *Worker {
	if pollInterval <= 0 {
		pollInterval = 500 * time.Millisecond
	}
	return &Worker{
		store:    store,
		embedder: embedder,
		vectors:  vectors,
		poll:     pollInterval,
		logger:   slog.Default(),
	}
}

// Run polls for jobs until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		done, err := w.RunOnce(ctx)
		if err != nil {
			w.logger.Error("worker iteration failed", "error", err)
		}
		if done {
			continue
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(w.poll):
		}
	}
}

// RunOnce claims and processes a single exemplar_embed job.
// Returns true if a job was processed (regardless of success/failure).
func (w *Worker) RunOnce(ctx context.Context) (bool, error) {
	job, err := w.store.ClaimNextJob(ctx, []string{JobTypeExemplarEmbed})
	if err != nil {
		return false, fmt.Errorf("claiming job: %w", err)
	}
	if job == nil {
		return false, nil
	}

	if err := w.processJob(ctx, job); err != nil {
		w.logger.Warn("job failed", "job_id", job.ID, "error", err)
		if failErr := w.store.FailJob(ctx, job.ID, err.Error()); failErr != nil {
			w.logger.Error("failed to mark job as failed", "job_id", job.ID, "error", failErr)
		}
		return true, nil
	}

	if err := w.store.CompleteJob(ctx, job.ID); err != nil {
		return true, fmt.Errorf("completing job %s: %w", job.ID, err)
	}
	return true, nil
}

func (w *Worker) processJob(ctx context.Context, job *storage.Job) error {
	var payload ExemplarPayload
	if err := json.Unmarshal([]byte(job.PayloadJSON), &payload); err != nil {
		return fmt.Errorf("parsing payload: %w", err)
	}
	if payload.Text == "" || intent.Parse(string(payload.Intent)) == intent.Unknown {
		return fmt.Errorf("payload has no usable exemplar: %s", job.PayloadJSON)
	}

	vec, err := w.embedder.Embed(ctx, payload.Text)
	if err != nil {
		return fmt.Errorf("embedding exemplar: %w", err)
	}

	rec := retrieval.Record{
		ID:        uuid.NewString(),
		Intent:    payload.Intent,
		Text:      payload.Text,
		Embedding: vec,
		Source:    "learned",
		CreatedAt: time.Now().UTC(),
	}
	if err := w.vectors.Insert(ctx, []retrieval.Record{rec}); err != nil {
		return fmt.Errorf("inserting vector: %w", err)
	}

	w.logger.Info("learned exemplar stored", "intent", payload.Intent, "vector_id", rec.ID)
	return nil
}
