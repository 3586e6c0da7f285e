package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/kalambet/shopbot/internal/composer"
	"github.com/kalambet/shopbot/internal/config"
	"github.com/kalambet/shopbot/internal/dispatch"
	"github.com/kalambet/shopbot/internal/engine"
	"github.com/kalambet/shopbot/internal/intent"
	"github.com/kalambet/shopbot/internal/params"
	"github.com/kalambet/shopbot/internal/pipeline"
	"github.com/kalambet/shopbot/internal/retrieval"
	"github.com/kalambet/shopbot/internal/session"
	"github.com/kalambet/shopbot/internal/shop"
	"github.com/kalambet/shopbot/internal/storage"
)

// app is the fully wired dialogue stack over one store.
type app struct {
	orchestrator *pipeline.Orchestrator
	// embedder is nil when semantic matching is disabled.
	embedder *retrieval.Embedder
	vectors  *retrieval.SQLiteStore
}

func setupLogging(cfg config.Config) {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel()})))
}

// buildApp wires every pipeline component from cfg. An unreachable
// inference engine only disables the semantic stage.
func buildApp(ctx context.Context, cfg config.Config, store *storage.Store) (*app, error) {
	logger := slog.Default()
	a := &app{vectors: retrieval.NewSQLiteStore(store.DB())}

	clfOpts := []intent.Option{
		intent.WithLowConfidenceThreshold(cfg.NLU.LowConfidenceThreshold),
		intent.WithLogger(logger),
	}
	if cfg.NLU.SemanticEnabled {
		eng, err := engine.Detect(engine.DetectConfig{OllamaBaseURL: cfg.Ollama.BaseURL})
		if err != nil {
			return nil, fmt.Errorf("detecting inference engine: %w", err)
		}
		if err := engine.EnsureReady(ctx, eng, cfg.Ollama.EmbedModel, os.Stderr); err != nil {
			logger.Warn("semantic intent matching disabled", "error", err)
		} else {
			exemplars, err := intent.Exemplars()
			if err != nil {
				return nil, fmt.Errorf("loading exemplars: %w", err)
			}
			a.embedder = retrieval.NewEmbedder(eng, cfg.Ollama.EmbedModel)
			clfOpts = append(clfOpts, intent.WithMatcher(retrieval.NewExemplarMatcher(a.embedder, a.vectors, exemplars)))
		}
	}
	classifier := intent.NewClassifier(clfOpts...)
	if err := classifier.Warmup(ctx); err != nil {
		logger.Warn("exemplar warm-up failed, using keyword fallback", "error", err)
	}

	pcfg := params.DefaultConfig()
	pcfg.MinProductIDDigits = cfg.Extract.MinProductIDDigits
	pcfg.DefaultCountry = cfg.Extract.DefaultCountry
	pcfg.DefaultZip = cfg.Extract.DefaultZip
	var extOpts []params.Option
	if cfg.Extract.NEREnabled {
		extOpts = append(extOpts, params.WithEntityRecognizer(params.NewProseRecognizer()))
	}
	extractor := params.New(pcfg, extOpts...)

	var ctxStore session.Store = session.NewSQLiteStore(store)
	if cfg.Session.Store == "memory" {
		ctxStore = session.NewMemoryStore()
	}
	sessions := session.NewManager(ctxStore,
		session.WithTTL(cfg.SessionTTL()),
		session.WithContinuationThreshold(cfg.Session.ContinuationThreshold),
		session.WithLogger(logger),
	)

	dispatcher := dispatch.New(shop.NewCatalog(store), shop.NewOrders(store), shop.NewAccounts(store),
		dispatch.WithDefaultPageSize(cfg.Search.DefaultPageSize),
		dispatch.WithLogger(logger),
	)

	a.orchestrator = pipeline.New(store, classifier, extractor, sessions, dispatcher, composer.New(0),
		pipeline.WithLogger(logger),
	)
	return a, nil
}
