// Package api exposes the dialogue pipeline over HTTP and MCP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kalambet/shopbot/internal/ingest"
	"github.com/kalambet/shopbot/internal/intent"
	"github.com/kalambet/shopbot/internal/pipeline"
)

const defaultTurnTimeout = 15 * time.Second

// Conversations is the orchestrator surface the API drives.
// *pipeline.Orchestrator implements it.
type Conversations interface {
	StartConversation(ctx context.Context, userID *int64) (pipeline.Conversation, error)
	GetConversation(ctx context.Context, id string) (pipeline.Conversation, error)
	EndConversation(ctx context.Context, id string) (pipeline.Conversation, error)
	SubmitMessage(ctx context.Context, conversationID, text string) (pipeline.Turn, error)
	History(ctx context.Context, id string) ([]pipeline.Turn, error)
}

type AppDeps struct {
	Conversations Conversations
	Jobs          ingest.JobStore
	// Shop, when set, mounts the back-office routes.
	Shop  Shop
	Token string
	// TurnTimeout bounds one SubmitMessage call; zero means 15s.
	TurnTimeout time.Duration
	Logger      *slog.Logger
}

type startRequest struct {
	UserID *int64 `json:"user_id"`
}

type messageRequest struct {
	Text string `json:"text"`
}

type exemplarRequest struct {
	Intent string `json:"intent"`
	Text   string `json:"text"`
}

func NewAppHandler(deps AppDeps) http.Handler {
	if deps.TurnTimeout <= 0 {
		deps.TurnTimeout = defaultTurnTimeout
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(RequestLog(deps.Logger))
	r.Get("/health", handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(BearerAuth(deps.Token))

		r.Post("/conversations", handleStartConversation(deps))
		r.Get("/conversations/{id}", handleGetConversation(deps))
		r.Post("/conversations/{id}/end", handleEndConversation(deps))
		r.Post("/conversations/{id}/messages", handleSubmitMessage(deps))
		r.Get("/conversations/{id}/messages", handleHistory(deps))
		r.Post("/exemplars", handleAddExemplar(deps))
		if deps.Shop != nil {
			mountShop(r, deps.Shop)
		}
	})

	return r
}

// decodeBody decodes an optional JSON body; an empty body leaves v unchanged.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func handleStartConversation(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req startRequest
		if err := decodeBody(w, r, &req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		conv, err := deps.Conversations.StartConversation(r.Context(), req.UserID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, conv)
	}
}

func handleGetConversation(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conv, err := deps.Conversations.GetConversation(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, conv)
	}
}

func handleEndConversation(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conv, err := deps.Conversations.EndConversation(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, conv)
	}
}

func handleSubmitMessage(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req messageRequest
		if err := decodeBody(w, r, &req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), deps.TurnTimeout)
		defer cancel()

		turn, err := deps.Conversations.SubmitMessage(ctx, chi.URLParam(r, "id"), req.Text)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, turn)
	}
}

func handleHistory(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		turns, err := deps.Conversations.History(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, err)
			return
		}
		if turns == nil {
			turns = []pipeline.Turn{}
		}
		writeJSON(w, http.StatusOK, turns)
	}
}

func handleAddExemplar(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req exemplarRequest
		if err := decodeBody(w, r, &req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		id, err := ingest.Enqueue(r.Context(), deps.Jobs, intent.Intent(req.Intent), req.Text)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]string{"id": id, "status": "queued"})
	}
}
