// Package pipeline runs one dialogue turn end to end: classify, resolve
// context, extract, dispatch, compose and persist.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/kalambet/shopbot/internal/composer"
	"github.com/kalambet/shopbot/internal/dispatch"
	"github.com/kalambet/shopbot/internal/intent"
	"github.com/kalambet/shopbot/internal/params"
	"github.com/kalambet/shopbot/internal/session"
	"github.com/kalambet/shopbot/internal/storage"
)

const defaultMaxMessageLength = 2000

// Store is the slice of storage.Store the orchestrator needs.
type Store interface {
	CreateConversation(ctx context.Context, c storage.Conversation) error
	GetConversation(ctx context.Context, id string) (storage.Conversation, error)
	EndConversation(ctx context.Context, id string, at time.Time) (storage.Conversation, error)
	SaveTurn(ctx context.Context, t *storage.Turn) error
	ListMessages(ctx context.Context, conversationID string) ([]storage.Message, error)
	ListInvocations(ctx context.Context, conversationID string) (map[int64]storage.Invocation, error)
}

// Classifier turns an utterance into an intent. *intent.Classifier
// implements it.
type Classifier interface {
	Classify(ctx context.Context, text string) intent.Result
}

// Conversation is the caller-facing view of a stored conversation.
type Conversation struct {
	ID        string     `json:"id"`
	UserID    *int64     `json:"user_id,omitempty"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
	Active    bool       `json:"active"`
}

// Message is one side of a turn.
type Message struct {
	ID         int64         `json:"id"`
	Content    string        `json:"content"`
	Intent     intent.Intent `json:"intent,omitempty"`
	Confidence float64       `json:"confidence,omitempty"`
	CreatedAt  time.Time     `json:"created_at"`
}

// Turn is one user message, the reply and at most one invocation.
type Turn struct {
	ConversationID string               `json:"conversation_id"`
	User           Message              `json:"user"`
	Bot            Message              `json:"bot"`
	Invocation     *dispatch.Invocation `json:"invocation,omitempty"`
}

// Orchestrator sequences the components for each incoming message. Turns
// for one conversation are serialised; different conversations run in
// parallel.
type Orchestrator struct {
	store      Store
	classifier Classifier
	extractor  *params.Extractor
	sessions   *session.Manager
	dispatcher *dispatch.Dispatcher
	composer   *composer.Composer

	locks     *convLocks
	now       func() time.Time
	maxLength int
	logger    *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

func WithLogger(l *slog.Logger) Option { return func(o *Orchestrator) { o.logger = l } }

func WithNow(now func() time.Time) Option { return func(o *Orchestrator) { o.now = now } }

// WithMaxMessageLength caps the accepted utterance length in characters.
func WithMaxMessageLength(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.maxLength = n
		}
	}
}

// New creates an Orchestrator wired to all pipeline components.
func New(
	store Store,
	classifier Classifier,
	extractor *params.Extractor,
	sessions *session.Manager,
	dispatcher *dispatch.Dispatcher,
	comp *composer.Composer,
	opts ...Option,
) *Orchestrator {
	o := &Orchestrator{
		store:      store,
		classifier: classifier,
		extractor:  extractor,
		sessions:   sessions,
		dispatcher: dispatcher,
		composer:   comp,
		locks:      newConvLocks(),
		now:        time.Now,
		maxLength:  defaultMaxMessageLength,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// StartConversation opens a conversation, optionally bound to a user.
func (o *Orchestrator) StartConversation(ctx context.Context, userID *int64) (Conversation, error) {
	c := storage.Conversation{ID: uuid.NewString(), UserID: userID, StartedAt: o.now()}
	if err := o.store.CreateConversation(ctx, c); err != nil {
		return Conversation{}, newError(CodeInternal, "creating conversation", err)
	}
	return toConversation(c), nil
}

// GetConversation returns the conversation with the given id.
func (o *Orchestrator) GetConversation(ctx context.Context, id string) (Conversation, error) {
	c, err := o.loadConversation(ctx, id)
	if err != nil {
		return Conversation{}, err
	}
	return toConversation(c), nil
}

// EndConversation moves a conversation to Ended and drops its context.
// Ending it twice fails with ErrConversationEnded.
func (o *Orchestrator) EndConversation(ctx context.Context, id string) (Conversation, error) {
	unlock := o.locks.lock(id)
	defer unlock()

	c, err := o.store.EndConversation(ctx, id, o.now())
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return Conversation{}, ErrConversationNotFound
	case errors.Is(err, storage.ErrConflict):
		return Conversation{}, ErrConversationEnded
	case err != nil:
		return Conversation{}, newError(CodeInternal, "ending conversation", err)
	}
	if err := o.sessions.Clear(ctx, id); err != nil {
		o.logger.Warn("clearing context of ended conversation", "conversation", id, "error", err)
	}
	return toConversation(c), nil
}

// SubmitMessage runs one turn. Nothing is written when the conversation is
// missing or ended, or when ctx expires before a function is invoked. Once a
// function has been invoked the turn is stored regardless of ctx, so a
// collaborator's side effect always has its invocation record.
func (o *Orchestrator) SubmitMessage(ctx context.Context, conversationID, text string) (Turn, error) {
	text = strings.TrimSpace(text)
	switch {
	case text == "":
		return Turn{}, newError(CodeInvalidInput, "message text is required", nil)
	case utf8.RuneCountInString(text) > o.maxLength:
		return Turn{}, newError(CodeInvalidInput, fmt.Sprintf("message exceeds %d characters", o.maxLength), nil)
	}

	// Classification is the slow step and needs no conversation state.
	res := o.classifier.Classify(ctx, text)

	unlock := o.locks.lock(conversationID)
	defer unlock()

	conv, err := o.loadConversation(ctx, conversationID)
	if err != nil {
		return Turn{}, err
	}
	if !conv.Active() {
		return Turn{}, ErrConversationEnded
	}

	r, err := o.sessions.Continue(ctx, conversationID, res, func(in intent.Intent) params.Result {
		return o.extractor.Extract(text, in)
	})
	if err != nil {
		return Turn{}, newError(CodeInternal, "reading conversation context", err)
	}

	if err := ctx.Err(); err != nil {
		return Turn{}, err
	}

	dconv := dispatch.Conversation{ID: conv.ID, UserID: conv.UserID}
	outcome := o.dispatcher.Dispatch(ctx, dconv, r.Intent, r.Params)
	if outcome.Invocation != nil {
		ctx = context.WithoutCancel(ctx)
	}

	in := composer.Input{Intent: r.Intent, Params: r.Params, Ambiguities: r.Ambiguities, Outcome: outcome}
	if r.Intent == intent.Greeting {
		in.UserName = o.dispatcher.UserName(ctx, dconv)
	}
	reply := o.composer.Compose(in)

	o.logger.Debug("turn resolved",
		"conversation", conversationID,
		"intent", r.Intent,
		"confidence", r.Confidence,
		"source", res.Source,
		"continued", r.Continued,
		"slots", r.Params.Keys(),
		"function", outcome.Function,
		"missing", outcome.Missing,
	)

	if err := ctx.Err(); err != nil {
		return Turn{}, err
	}

	now := o.now()
	st := &storage.Turn{
		Incoming: storage.Message{
			ConversationID: conversationID, Direction: "incoming", Content: text,
			Intent: string(r.Intent), Confidence: r.Confidence, CreatedAt: now,
		},
		Outgoing: storage.Message{
			ConversationID: conversationID, Direction: "outgoing", Content: reply,
			Intent: string(r.Intent), CreatedAt: now,
		},
	}
	if inv := outcome.Invocation; inv != nil {
		row, err := invocationRow(conversationID, inv)
		if err != nil {
			return Turn{}, newError(CodeInternal, "encoding invocation", err)
		}
		st.Invocation = &row
	}

	switch err := o.store.SaveTurn(ctx, st); {
	case errors.Is(err, storage.ErrConflict):
		return Turn{}, ErrConversationEnded
	case errors.Is(err, storage.ErrNotFound):
		return Turn{}, ErrConversationNotFound
	case err != nil:
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Turn{}, ctxErr
		}
		return Turn{}, newError(CodeInternal, "saving turn", err)
	}

	// The turn is stored; the context change must follow it even if the
	// caller's deadline passes now.
	o.applyContext(context.WithoutCancel(ctx), conversationID, r, outcome)

	return Turn{
		ConversationID: conversationID,
		User:           messageFromRow(st.Incoming),
		Bot:            messageFromRow(st.Outgoing),
		Invocation:     outcome.Invocation,
	}, nil
}

// flowEnding intents clear the context once their call completes.
var flowEnding = map[intent.Intent]bool{
	intent.CreateOrder: true,
	intent.CancelOrder: true,
	intent.ModifyUser:  true,
}

func (o *Orchestrator) applyContext(ctx context.Context, id string, r session.Resolution, out dispatch.Outcome) {
	var err error
	switch {
	case r.Intent == intent.Greeting:
		err = o.sessions.Clear(ctx, id)
	case r.Intent == intent.Unknown:
		return
	case flowEnding[r.Intent] && out.Invocation != nil && out.Invocation.Status == dispatch.StatusCompleted:
		err = o.sessions.Clear(ctx, id)
	case r.Continued:
		err = o.sessions.Touch(ctx, id, r.Params)
	default:
		err = o.sessions.Update(ctx, id, r.Intent, r.Params)
	}
	if err != nil {
		o.logger.Warn("updating conversation context", "conversation", id, "error", err)
	}
}

// History returns the stored turns of a conversation, oldest first.
func (o *Orchestrator) History(ctx context.Context, id string) ([]Turn, error) {
	if _, err := o.loadConversation(ctx, id); err != nil {
		return nil, err
	}
	msgs, err := o.store.ListMessages(ctx, id)
	if err != nil {
		return nil, newError(CodeInternal, "listing messages", err)
	}
	invs, err := o.store.ListInvocations(ctx, id)
	if err != nil {
		return nil, newError(CodeInternal, "listing invocations", err)
	}

	var turns []Turn
	for i := 0; i+1 < len(msgs); i += 2 {
		in, out := msgs[i], msgs[i+1]
		t := Turn{ConversationID: id, User: messageFromRow(in), Bot: messageFromRow(out)}
		if row, ok := invs[in.ID]; ok {
			inv, err := invocationFromRow(row)
			if err != nil {
				return nil, newError(CodeInternal, "decoding invocation", err)
			}
			t.Invocation = inv
		}
		turns = append(turns, t)
	}
	return turns, nil
}

func (o *Orchestrator) loadConversation(ctx context.Context, id string) (storage.Conversation, error) {
	c, err := o.store.GetConversation(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return storage.Conversation{}, ErrConversationNotFound
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return storage.Conversation{}, ctxErr
		}
		return storage.Conversation{}, newError(CodeInternal, "loading conversation", err)
	}
	return c, nil
}

func toConversation(c storage.Conversation) Conversation {
	return Conversation{ID: c.ID, UserID: c.UserID, StartedAt: c.StartedAt, EndedAt: c.EndedAt, Active: c.Active()}
}

func messageFromRow(m storage.Message) Message {
	return Message{ID: m.ID, Content: m.Content, Intent: intent.Parse(m.Intent), Confidence: m.Confidence, CreatedAt: m.CreatedAt}
}

func invocationRow(conversationID string, inv *dispatch.Invocation) (storage.Invocation, error) {
	paramsJSON, err := json.Marshal(inv.Parameters)
	if err != nil {
		return storage.Invocation{}, err
	}
	var resultJSON []byte
	if inv.Result != nil {
		if resultJSON, err = json.Marshal(inv.Result); err != nil {
			return storage.Invocation{}, err
		}
	}
	return storage.Invocation{
		ID:             inv.ID,
		ConversationID: conversationID,
		Name:           inv.Name,
		ParametersJSON: string(paramsJSON),
		Status:         string(inv.Status),
		ResultJSON:     string(resultJSON),
		Error:          inv.Error,
		CreatedAt:      inv.CreatedAt,
		CompletedAt:    inv.CompletedAt,
	}, nil
}

func invocationFromRow(row storage.Invocation) (*dispatch.Invocation, error) {
	inv := &dispatch.Invocation{
		ID:          row.ID,
		Name:        row.Name,
		Status:      dispatch.Status(row.Status),
		Error:       row.Error,
		CreatedAt:   row.CreatedAt,
		CompletedAt: row.CompletedAt,
	}
	if err := json.Unmarshal([]byte(row.ParametersJSON), &inv.Parameters); err != nil {
		return nil, err
	}
	if row.ResultJSON != "" {
		inv.Result = json.RawMessage(row.ResultJSON)
	}
	return inv, nil
}
