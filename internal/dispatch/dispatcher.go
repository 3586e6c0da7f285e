// Package dispatch maps a ready intent to a backend call and records the
// outcome as an Invocation.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kalambet/shopbot/internal/intent"
	"github.com/kalambet/shopbot/internal/params"
	"github.com/kalambet/shopbot/internal/shop"
)

// errNotAuthenticated is recorded when a user-scoped function runs in a
// conversation without a user.
const errNotAuthenticated = "not authenticated"

// Catalog searches products.
type Catalog interface {
	Search(ctx context.Context, q shop.SearchQuery) (shop.SearchResult, error)
}

// Orders creates, looks up and cancels orders.
type Orders interface {
	CreateOrder(ctx context.Context, userID int64, items []shop.LineItem, addr *shop.Address, notes string) (shop.Order, error)
	OrderStatus(ctx context.Context, id int64) (shop.Order, error)
	CancelOrder(ctx context.Context, userID, id int64) (shop.Order, error)
}

// Accounts reads and updates user profiles.
type Accounts interface {
	GetUser(ctx context.Context, id int64) (shop.User, error)
	UpdateUser(ctx context.Context, id int64, upd shop.UserUpdate) (shop.User, error)
}

// Conversation is what the dispatcher needs to know about the conversation
// a turn belongs to.
type Conversation struct {
	ID     string
	UserID *int64
}

// Outcome is the result of dispatching one turn.
type Outcome struct {
	// Function is the handler's function name, empty for intents without one.
	Function string
	// Invocation is nil when no call was attempted.
	Invocation *Invocation
	// Message is a final reply that the composer returns unchanged.
	Message string
	// Missing is the first required parameter that was absent.
	Missing string
	Args    params.Set
	Result  any
}

// Dispatcher owns the handler table. It is safe for concurrent use.
type Dispatcher struct {
	catalog  Catalog
	orders   Orders
	accounts Accounts
	handlers map[intent.Intent]*handler
	now      func() time.Time
	logger   *slog.Logger
}

// Option configures a Dispatcher.
type Option func(*dispatcherOptions)

type dispatcherOptions struct {
	defaultPageSize int
	maxQuantity     int
	now             func() time.Time
	logger          *slog.Logger
}

// WithDefaultPageSize sets the page size used when a search names none.
func WithDefaultPageSize(n int) Option {
	return func(o *dispatcherOptions) {
		if n > 0 && n <= 50 {
			o.defaultPageSize = n
		}
	}
}

// WithMaxQuantity bounds the quantity of a single order line.
func WithMaxQuantity(n int) Option {
	return func(o *dispatcherOptions) {
		if n > 0 {
			o.maxQuantity = n
		}
	}
}

func WithNow(now func() time.Time) Option { return func(o *dispatcherOptions) { o.now = now } }

func WithLogger(l *slog.Logger) Option { return func(o *dispatcherOptions) { o.logger = l } }

// New creates a Dispatcher over the given collaborators.
func New(catalog Catalog, orders Orders, accounts Accounts, opts ...Option) *Dispatcher {
	o := dispatcherOptions{defaultPageSize: 10, maxQuantity: 100, now: time.Now, logger: slog.Default()}
	for _, fn := range opts {
		fn(&o)
	}
	return &Dispatcher{
		catalog:  catalog,
		orders:   orders,
		accounts: accounts,
		handlers: newHandlers(o.defaultPageSize, o.maxQuantity),
		now:      o.now,
		logger:   o.logger,
	}
}

// Plan validates p against the schema for in. The second result is false
// when in has no backend function.
func (d *Dispatcher) Plan(in intent.Intent, p params.Set) (Plan, bool) {
	h, ok := d.handlers[in]
	if !ok {
		return Plan{}, false
	}
	return buildPlan(h, p, d.logger), true
}

// Dispatch runs the function for in when every required parameter is
// present. Collaborator errors and panics are recorded on a failed
// Invocation; Dispatch itself never fails.
func (d *Dispatcher) Dispatch(ctx context.Context, conv Conversation, in intent.Intent, p params.Set) Outcome {
	plan, ok := d.Plan(in, p)
	if !ok {
		return Outcome{}
	}
	h := d.handlers[in]
	out := Outcome{Function: h.Function, Args: plan.Args}
	if plan.Missing != "" {
		out.Missing = plan.Missing
		return out
	}

	inv := newInvocation(h.Function, plan.Args, d.now())
	out.Invocation = inv

	if h.UserScoped && conv.UserID == nil {
		_ = inv.Fail(errNotAuthenticated, d.now())
		out.Message = failureMessage(h, errNotAuthenticated)
		return out
	}

	result, err := d.invoke(ctx, h, conv, plan.Args)
	if err != nil {
		d.logger.Info("function call failed", "function", h.Function, "conversation", conv.ID, "error", err)
		_ = inv.Fail(err.Error(), d.now())
		out.Message = failureMessage(h, err.Error())
		return out
	}

	_ = inv.Complete(result, d.now())
	out.Result = result
	if h.Confirm != nil {
		out.Message = h.Confirm(plan.Args, result)
	}
	return out
}

// UserName returns the name of the conversation's user, or "" for an
// anonymous conversation or a failed lookup.
func (d *Dispatcher) UserName(ctx context.Context, conv Conversation) string {
	if conv.UserID == nil || d.accounts == nil {
		return ""
	}
	u, err := d.accounts.GetUser(ctx, *conv.UserID)
	if err != nil {
		d.logger.Debug("user lookup failed", "user", *conv.UserID, "error", err)
		return ""
	}
	return u.Name
}

func (d *Dispatcher) invoke(ctx context.Context, h *handler, conv Conversation, args params.Set) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("function call panicked", "function", h.Function, "panic", r)
			result, err = nil, fmt.Errorf("internal error: %v", r)
		}
	}()
	return h.Invoke(ctx, d, conv, args)
}

func failureMessage(h *handler, msg string) string {
	return fmt.Sprintf("Sorry, I couldn't %s: %s.", h.Action, strings.TrimRight(msg, "."))
}
