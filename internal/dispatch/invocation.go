package dispatch

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/kalambet/shopbot/internal/params"
)

// Status is the lifecycle state of an Invocation.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// ErrInvocationFinalized is returned when a completed or failed invocation
// is transitioned again.
var ErrInvocationFinalized = errors.New("invocation already finalized")

// Invocation records one attempt to call a backend function.
type Invocation struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Parameters  params.Set `json:"parameters"`
	Status      Status     `json:"status"`
	Result      any        `json:"result,omitempty"`
	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

func newInvocation(name string, args params.Set, now time.Time) *Invocation {
	return &Invocation{
		ID:         uuid.NewString(),
		Name:       name,
		Parameters: redact(args),
		Status:     StatusPending,
		CreatedAt:  now,
	}
}

// Complete moves a pending invocation to completed.
func (inv *Invocation) Complete(result any, at time.Time) error {
	if inv.Status != StatusPending {
		return ErrInvocationFinalized
	}
	inv.Status = StatusCompleted
	inv.Result = result
	inv.CompletedAt = &at
	return nil
}

// Fail moves a pending invocation to failed with msg as the error.
func (inv *Invocation) Fail(msg string, at time.Time) error {
	if inv.Status != StatusPending {
		return ErrInvocationFinalized
	}
	inv.Status = StatusFailed
	inv.Error = msg
	inv.CompletedAt = &at
	return nil
}

// redact copies args with any password removed.
func redact(args params.Set) params.Set {
	out := args.Clone()
	if u, ok := out.UserData(); ok && u.Password != "" {
		u.Password = ""
		out[params.KeyUserData] = u
		out["password_changed"] = true
	}
	return out
}
