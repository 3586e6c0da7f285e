package storage

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a write violates a uniqueness or state
	// constraint, e.g. a duplicate email or ending an ended conversation.
	ErrConflict = errors.New("conflict")
)

// StockError reports a line that cannot be fulfilled from current stock.
type StockError struct {
	ProductID   int64
	ProductName string
	Requested   int
	Available   int
}

func (e *StockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: requested %d, available %d", e.ProductName, e.Requested, e.Available)
}

type Conversation struct {
	ID        string
	UserID    *int64
	StartedAt time.Time
	EndedAt   *time.Time
}

// Active reports whether the conversation still accepts turns.
func (c Conversation) Active() bool { return c.EndedAt == nil }

type Message struct {
	ID             int64
	ConversationID string
	Direction      string // "incoming" or "outgoing"
	Content        string
	Intent         string
	Confidence     float64
	CreatedAt      time.Time
}

type Invocation struct {
	ID             string
	ConversationID string
	MessageID      int64
	Name           string
	ParametersJSON string
	Status         string // "pending", "completed", "failed"
	ResultJSON     string
	Error          string
	CreatedAt      time.Time
	CompletedAt    *time.Time
}

// Turn is the unit written by SaveTurn: the user message, the reply and
// at most one invocation.
type Turn struct {
	Incoming   Message
	Outgoing   Message
	Invocation *Invocation
}

type ContextRow struct {
	ConversationID string
	Intent         string
	ParamsJSON     string
	UpdatedAt      time.Time
}

type Product struct {
	ID          int64
	Name        string
	Brand       string
	Description string
	Category    string
	Price       float64
	Stock       int
}

// ProductFilter narrows SearchProducts. Nil pointers and empty strings
// mean the filter is not applied.
type ProductFilter struct {
	Query    string
	Brand    string
	Category string
	MinPrice *float64
	MaxPrice *float64
	InStock  *bool
	Offset   int
	Limit    int
}

type User struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// UserPatch holds the columns to change; nil fields are left untouched.
type UserPatch struct {
	Name         *string
	Email        *string
	PasswordHash *string
}

type Order struct {
	ID              int64
	UserID          int64
	Status          string
	TotalAmount     float64
	ShippingAddress string // JSON object stored as text
	Notes           string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	Items           []OrderItem
}

type OrderItem struct {
	ProductID  int64
	Name       string
	Quantity   int
	UnitPrice  float64
	TotalPrice float64
}

type Job struct {
	ID          string
	Type        string
	PayloadJSON string
	Status      string // "pending", "running", "completed", "failed"
	Attempts    int
	MaxAttempts int
	RunAfter    time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	LastError   string
}
