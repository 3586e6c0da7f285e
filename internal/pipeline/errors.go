package pipeline

import "fmt"

// Code classifies orchestrator failures for callers.
type Code string

const (
	CodeConversationNotFound Code = "CONVERSATION_NOT_FOUND"
	CodeConversationEnded    Code = "CONVERSATION_ENDED"
	CodeInvalidInput         Code = "INVALID_INPUT"
	CodeInternal             Code = "INTERNAL"
)

// Error is a coded orchestrator error. errors.Is matches on Code, so
// errors.Is(err, ErrConversationEnded) holds for any ended-conversation
// failure.
type Error struct {
	Code   Code
	Reason string
	Err    error
}

var (
	ErrConversationNotFound = &Error{Code: CodeConversationNotFound, Reason: "conversation not found"}
	ErrConversationEnded    = &Error{Code: CodeConversationEnded, Reason: "conversation has ended"}
	ErrInvalidInput         = &Error{Code: CodeInvalidInput, Reason: "invalid input"}
)

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return fmt.Sprintf("pipeline: %s (%s)", e.Code, e.Reason)
	}
	return fmt.Sprintf("pipeline: %s (%s): %v", e.Code, e.Reason, e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && e != nil && t.Code == e.Code
}

func newError(code Code, reason string, err error) *Error {
	return &Error{Code: code, Reason: reason, Err: err}
}
