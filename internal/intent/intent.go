package intent

import "strings"

// Intent is the closed set of things a shopper can ask for.
type Intent string

const (
	Greeting      Intent = "greeting"
	ProductSearch Intent = "product_search"
	OrderStatus   Intent = "order_status"
	Help          Intent = "help"
	ModifyUser    Intent = "modify_user"
	CreateOrder   Intent = "create_order"
	CancelOrder   Intent = "cancel_order"
	Unknown       Intent = "unknown"
)

// All lists every intent, Unknown last.
var All = []Intent{Greeting, ProductSearch, OrderStatus, Help, ModifyUser, CreateOrder, CancelOrder, Unknown}

// Parse maps a stored or user supplied name to an Intent. Anything it does
// not recognise is Unknown.
func Parse(s string) Intent {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, in := range All {
		if string(in) == s {
			return in
		}
	}
	return Unknown
}

func (i Intent) String() string { return string(i) }

// Source records which classification stage produced a Result.
type Source string

const (
	SourceRule     Source = "rule"
	SourceSemantic Source = "semantic"
	SourceKeyword  Source = "keyword"
	SourceNone     Source = "none"
)

// Result is the classifier output for one utterance. Confidence is in [0,1]
// and only meaningful for the turn it was computed in.
type Result struct {
	Intent     Intent
	Confidence float64
	Source     Source
}
