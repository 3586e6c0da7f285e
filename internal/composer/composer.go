// Package composer turns a turn's intent, parameters and dispatch outcome
// into the assistant's reply.
package composer

import (
	"fmt"
	"math"
	"strings"

	"github.com/kalambet/shopbot/internal/dispatch"
	"github.com/kalambet/shopbot/internal/intent"
	"github.com/kalambet/shopbot/internal/params"
	"github.com/kalambet/shopbot/internal/shop"
)

const defaultMaxListed = 10

// Composer renders replies from templates. It holds no per-turn state.
type Composer struct {
	// MaxListed caps how many search results are spelled out.
	MaxListed int
}

// New creates a Composer. If maxListed <= 0, the default (10) is used.
func New(maxListed int) *Composer {
	if maxListed <= 0 {
		maxListed = defaultMaxListed
	}
	return &Composer{MaxListed: maxListed}
}

// Input is everything the composer may draw on for one turn.
type Input struct {
	Intent      intent.Intent
	Params      params.Set
	Ambiguities []string
	Outcome     dispatch.Outcome
	// UserName personalises the greeting when known.
	UserName string
}

// Compose returns the reply for one turn. A final message from the
// dispatcher is returned unchanged; otherwise the reply comes from the
// intent's template. At most one question is asked.
func (c *Composer) Compose(in Input) string {
	if in.Outcome.Message != "" {
		return in.Outcome.Message
	}
	if in.Outcome.Missing != "" {
		return question(in.Outcome.Missing)
	}

	switch in.Intent {
	case intent.Greeting:
		return greeting(in.UserName)
	case intent.Help:
		return helpText
	case intent.ProductSearch:
		if res, ok := in.Outcome.Result.(shop.SearchResult); ok {
			return c.searchReply(in, res)
		}
	case intent.OrderStatus:
		if o, ok := in.Outcome.Result.(shop.Order); ok {
			return orderStatusReply(o)
		}
	}
	if in.Outcome.Invocation != nil && in.Outcome.Invocation.Status == dispatch.StatusCompleted {
		return "Done."
	}
	return unknownText
}

const (
	helpText = "I can help you with:\n" +
		"- Finding products, e.g. \"Dell laptops under $1000 in stock\"\n" +
		"- Checking an order, e.g. \"where is order #4521\"\n" +
		"- Placing an order, e.g. \"buy 2 of #10001, ship to 1 Main St, Austin, TX\"\n" +
		"- Cancelling an order, e.g. \"cancel order 4521\"\n" +
		"- Updating your profile, e.g. \"change my email to me@example.com\""
	unknownText = "I'm not sure I understood that. You can search for products, check or cancel an order, " +
		"place an order or update your profile. Type \"help\" for examples."
)

func greeting(name string) string {
	hello := "Hello!"
	if name != "" {
		hello = fmt.Sprintf("Hello, %s!", name)
	}
	return hello + " I can help you find a laptop, check on an order or update your account. What are you looking for today?"
}

var questions = map[string]string{
	params.KeyItems:           "Which product would you like to order? Please give me the product ID (for example #10001) and the quantity.",
	params.KeyOrderID:         "Which order do you mean? Please give me the order number.",
	params.KeyUserData:        "What would you like to change: your name, your email or your password?",
	params.KeyShippingAddress: "Where should we ship it?",
}

func question(slot string) string {
	if q, ok := questions[slot]; ok {
		return q
	}
	return fmt.Sprintf("Could you tell me the %s?", strings.ReplaceAll(slot, "_", " "))
}

var statusPhrases = map[shop.OrderStatus]string{
	shop.StatusPending:    "is pending confirmation",
	shop.StatusConfirmed:  "has been confirmed",
	shop.StatusProcessing: "is being processed",
	shop.StatusShipped:    "has shipped",
	shop.StatusDelivered:  "has been delivered",
	shop.StatusCancelled:  "has been cancelled",
}

func orderStatusReply(o shop.Order) string {
	phrase, ok := statusPhrases[o.Status]
	if !ok {
		phrase = "is " + string(o.Status)
	}
	msg := fmt.Sprintf("Order #%d %s.", o.ID, phrase)
	if len(o.Items) > 0 {
		lines := make([]string, len(o.Items))
		for i, it := range o.Items {
			lines[i] = fmt.Sprintf("%d x %s", it.Quantity, it.Name)
		}
		msg += fmt.Sprintf(" It contains %s, total %s.", dispatch.JoinList(lines), dispatch.Money(o.Total))
	}
	return msg
}

// nouns gives the singular and plural noun for each category.
var nouns = map[string][2]string{
	"":            {"product", "products"},
	"laptops":     {"laptop", "laptops"},
	"displays":    {"display", "displays"},
	"accessories": {"accessory", "accessories"},
	"storage":     {"storage device", "storage devices"},
	"memory":      {"memory module", "memory modules"},
	"networking":  {"networking product", "networking products"},
}

func noun(category string, n int) string {
	forms, ok := nouns[category]
	if !ok {
		return category
	}
	if n == 1 {
		return forms[0]
	}
	return forms[1]
}

// filterClauses describes the active search filters, category excluded.
func filterClauses(p params.Set) []string {
	var out []string
	if q, ok := p.GetString(params.KeyQuery); ok {
		out = append(out, fmt.Sprintf("matching %q", q))
	}
	if b, ok := p.GetString(params.KeyBrand); ok {
		out = append(out, "from "+b)
	}
	minP, hasMin := p.GetFloat(params.KeyMinPrice)
	maxP, hasMax := p.GetFloat(params.KeyMaxPrice)
	switch {
	case hasMin && hasMax:
		out = append(out, fmt.Sprintf("between %s and %s", dispatch.Money(minP), dispatch.Money(maxP)))
	case hasMax:
		out = append(out, "under "+dispatch.Money(maxP))
	case hasMin:
		out = append(out, "over "+dispatch.Money(minP))
	}
	if s, ok := p.GetBool(params.KeyInStock); ok {
		if s {
			out = append(out, "in stock")
		} else {
			out = append(out, "out of stock")
		}
	}
	return out
}

func (c *Composer) searchReply(in Input, res shop.SearchResult) string {
	p := in.Outcome.Args
	if p == nil {
		p = in.Params
	}
	category, _ := p.GetString(params.KeyCategory)
	if res.QueryDropped {
		p = p.Clone()
		delete(p, params.KeyQuery)
	}
	subject := noun(category, res.Total)
	if clauses := filterClauses(p); len(clauses) > 0 {
		subject += " " + dispatch.JoinList(clauses)
	}

	if res.Total == 0 {
		return noMatches(subject, p, category) + clarify(in.Ambiguities)
	}

	var sb strings.Builder
	if res.QueryDropped {
		q, _ := in.Outcome.Args.GetString(params.KeyQuery)
		fmt.Fprintf(&sb, "Nothing matched %q, so I widened the search. ", q)
	}
	fmt.Fprintf(&sb, "I found %d %s:", res.Total, subject)
	for i, item := range res.Items {
		if i == c.MaxListed {
			break
		}
		fmt.Fprintf(&sb, "\n- #%d %s, %s", item.ID, item.Name, dispatch.Money(item.Price))
		if !item.InStock() {
			sb.WriteString(" (out of stock)")
		}
	}
	if res.PageSize > 0 {
		pages := int(math.Ceil(float64(res.Total) / float64(res.PageSize)))
		if res.Page < pages {
			fmt.Fprintf(&sb, "\nShowing page %d of %d. Ask for page %d to see more.", res.Page, pages, res.Page+1)
		}
	}
	sb.WriteString(clarify(in.Ambiguities))
	return sb.String()
}

// clarify asks about slots the extractor left out because their cues
// conflicted.
func clarify(ambiguities []string) string {
	var q string
	if hasAmbiguity(ambiguities, params.AmbiguousPriceRange) {
		q += "\nThe minimum price you gave is above the maximum, so I ignored both. What price range did you have in mind?"
	}
	if hasAmbiguity(ambiguities, params.KeyInStock) {
		q += "\nShould I show only items that are in stock?"
	}
	return q
}

// noMatches lists relaxation suggestions for the filters that were set,
// in the order price, brand, stock, category.
func noMatches(subject string, p params.Set, category string) string {
	var tips []string
	minP, hasMin := p.GetFloat(params.KeyMinPrice)
	maxP, hasMax := p.GetFloat(params.KeyMaxPrice)
	switch {
	case hasMin && hasMax:
		tips = append(tips, fmt.Sprintf("Widen the price range beyond %s to %s", dispatch.Money(minP), dispatch.Money(maxP)))
	case hasMax:
		tips = append(tips, "Raise your budget above "+dispatch.Money(maxP))
	case hasMin:
		tips = append(tips, "Lower the minimum price below "+dispatch.Money(minP))
	}
	if b, ok := p.GetString(params.KeyBrand); ok {
		tips = append(tips, "Look at brands other than "+b)
	}
	if s, ok := p.GetBool(params.KeyInStock); ok {
		if s {
			tips = append(tips, "Include items that are currently out of stock")
		} else {
			tips = append(tips, "Include items that are in stock")
		}
	}
	if category != "" {
		tips = append(tips, "Browse a category other than "+category)
	}

	msg := fmt.Sprintf("I couldn't find any %s.", subject)
	if len(tips) == 0 {
		return msg + " Try different search terms or type \"help\" for examples."
	}
	msg += " You could try:"
	for i, t := range tips {
		msg += fmt.Sprintf("\n%d. %s", i+1, t)
	}
	return msg
}

func hasAmbiguity(list []string, slot string) bool {
	for _, s := range list {
		if s == slot {
			return true
		}
	}
	return false
}
