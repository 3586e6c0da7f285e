package intent

import (
	"regexp"
	"strings"
)

// KeywordConfidence is reported for a keyword fallback hit. It sits at the
// continuation threshold so a keyword hit is never treated as a follow-up.
const KeywordConfidence = 0.3

type keywordGroup struct {
	intent Intent
	re     *regexp.Regexp
}

func compileKeywords(in Intent, phrases ...string) keywordGroup {
	quoted := make([]string, len(phrases))
	for i, p := range phrases {
		quoted[i] = strings.ReplaceAll(regexp.QuoteMeta(p), " ", `\s+`)
	}
	return keywordGroup{
		intent: in,
		re:     regexp.MustCompile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)\b`),
	}
}

// Scanned in order; Greeting is last so "hi, where is my order" is about the order.
var defaultKeywords = []keywordGroup{
	compileKeywords(CancelOrder, "cancel my order", "cancel order", "cancel the order", "cancel an order",
		"cancel it", "cancel that"),
	compileKeywords(OrderStatus, "track order", "track my order", "order status", "where is my order",
		"where's my order", "delivery status", "shipping status", "status of my order", "my package"),
	compileKeywords(ModifyUser, "change my name", "update my name", "change my email", "update my email",
		"change my password", "update my password", "reset my password", "update my profile",
		"change my profile", "my name is", "call me", "my account"),
	compileKeywords(CreateOrder, "place an order", "place order", "purchase", "add to cart", "checkout", "buy"),
	compileKeywords(Help, "help", "support", "assist", "assistance", "how do i", "how to", "guide me", "what can you do"),
	compileKeywords(ProductSearch, "search", "find", "looking for", "show me", "browse", "catalog",
		"laptop", "laptops", "notebook", "notebooks", "monitor", "monitors", "accessories", "products"),
	compileKeywords(Greeting, "hello", "hi", "hey", "good morning", "good afternoon", "good evening",
		"greetings", "howdy"),
}

func matchKeywords(groups []keywordGroup, text string) (Intent, bool) {
	for _, g := range groups {
		if g.re.MatchString(text) {
			return g.intent, true
		}
	}
	return Unknown, false
}
