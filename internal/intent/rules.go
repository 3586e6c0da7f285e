package intent

import "regexp"

// RuleConfidence is reported for every deterministic rule hit.
const RuleConfidence = 0.95

const quantityWord = `(?:\d{1,3}|an?|one|two|three|four|five|six|seven|eight|nine|ten|eleven|twelve|a\s+couple\s+of|a\s+dozen)`

// rule is a high-precision pattern for phrasing that changes money or order
// state. Rules are evaluated in order and the first hit wins.
type rule struct {
	name   string
	intent Intent
	re     *regexp.Regexp
	// unless vetoes the rule when it also matches the text.
	unless *regexp.Regexp
}

func compileRule(name string, in Intent, pattern string) rule {
	return rule{name: name, intent: in, re: regexp.MustCompile("(?i)" + pattern)}
}

func (r rule) vetoedBy(veto *regexp.Regexp) rule {
	r.unless = veto
	return r
}

// orderRef is "order", optionally followed by an item noun and an ID label,
// up to the digits: "order 4521", "order item #12345", "order number: 88".
const orderRef = `\border\b\s*(?:(?:item|product|sku)s?\s*)?(?:number|no\.?|id)?\s*[:#]?\s*\d+`

// notPurchase marks phrasing that talks about an order without placing one.
var notPurchase = regexp.MustCompile(`(?i)\b(?:cancel\w*|track\w*|status|where(?:'s|\s+is)|don'?t\s+want|do\s+not\s+want|never\s*mind|refund\w*)\b`)

var defaultRules = []rule{
	compileRule("cancel_order", CancelOrder,
		`\bcancel\b[^.?!]*?`+orderRef),
	compileRule("cancel_number", CancelOrder,
		`\bcancel\b\s+(?:my\s+|the\s+)?#\s*\d+`),
	compileRule("track_order", OrderStatus,
		`\b(?:track|status|where(?:'s|\s+is))\b[^.?!]*?`+orderRef),
	compileRule("order_item", CreateOrder,
		`\b(?:order|buy|purchase)\b\s+(?:`+quantityWord+`\s*(?:x\s*|units?\s+of\s+|pieces?\s+of\s+|of\s+)?)?(?:the\s+)?(?:item|product|sku)s?\s*(?:id\s*)?[:#]?\s*\d+`).
		vetoedBy(notPurchase),
	compileRule("order_quantity_id", CreateOrder,
		`\b(?:order|buy|purchase)\b\s+`+quantityWord+`\s*(?:x\s*|units?\s+of\s+|of\s+)?#\s*\d+`).
		vetoedBy(notPurchase),
}

// matchRule returns the first rule that matches text.
func matchRule(rules []rule, text string) (rule, bool) {
	for _, r := range rules {
		if r.re.MatchString(text) && (r.unless == nil || !r.unless.MatchString(text)) {
			return r, true
		}
	}
	return rule{}, false
}
