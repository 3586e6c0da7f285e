package params

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	hashIDRe  = regexp.MustCompile(`#\s*(\d+)`)
	orderIDRe = regexp.MustCompile(`(?i)\border\s*(?:number|no\.?|num|id|#)?\s*:?\s*(\d+)\b`)
	digitsRe  = regexp.MustCompile(`\b(\d+)\b`)
)

// extractOrderID fills order_id from "#4521", "order 4521", a CARDINAL
// entity or, failing all else, the first number in the text.
func (e *Extractor) extractOrderID(text string, res *Result) {
	if id, ok := findOrderID(text); ok {
		res.Params[KeyOrderID] = id
		return
	}
	for _, ent := range e.entities(text, "CARDINAL") {
		if id, err := strconv.Atoi(strings.TrimPrefix(strings.TrimSpace(ent.Text), "#")); err == nil && id > 0 {
			res.Params[KeyOrderID] = id
			return
		}
	}
	if m := digitsRe.FindStringSubmatch(text); m != nil {
		if id, err := strconv.Atoi(m[1]); err == nil && id > 0 {
			res.Params[KeyOrderID] = id
		}
	}
}

func findOrderID(text string) (int, bool) {
	for _, re := range []*regexp.Regexp{hashIDRe, orderIDRe} {
		if m := re.FindStringSubmatch(text); m != nil {
			if id, err := strconv.Atoi(m[1]); err == nil && id > 0 {
				return id, true
			}
		}
	}
	return 0, false
}
