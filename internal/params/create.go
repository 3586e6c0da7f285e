package params

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	notesRe   = regexp.MustCompile(`(?i)\b(?:notes?\s*[:\-]\s*|with\s+(?:a\s+)?note\s*(?:saying|that\s+says|:)?\s*)(.+?)(?:\s*\b(?:ship(?:ped)?|deliver(?:ed)?|send)\s+(?:it\s+|them\s+)?to\b.*)?$`)
	shipToRe  = regexp.MustCompile(`(?i)\b(?:ship(?:ped)?|deliver(?:ed)?|send|mail)\s+(?:it\s+|them\s+|this\s+|everything\s+|the\s+order\s+)?to\s*:?\s*(.+)$`)
	addressRe = regexp.MustCompile(`(?i)\baddress\s*(?:is|:|=)\s*(.+)$`)
	suffixQty = regexp.MustCompile(`(?i)^\s*(?:[x×*]\s*(\d{1,3})\b|\(?\s*(?:qty|quantity)\s*:?\s*(\d{1,3})\b)`)
)

// qtyFiller are words that may sit between a quantity and the product ID it
// applies to, as in "2 units of product #10001".
var qtyFiller = toSet("item", "items", "product", "products", "sku", "id", "of", "the", "unit", "units",
	"piece", "pieces", "copy", "copies", "x", "number", "no", "more", "additional", "extra")

// extractOrder pulls notes first, then the shipping address, then line
// items from whatever remains, so digits in the address are never read as
// product IDs.
func (e *Extractor) extractOrder(text string, res *Result) {
	work := text

	if m := notesRe.FindStringSubmatchIndex(work); m != nil {
		if n := strings.Trim(work[m[2]:m[3]], ` "'.,;`); n != "" {
			res.Params[KeyNotes] = n
		}
		work = mask(work, m[0], m[3])
	}

	for _, re := range []*regexp.Regexp{shipToRe, addressRe} {
		if m := re.FindStringSubmatchIndex(work); m != nil {
			raw := strings.TrimSpace(work[m[2]:m[3]])
			if raw != "" {
				res.Params[KeyShippingAddress] = e.parseAddress(raw)
			}
			work = mask(work, m[0], m[1])
			break
		}
	}

	if items := e.parseItems(work); len(items) > 0 {
		res.Params[KeyItems] = items
	}
}

func (e *Extractor) parseItems(work string) []OrderLine {
	var items []OrderLine
	index := map[int64]int{}
	add := func(id int64, qty int) {
		qty = clamp(qty, 1, e.cfg.MaxQuantity)
		if i, ok := index[id]; ok {
			items[i].Quantity = clamp(items[i].Quantity+qty, 1, e.cfg.MaxQuantity)
			return
		}
		index[id] = len(items)
		items = append(items, OrderLine{ProductID: id, Quantity: qty})
	}

	prevEnd := 0
	for _, m := range e.idRe.FindAllStringSubmatchIndex(work, -1) {
		g := 1
		if m[2] < 0 {
			g = 2
		}
		id, err := strconv.ParseInt(work[m[2*g]:m[2*g+1]], 10, 64)
		if err != nil || id <= 0 {
			continue
		}
		if m[0] < prevEnd {
			continue
		}

		qty, found := 0, false
		end := m[1]
		if s := suffixQty.FindStringSubmatchIndex(work[m[1]:]); s != nil {
			for k := 1; k <= 2; k++ {
				if s[2*k] >= 0 {
					qty, _ = strconv.Atoi(work[m[1]+s[2*k] : m[1]+s[2*k+1]])
					found = true
					break
				}
			}
			end = m[1] + s[1]
		}
		if !found {
			qty, found = prefixQuantity(work[prevEnd:m[0]])
		}
		if !found {
			qty = 1
		}
		add(id, qty)
		prevEnd = end
	}

	if len(items) == 0 {
		for _, ent := range e.entities(work, "CARDINAL") {
			digits := strings.TrimPrefix(strings.TrimSpace(ent.Text), "#")
			if len(digits) < 3 {
				continue
			}
			if id, err := strconv.ParseInt(digits, 10, 64); err == nil && id > 0 {
				add(id, 1)
			}
		}
	}
	return items
}

// prefixQuantity reads a count from the words just before a product ID,
// skipping filler such as "units of" or a category or brand name.
func prefixQuantity(segment string) (int, bool) {
	toks := words(segment)
	for len(toks) > 0 {
		last := toks[len(toks)-1]
		_, isCategory := categoryTerms[last]
		_, isBrand := brandNames[last]
		if !qtyFiller[last] && !isCategory && !isBrand {
			break
		}
		toks = toks[:len(toks)-1]
	}
	return parseCount(toks)
}
