package params

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	betweenRe = regexp.MustCompile(`(?i)\b(?:between|from)\s+` + amountPattern + `\s*(?:and|to|-)\s*` + amountPattern)
	rangeRe   = regexp.MustCompile(`(?i)\$\s*(\d[\d,]*(?:\.\d+)?)(\s*[kK]\b)?\s*(?:-|to)\s*` + amountPattern)
	maxRe     = regexp.MustCompile(`(?i)\b(?:under|below|less\s+than|cheaper\s+than|lower\s+than|up\s+to|at\s+most|no\s+more\s+than|not\s+more\s+than|max(?:imum)?(?:\s+of)?|within|budget\s+(?:of|is))\s*:?\s*` + amountPattern)
	minRe     = regexp.MustCompile(`(?i)\b(?:over|above|more\s+than|higher\s+than|greater\s+than|at\s+least|min(?:imum)?(?:\s+of)?|starting\s+(?:at|from)|upwards\s+of)\s*:?\s*` + amountPattern)
	dollarRe  = regexp.MustCompile(`(?i)\$\s*(\d[\d,]*(?:\.\d+)?)(\s*[kK]\b)?|\b(\d[\d,]*(?:\.\d+)?)(\s*[kK])?\s*(?:dollars?|usd|bucks)\b`)

	outStockRe = regexp.MustCompile(`(?i)\b(?:out[\s-]+of[\s-]+stock|sold[\s-]+out|unavailable|not\s+(?:in[\s-]+stock|available)|back[\s-]?order(?:ed)?)\b`)
	inStockRe  = regexp.MustCompile(`(?i)\b(?:in[\s-]+stock|available|on\s+hand|ready\s+to\s+ship)\b`)

	pageSizeRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bpage\s+size\s*(?:of|=|:|to)?\s*(\d{1,4})\b`),
		regexp.MustCompile(`(?i)\b(\d{1,4})\s+(?:[a-z]+\s+)?(?:per|a|each)\s+page\b`),
		regexp.MustCompile(`(?i)\b(?:top|first)\s+(\d{1,4})\b`),
		regexp.MustCompile(`(?i)\b(?:show|list|give)\s+(?:me\s+)?(\d{1,2})\s+(?:results|items|products|options|laptops|notebooks|monitors|displays|accessories)\b`),
	}
	pageRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bpage\s*(?:#|no\.?|number)?\s*(\d{1,4})\b`),
		regexp.MustCompile(`(?i)\b(\d{1,4})(?:st|nd|rd|th)\s+page\b`),
	}
)

// mask blanks out text[start:end] keeping offsets stable, so later rules do
// not see tokens an earlier rule consumed.
func mask(text string, start, end int) string {
	return text[:start] + strings.Repeat(" ", end-start) + text[end:]
}

// groupAmount parses the amount captured by groups n and n+1 of m.
func groupAmount(text string, m []int, n int) (float64, bool) {
	num := text[m[2*n]:m[2*n+1]]
	suffix := ""
	if m[2*n+2] >= 0 {
		suffix = text[m[2*n+2]:m[2*n+3]]
	}
	return parseAmount(num, suffix)
}

func (e *Extractor) extractSearch(text string, res *Result) {
	p := res.Params
	work := text

	// (a) explicit price patterns.
	var minP, maxP *float64
	if m := betweenRe.FindStringSubmatchIndex(work); m != nil {
		lo, ok1 := groupAmount(work, m, 1)
		hi, ok2 := groupAmount(work, m, 3)
		if ok1 && ok2 {
			if lo > hi {
				lo, hi = hi, lo
			}
			minP, maxP = &lo, &hi
		}
		work = mask(work, m[0], m[1])
	} else if m := rangeRe.FindStringSubmatchIndex(work); m != nil {
		lo, ok1 := groupAmount(work, m, 1)
		hi, ok2 := groupAmount(work, m, 3)
		if ok1 && ok2 {
			if lo > hi {
				lo, hi = hi, lo
			}
			minP, maxP = &lo, &hi
		}
		work = mask(work, m[0], m[1])
	}
	if maxP == nil {
		if m := maxRe.FindStringSubmatchIndex(work); m != nil {
			if v, ok := groupAmount(work, m, 1); ok {
				maxP = &v
			}
			work = mask(work, m[0], m[1])
		}
	}
	if minP == nil {
		if m := minRe.FindStringSubmatchIndex(work); m != nil {
			if v, ok := groupAmount(work, m, 1); ok {
				minP = &v
			}
			work = mask(work, m[0], m[1])
		}
	}

	// Stock. Negative cues are consumed first so "not available" does not
	// also count as "available".
	outHits := outStockRe.FindAllStringIndex(work, -1)
	for _, loc := range outHits {
		work = mask(work, loc[0], loc[1])
	}
	inHits := inStockRe.FindAllStringIndex(work, -1)
	for _, loc := range inHits {
		work = mask(work, loc[0], loc[1])
	}
	switch {
	case len(inHits) > 0 && len(outHits) > 0:
		res.ambiguous(KeyInStock)
	case len(inHits) > 0:
		p[KeyInStock] = true
	case len(outHits) > 0:
		p[KeyInStock] = false
	}

	// Pagination.
	for _, re := range pageSizeRes {
		if m := re.FindStringSubmatchIndex(work); m != nil {
			if n, err := strconv.Atoi(work[m[2]:m[3]]); err == nil {
				p[KeyPageSize] = clamp(n, 1, e.cfg.MaxPageSize)
			}
			work = mask(work, m[0], m[1])
			break
		}
	}
	for _, re := range pageRes {
		if m := re.FindStringSubmatchIndex(work); m != nil {
			if n, err := strconv.Atoi(work[m[2]:m[3]]); err == nil {
				p[KeyPage] = max(n, 1)
			}
			work = mask(work, m[0], m[1])
			break
		}
	}

	// (b) money entities, then (c) bare "$N" / "N dollars" tokens, read as a
	// budget ceiling.
	if minP == nil && maxP == nil {
		for _, ent := range e.entities(text, "MONEY") {
			if v, ok := parseMoneyText(ent.Text); ok {
				maxP = &v
				if i := strings.Index(strings.ToLower(work), strings.ToLower(ent.Text)); i >= 0 {
					work = mask(work, i, i+len(ent.Text))
				}
				break
			}
		}
	}
	if minP == nil && maxP == nil {
		if m := dollarRe.FindStringSubmatchIndex(work); m != nil {
			n := 1
			if m[2] < 0 {
				n = 3
			}
			if v, ok := groupAmount(work, m, n); ok {
				maxP = &v
			}
			work = mask(work, m[0], m[1])
		}
	}

	switch {
	case minP != nil && maxP != nil && *minP > *maxP:
		res.ambiguous(AmbiguousPriceRange)
	default:
		if minP != nil {
			p[KeyMinPrice] = *minP
		}
		if maxP != nil {
			p[KeyMaxPrice] = *maxP
		}
	}

	// Vocabulary scan over what is left.
	var query []string
	for _, w := range words(work) {
		if b, ok := brandNames[w]; ok {
			if _, set := p[KeyBrand]; !set {
				p[KeyBrand] = b
			}
			if w == "macbook" || w == "macbooks" || w == "thinkpad" || w == "thinkpads" {
				query = append(query, strings.TrimSuffix(w, "s"))
			}
			continue
		}
		if c, ok := categoryTerms[w]; ok {
			if _, set := p[KeyCategory]; !set {
				p[KeyCategory] = c
			}
			continue
		}
		if stopwords[w] || isNumeric(w) {
			continue
		}
		if _, ok := numberWords[w]; ok {
			continue
		}
		query = append(query, w)
	}
	if len(query) > 0 {
		p[KeyQuery] = strings.Join(query, " ")
	}
}

func isNumeric(w string) bool {
	for _, r := range w {
		if (r < '0' || r > '9') && r != '.' && r != ',' && r != '$' {
			return false
		}
	}
	return true
}
