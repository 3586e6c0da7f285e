package params

import (
	"regexp"
	"strconv"
	"strings"
)

// amountPattern matches a price such as "$1,299.99", "500", "1.5k" or "2K".
// Group 1 is the number, group 2 the optional thousands suffix.
const amountPattern = `\$?\s*(\d[\d,]*(?:\.\d+)?)(\s*[kK]\b)?(?:\s*(?:dollars?|usd|bucks))?`

// parseAmount converts the captured number and suffix of amountPattern.
func parseAmount(num, suffix string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.ReplaceAll(num, ",", ""), 64)
	if err != nil || f < 0 {
		return 0, false
	}
	if strings.TrimSpace(suffix) != "" {
		f *= 1000
	}
	return f, true
}

var moneyEntityRe = regexp.MustCompile(`(?i)` + amountPattern)

// parseMoneyText parses free-form money text such as a MONEY entity.
func parseMoneyText(s string) (float64, bool) {
	m := moneyEntityRe.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	return parseAmount(m[1], m[2])
}

// parseCount parses a small quantity given as digits or words. tokens are
// lowercase words ending at the position where the quantity should be.
func parseCount(tokens []string) (int, bool) {
	n := len(tokens)
	if n == 0 {
		return 0, false
	}
	if n >= 3 {
		if v, ok := multiNumberWords[strings.Join(tokens[n-3:], " ")]; ok {
			return v, true
		}
	}
	if n >= 2 {
		if v, ok := multiNumberWords[strings.Join(tokens[n-2:], " ")]; ok {
			return v, true
		}
	}
	last := tokens[n-1]
	if v, ok := numberWords[last]; ok {
		return v, true
	}
	if len(last) <= 3 {
		if v, err := strconv.Atoi(last); err == nil {
			return v, true
		}
	}
	return 0, false
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

var wordRe = regexp.MustCompile(`[a-z0-9][a-z0-9'.\-]*`)

// words splits lowercase text into word tokens, dropping punctuation.
func words(s string) []string {
	toks := wordRe.FindAllString(strings.ToLower(s), -1)
	for i, t := range toks {
		toks[i] = strings.TrimRight(t, ".-")
	}
	return toks
}
