package params

import (
	"regexp"
	"sort"
	"strings"
)

var (
	zipRe       = regexp.MustCompile(`\b(\d{5})(?:-\d{4})?\b`)
	stateCodeRe = regexp.MustCompile(`\b([A-Za-z]{2})\s*$`)
)

// Lookup keys longest first, so "west virginia" wins over "virginia".
var (
	citiesByLength    = byLength(cityStates)
	statesByLength    = byLength(stateNames)
	countriesByLength = byLength(countryNames)
)

func byLength(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool {
		if len(out[i]) != len(out[j]) {
			return len(out[i]) > len(out[j])
		}
		return out[i] < out[j]
	})
	return out
}

// parseAddress splits a free-form address into parts. Comma separated
// input is read as "street, city, state zip, country"; the zip, state and
// country are recognised anywhere.
func (e *Extractor) parseAddress(raw string) Address {
	raw = strings.Trim(strings.TrimSpace(raw), ".!")
	var a Address

	if locs := zipRe.FindAllStringSubmatchIndex(raw, -1); len(locs) > 0 {
		last := locs[len(locs)-1]
		a.Zip = raw[last[2]:last[3]]
		raw = mask(raw, last[0], last[1])
	}

	var parts []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.Join(strings.Fields(p), " "); p != "" {
			parts = append(parts, p)
		}
	}

	// Country: a whole part or the tail of the last part.
	for i := len(parts) - 1; i >= 0 && a.Country == ""; i-- {
		lower := strings.ToLower(parts[i])
		if c, ok := countryNames[lower]; ok {
			a.Country = c
			parts = append(parts[:i], parts[i+1:]...)
			break
		}
		for _, name := range countriesByLength {
			if len(name) > 2 && strings.HasSuffix(lower, " "+name) {
				a.Country = countryNames[name]
				parts[i] = strings.TrimSpace(parts[i][:len(parts[i])-len(name)])
				break
			}
		}
	}

	// State: a two letter code or full name closing one of the trailing parts.
	for i := len(parts) - 1; i >= 0 && a.State == ""; i-- {
		lower := strings.ToLower(parts[i])
		for _, name := range statesByLength {
			if lower == name || strings.HasSuffix(lower, " "+name) {
				a.State = stateNames[name]
				parts[i] = strings.TrimSpace(parts[i][:len(parts[i])-len(name)])
				break
			}
		}
		if a.State != "" {
			break
		}
		if m := stateCodeRe.FindStringSubmatchIndex(parts[i]); m != nil {
			code := parts[i][m[2]:m[3]]
			// In the street part only an upper-case trailing code counts.
			if i == 0 && (m[2] == 0 || code != strings.ToUpper(code)) {
				continue
			}
			code = strings.ToUpper(code)
			if stateCodes[code] {
				a.State = code
				parts[i] = strings.TrimSpace(parts[i][:m[2]])
			}
		}
	}
	parts = compact(parts)

	streetIdx := -1
	for i, p := range parts {
		if p[0] >= '0' && p[0] <= '9' {
			streetIdx = i
			break
		}
	}
	switch {
	case streetIdx >= 0:
		a.Street = parts[streetIdx]
		if streetIdx+1 < len(parts) {
			a.City = parts[streetIdx+1]
		} else if streetIdx > 0 {
			a.City = parts[streetIdx-1]
		}
	case len(parts) > 0:
		a.Street = parts[0]
		if len(parts) > 1 {
			a.City = parts[1]
		}
	}

	// No comma between street and city: look for a known city name.
	if a.City == "" && a.Street != "" {
		lower := strings.ToLower(a.Street)
		for _, c := range citiesByLength {
			if i := strings.LastIndex(lower, " "+c); i > 0 && i+1+len(c) == len(lower) {
				a.City = a.Street[i+1:]
				a.Street = strings.TrimSpace(a.Street[:i])
				break
			}
		}
	}
	if a.City == "" {
		for _, ent := range e.entities(raw, "GPE", "LOC") {
			lower := strings.ToLower(ent.Text)
			if _, isState := stateNames[lower]; isState {
				continue
			}
			if _, isCountry := countryNames[lower]; isCountry {
				continue
			}
			a.City = ent.Text
			break
		}
	}
	if a.State == "" && a.City != "" {
		a.State = cityStates[strings.ToLower(a.City)]
	}
	if a.Zip == "" {
		a.Zip = e.cfg.DefaultZip
	}
	if a.Country == "" {
		a.Country = e.cfg.DefaultCountry
	}
	return a
}

func compact(parts []string) []string {
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
