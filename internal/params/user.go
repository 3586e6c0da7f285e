package params

import (
	"regexp"
	"strings"
)

var (
	emailRe    = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	passwordRe = regexp.MustCompile(`(?i)\bpassword\s*(?:to|as|is|should\s+be|=|:)\s*(?:"([^"]+)"|'([^']+)'|(\S+))`)
	nameRes    = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bname\s*(?:to|as|is|should\s+be|=|:)\s*(.+)`),
		regexp.MustCompile(`(?i)\bcall\s+me\s+(.+)`),
	}
	nameStopRe = regexp.MustCompile(`(?i)\s*(?:[,;.!?]|\b(?:and|please|with|email|password|thanks|thank)\b).*$`)
)

const maxNameWords = 4

// extractUserData fills user_data with whichever of name, email and
// password the text sets.
func (e *Extractor) extractUserData(text string, res *Result) {
	var u UserData

	work := text
	if m := passwordRe.FindStringSubmatchIndex(work); m != nil {
		for g := 1; g <= 3; g++ {
			if m[2*g] >= 0 {
				u.Password = work[m[2*g]:m[2*g+1]]
				break
			}
		}
		if m[6] >= 0 {
			u.Password = strings.TrimRight(u.Password, ".,!;")
		}
		work = mask(work, m[0], m[1])
	}
	if loc := emailRe.FindStringIndex(work); loc != nil {
		u.Email = strings.ToLower(strings.TrimRight(work[loc[0]:loc[1]], "."))
		work = mask(work, loc[0], loc[1])
	}
	u.Name = findName(work)
	if u.Name == "" {
		for _, ent := range e.entities(work, "PERSON") {
			if n := cleanName(ent.Text); n != "" {
				u.Name = n
				break
			}
		}
	}

	if !u.Empty() {
		res.Params[KeyUserData] = u
	}
}

func findName(text string) string {
	for _, re := range nameRes {
		if m := re.FindStringSubmatch(text); m != nil {
			if n := cleanName(m[1]); n != "" {
				return n
			}
		}
	}
	return ""
}

// cleanName cuts a captured name at the first clause boundary and keeps at
// most maxNameWords words.
func cleanName(s string) string {
	s = nameStopRe.ReplaceAllString(s, "")
	s = strings.Trim(s, ` "'`)
	fields := strings.Fields(s)
	if len(fields) > maxNameWords {
		fields = fields[:maxNameWords]
	}
	if len(fields) == 0 || strings.ContainsAny(s, "@0123456789") {
		return ""
	}
	return strings.Join(fields, " ")
}
