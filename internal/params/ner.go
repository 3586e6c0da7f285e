package params

import (
	"regexp"
	"strings"

	"github.com/tsawler/prose/v3"
)

// ProseRecognizer finds entities with the prose statistical tagger. Named
// entities (PERSON, GPE) come from the tagger's chunker; CARDINAL and MONEY
// are read from CD-tagged tokens, which the chunker never labels.
type ProseRecognizer struct{}

// NewProseRecognizer returns a ProseRecognizer.
func NewProseRecognizer() *ProseRecognizer { return &ProseRecognizer{} }

var (
	numberTokenRe = regexp.MustCompile(`(?i)^#?\d[\d,]*(?:\.\d+)?k?$`)
	currencyToken = map[string]bool{"$": true, "usd": true, "us$": true}
	currencyAfter = map[string]bool{"dollars": true, "dollar": true, "usd": true, "bucks": true}
)

func isCardinal(tok prose.Token) bool {
	return tok.Tag == "CD" || numberTokenRe.MatchString(tok.Text)
}

// Entities returns the entities found in text. A tagging failure yields no
// entities; callers fall through to token heuristics.
func (r *ProseRecognizer) Entities(text string) []Entity {
	doc, err := prose.NewDocument(text)
	if err != nil {
		return nil
	}
	var out []Entity
	for _, ent := range doc.Entities() {
		out = append(out, Entity{Text: ent.Text, Label: strings.ToUpper(ent.Label)})
	}

	toks := doc.Tokens()
	for i := 0; i < len(toks); i++ {
		tok := toks[i]
		switch {
		case currencyToken[strings.ToLower(tok.Text)] && i+1 < len(toks) && isCardinal(toks[i+1]):
			out = append(out, Entity{Text: "$" + toks[i+1].Text, Label: "MONEY"})
			i++
		case isCardinal(tok) && i+1 < len(toks) && currencyAfter[strings.ToLower(toks[i+1].Text)]:
			out = append(out, Entity{Text: "$" + tok.Text, Label: "MONEY"})
			i++
		case isCardinal(tok):
			out = append(out, Entity{Text: tok.Text, Label: "CARDINAL"})
		}
	}
	return out
}
