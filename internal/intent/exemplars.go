package intent

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed exemplars.yaml
var exemplarsYAML []byte

// Exemplar is a reference phrasing labelled with the intent it expresses.
type Exemplar struct {
	Intent Intent
	Text   string
}

// Exemplars returns the curated exemplar catalog shipped with the binary.
func Exemplars() ([]Exemplar, error) {
	return ParseExemplars(exemplarsYAML)
}

// ParseExemplars decodes a YAML document mapping intent names to phrase
// lists. Unknown intent names and blank phrases are rejected.
func ParseExemplars(data []byte) ([]Exemplar, error) {
	var raw map[string][]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing exemplars: %w", err)
	}

	var out []Exemplar
	// Iterate All for a stable order; map order is random.
	for _, in := range All {
		for _, p := range raw[string(in)] {
			p = strings.TrimSpace(p)
			if p == "" {
				return nil, fmt.Errorf("exemplar for %s is blank", in)
			}
			out = append(out, Exemplar{Intent: in, Text: p})
		}
		delete(raw, string(in))
	}
	for name := range raw {
		return nil, fmt.Errorf("exemplars: unknown intent %q", name)
	}
	return out, nil
}
