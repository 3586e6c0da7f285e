package dispatch

import (
	"log/slog"
	"strings"

	"github.com/kalambet/shopbot/internal/params"
)

// Kind is the value type a parameter must carry.
type Kind int

const (
	KindString Kind = iota
	KindInt
	KindFloat
	KindBool
	KindUserData
	KindItems
	KindAddress
)

// ParamSpec declares one function parameter.
type ParamSpec struct {
	Name     string
	Kind     Kind
	Required bool
	Enum     []string
	// Min and Max bound numeric values (and item quantities) when Bounded.
	Min, Max float64
	Bounded  bool
	Default  any
}

// Plan is the validated call for a turn. Missing names the first absent
// required parameter; when set, no call is made.
type Plan struct {
	Function string
	Args     params.Set
	Missing  string
	// Invalid lists parameters that were present but failed validation and
	// were dropped.
	Invalid []string
}

// validate returns the slot value from p if it satisfies spec.
func (spec ParamSpec) validate(p params.Set) (any, bool) {
	if _, ok := p[spec.Name]; !ok {
		return nil, false
	}
	switch spec.Kind {
	case KindString:
		s, ok := p.GetString(spec.Name)
		s = strings.TrimSpace(s)
		if !ok || s == "" {
			return nil, false
		}
		if len(spec.Enum) > 0 && !inEnum(spec.Enum, s) {
			return nil, false
		}
		return s, true
	case KindInt:
		n, ok := p.GetInt(spec.Name)
		if !ok || !spec.inBounds(float64(n)) {
			return nil, false
		}
		return n, true
	case KindFloat:
		f, ok := p.GetFloat(spec.Name)
		if !ok || !spec.inBounds(f) {
			return nil, false
		}
		return f, true
	case KindBool:
		b, ok := p.GetBool(spec.Name)
		return b, ok
	case KindUserData:
		u, ok := p.UserData()
		if !ok || u.Empty() {
			return nil, false
		}
		return u, true
	case KindItems:
		items, ok := p.Items()
		if !ok || len(items) == 0 {
			return nil, false
		}
		for _, it := range items {
			if it.ProductID <= 0 || !spec.inBounds(float64(it.Quantity)) {
				return nil, false
			}
		}
		return append([]params.OrderLine(nil), items...), true
	case KindAddress:
		a, ok := p.Address()
		if !ok || strings.TrimSpace(a.Street) == "" {
			return nil, false
		}
		return a, true
	}
	return nil, false
}

func (spec ParamSpec) inBounds(v float64) bool {
	return !spec.Bounded || (v >= spec.Min && v <= spec.Max)
}

func inEnum(enum []string, s string) bool {
	for _, e := range enum {
		if strings.EqualFold(e, s) {
			return true
		}
	}
	return false
}

func buildPlan(h *handler, p params.Set, logger *slog.Logger) Plan {
	plan := Plan{Function: h.Function, Args: params.Set{}}
	for _, spec := range h.Params {
		v, ok := spec.validate(p)
		if !ok {
			if _, present := p[spec.Name]; present {
				plan.Invalid = append(plan.Invalid, spec.Name)
				logger.Debug("dropping invalid parameter", "function", h.Function, "param", spec.Name, "value", p[spec.Name])
			}
			switch {
			case spec.Default != nil:
				plan.Args[spec.Name] = spec.Default
			case spec.Required && plan.Missing == "":
				plan.Missing = spec.Name
			}
			continue
		}
		plan.Args[spec.Name] = v
	}
	return plan
}
