package details

import "xdao.co/vdxf/wire"

// Rule is an explicit, named validation rule.
//
// ID must be stable across versions.
// Apply must be deterministic and side-effect free.
type Rule[T any] struct {
	ID    string
	Apply func(T) error
}

func (r Rule[T]) apply(v T) error {
	if r.Apply == nil {
		return wire.NewError(wire.KindInternal, "VDXF-INTERNAL-001", "nil rule Apply")
	}
	return r.Apply(v)
}

// ValidateRules runs rules in order, returning the first failure.
//
// Determinism note: rule order is the evaluation order; keep it stable.
func ValidateRules[T any](v T, rules []Rule[T]) error {
	for _, r := range rules {
		if err := r.apply(v); err != nil {
			return err
		}
	}
	return nil
}

// ValidateRulesAll runs all rules in order and returns every violation.
func ValidateRulesAll[T any](v T, rules []Rule[T]) []error {
	var out []error
	for _, r := range rules {
		if err := r.apply(v); err != nil {
			out = append(out, err)
		}
	}
	return out
}
