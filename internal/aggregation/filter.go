package aggregation

import (
	"fmt"
	"strings"

	"fertpulse/pkg/contracts/domain"
)

// MatchAll satisfies any exact-match constraint.
const MatchAll = "All"

// Predicate is a set of constraints combined with logical AND.
//
// Exact maps a field to the value it must equal, or MatchAll.
// Search maps a field to text it must contain, ignoring case; empty text
// always passes.
type Predicate struct {
	Exact  map[Field]string
	Search map[Field]string
}

// NewPredicate returns an empty predicate that every record passes.
func NewPredicate() Predicate {
	return Predicate{Exact: map[Field]string{}, Search: map[Field]string{}}
}

// Equal returns a copy of p with an exact-match constraint added.
func (p Predicate) Equal(f Field, value string) Predicate {
	p.Exact = with(p.Exact, f, value)
	return p
}

// Contains returns a copy of p with a substring search constraint added.
func (p Predicate) Contains(f Field, text string) Predicate {
	p.Search = with(p.Search, f, text)
	return p
}

func with(m map[Field]string, f Field, value string) map[Field]string {
	out := make(map[Field]string, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	out[f] = value
	return out
}

// Validate checks that every constrained field exists.
func (p Predicate) Validate() error {
	for f := range p.Exact {
		if !f.Valid() {
			return fmt.Errorf("%w: %q", ErrUnknownField, string(f))
		}
	}
	for f := range p.Search {
		if !f.Valid() {
			return fmt.Errorf("%w: %q", ErrUnknownField, string(f))
		}
	}
	return nil
}

// Matches reports whether r satisfies every constraint.
// A record missing a field fails an exact constraint on it unless the
// constraint is MatchAll, and searches it as "".
func (p Predicate) Matches(r domain.Record) bool {
	for f, want := range p.Exact {
		if want == MatchAll {
			continue
		}
		got, ok := lookup(r, f)
		if !ok || got != want {
			return false
		}
	}
	for f, text := range p.Search {
		if text == "" {
			continue
		}
		got, _ := lookup(r, f)
		if !strings.Contains(strings.ToLower(got), strings.ToLower(text)) {
			return false
		}
	}
	return true
}

// FilterRecords returns the records that satisfy p, in input order.
// The input slice is not modified.
func FilterRecords(records []domain.Record, p Predicate) []domain.Record {
	out := make([]domain.Record, 0, len(records))
	for _, r := range records {
		if p.Matches(r) {
			out = append(out, r)
		}
	}
	return out
}
