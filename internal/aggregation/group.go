package aggregation

import (
	"strings"

	"fertpulse/pkg/contracts/domain"
)

// KeyFunc maps a record to its group identity.
type KeyFunc func(domain.Record) string

// ByField groups on the text form of a record column.
func ByField(f Field) KeyFunc {
	if !f.Valid() {
		panic("aggregation: ByField: " + ErrUnknownField.Error() + ": " + string(f))
	}
	return func(r domain.Record) string {
		return FieldValue(r, f)
	}
}

// Groups holds per-key sums in first-seen order.
type Groups struct {
	index map[string]int
	rows  []domain.AggregateRow

	// Invalid counts non-empty quantities that held no number and were
	// summed as 0.
	Invalid int
}

func newGroups() *Groups {
	return &Groups{index: make(map[string]int)}
}

func (g *Groups) add(key string, r domain.Record) {
	i, ok := g.index[key]
	if !ok {
		i = len(g.rows)
		g.index[key] = i
		g.rows = append(g.rows, domain.AggregateRow{Key: key})
	}
	g.rows[i].Requirement += g.quantity(r.Requirement)
	g.rows[i].Availability += g.quantity(r.Availability)
}

func (g *Groups) quantity(q domain.Quantity) float64 {
	v, ok := q.Parse()
	if !ok && strings.TrimSpace(q.Raw) != "" {
		g.Invalid++
	}
	return v
}

// Len is the number of groups.
func (g *Groups) Len() int {
	return len(g.rows)
}

// Keys returns the group keys in first-seen order.
func (g *Groups) Keys() []string {
	keys := make([]string, len(g.rows))
	for i, row := range g.rows {
		keys[i] = row.Key
	}
	return keys
}

// Get returns the sums for key.
func (g *Groups) Get(key string) (domain.AggregateRow, bool) {
	i, ok := g.index[key]
	if !ok {
		return domain.AggregateRow{}, false
	}
	return g.rows[i], true
}

// Rows returns a copy of the sums in first-seen order.
func (g *Groups) Rows() []domain.AggregateRow {
	out := make([]domain.AggregateRow, len(g.rows))
	copy(out, g.rows)
	return out
}

// GroupAndSum sums requirement and availability per key.
// Unparseable quantities contribute 0.
func GroupAndSum(records []domain.Record, key KeyFunc) *Groups {
	g := newGroups()
	for _, r := range records {
		g.add(key(r), r)
	}
	return g
}

// NestedGroup is one outer group with its inner sums.
type NestedGroup struct {
	Key  string                `json:"key"`
	Rows []domain.AggregateRow `json:"rows"`
}

// GroupNested sums per (outer, inner) pair. Outer groups and the rows
// inside each keep first-seen order.
func GroupNested(records []domain.Record, outer, inner KeyFunc) []NestedGroup {
	index := make(map[string]int)
	var groups []*Groups
	var keys []string
	for _, r := range records {
		ok := outer(r)
		i, seen := index[ok]
		if !seen {
			i = len(groups)
			index[ok] = i
			groups = append(groups, newGroups())
			keys = append(keys, ok)
		}
		groups[i].add(inner(r), r)
	}

	out := make([]NestedGroup, len(groups))
	for i, g := range groups {
		out[i] = NestedGroup{Key: keys[i], Rows: g.Rows()}
	}
	return out
}

// Totals sums every record into a single row with an empty key.
func Totals(records []domain.Record) domain.AggregateRow {
	g := newGroups()
	for _, r := range records {
		g.add("", r)
	}
	if row, ok := g.Get(""); ok {
		return row
	}
	return domain.AggregateRow{}
}
