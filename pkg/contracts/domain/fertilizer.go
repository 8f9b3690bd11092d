package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Record is one row of the fertilizer dataset.
// JSON keys follow the published source dataset.
type Record struct {
	Year         *int     `json:"_year,omitempty"`
	Month        string   `json:"month,omitempty"`
	State        string   `json:"state,omitempty"`
	Product      string   `json:"product,omitempty"`
	Requirement  Quantity `json:"requirement_in_mt_"`
	Availability Quantity `json:"availability_in_mt_"`
	ID           RecordID `json:"id"`

	// RawYear keeps a year that arrived but was not a whole number.
	RawYear string `json:"-"`
}

// ParseYear reads a whole-number year from text. Surrounding spaces are
// ignored; anything else fails.
func ParseYear(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if y, err := strconv.Atoi(s); err == nil {
		return y, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}

// SetYear stores raw as the year, or in RawYear when it is not one.
// Blank text leaves the year absent.
func (r *Record) SetYear(raw string) {
	r.Year, r.RawYear = nil, ""
	if strings.TrimSpace(raw) == "" {
		return
	}
	if y, ok := ParseYear(raw); ok {
		r.Year = &y
		return
	}
	r.RawYear = raw
}

// UnmarshalJSON accepts the year as a number, text or null. A year that is
// not a whole number is kept in RawYear rather than failing the record.
func (r *Record) UnmarshalJSON(data []byte) error {
	type plain Record
	aux := struct {
		*plain
		Year json.RawMessage `json:"_year,omitempty"`
	}{plain: (*plain)(r)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	raw := bytes.TrimSpace(aux.Year)
	switch {
	case len(raw) == 0 || bytes.Equal(raw, []byte("null")):
		r.SetYear("")
	case raw[0] == '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return err
		}
		r.SetYear(s)
	default:
		r.SetYear(string(raw))
	}
	return nil
}

// YearString returns the year as text, or "" when absent.
func (r Record) YearString() string {
	if r.Year == nil {
		return ""
	}
	return strconv.Itoa(*r.Year)
}

// Quantity is a metric-ton amount kept as the text it arrived in.
// Present is false when the source field was missing or null.
type Quantity struct {
	Raw     string
	Present bool
}

// NewQuantity returns a present quantity holding raw.
func NewQuantity(raw string) Quantity {
	return Quantity{Raw: raw, Present: true}
}

var leadingNumber = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

// Value parses the longest leading decimal prefix of the raw text.
// Anything without one (empty, absent, "n/a") is 0; parsing never fails.
func (q Quantity) Value() float64 {
	v, _ := q.Parse()
	return v
}

// Parse is Value that also reports whether a number was found.
func (q Quantity) Parse() (float64, bool) {
	s := strings.TrimSpace(q.Raw)
	if s == "" {
		return 0, false
	}
	m := leadingNumber.FindString(s)
	if m == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

// MarshalJSON writes the raw text, or null when absent.
func (q Quantity) MarshalJSON() ([]byte, error) {
	if !q.Present {
		return []byte("null"), nil
	}
	return json.Marshal(q.Raw)
}

// UnmarshalJSON accepts a string, a number or null.
func (q *Quantity) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*q = Quantity{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*q = NewQuantity(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("quantity must be a string or number: %w", err)
	}
	*q = NewQuantity(n.String())
	return nil
}

// RecordID identifies a record. Source ids are numbers or strings.
type RecordID string

// UnmarshalJSON accepts a string or number id.
func (id *RecordID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = RecordID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*id = RecordID(n.String())
	return nil
}

// Numeric returns the id as a number when it is one.
func (id RecordID) Numeric() (float64, bool) {
	v, err := strconv.ParseFloat(string(id), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// AggregateRow is a summed view of the records sharing Key.
type AggregateRow struct {
	Key          string  `json:"key"`
	Requirement  float64 `json:"requirement"`
	Availability float64 `json:"availability"`
}

// NetBalance is availability minus requirement.
func (r AggregateRow) NetBalance() float64 {
	return r.Availability - r.Requirement
}

// MarshalJSON adds the derived net balance.
func (r AggregateRow) MarshalJSON() ([]byte, error) {
	type row AggregateRow
	return json.Marshal(struct {
		row
		NetBalance float64 `json:"net_balance"`
	}{row(r), r.NetBalance()})
}

// Balance is the derived balance of a requirement/availability pair.
type Balance struct {
	NetBalance      float64 `json:"net_balance"`
	FulfillmentRate float64 `json:"fulfillment_rate"`
}

// BalanceStatus classifies a net balance.
type BalanceStatus string

const (
	BalanceSurplus BalanceStatus = "surplus"
	BalanceDeficit BalanceStatus = "deficit"
)

// Status is surplus for a non-negative balance.
func (b Balance) Status() BalanceStatus {
	if b.NetBalance >= 0 {
		return BalanceSurplus
	}
	return BalanceDeficit
}

// KPIs summarises the whole dataset.
type KPIs struct {
	TotalRequirement  float64       `json:"total_requirement"`
	TotalAvailability float64       `json:"total_availability"`
	NetBalance        float64       `json:"net_balance"`
	FulfillmentRate   float64       `json:"fulfillment_rate"`
	Status            BalanceStatus `json:"status"`
	RecordCount       int           `json:"record_count"`
}
