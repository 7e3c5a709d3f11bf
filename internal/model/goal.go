// Package model defines domain types for savings goals and their derived statistics.
package model

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// CreatedAtLayout matches the ISO-8601 form browsers emit (millisecond precision, Z suffix).
const CreatedAtLayout = "2006-01-02T15:04:05.000Z07:00"

// DeadlineLayout is the calendar date form used by the goal form.
const DeadlineLayout = "2006-01-02"

// Goal is one savings goal as stored by the backend.
type Goal struct {
	ID           ID       `json:"id"`
	Name         string   `json:"name"`
	Category     Category `json:"category"`
	TargetAmount Amount   `json:"targetAmount"`
	SavedAmount  Amount   `json:"savedAmount"`
	Deadline     string   `json:"deadline"`
	CreatedAt    string   `json:"createdAt,omitempty"`
}

// Saved returns the saved amount as a plain float.
func (g Goal) Saved() float64 { return g.SavedAmount.Float() }

// Target returns the target amount as a plain float.
func (g Goal) Target() float64 { return g.TargetAmount.Float() }

// DeadlineTime parses the deadline as a calendar date.
// Returns false when the deadline is empty or not a date.
func (g Goal) DeadlineTime() (time.Time, bool) {
	s := strings.TrimSpace(g.Deadline)
	if s == "" {
		return time.Time{}, false
	}
	// Some backends echo full timestamps; accept them too.
	if len(s) > len(DeadlineLayout) {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			return t, true
		}
		s = s[:len(DeadlineLayout)]
	}
	t, err := time.ParseInLocation(DeadlineLayout, s, time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Amount is a monetary value decoded defensively from JSON.
// Numbers, numeric strings, null and anything unparseable are accepted;
// the unparseable cases decode to 0.
type Amount float64

// Float returns the amount, mapping NaN and infinities to 0.
func (a Amount) Float() float64 {
	f := float64(a)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// UnmarshalJSON implements json.Unmarshaler.
func (a *Amount) UnmarshalJSON(raw []byte) error {
	*a = Amount(parseAmount(raw))
	return nil
}

// MarshalJSON implements json.Marshaler. Non-finite values encode as 0.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatFloat(a.Float(), 'f', -1, 64)), nil
}

// parseAmount handles the polymorphic amount field: 1200, 1200.5, "1200", "1,200.50", null.
func parseAmount(raw []byte) float64 {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0
	}

	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return finite(f)
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return ParseAmountString(s)
	}

	return 0
}

// ParseAmountString parses a user- or backend-supplied amount string.
// Thousands separators and a leading "$" are tolerated. Returns 0 if unparseable.
func ParseAmountString(s string) float64 {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return finite(v)
}

func finite(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// ID is the backend-assigned goal identifier. The backend may send it as a
// JSON string or number; it is always handled as an opaque string.
type ID string

// String implements fmt.Stringer.
func (id ID) String() string { return string(id) }

// UnmarshalJSON implements json.Unmarshaler.
func (id *ID) UnmarshalJSON(raw []byte) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		*id = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}

// Draft is the payload for creating a goal. The backend assigns the ID.
type Draft struct {
	Name         string   `json:"name"`
	TargetAmount Amount   `json:"targetAmount"`
	SavedAmount  Amount   `json:"savedAmount"`
	Category     Category `json:"category"`
	Deadline     string   `json:"deadline"`
}

// Patch is a partial goal update. Nil fields are left unchanged.
type Patch struct {
	Name         *string   `json:"name,omitempty"`
	TargetAmount *Amount   `json:"targetAmount,omitempty"`
	SavedAmount  *Amount   `json:"savedAmount,omitempty"`
	Category     *Category `json:"category,omitempty"`
	Deadline     *string   `json:"deadline,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.Name == nil && p.TargetAmount == nil && p.SavedAmount == nil &&
		p.Category == nil && p.Deadline == nil
}

// Apply returns a copy of g with the patch's non-nil fields applied.
func (p Patch) Apply(g Goal) Goal {
	if p.Name != nil {
		g.Name = *p.Name
	}
	if p.TargetAmount != nil {
		g.TargetAmount = *p.TargetAmount
	}
	if p.SavedAmount != nil {
		g.SavedAmount = *p.SavedAmount
	}
	if p.Category != nil {
		g.Category = *p.Category
	}
	if p.Deadline != nil {
		g.Deadline = *p.Deadline
	}
	return g
}

// PatchFrom builds a patch carrying every editable field of g. The ID and
// creation stamp belong to the backend and are never sent.
func PatchFrom(g Goal) Patch {
	return Patch{
		Name:         &g.Name,
		TargetAmount: &g.TargetAmount,
		SavedAmount:  &g.SavedAmount,
		Category:     &g.Category,
		Deadline:     &g.Deadline,
	}
}
