package model

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Form field names, matching the JSON attribute they populate.
const (
	FieldName     = "name"
	FieldTarget   = "targetAmount"
	FieldSaved    = "savedAmount"
	FieldCategory = "category"
	FieldDeadline = "deadline"
)

var fieldOrder = []string{FieldName, FieldTarget, FieldSaved, FieldCategory, FieldDeadline}

// FieldErrors maps a form field to its validation message.
type FieldErrors map[string]string

// Error implements error. Messages are joined in form order.
func (fe FieldErrors) Error() string {
	msgs := make([]string, 0, len(fe))
	for _, f := range fieldOrder {
		if m, ok := fe[f]; ok {
			msgs = append(msgs, m)
		}
	}
	// Anything not in the form order goes last, sorted for stable output.
	var extra []string
	for f, m := range fe {
		if !knownField(f) {
			extra = append(extra, m)
		}
	}
	sort.Strings(extra)
	msgs = append(msgs, extra...)
	return strings.Join(msgs, " ")
}

func knownField(f string) bool {
	for _, k := range fieldOrder {
		if k == f {
			return true
		}
	}
	return false
}

// GoalInput holds the raw strings of the create/edit form.
type GoalInput struct {
	Name     string
	Target   string
	Saved    string
	Category string
	Deadline string
}

// Validate checks every field and returns nil when the input can be submitted.
func (in GoalInput) Validate() FieldErrors {
	errs := FieldErrors{}

	if strings.TrimSpace(in.Name) == "" {
		errs[FieldName] = "Name is required."
	}

	if v, ok := parseNumber(in.Target); !ok || v <= 0 {
		errs[FieldTarget] = "Target amount must be a positive number."
	}

	if strings.TrimSpace(in.Saved) != "" {
		if v, ok := parseNumber(in.Saved); !ok || v < 0 {
			errs[FieldSaved] = "Saved amount must be 0 or more."
		}
	}

	switch c := strings.TrimSpace(in.Category); {
	case c == "":
		errs[FieldCategory] = "Category is required."
	case !Category(c).Known():
		errs[FieldCategory] = "Unknown category."
	}

	switch d := strings.TrimSpace(in.Deadline); {
	case d == "":
		errs[FieldDeadline] = "Deadline is required."
	default:
		if _, err := time.Parse(DeadlineLayout, d); err != nil {
			errs[FieldDeadline] = "Deadline must be a date (YYYY-MM-DD)."
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

// Draft converts validated input into a create payload. An empty saved
// amount becomes 0. Callers must run Validate first.
func (in GoalInput) Draft() Draft {
	saved, _ := parseNumber(in.Saved)
	target, _ := parseNumber(in.Target)
	return Draft{
		Name:         strings.TrimSpace(in.Name),
		TargetAmount: Amount(target),
		SavedAmount:  Amount(saved),
		Category:     Category(strings.TrimSpace(in.Category)),
		Deadline:     strings.TrimSpace(in.Deadline),
	}
}

// Apply merges validated input over an existing goal, keeping its ID and CreatedAt.
func (in GoalInput) Apply(g Goal) Goal {
	d := in.Draft()
	g.Name = d.Name
	g.TargetAmount = d.TargetAmount
	g.SavedAmount = d.SavedAmount
	g.Category = d.Category
	g.Deadline = d.Deadline
	return g
}

// InputFromGoal pre-fills the edit form from an existing goal.
func InputFromGoal(g Goal) GoalInput {
	deadline := g.Deadline
	if t, ok := g.DeadlineTime(); ok {
		deadline = t.Format(DeadlineLayout)
	}
	return GoalInput{
		Name:     g.Name,
		Target:   formatNumber(g.Target()),
		Saved:    formatNumber(g.Saved()),
		Category: string(g.Category),
		Deadline: deadline,
	}
}

// parseNumber is strict: unlike Amount decoding, garbage is an error here.
func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
