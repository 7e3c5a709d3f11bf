package model

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestGoalUnmarshal_LenientAmounts(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantTarget float64
		wantSaved  float64
	}{
		{"numbers", `{"targetAmount": 1000, "savedAmount": 250.5}`, 1000, 250.5},
		{"numeric strings", `{"targetAmount": "1,000", "savedAmount": "$20"}`, 1000, 20},
		{"null", `{"targetAmount": null, "savedAmount": null}`, 0, 0},
		{"absent", `{}`, 0, 0},
		{"garbage", `{"targetAmount": "lots", "savedAmount": true}`, 0, 0},
		{"object", `{"targetAmount": {"v": 1}, "savedAmount": [1]}`, 0, 0},
		{"nan string", `{"targetAmount": "NaN", "savedAmount": "Infinity"}`, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var g Goal
			if err := json.Unmarshal([]byte(tt.body), &g); err != nil {
				t.Fatalf("Unmarshal: %v", err)
			}
			if g.Target() != tt.wantTarget {
				t.Fatalf("Target() = %v, want %v", g.Target(), tt.wantTarget)
			}
			if g.Saved() != tt.wantSaved {
				t.Fatalf("Saved() = %v, want %v", g.Saved(), tt.wantSaved)
			}
		})
	}
}

func TestGoalUnmarshal_IDForms(t *testing.T) {
	for body, want := range map[string]ID{
		`{"id": "a1b2"}`: "a1b2",
		`{"id": 42}`:     "42",
		`{"id": null}`:   "",
	} {
		var g Goal
		if err := json.Unmarshal([]byte(body), &g); err != nil {
			t.Fatalf("Unmarshal(%s): %v", body, err)
		}
		if g.ID != want {
			t.Fatalf("ID from %s = %q, want %q", body, g.ID, want)
		}
	}
}

func TestGoalMarshal_IDAsString(t *testing.T) {
	g := Goal{ID: "7", Name: "Trip", TargetAmount: 100}
	raw, err := json.Marshal(g)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !strings.Contains(string(raw), `"id":"7"`) {
		t.Fatalf("Marshal = %s, want string id", raw)
	}
	if !strings.Contains(string(raw), `"targetAmount":100`) {
		t.Fatalf("Marshal = %s, want numeric targetAmount", raw)
	}
}

func TestPatchApply_DoesNotMutate(t *testing.T) {
	orig := Goal{ID: "1", Name: "Car", SavedAmount: 10, TargetAmount: 100}
	saved := Amount(60)
	p := Patch{SavedAmount: &saved}

	got := p.Apply(orig)
	if got.Saved() != 60 {
		t.Fatalf("patched Saved() = %v, want 60", got.Saved())
	}
	if orig.Saved() != 10 {
		t.Fatalf("original Saved() = %v, want 10 (mutated)", orig.Saved())
	}
	if got.Name != "Car" {
		t.Fatalf("patched Name = %q, want unchanged", got.Name)
	}
}

func TestPatchFrom_RoundTrip(t *testing.T) {
	g := Goal{ID: "9", Name: "Fund", Category: CategoryEmergency, TargetAmount: 500, SavedAmount: 5, Deadline: "2026-12-31", CreatedAt: "2026-01-01T00:00:00.000Z"}
	p := PatchFrom(g)
	if p.IsEmpty() {
		t.Fatal("PatchFrom returned empty patch")
	}
	if got := p.Apply(Goal{ID: g.ID, CreatedAt: g.CreatedAt}); got != g {
		t.Fatalf("Apply(PatchFrom(g)) = %+v, want %+v", got, g)
	}
}

func TestPatchFrom_OmitsIdentity(t *testing.T) {
	g := Goal{ID: "9", Name: "Fund", TargetAmount: 500, CreatedAt: "2026-01-01T00:00:00.000Z"}
	raw, err := json.Marshal(PatchFrom(g))
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if _, ok := fields["id"]; ok {
		t.Fatalf("patch JSON carries id: %s", raw)
	}
	if _, ok := fields["createdAt"]; ok {
		t.Fatalf("patch JSON carries createdAt: %s", raw)
	}
	if fields["name"] != "Fund" {
		t.Fatalf("patch JSON name = %v, want Fund", fields["name"])
	}
}

func TestDeadlineTime(t *testing.T) {
	tests := []struct {
		deadline string
		ok       bool
		want     string
	}{
		{"2026-03-01", true, "2026-03-01"},
		{"2026-03-01T00:00:00.000Z", true, "2026-03-01"},
		{"", false, ""},
		{"next spring", false, ""},
	}
	for _, tt := range tests {
		d, ok := Goal{Deadline: tt.deadline}.DeadlineTime()
		if ok != tt.ok {
			t.Fatalf("DeadlineTime(%q) ok = %v, want %v", tt.deadline, ok, tt.ok)
		}
		if ok && d.Format(DeadlineLayout) != tt.want {
			t.Fatalf("DeadlineTime(%q) = %s, want %s", tt.deadline, d.Format(DeadlineLayout), tt.want)
		}
	}
}

func TestParseCategory(t *testing.T) {
	c, err := ParseCategory("real estate")
	if err != nil {
		t.Fatalf("ParseCategory: %v", err)
	}
	if c != CategoryRealEstate {
		t.Fatalf("ParseCategory = %q, want %q", c, CategoryRealEstate)
	}

	_, err = ParseCategory("Travl")
	if !errors.Is(err, ErrUnknownCategory) {
		t.Fatalf("err = %v, want ErrUnknownCategory", err)
	}
	if !strings.Contains(err.Error(), `"Travel"`) {
		t.Fatalf("err = %v, want suggestion for Travel", err)
	}

	_, err = ParseCategory("zzzzzzzzzzzz")
	if !errors.Is(err, ErrUnknownCategory) {
		t.Fatalf("err = %v, want ErrUnknownCategory", err)
	}
	if strings.Contains(err.Error(), "did you mean") {
		t.Fatalf("err = %v, want no suggestion for distant input", err)
	}
}

func TestCategoryLabel(t *testing.T) {
	if got := Category("").Label(); got != "Uncategorized" {
		t.Fatalf("Label() = %q, want Uncategorized", got)
	}
	if got := Category("Pets").Label(); got != "Pets" {
		t.Fatalf("Label() = %q, want Pets", got)
	}
	if Category("Pets").Known() {
		t.Fatal("Pets reported as known")
	}
	if len(Categories) != 11 {
		t.Fatalf("len(Categories) = %d, want 11", len(Categories))
	}
}
