package model

import (
	"errors"
	"fmt"
	"strings"

	"github.com/agnivade/levenshtein"
)

// Category labels a goal. The backend does not enforce the fixed set, so
// unknown values received from it are kept as-is.
type Category string

// Known categories, in the order the goal form offers them.
const (
	CategoryTravel        Category = "Travel"
	CategoryEmergency     Category = "Emergency"
	CategoryElectronics   Category = "Electronics"
	CategoryRealEstate    Category = "Real Estate"
	CategoryVehicle       Category = "Vehicle"
	CategoryEducation     Category = "Education"
	CategoryShopping      Category = "Shopping"
	CategoryRetirement    Category = "Retirement"
	CategoryHome          Category = "Home"
	CategoryHealth        Category = "Health"
	CategoryEntertainment Category = "Entertainment"
)

// Categories is the fixed, ordered set of goal categories.
var Categories = []Category{
	CategoryTravel,
	CategoryEmergency,
	CategoryElectronics,
	CategoryRealEstate,
	CategoryVehicle,
	CategoryEducation,
	CategoryShopping,
	CategoryRetirement,
	CategoryHome,
	CategoryHealth,
	CategoryEntertainment,
}

// NoCategory is reported when there is nothing to pick a category from.
const NoCategory = "N/A"

// ErrUnknownCategory is returned by ParseCategory for values outside the fixed set.
var ErrUnknownCategory = errors.New("unknown category")

// Label returns the display name, substituting "Uncategorized" for an empty value.
func (c Category) Label() string {
	if strings.TrimSpace(string(c)) == "" {
		return "Uncategorized"
	}
	return string(c)
}

// Known reports whether c is one of the fixed categories.
func (c Category) Known() bool {
	for _, k := range Categories {
		if k == c {
			return true
		}
	}
	return false
}

// ParseCategory resolves user input to a known category, case-insensitively.
// On a miss the error wraps ErrUnknownCategory and names the closest match.
func ParseCategory(s string) (Category, error) {
	s = strings.TrimSpace(s)
	for _, k := range Categories {
		if strings.EqualFold(string(k), s) {
			return k, nil
		}
	}
	if s == "" {
		return "", fmt.Errorf("%w: empty", ErrUnknownCategory)
	}
	if near, ok := SuggestCategory(s); ok {
		return "", fmt.Errorf("%w %q (did you mean %q?)", ErrUnknownCategory, s, near)
	}
	return "", fmt.Errorf("%w %q", ErrUnknownCategory, s)
}

// SuggestCategory returns the known category closest to s by edit distance,
// if it is close enough to plausibly be a typo.
func SuggestCategory(s string) (Category, bool) {
	in := strings.ToLower(strings.TrimSpace(s))
	if in == "" {
		return "", false
	}

	best := Category("")
	bestDist := -1
	for _, k := range Categories {
		d := levenshtein.ComputeDistance(in, strings.ToLower(string(k)))
		if bestDist < 0 || d < bestDist {
			best, bestDist = k, d
		}
	}

	// Allow roughly one edit per three characters.
	limit := len(in)/3 + 1
	if bestDist > limit {
		return "", false
	}
	return best, true
}
