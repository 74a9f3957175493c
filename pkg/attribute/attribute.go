// Package attribute holds the attribute definition attached to a material
// group and the rules that keep one consistent.
package attribute

import (
	"errors"
	"fmt"
	"sort"
	"unicode"

	"github.com/shopspring/decimal"
)

// Validation kinds an attribute value may be restricted to.
const (
	Alpha        = "alpha"
	Numeric      = "numeric"
	Alphanumeric = "alphanumeric"
)

// Spec describes one attribute of a material group.
type Spec struct {
	Values        []string `json:"values"`
	PrintPriority int      `json:"print_priority"`
	Validation    string   `json:"validation,omitempty"`
	Unit          string   `json:"unit,omitempty"`
	MaxLength     *int     `json:"max_length,omitempty"`
}

// Set maps attribute name to its spec.
type Set map[string]Spec

var (
	ErrUnitRequired   = errors.New("unit is required for numeric attributes")
	ErrUnitNotAllowed = errors.New("unit is only allowed for numeric attributes")
)

// Validate checks one spec.
func (s Spec) Validate() error {
	switch s.Validation {
	case "", Alpha, Numeric, Alphanumeric:
	default:
		return fmt.Errorf("unknown validation %q", s.Validation)
	}
	if s.Validation == Numeric && s.Unit == "" {
		return ErrUnitRequired
	}
	if s.Validation != Numeric && s.Unit != "" {
		return ErrUnitNotAllowed
	}
	if s.MaxLength != nil && *s.MaxLength <= 0 {
		return fmt.Errorf("max_length must be positive")
	}
	if s.PrintPriority < 0 {
		return fmt.Errorf("print_priority must not be negative")
	}
	for _, v := range s.Values {
		if err := s.checkValue(v); err != nil {
			return err
		}
	}
	return nil
}

func (s Spec) checkValue(v string) error {
	if s.MaxLength != nil && len([]rune(v)) > *s.MaxLength {
		return fmt.Errorf("value %q exceeds max_length %d", v, *s.MaxLength)
	}
	switch s.Validation {
	case Numeric:
		if _, err := decimal.NewFromString(v); err != nil {
			return fmt.Errorf("value %q is not numeric", v)
		}
	case Alpha:
		for _, r := range v {
			if !unicode.IsLetter(r) && !unicode.IsSpace(r) {
				return fmt.Errorf("value %q is not alphabetic", v)
			}
		}
	case Alphanumeric:
		for _, r := range v {
			if !unicode.IsLetter(r) && !unicode.IsDigit(r) && !unicode.IsSpace(r) {
				return fmt.Errorf("value %q is not alphanumeric", v)
			}
		}
	}
	return nil
}

// Validate checks every attribute of the set; errors name the attribute.
func (set Set) Validate() error {
	if len(set) == 0 {
		return errors.New("at least one attribute is required")
	}
	for _, name := range set.Names() {
		if name == "" {
			return errors.New("attribute name must not be empty")
		}
		if err := set[name].Validate(); err != nil {
			return fmt.Errorf("attribute %q: %w", name, err)
		}
	}
	return nil
}

// Names returns attribute names ordered by print priority, then name.
func (set Set) Names() []string {
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		pi, pj := set[names[i]].PrintPriority, set[names[j]].PrintPriority
		if pi != pj {
			return pi < pj
		}
		return names[i] < names[j]
	})
	return names
}
