package filter

import (
	"fmt"
	"strings"
)

// Borough is one of the five top-level administrative regions.
type Borough string

const (
	Manhattan    Borough = "Manhattan"
	Brooklyn     Borough = "Brooklyn"
	Queens       Borough = "Queens"
	Bronx        Borough = "Bronx"
	StatenIsland Borough = "Staten Island"
)

// AllBoroughs lists the boroughs in their canonical order.
var AllBoroughs = []Borough{Manhattan, Brooklyn, Queens, Bronx, StatenIsland}

// ParseBorough resolves a borough name case-insensitively.
func ParseBorough(name string) (Borough, error) {
	for _, b := range AllBoroughs {
		if strings.EqualFold(string(b), strings.TrimSpace(name)) {
			return b, nil
		}
	}
	return "", fmt.Errorf("unknown borough %q", name)
}

// BoroughSet is a value-typed set of boroughs.
type BoroughSet uint8

// FullBoroughSet contains every borough.
const FullBoroughSet BoroughSet = 1<<5 - 1

func bit(b Borough) BoroughSet {
	for i, c := range AllBoroughs {
		if c == b {
			return 1 << i
		}
	}
	return 0
}

// NewBoroughSet builds a set from the given boroughs; unknown names are ignored.
func NewBoroughSet(bs ...Borough) BoroughSet {
	var s BoroughSet
	for _, b := range bs {
		s |= bit(b)
	}
	return s
}

// Has reports whether b is in the set.
func (s BoroughSet) Has(b Borough) bool {
	m := bit(b)
	return m != 0 && s&m != 0
}

// HasName is Has for raw names as they appear in API payloads.
func (s BoroughSet) HasName(name string) bool {
	return s.Has(Borough(strings.TrimSpace(name)))
}

func (s BoroughSet) with(b Borough) BoroughSet    { return s | bit(b) }
func (s BoroughSet) without(b Borough) BoroughSet { return s &^ bit(b) }

// Len returns the number of boroughs in the set.
func (s BoroughSet) Len() int {
	n := 0
	for _, b := range AllBoroughs {
		if s.Has(b) {
			n++
		}
	}
	return n
}

// List returns the members in canonical order.
func (s BoroughSet) List() []Borough {
	out := make([]Borough, 0, len(AllBoroughs))
	for _, b := range AllBoroughs {
		if s.Has(b) {
			out = append(out, b)
		}
	}
	return out
}

// Partial reports whether the set narrows the selection (non-empty proper subset).
func (s BoroughSet) Partial() bool {
	n := s.Len()
	return n > 0 && n < len(AllBoroughs)
}

// Names returns the members joined for display ("Manhattan, Queens").
func (s BoroughSet) Names() string {
	parts := make([]string, 0, len(AllBoroughs))
	for _, b := range s.List() {
		parts = append(parts, string(b))
	}
	return strings.Join(parts, ", ")
}
