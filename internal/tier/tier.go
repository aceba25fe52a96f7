package tier

import (
	"fmt"
	"strings"
)

// Tier is a discrete complexity band used to pick a backend set.
// Tiers are ordered: a higher value means a harder task.
type Tier int

const (
	Simple Tier = iota
	Moderate
	Complex
	Advanced
	Critical
)

// Lowest is the tier used when a lookup has nothing better to offer.
const Lowest = Simple

var names = [...]string{
	Simple:   "simple",
	Moderate: "moderate",
	Complex:  "complex",
	Advanced: "advanced",
	Critical: "critical",
}

// upper bounds are inclusive; Critical covers everything above Advanced.
var upperBounds = [...]float64{
	Simple:   3,
	Moderate: 5,
	Complex:  7,
	Advanced: 9,
	Critical: 10,
}

// All returns every tier from lowest to highest.
func All() []Tier {
	return []Tier{Simple, Moderate, Complex, Advanced, Critical}
}

// Valid reports whether t is one of the declared tiers.
func (t Tier) Valid() bool {
	return t >= Simple && t <= Critical
}

func (t Tier) String() string {
	if !t.Valid() {
		return fmt.Sprintf("Tier(%d)", int(t))
	}
	return names[t]
}

// UpperBound returns the inclusive score threshold of the tier.
func (t Tier) UpperBound() float64 {
	if !t.Valid() {
		return 0
	}
	return upperBounds[t]
}

// FromScore maps a complexity score onto exactly one tier.
func FromScore(score float64) Tier {
	switch {
	case score <= upperBounds[Simple]:
		return Simple
	case score <= upperBounds[Moderate]:
		return Moderate
	case score <= upperBounds[Complex]:
		return Complex
	case score <= upperBounds[Advanced]:
		return Advanced
	default:
		return Critical
	}
}

// Parse resolves a tier by name (case-insensitive).
func Parse(s string) (Tier, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for i, n := range names {
		if n == key {
			return Tier(i), nil
		}
	}
	return Simple, fmt.Errorf("unknown tier %q", s)
}

// MarshalText encodes the tier as its name.
func (t Tier) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("invalid tier %d", int(t))
	}
	return []byte(names[t]), nil
}

// UnmarshalText decodes a tier name.
func (t *Tier) UnmarshalText(b []byte) error {
	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
