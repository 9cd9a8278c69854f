package dice

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Definition describes a single die with a flat modifier.
type Definition struct {
	Sides    int `json:"sides" yaml:"sides"`
	Modifier int `json:"modifier" yaml:"modifier"`
}

// String renders the definition as 1dS, 1dS+M or 1dS-M.
func (d Definition) String() string {
	return "1d" + strconv.Itoa(d.Sides) + formatModifier(d.Modifier)
}

// Notation is a roll of Count dice sharing one definition, e.g. 3d6+2.
type Notation struct {
	Count    int `json:"count" yaml:"count"`
	Sides    int `json:"sides" yaml:"sides"`
	Modifier int `json:"modifier" yaml:"modifier"`
}

// String renders the notation as NdS with an optional modifier.
func (n Notation) String() string {
	return strconv.Itoa(n.Count) + "d" + strconv.Itoa(n.Sides) + formatModifier(n.Modifier)
}

func formatModifier(m int) string {
	switch {
	case m > 0:
		return "+" + strconv.Itoa(m)
	case m < 0:
		return strconv.Itoa(m)
	default:
		return ""
	}
}

// ErrInvalidNotation is returned by ParseNotation for malformed input.
var ErrInvalidNotation = errors.New("invalid dice notation")

var notationPattern = regexp.MustCompile(`^([0-9]*)d([0-9]+)(?:([+-])([0-9]+))?$`)

// ParseNotation parses NdS, dS, NdS+M and NdS-M. A missing count means one die.
func ParseNotation(s string) (Notation, error) {
	m := notationPattern.FindStringSubmatch(strings.ToLower(strings.TrimSpace(s)))
	if m == nil {
		return Notation{}, fmt.Errorf("%w: %q", ErrInvalidNotation, s)
	}

	n := Notation{Count: 1}
	var err error
	if m[1] != "" {
		if n.Count, err = strconv.Atoi(m[1]); err != nil {
			return Notation{}, fmt.Errorf("%w: %q: %v", ErrInvalidNotation, s, err)
		}
	}
	if n.Sides, err = strconv.Atoi(m[2]); err != nil {
		return Notation{}, fmt.Errorf("%w: %q: %v", ErrInvalidNotation, s, err)
	}
	if m[3] != "" {
		if n.Modifier, err = strconv.Atoi(m[4]); err != nil {
			return Notation{}, fmt.Errorf("%w: %q: %v", ErrInvalidNotation, s, err)
		}
		if m[3] == "-" {
			n.Modifier = -n.Modifier
		}
	}
	return n, nil
}

// Outcome is the result of rolling a Notation.
type Outcome struct {
	Notation Notation `json:"notation" yaml:"notation"`
	Faces    []int    `json:"faces" yaml:"faces"`
	Total    int      `json:"total" yaml:"total"`
}
