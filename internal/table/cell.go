package table

import (
	"math"
	"strconv"
	"strings"
)

type kind uint8

const (
	kindMissing kind = iota
	kindString
	kindFloat
)

// Cell is a single table value: text, a number, or missing.
// The zero Cell is missing.
type Cell struct {
	kind kind
	s    string
	f    float64
}

// Missing returns the missing-value sentinel.
func Missing() Cell { return Cell{} }

// Str returns a text cell. Empty text is treated as missing.
func Str(s string) Cell {
	if s == "" {
		return Missing()
	}
	return Cell{kind: kindString, s: s}
}

// Num returns a numeric cell. NaN is treated as missing.
func Num(f float64) Cell {
	if math.IsNaN(f) {
		return Missing()
	}
	return Cell{kind: kindFloat, f: f}
}

// IsMissing reports whether the cell holds no value.
func (c Cell) IsMissing() bool { return c.kind == kindMissing }

// Float returns the numeric value of the cell. Text cells are parsed; the
// boolean is false for missing cells and non-numeric text.
func (c Cell) Float() (float64, bool) {
	switch c.kind {
	case kindFloat:
		return c.f, true
	case kindString:
		f, err := strconv.ParseFloat(c.s, 64)
		return f, err == nil
	}
	return math.NaN(), false
}

// Format renders the cell for output, using naRep for missing values.
// Numbers use the shortest representation that round-trips.
func (c Cell) Format(naRep string) string {
	switch c.kind {
	case kindString:
		return c.s
	case kindFloat:
		if math.IsInf(c.f, 0) {
			if c.f > 0 {
				return "inf"
			}
			return "-inf"
		}
		return strconv.FormatFloat(c.f, 'f', -1, 64)
	}
	return naRep
}

// String implements fmt.Stringer. Missing cells render as "NaN".
func (c Cell) String() string { return c.Format("NaN") }

// compare orders two cells: missing sorts last, two numeric cells compare
// by value, anything else compares as text. Text that looks like a number
// still compares as text, so "10" sorts before "2".
func compare(a, b Cell) int {
	switch {
	case a.IsMissing() && b.IsMissing():
		return 0
	case a.IsMissing():
		return 1
	case b.IsMissing():
		return -1
	}

	if a.kind == kindFloat && b.kind == kindFloat {
		switch {
		case a.f < b.f:
			return -1
		case a.f > b.f:
			return 1
		}
		return 0
	}
	return strings.Compare(a.Format(""), b.Format(""))
}
