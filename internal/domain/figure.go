/**
 * @description
 * Figure is an optional monetary value: either Present(amount) or Absent.
 * The reconciliation layer never substitutes zero for a figure that was not
 * requested or not supplied, so formulas can surface "unavailable" instead of
 * silently computing with defaults.
 */

package domain

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Figure is an optional decimal amount. The zero value is Absent.
type Figure struct {
	value   decimal.Decimal
	present bool
}

// FigureOf returns a present Figure holding v.
func FigureOf(v decimal.Decimal) Figure {
	return Figure{value: v, present: true}
}

// FigureFromFloat is a convenience constructor for test fixtures and wire decoding.
func FigureFromFloat(v float64) Figure {
	return FigureOf(decimal.NewFromFloat(v))
}

// AbsentFigure returns the explicit "not supplied / not requested" marker.
func AbsentFigure() Figure {
	return Figure{}
}

// Present reports whether the figure carries a value.
func (f Figure) Present() bool { return f.present }

// Value returns the amount and whether it is present.
func (f Figure) Value() (decimal.Decimal, bool) {
	return f.value, f.present
}

// Decimal returns the amount, or decimal.Zero when absent. Use only where the
// caller has already checked Present; sums must go through Accumulate.
func (f Figure) Decimal() decimal.Decimal {
	return f.value
}

// Accumulate folds other into f for flow rollups: an absent operand leaves the
// accumulator unchanged, and a present operand makes the result present. This
// keeps "no day supplied this figure" distinct from "the figure summed to zero".
func (f Figure) Accumulate(other Figure) Figure {
	if !other.present {
		return f
	}
	if !f.present {
		return other
	}
	return Figure{value: f.value.Add(other.value), present: true}
}

// Sub returns f - other when both are present, Absent otherwise.
func (f Figure) Sub(other Figure) Figure {
	if !f.present || !other.present {
		return Figure{}
	}
	return Figure{value: f.value.Sub(other.value), present: true}
}

// Add returns f + other when both are present, Absent otherwise.
func (f Figure) Add(other Figure) Figure {
	if !f.present || !other.present {
		return Figure{}
	}
	return Figure{value: f.value.Add(other.value), present: true}
}

// Equal reports presence-aware equality. Two absent figures are equal.
func (f Figure) Equal(other Figure) bool {
	if f.present != other.present {
		return false
	}
	if !f.present {
		return true
	}
	return f.value.Equal(other.value)
}

// MarshalJSON encodes an absent figure as null, never as 0.
func (f Figure) MarshalJSON() ([]byte, error) {
	if !f.present {
		return []byte("null"), nil
	}
	return json.Marshal(f.value)
}

// UnmarshalJSON decodes null as Absent.
func (f *Figure) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = Figure{}
		return nil
	}
	var v decimal.Decimal
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = Figure{value: v, present: true}
	return nil
}

func (f Figure) String() string {
	if !f.present {
		return "(unavailable)"
	}
	return f.value.String()
}
