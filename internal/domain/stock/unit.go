package stock

import (
	"github.com/farmstock/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// MassUnit is a unit of mass for stock quantities. Every entry stores
// quantities in one canonical unit; callers may pass amounts in any
// compatible unit and they are converted before recording.
type MassUnit string

const (
	// UnitGram is the default canonical unit
	UnitGram MassUnit = "g"
	// UnitKilogram is 1000 grams
	UnitKilogram MassUnit = "kg"
	// UnitOunce is the avoirdupois ounce, exactly 28.349523125 grams
	UnitOunce MassUnit = "oz"
	// UnitPound is the avoirdupois pound, exactly 453.59237 grams
	UnitPound MassUnit = "lb"
)

// gramsPer holds the exact conversion factor of each unit to grams.
// These are definitional constants, not measurements.
var gramsPer = map[MassUnit]decimal.Decimal{
	UnitGram:     decimal.NewFromInt(1),
	UnitKilogram: decimal.NewFromInt(1000),
	UnitOunce:    decimal.RequireFromString("28.349523125"),
	UnitPound:    decimal.RequireFromString("453.59237"),
}

// String returns the unit symbol
func (u MassUnit) String() string {
	return string(u)
}

// IsValid returns true if the unit has a defined conversion
func (u MassUnit) IsValid() bool {
	_, ok := gramsPer[u]
	return ok
}

// AllMassUnits returns every unit with a defined conversion
func AllMassUnits() []MassUnit {
	return []MassUnit{UnitGram, UnitKilogram, UnitOunce, UnitPound}
}

// ConvertMass converts an amount between mass units. Unknown units are
// rejected before any ledger write can happen.
func ConvertMass(amount decimal.Decimal, from, to MassUnit) (decimal.Decimal, error) {
	fromFactor, ok := gramsPer[from]
	if !ok {
		return decimal.Zero, shared.NewDomainError("UNIT_CONVERSION", "No conversion defined for unit: "+string(from))
	}
	toFactor, ok := gramsPer[to]
	if !ok {
		return decimal.Zero, shared.NewDomainError("UNIT_CONVERSION", "No conversion defined for unit: "+string(to))
	}
	if from == to {
		return amount, nil
	}
	return amount.Mul(fromFactor).Div(toFactor), nil
}
