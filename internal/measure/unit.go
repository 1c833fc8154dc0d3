// Package measure implements the fixed-scale value types shared by the
// catalog: Price, Quantity, Unit and GTIN.
package measure

import (
	"strings"

	"github.com/shopspring/decimal"

	apperrors "github.com/rechu/catalog/pkg/errors"
)

// Dimension is the physical quantity a Unit measures.
type Dimension int

const (
	// DimensionNone marks a dimensionless (count/scalar) unit.
	DimensionNone Dimension = iota
	DimensionMass
	DimensionVolume
)

func (d Dimension) String() string {
	switch d {
	case DimensionMass:
		return "mass"
	case DimensionVolume:
		return "volume"
	default:
		return "none"
	}
}

// Unit is a canonical dimension plus the factor that converts one unit of
// it into the dimension's base unit (grams for mass, millilitres for
// volume, pieces for count).
type Unit struct {
	Dimension Dimension
	Symbol    string
	factor    decimal.Decimal
}

// Zero is the dimensionless, factor-1 unit used for plain counts.
var Zero = Unit{Dimension: DimensionNone, Symbol: "", factor: decimal.NewFromInt(1)}

var unitTable = map[string]Unit{
	"g":         {DimensionMass, "g", decimal.NewFromInt(1)},
	"gram":      {DimensionMass, "g", decimal.NewFromInt(1)},
	"grams":     {DimensionMass, "g", decimal.NewFromInt(1)},
	"kg":        {DimensionMass, "kg", decimal.NewFromInt(1000)},
	"kilogram":  {DimensionMass, "kg", decimal.NewFromInt(1000)},
	"kilograms": {DimensionMass, "kg", decimal.NewFromInt(1000)},
	"ml":        {DimensionVolume, "ml", decimal.NewFromInt(1)},
	"millilitre": {DimensionVolume, "ml", decimal.NewFromInt(1)},
	"milliliter": {DimensionVolume, "ml", decimal.NewFromInt(1)},
	"l":         {DimensionVolume, "l", decimal.NewFromInt(1000)},
	"litre":     {DimensionVolume, "l", decimal.NewFromInt(1000)},
	"liter":     {DimensionVolume, "l", decimal.NewFromInt(1000)},
	"litres":    {DimensionVolume, "l", decimal.NewFromInt(1000)},
	"liters":    {DimensionVolume, "l", decimal.NewFromInt(1000)},
}

// ParseUnit resolves a unit name (as it appears in a price matcher
// indicator or a quantity's textual suffix) to its canonical Unit. An
// empty name resolves to the dimensionless Zero unit.
func ParseUnit(name string) (Unit, error) {
	trimmed := strings.ToLower(strings.TrimSpace(name))
	if trimmed == "" {
		return Zero, nil
	}
	if u, ok := unitTable[trimmed]; ok {
		return u, nil
	}
	return Unit{}, apperrors.Validation("unrecognized unit: " + name)
}

// Compatible reports whether two units share a dimension (dimensionless
// units are compatible with each other only).
func (u Unit) Compatible(other Unit) bool {
	return u.Dimension == other.Dimension
}

// Factor is the multiplier that converts a magnitude in u to the base
// unit of its dimension.
func (u Unit) Factor() decimal.Decimal {
	if u.factor.IsZero() {
		return decimal.NewFromInt(1)
	}
	return u.factor
}

func (u Unit) String() string {
	if u.Symbol == "" {
		return ""
	}
	return u.Symbol
}

// IsZero reports whether u is the dimensionless unit.
func (u Unit) IsZero() bool {
	return u.Dimension == DimensionNone
}
