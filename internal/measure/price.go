package measure

import (
	"database/sql/driver"
	"fmt"

	"github.com/shopspring/decimal"

	apperrors "github.com/rechu/catalog/pkg/errors"
)

// priceScale is the number of fractional digits a Price is quantized to.
const priceScale = 2

// Price is a fixed-point decimal quantized to exactly two fractional
// digits. It mirrors original_source/rechu/models/base.py's Price
// quantize-on-construct behavior, implemented as a constructor with an
// explicit error return rather than a subclass.
type Price struct {
	value decimal.Decimal
}

// NewPrice constructs a Price from a string, int64, float64 or
// decimal.Decimal. It fails with a Validation error on unparseable or
// non-finite input.
func NewPrice(value any) (Price, error) {
	d, err := toDecimal(value)
	if err != nil {
		return Price{}, apperrors.Wrap(err, apperrors.ErrorTypeValidation, "invalid price")
	}
	return Price{value: d.Round(priceScale)}, nil
}

// MustPrice is NewPrice for callers constructing literal prices (tests,
// fixtures) that are confident the value is well-formed.
func MustPrice(value any) Price {
	p, err := NewPrice(value)
	if err != nil {
		panic(err)
	}
	return p
}

// ZeroPrice is the additive identity.
var ZeroPrice = Price{value: decimal.Zero}

func toDecimal(value any) (decimal.Decimal, error) {
	switch v := value.(type) {
	case decimal.Decimal:
		return v, nil
	case string:
		d, err := decimal.NewFromString(v)
		if err != nil {
			return decimal.Decimal{}, err
		}
		return d, nil
	case int:
		return decimal.NewFromInt(int64(v)), nil
	case int64:
		return decimal.NewFromInt(v), nil
	case float64:
		if v != v { // NaN
			return decimal.Decimal{}, fmt.Errorf("NaN is not a valid price")
		}
		return decimal.NewFromFloat(v), nil
	default:
		return decimal.Decimal{}, fmt.Errorf("unsupported price input type %T", value)
	}
}

func (p Price) Decimal() decimal.Decimal { return p.value }

func (p Price) String() string { return p.value.StringFixed(priceScale) }

func (p Price) Float64() float64 { f, _ := p.value.Float64(); return f }

func (p Price) Equal(other Price) bool { return p.value.Equal(other.value) }

func (p Price) Cmp(other Price) int { return p.value.Cmp(other.value) }

func (p Price) LessThan(other Price) bool    { return p.Cmp(other) < 0 }
func (p Price) LessOrEqual(other Price) bool { return p.Cmp(other) <= 0 }
func (p Price) GreaterThan(other Price) bool { return p.Cmp(other) > 0 }
func (p Price) GreaterOrEqual(other Price) bool { return p.Cmp(other) >= 0 }

func (p Price) IsZero() bool { return p.value.IsZero() }

// Add is closed under Price + Price.
func (p Price) Add(other Price) Price {
	return Price{value: p.value.Add(other.value).Round(priceScale)}
}

// Sub is closed under Price − Price.
func (p Price) Sub(other Price) Price {
	return Price{value: p.value.Sub(other.value).Round(priceScale)}
}

// Mul multiplies by a dimensionless scalar, staying a Price.
func (p Price) Mul(scalar decimal.Decimal) Price {
	return Price{value: p.value.Mul(scalar).Round(priceScale)}
}

// Div divides by a scalar and yields a plain Decimal, per §4.1.
func (p Price) Div(scalar decimal.Decimal) (decimal.Decimal, error) {
	if scalar.IsZero() {
		return decimal.Decimal{}, apperrors.Validation("division by zero")
	}
	return p.value.Div(scalar), nil
}

func (p Price) Neg() Price { return Price{value: p.value.Neg()} }

func (p Price) Abs() Price { return Price{value: p.value.Abs()} }

func (p Price) Round(places int32) Price {
	return Price{value: p.value.Round(places)}
}

// Scan implements sql.Scanner for bun/pgdriver decimal columns.
func (p *Price) Scan(value any) error {
	if value == nil {
		*p = ZeroPrice
		return nil
	}
	d, err := toDecimal(value)
	if err != nil {
		switch v := value.(type) {
		case []byte:
			parsed, perr := decimal.NewFromString(string(v))
			if perr != nil {
				return perr
			}
			d = parsed
		default:
			return err
		}
	}
	p.value = d.Round(priceScale)
	return nil
}

// Value implements driver.Valuer.
func (p Price) Value() (driver.Value, error) {
	return p.String(), nil
}

// MarshalText round-trips through decimal text for YAML/JSON encoding.
func (p Price) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Price) UnmarshalText(text []byte) error {
	parsed, err := NewPrice(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
