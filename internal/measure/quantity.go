package measure

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	apperrors "github.com/rechu/catalog/pkg/errors"
)

// Quantity is a dimensional decimal magnitude with an optional normalized
// unit. The original textual spelling ("750g", "0.5 kg", "2") is kept for
// round-trip serialization only; it never participates in equality.
type Quantity struct {
	Amount   decimal.Decimal
	Unit     Unit
	spelling string
}

var quantityPattern = regexp.MustCompile(`^\s*([0-9]+(?:\.[0-9]+)?)\s*([a-zA-Z]*)\s*$`)

// ParseQuantity splits a textual magnitude + optional unit suffix, e.g.
// "750g", "0.5 kg", "2", matching rechu's quantity parsing.
func ParseQuantity(text string) (Quantity, error) {
	matches := quantityPattern.FindStringSubmatch(text)
	if matches == nil {
		return Quantity{}, apperrors.TypeConversion("cannot parse quantity: " + text)
	}
	amount, err := decimal.NewFromString(matches[1])
	if err != nil {
		return Quantity{}, apperrors.Wrap(err, apperrors.ErrorTypeTypeConversion, "cannot parse quantity amount")
	}
	unit, err := ParseUnit(matches[2])
	if err != nil {
		return Quantity{}, apperrors.Wrap(err, apperrors.ErrorTypeTypeConversion, "cannot parse quantity unit")
	}
	return Quantity{Amount: amount, Unit: unit, spelling: strings.TrimSpace(text)}, nil
}

// NewQuantity builds a Quantity from an amount and a resolved unit,
// recording the canonical decimal string as its spelling.
func NewQuantity(amount decimal.Decimal, unit Unit) Quantity {
	return Quantity{Amount: amount, Unit: unit, spelling: amount.String() + unit.String()}
}

// ZeroQuantity returns the additive identity in the given unit.
func ZeroQuantity(unit Unit) Quantity {
	return NewQuantity(decimal.Zero, unit)
}

// Spelling is the original textual form, preserved for serialization.
func (q Quantity) Spelling() string {
	if q.spelling != "" {
		return q.spelling
	}
	return q.Amount.String() + q.Unit.String()
}

func (q Quantity) String() string { return q.Spelling() }

func (q Quantity) IsDimensionless() bool { return q.Unit.IsZero() }

// baseAmount converts Amount into the base unit of q's dimension, used for
// equality and comparison regardless of the literal unit used to express it.
func (q Quantity) baseAmount() decimal.Decimal {
	return q.Amount.Mul(q.Unit.Factor())
}

// Equal respects unit normalization: 1000 g == 1 kg. A dimensionless
// Quantity is additionally comparable to a plain number via EqualScalar.
func (q Quantity) Equal(other Quantity) bool {
	if q.Unit.Dimension != other.Unit.Dimension {
		return false
	}
	return q.baseAmount().Equal(other.baseAmount())
}

// EqualScalar compares a dimensionless Quantity to a plain decimal.
func (q Quantity) EqualScalar(n decimal.Decimal) (bool, error) {
	if !q.IsDimensionless() {
		return false, apperrors.IncompatibleUnits("quantity is not dimensionless")
	}
	return q.Amount.Equal(n), nil
}

func (q Quantity) Cmp(other Quantity) (int, error) {
	if q.Unit.Dimension != other.Unit.Dimension {
		return 0, apperrors.IncompatibleUnits("incompatible quantity dimensions")
	}
	return q.baseAmount().Cmp(other.baseAmount()), nil
}

// Add requires unit compatibility or both dimensionless. The result is
// expressed in self's unit.
func (q Quantity) Add(other Quantity) (Quantity, error) {
	if !q.Unit.Compatible(other.Unit) {
		return Quantity{}, apperrors.IncompatibleUnits("cannot add incompatible quantities")
	}
	otherInSelfUnit := other.baseAmount().Div(q.Unit.Factor())
	return NewQuantity(q.Amount.Add(otherInSelfUnit), q.Unit), nil
}

func (q Quantity) Sub(other Quantity) (Quantity, error) {
	return q.Add(other.Neg())
}

func (q Quantity) Neg() Quantity {
	return NewQuantity(q.Amount.Neg(), q.Unit)
}

func (q Quantity) Abs() Quantity {
	return NewQuantity(q.Amount.Abs(), q.Unit)
}

// ScalarMul multiplies by a dimensionless scalar, preserving the unit.
func (q Quantity) ScalarMul(k decimal.Decimal) Quantity {
	return NewQuantity(q.Amount.Mul(k), q.Unit)
}

// Mul composes two quantities. When one operand is dimensionless, the
// result keeps the other's dimension scaled by the dimensionless amount.
// Composing two independently-dimensioned quantities (e.g. mass × volume)
// is not needed by any matcher or merge operation in this catalog and is
// rejected as IncompatibleUnits rather than modeled as a derived unit.
func (q Quantity) Mul(other Quantity) (Quantity, error) {
	switch {
	case q.IsDimensionless():
		return other.ScalarMul(q.Amount), nil
	case other.IsDimensionless():
		return q.ScalarMul(other.Amount), nil
	default:
		return Quantity{}, apperrors.IncompatibleUnits("cannot compose two dimensioned quantities")
	}
}

// DivScalar divides by a scalar, preserving the unit; DivQuantity
// divides by a same-dimension Quantity to yield a pure ratio (plain
// Decimal), per §4.1.
func (q Quantity) DivScalar(k decimal.Decimal) (Quantity, error) {
	if k.IsZero() {
		return Quantity{}, apperrors.Validation("division by zero")
	}
	return NewQuantity(q.Amount.Div(k), q.Unit), nil
}

func (q Quantity) DivQuantity(other Quantity) (decimal.Decimal, error) {
	if q.Unit.Dimension != other.Unit.Dimension {
		return decimal.Decimal{}, apperrors.IncompatibleUnits("cannot divide incompatible quantities")
	}
	if other.baseAmount().IsZero() {
		return decimal.Decimal{}, apperrors.Validation("division by zero")
	}
	return q.baseAmount().Div(other.baseAmount()), nil
}

func (q Quantity) Round(places int32) Quantity {
	return NewQuantity(q.Amount.Round(places), q.Unit)
}

// In converts q's magnitude into the target unit, failing if the
// dimensions differ.
func (q Quantity) In(target Unit) (decimal.Decimal, error) {
	if q.Unit.Dimension != target.Dimension {
		return decimal.Decimal{}, apperrors.IncompatibleUnits("cannot convert between incompatible units")
	}
	return q.baseAmount().Div(target.Factor()), nil
}

func (q Quantity) MarshalText() ([]byte, error) {
	return []byte(q.Spelling()), nil
}

func (q *Quantity) UnmarshalText(text []byte) error {
	parsed, err := ParseQuantity(string(text))
	if err != nil {
		return err
	}
	*q = parsed
	return nil
}
