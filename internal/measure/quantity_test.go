package measure

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseQuantity(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		wantAmount string
		wantUnit   Dimension
	}{
		{name: "grams", text: "750g", wantAmount: "750", wantUnit: DimensionMass},
		{name: "kilograms with space", text: "0.5 kg", wantAmount: "0.5", wantUnit: DimensionMass},
		{name: "bare count", text: "2", wantAmount: "2", wantUnit: DimensionNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := ParseQuantity(tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.wantAmount, q.Amount.String())
			assert.Equal(t, tt.wantUnit, q.Unit.Dimension)
			assert.Equal(t, tt.text, q.Spelling())
		})
	}
}

func TestQuantity_EqualityNormalizesUnit(t *testing.T) {
	grams, err := ParseQuantity("1000g")
	require.NoError(t, err)
	kg, err := ParseQuantity("1kg")
	require.NoError(t, err)

	assert.True(t, grams.Equal(kg))
	assert.NotEqual(t, grams.Spelling(), kg.Spelling())
}

func TestQuantity_SpellingPreservedNotEquality(t *testing.T) {
	one, err := ParseQuantity("1")
	require.NoError(t, err)
	oneThousandth, err := ParseQuantity("1.000")
	require.NoError(t, err)

	assert.True(t, one.Equal(oneThousandth))
	assert.NotEqual(t, one.Spelling(), oneThousandth.Spelling())
}

func TestQuantity_AddRequiresCompatibility(t *testing.T) {
	grams, _ := ParseQuantity("500g")
	litres, _ := ParseQuantity("1l")

	_, err := grams.Add(litres)
	require.Error(t, err)

	more, err := grams.Add(grams)
	require.NoError(t, err)
	assert.True(t, more.Equal(MustQuantity("1000g")))
}

func TestQuantity_ZeroAndNegation(t *testing.T) {
	q := MustQuantity("5g")
	zero := ZeroQuantity(q.Unit)

	sum, err := q.Add(q.Neg())
	require.NoError(t, err)
	assert.True(t, sum.Equal(zero))
}

func TestQuantity_ScalarMulMatchesUnitPricedMatcher(t *testing.T) {
	// Scenario 4 from the spec: value=1.00/kg times 0.5kg == 0.50.
	item := MustQuantity("0.5kg")
	scaled := item.ScalarMul(decimal.NewFromFloat(1.00))

	price := MustPrice("0.50")
	eq, err := scaled.EqualScalar(price.Decimal())
	require.Error(t, err) // scaled keeps the kg dimension, not dimensionless
	_ = eq

	inKilograms, err := scaled.In(scaled.Unit)
	require.NoError(t, err)
	assert.True(t, inKilograms.Equal(price.Decimal()))
}

func TestQuantity_DivQuantityYieldsRatio(t *testing.T) {
	a := MustQuantity("1000g")
	b := MustQuantity("1kg")

	ratio, err := a.DivQuantity(b)
	require.NoError(t, err)
	assert.True(t, ratio.Equal(decimal.NewFromInt(1)))
}

func MustQuantity(text string) Quantity {
	q, err := ParseQuantity(text)
	if err != nil {
		panic(err)
	}
	return q
}
