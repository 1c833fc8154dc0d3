package measure

import (
	"database/sql/driver"
	"math/big"
	"strings"

	apperrors "github.com/rechu/catalog/pkg/errors"
)

// GTIN is a global trade item number: a big-integer barcode identifier
// displayed without loss. No ecosystem barcode type in the retrieval
// pack fits a 13/14-digit decimal identifier, so this wraps the
// standard library's math/big.Int rather than adopting a 256-bit word
// type meant for blockchain addresses.
type GTIN struct {
	value *big.Int
}

// NewGTIN parses a decimal GTIN string (typically 13 or 14 digits).
func NewGTIN(s string) (GTIN, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return GTIN{}, apperrors.Validation("empty GTIN")
	}
	v, ok := new(big.Int).SetString(trimmed, 10)
	if !ok {
		return GTIN{}, apperrors.Validation("invalid GTIN: " + s)
	}
	if v.Sign() < 0 {
		return GTIN{}, apperrors.Validation("negative GTIN: " + s)
	}
	return GTIN{value: v}, nil
}

// MustGTIN panics on parse failure; for literal fixtures only.
func MustGTIN(s string) GTIN {
	g, err := NewGTIN(s)
	if err != nil {
		panic(err)
	}
	return g
}

func (g GTIN) String() string {
	if g.value == nil {
		return ""
	}
	return g.value.String()
}

func (g GTIN) IsZero() bool { return g.value == nil }

func (g GTIN) Equal(other GTIN) bool {
	if g.value == nil || other.value == nil {
		return g.value == other.value
	}
	return g.value.Cmp(other.value) == 0
}

func (g *GTIN) Scan(value any) error {
	if value == nil {
		g.value = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		parsed, err := NewGTIN(string(v))
		if err != nil {
			return err
		}
		*g = parsed
		return nil
	case string:
		parsed, err := NewGTIN(v)
		if err != nil {
			return err
		}
		*g = parsed
		return nil
	default:
		return apperrors.TypeConversion("unsupported GTIN scan source")
	}
}

func (g GTIN) Value() (driver.Value, error) {
	if g.value == nil {
		return nil, nil
	}
	return g.String(), nil
}

func (g GTIN) MarshalText() ([]byte, error) {
	return []byte(g.String()), nil
}

func (g *GTIN) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*g = GTIN{}
		return nil
	}
	parsed, err := NewGTIN(string(text))
	if err != nil {
		return err
	}
	*g = parsed
	return nil
}
