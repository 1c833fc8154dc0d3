package models

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/uptrace/bun"

	"github.com/rechu/catalog/internal/measure"
	apperrors "github.com/rechu/catalog/pkg/errors"
)

// Matcher is the closed tagged-variant interface implementing Design
// Note "Dynamic matcher dispatch": three concrete structs instead of the
// source's name-discovered subclasses. matcherKind is unexported so the
// set of implementations is closed to this package.
type Matcher interface {
	matcherKind() string
	Key() string
}

// Price matcher indicator constants. Any other non-empty indicator value
// is either a 4-digit year or a unit name, distinguished by IsYear/IsUnit.
const (
	IndicatorMinimum = "minimum"
	IndicatorMaximum = "maximum"
)

// LabelMatch matches a receipt item's free-text label, either literally
// or as an anchored regular expression when the pattern looks like one.
type LabelMatch struct {
	bun.BaseModel `bun:"table:product_label_matches,alias:lm"`

	ID        int64  `bun:"id,pk,autoincrement" json:"-"`
	ProductID int64  `bun:"product_id,notnull" json:"-"`
	Position  int    `bun:"position,notnull" json:"-"`
	Pattern   string `bun:"pattern,notnull" json:"pattern"`
}

func (LabelMatch) matcherKind() string { return "label" }

func (m LabelMatch) Key() string { return m.Pattern }

var regexMetaChars = regexp.MustCompile(`[.*+?^${}()|\[\]\\]`)

// looksLikePattern heuristically distinguishes a literal label from a
// regular expression, per §3's "or, if the string looks like a pattern,
// a regular expression."
func looksLikePattern(s string) bool {
	return regexMetaChars.MatchString(s)
}

// Matches reports whether label satisfies this matcher: literal equality
// or an anchored regex match.
func (m LabelMatch) Matches(label string) bool {
	if !looksLikePattern(m.Pattern) {
		return m.Pattern == label
	}
	re, err := regexp.Compile(`^(?:` + m.Pattern + `)$`)
	if err != nil {
		return false
	}
	return re.MatchString(label)
}

// PriceMatch matches a receipt item's price against a candidate value,
// optionally scaled by a minimum/maximum band, a year, or a unit.
type PriceMatch struct {
	bun.BaseModel `bun:"table:product_price_matches,alias:pm"`

	ID        int64         `bun:"id,pk,autoincrement" json:"-"`
	ProductID int64         `bun:"product_id,notnull" json:"-"`
	Position  int           `bun:"position,notnull" json:"-"`
	Value     measure.Price `bun:"value,notnull" json:"value"`
	Indicator string        `bun:"indicator" json:"indicator,omitempty"`
}

func (PriceMatch) matcherKind() string { return "price" }

func (m PriceMatch) Key() string {
	return m.Indicator + "|" + m.Value.String()
}

// IsYear reports whether Indicator is a 4-digit year.
func (m PriceMatch) IsYear() (int, bool) {
	if len(m.Indicator) != 4 {
		return 0, false
	}
	year, err := strconv.Atoi(m.Indicator)
	if err != nil {
		return 0, false
	}
	return year, true
}

// IsUnit reports whether Indicator names a physical unit.
func (m PriceMatch) IsUnit() (measure.Unit, bool) {
	if m.Indicator == "" || m.Indicator == IndicatorMinimum || m.Indicator == IndicatorMaximum {
		return measure.Unit{}, false
	}
	if _, isYear := m.IsYear(); isYear {
		return measure.Unit{}, false
	}
	unit, err := measure.ParseUnit(m.Indicator)
	if err != nil {
		return measure.Unit{}, false
	}
	return unit, true
}

// validateYear enforces that a year indicator is not later than the
// current year, per §4.2's merge validation rule. Only mergePrices calls
// it, so a PriceMatch built directly is not checked.
func (m PriceMatch) validateYear(now time.Time) error {
	year, ok := m.IsYear()
	if !ok {
		return nil
	}
	if year > now.Year() {
		return apperrors.Validation("price matcher year indicator is in the future")
	}
	return nil
}

// DiscountMatch matches against a receipt-level discount's label,
// literal or pattern, analogous to LabelMatch.
type DiscountMatch struct {
	bun.BaseModel `bun:"table:product_discount_matches,alias:dm"`

	ID        int64  `bun:"id,pk,autoincrement" json:"-"`
	ProductID int64  `bun:"product_id,notnull" json:"-"`
	Position  int    `bun:"position,notnull" json:"-"`
	Pattern   string `bun:"pattern,notnull" json:"pattern"`
}

func (DiscountMatch) matcherKind() string { return "discount" }

func (m DiscountMatch) Key() string { return m.Pattern }

func (m DiscountMatch) Matches(label string) bool {
	if !looksLikePattern(m.Pattern) {
		return m.Pattern == label
	}
	re, err := regexp.Compile(`^(?:` + m.Pattern + `)$`)
	if err != nil {
		return false
	}
	return re.MatchString(label)
}

// sortedKeys returns the Key() of each matcher in the slice, sorted,
// used to build the matcher-identity tuple for duplicate detection.
func sortedKeys[M Matcher](matchers []M) []string {
	keys := make([]string, len(matchers))
	for i, m := range matchers {
		keys[i] = m.Key()
	}
	sort.Strings(keys)
	return keys
}

func joinKeys(keys []string) string {
	return strings.Join(keys, "\x1f")
}
