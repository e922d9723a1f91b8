// Package format renders amounts and exchange rates for a fixed locale.
package format

import (
	"fmt"
	"strings"

	"github.com/iwvelando/pfa-tax-calculator/pkg/apperrors"
	"github.com/iwvelando/pfa-tax-calculator/pkg/constants"
	"github.com/iwvelando/pfa-tax-calculator/pkg/mathutil"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Formatter formats numbers using the separators of a single locale.
type Formatter struct {
	tag language.Tag
}

// NewFormatter builds a Formatter for a BCP-47 locale such as "ro-RO".
// An empty locale selects constants.DefaultLocale.
func NewFormatter(locale string) (*Formatter, error) {
	locale = strings.TrimSpace(locale)
	if locale == "" {
		locale = constants.DefaultLocale
	}

	tag, err := language.Parse(locale)
	if err != nil {
		return nil, fmt.Errorf("invalid locale %q: %w", locale, err)
	}
	return &Formatter{tag: tag}, nil
}

// Locale returns the locale the formatter was built for.
func (f *Formatter) Locale() string {
	return f.tag.String()
}

// Standard formats an amount with at most two fraction digits, dropping
// trailing zeros (e.g. 1234.5 -> "1.234,5" and 1234 -> "1.234" in ro-RO).
// Ties round half away from zero on the shortest decimal form, so 2.675
// becomes "2,68".
func (f *Formatter) Standard(value float64) (string, error) {
	if !mathutil.IsFinite(value) {
		return "", apperrors.NewInvalidInput("value", value, "must be a finite number")
	}
	value = roundHalfUp(value, constants.StandardFractionDigits)
	return f.printer().Sprint(number.Decimal(value,
		number.MaxFractionDigits(constants.StandardFractionDigits),
	)), nil
}

// ExchangeRate formats a rate with exactly four fraction digits
// (e.g. 4.5 -> "4,5000" in ro-RO).
func (f *Formatter) ExchangeRate(value float64) (string, error) {
	if !mathutil.IsFinite(value) {
		return "", apperrors.NewInvalidInput("exchange rate", value, "must be a finite number")
	}
	value = roundHalfUp(value, constants.ExchangeRateFractionDigits)
	return f.printer().Sprint(number.Decimal(value,
		number.MinFractionDigits(constants.ExchangeRateFractionDigits),
		number.MaxFractionDigits(constants.ExchangeRateFractionDigits),
	)), nil
}

// Money formats an amount with Standard and appends the currency code (e.g. "1.755 RON").
func (f *Formatter) Money(value float64, currency string) (string, error) {
	formatted, err := f.Standard(value)
	if err != nil {
		return "", err
	}
	if currency == "" {
		return formatted, nil
	}
	return formatted + " " + currency, nil
}

// roundHalfUp rounds the shortest decimal representation of value rather
// than its binary expansion, where 2.675 is stored as 2.67499....
func roundHalfUp(value float64, places int) float64 {
	return decimal.NewFromFloat(value).Round(int32(places)).InexactFloat64()
}

// A printer is created per call; message.Printer keeps no state we want to share.
func (f *Formatter) printer() *message.Printer {
	return message.NewPrinter(f.tag)
}
