package tax

import (
	"fmt"
	"strings"

	"github.com/iwvelando/pfa-tax-calculator/internal/config"
	"github.com/iwvelando/pfa-tax-calculator/pkg/constants"
)

// Period is the span an income figure is earned over.
type Period string

const (
	Weekly  Period = "weekly"
	Monthly Period = "monthly"
	Annual  Period = "annual"
)

// ParsePeriod parses a period name. An empty string means Monthly.
func ParsePeriod(value string) (Period, error) {
	switch Period(strings.ToLower(strings.TrimSpace(value))) {
	case "", Monthly:
		return Monthly, nil
	case Weekly:
		return Weekly, nil
	case Annual:
		return Annual, nil
	}
	return "", fmt.Errorf("expected period of %s, %s or %s, got %s", Weekly, Monthly, Annual, value)
}

// Label returns the Romanian name of the period ("lunar" for Monthly).
func (p Period) Label() string {
	switch p {
	case Weekly:
		return "săptămânal"
	case Annual:
		return "anual"
	}
	return "lunar"
}

// monthsPer returns how many months one period spans.
func monthsPer(period Period, cfg config.TaxConfiguration) (float64, error) {
	switch period {
	case Weekly:
		return constants.MonthsPerYear / cfg.WeeksPerCalendarYear, nil
	case Monthly, "":
		return 1, nil
	case Annual:
		return constants.MonthsPerYear, nil
	}
	return 0, fmt.Errorf("unknown period %q", period)
}

// MonthlyEquivalent converts an amount earned per period to a monthly amount.
func MonthlyEquivalent(amount float64, period Period, cfg config.TaxConfiguration) (float64, error) {
	months, err := monthsPer(period, cfg)
	if err != nil {
		return 0, err
	}
	return amount / months, nil
}

// Per rescales the monetary fields of a monthly breakdown to period.
// AnnualGross and VATLiable are period independent and are kept as is.
func (b Breakdown) Per(period Period, cfg config.TaxConfiguration) (Breakdown, error) {
	months, err := monthsPer(period, cfg)
	if err != nil {
		return Breakdown{}, err
	}
	return Breakdown{
		Gross:       b.Gross * months,
		Pension:     b.Pension * months,
		Health:      b.Health * months,
		Taxable:     b.Taxable * months,
		IncomeTax:   b.IncomeTax * months,
		Net:         b.Net * months,
		AnnualGross: b.AnnualGross,
		VATLiable:   b.VATLiable,
	}, nil
}

// Scale multiplies the monetary fields by factor, e.g. to express them in
// another currency. AnnualGross is scaled too; VATLiable is unchanged.
func (b Breakdown) Scale(factor float64) Breakdown {
	return Breakdown{
		Gross:       b.Gross * factor,
		Pension:     b.Pension * factor,
		Health:      b.Health * factor,
		Taxable:     b.Taxable * factor,
		IncomeTax:   b.IncomeTax * factor,
		Net:         b.Net * factor,
		AnnualGross: b.AnnualGross * factor,
		VATLiable:   b.VATLiable,
	}
}

// FromMonthly converts a monthly amount to the amount earned per period.
func FromMonthly(amount float64, period Period, cfg config.TaxConfiguration) (float64, error) {
	months, err := monthsPer(period, cfg)
	if err != nil {
		return 0, err
	}
	return amount * months, nil
}
