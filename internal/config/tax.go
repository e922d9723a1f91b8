package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/iwvelando/pfa-tax-calculator/pkg/apperrors"
	"github.com/iwvelando/pfa-tax-calculator/pkg/mathutil"
	"github.com/iwvelando/pfa-tax-calculator/pkg/validation"
)

// TaxConfiguration is the immutable set of constants every calculation is
// derived from. It is built once at startup and passed by value; callers
// must not modify Currencies.
type TaxConfiguration struct {
	BaseMonthlyIncome          float64
	PensionPercentage          float64
	HealthPercentage           float64
	IncomeTaxPercentage        float64
	VATThreshold               float64
	BaseCurrency               string
	Currencies                 []string
	ExchangeRateReloadInterval int64 // milliseconds
	WeeksPerCalendarYear       float64
}

// TaxConfiguration extracts the calculation constants from the loaded configuration.
func (c *Configuration) TaxConfiguration() TaxConfiguration {
	return TaxConfiguration{
		BaseMonthlyIncome:          c.Tax.BaseMonthlyIncome,
		PensionPercentage:          c.Tax.PensionPercentage,
		HealthPercentage:           c.Tax.HealthPercentage,
		IncomeTaxPercentage:        c.Tax.IncomeTaxPercentage,
		VATThreshold:               c.Tax.VATThreshold,
		BaseCurrency:               c.Currency.Base,
		Currencies:                 append([]string(nil), c.Currency.Supported...),
		ExchangeRateReloadInterval: c.ExchangeRates.ReloadInterval,
		WeeksPerCalendarYear:       c.Tax.WeeksPerCalendarYear,
	}
}

// Validate checks every invariant of the tax configuration and reports all
// violations at once. The returned error wraps apperrors.ErrInvalidConfiguration.
func (t TaxConfiguration) Validate() error {
	var problems []string

	record := func(err error) {
		if err != nil {
			problems = append(problems, err.Error())
		}
	}

	if !mathutil.IsFinite(t.BaseMonthlyIncome) || t.BaseMonthlyIncome < 0 {
		problems = append(problems, fmt.Sprintf("baseMonthlyIncome must be a non-negative number, got %v", t.BaseMonthlyIncome))
	}
	record(validation.ValidatePercentage("pensionPercentage", t.PensionPercentage))
	record(validation.ValidatePercentage("healthPercentage", t.HealthPercentage))
	record(validation.ValidatePercentage("incomeTaxPercentage", t.IncomeTaxPercentage))
	record(validation.ValidatePositive("vatThreshold", t.VATThreshold))
	record(validation.ValidatePositive("weeksPerCalendarYear", t.WeeksPerCalendarYear))
	record(validation.ValidateCurrencies(t.BaseCurrency, t.Currencies))
	if t.ExchangeRateReloadInterval <= 0 {
		problems = append(problems, fmt.Sprintf("exchange rate reloadInterval must be greater than 0, got %d", t.ExchangeRateReloadInterval))
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", apperrors.ErrInvalidConfiguration, strings.Join(problems, "; "))
	}
	return nil
}

// Supports reports whether code is one of the configured currencies.
func (t TaxConfiguration) Supports(code string) bool {
	for _, c := range t.Currencies {
		if c == code {
			return true
		}
	}
	return false
}

// ReloadInterval returns ExchangeRateReloadInterval as a time.Duration.
func (t TaxConfiguration) ReloadInterval() time.Duration {
	return time.Duration(t.ExchangeRateReloadInterval) * time.Millisecond
}

// ValidateConfiguration performs general validation of the configuration and returns warnings
func (c *Configuration) ValidateConfiguration() []string {
	var warnings []string
	warnings = append(warnings, validation.ContributionWarnings(
		c.Tax.PensionPercentage, c.Tax.HealthPercentage, c.Tax.IncomeTaxPercentage)...)
	warnings = append(warnings, validation.ReloadIntervalWarnings(c.ExchangeRates.ReloadInterval)...)
	warnings = append(warnings, validation.DuplicateCurrencyWarnings(c.Currency.Supported)...)

	if c.ExchangeRates.SourceURL == "" {
		warnings = append(warnings, "exchange rate sourceURL is empty - amounts can only be shown in "+c.Currency.Base)
	}
	return warnings
}
