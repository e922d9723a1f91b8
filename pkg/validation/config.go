// Package validation provides configuration validation utilities.
package validation

import (
	"fmt"
	"strings"

	"github.com/iwvelando/pfa-tax-calculator/pkg/constants"
	"github.com/iwvelando/pfa-tax-calculator/pkg/mathutil"
)

// ValidatePercentage checks that a contribution or tax share lies in [0, 1].
func ValidatePercentage(name string, value float64) error {
	if !mathutil.InUnitInterval(value) {
		return fmt.Errorf("%s must be between 0 and 1, got %v", name, value)
	}
	return nil
}

// ValidatePositive checks that value is a finite number greater than zero.
func ValidatePositive(name string, value float64) error {
	if !mathutil.IsFinite(value) || value <= 0 {
		return fmt.Errorf("%s must be greater than 0, got %v", name, value)
	}
	return nil
}

// ValidateCurrencies checks that the supported list is non-empty, holds
// three-letter codes and contains the base currency.
func ValidateCurrencies(base string, supported []string) error {
	if len(supported) == 0 {
		return fmt.Errorf("supported currencies must not be empty")
	}
	if !IsCurrencyCode(base) {
		return fmt.Errorf("base currency %q is not a three-letter currency code", base)
	}

	found := false
	for _, code := range supported {
		if !IsCurrencyCode(code) {
			return fmt.Errorf("supported currency %q is not a three-letter currency code", code)
		}
		if code == base {
			found = true
		}
	}
	if !found {
		return fmt.Errorf("base currency %s must be one of the supported currencies %s",
			base, strings.Join(supported, ", "))
	}
	return nil
}

// IsCurrencyCode reports whether code looks like an upper-case ISO 4217 code.
func IsCurrencyCode(code string) bool {
	if len(code) != 3 {
		return false
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

// ContributionWarnings returns warnings for percentage combinations that are
// valid but produce degenerate breakdowns.
func ContributionWarnings(pension, health, incomeTax float64) []string {
	var warnings []string

	if pension+health >= 1 {
		warnings = append(warnings, fmt.Sprintf(
			"pension (%v) and health (%v) contributions take the whole gross income - taxable income will be zero",
			pension, health))
	}
	if pension == 0 && health == 0 && incomeTax == 0 {
		warnings = append(warnings, "all percentages are zero - net income will equal gross income")
	}

	return warnings
}

// ReloadIntervalWarnings flags exchange rate refresh cadences that would hammer the rate source.
func ReloadIntervalWarnings(intervalMillis int64) []string {
	if intervalMillis > 0 && intervalMillis < constants.MinimumRecommendedReloadInterval {
		return []string{fmt.Sprintf(
			"exchange rate reload interval of %dms is shorter than %dms - the reference feed only changes daily",
			intervalMillis, constants.MinimumRecommendedReloadInterval)}
	}
	return nil
}

// DuplicateCurrencyWarnings reports currencies listed more than once.
func DuplicateCurrencyWarnings(supported []string) []string {
	var warnings []string
	seen := make(map[string]struct{}, len(supported))
	for _, code := range supported {
		if _, ok := seen[code]; ok {
			warnings = append(warnings, fmt.Sprintf("currency %s is listed more than once", code))
			continue
		}
		seen[code] = struct{}{}
	}
	return warnings
}
