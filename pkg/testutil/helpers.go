// Package testutil provides common utility functions for testing.
package testutil

import (
	"github.com/iwvelando/pfa-tax-calculator/internal/rates"
	"github.com/iwvelando/pfa-tax-calculator/internal/report"
	"github.com/iwvelando/pfa-tax-calculator/pkg/datetime"
	"github.com/shopspring/decimal"
)

// FindLine finds a report line by key.
// Returns a pointer to the line if found, nil otherwise.
func FindLine(lines []report.Line, key string) *report.Line {
	for i := range lines {
		if lines[i].Key == key {
			return &lines[i]
		}
	}
	return nil
}

// RatesTable builds a table in base dated date (YYYY-MM-DD, UTC) from
// amounts of base per unit of each currency. It panics on a malformed date.
func RatesTable(base, date string, perUnit map[string]float64) *rates.Table {
	day := datetime.MustParseDate(date)
	values := make(map[string]decimal.Decimal, len(perUnit))
	for code, rate := range perUnit {
		values[code] = decimal.NewFromFloat(rate)
	}
	return rates.NewTable(base, day, day, values)
}

// StaticRates hands out a fixed table. A nil Table reports rates.ErrNoRates.
type StaticRates struct {
	Table *rates.Table
}

// Current returns the fixed table.
func (s StaticRates) Current() (*rates.Table, error) {
	if s.Table == nil {
		return nil, rates.ErrNoRates
	}
	return s.Table, nil
}
