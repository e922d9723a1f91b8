// Package rates keeps the exchange rate table the presentation layer converts
// base-currency amounts with. A Table is an immutable snapshot; a Refresher
// replaces it periodically from a Source.
package rates

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/iwvelando/pfa-tax-calculator/pkg/apperrors"
	"github.com/iwvelando/pfa-tax-calculator/pkg/mathutil"
	"github.com/shopspring/decimal"
)

var (
	// ErrUnknownCurrency is returned when a currency is not part of the table.
	ErrUnknownCurrency = errors.New("unknown currency")

	// ErrNoRates is returned when no exchange rate snapshot is available yet.
	ErrNoRates = errors.New("exchange rates not available")
)

// Table maps currency codes to the number of base currency units one unit
// of that currency is worth. The base currency always maps to 1.
type Table struct {
	base      string
	date      time.Time
	fetchedAt time.Time
	rates     map[string]decimal.Decimal
}

// NewTable builds a Table. Non-positive rates are dropped and the base
// currency is forced to 1.
func NewTable(base string, date, fetchedAt time.Time, perUnit map[string]decimal.Decimal) *Table {
	rates := make(map[string]decimal.Decimal, len(perUnit)+1)
	for code, rate := range perUnit {
		if rate.IsPositive() {
			rates[code] = rate
		}
	}
	rates[base] = decimal.NewFromInt(1)

	return &Table{base: base, date: date, fetchedAt: fetchedAt, rates: rates}
}

// Base returns the currency every rate is expressed in.
func (t *Table) Base() string { return t.base }

// Date returns the publishing date of the rates.
func (t *Table) Date() time.Time { return t.date }

// FetchedAt returns when the snapshot was downloaded.
func (t *Table) FetchedAt() time.Time { return t.fetchedAt }

// Codes returns the currencies in the table, sorted.
func (t *Table) Codes() []string {
	codes := make([]string, 0, len(t.rates))
	for code := range t.rates {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Rate returns how many base currency units one unit of code is worth.
func (t *Table) Rate(code string) (decimal.Decimal, error) {
	rate, ok := t.rates[code]
	if !ok {
		return decimal.Decimal{}, fmt.Errorf("%w: %s", ErrUnknownCurrency, code)
	}
	return rate, nil
}

// RateFloat is Rate as a float64.
func (t *Table) RateFloat(code string) (float64, error) {
	rate, err := t.Rate(code)
	if err != nil {
		return 0, err
	}
	return rate.InexactFloat64(), nil
}

// Convert expresses a base currency amount in code.
func (t *Table) Convert(amount float64, code string) (float64, error) {
	if !mathutil.IsFinite(amount) {
		return 0, apperrors.NewInvalidInput("amount", amount, "must be a finite number")
	}
	rate, err := t.Rate(code)
	if err != nil {
		return 0, err
	}
	return decimal.NewFromFloat(amount).Div(rate).InexactFloat64(), nil
}

// Factor returns the multiplier that converts base currency amounts to code.
func (t *Table) Factor(code string) (float64, error) {
	rate, err := t.Rate(code)
	if err != nil {
		return 0, err
	}
	return decimal.NewFromInt(1).Div(rate).InexactFloat64(), nil
}

// Rebase expresses every rate in newBase instead of the current base.
func (t *Table) Rebase(newBase string) (*Table, error) {
	if newBase == t.base {
		return t, nil
	}
	pivot, err := t.Rate(newBase)
	if err != nil {
		return nil, err
	}

	rebased := make(map[string]decimal.Decimal, len(t.rates))
	for code, rate := range t.rates {
		rebased[code] = rate.Div(pivot)
	}
	return NewTable(newBase, t.date, t.fetchedAt, rebased), nil
}

// Filter keeps only the listed currencies (the base currency is always kept).
func (t *Table) Filter(codes []string) *Table {
	kept := make(map[string]decimal.Decimal, len(codes))
	for _, code := range codes {
		if rate, ok := t.rates[code]; ok {
			kept[code] = rate
		}
	}
	return NewTable(t.base, t.date, t.fetchedAt, kept)
}

type snapshot struct {
	Base      string                     `json:"base"`
	Date      time.Time                  `json:"date"`
	FetchedAt time.Time                  `json:"fetchedAt"`
	Rates     map[string]decimal.Decimal `json:"rates"`
}

// MarshalJSON encodes the table, rates as exact decimal strings.
func (t *Table) MarshalJSON() ([]byte, error) {
	return json.Marshal(snapshot{
		Base:      t.base,
		Date:      t.date,
		FetchedAt: t.fetchedAt,
		Rates:     t.rates,
	})
}

// UnmarshalJSON decodes a table written by MarshalJSON.
func (t *Table) UnmarshalJSON(data []byte) error {
	var s snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s.Base == "" {
		return fmt.Errorf("exchange rate snapshot has no base currency")
	}
	*t = *NewTable(s.Base, s.Date, s.FetchedAt, s.Rates)
	return nil
}
