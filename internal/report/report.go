// Package report turns a tax breakdown into the figures shown to a user:
// rescaled to a period, converted to a display currency and formatted for
// the configured locale.
package report

import (
	"fmt"
	"time"

	"github.com/iwvelando/pfa-tax-calculator/internal/rates"
	"github.com/iwvelando/pfa-tax-calculator/internal/tax"
	"github.com/iwvelando/pfa-tax-calculator/pkg/format"
)

// RateProvider hands out the current exchange rate snapshot.
// *rates.Refresher implements it.
type RateProvider interface {
	Current() (*rates.Table, error)
}

// Request selects what to report on.
type Request struct {
	Amount   float64    // gross income earned per Period, in the base currency
	Period   tax.Period // period Amount is earned over and figures are shown for
	Currency string     // display currency; empty means the base currency
}

// Line is one formatted figure of a report.
type Line struct {
	Key    string  `json:"key"`
	Label  string  `json:"label"`
	Amount float64 `json:"amount"`
	Text   string  `json:"text"`
}

// Report is a breakdown ready for display.
type Report struct {
	Period       tax.Period    `json:"period"`
	BaseCurrency string        `json:"baseCurrency"`
	Currency     string        `json:"currency"`
	ExchangeRate *float64      `json:"exchangeRate,omitempty"`
	RateText     string        `json:"exchangeRateText,omitempty"`
	RateDate     *time.Time    `json:"exchangeRateDate,omitempty"`
	Base         tax.Breakdown `json:"base"`      // monthly, base currency
	Breakdown    tax.Breakdown `json:"breakdown"` // Period, Currency
	VATLiable    bool          `json:"vatLiable"`
	Lines        []Line        `json:"lines"`
}

// Builder assembles reports from a calculator, a formatter and a rate provider.
type Builder struct {
	calc      *tax.Calculator
	formatter *format.Formatter
	rates     RateProvider
}

// NewBuilder returns a Builder. provider may be nil when only the base currency is shown.
func NewBuilder(calc *tax.Calculator, formatter *format.Formatter, provider RateProvider) *Builder {
	return &Builder{calc: calc, formatter: formatter, rates: provider}
}

// Build computes and formats the report for req.
func (b *Builder) Build(req Request) (Report, error) {
	cfg := b.calc.Configuration()

	period := req.Period
	if period == "" {
		period = tax.Monthly
	}
	currency := req.Currency
	if currency == "" {
		currency = cfg.BaseCurrency
	}
	if !cfg.Supports(currency) {
		return Report{}, fmt.Errorf("%w: %s is not one of the supported currencies", rates.ErrUnknownCurrency, currency)
	}

	monthly, err := b.calc.ComputeFor(req.Amount, period)
	if err != nil {
		return Report{}, err
	}
	shown, err := monthly.Per(period, cfg)
	if err != nil {
		return Report{}, err
	}

	rep := Report{
		Period:       period,
		BaseCurrency: cfg.BaseCurrency,
		Currency:     currency,
		Base:         monthly,
		VATLiable:    monthly.VATLiable,
	}

	if currency != cfg.BaseCurrency {
		if b.rates == nil {
			return Report{}, rates.ErrNoRates
		}
		table, err := b.rates.Current()
		if err != nil {
			return Report{}, err
		}
		factor, err := table.Factor(currency)
		if err != nil {
			return Report{}, err
		}
		rate, err := table.RateFloat(currency)
		if err != nil {
			return Report{}, err
		}
		rateText, err := b.formatter.ExchangeRate(rate)
		if err != nil {
			return Report{}, err
		}

		shown = shown.Scale(factor)
		date := table.Date()
		rep.ExchangeRate = &rate
		rep.RateText = rateText
		rep.RateDate = &date
	}

	rep.Breakdown = shown
	if rep.Lines, err = b.lines(shown, currency); err != nil {
		return Report{}, err
	}
	return rep, nil
}

func (b *Builder) lines(bd tax.Breakdown, currency string) ([]Line, error) {
	figures := []Line{
		{Key: "gross", Label: "Venit brut", Amount: bd.Gross},
		{Key: "pension", Label: "CAS (pensie)", Amount: bd.Pension},
		{Key: "health", Label: "CASS (sănătate)", Amount: bd.Health},
		{Key: "taxable", Label: "Venit impozabil", Amount: bd.Taxable},
		{Key: "incomeTax", Label: "Impozit pe venit", Amount: bd.IncomeTax},
		{Key: "net", Label: "Venit net", Amount: bd.Net},
		{Key: "annualGross", Label: "Venit brut anual", Amount: bd.AnnualGross},
	}

	for i := range figures {
		text, err := b.formatter.Money(figures[i].Amount, currency)
		if err != nil {
			return nil, err
		}
		figures[i].Text = text
	}
	return figures, nil
}

// Line returns the line with key, if present.
func (r Report) Line(key string) (Line, bool) {
	for _, line := range r.Lines {
		if line.Key == key {
			return line, true
		}
	}
	return Line{}, false
}
