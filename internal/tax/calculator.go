// Package tax derives the contributions, income tax and net income of a PFA
// from its gross income and the tax configuration.
//
// Every amount is denominated in the configured base currency. Nothing is
// rounded here; rounding is left to the formatter.
package tax

import (
	"github.com/iwvelando/pfa-tax-calculator/internal/config"
	"github.com/iwvelando/pfa-tax-calculator/pkg/apperrors"
	"github.com/iwvelando/pfa-tax-calculator/pkg/constants"
	"github.com/iwvelando/pfa-tax-calculator/pkg/mathutil"
	"go.uber.org/zap"
)

// Breakdown is the derivation of a single gross income figure.
type Breakdown struct {
	Gross       float64 `json:"gross"`
	Pension     float64 `json:"pension"`
	Health      float64 `json:"health"`
	Taxable     float64 `json:"taxable"`
	IncomeTax   float64 `json:"incomeTax"`
	Net         float64 `json:"net"`
	AnnualGross float64 `json:"annualGross"`
	VATLiable   bool    `json:"vatLiable"`
}

// ComputeBreakdown derives the monthly breakdown of grossMonthlyIncome.
//
// Taxable income is clamped at zero when the pension and health
// contributions exceed the gross income, so income tax and net income are
// never negative.
func ComputeBreakdown(grossMonthlyIncome float64, cfg config.TaxConfiguration) (Breakdown, error) {
	if err := validateIncome(grossMonthlyIncome); err != nil {
		return Breakdown{}, err
	}

	gross := grossMonthlyIncome
	pension := gross * cfg.PensionPercentage
	health := gross * cfg.HealthPercentage
	taxable := mathutil.ClampNonNegative(gross - pension - health)
	incomeTax := taxable * cfg.IncomeTaxPercentage
	annualGross := gross * constants.MonthsPerYear

	return Breakdown{
		Gross:       gross,
		Pension:     pension,
		Health:      health,
		Taxable:     taxable,
		IncomeTax:   incomeTax,
		Net:         taxable - incomeTax,
		AnnualGross: annualGross,
		VATLiable:   annualGross >= cfg.VATThreshold,
	}, nil
}

func validateIncome(gross float64) error {
	if !mathutil.IsFinite(gross) {
		return apperrors.NewInvalidInput("gross income", gross, "must be a finite number")
	}
	if gross < 0 {
		return apperrors.NewInvalidInput("gross income", gross, "must not be negative")
	}
	return nil
}

// Calculator binds ComputeBreakdown to one configuration.
type Calculator struct {
	cfg    config.TaxConfiguration
	logger *zap.Logger
}

// NewCalculator returns a Calculator for cfg. A nil logger is replaced by a no-op logger.
func NewCalculator(cfg config.TaxConfiguration, logger *zap.Logger) *Calculator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Calculator{cfg: cfg, logger: logger}
}

// Configuration returns the configuration the calculator was built with.
func (c *Calculator) Configuration() config.TaxConfiguration {
	return c.cfg
}

// Compute derives the monthly breakdown of grossMonthlyIncome.
func (c *Calculator) Compute(grossMonthlyIncome float64) (Breakdown, error) {
	breakdown, err := ComputeBreakdown(grossMonthlyIncome, c.cfg)
	if err != nil {
		c.logger.Debug("rejected gross income",
			zap.String("op", "tax.Compute"),
			zap.Float64("gross", grossMonthlyIncome),
			zap.Error(err),
		)
		return Breakdown{}, err
	}

	c.logger.Debug("computed breakdown",
		zap.String("op", "tax.Compute"),
		zap.Float64("gross", breakdown.Gross),
		zap.Float64("net", breakdown.Net),
		zap.Bool("vatLiable", breakdown.VATLiable),
	)
	return breakdown, nil
}

// ComputeFor converts amount, earned per period, to its monthly equivalent
// and derives the breakdown. The returned breakdown is monthly.
func (c *Calculator) ComputeFor(amount float64, period Period) (Breakdown, error) {
	if err := validateIncome(amount); err != nil {
		return Breakdown{}, err
	}
	monthly, err := MonthlyEquivalent(amount, period, c.cfg)
	if err != nil {
		return Breakdown{}, err
	}
	return c.Compute(monthly)
}
