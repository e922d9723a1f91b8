package main

import (
	"errors"
	"math"
	"testing"

	"github.com/iwvelando/pfa-tax-calculator/internal/config"
	"github.com/iwvelando/pfa-tax-calculator/internal/tax"
	"github.com/iwvelando/pfa-tax-calculator/pkg/apperrors"
	"github.com/iwvelando/pfa-tax-calculator/pkg/format"
	"go.uber.org/zap"
)

func TestBuildRequest(t *testing.T) {
	cfg := config.Default().TaxConfiguration()

	tests := []struct {
		name             string
		gross            string
		period           string
		currency         string
		expectedAmount   float64
		expectedPeriod   tax.Period
		expectedCurrency string
		expectErr        bool
	}{
		{"defaults", "", "", "", 3000, tax.Monthly, "RON", false},
		{"annual default income", "", "annual", "", 36000, tax.Annual, "RON", false},
		{"explicit gross", " 4500.5 ", "monthly", "eur", 4500.5, tax.Monthly, "EUR", false},
		{"bad gross", "lots", "", "", 0, "", "", true},
		{"bad period", "", "daily", "", 0, "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := buildRequest(cfg, tt.gross, tt.period, tt.currency)
			if tt.expectErr {
				if err == nil {
					t.Errorf("buildRequest() expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("buildRequest() unexpected error = %v", err)
			}
			if req.Amount != tt.expectedAmount {
				t.Errorf("Amount = %v, expected %v", req.Amount, tt.expectedAmount)
			}
			if req.Period != tt.expectedPeriod {
				t.Errorf("Period = %s, expected %s", req.Period, tt.expectedPeriod)
			}
			if req.Currency != tt.expectedCurrency {
				t.Errorf("Currency = %s, expected %s", req.Currency, tt.expectedCurrency)
			}
		})
	}
}

func TestFetchTimeout(t *testing.T) {
	conf := config.Default()
	if got := fetchTimeout(conf); got.Seconds() != 10 {
		t.Errorf("fetchTimeout() = %v, expected 10s", got)
	}

	conf.ExchangeRates.RequestTimeout = 0
	if got := fetchTimeout(conf); got.Seconds() != 10 {
		t.Errorf("fetchTimeout() with zero timeout = %v, expected 10s", got)
	}
}

func TestSolveGrossForNet(t *testing.T) {
	cfg := config.Default().TaxConfiguration()
	formatter, err := format.NewFormatter("ro-RO")
	if err != nil {
		t.Fatalf("NewFormatter() error = %v", err)
	}

	summary, err := solveGrossForNet(zap.NewNop(), cfg, formatter, " 1755 ")
	if err != nil {
		t.Fatalf("solveGrossForNet(1755) unexpected error = %v", err)
	}
	if !summary.Converged || math.Abs(summary.Gross-3000) > 0.01 {
		t.Errorf("solveGrossForNet(1755) = %+v, expected converged gross of 3000", summary)
	}

	for _, target := range []string{"-100", "NaN", "+Inf"} {
		t.Run(target, func(t *testing.T) {
			if _, err := solveGrossForNet(zap.NewNop(), cfg, formatter, target); !errors.Is(err, apperrors.ErrInvalidInput) {
				t.Errorf("solveGrossForNet(%s) error = %v, expected ErrInvalidInput", target, err)
			}
		})
	}

	if _, err := solveGrossForNet(zap.NewNop(), cfg, formatter, "plenty"); err == nil {
		t.Error("solveGrossForNet(plenty) expected error but got none")
	}
}
