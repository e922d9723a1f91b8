package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/iwvelando/pfa-tax-calculator/pkg/apperrors"
)

func TestLoadConfiguration(t *testing.T) {
	tests := []struct {
		name       string
		configPath string
		wantError  bool
	}{
		{
			name:       "Non-existent config file",
			configPath: "nonexistent.yaml",
			wantError:  true,
		},
		{
			name:       "Example configuration",
			configPath: filepath.Join("..", "..", "config.yaml.example"),
			wantError:  false,
		},
		{
			name:       "Test configuration",
			configPath: filepath.Join("..", "..", "test", "test_config.yaml"),
			wantError:  false,
		},
		{
			name:       "Empty path uses defaults",
			configPath: "",
			wantError:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config, err := LoadConfiguration(tt.configPath)
			if tt.wantError {
				if err == nil {
					t.Errorf("LoadConfiguration() expected error but got none")
				}
				return
			}
			if err != nil {
				t.Errorf("LoadConfiguration() error = %v", err)
				return
			}
			if config == nil {
				t.Errorf("LoadConfiguration() returned nil config")
			}
		})
	}
}

func TestDefaultMatchesOriginalConstants(t *testing.T) {
	conf := Default()
	tax := conf.TaxConfiguration()

	if tax.BaseMonthlyIncome != 3000 {
		t.Errorf("BaseMonthlyIncome = %v, expected 3000", tax.BaseMonthlyIncome)
	}
	if tax.PensionPercentage != 0.25 || tax.HealthPercentage != 0.1 || tax.IncomeTaxPercentage != 0.1 {
		t.Errorf("unexpected percentages %v/%v/%v", tax.PensionPercentage, tax.HealthPercentage, tax.IncomeTaxPercentage)
	}
	if tax.VATThreshold != 300000 {
		t.Errorf("VATThreshold = %v, expected 300000", tax.VATThreshold)
	}
	if tax.BaseCurrency != "RON" {
		t.Errorf("BaseCurrency = %s, expected RON", tax.BaseCurrency)
	}
	if strings.Join(tax.Currencies, ",") != "EUR,USD,GBP,CHF,RON" {
		t.Errorf("Currencies = %v, expected [EUR USD GBP CHF RON]", tax.Currencies)
	}
	if tax.ReloadInterval() != time.Hour {
		t.Errorf("ReloadInterval() = %v, expected 1h", tax.ReloadInterval())
	}
	if tax.WeeksPerCalendarYear != 52.1429 {
		t.Errorf("WeeksPerCalendarYear = %v, expected 52.1429", tax.WeeksPerCalendarYear)
	}
	if conf.ExchangeRates.RequestTimeout != 10*time.Second {
		t.Errorf("RequestTimeout = %v, expected 10s", conf.ExchangeRates.RequestTimeout)
	}
	if conf.ExchangeRates.Cache.TTL != 24*time.Hour {
		t.Errorf("Cache.TTL = %v, expected 24h", conf.ExchangeRates.Cache.TTL)
	}
}

func TestLoadConfigurationFromReader(t *testing.T) {
	yamlConfig := `
tax:
  baseMonthlyIncome: 5000
  pensionPercentage: 0.2
currency:
  base: eur
  supported: [eur, ron]
server:
  basePath: quick-romanian-freelance-tax-calculator/
`
	conf, err := LoadConfigurationFromReader(strings.NewReader(yamlConfig))
	if err != nil {
		t.Fatalf("LoadConfigurationFromReader() error = %v", err)
	}

	if conf.Tax.BaseMonthlyIncome != 5000 {
		t.Errorf("BaseMonthlyIncome = %v, expected 5000", conf.Tax.BaseMonthlyIncome)
	}
	if conf.Tax.PensionPercentage != 0.2 {
		t.Errorf("PensionPercentage = %v, expected 0.2", conf.Tax.PensionPercentage)
	}
	// Keys absent from the file keep their defaults.
	if conf.Tax.HealthPercentage != 0.1 {
		t.Errorf("HealthPercentage = %v, expected default 0.1", conf.Tax.HealthPercentage)
	}
	if conf.Currency.Base != "EUR" {
		t.Errorf("Currency.Base = %s, expected EUR", conf.Currency.Base)
	}
	if strings.Join(conf.Currency.Supported, ",") != "EUR,RON" {
		t.Errorf("Currency.Supported = %v, expected [EUR RON]", conf.Currency.Supported)
	}
	if conf.Server.BasePath != "/quick-romanian-freelance-tax-calculator" {
		t.Errorf("Server.BasePath = %q", conf.Server.BasePath)
	}
}

func TestLoadConfigurationRejectsInvariantViolations(t *testing.T) {
	tests := []struct {
		name       string
		yamlConfig string
		wantInMsg  string
	}{
		{
			name:       "Percentage above one",
			yamlConfig: "tax:\n  pensionPercentage: 25\n",
			wantInMsg:  "pensionPercentage",
		},
		{
			name:       "Zero VAT threshold",
			yamlConfig: "tax:\n  vatThreshold: 0\n",
			wantInMsg:  "vatThreshold",
		},
		{
			name:       "Base currency not supported",
			yamlConfig: "currency:\n  base: HUF\n",
			wantInMsg:  "HUF",
		},
		{
			name:       "Non-positive reload interval",
			yamlConfig: "exchangeRates:\n  reloadInterval: 0\n",
			wantInMsg:  "reloadInterval",
		},
		{
			name:       "Negative base income",
			yamlConfig: "tax:\n  baseMonthlyIncome: -10\n",
			wantInMsg:  "baseMonthlyIncome",
		},
		{
			name:       "Malformed source URL",
			yamlConfig: "exchangeRates:\n  sourceURL: not a url\n",
			wantInMsg:  "SourceURL",
		},
		{
			name:       "Redis address without port",
			yamlConfig: "exchangeRates:\n  cache:\n    redisAddress: localhost\n",
			wantInMsg:  "RedisAddress",
		},
		{
			name:       "Unknown log level",
			yamlConfig: "logging:\n  level: verbose\n",
			wantInMsg:  "Level",
		},
		{
			name:       "Unknown output format",
			yamlConfig: "output:\n  format: xml\n",
			wantInMsg:  "Format",
		},
		{
			name:       "Empty listen address",
			yamlConfig: "server:\n  address: \"\"\n",
			wantInMsg:  "Address",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfigurationFromReader(strings.NewReader(tt.yamlConfig))
			if err == nil {
				t.Fatalf("expected error but got none")
			}
			if !errors.Is(err, apperrors.ErrInvalidConfiguration) {
				t.Errorf("error %v does not wrap ErrInvalidConfiguration", err)
			}
			if !strings.Contains(err.Error(), tt.wantInMsg) {
				t.Errorf("error %q does not mention %q", err.Error(), tt.wantInMsg)
			}
		})
	}
}

func TestValidateReportsAllProblems(t *testing.T) {
	tax := TaxConfiguration{
		PensionPercentage:   2,
		HealthPercentage:    -1,
		IncomeTaxPercentage: 0.1,
		VATThreshold:        -5,
		BaseCurrency:        "RON",
		Currencies:          []string{"RON"},
	}

	err := tax.Validate()
	if err == nil {
		t.Fatal("expected error but got none")
	}
	for _, want := range []string{"pensionPercentage", "healthPercentage", "vatThreshold", "weeksPerCalendarYear", "reloadInterval"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %q", err.Error(), want)
		}
	}
}

func TestTaxConfigurationCopiesCurrencies(t *testing.T) {
	conf := Default()
	tax := conf.TaxConfiguration()
	tax.Currencies[0] = "XXX"

	if conf.Currency.Supported[0] == "XXX" {
		t.Errorf("TaxConfiguration() shares the currency slice with Configuration")
	}
	if !conf.TaxConfiguration().Supports("EUR") {
		t.Errorf("Supports(EUR) = false, expected true")
	}
	if conf.TaxConfiguration().Supports("JPY") {
		t.Errorf("Supports(JPY) = true, expected false")
	}
}

func TestLoadConfigurationEnvironmentOverride(t *testing.T) {
	t.Setenv("PFA_TAX_TAX_BASEMONTHLYINCOME", "4200")

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("tax:\n  baseMonthlyIncome: 3000\n"), 0600); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	conf, err := LoadConfiguration(path)
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	if conf.Tax.BaseMonthlyIncome != 4200 {
		t.Errorf("BaseMonthlyIncome = %v, expected environment override 4200", conf.Tax.BaseMonthlyIncome)
	}
}

func TestValidateConfigurationWarnings(t *testing.T) {
	conf := Default()
	if warnings := conf.ValidateConfiguration(); len(warnings) != 0 {
		t.Errorf("expected no warnings for defaults, got %v", warnings)
	}

	conf.Tax.PensionPercentage = 0.7
	conf.Tax.HealthPercentage = 0.4
	conf.ExchangeRates.ReloadInterval = 500
	conf.ExchangeRates.SourceURL = ""
	warnings := conf.ValidateConfiguration()
	if len(warnings) != 3 {
		t.Errorf("expected 3 warnings, got %d: %v", len(warnings), warnings)
	}
}
