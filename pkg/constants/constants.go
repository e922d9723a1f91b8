// Package constants provides shared constants for the pfa-tax-calculator application.
package constants

// Tax defaults. These are the figures for a PFA taxed in "sistem real" for 2023.
const (
	// DefaultBaseMonthlyIncome is the gross monthly income used when none is given.
	DefaultBaseMonthlyIncome = 3_000.0

	// DefaultPensionPercentage is the CAS (pension) contribution share of gross income.
	DefaultPensionPercentage = 0.25

	// DefaultHealthPercentage is the CASS (health) contribution share of gross income.
	DefaultHealthPercentage = 0.10

	// DefaultIncomeTaxPercentage is the income tax share of taxable income.
	DefaultIncomeTaxPercentage = 0.10

	// DefaultVATThreshold is the annual gross income above which VAT registration is mandatory.
	DefaultVATThreshold = 300_000.0
)

// Calendar constants
const (
	// MonthsPerYear is the number of months in a year
	MonthsPerYear = 12

	// DefaultWeeksPerCalendarYear is the average number of weeks in a calendar year
	DefaultWeeksPerCalendarYear = 52.1429
)

// Currency defaults
const (
	// DefaultBaseCurrency is the currency every calculation is denominated in.
	DefaultBaseCurrency = "RON"

	// DefaultLocale is the locale used for number formatting.
	DefaultLocale = "ro-RO"

	// StandardFractionDigits is the maximum number of fraction digits shown for amounts.
	StandardFractionDigits = 2

	// ExchangeRateFractionDigits is the exact number of fraction digits shown for exchange rates.
	ExchangeRateFractionDigits = 4
)

// DefaultCurrencies lists the currencies offered for display, base currency included.
func DefaultCurrencies() []string {
	return []string{"EUR", "USD", "GBP", "CHF", "RON"}
}

// Exchange rate defaults
const (
	// DefaultExchangeRateReloadInterval is the exchange rate refresh cadence in milliseconds (1 hour).
	DefaultExchangeRateReloadInterval int64 = 3_600_000

	// DefaultExchangeRateSourceURL is the National Bank of Romania daily reference feed.
	DefaultExchangeRateSourceURL = "https://www.bnr.ro/nbrfxrates.xml"

	// DefaultExchangeRateRequestTimeout bounds a single feed download.
	DefaultExchangeRateRequestTimeout = "10s"

	// DefaultExchangeRateCacheKey is the key the last good rate snapshot is stored under.
	DefaultExchangeRateCacheKey = "pfa-tax:exchange-rates"

	// DefaultExchangeRateCacheTTL is how long a cached snapshot stays valid.
	DefaultExchangeRateCacheTTL = "24h"

	// MinimumRecommendedReloadInterval is the shortest reload interval that does not trigger a warning (1 minute).
	MinimumRecommendedReloadInterval int64 = 60_000
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"

	// OutputFormatJSON is the JSON output format
	OutputFormatJSON = "json"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"

	// EnvPrefix is the prefix of environment variables overriding configuration keys.
	EnvPrefix = "PFA_TAX"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address
	DefaultServerAddress = ":8080"

	// DefaultRateLimit is the default per-client request budget in ulule/limiter format.
	DefaultRateLimit = "120-M"

	// PageTitle is the title of the summary page.
	PageTitle = "Taxe freelancing România - PFA 2023"

	// PageSubtitle is the subtitle of the summary page.
	PageSubtitle = "PFA în sistem real, anul 2023."
)

// Validation constants
const (
	// CurrencyTolerance is the tolerance for currency comparisons (1 ban)
	CurrencyTolerance = 0.01

	// DecimalPrecision is the precision for currency rounding (2 decimal places)
	DecimalPrecision = 100
)

// Gross-for-net solver defaults
const (
	// DefaultSolverTolerance is the width at which the gross income search stops (half a ban)
	DefaultSolverTolerance = 0.005

	// DefaultSolverMaxIterations bounds the bisection steps of one search
	DefaultSolverMaxIterations = 200

	// MaxSolverBoundDoublings bounds the search for an upper gross income
	MaxSolverBoundDoublings = 64
)
