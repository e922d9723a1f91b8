// Package config defines the data structures related to configuration and
// includes functions for loading and validating it.
package config

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/iwvelando/pfa-tax-calculator/pkg/apperrors"
	"github.com/iwvelando/pfa-tax-calculator/pkg/constants"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// structValidator checks the validate tags below; the tax section has its own checks in tax.go.
var structValidator = validator.New()

// Configuration holds all configuration for pfa-tax-calculator.
type Configuration struct {
	Tax           TaxSettings         `yaml:"tax" mapstructure:"tax"`
	Currency      CurrencySettings    `yaml:"currency" mapstructure:"currency"`
	ExchangeRates ExchangeRatesConfig `yaml:"exchangeRates" mapstructure:"exchangeRates"`
	Server        ServerConfig        `yaml:"server" mapstructure:"server"`
	Logging       LoggingConfig       `yaml:"logging,omitempty" mapstructure:"logging"`
	Output        OutputConfig        `yaml:"output,omitempty" mapstructure:"output"`
}

// TaxSettings holds the income and percentage constants of the tax regime.
type TaxSettings struct {
	BaseMonthlyIncome    float64 `yaml:"baseMonthlyIncome" mapstructure:"baseMonthlyIncome"`
	PensionPercentage    float64 `yaml:"pensionPercentage" mapstructure:"pensionPercentage"`
	HealthPercentage     float64 `yaml:"healthPercentage" mapstructure:"healthPercentage"`
	IncomeTaxPercentage  float64 `yaml:"incomeTaxPercentage" mapstructure:"incomeTaxPercentage"`
	VATThreshold         float64 `yaml:"vatThreshold" mapstructure:"vatThreshold"`
	WeeksPerCalendarYear float64 `yaml:"weeksPerCalendarYear" mapstructure:"weeksPerCalendarYear"`
}

// CurrencySettings holds the base currency, the display currencies and the locale.
type CurrencySettings struct {
	Base      string   `yaml:"base" mapstructure:"base"`
	Supported []string `yaml:"supported" mapstructure:"supported"`
	Locale    string   `yaml:"locale" mapstructure:"locale"`
}

// ExchangeRatesConfig controls where exchange rates come from and how often they refresh.
type ExchangeRatesConfig struct {
	SourceURL      string        `yaml:"sourceURL" mapstructure:"sourceURL" validate:"omitempty,url"`
	ReloadInterval int64         `yaml:"reloadInterval" mapstructure:"reloadInterval"` // milliseconds
	RequestTimeout time.Duration `yaml:"requestTimeout" mapstructure:"requestTimeout" validate:"gte=0"`
	Cache          CacheConfig   `yaml:"cache" mapstructure:"cache"`
}

// CacheConfig selects where the last good exchange rate snapshot is kept.
type CacheConfig struct {
	RedisAddress string        `yaml:"redisAddress,omitempty" mapstructure:"redisAddress" validate:"omitempty,hostname_port"` // empty = in-memory
	Key          string        `yaml:"key" mapstructure:"key" validate:"required"`
	TTL          time.Duration `yaml:"ttl" mapstructure:"ttl" validate:"gte=0"`
}

// ServerConfig defines runtime parameters for the HTTP server.
type ServerConfig struct {
	Address   string `yaml:"address" mapstructure:"address" validate:"required"`
	BasePath  string `yaml:"basePath,omitempty" mapstructure:"basePath" validate:"omitempty,startswith=/"`
	RateLimit string `yaml:"rateLimit" mapstructure:"rateLimit"` // ulule/limiter format, e.g. "120-M"
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty" mapstructure:"level" validate:"omitempty,oneof=debug info warn warning error"`
	Format     string `yaml:"format,omitempty" mapstructure:"format" validate:"omitempty,oneof=json console"`
	OutputFile string `yaml:"outputFile,omitempty" mapstructure:"outputFile"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `yaml:"format,omitempty" mapstructure:"format" validate:"omitempty,oneof=pretty csv json"`
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there. An empty path yields the defaults. Environment
// variables prefixed with PFA_TAX (and a .env file, if present) override
// file values.
func LoadConfiguration(configPath string) (*Configuration, error) {
	_ = godotenv.Load()

	v := newViper()
	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file, %s", err)
		}
	}

	return decode(v)
}

// LoadConfigurationFromReader loads a YAML configuration from r. Environment
// variables are not consulted.
func LoadConfigurationFromReader(r io.Reader) (*Configuration, error) {
	v := newViper()
	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("error reading config data, %s", err)
	}

	return decode(v)
}

// Default returns the configuration of the original application.
func Default() *Configuration {
	conf, err := decode(newViper())
	if err != nil {
		// Defaults are constants; failing here is a programming error.
		panic(fmt.Sprintf("default configuration is invalid: %v", err))
	}
	return conf
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yml")

	v.SetDefault("tax.baseMonthlyIncome", constants.DefaultBaseMonthlyIncome)
	v.SetDefault("tax.pensionPercentage", constants.DefaultPensionPercentage)
	v.SetDefault("tax.healthPercentage", constants.DefaultHealthPercentage)
	v.SetDefault("tax.incomeTaxPercentage", constants.DefaultIncomeTaxPercentage)
	v.SetDefault("tax.vatThreshold", constants.DefaultVATThreshold)
	v.SetDefault("tax.weeksPerCalendarYear", constants.DefaultWeeksPerCalendarYear)

	v.SetDefault("currency.base", constants.DefaultBaseCurrency)
	v.SetDefault("currency.supported", constants.DefaultCurrencies())
	v.SetDefault("currency.locale", constants.DefaultLocale)

	v.SetDefault("exchangeRates.sourceURL", constants.DefaultExchangeRateSourceURL)
	v.SetDefault("exchangeRates.reloadInterval", constants.DefaultExchangeRateReloadInterval)
	v.SetDefault("exchangeRates.requestTimeout", constants.DefaultExchangeRateRequestTimeout)
	v.SetDefault("exchangeRates.cache.redisAddress", "")
	v.SetDefault("exchangeRates.cache.key", constants.DefaultExchangeRateCacheKey)
	v.SetDefault("exchangeRates.cache.ttl", constants.DefaultExchangeRateCacheTTL)

	v.SetDefault("server.address", constants.DefaultServerAddress)
	v.SetDefault("server.basePath", "")
	v.SetDefault("server.rateLimit", constants.DefaultRateLimit)

	v.SetDefault("logging.level", "")
	v.SetDefault("logging.format", "")
	v.SetDefault("logging.outputFile", "")
	v.SetDefault("output.format", "")

	return v
}

func decode(v *viper.Viper) (*Configuration, error) {
	var configuration Configuration
	if err := v.Unmarshal(&configuration); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %s", err)
	}

	configuration.normalize()
	if err := configuration.TaxConfiguration().Validate(); err != nil {
		return nil, err
	}
	if err := structValidator.Struct(configuration); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidConfiguration, err)
	}
	return &configuration, nil
}

func (c *Configuration) normalize() {
	c.Currency.Base = strings.ToUpper(strings.TrimSpace(c.Currency.Base))
	for i, code := range c.Currency.Supported {
		c.Currency.Supported[i] = strings.ToUpper(strings.TrimSpace(code))
	}
	c.Server.BasePath = strings.TrimRight(strings.TrimSpace(c.Server.BasePath), "/")
	if c.Server.BasePath != "" && !strings.HasPrefix(c.Server.BasePath, "/") {
		c.Server.BasePath = "/" + c.Server.BasePath
	}
}
