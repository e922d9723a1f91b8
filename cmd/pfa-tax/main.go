package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/iwvelando/pfa-tax-calculator/internal/config"
	"github.com/iwvelando/pfa-tax-calculator/internal/logging"
	"github.com/iwvelando/pfa-tax-calculator/internal/optimizer"
	"github.com/iwvelando/pfa-tax-calculator/internal/rates"
	"github.com/iwvelando/pfa-tax-calculator/internal/report"
	"github.com/iwvelando/pfa-tax-calculator/internal/tax"
	"github.com/iwvelando/pfa-tax-calculator/pkg/constants"
	"github.com/iwvelando/pfa-tax-calculator/pkg/format"
	"github.com/iwvelando/pfa-tax-calculator/pkg/optimization"
	"github.com/iwvelando/pfa-tax-calculator/pkg/output"
	"github.com/iwvelando/pfa-tax-calculator/pkg/validation"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

func main() {
	// Process command line flags first to get config location
	configLocation := flag.String("config", constants.DefaultConfigFile, "path to configuration file")
	grossFlag := flag.String("gross", "", "gross income per period in the base currency (default: configured base monthly income)")
	periodFlag := flag.String("period", "", "period the income is earned over: weekly, monthly, annual")
	currencyFlag := flag.String("currency", "", "display currency (default: base currency)")
	outputFormatFlag := flag.String("output-format", "", "type of output override: pretty, csv, json")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	targetNetFlag := flag.String("target-net", "", "solve for the monthly gross income that yields this net income instead")
	dumpConfig := flag.Bool("dump-config", false, "print the effective configuration as YAML and exit")
	flag.Parse()

	conf, err := loadConfiguration(*configLocation)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load configuration at %s\", \"error\": \"%v\"}\n", *configLocation, err)
		os.Exit(1)
	}

	if *dumpConfig {
		if err := yaml.NewEncoder(os.Stdout).Encode(conf); err != nil {
			fmt.Fprintf(os.Stderr, "failed to encode configuration: %v\n", err)
			os.Exit(1)
		}
		return
	}

	logger, err := logging.New(conf.Logging, *logLevel)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	// CLI override takes precedence over config
	outputFormat := conf.Output.Format
	if *outputFormatFlag != "" {
		outputFormat = *outputFormatFlag
	}
	if outputFormat == "" {
		outputFormat = constants.OutputFormatPretty
	}
	if err := validation.ValidateOutputFormat(outputFormat); err != nil {
		logger.Fatal(err.Error(),
			zap.String("op", "main"),
		)
	}

	for _, warning := range conf.ValidateConfiguration() {
		logger.Warn("Configuration warning: "+warning,
			zap.String("op", "main"),
		)
	}

	taxConf := conf.TaxConfiguration()
	req, err := buildRequest(taxConf, *grossFlag, *periodFlag, *currencyFlag)
	if err != nil {
		logger.Fatal("invalid request",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}

	formatter, err := format.NewFormatter(conf.Currency.Locale)
	if err != nil {
		logger.Fatal("failed to build formatter",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}

	if strings.TrimSpace(*targetNetFlag) != "" {
		summary, err := solveGrossForNet(logger, taxConf, formatter, *targetNetFlag)
		if err != nil {
			logger.Fatal("optimizer execution failed",
				zap.String("op", "main"),
				zap.Error(err),
			)
		}
		if err := output.WriteSummary(os.Stdout, outputFormat, summary); err != nil {
			logger.Fatal("failed to write optimizer result",
				zap.String("op", "main"),
				zap.Error(err),
			)
		}
		return
	}

	// Rates are only needed to show a currency other than the base one.
	var provider report.RateProvider
	if req.Currency != taxConf.BaseCurrency {
		cache := rates.NewCache(conf.ExchangeRates.Cache)
		refresher := rates.NewRefresher(rates.NewSource(conf, logger), cache, taxConf.ReloadInterval(), logger)
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout(conf))
		refresher.Start(ctx)
		refresher.Stop()
		cancel()
		if closer, ok := cache.(io.Closer); ok {
			_ = closer.Close()
		}
		provider = refresher
	}

	builder := report.NewBuilder(tax.NewCalculator(taxConf, logger), formatter, provider)
	rep, err := builder.Build(req)
	if err != nil {
		logger.Fatal("failed to compute breakdown",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}

	if err := output.Write(os.Stdout, outputFormat, rep); err != nil {
		logger.Fatal("failed to write breakdown",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}
}

// loadConfiguration reads path. The default file is optional: when it is
// absent the built-in defaults (plus environment overrides) are used.
func loadConfiguration(path string) (*config.Configuration, error) {
	if path == constants.DefaultConfigFile {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			path = ""
		}
	}
	return config.LoadConfiguration(path)
}

func buildRequest(cfg config.TaxConfiguration, gross, period, currency string) (report.Request, error) {
	p, err := tax.ParsePeriod(period)
	if err != nil {
		return report.Request{}, err
	}

	req := report.Request{Period: p, Currency: strings.ToUpper(strings.TrimSpace(currency))}
	if req.Currency == "" {
		req.Currency = cfg.BaseCurrency
	}

	if strings.TrimSpace(gross) == "" {
		req.Amount, err = tax.FromMonthly(cfg.BaseMonthlyIncome, p, cfg)
		return req, err
	}
	req.Amount, err = strconv.ParseFloat(strings.TrimSpace(gross), 64)
	if err != nil {
		return report.Request{}, fmt.Errorf("invalid gross %q: must be a number", gross)
	}
	return req, nil
}

// solveGrossForNet parses target and runs the gross-for-net solver on it.
// Negative and non-finite targets are rejected by the solver.
func solveGrossForNet(logger *zap.Logger, cfg config.TaxConfiguration, formatter *format.Formatter, target string) (optimization.Summary, error) {
	targetNet, err := strconv.ParseFloat(strings.TrimSpace(target), 64)
	if err != nil {
		return optimization.Summary{}, fmt.Errorf("invalid target net %q: must be a number", target)
	}
	runner, err := optimizer.NewRunner(logger, tax.NewCalculator(cfg, logger), formatter, optimizer.DefaultConfig())
	if err != nil {
		return optimization.Summary{}, fmt.Errorf("failed to initialize optimizer: %w", err)
	}
	return runner.GrossForNet(targetNet)
}

func fetchTimeout(conf *config.Configuration) time.Duration {
	if conf.ExchangeRates.RequestTimeout > 0 {
		return conf.ExchangeRates.RequestTimeout
	}
	timeout, _ := time.ParseDuration(constants.DefaultExchangeRateRequestTimeout)
	return timeout
}
