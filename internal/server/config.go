package server

import (
	"fmt"
	"strings"

	"github.com/iwvelando/pfa-tax-calculator/internal/config"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// Options defines runtime parameters for the HTTP handler.
type Options struct {
	BasePath  string // mount prefix, e.g. "/quick-romanian-freelance-tax-calculator"
	RateLimit string // ulule/limiter formatted rate such as "120-M"; empty disables limiting
	Version   string
}

// OptionsFromConfig builds handler options from the server section of the configuration.
func OptionsFromConfig(cfg config.ServerConfig, version string) Options {
	return Options{
		BasePath:  cfg.BasePath,
		RateLimit: cfg.RateLimit,
		Version:   version,
	}
}

func (o Options) normalize() Options {
	o.Version = strings.TrimSpace(o.Version)
	if o.Version == "" {
		o.Version = "dev"
	}

	base := strings.TrimRight(strings.TrimSpace(o.BasePath), "/")
	if base != "" && !strings.HasPrefix(base, "/") {
		base = "/" + base
	}
	o.BasePath = base

	o.RateLimit = strings.TrimSpace(o.RateLimit)
	return o
}

// newLimiter returns an in-memory per-client limiter, or nil when rate is empty.
func newLimiter(rate string) (*limiter.Limiter, error) {
	if rate == "" {
		return nil, nil
	}
	parsed, err := limiter.NewRateFromFormatted(rate)
	if err != nil {
		return nil, fmt.Errorf("invalid rate limit %q: %w", rate, err)
	}
	return limiter.New(memory.NewStore(), parsed), nil
}
