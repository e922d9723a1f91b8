package rates

import (
	"strings"

	"github.com/iwvelando/pfa-tax-calculator/internal/config"
	"go.uber.org/zap"
)

// NewSource returns the BNR feed named by conf, or an empty StaticSource
// when no source URL is configured.
func NewSource(conf *config.Configuration, logger *zap.Logger) Source {
	url := strings.TrimSpace(conf.ExchangeRates.SourceURL)
	if url == "" {
		return StaticSource{}
	}
	return NewBNRSource(url, conf.Currency.Base, conf.Currency.Supported, conf.ExchangeRates.RequestTimeout, logger)
}

// NewCache returns a RedisCache when cfg names an address, otherwise a MemoryCache.
func NewCache(cfg config.CacheConfig) Cache {
	if addr := strings.TrimSpace(cfg.RedisAddress); addr != "" {
		return NewRedisCache(addr, cfg.Key, cfg.TTL)
	}
	return NewMemoryCache()
}
