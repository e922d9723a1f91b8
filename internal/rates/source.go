package rates

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/iwvelando/pfa-tax-calculator/pkg/datetime"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/net/html/charset"
)

// Source produces a fresh exchange rate table.
type Source interface {
	Fetch(ctx context.Context) (*Table, error)
}

// StaticSource always returns the same table.
type StaticSource struct {
	Table *Table
}

// Fetch returns the configured table, or ErrNoRates when it is nil.
func (s StaticSource) Fetch(ctx context.Context) (*Table, error) {
	if s.Table == nil {
		return nil, ErrNoRates
	}
	return s.Table, nil
}

// BNRSource downloads the National Bank of Romania reference rate feed.
type BNRSource struct {
	url        string
	base       string
	currencies []string
	client     *http.Client
	logger     *zap.Logger
}

// NewBNRSource returns a source reading url. Rates are expressed in base and
// limited to currencies. A timeout of zero leaves the client without one.
func NewBNRSource(url, base string, currencies []string, timeout time.Duration, logger *zap.Logger) *BNRSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BNRSource{
		url:        url,
		base:       base,
		currencies: append([]string(nil), currencies...),
		client:     &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Fetch downloads and parses the feed.
func (s *BNRSource) Fetch(ctx context.Context) (*Table, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build exchange rate request: %w", err)
	}
	req.Header.Set("Accept", "application/xml, text/xml")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download exchange rates from %s: %w", s.url, err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			s.logger.Warn("failed to close exchange rate response",
				zap.String("op", "rates.BNRSource.Fetch"),
				zap.Error(closeErr),
			)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("exchange rate source %s returned %s", s.url, resp.Status)
	}

	table, err := ParseBNR(resp.Body, time.Now())
	if err != nil {
		return nil, err
	}
	if table.Base() != s.base {
		if table, err = table.Rebase(s.base); err != nil {
			return nil, fmt.Errorf("failed to express exchange rates in %s: %w", s.base, err)
		}
	}

	filtered := table.Filter(s.currencies)
	for _, code := range s.currencies {
		if _, err := filtered.Rate(code); err != nil {
			s.logger.Warn("currency missing from exchange rate feed",
				zap.String("op", "rates.BNRSource.Fetch"),
				zap.String("currency", code),
			)
		}
	}
	return filtered, nil
}

type bnrDataSet struct {
	XMLName xml.Name `xml:"DataSet"`
	Header  struct {
		PublishingDate string `xml:"PublishingDate"`
	} `xml:"Header"`
	Body struct {
		OrigCurrency string    `xml:"OrigCurrency"`
		Cubes        []bnrCube `xml:"Cube"`
	} `xml:"Body"`
}

type bnrCube struct {
	Date  string    `xml:"date,attr"`
	Rates []bnrRate `xml:"Rate"`
}

type bnrRate struct {
	Currency   string `xml:"currency,attr"`
	Multiplier string `xml:"multiplier,attr"`
	Value      string `xml:",chardata"`
}

// ParseBNR decodes a BNR reference rate document. When the document holds
// several days, the most recent one is used. Rates quoted per 100 units
// (the multiplier attribute) are normalised to one unit.
func ParseBNR(r io.Reader, fetchedAt time.Time) (*Table, error) {
	decoder := xml.NewDecoder(r)
	decoder.CharsetReader = charset.NewReaderLabel

	var doc bnrDataSet
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode exchange rate feed: %w", err)
	}

	base := strings.TrimSpace(doc.Body.OrigCurrency)
	if base == "" {
		return nil, fmt.Errorf("exchange rate feed has no origin currency")
	}
	if len(doc.Body.Cubes) == 0 {
		return nil, fmt.Errorf("exchange rate feed has no rates")
	}

	latest := doc.Body.Cubes[0]
	for _, cube := range doc.Body.Cubes[1:] {
		later, err := datetime.DateAfterDate(cube.Date, latest.Date)
		if err != nil {
			return nil, fmt.Errorf("invalid exchange rate date: %w", err)
		}
		if later {
			latest = cube
		}
	}

	date, err := datetime.ParseDate(latest.Date)
	if err != nil {
		return nil, fmt.Errorf("invalid exchange rate date %q: %w", latest.Date, err)
	}

	perUnit := make(map[string]decimal.Decimal, len(latest.Rates))
	for _, rate := range latest.Rates {
		value, err := decimal.NewFromString(strings.TrimSpace(rate.Value))
		if err != nil {
			return nil, fmt.Errorf("invalid rate %q for %s: %w", rate.Value, rate.Currency, err)
		}
		if rate.Multiplier != "" {
			multiplier, err := decimal.NewFromString(strings.TrimSpace(rate.Multiplier))
			if err != nil || !multiplier.IsPositive() {
				return nil, fmt.Errorf("invalid multiplier %q for %s", rate.Multiplier, rate.Currency)
			}
			value = value.Div(multiplier)
		}
		perUnit[strings.ToUpper(strings.TrimSpace(rate.Currency))] = value
	}

	return NewTable(base, date, fetchedAt, perUnit), nil
}
