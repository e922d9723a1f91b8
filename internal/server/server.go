package server

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/iwvelando/pfa-tax-calculator/internal/config"
	"github.com/iwvelando/pfa-tax-calculator/internal/optimizer"
	"github.com/iwvelando/pfa-tax-calculator/internal/rates"
	"github.com/iwvelando/pfa-tax-calculator/internal/report"
	"github.com/iwvelando/pfa-tax-calculator/internal/tax"
	"github.com/iwvelando/pfa-tax-calculator/pkg/apperrors"
	"github.com/iwvelando/pfa-tax-calculator/pkg/constants"
	"github.com/iwvelando/pfa-tax-calculator/pkg/datetime"
	"github.com/iwvelando/pfa-tax-calculator/pkg/format"
	"github.com/ulule/limiter/v3"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

//go:embed templates/*
var templateFiles embed.FS

// RateService is the part of *rates.Refresher the handlers use.
type RateService interface {
	Current() (*rates.Table, error)
	Refresh(ctx context.Context) error
}

type handler struct {
	logger    *zap.Logger
	conf      *config.Configuration
	calc      *tax.Calculator
	builder   *report.Builder
	solver    *optimizer.Runner
	formatter *format.Formatter
	rates     RateService
	limiter   *limiter.Limiter
	page      *template.Template
	opts      Options
}

// NewHandler constructs the HTTP handler that serves the summary page and the
// breakdown API. svc may be nil, in which case only the base currency can be shown.
func NewHandler(logger *zap.Logger, conf *config.Configuration, svc RateService, opts Options) (http.Handler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if conf == nil {
		conf = config.Default()
	}
	opts = opts.normalize()

	formatter, err := format.NewFormatter(conf.Currency.Locale)
	if err != nil {
		return nil, err
	}

	lim, err := newLimiter(opts.RateLimit)
	if err != nil {
		return nil, err
	}

	page, err := template.ParseFS(templateFiles, "templates/index.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse page template: %w", err)
	}

	calc := tax.NewCalculator(conf.TaxConfiguration(), logger)
	solver, err := optimizer.NewRunner(logger, calc, formatter, optimizer.DefaultConfig())
	if err != nil {
		return nil, err
	}

	var provider report.RateProvider
	if svc != nil {
		provider = svc
	}

	h := &handler{
		logger:    logger,
		conf:      conf,
		calc:      calc,
		builder:   report.NewBuilder(calc, formatter, provider),
		solver:    solver,
		formatter: formatter,
		rates:     svc,
		limiter:   lim,
		page:      page,
		opts:      opts,
	}

	mux := http.NewServeMux()

	// Breakdown API endpoint
	mux.HandleFunc("/api/breakdown", h.handleBreakdown)

	// Reverse calculation: gross income needed for a net income
	mux.HandleFunc("/api/gross-for-net", h.handleGrossForNet)

	// Exchange rate snapshot and manual refresh
	mux.HandleFunc("/api/rates", h.handleRates)
	mux.HandleFunc("/api/rates/refresh", h.handleRatesRefresh)

	// Effective configuration
	mux.HandleFunc("/api/config", h.handleConfig)

	// Version endpoint for UI metadata
	mux.HandleFunc("/api/version", h.handleVersion)

	// Summary page
	mux.HandleFunc("/", h.handleIndex)

	var root http.Handler = mux
	if opts.BasePath != "" {
		mounted := http.NewServeMux()
		mounted.Handle(opts.BasePath+"/", http.StripPrefix(opts.BasePath, mux))
		root = mounted
	}

	return h.requestLogger(h.rateLimit(root)), nil
}

type rateEntry struct {
	Code string  `json:"code"`
	Rate float64 `json:"rate"`
	Text string  `json:"text"`
}

type ratesResponse struct {
	Base      string      `json:"base"`
	Date      string      `json:"date"`
	FetchedAt time.Time   `json:"fetchedAt"`
	Rates     []rateEntry `json:"rates"`
}

type option struct {
	Value    string
	Label    string
	Selected bool
}

type pageData struct {
	Title      string
	Subtitle   string
	BasePath   string
	Gross      string
	Periods    []option
	Currencies []option
	Report     *report.Report
	Rates      *ratesResponse
	Error      string
}

func (h *handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	status := http.StatusOK
	data := pageData{
		Title:    constants.PageTitle,
		Subtitle: constants.PageSubtitle,
		BasePath: h.opts.BasePath,
	}

	req, err := h.parseBreakdownRequest(r.URL.Query())
	if err == nil {
		var rep report.Report
		if rep, err = h.builder.Build(req); err == nil {
			data.Report = &rep
		}
	}
	if err != nil {
		status = statusFor(err)
		data.Error = err.Error()
		h.logger.Warn("summary page request rejected",
			zap.String("op", "server.handleIndex"),
			zap.Int("status", status),
			zap.Error(err),
		)
	}

	data.Gross = strconv.FormatFloat(req.Amount, 'f', -1, 64)
	data.Periods = periodOptions(req.Period)
	data.Currencies = currencyOptions(h.conf.Currency.Supported, req.Currency)
	if summary, rateErr := h.currentRates(); rateErr == nil {
		data.Rates = &summary
	}

	var buf bytes.Buffer
	if err := h.page.Execute(&buf, data); err != nil {
		h.respondErrorWithOp(w, http.StatusInternalServerError, fmt.Sprintf("failed to render page: %v", err), "server.handleIndex")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.Error("failed to write page", zap.String("op", "server.handleIndex"), zap.Error(err))
	}
}

func (h *handler) handleBreakdown(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	const op = "server.handleBreakdown"
	req, err := h.parseBreakdownRequest(r.URL.Query())
	if err != nil {
		h.respondErrorWithOp(w, statusFor(err), err.Error(), op)
		return
	}

	rep, err := h.builder.Build(req)
	if err != nil {
		h.respondErrorWithOp(w, statusFor(err), err.Error(), op)
		return
	}

	h.logger.Debug("breakdown computed",
		zap.String("op", op),
		zap.Float64("amount", req.Amount),
		zap.String("period", string(rep.Period)),
		zap.String("currency", rep.Currency),
	)
	h.writeJSON(w, http.StatusOK, rep)
}

func (h *handler) handleGrossForNet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	const op = "server.handleGrossForNet"
	raw := strings.TrimSpace(r.URL.Query().Get("net"))
	if raw == "" {
		h.respondErrorWithOp(w, http.StatusBadRequest, "missing net", op)
		return
	}
	target, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("invalid net %q: must be a number", raw), op)
		return
	}

	summary, err := h.solver.GrossForNet(target)
	if err != nil {
		h.respondErrorWithOp(w, statusFor(err), err.Error(), op)
		return
	}
	h.writeJSON(w, http.StatusOK, summary)
}

func (h *handler) handleRates(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	summary, err := h.currentRates()
	if err != nil {
		h.respondErrorWithOp(w, statusFor(err), err.Error(), "server.handleRates")
		return
	}
	h.writeJSON(w, http.StatusOK, summary)
}

func (h *handler) handleRatesRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	const op = "server.handleRatesRefresh"
	if h.rates == nil {
		h.respondErrorWithOp(w, http.StatusServiceUnavailable, rates.ErrNoRates.Error(), op)
		return
	}

	if err := h.rates.Refresh(r.Context()); err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			status = http.StatusBadGateway
		}
		h.respondErrorWithOp(w, status, err.Error(), op)
		return
	}

	summary, err := h.currentRates()
	if err != nil {
		h.respondErrorWithOp(w, statusFor(err), err.Error(), op)
		return
	}
	h.writeJSON(w, http.StatusOK, summary)
}

func (h *handler) handleConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	const op = "server.handleConfig"
	configBytes, err := yaml.Marshal(h.conf)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusInternalServerError, fmt.Sprintf("failed to encode configuration: %v", err), op)
		return
	}

	if strings.EqualFold(r.URL.Query().Get("format"), "yaml") {
		w.Header().Set("Content-Type", "application/yaml")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(configBytes); err != nil {
			h.logger.Error("failed to write configuration", zap.String("op", op), zap.Error(err))
		}
		return
	}

	configMap, err := decodeYAMLToMap(configBytes)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusInternalServerError, fmt.Sprintf("failed to decode configuration: %v", err), op)
		return
	}
	h.writeJSON(w, http.StatusOK, configMap)
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.opts.Version,
	})
}

// parseBreakdownRequest reads gross, period and currency from a query. A
// missing gross means the configured base monthly income, rescaled to period.
// The returned request is usable for display even when err is non-nil.
func (h *handler) parseBreakdownRequest(query url.Values) (report.Request, error) {
	cfg := h.calc.Configuration()
	req := report.Request{
		Period:   tax.Monthly,
		Currency: cfg.BaseCurrency,
		Amount:   cfg.BaseMonthlyIncome,
	}

	period, err := tax.ParsePeriod(query.Get("period"))
	if err != nil {
		return req, badRequest(err)
	}
	req.Period = period

	if currency := strings.ToUpper(strings.TrimSpace(query.Get("currency"))); currency != "" {
		req.Currency = currency
	}

	raw := strings.TrimSpace(query.Get("gross"))
	if raw == "" {
		amount, err := tax.FromMonthly(cfg.BaseMonthlyIncome, period, cfg)
		if err != nil {
			return req, badRequest(err)
		}
		req.Amount = amount
		return req, nil
	}

	amount, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return req, badRequest(fmt.Errorf("invalid gross %q: must be a number", raw))
	}
	req.Amount = amount
	return req, nil
}

func (h *handler) currentRates() (ratesResponse, error) {
	if h.rates == nil {
		return ratesResponse{}, rates.ErrNoRates
	}
	table, err := h.rates.Current()
	if err != nil {
		return ratesResponse{}, err
	}

	summary := ratesResponse{
		Base:      table.Base(),
		Date:      datetime.FormatDate(table.Date()),
		FetchedAt: table.FetchedAt(),
	}
	for _, code := range table.Codes() {
		if code == table.Base() {
			continue
		}
		rate, err := table.RateFloat(code)
		if err != nil {
			return ratesResponse{}, err
		}
		text, err := h.formatter.ExchangeRate(rate)
		if err != nil {
			return ratesResponse{}, err
		}
		summary.Rates = append(summary.Rates, rateEntry{Code: code, Rate: rate, Text: text})
	}
	return summary, nil
}

func periodOptions(selected tax.Period) []option {
	periods := []tax.Period{tax.Weekly, tax.Monthly, tax.Annual}
	options := make([]option, 0, len(periods))
	for _, p := range periods {
		options = append(options, option{Value: string(p), Label: p.Label(), Selected: p == selected})
	}
	return options
}

func currencyOptions(supported []string, selected string) []option {
	options := make([]option, 0, len(supported))
	for _, code := range supported {
		options = append(options, option{Value: code, Label: code, Selected: code == selected})
	}
	return options
}

// requestError marks an error caused by a malformed request.
type requestError struct {
	err error
}

func badRequest(err error) error {
	return &requestError{err: err}
}

func (e *requestError) Error() string { return e.err.Error() }

func (e *requestError) Unwrap() error { return e.err }

func statusFor(err error) int {
	var reqErr *requestError
	switch {
	case errors.As(err, &reqErr),
		errors.Is(err, apperrors.ErrInvalidInput),
		errors.Is(err, rates.ErrUnknownCurrency):
		return http.StatusBadRequest
	case errors.Is(err, rates.ErrRefreshInProgress):
		return http.StatusConflict
	case errors.Is(err, rates.ErrNoRates):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func decodeYAMLToMap(data []byte) (map[string]interface{}, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return make(map[string]interface{}), nil
	}

	var result map[string]interface{}
	if err := yaml.Unmarshal(trimmed, &result); err != nil {
		return nil, err
	}
	if result == nil {
		result = make(map[string]interface{})
	}
	return result, nil
}

func (h *handler) respondErrorWithOp(w http.ResponseWriter, status int, msg string, op string) {
	h.logger.Error("request failed",
		zap.String("op", op),
		zap.Int("status", status),
		zap.String("error", msg),
	)

	h.writeJSON(w, status, map[string]string{"error": msg})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}
