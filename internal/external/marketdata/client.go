package marketdata

import (
	"context"
	"fmt"
	"net/url"

	"golang.org/x/time/rate"

	"github.com/wonny/aurum/internal/contracts"
	"github.com/wonny/aurum/pkg/config"
	"github.com/wonny/aurum/pkg/httputil"
	"github.com/wonny/aurum/pkg/logger"
	"github.com/wonny/aurum/pkg/redis"
)

// Client fetches quotes and fundamentals from the market-data API and
// implements contracts.MetricProvider. Every field in the upstream payload
// is optional; nulls pass through as nil pointers and scoring handles the
// rest. The rate limiter lives on the HTTP client, one instance per
// process.
type Client struct {
	http    *httputil.Client
	cache   *redis.Cache
	baseURL string
	apiKey  string
	logger  *logger.Logger
}

// New creates a new market-data client.
func New(cfg config.MarketDataConfig, log *logger.Logger, cache *redis.Cache) *Client {
	limiter := rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst)

	return &Client{
		http:    httputil.New(log).WithRateLimiter(limiter),
		cache:   cache,
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		logger:  log,
	}
}

// quoteResponse mirrors the upstream quote payload.
type quoteResponse struct {
	Ticker    string   `json:"ticker"`
	Sector    string   `json:"sector"`
	Price     *float64 `json:"price"`
	Beta      *float64 `json:"beta"`
	Change52W *float64 `json:"change_52w_pct"`
	MarketCap *float64 `json:"market_cap"`
}

// fundamentalsResponse mirrors the upstream fundamentals payload.
type fundamentalsResponse struct {
	Ticker        string   `json:"ticker"`
	PE            *float64 `json:"pe_ratio"`
	PB            *float64 `json:"pb_ratio"`
	PS            *float64 `json:"ps_ratio"`
	DividendYield *float64 `json:"dividend_yield_pct"`
	ProfitMargin  *float64 `json:"profit_margin_pct"`
	ROE           *float64 `json:"roe_pct"`
	CurrentRatio  *float64 `json:"current_ratio"`
	DebtToEquity  *float64 `json:"debt_to_equity"`
	RevenueGrowth *float64 `json:"revenue_growth_pct"`
	EPSGrowth     *float64 `json:"eps_growth_pct"`
}

// Snapshot fetches the combined metric snapshot for one ticker. Quote and
// fundamentals come from separate endpoints with separate cache TTLs; the
// snapshot fails only when the quote does — missing fundamentals degrade
// to nil fields.
func (c *Client) Snapshot(ctx context.Context, ticker string) (*contracts.Candidate, error) {
	quote, err := c.fetchQuote(ctx, ticker)
	if err != nil {
		return nil, fmt.Errorf("quote fetch for %s: %w", ticker, err)
	}

	candidate := &contracts.Candidate{
		Ticker: ticker,
		Sector: quote.Sector,
		Metrics: contracts.MetricSnapshot{
			Price:     quote.Price,
			Beta:      quote.Beta,
			Change52W: quote.Change52W,
			MarketCap: quote.MarketCap,
		},
	}

	fund, err := c.fetchFundamentals(ctx, ticker)
	if err != nil {
		c.logger.WithFields(map[string]interface{}{
			"ticker": ticker,
			"error":  err.Error(),
		}).Warn("Fundamentals fetch failed, scoring on quote fields only")
		return candidate, nil
	}

	candidate.Metrics.PE = fund.PE
	candidate.Metrics.PB = fund.PB
	candidate.Metrics.PS = fund.PS
	candidate.Metrics.DividendYield = fund.DividendYield
	candidate.Metrics.ProfitMargin = fund.ProfitMargin
	candidate.Metrics.ROE = fund.ROE
	candidate.Metrics.CurrentRatio = fund.CurrentRatio
	candidate.Metrics.DebtToEquity = fund.DebtToEquity
	candidate.Metrics.RevenueGrowth = fund.RevenueGrowth
	candidate.Metrics.EPSGrowth = fund.EPSGrowth

	return candidate, nil
}

func (c *Client) fetchQuote(ctx context.Context, ticker string) (*quoteResponse, error) {
	var quote quoteResponse

	if hit, _ := c.cache.Get(ctx, redis.QuoteKey(ticker), &quote); hit {
		return &quote, nil
	}

	if err := c.http.GetJSON(ctx, c.endpoint("quote", ticker), &quote); err != nil {
		return nil, err
	}

	if err := c.cache.Set(ctx, redis.QuoteKey(ticker), &quote, redis.TTLQuote); err != nil {
		c.logger.WithError(err).Warn("Quote cache write failed")
	}

	return &quote, nil
}

func (c *Client) fetchFundamentals(ctx context.Context, ticker string) (*fundamentalsResponse, error) {
	var fund fundamentalsResponse

	if hit, _ := c.cache.Get(ctx, redis.FundamentalsKey(ticker), &fund); hit {
		return &fund, nil
	}

	if err := c.http.GetJSON(ctx, c.endpoint("fundamentals", ticker), &fund); err != nil {
		return nil, err
	}

	if err := c.cache.Set(ctx, redis.FundamentalsKey(ticker), &fund, redis.TTLFundamental); err != nil {
		c.logger.WithError(err).Warn("Fundamentals cache write failed")
	}

	return &fund, nil
}

func (c *Client) endpoint(kind, ticker string) string {
	return fmt.Sprintf("%s/%s/%s?apikey=%s", c.baseURL, kind, url.PathEscape(ticker), url.QueryEscape(c.apiKey))
}
