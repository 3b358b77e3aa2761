package research

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/wonny/aurum/internal/contracts"
	"github.com/wonny/aurum/pkg/config"
	"github.com/wonny/aurum/pkg/httputil"
	"github.com/wonny/aurum/pkg/logger"
	"github.com/wonny/aurum/pkg/redis"
)

// Client scrapes the research portal's per-ticker summary page into the
// tier-2 qualitative bundle and implements contracts.ResearchProvider.
// Any row the page does not carry stays nil in the bundle; triage treats
// absence as "no flag".
type Client struct {
	http    *httputil.Client
	cache   *redis.Cache
	baseURL string
	logger  *logger.Logger
}

// New creates a new research client.
func New(cfg config.ResearchConfig, httpClient *httputil.Client, cache *redis.Cache, log *logger.Logger) *Client {
	return &Client{
		http:    httpClient,
		cache:   cache,
		baseURL: cfg.BaseURL,
		logger:  log,
	}
}

// Bundle fetches and parses the qualitative bundle for one ticker.
func (c *Client) Bundle(ctx context.Context, ticker string) (*contracts.QualitativeBundle, error) {
	var bundle contracts.QualitativeBundle
	if hit, _ := c.cache.Get(ctx, redis.ResearchKey(ticker), &bundle); hit {
		return &bundle, nil
	}

	html, err := c.fetchHTML(ctx, ticker)
	if err != nil {
		return nil, fmt.Errorf("research fetch for %s: %w", ticker, err)
	}

	parsed, err := parseSummary(html, ticker)
	if err != nil {
		return nil, fmt.Errorf("research parse for %s: %w", ticker, err)
	}

	if err := c.cache.Set(ctx, redis.ResearchKey(ticker), parsed, redis.TTLResearch); err != nil {
		c.logger.WithError(err).Warn("Research cache write failed")
	}

	return parsed, nil
}

func (c *Client) fetchHTML(ctx context.Context, ticker string) (string, error) {
	fullURL := fmt.Sprintf("%s/summary/%s", c.baseURL, url.PathEscape(ticker))

	resp, err := c.http.Get(ctx, fullURL)
	if err != nil {
		return "", fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	return string(body), nil
}

// parseSummary walks the summary stats table. Row labels are stable on the
// portal; values are percentages or plain counts.
func parseSummary(html, ticker string) (*contracts.QualitativeBundle, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	bundle := &contracts.QualitativeBundle{Ticker: ticker}

	doc.Find("table.research-summary tr").Each(func(i int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 2 {
			return
		}

		label := strings.ToLower(strings.TrimSpace(cells.Eq(0).Text()))
		value := strings.TrimSpace(cells.Eq(1).Text())

		switch label {
		case "consensus bullish":
			bundle.ConsensusBullishPct = parsePct(value)
		case "consensus bearish":
			bundle.ConsensusBearishPct = parsePct(value)
		case "target upside":
			bundle.TargetUpsidePct = parsePct(value)
		case "short interest":
			bundle.ShortInterestPct = parsePct(value)
		case "beta":
			bundle.Beta = parseFloat(value)
		case "earnings surprise":
			bundle.EarningsSurprisePct = parsePct(value)
		case "consecutive misses":
			bundle.ConsecutiveMisses = parseInt(value)
		case "recent upgrades":
			bundle.RecentUpgrades = parseInt(value)
		case "recent downgrades":
			bundle.RecentDowngrades = parseInt(value)
		}
	})

	return bundle, nil
}

func parsePct(s string) *float64 {
	s = strings.TrimSuffix(strings.TrimSpace(s), "%")
	return parseFloat(s)
}

func parseFloat(s string) *float64 {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	s = strings.TrimPrefix(s, "+")
	if s == "" || s == "-" || s == "N/A" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

func parseInt(s string) int {
	s = strings.TrimSpace(s)
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
