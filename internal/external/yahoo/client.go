// Package yahoo reads quotes, calendar events, daily closes and option
// quotes from the Yahoo Finance JSON endpoints.
package yahoo

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/wonny/spreadscreener/internal/contracts"
	"github.com/wonny/spreadscreener/pkg/httputil"
	"github.com/wonny/spreadscreener/pkg/logger"
)

// DefaultBaseURL is the public query host
const DefaultBaseURL = "https://query2.finance.yahoo.com"

// Client handles communication with Yahoo Finance
// ⭐ SSOT: Yahoo Finance 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
}

// NewClient creates a new Yahoo Finance client
func NewClient(httpClient *httputil.Client, log *logger.Logger, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: httpClient,
		logger:     log.WithComponent("yahoo"),
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// Quote returns the live quote of ticker
func (c *Client) Quote(ctx context.Context, ticker string) (*Quote, error) {
	params := url.Values{}
	params.Set("symbols", strings.ToUpper(ticker))

	var resp quoteResponse
	if err := c.httpClient.GetJSON(ctx, c.url("/v7/finance/quote", params), &resp); err != nil {
		return nil, c.wrap(ticker, err)
	}
	if resp.QuoteResponse.Error != nil {
		return nil, fmt.Errorf("yahoo quote %s: %s: %w", ticker, resp.QuoteResponse.Error.Description, contracts.ErrProviderValidation)
	}
	for i := range resp.QuoteResponse.Result {
		q := resp.QuoteResponse.Result[i]
		if strings.EqualFold(q.Symbol, ticker) {
			if q.RegularMarketPrice == nil {
				return nil, fmt.Errorf("yahoo quote %s: missing regularMarketPrice: %w", ticker, contracts.ErrProviderValidation)
			}
			return &q, nil
		}
	}
	return nil, fmt.Errorf("Quote not found for ticker symbol: %s: %w", strings.ToUpper(ticker), contracts.ErrNotFound)
}

// CalendarEvents returns earnings and dividend dates. Only equities carry them.
func (c *Client) CalendarEvents(ctx context.Context, ticker string) (*CalendarEvents, error) {
	params := url.Values{}
	params.Set("modules", "calendarEvents")

	var resp quoteSummaryResponse
	path := "/v10/finance/quoteSummary/" + url.PathEscape(strings.ToUpper(ticker))
	if err := c.httpClient.GetJSON(ctx, c.url(path, params), &resp); err != nil {
		return nil, c.wrap(ticker, err)
	}
	if len(resp.QuoteSummary.Result) == 0 {
		return nil, fmt.Errorf("yahoo calendar %s: %w", ticker, contracts.ErrNotFound)
	}
	return &resp.QuoteSummary.Result[0].CalendarEvents, nil
}

// DailyCloses returns daily closes in [from, to]; null closes are skipped
func (c *Client) DailyCloses(ctx context.Context, ticker string, from, to time.Time) ([]contracts.HistoricalPrice, error) {
	params := url.Values{}
	params.Set("period1", strconv.FormatInt(from.Unix(), 10))
	params.Set("period2", strconv.FormatInt(to.Unix(), 10))
	params.Set("interval", "1d")

	var resp chartResponse
	path := "/v8/finance/chart/" + url.PathEscape(strings.ToUpper(ticker))
	if err := c.httpClient.GetJSON(ctx, c.url(path, params), &resp); err != nil {
		return nil, c.wrap(ticker, err)
	}
	if resp.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo chart %s: %s: %w", ticker, resp.Chart.Error.Description, contracts.ErrNotFound)
	}
	if len(resp.Chart.Result) == 0 {
		return nil, fmt.Errorf("yahoo chart %s: empty result: %w", ticker, contracts.ErrProviderValidation)
	}

	return parseChart(resp.Chart.Result[0])
}

// OptionQuotes returns the call quotes of one expiration
func (c *Client) OptionQuotes(ctx context.Context, ticker string, expiration time.Time) ([]OptionQuote, error) {
	day := time.Date(expiration.Year(), expiration.Month(), expiration.Day(), 0, 0, 0, 0, time.UTC)
	params := url.Values{}
	params.Set("date", strconv.FormatInt(day.Unix(), 10))

	var resp optionsResponse
	path := "/v7/finance/options/" + url.PathEscape(strings.ToUpper(ticker))
	if err := c.httpClient.GetJSON(ctx, c.url(path, params), &resp); err != nil {
		return nil, c.wrap(ticker, err)
	}
	if resp.OptionChain.Error != nil {
		return nil, fmt.Errorf("yahoo options %s: %s: %w", ticker, resp.OptionChain.Error.Description, contracts.ErrProviderValidation)
	}
	if len(resp.OptionChain.Result) == 0 {
		return nil, fmt.Errorf("yahoo options %s: %w", ticker, contracts.ErrNotFound)
	}
	result := resp.OptionChain.Result[0]
	if len(result.Options) == 0 {
		return []OptionQuote{}, nil
	}
	return result.Options[0].Calls, nil
}

func parseChart(r chartResult) ([]contracts.HistoricalPrice, error) {
	if len(r.Indicators.Quote) == 0 {
		return []contracts.HistoricalPrice{}, nil
	}
	closes := r.Indicators.Quote[0].Close
	if len(closes) != len(r.Timestamp) {
		return nil, fmt.Errorf("yahoo chart: %d timestamps, %d closes: %w", len(r.Timestamp), len(closes), contracts.ErrProviderValidation)
	}

	prices := make([]contracts.HistoricalPrice, 0, len(closes))
	for i, ts := range r.Timestamp {
		if closes[i] == nil {
			continue
		}
		prices = append(prices, contracts.HistoricalPrice{
			Date:  time.Unix(ts, 0).UTC(),
			Price: *closes[i],
		})
	}
	return prices, nil
}

func (c *Client) url(path string, params url.Values) string {
	return fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())
}

func (c *Client) wrap(ticker string, err error) error {
	switch {
	case errors.Is(err, httputil.ErrNotFound):
		return fmt.Errorf("Quote not found for ticker symbol: %s: %w: %w", strings.ToUpper(ticker), contracts.ErrNotFound, err)
	case errors.Is(err, httputil.ErrDecode):
		return fmt.Errorf("yahoo %s: %w: %w", ticker, contracts.ErrProviderValidation, err)
	default:
		return fmt.Errorf("yahoo %s: %w", ticker, err)
	}
}
