// Package polygon is the Polygon.io options snapshot and daily bar client.
package polygon

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

// DefaultBaseURL is the production REST endpoint
const DefaultBaseURL = "https://api.polygon.io"

// Client handles communication with Polygon.io
// ⭐ SSOT: Polygon API 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
	apiKey     string
	pageLimit  int
}

// NewClient creates a new Polygon client
func NewClient(httpClient *httputil.Client, log *logger.Logger, baseURL, apiKey string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: httpClient,
		logger:     log.WithComponent("polygon"),
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		pageLimit:  250,
	}
}

// ChainQuery narrows a chain snapshot. Expiration is required.
type ChainQuery struct {
	Expiration time.Time
	Strike     *float64 // exact strike
	StrikeGTE  *float64 // strike_price.gte, ignored when Strike is set
}

// SnapshotChain returns call contracts of underlying for one expiration,
// ascending by strike, following next_url pagination
func (c *Client) SnapshotChain(ctx context.Context, underlying string, q ChainQuery) ([]Snapshot, error) {
	params := url.Values{}
	params.Set("contract_type", "call")
	params.Set("sort", "strike_price")
	params.Set("order", "asc")
	params.Set("expiration_date", q.Expiration.Format("2006-01-02"))
	params.Set("limit", strconv.Itoa(c.pageLimit))
	switch {
	case q.Strike != nil:
		params.Set("strike_price", formatFloat(*q.Strike))
	case q.StrikeGTE != nil:
		params.Set("strike_price.gte", formatFloat(*q.StrikeGTE))
	}

	next := c.url(fmt.Sprintf("/v3/snapshot/options/%s", url.PathEscape(strings.ToUpper(underlying))), params)
	results := make([]Snapshot, 0)

	for page := 0; next != ""; page++ {
		var resp chainResponse
		if err := c.httpClient.GetJSON(ctx, next, &resp); err != nil {
			return nil, c.wrap(underlying, err)
		}
		if resp.Status == "ERROR" || resp.Status == "NOT_AUTHORIZED" {
			return nil, fmt.Errorf("polygon chain %s: status %s: %s: %w", underlying, resp.Status, resp.Message, contracts.ErrProviderValidation)
		}

		results = append(results, resp.Results...)
		next = c.withKey(resp.NextURL)
	}

	c.logger.WithTicker(underlying).WithField("contracts", len(results)).Debug("Fetched option chain snapshot")
	return results, nil
}

// SnapshotContract returns one contract snapshot. optionTicker may omit the "O:" prefix.
func (c *Client) SnapshotContract(ctx context.Context, underlying, optionTicker string) (*Snapshot, error) {
	path := fmt.Sprintf("/v3/snapshot/options/%s/%s",
		url.PathEscape(strings.ToUpper(underlying)), url.PathEscape(OptionSymbol(optionTicker)))

	var resp contractResponse
	if err := c.httpClient.GetJSON(ctx, c.url(path, nil), &resp); err != nil {
		return nil, c.wrap(optionTicker, err)
	}
	if resp.Results == nil {
		return nil, fmt.Errorf("option with ticker %s: %w", optionTicker, contracts.ErrNotFound)
	}
	return resp.Results, nil
}

// DailyOpenClose returns the daily bar of a contract on day
func (c *Client) DailyOpenClose(ctx context.Context, optionTicker string, day time.Time) (*OpenClose, error) {
	path := fmt.Sprintf("/v1/open-close/%s/%s", url.PathEscape(OptionSymbol(optionTicker)), day.Format("2006-01-02"))

	var resp OpenClose
	if err := c.httpClient.GetJSON(ctx, c.url(path, nil), &resp); err != nil {
		return nil, c.wrap(optionTicker, err)
	}
	if resp.Status == "NOT_FOUND" {
		return nil, fmt.Errorf("open-close %s %s: %w", optionTicker, day.Format("2006-01-02"), contracts.ErrNotFound)
	}
	return &resp, nil
}

// OptionSymbol adds the "O:" prefix Polygon uses for option tickers
func OptionSymbol(ticker string) string {
	if strings.HasPrefix(ticker, "O:") {
		return ticker
	}
	return "O:" + ticker
}

// StripSymbol removes the "O:" prefix
func StripSymbol(ticker string) string {
	return strings.TrimPrefix(ticker, "O:")
}

func (c *Client) url(path string, params url.Values) string {
	if params == nil {
		params = url.Values{}
	}
	params.Set("apiKey", c.apiKey)
	return fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())
}

// withKey re-attaches the api key to a next_url cursor
func (c *Client) withKey(next string) string {
	if next == "" {
		return ""
	}
	u, err := url.Parse(next)
	if err != nil {
		return ""
	}
	q := u.Query()
	q.Set("apiKey", c.apiKey)
	u.RawQuery = q.Encode()
	return u.String()
}

func (c *Client) wrap(subject string, err error) error {
	switch {
	case errors.Is(err, httputil.ErrNotFound):
		return fmt.Errorf("polygon %s: %w: %w", subject, contracts.ErrNotFound, err)
	case errors.Is(err, httputil.ErrDecode):
		return fmt.Errorf("polygon %s: %w: %w", subject, contracts.ErrProviderValidation, err)
	default:
		return fmt.Errorf("polygon %s: %w", subject, err)
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
