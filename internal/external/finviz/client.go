// Package finviz scrapes the earnings date off the Finviz quote snapshot.
// It is the fallback when Yahoo calendar events carry no earnings date.
package finviz

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/wonny/spreadscreener/internal/contracts"
	"github.com/wonny/spreadscreener/pkg/httputil"
	"github.com/wonny/spreadscreener/pkg/logger"
)

// DefaultBaseURL is the public site
const DefaultBaseURL = "https://finviz.com"

// Client scrapes Finviz quote pages
// ⭐ SSOT: Finviz 스크래핑은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
	now        func() time.Time
}

// NewClient creates a new Finviz client
func NewClient(httpClient *httputil.Client, log *logger.Logger, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: httpClient.WithHeader("User-Agent", "Mozilla/5.0 (spreadscreener)"),
		logger:     log.WithComponent("finviz"),
		baseURL:    strings.TrimRight(baseURL, "/"),
		now:        time.Now,
	}
}

// EarningsDate returns the next earnings date, nil when Finviz lists none
func (c *Client) EarningsDate(ctx context.Context, ticker string) (*time.Time, error) {
	params := url.Values{}
	params.Set("t", strings.ToUpper(ticker))

	body, err := c.httpClient.GetBody(ctx, fmt.Sprintf("%s/quote.ashx?%s", c.baseURL, params.Encode()))
	if err != nil {
		if errors.Is(err, httputil.ErrNotFound) {
			return nil, fmt.Errorf("finviz %s: %w", ticker, contracts.ErrNotFound)
		}
		return nil, fmt.Errorf("finviz %s: %w", ticker, err)
	}

	snapshot, err := parseSnapshot(string(body))
	if err != nil {
		return nil, fmt.Errorf("finviz %s: %w", ticker, err)
	}

	raw, ok := snapshot["Earnings"]
	if !ok {
		return nil, fmt.Errorf("finviz %s: no earnings cell: %w", ticker, contracts.ErrProviderValidation)
	}

	date, err := ParseEarnings(raw, c.now())
	if err != nil {
		c.logger.WithTicker(ticker).WithField("raw", raw).Debug("Unparseable earnings cell")
		return nil, nil
	}
	return date, nil
}

// parseSnapshot reads the label/value cell pairs of the snapshot table
func parseSnapshot(html string) (map[string]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	table := doc.Find("table.snapshot-table2").First()
	if table.Length() == 0 {
		return nil, fmt.Errorf("snapshot table missing: %w", contracts.ErrNotFound)
	}

	out := make(map[string]string)
	table.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		// 컬럼: label | value | label | value ...
		for i := 0; i+1 < cells.Length(); i += 2 {
			label := strings.TrimSpace(cells.Eq(i).Text())
			value := strings.TrimSpace(cells.Eq(i + 1).Text())
			if label != "" {
				out[label] = value
			}
		}
	})
	return out, nil
}

// ParseEarnings parses cells like "Jan 30 AMC" or "Feb 01 BMO".
// The year is chosen so the date lies within six months of now.
func ParseEarnings(raw string, now time.Time) (*time.Time, error) {
	fields := strings.Fields(raw)
	if len(fields) < 2 || raw == "-" {
		return nil, fmt.Errorf("earnings %q: %w", raw, contracts.ErrProviderValidation)
	}

	md, err := time.Parse("Jan 2", fields[0]+" "+fields[1])
	if err != nil {
		return nil, fmt.Errorf("earnings %q: %w", raw, contracts.ErrProviderValidation)
	}

	hour := 12
	if len(fields) > 2 {
		switch strings.ToUpper(fields[2]) {
		case "BMO":
			hour = 8
		case "AMC":
			hour = 16
		}
	}

	date := time.Date(now.Year(), md.Month(), md.Day(), hour, 0, 0, 0, now.Location())
	switch {
	case date.Before(now.AddDate(0, -6, 0)):
		date = date.AddDate(1, 0, 0)
	case date.After(now.AddDate(0, 6, 0)):
		date = date.AddDate(-1, 0, 0)
	}
	return &date, nil
}
