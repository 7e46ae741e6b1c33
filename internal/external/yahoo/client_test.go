package yahoo

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/spreadscreener/internal/contracts"
	"github.com/wonny/spreadscreener/pkg/httputil"
	"github.com/wonny/spreadscreener/pkg/logger"
)

func newTestClient(t *testing.T, mux *http.ServeMux) *Client {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return NewClient(httputil.New("yahoo", logger.Nop()).DisableRetry(), logger.Nop(), srv.URL)
}

func TestQuote(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v7/finance/quote", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("symbols") {
		case "AAPL":
			fmt.Fprint(w, `{"quoteResponse":{"result":[{"symbol":"AAPL","quoteType":"EQUITY","displayName":"Apple","regularMarketPrice":185.92,"earningsTimestampStart":1706745600}],"error":null}}`)
		case "NOPRICE":
			fmt.Fprint(w, `{"quoteResponse":{"result":[{"symbol":"NOPRICE"}],"error":null}}`)
		default:
			fmt.Fprint(w, `{"quoteResponse":{"result":[],"error":null}}`)
		}
	})
	c := newTestClient(t, mux)

	q, err := c.Quote(context.Background(), "aapl")
	require.NoError(t, err)
	assert.Equal(t, "Apple", q.Name())
	assert.True(t, q.IsEquity())
	assert.Equal(t, 185.92, *q.RegularMarketPrice)
	require.NotNil(t, q.EarningsDate())
	assert.Equal(t, time.Unix(1706745600, 0).UTC(), *q.EarningsDate())
	assert.Nil(t, q.Dividend())

	_, err = c.Quote(context.Background(), "WRONG")
	assert.ErrorIs(t, err, contracts.ErrNotFound)
	assert.Contains(t, err.Error(), "Quote not found for ticker symbol: WRONG")

	_, err = c.Quote(context.Background(), "NOPRICE")
	assert.ErrorIs(t, err, contracts.ErrProviderValidation)
}

func TestCalendarEvents(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v10/finance/quoteSummary/AAPL", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "calendarEvents", r.URL.Query().Get("modules"))
		fmt.Fprint(w, `{"quoteSummary":{"result":[{"calendarEvents":{
			"earnings":{"earningsDate":[{"raw":1706745600,"fmt":"2024-02-01"},{"raw":1707177600}]},
			"exDividendDate":{"raw":1707436800},"dividendDate":{"raw":1707955200}}}],"error":null}}`)
	})
	c := newTestClient(t, mux)

	ev, err := c.CalendarEvents(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, time.Unix(1706745600, 0).UTC(), *ev.NextEarnings())
	assert.Equal(t, time.Unix(1707436800, 0).UTC(), *ev.ExDividendDate.Time())
	assert.Equal(t, time.Unix(1707955200, 0).UTC(), *ev.DividendDate.Time())

	var empty CalendarEvents
	assert.Nil(t, empty.NextEarnings())
	assert.Nil(t, empty.ExDividendDate.Time())
}

func TestDailyCloses(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v8/finance/chart/SPY", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1d", r.URL.Query().Get("interval"))
		fmt.Fprint(w, `{"chart":{"result":[{"timestamp":[1704205800,1704292200,1704378600],
			"indicators":{"quote":[{"close":[472.65,null,467.28]}]}}],"error":null}}`)
	})
	mux.HandleFunc("/v8/finance/chart/BROKEN", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"chart":{"result":[{"timestamp":[1,2],"indicators":{"quote":[{"close":[1]}]}}],"error":null}}`)
	})
	mux.HandleFunc("/v8/finance/chart/NOPE", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`)
	})
	c := newTestClient(t, mux)

	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	prices, err := c.DailyCloses(context.Background(), "SPY", from, from.AddDate(0, 0, 5))
	require.NoError(t, err)
	require.Len(t, prices, 2)
	assert.Equal(t, 472.65, prices[0].Price)
	assert.Equal(t, 467.28, prices[1].Price)
	assert.True(t, prices[0].Date.Before(prices[1].Date))

	_, err = c.DailyCloses(context.Background(), "BROKEN", from, from)
	assert.ErrorIs(t, err, contracts.ErrProviderValidation)

	_, err = c.DailyCloses(context.Background(), "NOPE", from, from)
	assert.ErrorIs(t, err, contracts.ErrNotFound)
}

func TestOptionQuotes(t *testing.T) {
	expiration := time.Date(2024, 1, 19, 17, 30, 0, 0, time.Local)

	mux := http.NewServeMux()
	mux.HandleFunc("/v7/finance/options/AAPL", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1705622400", r.URL.Query().Get("date"))
		fmt.Fprint(w, `{"optionChain":{"result":[{"underlyingSymbol":"AAPL","options":[{"expirationDate":1705622400,"calls":[
			{"contractSymbol":"AAPL240119C00190000","strike":190,"bid":1.2,"ask":1.3,"volume":55,"lastTradeDate":1705500000},
			{"contractSymbol":"AAPL240119C00195000","strike":195}
		]}]}],"error":null}}`)
	})
	mux.HandleFunc("/v7/finance/options/EMPTY", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"optionChain":{"result":[{"underlyingSymbol":"EMPTY","options":[]}],"error":null}}`)
	})
	c := newTestClient(t, mux)

	calls, err := c.OptionQuotes(context.Background(), "AAPL", expiration)
	require.NoError(t, err)
	require.Len(t, calls, 2)
	assert.Equal(t, "AAPL240119C00190000", calls[0].ContractSymbol)
	assert.Equal(t, int64(55), *calls[0].Volume)
	assert.NotNil(t, calls[0].LastTraded())
	assert.Nil(t, calls[1].Bid)
	assert.Nil(t, calls[1].LastTraded())

	calls, err = c.OptionQuotes(context.Background(), "EMPTY", expiration)
	require.NoError(t, err)
	assert.Empty(t, calls)
}
