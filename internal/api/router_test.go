package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/spreadscreener/internal/api/handlers"
	"github.com/wonny/spreadscreener/internal/contracts"
	"github.com/wonny/spreadscreener/internal/expiry"
	"github.com/wonny/spreadscreener/internal/metrics"
	"github.com/wonny/spreadscreener/internal/screener"
	"github.com/wonny/spreadscreener/internal/trades"
	"github.com/wonny/spreadscreener/pkg/logger"
)

var (
	testNow        = time.Date(2024, 1, 8, 15, 0, 0, 0, time.UTC)
	testExpiration = time.Date(2024, 1, 12, 17, 30, 0, 0, time.UTC)
)

type fakeMarket struct {
	stock     contracts.Stock
	options   []contracts.Option
	fail      map[string]error
	requested []time.Time // chain expirations, in call order
}

func newFakeMarket() *fakeMarket {
	leg := func(strike, price float64) contracts.Option {
		return contracts.Option{
			Ticker:            fmt.Sprintf("AAPL240112C00%d000", int(strike)),
			UnderlyingTicker:  "AAPL",
			ContractType:      contracts.Call,
			Strike:            strike,
			Expiration:        testExpiration,
			Price:             price,
			Bid:               contracts.Float64(price - 0.05),
			Ask:               contracts.Float64(price + 0.05),
			ImpliedVolatility: contracts.Float64(0.5),
			Greeks:            &contracts.Greeks{Delta: 0.08},
			Volume:            100,
			DistanceToStrike:  (strike - 100) / 100,
		}
	}
	return &fakeMarket{
		stock: contracts.Stock{
			Ticker:         "AAPL",
			Price:          100,
			BollingerBands: contracts.BollingerBands{UpperBand: 104, MiddleBand: 100, LowerBand: 96},
		},
		options: []contracts.Option{leg(105, 1.2), leg(110, 0.4)},
		fail:    map[string]error{"DOWN": fmt.Errorf("timeout talking to provider")},
	}
}

func (f *fakeMarket) GetStock(ctx context.Context, ticker string, on *time.Time) (*contracts.Stock, error) {
	if err := f.fail[ticker]; err != nil {
		return nil, err
	}
	if ticker != f.stock.Ticker {
		return nil, fmt.Errorf("Quote not found for ticker symbol: %s: %w", ticker, contracts.ErrNotFound)
	}
	stock := f.stock
	return &stock, nil
}

func (f *fakeMarket) GetCallOptionChain(ctx context.Context, req contracts.ChainRequest) (*contracts.OptionChain, error) {
	f.requested = append(f.requested, req.Expiration)
	stock, err := f.GetStock(ctx, req.Ticker, nil)
	if err != nil {
		return nil, err
	}
	return &contracts.OptionChain{
		Underlying: *stock,
		Options:    append([]contracts.Option(nil), f.options...),
	}, nil
}

func (f *fakeMarket) GetCallOption(ctx context.Context, optionTicker string, underlying contracts.Stock) (*contracts.Option, error) {
	for _, o := range f.options {
		if o.Ticker == optionTicker {
			return &o, nil
		}
	}
	return nil, fmt.Errorf("option with ticker %s: %w", optionTicker, contracts.ErrNotFound)
}

func (f *fakeMarket) GetExistingCallOption(ctx context.Context, option contracts.Option, underlying contracts.Stock, on *time.Time) (*contracts.Option, error) {
	return f.GetCallOption(ctx, option.Ticker, underlying)
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	return newTestRouterWith(t, expiry.New(time.UTC), newFakeMarket())
}

func newTestRouterWith(t *testing.T, cal *expiry.Calendar, market *fakeMarket) http.Handler {
	t.Helper()
	log := logger.Nop()
	clock := func() time.Time { return testNow }

	scr := screener.New(market, log, screener.WithClock(clock))
	svc := trades.NewService(trades.NewFileStore(t.TempDir()), log,
		trades.WithMarketData(market),
		trades.WithCache(scr.Cache()),
		trades.WithClock(clock),
	)

	return NewRouter(Handlers{
		Screener: handlers.NewScreenerHandler(scr, screener.NewPresetBook(nil), cal, log),
		Trades:   handlers.NewTradesHandler(svc, scr.Cache(), log),
		Metrics:  metrics.New().Handler(),
	}, log)
}

func do(t *testing.T, h http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestHealth(t *testing.T) {
	rec := do(t, newTestRouter(t), http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestMetricsEndpoint(t *testing.T) {
	rec := do(t, newTestRouter(t), http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestScreenerRun(t *testing.T) {
	router := newTestRouter(t)

	rec := do(t, router, http.MethodPost, "/api/screener/run", handlers.RunRequest{
		Ticker:     "AAPL",
		Expiration: "2024-01-12",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	results := decode[contracts.ScreenerResults](t, rec)
	require.Len(t, results.Spreads, 1)
	assert.Equal(t, 105.0, results.Spreads[0].ShortLeg.Strike)
	assert.Equal(t, 110.0, results.Spreads[0].LongLeg.Strike)
	require.NotEmpty(t, results.Statistics.OptionsFilterSteps)
	assert.Equal(t, screener.StepAll, results.Statistics.OptionsFilterSteps[0].Step)

	cached := decode[[]contracts.CallCreditSpread](t, do(t, router, http.MethodGet, "/api/spreads/cached", nil))
	assert.Len(t, cached, 1)
}

func TestScreenerRun_NewYorkExpiration(t *testing.T) {
	cal := expiry.New(nil)
	ny := cal.Location()

	tests := []struct {
		raw  string
		want time.Time
	}{
		{"2024-01-12", time.Date(2024, 1, 12, 17, 30, 0, 0, ny)},
		{"2024-03-29", time.Date(2024, 3, 28, 17, 30, 0, 0, ny)}, // good friday
		{"2035-01-19", time.Date(2035, 1, 19, 17, 30, 0, 0, ny)},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			market := newFakeMarket()
			router := newTestRouterWith(t, cal, market)

			rec := do(t, router, http.MethodPost, "/api/screener/run", handlers.RunRequest{
				Ticker:     "AAPL",
				Expiration: tt.raw,
			})
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			require.Len(t, market.requested, 1)
			got := market.requested[0]
			assert.True(t, tt.want.Equal(got), "got %s", got)
			assert.Equal(t, tt.want.Format("2006-01-02"), got.In(ny).Format("2006-01-02"))
		})
	}
}

func TestScreenerRun_Errors(t *testing.T) {
	router := newTestRouter(t)

	tests := []struct {
		name   string
		body   interface{}
		status int
		code   string
	}{
		{"unknown ticker", handlers.RunRequest{Ticker: "WRONG", Expiration: "2024-01-12"}, http.StatusNotFound, "WRONG-TICKER"},
		{"provider down", handlers.RunRequest{Ticker: "DOWN", Expiration: "2024-01-12"}, http.StatusBadGateway, "FETCH-FAILED"},
		{"bad date", handlers.RunRequest{Ticker: "AAPL", Expiration: "01/12/2024"}, http.StatusBadRequest, ""},
		{"unknown preset", handlers.RunRequest{Ticker: "AAPL", Expiration: "2024-01-12", Preset: "Monthly"}, http.StatusBadRequest, ""},
		{"unknown parameter", handlers.RunRequest{Ticker: "AAPL", Expiration: "2024-01-12",
			Parameters: map[screener.ParamID]float64{"maxGamma": 1}}, http.StatusBadRequest, ""},
		{"missing ticker", handlers.RunRequest{Expiration: "2024-01-12"}, http.StatusBadRequest, ""},
		{"unknown field", map[string]string{"symbol": "AAPL"}, http.StatusBadRequest, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, router, http.MethodPost, "/api/screener/run", tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			resp := decode[handlers.ErrorResponse](t, rec)
			assert.NotEmpty(t, resp.Error)
			assert.Equal(t, tt.code, resp.Code)
		})
	}
}

func TestScreenerRun_PresetFiltersEverything(t *testing.T) {
	// max delta 0.1 passes, min return 30% rejects the 16% spread
	rec := do(t, newTestRouter(t), http.MethodPost, "/api/screener/run", handlers.RunRequest{
		Ticker:     "AAPL",
		Expiration: "2024-01-12",
		Parameters: map[screener.ParamID]float64{screener.ParamMinReturn: 30},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	results := decode[contracts.ScreenerResults](t, rec)
	assert.Empty(t, results.Spreads)
}

func TestScreenerBatch(t *testing.T) {
	rec := do(t, newTestRouter(t), http.MethodPost, "/api/screener/batch", handlers.RunRequest{
		Tickers:    []string{"AAPL", "WRONG"},
		Expiration: "2024-01-12",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decode[struct {
		Items []handlers.BatchItem `json:"items"`
	}](t, rec)
	require.Len(t, resp.Items, 2)
	assert.Equal(t, "AAPL", resp.Items[0].Ticker)
	assert.NotNil(t, resp.Items[0].Results)
	assert.Nil(t, resp.Items[0].Error)
	require.NotNil(t, resp.Items[1].Error)
	assert.Equal(t, "WRONG-TICKER", resp.Items[1].Error.Code)
}

func TestGetSpread(t *testing.T) {
	router := newTestRouter(t)

	rec := do(t, router, http.MethodGet, "/api/spreads/AAPL/AAPL240112C00105000/AAPL240112C00110000", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	spread := decode[contracts.CallCreditSpread](t, rec)
	assert.InDelta(t, 0.8, spread.Price, 1e-9)

	// inverted legs
	rec = do(t, router, http.MethodGet, "/api/spreads/AAPL/AAPL240112C00110000/AAPL240112C00105000", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "DEGENERATE", decode[handlers.ErrorResponse](t, rec).Code)
}

func TestPresetsAndExpirations(t *testing.T) {
	router := newTestRouter(t)

	rec := do(t, router, http.MethodGet, "/api/presets", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Weekly Stock Options")
	assert.Contains(t, rec.Body.String(), `"minReturn"`)

	rec = do(t, router, http.MethodGet, "/api/expirations", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]expiry.Preset](t, rec), 5)
}

func TestTradesLifecycle(t *testing.T) {
	router := newTestRouter(t)

	rec := do(t, router, http.MethodPost, "/api/screener/run", handlers.RunRequest{Ticker: "AAPL", Expiration: "2024-01-12"})
	require.Equal(t, http.StatusOK, rec.Code)

	key := contracts.SpreadKey("AAPL", testExpiration, 105, 110)
	rec = do(t, router, http.MethodPost, "/api/trades", handlers.ExecuteRequest{SpreadKey: key, Quantity: 2})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	opened := decode[handlers.TradeView](t, rec)
	assert.Equal(t, 160.0, opened.Credit)
	assert.Equal(t, contracts.TradeOpen, opened.Status)
	assert.Equal(t, trades.BasisNone, opened.PnL.Basis)

	list := decode[[]handlers.TradeView](t, do(t, router, http.MethodGet, "/api/trades", nil))
	require.Len(t, list, 1)

	rec = do(t, router, http.MethodGet, "/api/trades/"+opened.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, router, http.MethodPost, "/api/trades/refresh", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, trades.RefreshSummary{Refreshed: 1}, decode[trades.RefreshSummary](t, rec))

	rec = do(t, router, http.MethodPost, "/api/trades/"+opened.ID+"/refresh", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	refreshed := decode[handlers.TradeView](t, rec)
	require.NotNil(t, refreshed.SpreadLive)
	assert.Equal(t, trades.BasisLive, refreshed.PnL.Basis)

	rec = do(t, router, http.MethodPost, "/api/trades/"+opened.ID+"/close", handlers.CloseRequest{AtPrice: contracts.Float64(0.3)})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	closed := decode[handlers.TradeView](t, rec)
	assert.Equal(t, contracts.TradeClosed, closed.Status)
	assert.Equal(t, 100.0, closed.PnL.Value)

	rec = do(t, router, http.MethodPost, "/api/trades/"+opened.ID+"/close", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestTrades_Errors(t *testing.T) {
	router := newTestRouter(t)

	rec := do(t, router, http.MethodGet, "/api/trades/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, router, http.MethodPost, "/api/trades/missing/refresh", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, router, http.MethodPost, "/api/trades", handlers.ExecuteRequest{SpreadKey: "AAPL:2024-01-12:1/2", Quantity: 1})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, router, http.MethodPost, "/api/trades", handlers.ExecuteRequest{Quantity: 1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	spread := contracts.CallCreditSpread{
		Underlying: contracts.Stock{Ticker: "AAPL"},
		ShortLeg:   contracts.Option{Strike: 105},
		LongLeg:    contracts.Option{Strike: 110},
	}
	rec = do(t, router, http.MethodPost, "/api/trades", handlers.ExecuteRequest{Spread: &spread, Quantity: 0})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "quantity"))
}
