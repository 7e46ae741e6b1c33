package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/spreadscreener/internal/screener"
)

// screenCmd represents the screen command
var screenCmd = &cobra.Command{
	Use:   "screen [ticker...]",
	Short: "콜 크레딧 스프레드 스크리닝",
	Long: `Screen call credit spreads for one or more tickers.

Each ticker's call chain is fetched, every option passes the leg filters
(DTS, DOB, IV, Delta, Volume, Bid-Ask), surviving strikes are paired into
spreads and the spread filters (Return, Near earnings) run last.

Parameters are entered the way the catalog shows them: percentages as
percent (minIV=40 means 40%), everything else as is.

Examples:
  go run ./cmd/screener screen AAPL
  go run ./cmd/screener screen AAPL MSFT NVDA --preset "Weekly Stock Options"
  go run ./cmd/screener screen --ticker SPY --ticker QQQ --preset "Weekly ETF Options"
  go run ./cmd/screener screen TSLA --expiration 2024-01-19 --param minReturn=8 --param maxDelta=0.15`,
	RunE: runScreen,
}

var (
	screenTickers    []string
	screenExpiration string
	screenPreset     string
	screenParams     []string
)

func init() {
	rootCmd.AddCommand(screenCmd)

	screenCmd.Flags().StringArrayVar(&screenTickers, "ticker", nil, "종목 (반복 가능)")
	screenCmd.Flags().StringVar(&screenExpiration, "expiration", "", "만기일 YYYY-MM-DD (기본: 다가오는 금요일)")
	screenCmd.Flags().StringVar(&screenPreset, "preset", "", "프리셋 이름")
	screenCmd.Flags().StringArrayVar(&screenParams, "param", nil, "파라미터 id=value (반복 가능)")
}

func runScreen(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	tickers := append(args, screenTickers...)
	if len(tickers) == 0 {
		return fmt.Errorf("at least one ticker is required")
	}

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	expiration, err := resolveExpiration(a, screenExpiration)
	if err != nil {
		return err
	}

	overrides, err := screener.ParseAssignments(screenParams)
	if err != nil {
		return err
	}
	params, err := a.presets.Resolve(screenPreset, overrides)
	if err != nil {
		return err
	}

	batch := a.screener.RunBatch(ctx, tickers, expiration, params)

	if jsonOutput {
		type item struct {
			screener.BatchResult
			Error string `json:"error,omitempty"`
		}
		out := make([]item, len(batch))
		for i, r := range batch {
			out[i] = item{BatchResult: r}
			if r.Err != nil {
				out[i].Error = r.Err.Error()
			}
		}
		return PrintJSON(out)
	}

	failed := 0
	for _, r := range batch {
		PrintHeader(fmt.Sprintf("%s  expiring %s", r.Ticker, expiration.Format(dateLayout)))
		if r.Err != nil {
			failed++
			PrintError(r.Err.Error())
			continue
		}
		PrintFunnel(r.Results.Statistics)
		fmt.Println()
		if len(r.Results.Spreads) == 0 {
			PrintInfo("No spreads passed the filters")
			continue
		}
		PrintSpreadTable(r.Results.Spreads)
	}

	fmt.Println()
	if failed > 0 {
		return fmt.Errorf("%d of %d tickers failed", failed, len(batch))
	}
	PrintSuccess(fmt.Sprintf("Screened %d tickers", len(batch)))
	return nil
}

// resolveExpiration parses YYYY-MM-DD or falls back to the upcoming Friday
func resolveExpiration(a *app, raw string) (time.Time, error) {
	if raw == "" {
		return a.calendar.UpcomingFridays(time.Now(), 1)[0].Date, nil
	}
	return a.calendar.ParseExpiration(raw)
}
