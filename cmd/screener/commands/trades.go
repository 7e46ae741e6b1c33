package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// tradesCmd represents the trades command
var tradesCmd = &cobra.Command{
	Use:   "trades",
	Short: "체결된 스프레드 관리",
	Long: `List, open, close and refresh executed call credit spreads.

Subcommands:
  list     - 전체 거래 조회
  show     - 거래 상세
  execute  - 스프레드 체결
  close    - 거래 청산
  refresh  - 미결 거래 재평가

Examples:
  go run ./cmd/screener trades list
  go run ./cmd/screener trades execute AAPL AAPL240119C00200000 AAPL240119C00205000 --quantity 2
  go run ./cmd/screener trades close 3f1c... --price 0.15
  go run ./cmd/screener trades refresh`,
}

var (
	tradesListCmd = &cobra.Command{
		Use:   "list",
		Short: "전체 거래 조회",
		Args:  cobra.NoArgs,
		RunE:  listTrades,
	}

	tradesShowCmd = &cobra.Command{
		Use:   "show [trade_id]",
		Short: "거래 상세",
		Args:  cobra.ExactArgs(1),
		RunE:  showTrade,
	}

	tradesExecuteCmd = &cobra.Command{
		Use:   "execute [ticker] [short_option] [long_option]",
		Short: "스프레드 체결",
		Args:  cobra.ExactArgs(3),
		RunE:  executeTrade,
	}

	tradesCloseCmd = &cobra.Command{
		Use:   "close [trade_id]",
		Short: "거래 청산",
		Args:  cobra.ExactArgs(1),
		RunE:  closeTrade,
	}

	tradesRefreshCmd = &cobra.Command{
		Use:   "refresh [trade_id]",
		Short: "미결 거래 재평가 (ID 생략 시 전체)",
		Args:  cobra.MaximumNArgs(1),
		RunE:  refreshTrades,
	}
)

var (
	tradeQuantity int
	tradePrice    float64
)

func init() {
	rootCmd.AddCommand(tradesCmd)
	tradesCmd.AddCommand(tradesListCmd)
	tradesCmd.AddCommand(tradesShowCmd)
	tradesCmd.AddCommand(tradesExecuteCmd)
	tradesCmd.AddCommand(tradesCloseCmd)
	tradesCmd.AddCommand(tradesRefreshCmd)

	tradesExecuteCmd.Flags().IntVar(&tradeQuantity, "quantity", 1, "계약 수")
	tradesExecuteCmd.Flags().Float64Var(&tradePrice, "price", 0, "체결 가격 (기본: 현재 스프레드 가격)")
	tradesCloseCmd.Flags().Float64Var(&tradePrice, "price", 0, "청산 가격 (기본: 현재 스프레드 가격)")
}

// priceFlag returns --price only when the user set it
func priceFlag(cmd *cobra.Command) *float64 {
	if !cmd.Flags().Changed("price") {
		return nil
	}
	p := tradePrice
	return &p
}

func listTrades(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	list, err := a.trades.List(ctx)
	if err != nil {
		return err
	}

	if jsonOutput {
		return PrintJSON(list)
	}
	if len(list) == 0 {
		PrintInfo("No trades")
		return nil
	}
	PrintTradeTable(list)
	return nil
}

func showTrade(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	trade, err := a.trades.Get(ctx, args[0])
	if err != nil {
		return err
	}

	if jsonOutput {
		return PrintJSON(trade)
	}
	PrintTradeTable(tradeList(*trade))
	PrintSpreadDetail(trade.SpreadAtOpen)
	if trade.SpreadLive != nil {
		PrintHeader("Live")
		PrintSpreadDetail(*trade.SpreadLive)
	}
	return nil
}

func executeTrade(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	spread, err := a.screener.GetSpread(ctx, args[0], args[1], args[2])
	if err != nil {
		return err
	}

	trade, err := a.trades.Execute(ctx, *spread, tradeQuantity, priceFlag(cmd))
	if err != nil {
		return err
	}

	if jsonOutput {
		return PrintJSON(trade)
	}
	PrintSuccess(fmt.Sprintf("Opened trade %s: credit %.2f, collateral %.2f", trade.ID, trade.Credit, trade.Collateral))
	return nil
}

func closeTrade(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	trade, err := a.trades.Close(ctx, args[0], priceFlag(cmd))
	if err != nil {
		return err
	}

	if jsonOutput {
		return PrintJSON(trade)
	}
	PrintTradeTable(tradeList(*trade))
	fmt.Println()
	PrintSuccess(fmt.Sprintf("Closed trade %s", trade.ID))
	return nil
}

func refreshTrades(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if len(args) == 1 {
		trade, err := a.trades.Refresh(ctx, args[0])
		if err != nil {
			return err
		}
		if jsonOutput {
			return PrintJSON(trade)
		}
		PrintTradeTable(tradeList(*trade))
		return nil
	}

	summary, err := a.trades.RefreshAll(ctx)
	if err != nil {
		return err
	}

	if jsonOutput {
		return PrintJSON(summary)
	}
	PrintHeader("Trade refresh")
	PrintKeyValue("Refreshed", fmt.Sprintf("%d", summary.Refreshed), 10)
	PrintKeyValue("Expired", fmt.Sprintf("%d", summary.Expired), 10)
	PrintKeyValue("Skipped", fmt.Sprintf("%d", summary.Skipped), 10)
	PrintKeyValue("Failed", fmt.Sprintf("%d", summary.Failed), 10)
	PrintKeyValue("Unpriced", fmt.Sprintf("%d", summary.Unpriced), 10)
	if summary.Failed > 0 {
		PrintWarning("Some trades could not be refreshed, rerun with --verbose for details")
	}
	return nil
}
