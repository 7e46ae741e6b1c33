package commands

import (
	"github.com/spf13/cobra"
)

// spreadCmd represents the spread command
var spreadCmd = &cobra.Command{
	Use:   "spread [ticker] [short_option] [long_option]",
	Short: "개별 스프레드 조회",
	Long: `Rebuild one spread from live data for the given option tickers.

Option tickers use the OCC symbol with or without the "O:" prefix.

Example:
  go run ./cmd/screener spread AAPL AAPL240119C00200000 AAPL240119C00205000`,
	Args: cobra.ExactArgs(3),
	RunE: runSpread,
}

func init() {
	rootCmd.AddCommand(spreadCmd)
}

func runSpread(cmd *cobra.Command, args []string) error {
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

	if jsonOutput {
		return PrintJSON(spread)
	}
	PrintSpreadDetail(*spread)
	return nil
}
