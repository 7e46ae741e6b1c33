package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/wonny/spreadscreener/internal/contracts"
	"github.com/wonny/spreadscreener/internal/trades"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// 모든 커맨드가 동일한 출력 포맷을 사용하도록 통일
// ═══════════════════════════════════════════════════════════

const dateLayout = "2006-01-02"

// PrintHeader prints a titled box header
func PrintHeader(title string) {
	fmt.Println()
	PrintDoubleSeparator()
	fmt.Printf("  %s\n", title)
	PrintSeparator()
}

// PrintSeparator prints a visual separator
func PrintSeparator() {
	fmt.Println("───────────────────────────────────────────────────────────")
}

// PrintDoubleSeparator prints a double-line separator
func PrintDoubleSeparator() {
	fmt.Println("═══════════════════════════════════════════════════════════")
}

// PrintWarning prints a warning message
func PrintWarning(message string) {
	fmt.Println()
	fmt.Printf("⚠️  %s\n", message)
	fmt.Println()
}

// PrintSuccess prints a success message
func PrintSuccess(message string) {
	fmt.Printf("✅ %s\n", message)
}

// PrintError prints an error message
func PrintError(message string) {
	fmt.Printf("❌ %s\n", message)
}

// PrintInfo prints an info message
func PrintInfo(message string) {
	fmt.Printf("ℹ️  %s\n", message)
}

// PrintTableHeader prints a table header
func PrintTableHeader(columns []string, widths []int) {
	PrintTableRow(columns, widths)

	totalWidth := 0
	for i, width := range widths {
		totalWidth += width
		if i < len(widths)-1 {
			totalWidth += 2 // spacing
		}
	}
	for i := 0; i < totalWidth; i++ {
		fmt.Print("─")
	}
	fmt.Println()
}

// PrintTableRow prints a table row
func PrintTableRow(values []string, widths []int) {
	for i, val := range values {
		fmt.Printf("%-*s", widths[i], val)
		if i < len(values)-1 {
			fmt.Print("  ")
		}
	}
	fmt.Println()
}

// PrintKeyValue prints key-value pairs
func PrintKeyValue(key string, value string, keyWidth int) {
	fmt.Printf("   %-*s : %s\n", keyWidth, key, value)
}

// PrintJSON writes v as indented JSON to stdout
func PrintJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// PrintFunnel prints the leg and spread filter funnels side by side
func PrintFunnel(stats contracts.ScreenerStatistics) {
	widths := []int{16, 8, 4, 16, 8}
	PrintTableHeader([]string{"Option step", "Count", "", "Spread step", "Count"}, widths)

	rows := len(stats.OptionsFilterSteps)
	if len(stats.SpreadsFilterSteps) > rows {
		rows = len(stats.SpreadsFilterSteps)
	}
	for i := 0; i < rows; i++ {
		row := []string{"", "", "", "", ""}
		if i < len(stats.OptionsFilterSteps) {
			row[0] = stats.OptionsFilterSteps[i].Step
			row[1] = fmt.Sprintf("%d", stats.OptionsFilterSteps[i].Count)
		}
		if i < len(stats.SpreadsFilterSteps) {
			row[3] = stats.SpreadsFilterSteps[i].Step
			row[4] = fmt.Sprintf("%d", stats.SpreadsFilterSteps[i].Count)
		}
		PrintTableRow(row, widths)
	}
}

var spreadWidths = []int{6, 10, 15, 7, 9, 9, 8, 7, 6}

// PrintSpreadTable prints one row per spread
func PrintSpreadTable(spreads []contracts.CallCreditSpread) {
	PrintTableHeader([]string{"Ticker", "Expiration", "Strikes", "Credit", "MaxProf", "MaxLoss", "Return", "Delta", "DTE"}, spreadWidths)
	for _, s := range spreads {
		PrintTableRow([]string{
			s.Underlying.Ticker,
			s.Expiration.Format(dateLayout),
			fmt.Sprintf("%g/%g", s.ShortLeg.Strike, s.LongLeg.Strike),
			fmt.Sprintf("%.2f", s.Price),
			fmt.Sprintf("%.2f", s.MaxProfit),
			fmt.Sprintf("%.2f", s.MaxLoss),
			formatPercent(s.ReturnAtExpiration),
			formatDelta(s.ShortLeg),
			fmt.Sprintf("%d", s.DaysToExpiration),
		}, spreadWidths)
	}
}

// PrintSpreadDetail prints one spread with both legs
func PrintSpreadDetail(s contracts.CallCreditSpread) {
	PrintHeader(fmt.Sprintf("%s %s %g/%g", s.Underlying.Ticker, s.Expiration.Format(dateLayout), s.ShortLeg.Strike, s.LongLeg.Strike))
	PrintKeyValue("Underlying", fmt.Sprintf("%.2f (upper band %.2f)", s.Underlying.Price, s.Underlying.BollingerBands.UpperBand), 12)
	if s.Underlying.EarningsDate != nil {
		PrintKeyValue("Earnings", s.Underlying.EarningsDate.Format(dateLayout), 12)
	}
	PrintKeyValue("Short leg", formatLeg(s.ShortLeg), 12)
	PrintKeyValue("Long leg", formatLeg(s.LongLeg), 12)
	PrintKeyValue("Credit", fmt.Sprintf("%.2f", s.Price), 12)
	PrintKeyValue("Max profit", fmt.Sprintf("%.2f", s.MaxProfit), 12)
	PrintKeyValue("Max loss", fmt.Sprintf("%.2f", s.MaxLoss), 12)
	PrintKeyValue("Collateral", fmt.Sprintf("%.2f", s.Collateral), 12)
	PrintKeyValue("Return", formatPercent(s.ReturnAtExpiration), 12)
	PrintKeyValue("DTE", fmt.Sprintf("%d", s.DaysToExpiration), 12)
}

var tradeWidths = []int{36, 8, 6, 15, 10, 4, 9, 10, 10}

// PrintTradeTable prints one row per trade with its P&L
func PrintTradeTable(list []contracts.CallCreditSpreadTrade) {
	PrintTableHeader([]string{"ID", "Status", "Ticker", "Strikes", "Expiration", "Qty", "Credit", "P&L", "Basis"}, tradeWidths)
	for _, t := range list {
		pnl := trades.ComputePnL(t)
		value := "-"
		if pnl.Basis != trades.BasisNone {
			value = fmt.Sprintf("%.2f", pnl.Value)
		}
		PrintTableRow([]string{
			t.ID,
			string(t.Status),
			t.Ticker(),
			fmt.Sprintf("%g/%g", t.SpreadAtOpen.ShortLeg.Strike, t.SpreadAtOpen.LongLeg.Strike),
			t.SpreadAtOpen.Expiration.Format(dateLayout),
			fmt.Sprintf("%d", t.Quantity),
			fmt.Sprintf("%.2f", t.Credit),
			value,
			string(pnl.Basis),
		}, tradeWidths)
	}
}

func formatLeg(o contracts.Option) string {
	iv := "-"
	if o.ImpliedVolatility != nil {
		iv = formatPercent(*o.ImpliedVolatility)
	}
	return fmt.Sprintf("%s  price %.2f  IV %s  delta %s  vol %d", o.Ticker, o.Price, iv, formatDelta(o), o.Volume)
}

func formatDelta(o contracts.Option) string {
	if o.Greeks == nil {
		return "-"
	}
	return fmt.Sprintf("%.3f", o.Greeks.Delta)
}

func formatPercent(fraction float64) string {
	return fmt.Sprintf("%.1f%%", fraction*100)
}

func tradeList(t contracts.CallCreditSpreadTrade) []contracts.CallCreditSpreadTrade {
	return []contracts.CallCreditSpreadTrade{t}
}
