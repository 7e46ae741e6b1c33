package commands

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/spreadscreener/internal/screener"
)

// presetsCmd represents the presets command
var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "파라미터 카탈로그 및 프리셋 조회",
	Args:  cobra.NoArgs,
	RunE:  listPresets,
}

// expirationsCmd represents the expirations command
var expirationsCmd = &cobra.Command{
	Use:   "expirations",
	Short: "다가오는 주간 만기일",
	Args:  cobra.NoArgs,
	RunE:  listExpirations,
}

var expirationWeeks int

func init() {
	rootCmd.AddCommand(presetsCmd)
	rootCmd.AddCommand(expirationsCmd)

	expirationsCmd.Flags().IntVar(&expirationWeeks, "weeks", 5, "조회할 주 수")
}

func listPresets(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	presets := a.presets.List()
	if jsonOutput {
		return PrintJSON(map[string]interface{}{
			"parameters": screener.Catalog,
			"presets":    presets,
		})
	}

	PrintHeader("Parameters")
	widths := []int{30, 34, 8, 10}
	PrintTableHeader([]string{"ID", "Name", "Default", "Unit"}, widths)
	for _, p := range screener.Catalog {
		PrintTableRow([]string{string(p.ID), p.Name, fmt.Sprintf("%g", p.DefaultValue), string(p.Unit)}, widths)
	}

	for _, p := range presets {
		PrintHeader(p.Name)
		ids := make([]string, 0, len(p.Values))
		for id := range p.Values {
			ids = append(ids, string(id))
		}
		sort.Strings(ids)
		for _, id := range ids {
			PrintKeyValue(id, fmt.Sprintf("%g", p.Values[screener.ParamID(id)]), 30)
		}
	}
	return nil
}

func listExpirations(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	weeks := a.calendar.UpcomingFridays(time.Now(), expirationWeeks)
	if jsonOutput {
		return PrintJSON(weeks)
	}

	widths := []int{16, 12, 6}
	PrintTableHeader([]string{"Label", "Date", "Days"}, widths)
	for _, w := range weeks {
		PrintTableRow([]string{w.Label, w.Date.Format(dateLayout), fmt.Sprintf("%d", w.DaysToDate)}, widths)
	}
	return nil
}
