package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/spreadscreener/pkg/config"
	"github.com/wonny/spreadscreener/pkg/database"
	"github.com/wonny/spreadscreener/pkg/redis"
)

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "설정 및 연결 점검",
	Long: `설정을 읽고 Redis, PostgreSQL 연결과 데이터 제공자 설정을 점검합니다.

Example:
  go run ./cmd/screener check
  go run ./cmd/screener check --ticker AAPL`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

var checkTicker string

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().StringVar(&checkTicker, "ticker", "", "시세 조회로 제공자 점검")
}

func runCheck(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	PrintHeader("Screener check")

	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		PrintError(fmt.Sprintf("Config: %v", err))
		return err
	}
	PrintSuccess("Config loaded")
	PrintKeyValue("Env", cfg.Env, 12)
	PrintKeyValue("Trade store", cfg.Trades.Store, 12)
	if cfg.Trades.Store == "file" {
		PrintKeyValue("Trades dir", cfg.Trades.Dir, 12)
	}
	if cfg.Polygon.APIKey == "" {
		PrintWarning("POLYGON_API_KEY is not set, chain snapshots will fail")
	}

	failed := 0

	// 2. Redis
	if cfg.Redis.Enabled {
		latency, err := checkRedis(ctx, cfg)
		if err != nil {
			failed++
			PrintError(fmt.Sprintf("Redis: %v", err))
		} else {
			PrintSuccess(fmt.Sprintf("Redis %s:%s (%s)", cfg.Redis.Host, cfg.Redis.Port, latency))
		}
	} else {
		PrintInfo("Redis disabled")
	}

	// 3. Database
	if cfg.Trades.Store == "postgres" {
		status, err := checkDatabase(ctx, cfg)
		if err != nil {
			failed++
			PrintError(fmt.Sprintf("Database: %v", err))
		} else {
			PrintSuccess(fmt.Sprintf("Database (%s, %d/%d conns)", status.ResponseTime, status.Stats.AcquiredConns, status.Stats.TotalConns))
		}
	}

	// 4. Providers
	if checkTicker != "" {
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		stock, err := a.data.GetStock(ctx, checkTicker, nil)
		if err != nil {
			failed++
			PrintError(fmt.Sprintf("Market data: %v", err))
		} else {
			PrintSuccess(fmt.Sprintf("%s %.2f (upper band %.2f)", stock.Ticker, stock.Price, stock.BollingerBands.UpperBand))
		}
	}

	PrintSeparator()
	if failed > 0 {
		return fmt.Errorf("%d checks failed", failed)
	}
	PrintSuccess("All checks passed")
	return nil
}

func checkRedis(ctx context.Context, cfg *config.Config) (time.Duration, error) {
	client, err := redis.New(cfg)
	if err != nil {
		return 0, err
	}
	defer client.Close()

	return client.Ping(ctx)
}

func checkDatabase(ctx context.Context, cfg *config.Config) (*database.HealthStatus, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	db, err := database.New(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	return db.HealthCheck(ctx)
}
