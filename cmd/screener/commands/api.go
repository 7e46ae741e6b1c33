package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/spreadscreener/internal/api"
	"github.com/wonny/spreadscreener/internal/api/handlers"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `REST API 서버를 시작합니다.

Endpoints:
  GET  /health                               - Health check
  GET  /metrics                              - Prometheus metrics
  POST /api/screener/run                     - 단일 종목 스크리닝
  POST /api/screener/batch                   - 다종목 스크리닝
  GET  /api/spreads/cached                   - 세션 캐시 스프레드
  GET  /api/spreads/{ticker}/{short}/{long}  - 개별 스프레드
  GET  /api/presets                          - 파라미터/프리셋
  GET  /api/expirations                      - 주간 만기일
  GET  /api/trades                           - 거래 목록
  POST /api/trades                           - 스프레드 체결
  POST /api/trades/refresh                   - 전체 재평가
  GET  /api/trades/{id}                      - 거래 상세
  POST /api/trades/{id}/close                - 거래 청산
  POST /api/trades/{id}/refresh              - 거래 재평가

Example:
  go run ./cmd/screener api
  go run ./cmd/screener api --port 8080 --with-scheduler`,
	Args: cobra.NoArgs,
	RunE: runAPIServer,
}

var (
	apiPort          string
	apiWithScheduler bool
)

func init() {
	rootCmd.AddCommand(apiCmd)

	// Flags
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (기본: PORT)")
	apiCmd.Flags().BoolVar(&apiWithScheduler, "with-scheduler", false, "스케줄러 동시 실행")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	// Override port if flag is set
	if apiPort != "" {
		a.cfg.Port = apiPort
	}

	h := api.Handlers{
		Screener: handlers.NewScreenerHandler(a.screener, a.presets, a.calendar, a.log),
		Trades:   handlers.NewTradesHandler(a.trades, a.screener.Cache(), a.log),
	}
	if a.metrics != nil {
		h.Metrics = a.metrics.Handler()
	}

	if apiWithScheduler {
		sched, err := initScheduler(a)
		if err != nil {
			return fmt.Errorf("init scheduler: %w", err)
		}
		sched.Start()
		defer sched.Stop()
	}

	server := api.New(a.cfg, a.log, api.NewRouter(h, a.log))
	if err := server.Run(ctx); err != nil {
		return err
	}

	a.log.Info("Server exited")
	return nil
}
