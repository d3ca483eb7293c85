package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/joho/godotenv"

	"github.com/vitorcalvi/RSI-MFIBot/internal/config"
	"github.com/vitorcalvi/RSI-MFIBot/internal/engine"
	"github.com/vitorcalvi/RSI-MFIBot/internal/exchange"
	"github.com/vitorcalvi/RSI-MFIBot/internal/exchange/bybit"
	"github.com/vitorcalvi/RSI-MFIBot/internal/journal"
	"github.com/vitorcalvi/RSI-MFIBot/internal/logger"
	"github.com/vitorcalvi/RSI-MFIBot/internal/monitoring"
	"github.com/vitorcalvi/RSI-MFIBot/internal/notifications"
	"github.com/vitorcalvi/RSI-MFIBot/internal/risk"
	"github.com/vitorcalvi/RSI-MFIBot/internal/strategy"
)

func main() {
	envFile := flag.String("env", ".env", "Path to environment file")
	flag.Parse()

	if err := godotenv.Load(*envFile); err != nil {
		log.Printf("No env file loaded (%v), using process environment", err)
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	fileLogger, err := logger.NewLogger(cfg.Trading.Linear, cfg.Trading.Interval, logLevel(cfg.LogLevel))
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer fileLogger.Close()

	venue := bybit.NewClient(bybit.Config{
		APIKey:    cfg.Exchange.APIKey,
		APISecret: cfg.Exchange.Secret,
		Demo:      cfg.Exchange.DemoMode,
	})

	policy := risk.NewPolicy(cfg.Risk)

	signals := strategy.NewRSIMFI(strategy.Config{
		RSIPeriod:    cfg.Strategy.RSIPeriod,
		MFIPeriod:    cfg.Strategy.MFIPeriod,
		Oversold:     cfg.Strategy.Oversold,
		Overbought:   cfg.Strategy.Overbought,
		RequireTrend: cfg.Strategy.RequireTrend,
	})

	var notifier notifications.Notifier = notifications.Noop{}
	if cfg.Notifications.TelegramToken != "" && cfg.Notifications.TelegramChatID != "" {
		notifier = notifications.NewTelegramNotifier(
			cfg.Notifications.TelegramToken,
			cfg.Notifications.TelegramChatID,
			fileLogger,
		)
	}

	var recorder engine.TradeRecorder
	if cfg.Journal.Enabled {
		path := filepath.Join(cfg.Journal.Path, fmt.Sprintf("%s_trades.xlsx", cfg.Trading.Linear))
		j, err := journal.New(path)
		if err != nil {
			fileLogger.Warning("trade journal disabled: %v", err)
		} else {
			recorder = j
		}
	}

	health := monitoring.NewHealthChecker()
	startMonitoringServers(cfg, health)

	controller := engine.NewController(
		engine.Config{
			Symbol:       cfg.Trading.Linear,
			Interval:     exchange.KlineInterval(cfg.Trading.Interval),
			KlineLimit:   cfg.Trading.KlineLimit,
			PollInterval: cfg.Trading.PollInterval,
		},
		engine.Deps{
			Venue:    venue,
			Policy:   policy,
			Signals:  signals,
			Notifier: notifier,
			Recorder: recorder,
			Logger:   fileLogger,
			Health:   health,
		},
	)

	printStartupInfo(cfg, venue)
	printRiskProfile(venue, policy, cfg.Trading.Linear)

	errChan := make(chan error, 1)
	go func() {
		errChan <- controller.Run()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		fmt.Printf("\nReceived %s, shutting down...\n", sig)
		controller.Stop()
	case err := <-errChan:
		if err != nil {
			log.Fatalf("Controller exited: %v", err)
		}
	}

	fmt.Println("Bot stopped")
}

func logLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "debug":
		return logger.LogLevelDebug
	case "warn", "warning":
		return logger.LogLevelWarning
	case "error":
		return logger.LogLevelError
	default:
		return logger.LogLevelInfo
	}
}

func startMonitoringServers(cfg *config.Config, health *monitoring.HealthChecker) {
	healthMux := http.NewServeMux()
	healthMux.Handle("/health", health)

	go func() {
		addr := fmt.Sprintf(":%d", cfg.Monitoring.HealthPort)
		if err := http.ListenAndServe(addr, healthMux); err != nil {
			log.Printf("Health server error: %v", err)
		}
	}()

	go func() {
		addr := fmt.Sprintf(":%d", cfg.Monitoring.PrometheusPort)
		if err := http.ListenAndServe(addr, monitoring.NewMetricsHandler()); err != nil {
			log.Printf("Prometheus server error: %v", err)
		}
	}()
}

func printStartupInfo(cfg *config.Config, venue exchange.Venue) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("BOT INITIALIZATION")
	t.SetStyle(table.StyleRounded)

	t.AppendRows([]table.Row{
		{"📊 Symbol", cfg.Trading.Linear},
		{"⏰ Interval", cfg.Trading.Interval + "m"},
		{"🏪 Exchange", venue.GetName()},
		{"🔧 Environment", venue.GetEnvironment()},
		{"🔄 Poll Interval", cfg.Trading.PollInterval.String()},
	})

	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, WidthMin: 18, WidthMax: 18, Align: text.AlignLeft},
		{Number: 2, WidthMin: 25, WidthMax: 35, Align: text.AlignLeft},
	})

	t.Render()
	fmt.Println()
}

// accountSnapshot is the venue's account view at startup: total equity,
// wallet balance and the current market price.
type accountSnapshot struct {
	equity     float64
	equityErr  error
	balance    float64
	balanceErr error
	price      float64
	priceErr   error
}

func fetchAccountSnapshot(ctx context.Context, venue exchange.Venue, symbol string) accountSnapshot {
	var snap accountSnapshot
	snap.equity, snap.equityErr = venue.GetTotalEquity(ctx)
	snap.balance, snap.balanceErr = venue.GetWalletBalance(ctx)
	snap.price, snap.priceErr = venue.GetLatestPrice(ctx, symbol)
	return snap
}

func money(v float64, err error) string {
	if err != nil {
		return "⚠️ Could not fetch"
	}
	return fmt.Sprintf("$%.2f", v)
}

func printRiskProfile(venue exchange.Venue, policy *risk.Policy, symbol string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	snap := fetchAccountSnapshot(ctx, venue, symbol)

	balance := snap.balance
	if snap.balanceErr != nil {
		balance = 0
	}
	s := policy.Summary(balance)

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("RISK PROFILE")
	t.SetStyle(table.StyleRounded)

	t.AppendRows([]table.Row{
		{"💎 Total Equity", money(snap.equity, snap.equityErr)},
		{"💰 Wallet Balance", money(snap.balance, snap.balanceErr)},
		{"💲 Market Price", money(snap.price, snap.priceErr)},
		{"📈 Leverage", fmt.Sprintf("%.0fx", s.Leverage)},
		{"💵 Position Value", fmt.Sprintf("$%.2f (%.1f%% of wallet)", s.PositionValue, s.PositionSizePct)},
	})

	t.AppendSeparator()

	t.AppendRows([]table.Row{
		{"🚨 Max Loss / Trade", fmt.Sprintf("$%.2f (%.2f%% of wallet)", s.MaxLossUSD, s.RiskPerTradePct)},
		{"🎯 Reward / Trade", fmt.Sprintf("$%.2f (R:R %.1f)", s.RewardUSD, s.RiskRewardRatio)},
		{"🔒 Profit Lock", fmt.Sprintf("+%.1f%% position (+%.2f%% wallet)", s.ProfitLockPct, s.WalletProfitLockPct)},
		{"💰 Take Profit", fmt.Sprintf("+%.1f%% position (+%.2f%% wallet)", s.TakeProfitPctDisplay, s.WalletTakeProfitPct)},
	})

	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, WidthMin: 18, WidthMax: 18, Align: text.AlignLeft},
		{Number: 2, WidthMin: 25, WidthMax: 35, Align: text.AlignLeft},
	})

	t.Render()
	fmt.Println()
}
