package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/vitorcalvi/RSI-MFIBot/internal/risk"
)

// Config holds the complete bot configuration, loaded from environment
// variables (a .env file is read by cmd/bot before Load is called).
type Config struct {
	Environment string
	LogLevel    string

	Exchange struct {
		APIKey   string
		Secret   string
		DemoMode bool
	}

	Trading struct {
		Symbol       string        // display symbol (e.g. ZORA)
		Linear       string        // venue contract symbol (e.g. ZORAUSDT)
		Interval     string        // kline interval in venue notation ("5" = 5m)
		KlineLimit   int           // candles fetched per cycle
		PollInterval time.Duration // delay between trading cycles
	}

	Risk risk.Config

	Strategy struct {
		RSIPeriod    int
		MFIPeriod    int
		Oversold     float64
		Overbought   float64
		RequireTrend bool
	}

	Monitoring struct {
		HealthPort     int
		PrometheusPort int
	}

	Notifications struct {
		TelegramToken  string
		TelegramChatID string
	}

	Journal struct {
		Enabled bool
		Path    string
	}
}

// Load builds a Config from the environment. API credentials are chosen
// between the testnet and live key pairs depending on DEMO_MODE, matching
// how the venue account is selected.
func Load() *Config {
	cfg := &Config{
		Environment: getEnv("ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
	}

	cfg.Exchange.DemoMode = getEnvBool("DEMO_MODE", true)
	if cfg.Exchange.DemoMode {
		cfg.Exchange.APIKey = getEnv("TESTNET_BYBIT_API_KEY", "")
		cfg.Exchange.Secret = getEnv("TESTNET_BYBIT_API_SECRET", "")
	} else {
		cfg.Exchange.APIKey = getEnv("LIVE_BYBIT_API_KEY", "")
		cfg.Exchange.Secret = getEnv("LIVE_BYBIT_API_SECRET", "")
	}

	cfg.Trading.Symbol = getEnv("TRADING_SYMBOL", "ZORA")
	cfg.Trading.Linear = getEnv("TRADING_LINEAR", cfg.Trading.Symbol+"USDT")
	cfg.Trading.Interval = getEnv("TRADING_INTERVAL", "5")
	cfg.Trading.KlineLimit = getEnvInt("KLINE_LIMIT", 100)
	cfg.Trading.PollInterval = getEnvDuration("POLL_INTERVAL", time.Second)

	cfg.Risk = risk.Config{
		FixedRiskUSD:            getEnvFloat("FIXED_RISK_USD", 10.0),
		StopLossPct:             getEnvFloat("STOP_LOSS_PCT", 0.015),
		TakeProfitPct:           getEnvFloat("TAKE_PROFIT_PCT", 0.03),
		TrailingStopPct:         getEnvFloat("TRAILING_STOP_PCT", 0.01),
		ProfitLockActivationPct: getEnvFloat("PROFIT_LOCK_ACTIVATION_PCT", 0.02),
		Leverage:                getEnvFloat("LEVERAGE", 25),
	}

	cfg.Strategy.RSIPeriod = getEnvInt("RSI_PERIOD", 14)
	cfg.Strategy.MFIPeriod = getEnvInt("MFI_PERIOD", 14)
	cfg.Strategy.Oversold = getEnvFloat("OVERSOLD_LEVEL", 30)
	cfg.Strategy.Overbought = getEnvFloat("OVERBOUGHT_LEVEL", 70)
	cfg.Strategy.RequireTrend = getEnvBool("REQUIRE_TREND", false)

	cfg.Monitoring.HealthPort = getEnvInt("HEALTH_PORT", 8081)
	cfg.Monitoring.PrometheusPort = getEnvInt("PROMETHEUS_PORT", 8080)

	cfg.Notifications.TelegramToken = getEnv("TELEGRAM_BOT_TOKEN", "")
	cfg.Notifications.TelegramChatID = getEnv("TELEGRAM_CHAT_ID", "")

	cfg.Journal.Enabled = getEnvBool("JOURNAL_ENABLED", true)
	cfg.Journal.Path = getEnv("JOURNAL_PATH", "journal")

	return cfg
}

// Validate rejects configurations the trading engine cannot run with.
// Zero risk denominators are caught here so the pure risk math never
// has to guard against division by zero at runtime.
func (c *Config) Validate() error {
	if c.Exchange.APIKey == "" || c.Exchange.Secret == "" {
		return fmt.Errorf("missing API credentials (set %s keys in the environment)", credentialPrefix(c.Exchange.DemoMode))
	}
	if c.Trading.Linear == "" {
		return fmt.Errorf("trading symbol is required")
	}
	if c.Trading.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %s", c.Trading.PollInterval)
	}
	if err := c.Risk.Validate(); err != nil {
		return fmt.Errorf("risk config: %w", err)
	}
	if c.Strategy.RSIPeriod <= 0 || c.Strategy.MFIPeriod <= 0 {
		return fmt.Errorf("indicator periods must be positive")
	}
	if c.Strategy.Oversold >= c.Strategy.Overbought {
		return fmt.Errorf("oversold level %.1f must be below overbought level %.1f", c.Strategy.Oversold, c.Strategy.Overbought)
	}
	return nil
}

func credentialPrefix(demo bool) string {
	if demo {
		return "TESTNET_BYBIT_API"
	}
	return "LIVE_BYBIT_API"
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(val)
		if err == nil {
			return b
		}
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		i, err := strconv.Atoi(val)
		if err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		f, err := strconv.ParseFloat(val, 64)
		if err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		d, err := time.ParseDuration(val)
		if err == nil {
			return d
		}
	}
	return defaultVal
}
