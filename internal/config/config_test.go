package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DEMO_MODE", "true")
	t.Setenv("TESTNET_BYBIT_API_KEY", "key")
	t.Setenv("TESTNET_BYBIT_API_SECRET", "secret")
}

func TestLoad_Defaults(t *testing.T) {
	validEnv(t)

	cfg := Load()

	assert.Equal(t, "ZORA", cfg.Trading.Symbol)
	assert.Equal(t, "ZORAUSDT", cfg.Trading.Linear)
	assert.Equal(t, "5", cfg.Trading.Interval)
	assert.Equal(t, time.Second, cfg.Trading.PollInterval)
	assert.Equal(t, 10.0, cfg.Risk.FixedRiskUSD)
	assert.Equal(t, 0.015, cfg.Risk.StopLossPct)
	assert.Equal(t, 25.0, cfg.Risk.Leverage)
	assert.Equal(t, 14, cfg.Strategy.RSIPeriod)
	assert.True(t, cfg.Journal.Enabled)

	require.NoError(t, cfg.Validate())
}

func TestLoad_DemoModeSelectsTestnetCredentials(t *testing.T) {
	t.Setenv("DEMO_MODE", "true")
	t.Setenv("TESTNET_BYBIT_API_KEY", "demo-key")
	t.Setenv("TESTNET_BYBIT_API_SECRET", "demo-secret")
	t.Setenv("LIVE_BYBIT_API_KEY", "live-key")
	t.Setenv("LIVE_BYBIT_API_SECRET", "live-secret")

	cfg := Load()
	assert.Equal(t, "demo-key", cfg.Exchange.APIKey)
	assert.Equal(t, "demo-secret", cfg.Exchange.Secret)
}

func TestLoad_LiveModeSelectsLiveCredentials(t *testing.T) {
	t.Setenv("DEMO_MODE", "false")
	t.Setenv("TESTNET_BYBIT_API_KEY", "demo-key")
	t.Setenv("TESTNET_BYBIT_API_SECRET", "demo-secret")
	t.Setenv("LIVE_BYBIT_API_KEY", "live-key")
	t.Setenv("LIVE_BYBIT_API_SECRET", "live-secret")

	cfg := Load()
	assert.Equal(t, "live-key", cfg.Exchange.APIKey)
	assert.Equal(t, "live-secret", cfg.Exchange.Secret)
}

func TestValidate_MissingCredentials(t *testing.T) {
	t.Setenv("DEMO_MODE", "true")
	t.Setenv("TESTNET_BYBIT_API_KEY", "")
	t.Setenv("TESTNET_BYBIT_API_SECRET", "")

	cfg := Load()
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TESTNET_BYBIT_API")
}

func TestValidate_RejectsZeroRiskDenominators(t *testing.T) {
	validEnv(t)
	t.Setenv("STOP_LOSS_PCT", "0")

	cfg := Load()
	assert.Error(t, cfg.Validate())
}

func TestValidate_RejectsInvertedOscillatorLevels(t *testing.T) {
	validEnv(t)
	t.Setenv("OVERSOLD_LEVEL", "80")
	t.Setenv("OVERBOUGHT_LEVEL", "20")

	cfg := Load()
	assert.Error(t, cfg.Validate())
}

func TestEnvHelpers_FallBackOnGarbage(t *testing.T) {
	t.Setenv("KLINE_LIMIT", "not-a-number")
	t.Setenv("POLL_INTERVAL", "soon")
	validEnv(t)

	cfg := Load()
	assert.Equal(t, 100, cfg.Trading.KlineLimit)
	assert.Equal(t, time.Second, cfg.Trading.PollInterval)
}
