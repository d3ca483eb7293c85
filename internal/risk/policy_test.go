package risk

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	return Config{
		FixedRiskUSD:            10.0,
		StopLossPct:             0.015,
		TakeProfitPct:           0.03,
		TrailingStopPct:         0.01,
		ProfitLockActivationPct: 0.02,
		Leverage:                25,
	}
}

func TestConfig_Validate(t *testing.T) {
	require.NoError(t, testConfig().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero fixed risk", func(c *Config) { c.FixedRiskUSD = 0 }},
		{"negative fixed risk", func(c *Config) { c.FixedRiskUSD = -5 }},
		{"zero stop loss", func(c *Config) { c.StopLossPct = 0 }},
		{"stop loss over one", func(c *Config) { c.StopLossPct = 1.5 }},
		{"zero take profit", func(c *Config) { c.TakeProfitPct = 0 }},
		{"zero trailing stop", func(c *Config) { c.TrailingStopPct = 0 }},
		{"zero profit lock activation", func(c *Config) { c.ProfitLockActivationPct = 0 }},
		{"sub-unit leverage", func(c *Config) { c.Leverage = 0.5 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestPolicy_PositionSize_LossAtStopApproximatesFixedRisk(t *testing.T) {
	// wallet=$1000, price=$100, risk=$10, sl=1.5%, leverage=25x
	p := NewPolicy(testConfig())

	qty := p.PositionSize(1000, 100)
	require.Greater(t, qty, 0.0)

	stop := p.StopLossPrice(100, SideLong)
	assert.InDelta(t, 98.50, stop, 1e-9)

	lossAtStop := qty * (100 - stop)
	assert.InDelta(t, 10.0, lossAtStop, 1e-6)
}

func TestPolicy_PositionSize_ScalesLinearlyWithFixedRisk(t *testing.T) {
	base := NewPolicy(testConfig())

	doubled := testConfig()
	doubled.FixedRiskUSD *= 2
	scaled := NewPolicy(doubled)

	q1 := base.PositionSize(10000, 50)
	q2 := scaled.PositionSize(10000, 50)
	assert.InDelta(t, 2.0, q2/q1, 1e-9)
}

func TestPolicy_PositionSize_NonPositiveInputs(t *testing.T) {
	p := NewPolicy(testConfig())

	assert.Equal(t, 0.0, p.PositionSize(0, 100))
	assert.Equal(t, 0.0, p.PositionSize(-50, 100))
	assert.Equal(t, 0.0, p.PositionSize(1000, 0))
	assert.Equal(t, 0.0, p.PositionSize(1000, -1))
}

func TestPolicy_PositionSize_AlwaysFiniteNonNegative(t *testing.T) {
	p := NewPolicy(testConfig())

	for _, balance := range []float64{0.01, 1, 1000, 1e9} {
		for _, price := range []float64{0.0001, 1, 100, 1e6} {
			qty := p.PositionSize(balance, price)
			assert.False(t, math.IsNaN(qty), "balance=%v price=%v", balance, price)
			assert.False(t, math.IsInf(qty, 0), "balance=%v price=%v", balance, price)
			assert.GreaterOrEqual(t, qty, 0.0, "balance=%v price=%v", balance, price)
		}
	}
}

func TestPolicy_PositionSize_CappedByMarginCapacity(t *testing.T) {
	// Tiny wallet: the risk-derived quantity would need more margin than
	// the wallet can carry at 25x, so the cap applies.
	p := NewPolicy(testConfig())

	qty := p.PositionSize(1, 100)
	notional := qty * 100
	assert.LessOrEqual(t, notional, 1*25.0+1e-9)
}

func TestPolicy_StopAndTargetOrdering(t *testing.T) {
	p := NewPolicy(testConfig())
	entry := 100.0

	longSL := p.StopLossPrice(entry, SideLong)
	longTP := p.TakeProfitPrice(entry, SideLong)
	assert.Less(t, longSL, entry)
	assert.Greater(t, longTP, entry)

	shortSL := p.StopLossPrice(entry, SideShort)
	shortTP := p.TakeProfitPrice(entry, SideShort)
	assert.Greater(t, shortSL, entry)
	assert.Less(t, shortTP, entry)
}

func TestPolicy_ShouldActivateProfitLock(t *testing.T) {
	p := NewPolicy(testConfig()) // activation at +2%

	tests := []struct {
		name    string
		entry   float64
		current float64
		side    Side
		want    bool
	}{
		{"long flat", 100, 100, SideLong, false},
		{"long below threshold", 100, 101.9, SideLong, false},
		{"long at threshold", 100, 102, SideLong, true},
		{"long above threshold", 100, 103, SideLong, true},
		{"long losing", 100, 98, SideLong, false},
		{"short at threshold", 100, 98, SideShort, true},
		{"short below threshold", 100, 98.5, SideShort, false},
		{"short losing", 100, 103, SideShort, false},
		{"zero entry", 0, 100, SideLong, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := p.ShouldActivateProfitLock(tt.entry, tt.current, tt.side)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPolicy_TrailingStopPrice(t *testing.T) {
	p := NewPolicy(testConfig()) // 1% trailing distance

	assert.InDelta(t, 102.0*0.99, p.TrailingStopPrice(102.0, SideLong), 1e-9)
	assert.InDelta(t, 98.0*1.01, p.TrailingStopPrice(98.0, SideShort), 1e-9)
}

func TestPolicy_Summary(t *testing.T) {
	p := NewPolicy(testConfig())

	s := p.Summary(1000)
	assert.Equal(t, 25.0, s.Leverage)
	assert.InDelta(t, 666.67, s.PositionValue, 0.01)
	assert.InDelta(t, 66.67, s.PositionSizePct, 0.01)
	assert.Equal(t, 10.0, s.MaxLossUSD)
	assert.InDelta(t, 1.0, s.RiskPerTradePct, 1e-9)
	assert.InDelta(t, 2.0, s.RiskRewardRatio, 1e-9)
	assert.InDelta(t, 20.0, s.RewardUSD, 1e-9)
	assert.InDelta(t, 2.0, s.ProfitLockPct, 1e-9)
	// 2% gain on a $666.67 position against a $1000 wallet
	assert.InDelta(t, 1.333, s.WalletProfitLockPct, 0.001)

	zero := p.Summary(0)
	assert.Equal(t, 0.0, zero.PositionSizePct)
	assert.Equal(t, 0.0, zero.RiskPerTradePct)
}
