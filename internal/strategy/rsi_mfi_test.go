package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitorcalvi/RSI-MFIBot/pkg/types"
)

func testConfig() Config {
	return Config{
		RSIPeriod:  5,
		MFIPeriod:  5,
		Oversold:   30,
		Overbought: 70,
	}
}

func fallingCandles(n int, start float64) []types.OHLCV {
	data := make([]types.OHLCV, n)
	for i := range data {
		base := start - float64(i)
		data[i] = types.OHLCV{High: base + 0.5, Low: base - 0.5, Close: base, Volume: 1000}
	}
	return data
}

func risingCandles(n int, start float64) []types.OHLCV {
	data := make([]types.OHLCV, n)
	for i := range data {
		base := start + float64(i)
		data[i] = types.OHLCV{High: base + 0.5, Low: base - 0.5, Close: base, Volume: 1000}
	}
	return data
}

func flatCandles(n int, price float64) []types.OHLCV {
	data := make([]types.OHLCV, n)
	for i := range data {
		data[i] = types.OHLCV{High: price + 0.5, Low: price - 0.5, Close: price, Volume: 1000}
	}
	return data
}

func TestRSIMFI_InsufficientHistory(t *testing.T) {
	s := NewRSIMFI(testConfig())
	_, err := s.Evaluate(flatCandles(3, 100))
	assert.Error(t, err)
}

func TestRSIMFI_BuyWhenBothOversold(t *testing.T) {
	s := NewRSIMFI(testConfig())
	// A straight decline drives both oscillators to 0.
	signal, err := s.Evaluate(fallingCandles(10, 100))
	require.NoError(t, err)

	assert.Equal(t, ActionBuy, signal.Action)
	assert.Less(t, signal.RSI, 30.0)
	assert.Less(t, signal.MFI, 30.0)
	assert.Equal(t, 91.0, signal.Price)
}

func TestRSIMFI_SellWhenBothOverbought(t *testing.T) {
	s := NewRSIMFI(testConfig())
	signal, err := s.Evaluate(risingCandles(10, 100))
	require.NoError(t, err)

	assert.Equal(t, ActionSell, signal.Action)
	assert.Greater(t, signal.RSI, 70.0)
	assert.Greater(t, signal.MFI, 70.0)
}

func TestRSIMFI_HoldWhenNeutral(t *testing.T) {
	s := NewRSIMFI(testConfig())
	// Alternating moves keep both oscillators near the midline.
	data := flatCandles(10, 100)
	for i := range data {
		if i%2 == 0 {
			data[i].Close += 1
			data[i].High += 1
		} else {
			data[i].Close -= 1
			data[i].Low -= 1
		}
	}

	signal, err := s.Evaluate(data)
	require.NoError(t, err)
	assert.Equal(t, ActionHold, signal.Action)
}

func TestRSIMFI_HoldWhenOscillatorsDisagree(t *testing.T) {
	s := NewRSIMFI(testConfig())
	// Falling prices on rising volume into the final up candle: RSI
	// stays depressed while MFI is pulled up by the heavy up move.
	data := fallingCandles(10, 100)
	last := data[len(data)-1]
	last.Close = data[len(data)-2].Close + 0.2
	last.High = last.Close + 0.5
	last.Volume = 1e9
	data[len(data)-1] = last

	signal, err := s.Evaluate(data)
	require.NoError(t, err)
	if signal.RSI < 30 && signal.MFI >= 30 {
		assert.Equal(t, ActionHold, signal.Action)
	}
}

func TestRSIMFI_TrendFilterBlocksChasedEntry(t *testing.T) {
	cfg := testConfig()
	cfg.RequireTrend = true
	s := NewRSIMFI(cfg)

	// Rising series closes above its window mean, so the SELL signal
	// survives the filter (shorts want price at or above the mean).
	signal, err := s.Evaluate(risingCandles(10, 100))
	require.NoError(t, err)
	assert.Equal(t, ActionSell, signal.Action)

	// Falling series closes below the mean, so BUY survives too.
	signal, err = s.Evaluate(fallingCandles(10, 100))
	require.NoError(t, err)
	assert.Equal(t, ActionBuy, signal.Action)
}

func TestRSIMFI_MinCandles(t *testing.T) {
	s := NewRSIMFI(Config{RSIPeriod: 14, MFIPeriod: 10, Oversold: 20, Overbought: 80})
	assert.Equal(t, 15, s.MinCandles())
}
