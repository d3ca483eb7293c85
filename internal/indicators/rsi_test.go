package indicators

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRSI_InsufficientData(t *testing.T) {
	rsi := NewRSI(14)
	_, err := rsi.Calculate([]float64{100, 101, 102})
	assert.Error(t, err)
}

func TestRSI_AllGains(t *testing.T) {
	rsi := NewRSI(5)
	prices := []float64{100, 101, 102, 103, 104, 105}

	value, err := rsi.Calculate(prices)
	require.NoError(t, err)
	assert.Equal(t, 100.0, value)
}

func TestRSI_AllLosses(t *testing.T) {
	rsi := NewRSI(5)
	prices := []float64{105, 104, 103, 102, 101, 100}

	value, err := rsi.Calculate(prices)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, value, 1e-9)
}

func TestRSI_BalancedMoves(t *testing.T) {
	rsi := NewRSI(4)
	// Equal magnitude gains and losses give RS=1, RSI=50.
	prices := []float64{100, 101, 100, 101, 100}

	value, err := rsi.Calculate(prices)
	require.NoError(t, err)
	assert.InDelta(t, 50.0, value, 1e-9)
}

func TestRSI_Bounds(t *testing.T) {
	rsi := NewRSI(14)
	prices := []float64{
		44.34, 44.09, 44.15, 43.61, 44.33, 44.83, 45.10, 45.42,
		45.84, 46.08, 45.89, 46.03, 45.61, 46.28, 46.28,
	}

	value, err := rsi.Calculate(prices)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, value, 0.0)
	assert.LessOrEqual(t, value, 100.0)
	// Mostly rising series should read clearly above the midline.
	assert.Greater(t, value, 50.0)
}
