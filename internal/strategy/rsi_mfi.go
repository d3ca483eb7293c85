package strategy

import (
	"fmt"

	"github.com/vitorcalvi/RSI-MFIBot/internal/indicators"
	"github.com/vitorcalvi/RSI-MFIBot/pkg/types"
)

// Action is the trading decision for the current candle.
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
	ActionHold Action = "HOLD"
)

// Signal carries a decision plus the indicator readings behind it.
type Signal struct {
	Action Action
	Price  float64
	RSI    float64
	MFI    float64
}

// Config holds the RSI-MFI strategy parameters.
type Config struct {
	RSIPeriod    int
	MFIPeriod    int
	Oversold     float64
	Overbought   float64
	RequireTrend bool
}

// RSIMFI is a dual-oscillator strategy: it signals only when RSI and
// MFI agree. BUY when both are oversold, SELL when both are
// overbought, HOLD otherwise.
type RSIMFI struct {
	cfg Config
	rsi *indicators.RSI
	mfi *indicators.MFI
}

// NewRSIMFI creates the strategy from config.
func NewRSIMFI(cfg Config) *RSIMFI {
	return &RSIMFI{
		cfg: cfg,
		rsi: indicators.NewRSI(cfg.RSIPeriod),
		mfi: indicators.NewMFI(cfg.MFIPeriod),
	}
}

// MinCandles returns the minimum history length needed before the
// strategy can produce a signal.
func (s *RSIMFI) MinCandles() int {
	min := s.cfg.RSIPeriod
	if s.cfg.MFIPeriod > min {
		min = s.cfg.MFIPeriod
	}
	return min + 1
}

// Evaluate computes a signal from the candle history, oldest first.
// The last candle is treated as current.
func (s *RSIMFI) Evaluate(data []types.OHLCV) (*Signal, error) {
	if len(data) < s.MinCandles() {
		return nil, fmt.Errorf("need at least %d candles, got %d", s.MinCandles(), len(data))
	}

	closes := make([]float64, len(data))
	for i, candle := range data {
		closes[i] = candle.Close
	}

	rsiValue, err := s.rsi.Calculate(closes)
	if err != nil {
		return nil, fmt.Errorf("rsi: %w", err)
	}

	mfiValue, err := s.mfi.Calculate(data)
	if err != nil {
		return nil, fmt.Errorf("mfi: %w", err)
	}

	signal := &Signal{
		Action: ActionHold,
		Price:  data[len(data)-1].Close,
		RSI:    rsiValue,
		MFI:    mfiValue,
	}

	switch {
	case rsiValue < s.cfg.Oversold && mfiValue < s.cfg.Oversold:
		signal.Action = ActionBuy
	case rsiValue > s.cfg.Overbought && mfiValue > s.cfg.Overbought:
		signal.Action = ActionSell
	}

	if signal.Action != ActionHold && s.cfg.RequireTrend && !s.trendConfirms(data, signal.Action) {
		signal.Action = ActionHold
	}

	return signal, nil
}

// trendConfirms checks the candidate signal against a simple moving
// average of the lookback window: longs need price at or below the
// mean, shorts at or above. It filters entries chasing an extended
// move.
func (s *RSIMFI) trendConfirms(data []types.OHLCV, action Action) bool {
	window := data[len(data)-s.MinCandles():]
	sum := 0.0
	for _, candle := range window {
		sum += candle.Close
	}
	mean := sum / float64(len(window))
	last := data[len(data)-1].Close

	if action == ActionBuy {
		return last <= mean
	}
	return last >= mean
}
