package risk

import (
	"fmt"
	"math"
)

// Side represents the direction of a position.
type Side string

const (
	SideLong  Side = "long"
	SideShort Side = "short"
)

// Config holds the immutable risk parameters for a trading session.
// All percentage fields are fractions (0.015 = 1.5%).
type Config struct {
	FixedRiskUSD            float64 // target loss in USD if the stop loss fills
	StopLossPct             float64
	TakeProfitPct           float64
	TrailingStopPct         float64
	ProfitLockActivationPct float64
	Leverage                float64
}

// Validate rejects parameter sets that would make the sizing math
// divide by zero or produce nonsense orders.
func (c Config) Validate() error {
	if c.FixedRiskUSD <= 0 {
		return fmt.Errorf("fixed risk must be positive, got %.4f", c.FixedRiskUSD)
	}
	if c.StopLossPct <= 0 || c.StopLossPct >= 1 {
		return fmt.Errorf("stop loss pct must be in (0, 1), got %.4f", c.StopLossPct)
	}
	if c.TakeProfitPct <= 0 || c.TakeProfitPct >= 1 {
		return fmt.Errorf("take profit pct must be in (0, 1), got %.4f", c.TakeProfitPct)
	}
	if c.TrailingStopPct <= 0 || c.TrailingStopPct >= 1 {
		return fmt.Errorf("trailing stop pct must be in (0, 1), got %.4f", c.TrailingStopPct)
	}
	if c.ProfitLockActivationPct <= 0 || c.ProfitLockActivationPct >= 1 {
		return fmt.Errorf("profit lock activation pct must be in (0, 1), got %.4f", c.ProfitLockActivationPct)
	}
	if c.Leverage < 1 {
		return fmt.Errorf("leverage must be >= 1, got %.1f", c.Leverage)
	}
	return nil
}

// Policy computes position sizes and protective price levels from an
// immutable Config. All methods are pure; the caller owns quantization
// against instrument constraints.
type Policy struct {
	cfg Config
}

// NewPolicy creates a Policy. The config must have passed Validate;
// the constructor does not re-check it.
func NewPolicy(cfg Config) *Policy {
	return &Policy{cfg: cfg}
}

// Config returns the policy parameters.
func (p *Policy) Config() Config {
	return p.cfg
}

// PositionSize derives a raw contract quantity such that a full
// stop-loss fill loses approximately FixedRiskUSD:
//
//	qty = FixedRiskUSD / (StopLossPct * price)
//
// The quantity is capped so the position's initial margin at the
// configured leverage never exceeds the wallet balance. Non-positive
// inputs yield zero.
func (p *Policy) PositionSize(walletBalance, currentPrice float64) float64 {
	if walletBalance <= 0 || currentPrice <= 0 {
		return 0
	}

	qty := p.cfg.FixedRiskUSD / (p.cfg.StopLossPct * currentPrice)

	maxQty := walletBalance * p.cfg.Leverage / currentPrice
	if qty > maxQty {
		qty = maxQty
	}

	if math.IsNaN(qty) || math.IsInf(qty, 0) || qty < 0 {
		return 0
	}
	return qty
}

// StopLossPrice returns the protective stop price for a position
// entered at entryPrice.
func (p *Policy) StopLossPrice(entryPrice float64, side Side) float64 {
	if side == SideLong {
		return entryPrice * (1 - p.cfg.StopLossPct)
	}
	return entryPrice * (1 + p.cfg.StopLossPct)
}

// TakeProfitPrice returns the profit target price for a position
// entered at entryPrice.
func (p *Policy) TakeProfitPrice(entryPrice float64, side Side) float64 {
	if side == SideLong {
		return entryPrice * (1 + p.cfg.TakeProfitPct)
	}
	return entryPrice * (1 - p.cfg.TakeProfitPct)
}

// ShouldActivateProfitLock reports whether the position's unrealized
// gain has reached the activation threshold. The controller is
// responsible for acting only on the first true result.
func (p *Policy) ShouldActivateProfitLock(entryPrice, currentPrice float64, side Side) bool {
	if entryPrice <= 0 {
		return false
	}
	gain := (currentPrice - entryPrice) / entryPrice
	if side == SideShort {
		gain = -gain
	}
	return gain >= p.cfg.ProfitLockActivationPct
}

// TrailingStopPrice returns the current price offset by the trailing
// distance in the loss direction.
func (p *Policy) TrailingStopPrice(currentPrice float64, side Side) float64 {
	if side == SideLong {
		return currentPrice * (1 - p.cfg.TrailingStopPct)
	}
	return currentPrice * (1 + p.cfg.TrailingStopPct)
}

// RiskRewardRatio is the take-profit distance over the stop-loss
// distance.
func (p *Policy) RiskRewardRatio() float64 {
	return p.cfg.TakeProfitPct / p.cfg.StopLossPct
}

// Summary is a read-only projection of the policy against a wallet
// balance, for display.
type Summary struct {
	Leverage        float64
	PositionValue   float64 // notional of a freshly sized position in USD
	PositionSizePct float64 // notional as % of wallet
	MaxLossUSD      float64
	RiskPerTradePct float64 // max loss as % of wallet
	RewardUSD       float64
	RiskRewardRatio float64

	// Position-level thresholds in percent, and their wallet-level impact.
	ProfitLockPct        float64
	WalletProfitLockPct  float64
	TakeProfitPctDisplay float64
	WalletTakeProfitPct  float64
}

// Summary projects the policy onto walletBalance. A non-positive
// balance zeroes the wallet-relative fields.
func (p *Policy) Summary(walletBalance float64) Summary {
	positionValue := p.cfg.FixedRiskUSD / p.cfg.StopLossPct
	rr := p.RiskRewardRatio()

	s := Summary{
		Leverage:             p.cfg.Leverage,
		PositionValue:        positionValue,
		MaxLossUSD:           p.cfg.FixedRiskUSD,
		RewardUSD:            p.cfg.FixedRiskUSD * rr,
		RiskRewardRatio:      rr,
		ProfitLockPct:        p.cfg.ProfitLockActivationPct * 100,
		TakeProfitPctDisplay: p.cfg.TakeProfitPct * 100,
	}

	if walletBalance > 0 {
		s.PositionSizePct = positionValue / walletBalance * 100
		s.RiskPerTradePct = p.cfg.FixedRiskUSD / walletBalance * 100
		s.WalletProfitLockPct = positionValue * p.cfg.ProfitLockActivationPct / walletBalance * 100
		s.WalletTakeProfitPct = positionValue * p.cfg.TakeProfitPct / walletBalance * 100
	}

	return s
}
