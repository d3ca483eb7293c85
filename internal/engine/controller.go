package engine

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/vitorcalvi/RSI-MFIBot/internal/exchange"
	"github.com/vitorcalvi/RSI-MFIBot/internal/journal"
	"github.com/vitorcalvi/RSI-MFIBot/internal/logger"
	"github.com/vitorcalvi/RSI-MFIBot/internal/monitoring"
	"github.com/vitorcalvi/RSI-MFIBot/internal/notifications"
	"github.com/vitorcalvi/RSI-MFIBot/internal/risk"
	"github.com/vitorcalvi/RSI-MFIBot/internal/strategy"
	"github.com/vitorcalvi/RSI-MFIBot/pkg/types"
)

// cycleTimeout caps one full cycle's venue calls.
const cycleTimeout = 30 * time.Second

// Config holds the controller's loop parameters.
type Config struct {
	Symbol       string
	Interval     exchange.KlineInterval
	KlineLimit   int
	PollInterval time.Duration
}

// SignalSource produces one trading decision per candle history.
type SignalSource interface {
	Evaluate(data []types.OHLCV) (*strategy.Signal, error)
	MinCandles() int
}

// TradeRecorder persists closed trades. Recording failures never affect
// the trading loop.
type TradeRecorder interface {
	Record(trade journal.ClosedTrade) error
}

// Deps are the controller's collaborators. Venue, Policy, Signals are
// required; the rest may be nil.
type Deps struct {
	Venue    exchange.Venue
	Policy   *risk.Policy
	Signals  SignalSource
	Notifier notifications.Notifier
	Recorder TradeRecorder
	Logger   *logger.Logger
	Health   *monitoring.HealthChecker
}

// position is the controller's mirror of the venue's open exposure,
// plus the escalating protection flag. A nil *position means flat.
// The struct is replaced wholesale on each refresh, never mutated
// field-by-field, so status readers always see a consistent snapshot.
type position struct {
	side             risk.Side
	size             float64
	entryPrice       float64
	unrealizedPnL    float64
	openedAt         time.Time
	profitLockActive bool
}

// Controller owns the single-position lifecycle state machine. One
// cycle runs to completion before the next begins; all mutation of the
// position state happens inside a cycle.
type Controller struct {
	cfg      Config
	venue    exchange.Venue
	policy   *risk.Policy
	signals  SignalSource
	notifier notifications.Notifier
	recorder TradeRecorder
	log      *logger.Logger
	health   *monitoring.HealthChecker

	mu  sync.RWMutex
	pos *position

	stopOnce sync.Once
	stopChan chan struct{}
	doneChan chan struct{}
}

// NewController creates a controller. A nil Notifier is replaced with a
// no-op sink.
func NewController(cfg Config, deps Deps) *Controller {
	notifier := deps.Notifier
	if notifier == nil {
		notifier = notifications.Noop{}
	}

	return &Controller{
		cfg:      cfg,
		venue:    deps.Venue,
		policy:   deps.Policy,
		signals:  deps.Signals,
		notifier: notifier,
		recorder: deps.Recorder,
		log:      deps.Logger,
		health:   deps.Health,
		stopChan: make(chan struct{}),
		doneChan: make(chan struct{}),
	}
}

// Run connects to the venue, re-synchronizes any position left over
// from a previous run, and polls until Stop is called. On stop it
// performs one final forced close of any open position.
func (c *Controller) Run() error {
	defer close(c.doneChan)

	ctx := context.Background()
	if err := c.venue.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to venue: %w", err)
	}
	if c.health != nil {
		c.health.SetConnected(true)
	}

	if err := c.venue.SetLeverage(ctx, c.cfg.Symbol, c.policy.Config().Leverage); err != nil {
		c.logf(logger.LogLevelWarning, "could not set leverage: %v", err)
	}

	balance, err := c.venue.GetWalletBalance(ctx)
	if err != nil {
		c.logf(logger.LogLevelWarning, "could not fetch starting balance: %v", err)
	}
	c.notifier.BotStarted(c.cfg.Symbol, balance)
	c.logf(logger.LogLevelInfo, "controller started: %s %s poll=%s", c.cfg.Symbol, c.cfg.Interval, c.cfg.PollInterval)

	c.resyncPosition(ctx)

	c.runCycle()

	ticker := time.NewTicker(c.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.runCycle()
		case <-c.stopChan:
			c.shutdown()
			return nil
		}
	}
}

// Stop requests a graceful shutdown and waits for the final forced
// close to finish.
func (c *Controller) Stop() {
	c.stopOnce.Do(func() {
		close(c.stopChan)
	})
	<-c.doneChan
}

// Position returns a copy of the current position, or nil when flat.
// Safe for concurrent status readers.
func (c *Controller) Position() *exchange.Position {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.pos == nil {
		return nil
	}
	return &exchange.Position{
		Symbol:        c.cfg.Symbol,
		Side:          orderSide(c.pos.side),
		Size:          c.pos.size,
		AvgPrice:      c.pos.entryPrice,
		UnrealizedPnL: c.pos.unrealizedPnL,
	}
}

func (c *Controller) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), cycleTimeout)
	defer cancel()

	c.mu.RLock()
	open := c.pos != nil
	c.mu.RUnlock()

	if open {
		c.logf(logger.LogLevelInfo, "stop requested with open position, forcing close")
		if err := c.closePosition(ctx, notifications.ReasonBotStop, 0); err != nil {
			c.logf(logger.LogLevelError, "final close failed: %v", err)
			c.notifier.Error(fmt.Sprintf("final close failed: %v", err))
		}
	}

	c.notifier.BotStopped()
	c.logf(logger.LogLevelInfo, "controller stopped")
}

// runCycle executes one full trading cycle: market data fetch, position
// refresh, protection escalation, signal handling. Any panic is caught
// here so a bad cycle never kills the loop.
func (c *Controller) runCycle() {
	defer func() {
		if r := recover(); r != nil {
			c.logf(logger.LogLevelError, "panic in trading cycle: %v", r)
			monitoring.RecordError("panic")
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), cycleTimeout)
	defer cancel()

	klines, err := c.venue.GetKlines(ctx, exchange.KlineParams{
		Symbol:   c.cfg.Symbol,
		Interval: c.cfg.Interval,
		Limit:    c.cfg.KlineLimit,
	})
	if err != nil {
		c.absorb("market_data", err)
		return
	}
	if len(klines) == 0 {
		c.absorb("market_data", fmt.Errorf("empty kline response"))
		return
	}

	if !c.refreshPosition(ctx) {
		return
	}

	currentPrice := klines[len(klines)-1].Close
	monitoring.UpdatePrice(c.cfg.Symbol, currentPrice)

	c.evaluateProtection(ctx, currentPrice)

	signal, err := c.signals.Evaluate(klines)
	if err != nil {
		c.absorb("signal", err)
		return
	}

	c.logCycle(signal)
	c.handleSignal(ctx, signal)

	if c.health != nil {
		c.health.RecordCycle(currentPrice)
	}
}

// refreshPosition queries the venue and replaces the local position
// snapshot. The venue's answer is the sole source of truth: a missing
// position clears all position-scoped state, covering stops and
// targets filled while we were not looking. Returns false when the
// venue could not answer and the rest of the cycle must be skipped.
func (c *Controller) refreshPosition(ctx context.Context) bool {
	venuePos, err := c.venue.GetPosition(ctx, c.cfg.Symbol)
	if err != nil {
		c.absorb("position_refresh", err)
		return false
	}

	c.mu.Lock()
	prev := c.pos
	if venuePos == nil {
		c.pos = nil
	} else {
		next := &position{
			side:          positionSide(venuePos.Side),
			size:          venuePos.Size,
			entryPrice:    venuePos.AvgPrice,
			unrealizedPnL: venuePos.UnrealizedPnL,
			openedAt:      time.Now(),
		}
		if prev != nil && prev.side == next.side {
			next.openedAt = prev.openedAt
			next.profitLockActive = prev.profitLockActive
		}
		c.pos = next
	}
	cleared := prev != nil && c.pos == nil
	c.mu.Unlock()

	if cleared {
		c.logf(logger.LogLevelTrade, "position closed on venue side (stop/target fill), clearing state")
		monitoring.UpdatePosition(c.cfg.Symbol, 0, 0)
		c.notifyPassiveClose(prev)
	} else if c.pos != nil {
		monitoring.UpdatePosition(c.cfg.Symbol, c.pos.size, c.pos.unrealizedPnL)
	}

	return true
}

// notifyPassiveClose reports a close the venue executed on its own.
// The exact fill price is unknown here; the last refreshed unrealized
// P&L is the best available estimate.
func (c *Controller) notifyPassiveClose(prev *position) {
	pnlPct := 0.0
	if prev.entryPrice > 0 && prev.size > 0 {
		pnlPct = prev.unrealizedPnL / (prev.entryPrice * prev.size) * 100
	}

	now := time.Now()
	c.notifier.TradeClosed(notifications.TradeClosedEvent{
		Symbol:   c.cfg.Symbol,
		Reason:   notifications.ReasonExternal,
		PnLPct:   pnlPct,
		PnLUSD:   prev.unrealizedPnL,
		Duration: now.Sub(prev.openedAt),
		ClosedAt: now,
	})
	c.record(prev, prev.entryPrice, prev.unrealizedPnL, pnlPct, notifications.ReasonExternal)
	monitoring.RecordTrade(c.cfg.Symbol, string(orderSide(prev.side)), "close")
}

// evaluateProtection fires the profit-lock transition: the first cycle
// the unrealized gain reaches the activation threshold, a trailing stop
// is attached on the venue. The flag flips at most once per position
// and is only reset by the position closing.
func (c *Controller) evaluateProtection(ctx context.Context, currentPrice float64) {
	c.mu.RLock()
	pos := c.pos
	c.mu.RUnlock()

	if pos == nil || pos.profitLockActive {
		return
	}
	if !c.policy.ShouldActivateProfitLock(pos.entryPrice, currentPrice, pos.side) {
		return
	}

	info, err := c.venue.GetInstrumentInfo(ctx, c.cfg.Symbol)
	if err != nil {
		c.absorb("instrument_info", err)
		return
	}

	// The venue takes the trailing stop as an absolute price distance.
	distance := math.Abs(currentPrice - c.policy.TrailingStopPrice(currentPrice, pos.side))
	err = c.venue.SetTradingStop(ctx, exchange.TradingStopParams{
		Symbol:       c.cfg.Symbol,
		TrailingStop: FormatPrice(distance, info),
	})
	if err != nil {
		c.absorb("trailing_stop", err)
		return
	}

	c.mu.Lock()
	if c.pos != nil {
		locked := *c.pos
		locked.profitLockActive = true
		c.pos = &locked
	}
	c.mu.Unlock()

	gainPct := (currentPrice - pos.entryPrice) / pos.entryPrice * 100
	if pos.side == risk.SideShort {
		gainPct = -gainPct
	}

	c.logf(logger.LogLevelTrade, "profit lock activated at +%.2f%%, trailing %.1f%%",
		gainPct, c.policy.Config().TrailingStopPct*100)
	c.notifier.ProfitLockActivated(notifications.ProfitLockEvent{
		Symbol:      c.cfg.Symbol,
		GainPct:     gainPct,
		TrailingPct: c.policy.Config().TrailingStopPct * 100,
	})
	monitoring.RecordProfitLock(c.cfg.Symbol)
}

// handleSignal applies the state machine's signal-driven transitions:
// open when flat, close on an opposite signal, hold on everything else.
func (c *Controller) handleSignal(ctx context.Context, signal *strategy.Signal) {
	if signal.Action == strategy.ActionHold {
		return
	}

	c.mu.RLock()
	pos := c.pos
	c.mu.RUnlock()

	signalSide := risk.SideLong
	if signal.Action == strategy.ActionSell {
		signalSide = risk.SideShort
	}

	if pos != nil {
		if pos.side == signalSide {
			return
		}
		c.logf(logger.LogLevelTrade, "opposite %s signal against %s position, closing", signal.Action, pos.side)
		if err := c.closePosition(ctx, notifications.ReasonOppositeSignal, signal.Price); err != nil {
			c.absorb("close", err)
		}
		return
	}

	if err := c.openPosition(ctx, signal, signalSide); err != nil {
		c.absorb("open", err)
	}
}

// openPosition executes the FLAT -> OPEN transition: size from the risk
// policy, quantize, submit the entry, then attach stop loss and take
// profit. A failed entry leaves the controller flat; failed protective
// stops leave the position open and rely on the signal-driven close
// path.
func (c *Controller) openPosition(ctx context.Context, signal *strategy.Signal, side risk.Side) error {
	wallet, err := c.venue.GetWalletBalance(ctx)
	if err != nil {
		return fmt.Errorf("wallet balance: %w", err)
	}

	info, err := c.venue.GetInstrumentInfo(ctx, c.cfg.Symbol)
	if err != nil {
		return fmt.Errorf("instrument info: %w", err)
	}

	rawQty := c.policy.PositionSize(wallet, signal.Price)
	if rawQty <= 0 {
		c.logf(logger.LogLevelWarning, "position size is zero (wallet $%.2f, price $%.4f), skipping entry", wallet, signal.Price)
		return nil
	}
	qtyStr := FormatQty(rawQty, info)

	_, err = c.venue.PlaceMarketOrder(ctx, exchange.OrderParams{
		Symbol:   c.cfg.Symbol,
		Side:     orderSide(side),
		Quantity: qtyStr,
	})
	if err != nil {
		return fmt.Errorf("entry order: %w", err)
	}

	entryPrice := signal.Price
	size, _ := strconv.ParseFloat(qtyStr, 64)
	if venuePos, err := c.venue.GetPosition(ctx, c.cfg.Symbol); err == nil && venuePos != nil {
		entryPrice = venuePos.AvgPrice
		size = venuePos.Size
	}

	now := time.Now()
	c.mu.Lock()
	c.pos = &position{
		side:       side,
		size:       size,
		entryPrice: entryPrice,
		openedAt:   now,
	}
	c.mu.Unlock()

	c.logf(logger.LogLevelTrade, "opened %s %s size=%s entry=$%.4f", side, c.cfg.Symbol, qtyStr, entryPrice)
	c.notifier.TradeOpened(notifications.TradeOpenedEvent{
		Symbol:   c.cfg.Symbol,
		Side:     string(orderSide(side)),
		Price:    entryPrice,
		Size:     size,
		OpenedAt: now,
	})
	monitoring.RecordTrade(c.cfg.Symbol, string(orderSide(side)), "open")
	monitoring.UpdatePosition(c.cfg.Symbol, size, 0)

	stopLoss := FormatPrice(c.policy.StopLossPrice(entryPrice, side), info)
	takeProfit := FormatPrice(c.policy.TakeProfitPrice(entryPrice, side), info)
	err = c.venue.SetTradingStop(ctx, exchange.TradingStopParams{
		Symbol:     c.cfg.Symbol,
		StopLoss:   stopLoss,
		TakeProfit: takeProfit,
	})
	if err != nil {
		c.logf(logger.LogLevelError, "could not set protective stops: %v", err)
		c.notifier.Error(fmt.Sprintf("protective stops failed for %s: %v", c.cfg.Symbol, err))
		monitoring.RecordError("protective_stops")
		return nil
	}

	c.logf(logger.LogLevelTrade, "protective stops set: SL=%s TP=%s", stopLoss, takeProfit)
	return nil
}

// closePosition executes a market reduce-only close of the full
// position. Calling it while flat is a no-op error and emits nothing.
// closePrice of 0 means unknown: P&L percent falls back to the last
// refreshed values.
func (c *Controller) closePosition(ctx context.Context, reason notifications.CloseReason, closePrice float64) error {
	c.mu.RLock()
	pos := c.pos
	c.mu.RUnlock()

	if pos == nil {
		return fmt.Errorf("no position to close")
	}

	qtyStr := strconv.FormatFloat(pos.size, 'f', -1, 64)
	if info, err := c.venue.GetInstrumentInfo(ctx, c.cfg.Symbol); err == nil {
		qtyStr = FormatQty(pos.size, info)
	}

	_, err := c.venue.PlaceMarketOrder(ctx, exchange.OrderParams{
		Symbol:     c.cfg.Symbol,
		Side:       orderSide(pos.side).Opposite(),
		Quantity:   qtyStr,
		ReduceOnly: true,
	})
	if err != nil {
		return fmt.Errorf("close order: %w", err)
	}

	exitPrice := closePrice
	if exitPrice <= 0 {
		exitPrice = pos.entryPrice
	}

	pnlPct := (exitPrice - pos.entryPrice) / pos.entryPrice * 100
	if pos.side == risk.SideShort {
		pnlPct = -pnlPct
	}
	pnlUSD := pos.unrealizedPnL
	if closePrice > 0 {
		diff := exitPrice - pos.entryPrice
		if pos.side == risk.SideShort {
			diff = -diff
		}
		pnlUSD = diff * pos.size
	}

	c.mu.Lock()
	c.pos = nil
	c.mu.Unlock()

	now := time.Now()
	c.logf(logger.LogLevelTrade, "closed %s %s (%s): %+.2f%% $%+.2f", pos.side, c.cfg.Symbol, reason, pnlPct, pnlUSD)
	c.notifier.TradeClosed(notifications.TradeClosedEvent{
		Symbol:   c.cfg.Symbol,
		Reason:   reason,
		PnLPct:   pnlPct,
		PnLUSD:   pnlUSD,
		Duration: now.Sub(pos.openedAt),
		ClosedAt: now,
	})
	c.record(pos, exitPrice, pnlUSD, pnlPct, reason)
	monitoring.RecordTrade(c.cfg.Symbol, string(orderSide(pos.side)), "close")
	monitoring.UpdatePosition(c.cfg.Symbol, 0, 0)

	return nil
}

// resyncPosition adopts a position left open by a previous run, so a
// restart continues protecting it instead of ignoring it.
func (c *Controller) resyncPosition(ctx context.Context) {
	venuePos, err := c.venue.GetPosition(ctx, c.cfg.Symbol)
	if err != nil {
		c.logf(logger.LogLevelWarning, "could not resync position: %v", err)
		return
	}
	if venuePos == nil {
		return
	}

	c.mu.Lock()
	c.pos = &position{
		side:          positionSide(venuePos.Side),
		size:          venuePos.Size,
		entryPrice:    venuePos.AvgPrice,
		unrealizedPnL: venuePos.UnrealizedPnL,
		openedAt:      time.Now(),
	}
	c.mu.Unlock()

	c.logf(logger.LogLevelInfo, "adopted existing %s position: size=%v entry=$%.4f",
		venuePos.Side, venuePos.Size, venuePos.AvgPrice)
}

func (c *Controller) record(pos *position, exitPrice, pnlUSD, pnlPct float64, reason notifications.CloseReason) {
	if c.recorder == nil {
		return
	}
	err := c.recorder.Record(journal.ClosedTrade{
		Symbol:     c.cfg.Symbol,
		Side:       string(orderSide(pos.side)),
		Size:       pos.size,
		EntryPrice: pos.entryPrice,
		ExitPrice:  exitPrice,
		PnLPct:     pnlPct,
		PnLUSD:     pnlUSD,
		OpenedAt:   pos.openedAt,
		ClosedAt:   time.Now(),
		Reason:     string(reason),
	})
	if err != nil {
		c.logf(logger.LogLevelWarning, "journal record failed: %v", err)
	}
}

// absorb handles a venue or signal failure per the loop's error model:
// log it, count it, keep running. The polling cadence is the retry.
func (c *Controller) absorb(kind string, err error) {
	c.logf(logger.LogLevelError, "%s failed: %v", kind, err)
	monitoring.RecordError(kind)
	if c.health != nil {
		c.health.RecordError(fmt.Sprintf("%s: %v", kind, err))
	}
}

func (c *Controller) logCycle(signal *strategy.Signal) {
	if c.log == nil {
		return
	}

	c.mu.RLock()
	pos := c.pos
	c.mu.RUnlock()

	if pos == nil {
		c.log.LogCycleStatus(signal.Price, signal.RSI, signal.MFI, string(signal.Action), "", 0)
		return
	}
	c.log.LogCycleStatus(signal.Price, signal.RSI, signal.MFI, string(signal.Action),
		string(orderSide(pos.side)), pos.unrealizedPnL)
}

func (c *Controller) logf(level logger.LogLevel, format string, args ...interface{}) {
	if c.log != nil {
		c.log.Log(level, format, args...)
	}
}

func orderSide(side risk.Side) exchange.OrderSide {
	if side == risk.SideLong {
		return exchange.OrderSideBuy
	}
	return exchange.OrderSideSell
}

func positionSide(side exchange.OrderSide) risk.Side {
	if side == exchange.OrderSideBuy {
		return risk.SideLong
	}
	return risk.SideShort
}
