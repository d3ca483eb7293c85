package notifications

import "time"

// CloseReason is the closed enumeration of why a position was torn
// down. Presentation (text, icons) belongs to the notifier.
type CloseReason string

const (
	ReasonOppositeSignal CloseReason = "Opposite Signal"
	ReasonBotStop        CloseReason = "Bot Stop"
	ReasonStopLoss       CloseReason = "Stop Loss"
	ReasonTakeProfit     CloseReason = "Take Profit"
	ReasonTrailingStop   CloseReason = "Trailing Stop"
	ReasonExternal       CloseReason = "External Fill"
)

// TradeOpenedEvent carries the details of a freshly opened position.
type TradeOpenedEvent struct {
	Symbol   string
	Side     string
	Price    float64
	Size     float64
	OpenedAt time.Time
}

// TradeClosedEvent carries the outcome of a closed position.
type TradeClosedEvent struct {
	Symbol   string
	Reason   CloseReason
	PnLPct   float64
	PnLUSD   float64
	Duration time.Duration
	ClosedAt time.Time
}

// ProfitLockEvent is emitted once per position when the trailing stop
// is attached.
type ProfitLockEvent struct {
	Symbol      string
	GainPct     float64
	TrailingPct float64
}

// Notifier is a fire-and-forget sink for lifecycle events. Delivery
// failures are the implementation's problem and never propagate into
// the trading loop.
type Notifier interface {
	TradeOpened(event TradeOpenedEvent)
	TradeClosed(event TradeClosedEvent)
	ProfitLockActivated(event ProfitLockEvent)
	Error(message string)
	BotStarted(symbol string, balance float64)
	BotStopped()
}

// Noop is a Notifier that discards every event.
type Noop struct{}

func (Noop) TradeOpened(TradeOpenedEvent)        {}
func (Noop) TradeClosed(TradeClosedEvent)        {}
func (Noop) ProfitLockActivated(ProfitLockEvent) {}
func (Noop) Error(string)                        {}
func (Noop) BotStarted(string, float64)          {}
func (Noop) BotStopped()                         {}
