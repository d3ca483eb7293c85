package exchange

import (
	"context"
	"time"

	"github.com/vitorcalvi/RSI-MFIBot/pkg/types"
)

// Venue defines the trading venue operations the engine depends on.
// Implementations own their timeout and retry policy; the engine treats
// any error as "no data this cycle".
type Venue interface {
	// Venue identification
	GetName() string
	GetEnvironment() string

	// Market data
	GetKlines(ctx context.Context, params KlineParams) ([]types.OHLCV, error)
	GetLatestPrice(ctx context.Context, symbol string) (float64, error)

	// Account
	GetWalletBalance(ctx context.Context) (float64, error)
	GetTotalEquity(ctx context.Context) (float64, error)
	GetPosition(ctx context.Context, symbol string) (*Position, error)

	// Instrument metadata
	GetInstrumentInfo(ctx context.Context, symbol string) (*InstrumentInfo, error)

	// Trading
	PlaceMarketOrder(ctx context.Context, params OrderParams) (*Order, error)
	SetTradingStop(ctx context.Context, params TradingStopParams) error
	SetLeverage(ctx context.Context, symbol string, leverage float64) error

	// Connection management
	Connect(ctx context.Context) error
}

// OrderSide represents buy or sell side (string-based for API compatibility).
type OrderSide string

const (
	OrderSideBuy  OrderSide = "Buy"
	OrderSideSell OrderSide = "Sell"
)

// Opposite returns the closing side for a position held on s.
func (s OrderSide) Opposite() OrderSide {
	if s == OrderSideBuy {
		return OrderSideSell
	}
	return OrderSideBuy
}

// KlineInterval represents different time intervals for kline data,
// in Bybit notation (minutes, or D/W/M).
type KlineInterval string

const (
	Interval1m  KlineInterval = "1"
	Interval3m  KlineInterval = "3"
	Interval5m  KlineInterval = "5"
	Interval15m KlineInterval = "15"
	Interval30m KlineInterval = "30"
	Interval1h  KlineInterval = "60"
	Interval4h  KlineInterval = "240"
	Interval1d  KlineInterval = "D"
)

// KlineParams represents parameters for kline/candlestick data requests.
type KlineParams struct {
	Symbol   string        `json:"symbol"`
	Interval KlineInterval `json:"interval"`
	Limit    int           `json:"limit"`
}

// Position mirrors the venue's view of current exposure. Size is in
// contracts and strictly positive; a flat book is represented by a nil
// *Position, never a zero-size one.
type Position struct {
	Symbol        string
	Side          OrderSide
	Size          float64
	AvgPrice      float64
	UnrealizedPnL float64
}

// InstrumentInfo holds the quantization rules for a traded instrument.
type InstrumentInfo struct {
	Symbol   string
	MinQty   float64
	QtyStep  float64
	TickSize float64
}

// OrderParams represents parameters for placing a market order.
// Quantity is pre-quantized and formatted by the caller; the venue
// accepts it verbatim.
type OrderParams struct {
	Symbol     string    `json:"symbol"`
	Side       OrderSide `json:"side"`
	Quantity   string    `json:"qty"`
	ReduceOnly bool      `json:"reduceOnly,omitempty"`
}

// TradingStopParams sets protective stops on the open position. Empty
// strings leave the corresponding level untouched.
type TradingStopParams struct {
	Symbol       string `json:"symbol"`
	StopLoss     string `json:"stopLoss,omitempty"`
	TakeProfit   string `json:"takeProfit,omitempty"`
	TrailingStop string `json:"trailingStop,omitempty"` // absolute price distance
}

// Order represents order information returned by the venue.
type Order struct {
	OrderID     string    `json:"order_id"`
	Symbol      string    `json:"symbol"`
	Side        OrderSide `json:"side"`
	Quantity    string    `json:"quantity"`
	AvgPrice    string    `json:"avg_price"`
	OrderStatus string    `json:"order_status"`
	CreatedTime time.Time `json:"created_time"`
}
