package monitoring

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	tradesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trading_bot_trades_total",
			Help: "Total number of trades executed",
		},
		[]string{"symbol", "side", "kind"},
	)

	currentPrice = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "trading_bot_current_price",
			Help: "Latest observed price of the trading symbol",
		},
		[]string{"symbol"},
	)

	unrealizedPnL = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "trading_bot_unrealized_pnl",
			Help: "Unrealized P&L of the open position in USDT",
		},
		[]string{"symbol"},
	)

	positionSize = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "trading_bot_position_size",
			Help: "Size of the open position in contracts, 0 when flat",
		},
		[]string{"symbol"},
	)

	profitLockActivations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trading_bot_profit_lock_activations_total",
			Help: "Total number of profit lock activations",
		},
		[]string{"symbol"},
	)

	cycleErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trading_bot_cycle_errors_total",
			Help: "Total number of errors absorbed by the trading loop",
		},
		[]string{"type"},
	)
)

func init() {
	prometheus.MustRegister(tradesTotal)
	prometheus.MustRegister(currentPrice)
	prometheus.MustRegister(unrealizedPnL)
	prometheus.MustRegister(positionSize)
	prometheus.MustRegister(profitLockActivations)
	prometheus.MustRegister(cycleErrors)
}

// MetricsHandler serves the Prometheus metrics endpoint.
type MetricsHandler struct{}

// NewMetricsHandler creates a new metrics handler.
func NewMetricsHandler() *MetricsHandler {
	return &MetricsHandler{}
}

func (m *MetricsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// RecordTrade records an executed order. kind is "open" or "close".
func RecordTrade(symbol, side, kind string) {
	tradesTotal.WithLabelValues(symbol, side, kind).Inc()
}

// UpdatePrice updates the current price gauge.
func UpdatePrice(symbol string, price float64) {
	currentPrice.WithLabelValues(symbol).Set(price)
}

// UpdatePosition updates the position gauges. Flat is size 0, pnl 0.
func UpdatePosition(symbol string, size, pnl float64) {
	positionSize.WithLabelValues(symbol).Set(size)
	unrealizedPnL.WithLabelValues(symbol).Set(pnl)
}

// RecordProfitLock counts a profit lock activation.
func RecordProfitLock(symbol string) {
	profitLockActivations.WithLabelValues(symbol).Inc()
}

// RecordError counts an absorbed loop error by type.
func RecordError(errorType string) {
	cycleErrors.WithLabelValues(errorType).Inc()
}
