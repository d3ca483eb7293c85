package bybit

import (
	"context"
	"fmt"
	"strconv"

	"github.com/vitorcalvi/RSI-MFIBot/internal/exchange"
)

// GetPosition returns the current position on symbol, or nil when flat.
// The engine trusts this snapshot as the source of truth each cycle, so
// a zero-size entry from the venue is normalized to nil here.
func (c *Client) GetPosition(ctx context.Context, symbol string) (*exchange.Position, error) {
	params := map[string]interface{}{
		"category": category,
		"symbol":   symbol,
	}

	var positionResult struct {
		Category string `json:"category"`
		List     []struct {
			Symbol        string `json:"symbol"`
			Side          string `json:"side"`
			Size          string `json:"size"`
			AvgPrice      string `json:"avgPrice"`
			UnrealisedPnl string `json:"unrealisedPnl"`
		} `json:"list"`
	}

	err := c.withRetry(ctx, func() error {
		result, callErr := c.httpClient.NewUtaBybitServiceWithParams(params).GetPositionList(ctx)
		if callErr != nil {
			return callErr
		}
		return unwrapResult(result, &positionResult)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get position: %w", err)
	}

	for _, pos := range positionResult.List {
		if pos.Symbol != symbol {
			continue
		}

		size := parseFloat64(pos.Size)
		if size <= 0 || pos.Side == "" || pos.Side == "None" {
			return nil, nil
		}

		return &exchange.Position{
			Symbol:        pos.Symbol,
			Side:          exchange.OrderSide(pos.Side),
			Size:          size,
			AvgPrice:      parseFloat64(pos.AvgPrice),
			UnrealizedPnL: parseFloat64(pos.UnrealisedPnl),
		}, nil
	}

	return nil, nil
}

// PlaceMarketOrder submits a market order. Order placement is never
// retried; a timeout here is surfaced to the caller, which resolves the
// true outcome from the next position snapshot.
func (c *Client) PlaceMarketOrder(ctx context.Context, params exchange.OrderParams) (*exchange.Order, error) {
	if params.Symbol == "" {
		return nil, fmt.Errorf("symbol is required")
	}
	if params.Side == "" {
		return nil, fmt.Errorf("side is required")
	}
	if params.Quantity == "" {
		return nil, fmt.Errorf("qty is required")
	}

	apiParams := map[string]interface{}{
		"category":  category,
		"symbol":    params.Symbol,
		"side":      string(params.Side),
		"orderType": "Market",
		"qty":       params.Quantity,
		// one-way mode
		"positionIdx": 0,
	}
	if params.ReduceOnly {
		apiParams["reduceOnly"] = true
	}

	result, err := c.httpClient.NewUtaBybitServiceWithParams(apiParams).PlaceOrder(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to place order: %w", err)
	}

	var orderResult struct {
		OrderID     string `json:"orderId"`
		OrderLinkID string `json:"orderLinkId"`
	}

	if err := unwrapResult(result, &orderResult); err != nil {
		return nil, fmt.Errorf("failed to parse order response: %w", err)
	}

	return &exchange.Order{
		OrderID:  orderResult.OrderID,
		Symbol:   params.Symbol,
		Side:     params.Side,
		Quantity: params.Quantity,
	}, nil
}

// SetTradingStop attaches stop loss, take profit and trailing stop to
// the open position. Empty fields are omitted and left unchanged on the
// venue side.
func (c *Client) SetTradingStop(ctx context.Context, params exchange.TradingStopParams) error {
	apiParams := map[string]interface{}{
		"category":    category,
		"symbol":      params.Symbol,
		"positionIdx": 0,
	}

	if params.StopLoss != "" {
		apiParams["stopLoss"] = params.StopLoss
	}
	if params.TakeProfit != "" {
		apiParams["takeProfit"] = params.TakeProfit
	}
	if params.TrailingStop != "" {
		apiParams["trailingStop"] = params.TrailingStop
	}

	_, err := c.httpClient.NewUtaBybitServiceWithParams(apiParams).SetPositionTradingStop(ctx)
	if err != nil {
		return fmt.Errorf("failed to set trading stop: %w", err)
	}

	return nil
}

// SetLeverage sets symmetric buy/sell leverage for a symbol. The venue
// rejects a no-op change with code 110043, which is treated as success.
func (c *Client) SetLeverage(ctx context.Context, symbol string, leverage float64) error {
	lev := strconv.FormatFloat(leverage, 'f', -1, 64)

	params := map[string]interface{}{
		"category":     category,
		"symbol":       symbol,
		"buyLeverage":  lev,
		"sellLeverage": lev,
	}

	result, err := c.httpClient.NewUtaBybitServiceWithParams(params).SetPositionLeverage(ctx)
	if err != nil {
		return fmt.Errorf("failed to set leverage: %w", err)
	}

	var out struct{}
	if err := unwrapResult(result, &out); err != nil {
		if IsLeverageNotModifiedError(err) {
			return nil
		}
		return fmt.Errorf("failed to set leverage: %w", err)
	}

	return nil
}
