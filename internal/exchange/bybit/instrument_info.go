package bybit

import (
	"context"
	"fmt"
	"time"

	"github.com/vitorcalvi/RSI-MFIBot/internal/exchange"
)

// instrumentCacheTTL bounds how long quantization rules are reused
// before a refresh. Filters change rarely but are not immutable.
const instrumentCacheTTL = time.Hour

type cachedInstrument struct {
	info      *exchange.InstrumentInfo
	fetchedAt time.Time
}

// GetInstrumentInfo returns the quantization rules for symbol, cached
// for up to an hour.
func (c *Client) GetInstrumentInfo(ctx context.Context, symbol string) (*exchange.InstrumentInfo, error) {
	c.instrumentsMu.RLock()
	cached, ok := c.instruments[symbol]
	c.instrumentsMu.RUnlock()
	if ok && time.Since(cached.fetchedAt) < instrumentCacheTTL {
		return cached.info, nil
	}

	info, err := c.fetchInstrumentInfo(ctx, symbol)
	if err != nil {
		return nil, err
	}

	c.instrumentsMu.Lock()
	c.instruments[symbol] = cachedInstrument{info: info, fetchedAt: time.Now()}
	c.instrumentsMu.Unlock()

	return info, nil
}

func (c *Client) fetchInstrumentInfo(ctx context.Context, symbol string) (*exchange.InstrumentInfo, error) {
	params := map[string]interface{}{
		"category": category,
		"symbol":   symbol,
	}

	var infoResult struct {
		Category string `json:"category"`
		List     []struct {
			Symbol      string `json:"symbol"`
			Status      string `json:"status"`
			PriceFilter struct {
				MinPrice string `json:"minPrice"`
				MaxPrice string `json:"maxPrice"`
				TickSize string `json:"tickSize"`
			} `json:"priceFilter"`
			LotSizeFilter struct {
				MaxOrderQty string `json:"maxOrderQty"`
				MinOrderQty string `json:"minOrderQty"`
				QtyStep     string `json:"qtyStep"`
			} `json:"lotSizeFilter"`
		} `json:"list"`
	}

	err := c.withRetry(ctx, func() error {
		result, callErr := c.httpClient.NewUtaBybitServiceWithParams(params).GetInstrumentInfo(ctx)
		if callErr != nil {
			return callErr
		}
		return unwrapResult(result, &infoResult)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch instrument info: %w", err)
	}

	for _, item := range infoResult.List {
		if item.Symbol != symbol {
			continue
		}

		info := &exchange.InstrumentInfo{
			Symbol:   item.Symbol,
			MinQty:   parseFloat64(item.LotSizeFilter.MinOrderQty),
			QtyStep:  parseFloat64(item.LotSizeFilter.QtyStep),
			TickSize: parseFloat64(item.PriceFilter.TickSize),
		}
		if info.QtyStep <= 0 || info.TickSize <= 0 {
			return nil, fmt.Errorf("instrument %s has invalid filters (qtyStep=%v, tickSize=%v)",
				symbol, info.QtyStep, info.TickSize)
		}
		return info, nil
	}

	return nil, fmt.Errorf("instrument %s not found", symbol)
}
