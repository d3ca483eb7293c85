package bybit

import (
	"context"
	"fmt"
	"sort"

	"github.com/vitorcalvi/RSI-MFIBot/internal/exchange"
	"github.com/vitorcalvi/RSI-MFIBot/pkg/types"
)

// GetKlines fetches kline/candlestick data, oldest candle first.
func (c *Client) GetKlines(ctx context.Context, params exchange.KlineParams) ([]types.OHLCV, error) {
	limit := params.Limit
	if limit == 0 {
		limit = 200
	}
	if limit > 1000 {
		limit = 1000
	}

	reqParams := map[string]interface{}{
		"category": category,
		"symbol":   params.Symbol,
		"interval": string(params.Interval),
		"limit":    limit,
	}

	var klineResult struct {
		Symbol   string     `json:"symbol"`
		Category string     `json:"category"`
		List     [][]string `json:"list"`
	}

	err := c.withRetry(ctx, func() error {
		result, callErr := c.httpClient.NewUtaBybitServiceWithParams(reqParams).GetMarketKline(ctx)
		if callErr != nil {
			return callErr
		}
		return unwrapResult(result, &klineResult)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get klines: %w", err)
	}

	return parseKlineList(klineResult.List), nil
}

// GetLatestPrice gets the last traded price for a symbol.
func (c *Client) GetLatestPrice(ctx context.Context, symbol string) (float64, error) {
	params := map[string]interface{}{
		"category": category,
		"symbol":   symbol,
	}

	var tickerResult struct {
		Category string `json:"category"`
		List     []struct {
			Symbol    string `json:"symbol"`
			LastPrice string `json:"lastPrice"`
		} `json:"list"`
	}

	err := c.withRetry(ctx, func() error {
		result, callErr := c.httpClient.NewUtaBybitServiceWithParams(params).GetMarketTickers(ctx)
		if callErr != nil {
			return callErr
		}
		return unwrapResult(result, &tickerResult)
	})
	if err != nil {
		return 0, fmt.Errorf("failed to get latest price: %w", err)
	}

	if len(tickerResult.List) == 0 {
		return 0, fmt.Errorf("no ticker data found for %s", symbol)
	}

	return parseFloat64(tickerResult.List[0].LastPrice), nil
}

// parseKlineList converts the API's reverse-chronological string arrays
// into OHLCV candles sorted oldest first.
func parseKlineList(list [][]string) []types.OHLCV {
	var klines []types.OHLCV
	for _, item := range list {
		if len(item) < 7 {
			continue // skip incomplete data
		}

		// Bybit kline format: [startTime, open, high, low, close, volume, turnover]
		klines = append(klines, types.OHLCV{
			Timestamp: parseTimestamp(item[0]),
			Open:      parseFloat64(item[1]),
			High:      parseFloat64(item[2]),
			Low:       parseFloat64(item[3]),
			Close:     parseFloat64(item[4]),
			Volume:    parseFloat64(item[5]),
			Turnover:  parseFloat64(item[6]),
		})
	}

	sort.Slice(klines, func(i, j int) bool {
		return klines[i].Timestamp.Before(klines[j].Timestamp)
	})

	return klines
}
