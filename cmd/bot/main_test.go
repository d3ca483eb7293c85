package main

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitorcalvi/RSI-MFIBot/internal/exchange"
	"github.com/vitorcalvi/RSI-MFIBot/pkg/types"
)

// stubVenue serves canned account and market reads for the startup
// display helpers.
type stubVenue struct {
	equity      float64
	equityErr   error
	balance     float64
	price       float64
	priceSymbol string
}

func (v *stubVenue) GetName() string        { return "stub" }
func (v *stubVenue) GetEnvironment() string { return "test" }

func (v *stubVenue) GetKlines(ctx context.Context, params exchange.KlineParams) ([]types.OHLCV, error) {
	return nil, fmt.Errorf("not implemented")
}

func (v *stubVenue) GetLatestPrice(ctx context.Context, symbol string) (float64, error) {
	v.priceSymbol = symbol
	return v.price, nil
}

func (v *stubVenue) GetWalletBalance(ctx context.Context) (float64, error) {
	return v.balance, nil
}

func (v *stubVenue) GetTotalEquity(ctx context.Context) (float64, error) {
	return v.equity, v.equityErr
}

func (v *stubVenue) GetPosition(ctx context.Context, symbol string) (*exchange.Position, error) {
	return nil, nil
}

func (v *stubVenue) GetInstrumentInfo(ctx context.Context, symbol string) (*exchange.InstrumentInfo, error) {
	return nil, fmt.Errorf("not implemented")
}

func (v *stubVenue) PlaceMarketOrder(ctx context.Context, params exchange.OrderParams) (*exchange.Order, error) {
	return nil, fmt.Errorf("not implemented")
}

func (v *stubVenue) SetTradingStop(ctx context.Context, params exchange.TradingStopParams) error {
	return fmt.Errorf("not implemented")
}

func (v *stubVenue) SetLeverage(ctx context.Context, symbol string, leverage float64) error {
	return nil
}

func (v *stubVenue) Connect(ctx context.Context) error { return nil }

func TestFetchAccountSnapshot(t *testing.T) {
	venue := &stubVenue{equity: 1010.55, balance: 1000, price: 99.9}

	snap := fetchAccountSnapshot(context.Background(), venue, "ZORAUSDT")

	require.NoError(t, snap.equityErr)
	require.NoError(t, snap.balanceErr)
	require.NoError(t, snap.priceErr)
	assert.Equal(t, 1010.55, snap.equity)
	assert.Equal(t, 1000.0, snap.balance)
	assert.Equal(t, 99.9, snap.price)
	assert.Equal(t, "ZORAUSDT", venue.priceSymbol)
}

func TestFetchAccountSnapshot_PartialFailure(t *testing.T) {
	venue := &stubVenue{equityErr: fmt.Errorf("api timeout"), balance: 1000, price: 99.9}

	snap := fetchAccountSnapshot(context.Background(), venue, "ZORAUSDT")

	assert.Error(t, snap.equityErr)
	assert.NoError(t, snap.balanceErr)
	assert.Equal(t, 1000.0, snap.balance)
}

func TestMoney(t *testing.T) {
	assert.Equal(t, "$1234.50", money(1234.5, nil))
	assert.Equal(t, "⚠️ Could not fetch", money(0, fmt.Errorf("api timeout")))
}
