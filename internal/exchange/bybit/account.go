package bybit

import (
	"context"
	"fmt"
)

const settleCoin = "USDT"

// walletResponse is the shape of the unified account wallet payload.
type walletResponse struct {
	List []struct {
		TotalEquity        string `json:"totalEquity"`
		TotalWalletBalance string `json:"totalWalletBalance"`
		AccountType        string `json:"accountType"`
		Coin               []struct {
			Coin          string `json:"coin"`
			WalletBalance string `json:"walletBalance"`
			Equity        string `json:"equity"`
			UnrealisedPnl string `json:"unrealisedPnl"`
		} `json:"coin"`
	} `json:"list"`
}

// GetWalletBalance returns the USDT wallet balance of the unified
// account. Position sizing uses this value each cycle.
func (c *Client) GetWalletBalance(ctx context.Context) (float64, error) {
	wallet, err := c.fetchWallet(ctx)
	if err != nil {
		return 0, err
	}

	for _, coin := range wallet.List[0].Coin {
		if coin.Coin == settleCoin {
			return parseFloat64(coin.WalletBalance), nil
		}
	}

	return 0, fmt.Errorf("coin %s not found in unified account", settleCoin)
}

// GetTotalEquity returns the total equity of the unified account in USD.
func (c *Client) GetTotalEquity(ctx context.Context) (float64, error) {
	wallet, err := c.fetchWallet(ctx)
	if err != nil {
		return 0, err
	}

	return parseFloat64(wallet.List[0].TotalEquity), nil
}

func (c *Client) fetchWallet(ctx context.Context) (*walletResponse, error) {
	params := map[string]interface{}{
		"accountType": "UNIFIED",
		"coin":        settleCoin,
	}

	var wallet walletResponse
	err := c.withRetry(ctx, func() error {
		result, callErr := c.httpClient.NewUtaBybitServiceWithParams(params).GetAccountWallet(ctx)
		if callErr != nil {
			return callErr
		}
		return unwrapResult(result, &wallet)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get wallet balance: %w", err)
	}

	if len(wallet.List) == 0 {
		return nil, fmt.Errorf("no account data found")
	}

	return &wallet, nil
}
