package bybit

import (
	"context"
	"fmt"
	"sync"

	bybit_api "github.com/bybit-exchange/bybit.go.api"
)

// category is fixed: this bot trades USDT-margined linear perpetuals only.
const category = "linear"

// Client implements exchange.Venue on top of the official Bybit v5 API
// client.
type Client struct {
	httpClient *bybit_api.Client
	testnet    bool
	demo       bool
	retry      retryConfig

	instrumentsMu sync.RWMutex
	instruments   map[string]cachedInstrument
}

// Config holds the configuration for the Bybit client.
type Config struct {
	APIKey    string
	APISecret string
	Testnet   bool
	Demo      bool // demo trading environment (paper trading)
}

// NewClient creates a new Bybit client.
func NewClient(config Config) *Client {
	var baseURL string
	if config.Demo {
		baseURL = "https://api-demo.bybit.com"
	} else if config.Testnet {
		baseURL = bybit_api.TESTNET
	} else {
		baseURL = bybit_api.MAINNET
	}

	httpClient := bybit_api.NewBybitHttpClient(
		config.APIKey,
		config.APISecret,
		bybit_api.WithBaseURL(baseURL),
	)

	return &Client{
		httpClient:  httpClient,
		testnet:     config.Testnet,
		demo:        config.Demo,
		retry:       defaultRetryConfig(),
		instruments: make(map[string]cachedInstrument),
	}
}

// GetName returns the venue name.
func (c *Client) GetName() string {
	return "Bybit"
}

// GetEnvironment returns a string describing the current environment.
func (c *Client) GetEnvironment() string {
	if c.demo {
		return "demo"
	} else if c.testnet {
		return "testnet"
	}
	return "mainnet"
}

// Connect verifies API connectivity and credentials with a wallet
// balance probe.
func (c *Client) Connect(ctx context.Context) error {
	if _, err := c.GetWalletBalance(ctx); err != nil {
		return fmt.Errorf("bybit connectivity check failed: %w", err)
	}
	return nil
}
