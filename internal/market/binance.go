package market

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"
)

// Client fetches spot prices from the Binance public REST API. It is
// stateless: every call is a plain request/response round trip.
type Client struct {
	host       string
	httpClient *http.Client
}

type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("binance API error (%d): %s", e.Status, e.Body)
}

func NewClient(httpClient *http.Client, host string) *Client {
	if host == "" {
		host = "https://api.binance.com"
	}
	host = strings.TrimRight(host, "/")
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		host:       host,
		httpClient: httpClient,
	}
}

func (c *Client) doRequest(ctx context.Context, path string, query url.Values) ([]byte, error) {
	fullURL := c.host + path
	if len(query) > 0 {
		fullURL = fullURL + "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{Status: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}

// CurrentPrice returns the latest spot price for symbol quoted in USDT.
// The symbol is the bare asset ("BTC"), upcased before the lookup.
func (c *Client) CurrentPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return decimal.Zero, fmt.Errorf("symbol is required")
	}
	query := url.Values{}
	query.Set("symbol", symbol+"USDT")
	body, err := c.doRequest(ctx, "/api/v3/ticker/price", query)
	if err != nil {
		return decimal.Zero, err
	}
	var parsed struct {
		Symbol string `json:"symbol"`
		Price  string `json:"price"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse price response: %w", err)
	}
	price, err := decimal.NewFromString(parsed.Price)
	if err != nil || price.Sign() <= 0 {
		return decimal.Zero, fmt.Errorf("invalid price %q for %s", parsed.Price, symbol)
	}
	return price, nil
}

// Ticker24h is the subset of the Binance 24hr ticker this service consumes.
type Ticker24h struct {
	Symbol             string `json:"symbol"`
	PriceChange        string `json:"priceChange"`
	PriceChangePercent string `json:"priceChangePercent"`
	PrevClosePrice     string `json:"prevClosePrice"`
	LastPrice          string `json:"lastPrice"`
	HighPrice          string `json:"highPrice"`
	LowPrice           string `json:"lowPrice"`
	Volume             string `json:"volume"`
}

// Ticker returns 24h rolling stats for a full trading pair symbol
// (e.g. "BTCUSDT").
func (c *Client) Ticker(ctx context.Context, pair string) (*Ticker24h, error) {
	pair = strings.ToUpper(strings.TrimSpace(pair))
	if pair == "" {
		return nil, fmt.Errorf("symbol is required")
	}
	query := url.Values{}
	query.Set("symbol", pair)
	body, err := c.doRequest(ctx, "/api/v3/ticker/24hr", query)
	if err != nil {
		return nil, err
	}
	var parsed Ticker24h
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse ticker response: %w", err)
	}
	return &parsed, nil
}
