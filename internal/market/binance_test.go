package market

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCurrentPrice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v3/ticker/price" {
			t.Fatalf("path=%q", r.URL.Path)
		}
		if got := r.URL.Query().Get("symbol"); got != "BTCUSDT" {
			t.Fatalf("symbol=%q want BTCUSDT", got)
		}
		w.Write([]byte(`{"symbol":"BTCUSDT","price":"64250.10000000"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), srv.URL)
	price, err := c.CurrentPrice(context.Background(), "btc")
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if price.String() != "64250.1" {
		t.Fatalf("price=%s", price)
	}
}

func TestCurrentPrice_EmptySymbol(t *testing.T) {
	c := NewClient(nil, "http://unused")
	if _, err := c.CurrentPrice(context.Background(), "  "); err == nil {
		t.Fatalf("expected error")
	}
}

func TestCurrentPrice_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"code":-1121,"msg":"Invalid symbol."}`))
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), srv.URL)
	_, err := c.CurrentPrice(context.Background(), "NOPE")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err=%v want *APIError", err)
	}
	if apiErr.Status != http.StatusBadRequest {
		t.Fatalf("status=%d", apiErr.Status)
	}
}

func TestCurrentPrice_InvalidPrice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"symbol":"BTCUSDT","price":"0"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), srv.URL)
	if _, err := c.CurrentPrice(context.Background(), "BTC"); err == nil {
		t.Fatalf("expected error for non-positive price")
	}
}

func TestTicker(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v3/ticker/24hr" {
			t.Fatalf("path=%q", r.URL.Path)
		}
		w.Write([]byte(`{"symbol":"ETHUSDT","priceChangePercent":"-2.154","lastPrice":"3120.55","prevClosePrice":"3189.20"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), srv.URL)
	ticker, err := c.Ticker(context.Background(), "ethusdt")
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if ticker.Symbol != "ETHUSDT" || ticker.PrevClosePrice != "3189.20" {
		t.Fatalf("ticker=%+v", ticker)
	}
}
