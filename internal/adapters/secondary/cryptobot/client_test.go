package cryptobot

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"log/slog"

	"github.com/admin/tg-bots/stars-bot/internal/domain"
	"github.com/admin/tg-bots/stars-bot/internal/ports/payment"
	"github.com/shopspring/decimal"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewClient(&Config{
		APIToken:       "test-token",
		BaseURL:        srv.URL,
		InvoiceTTL:     15 * time.Minute,
		RequestTimeout: 5 * time.Second,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func writeResult(w http.ResponseWriter, result interface{}) {
	raw, _ := json.Marshal(result)
	_ = json.NewEncoder(w).Encode(apiResponse{OK: true, Result: raw})
}

func TestClient_CreateInvoice(t *testing.T) {
	var got createInvoiceRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/createInvoice" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get(tokenHeader) != "test-token" {
			t.Errorf("token header missing")
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		writeResult(w, invoice{InvoiceID: 42, Status: "active", Asset: "USDT", Amount: "2", BotInvoiceURL: "https://t.me/CryptoBot?start=IV42"})
	})

	inv, err := c.CreateInvoice(context.Background(), payment.CreateInvoiceRequest{
		Asset:   "usdt",
		Amount:  decimal.RequireFromString("2.00"),
		Payload: `{"user_id":1}`,
	})
	if err != nil {
		t.Fatalf("CreateInvoice() error = %v", err)
	}
	if inv.ID != "42" || inv.PayURL == "" || inv.Status != domain.InvoiceStatusActive {
		t.Fatalf("unexpected invoice: %+v", inv)
	}
	if got.Asset != "USDT" || got.Amount != "2" || got.ExpiresIn != 900 {
		t.Errorf("unexpected request: %+v", got)
	}
}

func TestClient_ErrorsAreGatewayUnavailable(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "api error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"ok":false,"error":{"code":401,"name":"UNAUTHORIZED"}}`))
			},
		},
		{
			name: "not json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
				_, _ = w.Write([]byte(`<html>bad gateway</html>`))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, tt.handler)
			_, err := c.CreateInvoice(context.Background(), payment.CreateInvoiceRequest{Asset: "TON", Amount: decimal.NewFromInt(1)})
			if !errors.Is(err, domain.ErrGatewayUnavailable) {
				t.Fatalf("expected ErrGatewayUnavailable, got %v", err)
			}
		})
	}
}

func TestClient_GetRate(t *testing.T) {
	calls := 0
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		writeResult(w, []exchangeRate{
			{IsValid: true, Source: "USDT", Target: "USD", Rate: "1"},
			{IsValid: true, Source: "USDT", Target: "RUB", Rate: "80.00"},
			{IsValid: false, Source: "TON", Target: "RUB", Rate: "300"},
		})
	})

	rate, err := c.GetRate(context.Background(), "usdt")
	if err != nil {
		t.Fatalf("GetRate() error = %v", err)
	}
	if !rate.Equal(decimal.NewFromInt(80)) {
		t.Errorf("rate = %s, want 80", rate)
	}

	if _, err := c.GetRate(context.Background(), "TON"); !errors.Is(err, domain.ErrInvalidCurrency) {
		t.Errorf("invalid rate must be rejected, got %v", err)
	}
	if calls != 1 {
		t.Errorf("rates must be cached, got %d calls", calls)
	}
}

func TestClient_Refund(t *testing.T) {
	var transfer transferRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/getInvoices":
			writeResult(w, getInvoicesResult{Items: []invoice{{
				InvoiceID: 7, Status: "paid", Asset: "TON", Amount: "0.5334", Payload: `{"user_id":555,"stars":100}`,
			}}})
		case "/transfer":
			_ = json.NewDecoder(r.Body).Decode(&transfer)
			writeResult(w, map[string]interface{}{"transfer_id": 1})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})

	if err := c.Refund(context.Background(), "7"); err != nil {
		t.Fatalf("Refund() error = %v", err)
	}
	if transfer.UserID != 555 || transfer.Asset != "TON" || transfer.Amount != "0.5334" || transfer.SpendID != "refund-7" {
		t.Errorf("unexpected transfer: %+v", transfer)
	}
}
