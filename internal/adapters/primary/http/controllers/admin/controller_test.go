package admin

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"log/slog"

	"github.com/admin/tg-bots/stars-bot/internal/adapters/secondary/storage/inmemory"
	"github.com/admin/tg-bots/stars-bot/internal/domain"
	"github.com/admin/tg-bots/stars-bot/internal/ports/storage"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// fakeReceipts хранит один чек пользователя 7
type fakeReceipts struct{}

func (fakeReceipts) PutFile(context.Context, string, []byte, string) error { return nil }

func (fakeReceipts) GetFile(_ context.Context, path string) ([]byte, error) {
	if path == "receipts/7/inv-1.json" {
		return []byte(`{"invoice_id":"inv-1","status":"completed"}`), nil
	}
	return nil, storage.ErrNotFound
}

func (fakeReceipts) ListFiles(_ context.Context, prefix string) ([]string, error) {
	if prefix == "receipts/7/" {
		return []string{"receipts/7/inv-1.json"}, nil
	}
	return nil, nil
}

func (fakeReceipts) GetPresignedURL(_ context.Context, path string, _ time.Duration) (string, error) {
	return "https://s3.local/" + path, nil
}

func newRouter(t *testing.T) *gin.Engine {
	t.Helper()
	ctx := context.Background()

	ledger := inmemory.NewLedger()
	if err := ledger.UpsertUser(ctx, 7, nil); err != nil {
		t.Fatal(err)
	}
	err := ledger.InsertTransaction(ctx, &domain.Transaction{
		ID:        uuid.New(),
		UserID:    7,
		Stars:     100,
		Amount:    decimal.RequireFromString("160"),
		Asset:     "USDT",
		InvoiceID: "inv-1",
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ledger.AdvanceStatus(ctx, "inv-1", domain.TransactionStatusCreated, domain.TransactionStatusPaid); err != nil {
		t.Fatal(err)
	}
	if _, err := ledger.CompleteWithRecipient(ctx, "inv-1", "alice", 100, decimal.RequireFromString("160")); err != nil {
		t.Fatal(err)
	}

	gin.SetMode(gin.TestMode)
	router := gin.New()
	New(ledger, fakeReceipts{}, "admin-token", slog.New(slog.NewTextHandler(io.Discard, nil))).RegisterRoutes(router)
	return router
}

func TestController_Routes(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		token      string
		wantStatus int
	}{
		{name: "no token", path: "/admin/transactions/inv-1", wantStatus: http.StatusUnauthorized},
		{name: "wrong token", path: "/admin/transactions/inv-1", token: "guess", wantStatus: http.StatusUnauthorized},
		{name: "transaction", path: "/admin/transactions/inv-1", token: "admin-token", wantStatus: http.StatusOK},
		{name: "missing transaction", path: "/admin/transactions/nope", token: "admin-token", wantStatus: http.StatusNotFound},
		{name: "list", path: "/admin/transactions?status=completed", token: "admin-token", wantStatus: http.StatusOK},
		{name: "list bad status", path: "/admin/transactions?status=lost", token: "admin-token", wantStatus: http.StatusBadRequest},
		{name: "user", path: "/admin/users/7", token: "admin-token", wantStatus: http.StatusOK},
		{name: "missing user", path: "/admin/users/8", token: "admin-token", wantStatus: http.StatusNotFound},
		{name: "bad user id", path: "/admin/users/abc", token: "admin-token", wantStatus: http.StatusBadRequest},
		{name: "receipt", path: "/admin/transactions/inv-1/receipt", token: "admin-token", wantStatus: http.StatusOK},
		{name: "receipt of missing transaction", path: "/admin/transactions/nope/receipt", token: "admin-token", wantStatus: http.StatusNotFound},
		{name: "user receipts", path: "/admin/users/7/receipts", token: "admin-token", wantStatus: http.StatusOK},
		{name: "receipts bad user id", path: "/admin/users/x/receipts", token: "admin-token", wantStatus: http.StatusBadRequest},
	}

	router := newRouter(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.token != "" {
				req.Header.Set(tokenHeader, tt.token)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d, body %s", w.Code, tt.wantStatus, w.Body.String())
			}
		})
	}
}

func TestController_TransactionReceiptURL(t *testing.T) {
	router := newRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/admin/transactions/inv-1", nil)
	req.Header.Set(tokenHeader, "admin-token")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var resp struct {
		Status     string `json:"status"`
		ReceiptURL string `json:"receipt_url"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Status != "completed" || resp.ReceiptURL != "https://s3.local/receipts/7/inv-1.json" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestController_UserReceipts(t *testing.T) {
	router := newRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/admin/users/8/receipts", nil)
	req.Header.Set(tokenHeader, "admin-token")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK || w.Body.String() != `{"receipts":[]}` {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
}

func TestController_DisabledWithoutToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	New(inmemory.NewLedger(), nil, "", slog.New(slog.NewTextHandler(io.Discard, nil))).RegisterRoutes(router)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin/users/7", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}
