package cryptobot

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"log/slog"

	"github.com/admin/tg-bots/stars-bot/internal/domain"
	"github.com/admin/tg-bots/stars-bot/internal/ports/payment"
	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
)

const (
	tokenHeader = "Crypto-Pay-API-Token"
	ratesTTL    = time.Minute
)

// Client клиент Crypto Pay API, реализует payment.IPaymentGateway
type Client struct {
	http       *resty.Client
	invoiceTTL time.Duration
	log        *slog.Logger

	ratesMu       sync.Mutex
	rates         []exchangeRate
	ratesLoadedAt time.Time
	now           func() time.Time
}

var _ payment.IPaymentGateway = (*Client)(nil)

// NewClient создаёт клиент Crypto Pay API
func NewClient(cfg *Config, log *slog.Logger) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(cfg.RequestTimeout).
		SetHeader(tokenHeader, cfg.APIToken).
		SetHeader("Content-Type", "application/json")

	return &Client{
		http:       httpClient,
		invoiceTTL: cfg.InvoiceTTL,
		log:        log,
		now:        time.Now,
	}
}

// CreateInvoice выставляет инвойс в криптовалюте
func (c *Client) CreateInvoice(ctx context.Context, req payment.CreateInvoiceRequest) (*domain.Invoice, error) {
	body := createInvoiceRequest{
		CurrencyType:   "crypto",
		Asset:          domain.NormalizeAsset(req.Asset),
		Amount:         req.Amount.String(),
		Description:    req.Description,
		Payload:        req.Payload,
		ExpiresIn:      int(c.invoiceTTL.Seconds()),
		AllowComments:  false,
		AllowAnonymous: false,
	}

	var inv invoice
	if err := c.call(ctx, "createInvoice", body, &inv); err != nil {
		return nil, err
	}

	payURL := inv.BotInvoiceURL
	if payURL == "" {
		payURL = inv.PayURL
	}

	c.log.Info("invoice created",
		"invoice_id", inv.InvoiceID,
		"asset", inv.Asset,
		"amount", inv.Amount,
	)

	return &domain.Invoice{
		ID:     strconv.FormatInt(inv.InvoiceID, 10),
		PayURL: payURL,
		Asset:  inv.Asset,
		Amount: req.Amount,
		Status: domain.InvoiceStatus(inv.Status),
	}, nil
}

// GetInvoiceStatus статус инвойса у шлюза
func (c *Client) GetInvoiceStatus(ctx context.Context, invoiceID string) (domain.InvoiceStatus, error) {
	inv, err := c.getInvoice(ctx, invoiceID)
	if err != nil {
		return "", err
	}
	return domain.InvoiceStatus(inv.Status), nil
}

// Refund возвращает оплату переводом на аккаунт плательщика.
// spend_id привязан к инвойсу, повторный вызов не приведёт ко второму переводу.
func (c *Client) Refund(ctx context.Context, invoiceID string) error {
	inv, err := c.getInvoice(ctx, invoiceID)
	if err != nil {
		return err
	}
	if inv.Status != string(domain.InvoiceStatusPaid) {
		return fmt.Errorf("%w: invoice %s is %s, nothing to refund", domain.ErrGatewayUnavailable, invoiceID, inv.Status)
	}

	var payload InvoicePayload
	if err := json.Unmarshal([]byte(inv.Payload), &payload); err != nil || payload.UserID == 0 {
		return fmt.Errorf("%w: invoice %s has no payer in payload", domain.ErrGatewayUnavailable, invoiceID)
	}

	body := transferRequest{
		UserID:  payload.UserID,
		Asset:   inv.Asset,
		Amount:  inv.Amount,
		SpendID: "refund-" + invoiceID,
		Comment: "Возврат за инвойс #" + invoiceID,
	}
	if err := c.call(ctx, "transfer", body, nil); err != nil {
		return err
	}

	c.log.Info("invoice refunded",
		"invoice_id", invoiceID,
		"user_id", payload.UserID,
		"asset", inv.Asset,
		"amount", inv.Amount,
	)
	return nil
}

// GetRate сколько RUB стоит 1 единица актива
func (c *Client) GetRate(ctx context.Context, asset string) (decimal.Decimal, error) {
	rates, err := c.exchangeRates(ctx)
	if err != nil {
		return decimal.Zero, err
	}

	asset = domain.NormalizeAsset(asset)
	for _, r := range rates {
		if r.Source != asset || r.Target != domain.FiatCurrency || !r.IsValid {
			continue
		}
		rate, err := decimal.NewFromString(r.Rate)
		if err != nil || !rate.IsPositive() {
			return decimal.Zero, fmt.Errorf("%w: bad rate %q for %s", domain.ErrGatewayUnavailable, r.Rate, asset)
		}
		return rate, nil
	}
	return decimal.Zero, fmt.Errorf("%w: no %s/%s rate", domain.ErrInvalidCurrency, asset, domain.FiatCurrency)
}

func (c *Client) exchangeRates(ctx context.Context) ([]exchangeRate, error) {
	c.ratesMu.Lock()
	defer c.ratesMu.Unlock()

	if c.rates != nil && c.now().Sub(c.ratesLoadedAt) < ratesTTL {
		return c.rates, nil
	}

	var rates []exchangeRate
	if err := c.call(ctx, "getExchangeRates", nil, &rates); err != nil {
		return nil, err
	}
	c.rates = rates
	c.ratesLoadedAt = c.now()
	return rates, nil
}

func (c *Client) getInvoice(ctx context.Context, invoiceID string) (*invoice, error) {
	body := map[string]string{"invoice_ids": invoiceID}

	var result getInvoicesResult
	if err := c.call(ctx, "getInvoices", body, &result); err != nil {
		return nil, err
	}
	for i := range result.Items {
		if strconv.FormatInt(result.Items[i].InvoiceID, 10) == invoiceID {
			return &result.Items[i], nil
		}
	}
	return nil, fmt.Errorf("%w: invoice %s not found", domain.ErrGatewayUnavailable, invoiceID)
}

// call POST-запрос к методу API; любой отказ оборачивается в domain.ErrGatewayUnavailable
func (c *Client) call(ctx context.Context, method string, body interface{}, out interface{}) error {
	req := c.http.R().SetContext(ctx)
	if body != nil {
		req.SetBody(body)
	}

	resp, err := req.Post("/" + method)
	if err != nil {
		c.log.Warn("crypto pay request failed", "method", method, "error", err)
		return fmt.Errorf("%w: %s: %v", domain.ErrGatewayUnavailable, method, err)
	}

	var apiResp apiResponse
	if err := json.Unmarshal(resp.Body(), &apiResp); err != nil {
		c.log.Error("failed to unmarshal crypto pay response",
			"method", method,
			"status_code", resp.StatusCode(),
			"body", resp.String(),
		)
		return fmt.Errorf("%w: %s: bad response (status %d)", domain.ErrGatewayUnavailable, method, resp.StatusCode())
	}

	if !apiResp.OK {
		apiErr := apiResp.Error
		if apiErr == nil {
			apiErr = &apiError{Code: resp.StatusCode(), Name: "UNKNOWN"}
		}
		c.log.Error("crypto pay API returned error",
			"method", method,
			"code", apiErr.Code,
			"name", apiErr.Name,
		)
		return fmt.Errorf("%w: %s: %v", domain.ErrGatewayUnavailable, method, apiErr)
	}

	if out != nil {
		if err := json.Unmarshal(apiResp.Result, out); err != nil {
			return fmt.Errorf("%w: %s: bad result: %v", domain.ErrGatewayUnavailable, method, err)
		}
	}
	return nil
}
