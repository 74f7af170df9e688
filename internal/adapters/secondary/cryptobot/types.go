package cryptobot

import (
	"encoding/json"
	"fmt"
)

// дока - https://help.crypt.bot/crypto-pay-api

type apiResponse struct {
	OK     bool            `json:"ok"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *apiError       `json:"error,omitempty"`
}

type apiError struct {
	Code int    `json:"code"`
	Name string `json:"name"`
}

func (e *apiError) Error() string {
	return fmt.Sprintf("crypto pay error: %s (code: %d)", e.Name, e.Code)
}

type createInvoiceRequest struct {
	CurrencyType   string `json:"currency_type"`
	Asset          string `json:"asset"`
	Amount         string `json:"amount"`
	Description    string `json:"description,omitempty"`
	Payload        string `json:"payload,omitempty"`
	ExpiresIn      int    `json:"expires_in,omitempty"` // секунды
	AllowComments  bool   `json:"allow_comments"`
	AllowAnonymous bool   `json:"allow_anonymous"`
}

// invoice объект Invoice из Crypto Pay API
type invoice struct {
	InvoiceID     int64  `json:"invoice_id"`
	Status        string `json:"status"` // active, paid, expired
	Asset         string `json:"asset"`
	Amount        string `json:"amount"`
	BotInvoiceURL string `json:"bot_invoice_url"`
	PayURL        string `json:"pay_url"` // устаревшее поле, то же что bot_invoice_url
	Payload       string `json:"payload,omitempty"`
	PaidAt        string `json:"paid_at,omitempty"`
}

type getInvoicesResult struct {
	Items []invoice `json:"items"`
}

type exchangeRate struct {
	IsValid bool   `json:"is_valid"`
	Source  string `json:"source"`
	Target  string `json:"target"`
	Rate    string `json:"rate"`
}

type transferRequest struct {
	UserID                  int64  `json:"user_id"`
	Asset                   string `json:"asset"`
	Amount                  string `json:"amount"`
	SpendID                 string `json:"spend_id"` // идемпотентность перевода на стороне CryptoBot
	Comment                 string `json:"comment,omitempty"`
	DisableSendNotification bool   `json:"disable_send_notification"`
}

// InvoicePayload что кладём в payload инвойса: нужно для возврата
type InvoicePayload struct {
	UserID int64  `json:"user_id"`
	Stars  int64  `json:"stars"`
	Nonce  string `json:"nonce,omitempty"`
}

// Update тело вебхука Crypto Pay
type Update struct {
	UpdateID    int64           `json:"update_id"`
	UpdateType  string          `json:"update_type"` // invoice_paid
	RequestDate string          `json:"request_date"`
	Payload     json.RawMessage `json:"payload"`
}

// UpdateInvoice invoice внутри вебхука
type UpdateInvoice struct {
	InvoiceID int64  `json:"invoice_id"`
	Status    string `json:"status"`
	Payload   string `json:"payload,omitempty"`
}
