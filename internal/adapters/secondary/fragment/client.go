package fragment

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"log/slog"

	"github.com/admin/tg-bots/stars-bot/internal/domain"
	"github.com/admin/tg-bots/stars-bot/internal/ports/delivery"
	"github.com/go-resty/resty/v2"
)

// Client клиент Fragment API для доставки звёзд
type Client struct {
	http *resty.Client
	log  *slog.Logger
}

var _ delivery.IDeliveryClient = (*Client)(nil)

func NewClient(cfg *Config, log *slog.Logger) *Client {
	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.RequestTimeout).
		SetHeader("Authorization", cfg.APIKey).
		SetHeader("Accept", "application/json")

	return &Client{
		http: httpClient,
		log:  log,
	}
}

// ValidateRecipient проверяет, что получатель существует
func (c *Client) ValidateRecipient(ctx context.Context, tag string) (bool, error) {
	if !domain.ValidRecipientFormat(tag) {
		return false, nil
	}
	username := domain.NormalizeRecipient(tag)

	resp, err := c.http.R().
		SetContext(ctx).
		Get("/misc/user/" + url.PathEscape(username) + "/")
	if err != nil {
		return false, fmt.Errorf("%w: validate recipient: %v", domain.ErrDeliveryFailed, err)
	}

	switch resp.StatusCode() {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound, http.StatusBadRequest:
		return false, nil
	default:
		c.log.Warn("fragment recipient check failed",
			"username", username,
			"status_code", resp.StatusCode(),
			"body", resp.String(),
		)
		return false, fmt.Errorf("%w: validate recipient: status %d", domain.ErrDeliveryFailed, resp.StatusCode())
	}
}

// Deliver отправляет звёзды получателю
func (c *Client) Deliver(ctx context.Context, tag string, quantity int64) error {
	username := domain.NormalizeRecipient(tag)

	var result orderResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(orderStarsRequest{Username: username, Quantity: quantity}).
		SetResult(&result).
		SetError(&result).
		Post("/order/stars/")
	if err != nil {
		c.log.Error("fragment order request failed", "username", username, "error", err)
		return fmt.Errorf("%w: %v", domain.ErrDeliveryFailed, err)
	}

	if resp.IsError() {
		c.log.Error("fragment order rejected",
			"username", username,
			"quantity", quantity,
			"status_code", resp.StatusCode(),
			"error", result.Error,
			"message", result.Message,
		)
		return fmt.Errorf("%w: status %d: %s", domain.ErrDeliveryFailed, resp.StatusCode(), firstNonEmpty(result.Error, result.Message, resp.String()))
	}

	c.log.Info("stars delivered",
		"username", username,
		"quantity", quantity,
		"order_id", result.ID,
	)
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
