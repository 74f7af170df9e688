package telegram

import (
	"context"
)

type setWebhookRequest struct {
	URL            string   `json:"url"`
	SecretToken    string   `json:"secret_token,omitempty"`
	AllowedUpdates []string `json:"allowed_updates,omitempty"`
}

// SetWebhook регистрирует webhook; secretToken возвращается Telegram в заголовке X-Telegram-Bot-Api-Secret-Token
func (c *Client) SetWebhook(ctx context.Context, url string, secretToken string) error {
	req := setWebhookRequest{
		URL:            url,
		SecretToken:    secretToken,
		AllowedUpdates: []string{"message", "callback_query"},
	}
	if err := c.call(ctx, "setWebhook", req, nil); err != nil {
		return err
	}

	c.log.Info("webhook set successfully", "url", url)
	return nil
}

// DeleteWebhook удаляет webhook (нужно вызывать перед запуском polling)
func (c *Client) DeleteWebhook(ctx context.Context) error {
	req := struct {
		DropPendingUpdates bool `json:"drop_pending_updates"`
	}{DropPendingUpdates: true}

	if err := c.call(ctx, "deleteWebhook", req, nil); err != nil {
		return err
	}

	c.log.Info("webhook deleted successfully")
	return nil
}
