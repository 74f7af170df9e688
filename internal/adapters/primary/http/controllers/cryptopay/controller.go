package cryptopay

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/admin/tg-bots/stars-bot/internal/adapters/secondary/cryptobot"
	"github.com/admin/tg-bots/stars-bot/internal/domain"
	"github.com/gin-gonic/gin"
)

type NotificationHandler interface {
	HandlePaymentNotification(ctx context.Context, body []byte, signature string) error
}

type Controller struct {
	Notifications NotificationHandler
	Log           *slog.Logger
}

func New(notifications NotificationHandler, log *slog.Logger) *Controller {
	return &Controller{
		Notifications: notifications,
		Log:           log,
	}
}

func (c *Controller) RegisterRoutes(router *gin.Engine) {
	router.POST("/webhooks/cryptopay", c.handleWebhook)
}

// handleWebhook подпись считается по сырому телу, поэтому без ShouldBindJSON
func (c *Controller) handleWebhook(ctx *gin.Context) {
	body, err := ctx.GetRawData()
	if err != nil {
		c.Log.Warn("failed to read cryptopay webhook body", "error", err)
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	err = c.Notifications.HandlePaymentNotification(ctx.Request.Context(), body, ctx.GetHeader(cryptobot.SignatureHeader))
	switch {
	case err == nil:
		ctx.Status(http.StatusOK)
	case errors.Is(err, domain.ErrSignatureMismatch):
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
	case domain.IsInvalidInput(err):
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
	default:
		// 5xx: CryptoBot повторит доставку, подтверждение идемпотентно
		c.Log.Error("failed to handle cryptopay webhook", "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process update"})
	}
}
