package kafka

import (
	"context"

	"github.com/admin/tg-bots/stars-bot/internal/domain"
)

// IEventPublisher публикует итоги покупок в Kafka
type IEventPublisher interface {
	PublishOutcome(ctx context.Context, outcome *domain.PurchaseOutcome) error
	Close() error
}
