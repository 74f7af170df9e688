package delivery

import "context"

// IDeliveryClient внешний API доставки звёзд (Fragment)
type IDeliveryClient interface {
	// ValidateRecipient false если получатель не существует; ошибка если проверить не удалось
	ValidateRecipient(ctx context.Context, tag string) (bool, error)
	Deliver(ctx context.Context, tag string, quantity int64) error
}
