package purchase

import (
	"fmt"
	"time"

	"github.com/admin/tg-bots/stars-bot/internal/domain"
	"github.com/shopspring/decimal"
)

const (
	lowerStarsLimit = 50
	upperStarsLimit = 1_000_000
)

type Config struct {
	MinStars        int64           `envconfig:"MIN_STARS" default:"50"`
	MaxStars        int64           `envconfig:"MAX_STARS" default:"1000000"`
	StarPrice       decimal.Decimal `envconfig:"STAR_PRICE_RUB" default:"1.6"`
	Assets          []string        `envconfig:"ASSETS" default:"USDT,TON,BTC"` // валюты оплаты в CryptoBot
	PaymentWindow   time.Duration   `envconfig:"PAYMENT_WINDOW" default:"15m"`
	DeliveryTimeout time.Duration   `envconfig:"DELIVERY_TIMEOUT" default:"25s"`
	SessionTTL      time.Duration   `envconfig:"SESSION_TTL" default:"24h"`
}

// Validate 50 ≤ MIN < MAX ≤ 1 000 000, цена > 0, есть хотя бы одна валюта
func (c *Config) Validate() error {
	if c.MinStars < lowerStarsLimit || c.MaxStars > upperStarsLimit || c.MinStars >= c.MaxStars {
		return fmt.Errorf("invalid stars bounds: need %d <= MIN_STARS(%d) < MAX_STARS(%d) <= %d",
			lowerStarsLimit, c.MinStars, c.MaxStars, upperStarsLimit)
	}
	if !c.StarPrice.IsPositive() {
		return fmt.Errorf("STAR_PRICE_RUB must be positive, got %s", c.StarPrice)
	}
	if len(c.Assets) == 0 {
		return fmt.Errorf("ASSETS must not be empty")
	}
	for i, a := range c.Assets {
		c.Assets[i] = domain.NormalizeAsset(a)
	}
	if c.PaymentWindow <= 0 || c.DeliveryTimeout <= 0 {
		return fmt.Errorf("PAYMENT_WINDOW and DELIVERY_TIMEOUT must be positive")
	}
	return nil
}

func (c *Config) assetAllowed(asset string) bool {
	for _, a := range c.Assets {
		if a == asset {
			return true
		}
	}
	return false
}
