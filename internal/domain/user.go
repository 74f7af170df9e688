package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// User покупатель; ID совпадает с Telegram user id
type User struct {
	ID         int64           `json:"id" db:"id"`
	Username   *string         `json:"username,omitempty" db:"username"`
	TotalStars int64           `json:"total_stars" db:"total_stars"`
	TotalSpent decimal.Decimal `json:"total_spent" db:"total_spent"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at" db:"updated_at"`
}
