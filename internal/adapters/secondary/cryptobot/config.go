package cryptobot

import "time"

const defaultBaseURL = "https://pay.crypt.bot/api"

type Config struct {
	APIToken       string        `envconfig:"API_TOKEN" required:"true"`
	BaseURL        string        `envconfig:"BASE_URL" default:"https://pay.crypt.bot/api"` // testnet: https://testnet-pay.crypt.bot/api
	InvoiceTTL     time.Duration `envconfig:"INVOICE_TTL" default:"15m"`
	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT" default:"25s"`
}
