package fragment

import "time"

type Config struct {
	APIKey         string        `envconfig:"API_KEY" required:"true"`
	BaseURL        string        `envconfig:"BASE_URL" default:"https://api.fragment-api.com/v1"`
	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT" default:"25s"`
}
