package jobs

import "time"

type Config struct {
	Enabled        bool            `envconfig:"ENABLED" default:"true"`
	PollInterval   time.Duration   `envconfig:"POLL_INTERVAL" default:"30s"`
	PollLookback   time.Duration   `envconfig:"POLL_LOOKBACK" default:"24h"` // инвойсы старше не опрашиваются
	ExpireInterval time.Duration   `envconfig:"EXPIRE_INTERVAL" default:"1m"`
	ResumeInterval time.Duration   `envconfig:"RESUME_INTERVAL" default:"5m"` // обход оплаченных без получателя
	BatchSize      int             `envconfig:"BATCH_SIZE" default:"100"`
	Concurrency    int             `envconfig:"CONCURRENCY" default:"4"`
	RetryDelays    []time.Duration `envconfig:"RETRY_DELAYS" default:"10s,30s"`
}
