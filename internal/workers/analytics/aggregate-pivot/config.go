// internal/workers/analytics/aggregate-pivot/config.go
package aggregatepivot

import (
	"time"

	"ai2c-dataviz/internal/analytics/guard"
)

type Config struct {
	Timeout time.Duration
	Guard   guard.Thresholds
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 30 * time.Second,
		Guard:   guard.DefaultThresholds(),
	}
}
