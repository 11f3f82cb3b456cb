// internal/workers/analytics/pivot-dimension-values/config.go
package pivotdimensionvalues

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
		Timeout: 10 * time.Second,
		Guard:   guard.DefaultThresholds(),
	}
}
