// internal/workers/analytics/pivot-drill-through/config.go
package pivotdrillthrough

import (
	"time"

	"ai2c-dataviz/internal/analytics/guard"
	"ai2c-dataviz/internal/analytics/pivot"
)

type Config struct {
	Timeout        time.Duration
	DetailRowLimit int
	Guard          guard.Thresholds
}

func LoadConfig() *Config {
	return &Config{
		Timeout:        30 * time.Second,
		DetailRowLimit: pivot.DefaultDetailLimit,
		Guard:          guard.DefaultThresholds(),
	}
}
