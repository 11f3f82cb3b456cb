// internal/workers/analytics/question-insights/config.go
package questioninsights

import (
	"time"

	"ai2c-dataviz/internal/analytics/guard"
	"ai2c-dataviz/internal/analytics/insights"
)

type Config struct {
	Timeout time.Duration
	Guard   guard.Thresholds
	Options insights.Options
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 15 * time.Second,
		Guard:   guard.DefaultThresholds(),
		Options: insights.DefaultOptions(),
	}
}
