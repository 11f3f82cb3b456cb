// internal/workers/analytics/survey-dataset-overview/config.go
package surveydatasetoverview

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
		Timeout: 30 * time.Second,
		Guard:   guard.DefaultThresholds(),
		Options: insights.DefaultOptions(),
	}
}
