// internal/workers/analytics/classify-questions/config.go
package classifyquestions

import (
	"runtime"
	"time"
)

type Config struct {
	Timeout     time.Duration
	Concurrency int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:     15 * time.Second,
		Concurrency: runtime.NumCPU(),
	}
}
