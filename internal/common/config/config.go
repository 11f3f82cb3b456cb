// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App      AppConfig               `mapstructure:"app"`
	Server   ServerConfig            `mapstructure:"server"`
	Camunda  CamundaConfig           `mapstructure:"camunda"`
	Database DatabaseConfig          `mapstructure:"database"`
	Storage  StorageConfig           `mapstructure:"storage"`
	Dataset  DatasetConfig           `mapstructure:"dataset"`
	Engine   EngineConfig            `mapstructure:"engine"`
	Cache    CacheConfig             `mapstructure:"cache"`
	Registry RegistryConfig          `mapstructure:"registry"`
	Workers  map[string]WorkerConfig `mapstructure:"workers"`
	Logging  LoggingConfig           `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
}

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Storage backends.
const (
	StorageS3    = "s3"
	StorageLocal = "local"
)

// StorageConfig says where analytics cubes and questionnaire schemas live.
type StorageConfig struct {
	Backend          string            `mapstructure:"backend"` // s3 | local
	Region           string            `mapstructure:"region"`
	LocalRoot        string            `mapstructure:"local_root"`
	ReportsBucket    string            `mapstructure:"reports_bucket"`
	ReportsPrefix    string            `mapstructure:"reports_prefix"`
	SchemaBaseBucket string            `mapstructure:"schema_base_bucket"`
	SchemaEnvBuckets map[string]string `mapstructure:"schema_env_buckets"`
	SchemaPrefix     string            `mapstructure:"schema_prefix"`
	CSVDelimiter     string            `mapstructure:"csv_delimiter"`
}

// Delimiter returns the first rune of CSVDelimiter, or a comma.
func (s StorageConfig) Delimiter() rune {
	for _, r := range s.CSVDelimiter {
		return r
	}
	return ','
}

// Dataset sources.
const (
	SourceObject   = "object"
	SourcePostgres = "postgres"
)

type DatasetConfig struct {
	Sources       []string `mapstructure:"sources"`
	PostgresTable string   `mapstructure:"postgres_table"`
}

// UsesSource reports whether name is one of the configured sources.
func (d DatasetConfig) UsesSource(name string) bool {
	for _, s := range d.Sources {
		if s == name {
			return true
		}
	}
	return false
}

// EngineConfig holds the tunable thresholds of the analytics engine.
type EngineConfig struct {
	CardinalityMinUnique int     `mapstructure:"cardinality_min_unique"`
	CardinalityMaxRatio  float64 `mapstructure:"cardinality_max_ratio"`
	DetailRowLimit       int     `mapstructure:"detail_row_limit"`
	RawSampleSize        int     `mapstructure:"raw_sample_size"`
	TopTokens            int     `mapstructure:"top_tokens"`
}

type CacheConfig struct {
	RedisEnabled bool   `mapstructure:"redis_enabled"`
	RedisPrefix  string `mapstructure:"redis_prefix"`
}

type RegistryConfig struct {
	Path string `mapstructure:"path"`
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"`     // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"` // For error handling
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
