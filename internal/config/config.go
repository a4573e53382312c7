package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the service.
type Config struct {
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"logLevel"`
	Server      struct {
		Port int `mapstructure:"port"`
	} `mapstructure:"server"`
	Database struct {
		PostgresDSN         string `mapstructure:"postgresDSN"`
		PostgresAutoMigrate bool   `mapstructure:"postgresAutoMigrate"`
	} `mapstructure:"database"`
	NATS struct {
		URL           string `mapstructure:"url"`
		JobStream     string `mapstructure:"jobStream"`
		JobSubject    string `mapstructure:"jobSubject"`
		DispatchJobs  bool   `mapstructure:"dispatchJobs"`
		JobMaxAgeDays int    `mapstructure:"jobMaxAgeDays"`
	} `mapstructure:"nats"`
	Metrics struct {
		Enabled bool `mapstructure:"enabled"`
	} `mapstructure:"metrics"`
	Pricing     PricingConfig `mapstructure:"pricing"`
	WorkerPools struct {
		Ingestion IngestionWorkerPoolConfig `mapstructure:"ingestion"`
	} `mapstructure:"workerPools"`
}

// PricingConfig holds per-unit costs for metered events, in dollars.
type PricingConfig struct {
	SMSOutbound    float64 `mapstructure:"smsOutbound"`
	SMSInbound     float64 `mapstructure:"smsInbound"`
	VoicePerMinute float64 `mapstructure:"voicePerMinute"`
	PhoneNumber    float64 `mapstructure:"phoneNumber"`
	AIEdit         float64 `mapstructure:"aiEdit"`
	AIRegen        float64 `mapstructure:"aiRegen"`
}

// IngestionWorkerPoolConfig holds configuration for the knowledge ingestion
// worker pool.
type IngestionWorkerPoolConfig struct {
	PoolSize   int           `mapstructure:"poolSize"`   // Number of workers
	QueueSize  int           `mapstructure:"queueSize"`  // Task queue buffer size
	MaxBlock   time.Duration `mapstructure:"maxBlock"`   // Max time to block when submitting if queue full
	ExpiryTime time.Duration `mapstructure:"expiryTime"` // Idle worker expiry time
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("environment", "development")
	v.SetDefault("logLevel", "info")
	v.SetDefault("server.port", 8080)
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("database.postgresAutoMigrate", true)

	v.SetDefault("nats.jobStream", "receptionist_jobs")
	v.SetDefault("nats.jobSubject", "v1.jobs")
	v.SetDefault("nats.dispatchJobs", false)
	v.SetDefault("nats.jobMaxAgeDays", 7)

	// Pricing defaults mirror production rates
	v.SetDefault("pricing.smsOutbound", 0.015)
	v.SetDefault("pricing.smsInbound", 0.0075)
	v.SetDefault("pricing.voicePerMinute", 0.10)
	v.SetDefault("pricing.phoneNumber", 2.00)
	v.SetDefault("pricing.aiEdit", 0.50)
	v.SetDefault("pricing.aiRegen", 1.00)

	v.SetDefault("workerPools.ingestion.poolSize", 4)
	v.SetDefault("workerPools.ingestion.queueSize", 1000)
	v.SetDefault("workerPools.ingestion.maxBlock", time.Second)
	v.SetDefault("workerPools.ingestion.expiryTime", time.Minute)

	v.SetConfigName("default")
	v.SetConfigType("yaml")

	if path != "" {
		v.AddConfigPath(path)
	}
	v.AddConfigPath(".")
	v.AddConfigPath("./internal/config")
	v.AddConfigPath("/etc/receptionist-core")

	if err := v.ReadInConfig(); err != nil {
		// Missing config file is fine, env vars cover it
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	return &cfg, nil
}
