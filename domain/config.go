package domain

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	// PriorityHigherFirst dispatches larger priority values first
	PriorityHigherFirst = "higher_first"
	// PriorityLowerFirst dispatches smaller priority values first
	PriorityLowerFirst = "lower_first"
)

// Config represents project config
type Config struct {
	SchedulerConfig `yaml:"scheduler"`
	IngestionConfig `yaml:"ingestion"`
	PostgresConfig  `yaml:"postgres"`
	S3Config        `yaml:"s3"`
	APIConfig       `yaml:"api"`

	LogLevel    string `env:"CPUSCHED_LOG_LEVEL" yaml:"logLevel"`
	Development bool   `env:"CPUSCHED_DEVELOPMENT" yaml:"development"`

	EnableCPUProfiler bool   `env:"ENABLE_CPU_PROFILER" yaml:"enableCPUProfiler"`
	ProfileFile       string `env:"CPU_PROFILE_FILE" yaml:"profileFile"`

	EnableTracing bool   `env:"CPUSCHED_ENABLE_TRACING" yaml:"enableTracing"`
	TraceFile     string `env:"CPUSCHED_TRACE_FILE" yaml:"traceFile"`

	GraphiteHost  string        `env:"GRAPHITE_HOST" yaml:"graphiteHost"`
	MetricsPrefix string        `env:"CPUSCHED_METRICS_PREFIX" yaml:"metricsPrefix"`
	FlushInterval time.Duration `env:"CPUSCHED_METRICS_FLUSH_INTERVAL" yaml:"flushInterval"`
}

// SchedulerConfig represents knobs of the admission and scheduling core
type SchedulerConfig struct {
	MemoryBudget    int    `env:"CPUSCHED_MEMORY_BUDGET" yaml:"memoryBudget"`
	Quantum         int    `env:"CPUSCHED_QUANTUM" yaml:"quantum"`
	MinPriority     int    `env:"CPUSCHED_MIN_PRIORITY" yaml:"minPriority"`
	MaxPriority     int    `env:"CPUSCHED_MAX_PRIORITY" yaml:"maxPriority"`
	PriorityOrder   string `env:"CPUSCHED_PRIORITY_ORDER" yaml:"priorityOrder"`
	StarvationBase  int    `env:"CPUSCHED_STARVATION_BASE" yaml:"starvationBase"`
	StarvationScale int    `env:"CPUSCHED_STARVATION_SCALE" yaml:"starvationScale"`
	CacheReports    bool   `env:"CPUSCHED_CACHE_REPORTS" yaml:"cacheReports"`
}

// IngestionConfig represents where jobs come from and how the pipeline polls
type IngestionConfig struct {
	JobSourceURL  string        `env:"CPUSCHED_JOB_SOURCE" yaml:"jobSource"`
	PollInterval  time.Duration `env:"CPUSCHED_POLL_INTERVAL" yaml:"pollInterval"`
	IngestTimeout time.Duration `env:"CPUSCHED_INGEST_TIMEOUT" yaml:"ingestTimeout"`
}

// PostgresConfig represents config for PostgreSQL Database
type PostgresConfig struct {
	PsqlUser string `env:"POSTGRES_USER" yaml:"user"`
	PsqlPass string `env:"POSTGRES_PASSWORD" yaml:"password"`
	DbName   string `env:"POSTGRES_DB" yaml:"database"`
	DbHost   string `env:"POSTGRES_HOST" yaml:"host"`
	DbPort   int    `env:"POSTGRES_PORT" yaml:"port"`
}

// S3Config represents config for S3 Client
type S3Config struct {
	AccessKey string `env:"AWS_ACCESS_KEY" yaml:"accessKey"`
	SecretKey string `env:"AWS_SECRET_KEY" yaml:"secretKey"`
	Region    string `env:"AWS_S3_REGION" yaml:"region"`
}

// APIConfig represents config of the optional HTTP selection interface
type APIConfig struct {
	APIAddr     string `env:"CPUSCHED_API_ADDR" yaml:"addr"`
	CertFile    string `env:"CERT_FILE" yaml:"certFile"`
	CertKeyFile string `env:"CERT_KEY_FILE" yaml:"certKeyFile"`
}

// DefaultConfig returns the reference policy: 2048 memory units, quantum 7, priorities 1..8
func DefaultConfig() *Config {
	return &Config{
		SchedulerConfig: SchedulerConfig{
			MemoryBudget:    2048,
			Quantum:         7,
			MinPriority:     1,
			MaxPriority:     8,
			PriorityOrder:   PriorityHigherFirst,
			StarvationBase:  10,
			StarvationScale: 10,
			CacheReports:    true,
		},
		IngestionConfig: IngestionConfig{
			JobSourceURL:  "job.txt",
			PollInterval:  100 * time.Millisecond,
			IngestTimeout: 30 * time.Second,
		},
		PostgresConfig: PostgresConfig{
			DbHost: "localhost",
			DbPort: 5432,
		},
		LogLevel:      "info",
		ProfileFile:   "profile_cpu.prof",
		MetricsPrefix: "cpusched",
		FlushInterval: 10 * time.Second,
	}
}

// LoadConfig layers the defaults, an optional yaml file and the environment (with .env loaded first)
func LoadConfig(envFile, yamlFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load env file %s: %w", envFile, err)
		}
	}
	cfg := DefaultConfig()
	if yamlFile == "" {
		yamlFile = os.Getenv("CPUSCHED_CONFIG_FILE")
	}
	if yamlFile != "" {
		data, err := os.ReadFile(yamlFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", yamlFile, err)
		}
		if err = yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to decode config file %s: %w", yamlFile, err)
		}
	}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	return cfg, cfg.Validate()
}

// Validate returns aggregated error describing invalid settings or nil.
func (c *Config) Validate() error {
	if c == nil {
		return nil
	}
	var errs []error
	if c.MemoryBudget <= 0 {
		errs = append(errs, fmt.Errorf("memoryBudget must be > 0"))
	}
	if c.Quantum <= 0 {
		errs = append(errs, fmt.Errorf("quantum must be > 0"))
	}
	if c.MinPriority > c.MaxPriority {
		errs = append(errs, fmt.Errorf("minPriority %d exceeds maxPriority %d", c.MinPriority, c.MaxPriority))
	}
	if c.PriorityOrder != PriorityHigherFirst && c.PriorityOrder != PriorityLowerFirst {
		errs = append(errs, fmt.Errorf("priorityOrder must be %s or %s", PriorityHigherFirst, PriorityLowerFirst))
	}
	if c.PollInterval <= 0 {
		errs = append(errs, fmt.Errorf("pollInterval must be > 0"))
	}
	if c.IngestTimeout < 0 {
		errs = append(errs, fmt.Errorf("ingestTimeout must be >= 0"))
	}
	return errors.Join(errs...)
}
