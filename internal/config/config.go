package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

const (
	defaultPort           = "8080"
	defaultLogLevel       = "info"
	defaultRateLimitRPS   = 25.0
	defaultRateLimitBurst = 50
	defaultFetchTimeout   = 30 * time.Second
	defaultUserAgent      = "nextimage-env"
	defaultLocalEndpoint  = "http://localhost:9000"
	defaultLocalRegion    = "us-east-1"
)

// Config aggregates runtime configuration resolved from multiple sources.
// Precedence: CLI flags > YAML config > Environment variables > Defaults
type Config struct {
	Port                 string
	LogLevel             string
	EnvFiles             []string
	ShutdownGracePeriod  time.Duration
	ReadHeaderTimeout    time.Duration
	WriteTimeout         time.Duration
	IdleTimeout          time.Duration
	EnableRequestLogging bool
	RateLimitRPS         float64
	RateLimitBurst       int
	Fetch                FetchConfig
	LocalBucket          LocalBucketConfig
}

// FetchConfig configures the outbound fetcher.
type FetchConfig struct {
	Timeout   time.Duration
	UserAgent string
	RateLimit float64
	Burst     int
}

// LocalBucketConfig points at the S3-compatible store used when
// __DEBUG__USE_LOCAL_BUCKET is set.
type LocalBucketConfig struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
}

// yamlConfig represents the YAML configuration file structure.
type yamlConfig struct {
	Port                 string          `yaml:"port"`
	LogLevel             string          `yaml:"log_level"`
	EnvFiles             []string        `yaml:"env_files"`
	ShutdownGracePeriod  string          `yaml:"shutdown_grace_period"`
	ReadHeaderTimeout    string          `yaml:"read_header_timeout"`
	WriteTimeout         string          `yaml:"write_timeout"`
	IdleTimeout          string          `yaml:"idle_timeout"`
	EnableRequestLogging *bool           `yaml:"enable_request_logging"`
	RateLimit            *yamlRateLimit  `yaml:"rate_limit"`
	Fetch                yamlFetch       `yaml:"fetch"`
	LocalBucket          yamlLocalBucket `yaml:"local_bucket"`
}

// yamlRateLimit represents the rate limit section in YAML.
type yamlRateLimit struct {
	RPS   *float64 `yaml:"rps"`
	Burst *int     `yaml:"burst"`
}

type yamlFetch struct {
	Timeout   string   `yaml:"timeout"`
	UserAgent string   `yaml:"user_agent"`
	RateLimit *float64 `yaml:"rate_limit"`
	Burst     *int     `yaml:"burst"`
}

type yamlLocalBucket struct {
	Endpoint  string `yaml:"endpoint"`
	Region    string `yaml:"region"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
}

// CLIOverrides holds command-line flag overrides.
type CLIOverrides struct {
	ConfigFile     string
	EnvFiles       []string
	Port           *string
	LogLevel       *string
	RateLimitRPS   *float64
	RateLimitBurst *int
}

// Load extracts configuration from multiple sources with precedence:
// CLI flags > YAML config > Environment variables > Defaults
func Load(overrides *CLIOverrides) (Config, error) {
	cfg := defaultConfig()

	// Environment sits below YAML, so apply it first.
	if err := applyEnvConfig(&cfg); err != nil {
		return Config{}, err
	}

	if overrides != nil && overrides.ConfigFile != "" {
		yamlCfg, err := loadFromFile(overrides.ConfigFile)
		if err != nil {
			return Config{}, fmt.Errorf("load YAML config: %w", err)
		}
		if err := applyYAMLConfig(&cfg, yamlCfg); err != nil {
			return Config{}, fmt.Errorf("apply YAML config: %w", err)
		}
	}

	if overrides != nil {
		applyCLIOverrides(&cfg, overrides)
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Default returns the configuration used when no source overrides anything.
func Default() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Port:                 defaultPort,
		LogLevel:             defaultLogLevel,
		ShutdownGracePeriod:  10 * time.Second,
		ReadHeaderTimeout:    5 * time.Second,
		WriteTimeout:         15 * time.Second,
		IdleTimeout:          60 * time.Second,
		EnableRequestLogging: true,
		RateLimitRPS:         defaultRateLimitRPS,
		RateLimitBurst:       defaultRateLimitBurst,
		Fetch: FetchConfig{
			Timeout:   defaultFetchTimeout,
			UserAgent: defaultUserAgent,
		},
		LocalBucket: LocalBucketConfig{
			Endpoint: defaultLocalEndpoint,
			Region:   defaultLocalRegion,
		},
	}
}

func loadFromFile(path string) (*yamlConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var yamlCfg yamlConfig
	if err := yaml.Unmarshal(data, &yamlCfg); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}

	return &yamlCfg, nil
}

func applyYAMLConfig(cfg *Config, yamlCfg *yamlConfig) error {
	if yamlCfg.Port != "" {
		cfg.Port = yamlCfg.Port
	}
	if yamlCfg.LogLevel != "" {
		cfg.LogLevel = yamlCfg.LogLevel
	}
	if len(yamlCfg.EnvFiles) > 0 {
		cfg.EnvFiles = append([]string(nil), yamlCfg.EnvFiles...)
	}

	durations := []struct {
		name  string
		raw   string
		field *time.Duration
	}{
		{"shutdown_grace_period", yamlCfg.ShutdownGracePeriod, &cfg.ShutdownGracePeriod},
		{"read_header_timeout", yamlCfg.ReadHeaderTimeout, &cfg.ReadHeaderTimeout},
		{"write_timeout", yamlCfg.WriteTimeout, &cfg.WriteTimeout},
		{"idle_timeout", yamlCfg.IdleTimeout, &cfg.IdleTimeout},
		{"fetch.timeout", yamlCfg.Fetch.Timeout, &cfg.Fetch.Timeout},
	}
	for _, d := range durations {
		if d.raw == "" {
			continue
		}
		value, err := time.ParseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("%s: %w", d.name, err)
		}
		*d.field = value
	}

	if yamlCfg.EnableRequestLogging != nil {
		cfg.EnableRequestLogging = *yamlCfg.EnableRequestLogging
	}

	if yamlCfg.RateLimit != nil {
		if yamlCfg.RateLimit.RPS != nil {
			cfg.RateLimitRPS = *yamlCfg.RateLimit.RPS
		}
		if yamlCfg.RateLimit.Burst != nil {
			cfg.RateLimitBurst = *yamlCfg.RateLimit.Burst
		}
	}

	if yamlCfg.Fetch.UserAgent != "" {
		cfg.Fetch.UserAgent = yamlCfg.Fetch.UserAgent
	}
	if yamlCfg.Fetch.RateLimit != nil {
		cfg.Fetch.RateLimit = *yamlCfg.Fetch.RateLimit
	}
	if yamlCfg.Fetch.Burst != nil {
		cfg.Fetch.Burst = *yamlCfg.Fetch.Burst
	}

	if yamlCfg.LocalBucket.Endpoint != "" {
		cfg.LocalBucket.Endpoint = yamlCfg.LocalBucket.Endpoint
	}
	if yamlCfg.LocalBucket.Region != "" {
		cfg.LocalBucket.Region = yamlCfg.LocalBucket.Region
	}
	if yamlCfg.LocalBucket.AccessKey != "" {
		cfg.LocalBucket.AccessKey = yamlCfg.LocalBucket.AccessKey
	}
	if yamlCfg.LocalBucket.SecretKey != "" {
		cfg.LocalBucket.SecretKey = yamlCfg.LocalBucket.SecretKey
	}

	return nil
}

func applyEnvConfig(cfg *Config) error {
	if port := getenv("PORT"); port != "" {
		cfg.Port = port
	}
	if level := getenv("LOG_LEVEL"); level != "" {
		cfg.LogLevel = level
	}

	if rps := getenv("RATE_LIMIT_RPS"); rps != "" {
		value, err := strconv.ParseFloat(rps, 64)
		if err != nil {
			return fmt.Errorf("RATE_LIMIT_RPS: %w", err)
		}
		cfg.RateLimitRPS = value
	}

	if burst := getenv("RATE_LIMIT_BURST"); burst != "" {
		value, err := strconv.Atoi(burst)
		if err != nil {
			return fmt.Errorf("RATE_LIMIT_BURST: %w", err)
		}
		cfg.RateLimitBurst = value
	}

	if timeout := getenv("FETCH_TIMEOUT"); timeout != "" {
		value, err := time.ParseDuration(timeout)
		if err != nil {
			return fmt.Errorf("FETCH_TIMEOUT: %w", err)
		}
		cfg.Fetch.Timeout = value
	}

	if endpoint := getenv("LOCAL_BUCKET_ENDPOINT"); endpoint != "" {
		cfg.LocalBucket.Endpoint = endpoint
	}
	if region := getenv("LOCAL_BUCKET_REGION"); region != "" {
		cfg.LocalBucket.Region = region
	}
	if key := getenv("LOCAL_BUCKET_ACCESS_KEY"); key != "" {
		cfg.LocalBucket.AccessKey = key
	}
	if secret := getenv("LOCAL_BUCKET_SECRET_KEY"); secret != "" {
		cfg.LocalBucket.SecretKey = secret
	}

	return nil
}

func applyCLIOverrides(cfg *Config, overrides *CLIOverrides) {
	if len(overrides.EnvFiles) > 0 {
		cfg.EnvFiles = append([]string(nil), overrides.EnvFiles...)
	}

	if overrides.Port != nil && *overrides.Port != "" {
		cfg.Port = *overrides.Port
	}

	if overrides.LogLevel != nil && *overrides.LogLevel != "" {
		cfg.LogLevel = *overrides.LogLevel
	}

	if overrides.RateLimitRPS != nil && *overrides.RateLimitRPS >= 0 {
		cfg.RateLimitRPS = *overrides.RateLimitRPS
	}

	if overrides.RateLimitBurst != nil && *overrides.RateLimitBurst >= 0 {
		cfg.RateLimitBurst = *overrides.RateLimitBurst
	}
}

func validateConfig(cfg Config) error {
	if cfg.RateLimitRPS < 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must be >= 0")
	}
	if cfg.RateLimitBurst < 0 {
		return fmt.Errorf("RATE_LIMIT_BURST must be >= 0")
	}
	if cfg.Fetch.Timeout < 0 {
		return fmt.Errorf("fetch timeout must be >= 0")
	}
	if cfg.Fetch.RateLimit < 0 || cfg.Fetch.Burst < 0 {
		return fmt.Errorf("fetch rate limit must be >= 0")
	}
	if _, err := zapcore.ParseLevel(cfg.LogLevel); err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	return nil
}

func getenv(name string) string {
	return strings.TrimSpace(os.Getenv(name))
}
