package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ConfigPath is the default configuration file location.
const ConfigPath = "config.yaml"

// FileConfig represents configuration loaded from YAML.
type FileConfig struct {
	Port                  string `yaml:"port"`
	LogLevel              string `yaml:"logLevel"`
	DatabaseURL           string `yaml:"databaseURL"`
	RedisAddr             string `yaml:"redisAddr"`
	RedisPassword         string `yaml:"redisPassword"`
	MinioEndpoint         string `yaml:"minioEndpoint"`
	MinioAccessKey        string `yaml:"minioAccessKey"`
	MinioSecretKey        string `yaml:"minioSecretKey"`
	MinioBucket           string `yaml:"minioBucket"`
	MinioUseSSL           bool   `yaml:"minioUseSSL"`
	PagerWebhookURL       string `yaml:"pagerWebhookURL"`
	PagerWindowSeconds    int    `yaml:"pagerWindowSeconds"`
	ExtractTimeoutSeconds int    `yaml:"extractTimeoutSeconds"`
	GreenThreshold        int    `yaml:"greenThreshold"`
	AmberThreshold        int    `yaml:"amberThreshold"`
	ExpiryWarningDays     int    `yaml:"expiryWarningDays"`
	RateLimitPerMinute    int    `yaml:"rateLimitPerMinute"`
}

// Load reads config from path (defaults to config.yaml).
func Load(path string) (FileConfig, error) {
	cfg := FileConfig{}
	if path == "" {
		path = ConfigPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	// Override with environment variables
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.RedisPassword = v
	}
	if v := os.Getenv("MINIO_ENDPOINT"); v != "" {
		cfg.MinioEndpoint = v
	}
	if v := os.Getenv("MINIO_ACCESS_KEY"); v != "" {
		cfg.MinioAccessKey = v
	}
	if v := os.Getenv("MINIO_SECRET_KEY"); v != "" {
		cfg.MinioSecretKey = v
	}
	if v := os.Getenv("MINIO_BUCKET"); v != "" {
		cfg.MinioBucket = v
	}
	if v := os.Getenv("PAGER_WEBHOOK_URL"); v != "" {
		cfg.PagerWebhookURL = v
	}
	if v := os.Getenv("EXTRACT_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.ExtractTimeoutSeconds = n
		}
	}
	if v := os.Getenv("READINESS_GREEN_THRESHOLD"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.GreenThreshold = n
		}
	}
	if v := os.Getenv("READINESS_AMBER_THRESHOLD"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.AmberThreshold = n
		}
	}
	if v := os.Getenv("EXPIRY_WARNING_DAYS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.ExpiryWarningDays = n
		}
	}
	if v := os.Getenv("RATE_LIMIT_PER_MINUTE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RateLimitPerMinute = n
		}
	}
	if err := validateConfig(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func validateConfig(cfg FileConfig) error {
	if cfg.Port == "" {
		return errors.New("config: port is required (set in config.yaml)")
	}
	if cfg.ExtractTimeoutSeconds < 0 {
		return errors.New("config: extractTimeoutSeconds must be >= 0")
	}
	if cfg.GreenThreshold < 0 || cfg.GreenThreshold > 100 {
		return errors.New("config: greenThreshold must be between 0 and 100")
	}
	if cfg.AmberThreshold < 0 || cfg.AmberThreshold > 100 {
		return errors.New("config: amberThreshold must be between 0 and 100")
	}
	if cfg.GreenThreshold != 0 && cfg.AmberThreshold != 0 && cfg.AmberThreshold > cfg.GreenThreshold {
		return errors.New("config: amberThreshold must not exceed greenThreshold")
	}
	if cfg.ExpiryWarningDays < 0 {
		return errors.New("config: expiryWarningDays must be >= 0")
	}
	if cfg.RateLimitPerMinute < 0 {
		return errors.New("config: rateLimitPerMinute must be >= 0")
	}
	if cfg.RateLimitPerMinute > 0 && cfg.RedisAddr == "" {
		return errors.New("config: rateLimitPerMinute requires redisAddr")
	}
	if cfg.MinioEndpoint != "" && cfg.MinioBucket == "" {
		return errors.New("config: minioBucket is required when minioEndpoint is set")
	}
	return nil
}
