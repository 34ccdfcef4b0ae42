package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config is the application configuration of the publisher binary. The
// publisher section is only the programmatic option source; the MQTT_*
// environment variables are merged on top of it by Resolve.
type Config struct {
	Env       string       `yaml:"env" env:"ENV" env-default:"prod"`
	DryRun    bool         `yaml:"dry_run" env:"DRY_RUN"`
	Log       LogConfig    `yaml:"log"`
	Health    HealthConfig `yaml:"health"`
	Broker    BrokerConfig `yaml:"broker"`
	Source    SourceConfig `yaml:"source"`
	Publisher *Source      `yaml:"publisher"`
}

type LogConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}

type HealthConfig struct {
	Enabled bool   `yaml:"enabled" env:"HEALTH_ENABLED" env-default:"true"`
	Address string `yaml:"address" env:"HEALTH_ADDRESS" env-default:":8080"`
}

// BrokerConfig tunes the MQTT client. With ConnectRetry the client keeps
// retrying the initial connect every ConnectRetryInterval instead of failing.
type BrokerConfig struct {
	ConnectRetry         bool          `yaml:"connect_retry" env:"MQTT_CONNECT_RETRY" env-default:"false"`
	ConnectRetryInterval time.Duration `yaml:"connect_retry_interval" env:"MQTT_CONNECT_RETRY_INTERVAL" env-default:"30s"`
}

// SourceConfig selects and configures the KPI source adapter.
type SourceConfig struct {
	Adapter string            `yaml:"adapter" env:"SOURCE_ADAPTER" env-default:"static"`
	URL     string            `yaml:"url" env:"SOURCE_URL"`
	Timeout time.Duration     `yaml:"timeout" env-default:"5s"`
	Fields  []FieldConfig     `yaml:"fields"`
	Static  []StaticKpiConfig `yaml:"static"`
}

type FieldConfig struct {
	Source string `yaml:"source"`
	Target string `yaml:"target"`
	Unit   string `yaml:"unit"`
}

type StaticKpiConfig struct {
	Name  string  `yaml:"name"`
	Unit  string  `yaml:"unit"`
	Value float64 `yaml:"value"`
}

// Load reads the config file at configPath, falling back to CONFIG_PATH. The
// file is optional: without one, defaults and environment overrides are used.
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = os.Getenv("CONFIG_PATH")
	}

	var cfg Config

	if configPath == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to read config from environment: %w", err)
		}
		return &cfg, nil
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", configPath)
	}

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	return &cfg, nil
}

func MustLoad(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		panic(err.Error())
	}
	return cfg
}
