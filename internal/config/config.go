// Package config loads service settings from defaults, an optional YAML file and
// the environment (ESTIMATOR_ prefix, e.g. ESTIMATOR_SERVER_PORT).
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"construction_estimator/internal/domain/rates"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

const (
	EnvPrefix      = "ESTIMATOR"
	configFileName = ".estimator"

	DriverSQLite   = "sqlite"
	DriverDynamoDB = "dynamodb"
)

type Config struct {
	Server    ServerConfig       `mapstructure:"server"`
	Log       LogConfig          `mapstructure:"log"`
	Store     StoreConfig        `mapstructure:"store"`
	AI        AIConfig           `mapstructure:"ai"`
	Estimate  EstimateConfig     `mapstructure:"estimate"`
	Rates     map[string]float64 `mapstructure:"rates"`
	RatesFile string             `mapstructure:"rates_file"`
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type StoreConfig struct {
	Driver     string         `mapstructure:"driver"`
	SQLitePath string         `mapstructure:"sqlite_path"`
	DynamoDB   DynamoDBConfig `mapstructure:"dynamodb"`
}

type DynamoDBConfig struct {
	Region          string `mapstructure:"region"`
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	EstimatesTable  string `mapstructure:"estimates_table"`
	ChangesTable    string `mapstructure:"changes_table"`
}

type AIConfig struct {
	APIKey     string        `mapstructure:"api_key"`
	Model      string        `mapstructure:"model"`
	BaseURL    string        `mapstructure:"base_url"`
	MaxTokens  int64         `mapstructure:"max_tokens"`
	Timeout    time.Duration `mapstructure:"timeout"`
	MaxRetries int           `mapstructure:"max_retries"`
}

type EstimateConfig struct {
	Currency       string  `mapstructure:"currency"`
	FallbackAmount float64 `mapstructure:"fallback_amount"`
	RecentLimit    int     `mapstructure:"recent_limit"`
}

// New returns a viper instance with every key defaulted and bound to the environment.
func New() *viper.Viper {
	v := viper.New()

	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("store.driver", DriverSQLite)
	v.SetDefault("store.sqlite_path", "data/estimates.db")
	v.SetDefault("store.dynamodb.region", "us-east-1")
	v.SetDefault("store.dynamodb.endpoint", "")
	v.SetDefault("store.dynamodb.access_key_id", "")
	v.SetDefault("store.dynamodb.secret_access_key", "")
	v.SetDefault("store.dynamodb.estimates_table", "estimates")
	v.SetDefault("store.dynamodb.changes_table", "estimate_changes")
	v.SetDefault("ai.api_key", "")
	v.SetDefault("ai.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("ai.base_url", "")
	v.SetDefault("ai.max_tokens", 2048)
	v.SetDefault("ai.timeout", "60s")
	v.SetDefault("ai.max_retries", 2)
	v.SetDefault("estimate.currency", "USD")
	v.SetDefault("estimate.fallback_amount", 50000.0)
	v.SetDefault("estimate.recent_limit", 20)
	v.SetDefault("rates_file", "")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("ai.api_key", EnvPrefix+"_AI_API_KEY", "ANTHROPIC_API_KEY")
	return v
}

// Load reads cfgFile (or $HOME/.estimator.yaml when empty and present) into v and
// decodes the result. An explicitly named file must exist.
func Load(v *viper.Viper, cfgFile string) (Config, error) {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			return Config{}, fmt.Errorf("resolve home dir: %w", err)
		}
		v.AddConfigPath(home)
		v.SetConfigName(configFileName)
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.Store.Driver {
	case DriverSQLite, DriverDynamoDB:
	default:
		return fmt.Errorf("store.driver must be %q or %q, got %q", DriverSQLite, DriverDynamoDB, c.Store.Driver)
	}
	if c.Store.Driver == DriverSQLite && strings.TrimSpace(c.Store.SQLitePath) == "" {
		return errors.New("store.sqlite_path is required for the sqlite driver")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if c.AI.Timeout < 0 {
		return fmt.Errorf("ai.timeout must not be negative: %s", c.AI.Timeout)
	}
	if c.Estimate.FallbackAmount < 0 {
		return fmt.Errorf("estimate.fallback_amount must not be negative: %v", c.Estimate.FallbackAmount)
	}
	return nil
}

// RateTable builds the finish-tier rate table: rates_file wins over inline rates,
// which win over the built-in defaults.
func (c Config) RateTable() (*rates.Table, error) {
	if c.RatesFile != "" {
		path, err := homedir.Expand(c.RatesFile)
		if err != nil {
			return nil, err
		}
		return rates.LoadFile(filepath.Clean(path))
	}
	if len(c.Rates) > 0 {
		return rates.New(c.Rates)
	}
	return rates.Default(), nil
}
