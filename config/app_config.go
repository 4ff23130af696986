package config

import (
	"os"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// This is the global app config for the miner and wallet.
type AppConfig struct {
	// How many leading 0s to form a valid hash.
	Difficulty int `yaml:"difficulty"`
	// The default coinbase reward.
	CoinbaseReward int64 `yaml:"coinbase_reward"`
	// Where coinbase rewards are paid. No coinbase is added when empty.
	RewardAddress string `yaml:"reward_address"`
	// Number of goroutines searching the nonce space.
	Workers int `yaml:"workers"`
	// Path of the WIF private key file.
	KeyPath string `yaml:"key_path"`
	Logger  Logger `yaml:"logger"`
}

type Logger struct {
	// "production" or "development"
	Environment string `yaml:"environment"`
	// "debug", "info", "warn" or "error"
	Level string `yaml:"level"`
}

func DefaultAppConfig() AppConfig {
	return AppConfig{
		Difficulty:     4,
		CoinbaseReward: 50,
		Workers:        1,
		KeyPath:        "/tmp/misochain.key",
		Logger: Logger{
			Environment: "production",
			Level:       "info",
		},
	}
}

// LoadAppConfig reads a YAML config on top of DefaultAppConfig.
func LoadAppConfig(path string) (AppConfig, error) {
	c := DefaultAppConfig()
	yamlFile, err := os.ReadFile(path)
	if err != nil {
		return AppConfig{}, errors.Wrapf(err, "read config %s", path)
	}
	if err := yaml.Unmarshal(yamlFile, &c); err != nil {
		return AppConfig{}, errors.Wrapf(err, "unmarshal config %s", path)
	}
	if err := c.Validate(); err != nil {
		return AppConfig{}, err
	}
	return c, nil
}

func (c AppConfig) Validate() error {
	if c.Difficulty < 0 {
		return errors.Errorf("difficulty must not be negative, got %d", c.Difficulty)
	}
	if c.CoinbaseReward < 0 {
		return errors.Errorf("coinbase_reward must not be negative, got %d", c.CoinbaseReward)
	}
	if c.Workers < 1 {
		return errors.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	switch strings.ToLower(c.Logger.Environment) {
	case "production", "development":
	default:
		return errors.Errorf("invalid logger environment %q", c.Logger.Environment)
	}
	switch strings.ToLower(c.Logger.Level) {
	case "debug", "info", "warn", "error":
	default:
		return errors.Errorf("invalid logger level %q", c.Logger.Level)
	}
	return nil
}
