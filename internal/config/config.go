// Package config loads the YAML configuration consumed by janusctl.
package config

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Store   StoreConfig   `yaml:"store"`
	Traffic TrafficConfig `yaml:"traffic"`
	Rail    RailConfig    `yaml:"rail"`
	Logging LoggingConfig `yaml:"logging"`
}

type StoreConfig struct {
	Kind   string `yaml:"kind"`
	DBPath string `yaml:"db_path"`
}

type TrafficConfig struct {
	MetadataPath string `yaml:"metadata_path"`
	Durations    []int  `yaml:"durations"`
	MaxSteps     int    `yaml:"max_steps"`
	WarmupSteps  int    `yaml:"warmup_steps"`
	AmberSeconds int    `yaml:"amber_seconds"`
	SimSeed      int64  `yaml:"sim_seed"`
}

type RailConfig struct {
	MetadataPath  string  `yaml:"metadata_path"`
	MaxEtaMs      int     `yaml:"max_eta_ms"`
	TimeStepMs    int     `yaml:"time_step_ms"`
	CloseLeadMs   int     `yaml:"close_lead_ms"`
	FailPenalty   float64 `yaml:"fail_penalty"`
	ClosePenalty  float64 `yaml:"close_penalty"`
	SuccessReward float64 `yaml:"success_reward"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Default returns the built-in configuration, matching the training
// defaults of both environments.
func Default() Config {
	return Config{
		Store: StoreConfig{Kind: "", DBPath: "janus.db"},
		Traffic: TrafficConfig{
			Durations:    []int{10, 20, 40},
			MaxSteps:     1800,
			WarmupSteps:  60,
			AmberSeconds: 4,
			SimSeed:      42,
		},
		Rail: RailConfig{
			MaxEtaMs:      60000,
			TimeStepMs:    2000,
			CloseLeadMs:   20000,
			FailPenalty:   -50.0,
			ClosePenalty:  -0.005,
			SuccessReward: 5.0,
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// Load reads a YAML config file over the defaults. An empty path returns
// the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// NewLogger builds a logrus logger honoring the configured level.
func (c Config) NewLogger() *logrus.Logger {
	log := logrus.New()
	level, err := logrus.ParseLevel(c.Logging.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	return log
}
