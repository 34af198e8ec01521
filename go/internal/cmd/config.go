package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mcdev12/snakedraft/go/internal/draft/orchestrator"
)

type Config struct {
	Server struct {
		Port            string `yaml:"port"`
		CommissionerKey string `yaml:"commissioner_key"`
	} `yaml:"server"`
	Players struct {
		Path string `yaml:"path"`
	} `yaml:"players"`
	Orchestrator struct {
		Workers      int           `yaml:"workers"`
		BotPickDelay time.Duration `yaml:"bot_pick_delay"`
		ClaimedGrace time.Duration `yaml:"claimed_grace"`
		RetryDelay   time.Duration `yaml:"retry_delay"`
	} `yaml:"orchestrator"`
}

func defaultConfig() *Config {
	var c Config
	c.Server.Port = "8080"
	c.Players.Path = "data/players.yaml"
	oc := orchestrator.DefaultConfig()
	c.Orchestrator.Workers = oc.Workers
	c.Orchestrator.BotPickDelay = oc.BotPickDelay
	c.Orchestrator.ClaimedGrace = oc.ClaimedGrace
	c.Orchestrator.RetryDelay = oc.RetryDelay
	return &c
}

func (c *Config) orchestratorConfig() orchestrator.Config {
	return orchestrator.Config{
		Workers:      c.Orchestrator.Workers,
		BotPickDelay: c.Orchestrator.BotPickDelay,
		ClaimedGrace: c.Orchestrator.ClaimedGrace,
		RetryDelay:   c.Orchestrator.RetryDelay,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// loadConfig reads the YAML file at path over the defaults, then applies
// environment overrides. An empty path skips the file.
func loadConfig(path string) (*Config, error) {
	config := defaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	config.Server.Port = getEnv("PORT", config.Server.Port)
	config.Server.CommissionerKey = getEnv("COMMISSIONER_KEY", config.Server.CommissionerKey)
	config.Players.Path = getEnv("PLAYERS_PATH", config.Players.Path)
	config.Orchestrator.Workers = getEnvAsInt("ORCHESTRATOR_WORKERS", config.Orchestrator.Workers)
	return config, nil
}
