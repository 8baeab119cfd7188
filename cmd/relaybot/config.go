package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/liushuangls/go-anthropic/v2"
)

const (
	defaultMemorySize   = 10
	defaultMaxTokens    = 1000
	defaultDatabasePath = "relaybot.db"
)

// BotConfig holds the relay settings that are not secrets. The bot token
// and the Anthropic key come from the environment.
type BotConfig struct {
	ID           string          `json:"id"`
	MemorySize   int             `json:"memory_size"`
	Model        anthropic.Model `json:"model"`
	MaxTokens    int             `json:"max_tokens"`
	SystemPrompt string          `json:"system_prompt"`
	DatabasePath string          `json:"database_path"`
}

func loadConfig(filename string) (BotConfig, error) {
	var config BotConfig
	file, err := os.Open(filename)
	if err != nil {
		return config, fmt.Errorf("failed to open config file %s: %w", filename, err)
	}
	defer file.Close()

	decoder := json.NewDecoder(file)
	if err := decoder.Decode(&config); err != nil {
		return config, fmt.Errorf("failed to decode JSON from %s: %w", filename, err)
	}

	if err := validateConfig(&config); err != nil {
		return config, fmt.Errorf("invalid config %s: %w", filename, err)
	}
	return config, nil
}

// validateConfig checks required fields and fills defaults.
func validateConfig(config *BotConfig) error {
	if config.ID == "" {
		return fmt.Errorf("missing 'id' field")
	}
	if config.Model == "" {
		return fmt.Errorf("missing 'model' field")
	}
	if config.MemorySize < 0 {
		return fmt.Errorf("'memory_size' must not be negative")
	}
	if config.MemorySize == 0 {
		config.MemorySize = defaultMemorySize
	}
	if config.MaxTokens <= 0 {
		config.MaxTokens = defaultMaxTokens
	}
	if config.DatabasePath == "" {
		config.DatabasePath = defaultDatabasePath
	}
	return nil
}
