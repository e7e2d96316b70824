// Package config handles application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds the application configuration.
type Config struct {
	TelegramAPIID    int
	TelegramAPIHash  string
	SessionFile      string
	NotionToken      string
	NotionDatabaseID string
	LogLevel         string
}

// Load reads configuration from environment variables. Telegram credentials
// are always required; Notion credentials are validated only when the
// Notion target is requested (see HasNotion).
func Load() (*Config, error) {
	rawID := os.Getenv("TELEGRAM_API_ID")
	if rawID == "" {
		return nil, fmt.Errorf("TELEGRAM_API_ID is required")
	}
	apiID, err := strconv.Atoi(rawID)
	if err != nil {
		return nil, fmt.Errorf("invalid TELEGRAM_API_ID %q: %w", rawID, err)
	}

	apiHash := os.Getenv("TELEGRAM_API_HASH")
	if apiHash == "" {
		return nil, fmt.Errorf("TELEGRAM_API_HASH is required")
	}

	session := os.Getenv("TELEGRAM_SESSION_FILE")
	if session == "" {
		session = "./session.json"
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}

	return &Config{
		TelegramAPIID:    apiID,
		TelegramAPIHash:  apiHash,
		SessionFile:      session,
		NotionToken:      os.Getenv("NOTION_TOKEN"),
		NotionDatabaseID: os.Getenv("NOTION_DATABASE_ID"),
		LogLevel:         logLevel,
	}, nil
}

// HasNotion reports whether Notion credentials are configured.
func (c *Config) HasNotion() bool {
	return c.NotionToken != "" && c.NotionDatabaseID != ""
}
