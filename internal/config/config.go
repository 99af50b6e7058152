package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config application configuration
type Config struct {
	// IMAP
	IMAPHost        string        `env:"IMAP_HOST" envDefault:"imap.gmail.com"`
	IMAPPort        int           `env:"IMAP_PORT" envDefault:"993"`
	IMAPUser        string        `env:"IMAP_USER,required"`
	IMAPPassword    string        `env:"IMAP_PASSWORD,required"`
	IMAPMailbox     string        `env:"IMAP_MAILBOX" envDefault:"INBOX"`
	IMAPDialTimeout time.Duration `env:"IMAP_DIAL_TIMEOUT" envDefault:"10s"`

	// Sync
	SubjectFilter     string        `env:"SUBJECT_FILTER" envDefault:"クリーニング見積もり"`
	SyncInterval      time.Duration `env:"SYNC_INTERVAL" envDefault:"15m"`
	SyncLimit         int           `env:"SYNC_LIMIT" envDefault:"50"`
	ManualSyncLimit   int           `env:"MANUAL_SYNC_LIMIT" envDefault:"10"`
	InitialWindowDays int           `env:"INITIAL_WINDOW_DAYS" envDefault:"30"`

	// Database
	DatabasePath string `env:"DATABASE_PATH" envDefault:"./data/emails.db"`

	// Web
	ListenAddr   string        `env:"LISTEN_ADDR" envDefault:":8080"`
	UploadDir    string        `env:"UPLOAD_DIR" envDefault:"./uploads"`
	ProxyTimeout time.Duration `env:"PROXY_TIMEOUT" envDefault:"10s"`

	// Telegram notifications (optional)
	TelegramToken  string `env:"TELEGRAM_BOT_TOKEN"`
	TelegramChatID int64  `env:"TELEGRAM_CHAT_ID"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"` // "json" or "text"
}

// IMAPAddr returns the host:port address of the IMAP server
func (c *Config) IMAPAddr() string {
	return fmt.Sprintf("%s:%d", c.IMAPHost, c.IMAPPort)
}

// TelegramEnabled returns true if Telegram notifications are configured
func (c *Config) TelegramEnabled() bool {
	return c.TelegramToken != "" && c.TelegramChatID != 0
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if cfg.SyncLimit <= 0 {
		return nil, fmt.Errorf("SYNC_LIMIT must be positive, got %d", cfg.SyncLimit)
	}
	if cfg.InitialWindowDays <= 0 {
		return nil, fmt.Errorf("INITIAL_WINDOW_DAYS must be positive, got %d", cfg.InitialWindowDays)
	}

	return cfg, nil
}
