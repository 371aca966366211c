package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"SwingScanner/internal/strategy"
)

// Config holds all application configuration.
type Config struct {
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	DataSource struct {
		Provider    string `yaml:"provider"` // "yahoo" or "rest"
		BaseURL     string `yaml:"base_url"`
		APIKey      string `yaml:"api_key"`
		HistoryDays int    `yaml:"history_days"`
		Retries     int    `yaml:"retries"`
	} `yaml:"data_source"`
	Universe struct {
		Path         string   `yaml:"path"`
		Exclude      []string `yaml:"exclude"`
		MinPrice     float64  `yaml:"min_price"`
		MinAvgVolume float64  `yaml:"min_avg_volume"`
	} `yaml:"universe"`
	Scan struct {
		Workers          int    `yaml:"workers"`
		FetchConcurrency int    `yaml:"fetch_concurrency"`
		Benchmark        string `yaml:"benchmark"`
		Cron             string `yaml:"cron"`
		StatusFile       string `yaml:"status_file"`
	} `yaml:"scan"`
	Database struct {
		SQLitePath  string `yaml:"sqlite_path"`
		PostgresDSN string `yaml:"postgres_dsn"`
	} `yaml:"database"`
	Redis struct {
		Addr string        `yaml:"addr"`
		TTL  time.Duration `yaml:"ttl"`
	} `yaml:"redis"`
	Log struct {
		Level  string `yaml:"level"`
		Pretty bool   `yaml:"pretty"`
	} `yaml:"log"`
	Proxy    string              `yaml:"proxy"`
	Strategy strategy.Thresholds `yaml:"strategy"`
}

// Load reads config from a YAML file, then applies .env and environment variable overrides.
// Strategy thresholds start from their defaults so the file only needs the values it changes.
func Load(path string) (*Config, error) {
	cfg := &Config{Strategy: strategy.DefaultThresholds()}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() error {
	strs := map[string]*string{
		"TELEGRAM_BOT_TOKEN": &c.Telegram.BotToken,
		"TELEGRAM_CHAT_ID":   &c.Telegram.ChatID,
		"DATA_PROVIDER":      &c.DataSource.Provider,
		"DATA_BASE_URL":      &c.DataSource.BaseURL,
		"DATA_API_KEY":       &c.DataSource.APIKey,
		"HTTPS_PROXY":        &c.Proxy,
		"SQLITE_PATH":        &c.Database.SQLitePath,
		"POSTGRES_DSN":       &c.Database.PostgresDSN,
		"REDIS_ADDR":         &c.Redis.Addr,
		"SCAN_CRON":          &c.Scan.Cron,
		"UNIVERSE_PATH":      &c.Universe.Path,
		"LOG_LEVEL":          &c.Log.Level,
	}
	for key, dst := range strs {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	if v := os.Getenv("SCAN_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SCAN_WORKERS: %w", err)
		}
		c.Scan.Workers = n
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.DataSource.Provider == "" {
		c.DataSource.Provider = "yahoo"
	}
	if c.DataSource.HistoryDays == 0 {
		c.DataSource.HistoryDays = 400
	}
	if c.DataSource.Retries == 0 {
		c.DataSource.Retries = 3
	}
	if c.Universe.Path == "" {
		c.Universe.Path = "configs/universe.json"
	}
	if c.Scan.Workers == 0 {
		c.Scan.Workers = 8
	}
	if c.Scan.FetchConcurrency == 0 {
		c.Scan.FetchConcurrency = c.Scan.Workers
	}
	if c.Scan.Benchmark == "" {
		c.Scan.Benchmark = "SPY"
	}
	if c.Scan.Cron == "" {
		c.Scan.Cron = "0 30 16 * * 1-5"
	}
	if c.Scan.StatusFile == "" {
		c.Scan.StatusFile = "data/scan_status.json"
	}
	if c.Database.SQLitePath == "" {
		c.Database.SQLitePath = "data/swing_scanner.db"
	}
	if c.Redis.TTL == 0 {
		c.Redis.TTL = 6 * time.Hour
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// Validate checks the settings every command needs.
func (c *Config) Validate() error {
	switch c.DataSource.Provider {
	case "yahoo":
	case "rest":
		if c.DataSource.BaseURL == "" {
			return fmt.Errorf("data_source.base_url is required for the rest provider")
		}
	default:
		return fmt.Errorf("data_source.provider %q is not supported", c.DataSource.Provider)
	}
	if c.Scan.Workers <= 0 {
		return fmt.Errorf("scan.workers must be positive")
	}
	if c.Scan.FetchConcurrency <= 0 {
		return fmt.Errorf("scan.fetch_concurrency must be positive")
	}
	if _, err := cron.NewParser(cronFields).Parse(c.Scan.Cron); err != nil {
		return fmt.Errorf("scan.cron: %w", err)
	}
	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if err := c.Strategy.Validate(); err != nil {
		return err
	}
	return nil
}

// ValidateTelegram checks the settings the scheduler needs to report.
func (c *Config) ValidateTelegram() error {
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("telegram.bot_token is required")
	}
	if c.Telegram.ChatID == "" {
		return fmt.Errorf("telegram.chat_id is required")
	}
	return nil
}

// cronFields matches cron.WithSeconds.
const cronFields = cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor
