package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/multierr"
)

// Journal drivers accepted by JOURNAL_DRIVER
const (
	JournalNone   = "none"
	JournalMongo  = "mongo"
	JournalSQLite = "sqlite"
)

type Config struct {
	NodeEnv string
	Port    string

	LogLevel string
	LogFile  string

	TelegramBotToken string
	TelegramChatID   int64
	TelegramCommands bool

	JournalDriver string
	MongoURI      string
	MongoDatabase string
	SQLitePath    string

	DailyCron    string
	WeeklyCron   string
	CronTimezone *time.Location

	NotifyWorkers   int
	NotifyQueue     int
	ClosedRetention int

	ProfilesFile string
}

// IsDevelopment reports whether NODE_ENV is development
func (c *Config) IsDevelopment() bool {
	return c.NodeEnv == "development"
}

// TelegramEnabled reports whether both bot token and chat id are set
func (c *Config) TelegramEnabled() bool {
	return c.TelegramBotToken != "" && c.TelegramChatID != 0
}

// Load reads environment variables, after an optional .env file, and
// validates them. Every problem found is reported in the returned error.
func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("reading .env: %w", err)
	}

	var errs error
	cfg := &Config{
		NodeEnv:          getEnv("NODE_ENV", "development"),
		Port:             getEnv("PORT", "8080"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		LogFile:          getEnv("LOG_FILE", ""),
		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		JournalDriver:    strings.ToLower(getEnv("JOURNAL_DRIVER", JournalNone)),
		MongoURI:         getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase:    getEnv("MONGO_DATABASE", "iccrelay"),
		SQLitePath:       getEnv("SQLITE_PATH", "data/journal.db"),
		DailyCron:        getEnv("DAILY_CRON", "59 23 * * *"),
		WeeklyCron:       getEnv("WEEKLY_CRON", "59 23 * * 0"),
		ProfilesFile:     getEnv("PROFILES_FILE", ""),
	}

	var err error
	if cfg.TelegramChatID, err = getEnvAsInt64("TELEGRAM_CHAT_ID", 0); err != nil {
		errs = multierr.Append(errs, err)
	}
	if cfg.TelegramCommands, err = getEnvAsBool("TELEGRAM_COMMANDS", true); err != nil {
		errs = multierr.Append(errs, err)
	}
	if cfg.NotifyWorkers, err = getEnvAsInt("NOTIFY_WORKERS", 2); err != nil {
		errs = multierr.Append(errs, err)
	}
	if cfg.NotifyQueue, err = getEnvAsInt("NOTIFY_QUEUE", 100); err != nil {
		errs = multierr.Append(errs, err)
	}
	if cfg.ClosedRetention, err = getEnvAsInt("CLOSED_RETENTION", 1000); err != nil {
		errs = multierr.Append(errs, err)
	}

	tz := getEnv("CRON_TIMEZONE", "UTC")
	if cfg.CronTimezone, err = time.LoadLocation(tz); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("CRON_TIMEZONE %q: %w", tz, err))
	}

	errs = multierr.Append(errs, cfg.validate())
	if errs != nil {
		return nil, errs
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var errs error

	if _, err := strconv.Atoi(c.Port); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("PORT must be numeric, got %q", c.Port))
	}

	switch c.JournalDriver {
	case JournalNone:
	case JournalMongo:
		if c.MongoURI == "" {
			errs = multierr.Append(errs, errors.New("MONGO_URI is required when JOURNAL_DRIVER=mongo"))
		}
	case JournalSQLite:
		if c.SQLitePath == "" {
			errs = multierr.Append(errs, errors.New("SQLITE_PATH is required when JOURNAL_DRIVER=sqlite"))
		}
	default:
		errs = multierr.Append(errs, fmt.Errorf("JOURNAL_DRIVER must be none, mongo or sqlite, got %q", c.JournalDriver))
	}

	if (c.TelegramBotToken == "") != (c.TelegramChatID == 0) {
		errs = multierr.Append(errs, errors.New("TELEGRAM_BOT_TOKEN and TELEGRAM_CHAT_ID must be set together"))
	}
	if c.NotifyWorkers < 1 {
		errs = multierr.Append(errs, fmt.Errorf("NOTIFY_WORKERS must be positive, got %d", c.NotifyWorkers))
	}
	if c.NotifyQueue < 1 {
		errs = multierr.Append(errs, fmt.Errorf("NOTIFY_QUEUE must be positive, got %d", c.NotifyQueue))
	}
	if c.ClosedRetention < 1 {
		errs = multierr.Append(errs, fmt.Errorf("CLOSED_RETENTION must be positive, got %d", c.ClosedRetention))
	}
	return errs
}

func getEnv(key, defaultValue string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) (int, error) {
	value := getEnv(key, "")
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue, fmt.Errorf("%s must be an integer, got %q", key, value)
	}
	return n, nil
}

func getEnvAsInt64(key string, defaultValue int64) (int64, error) {
	value := getEnv(key, "")
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return defaultValue, fmt.Errorf("%s must be an integer, got %q", key, value)
	}
	return n, nil
}

func getEnvAsBool(key string, defaultValue bool) (bool, error) {
	value := getEnv(key, "")
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue, fmt.Errorf("%s must be a boolean, got %q", key, value)
	}
	return b, nil
}
