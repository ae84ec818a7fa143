package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP Server
	Port string

	// Ledger storage
	LedgerBackend string // "csv" or "sqlite"
	DataDir       string
	SQLiteDBPath  string

	// AMQP (optional; empty URL disables transaction events)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets mirror (sync-worker)
	GoogleSpreadsheetID string
	GoogleSheetName     string

	// Subscription worker
	SubscriptionInterval time.Duration

	// Category taxonomy (optional YAML file)
	TaxonomyFile string
}

func Load() *Config {
	return &Config{
		Port: getEnv("PORT", "8080"),

		LedgerBackend: getEnv("LEDGER_BACKEND", "csv"),
		DataDir:       getEnv("DATA_DIR", "./data"),
		SQLiteDBPath:  getEnv("SQLITE_DB_PATH", "./data/fintrack.db"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "fintrack"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "transaction_events"),

		GoogleSpreadsheetID: getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:     getEnv("GOOGLE_SHEET_NAME", "Transactions"),

		SubscriptionInterval: getEnvDuration("SUBSCRIPTION_INTERVAL", time.Hour),

		TaxonomyFile: getEnv("TAXONOMY_FILE", ""),
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errs []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errs = append(errs, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	switch c.LedgerBackend {
	case "csv":
		if c.DataDir == "" {
			errs = append(errs, "data directory cannot be empty when using csv backend")
		}
	case "sqlite":
		if c.SQLiteDBPath == "" {
			errs = append(errs, "SQLite database path cannot be empty when using sqlite backend")
		} else if dir := filepath.Dir(c.SQLiteDBPath); dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errs = append(errs, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	default:
		errs = append(errs, fmt.Sprintf("invalid ledger backend '%s': must be one of [csv sqlite]", c.LedgerBackend))
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errs = append(errs, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errs = append(errs, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.SubscriptionInterval < time.Second {
		errs = append(errs, fmt.Sprintf("invalid subscription interval %v: must be at least 1 second", c.SubscriptionInterval))
	} else if c.SubscriptionInterval > 24*time.Hour {
		errs = append(errs, fmt.Sprintf("invalid subscription interval %v: must be at most 24 hours", c.SubscriptionInterval))
	}

	if c.TaxonomyFile != "" {
		if _, err := os.Stat(c.TaxonomyFile); os.IsNotExist(err) {
			errs = append(errs, fmt.Sprintf("taxonomy file does not exist: %s", c.TaxonomyFile))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
	}

	return nil
}

// ValidateMirror checks the extra settings the sync-worker needs.
func (c *Config) ValidateMirror() error {
	var errs []string

	if c.AMQPURL == "" {
		errs = append(errs, "AMQP URL is required for the sync-worker")
	}
	if c.GoogleSpreadsheetID == "" {
		errs = append(errs, "Google Spreadsheet ID is required for the sync-worker")
	}
	if c.GoogleSheetName == "" {
		errs = append(errs, "Google sheet name cannot be empty")
	}

	if len(errs) > 0 {
		return fmt.Errorf("mirror configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
