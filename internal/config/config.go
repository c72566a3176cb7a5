package config

import (
	"fmt"
	"net/url"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP Server
	Port string

	// Logging
	LogLevel  string
	LogFormat string

	// Backend selection
	DataBackend string
	DataDir     string

	// SQLite
	SQLiteDBPath string

	// Google Sheets
	GoogleSpreadsheetID      string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string
	AccountsSheetName        string
	BudgetSheetName          string
	TransactionsSheetName    string

	// Azure Table Storage
	AzureTableServiceURL string
	AzureTableName       string

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Worker
	MirrorInterval time.Duration
}

var validBackends = []string{"memory", "sheets", "sqlite", "aztables"}

func Load() *Config {
	cfg := &Config{
		Port: getEnv("PORT", "8081"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),

		DataBackend: getEnv("DATA_BACKEND", "memory"),
		DataDir:     getEnv("DATA_DIR", "data"),

		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/budget.db"),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", getEnv("GOOGLE_APPLICATION_CREDENTIALS", "")),
		AccountsSheetName:        getEnv("ACCOUNTS_SHEET_NAME", "Accounts"),
		BudgetSheetName:          getEnv("BUDGET_SHEET_NAME", "Budget"),
		TransactionsSheetName:    getEnv("TRANSACTIONS_SHEET_NAME", "Transactions"),

		AzureTableServiceURL: getEnv("AZURE_TABLE_SERVICE_URL", ""),
		AzureTableName:       getEnv("AZURE_TABLE_NAME", "ledgerrows"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "budget"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "ledger_saved"),

		MirrorInterval: getEnvDuration("MIRROR_INTERVAL", 5*time.Minute),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if !slices.Contains(validBackends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	if c.LogFormat != "text" && c.LogFormat != "json" {
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be 'text' or 'json'", c.LogFormat))
	}

	if c.DataBackend == "sqlite" && c.SQLiteDBPath == "" {
		errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
	}

	if c.DataBackend == "sheets" {
		errors = append(errors, c.sheetsProblems()...)
	}

	if c.DataBackend == "aztables" {
		if c.AzureTableServiceURL == "" {
			errors = append(errors, "Azure table service URL is required when using aztables")
		} else if u, err := url.Parse(c.AzureTableServiceURL); err != nil || u.Host == "" {
			errors = append(errors, fmt.Sprintf("invalid Azure table service URL '%s'", c.AzureTableServiceURL))
		}
		if !validAzureTableName(c.AzureTableName) {
			errors = append(errors, fmt.Sprintf("invalid Azure table name '%s': must be 3-63 letters or digits, starting with a letter", c.AzureTableName))
		}
	}

	names := map[string]bool{}
	for _, n := range []string{c.AccountsSheetName, c.BudgetSheetName, c.TransactionsSheetName} {
		if strings.TrimSpace(n) == "" {
			errors = append(errors, "sheet names cannot be empty")
			break
		}
		if names[n] {
			errors = append(errors, fmt.Sprintf("sheet name '%s' is used for more than one table", n))
		}
		names[n] = true
	}

	// Validate AMQP URL if provided
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.MirrorInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid mirror interval %v: must be at least 1 second", c.MirrorInterval))
	} else if c.MirrorInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid mirror interval %v: must be at most 24 hours", c.MirrorInterval))
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// ValidateMirror checks the settings the mirror worker needs on top of
// Validate: a sqlite source, a spreadsheet target and a queue.
func (c *Config) ValidateMirror() error {
	var errors []string
	if c.DataBackend != "sqlite" {
		errors = append(errors, fmt.Sprintf("mirror worker requires the sqlite backend, got '%s'", c.DataBackend))
	}
	if c.AMQPURL == "" {
		errors = append(errors, "AMQP URL is required for the mirror worker")
	}
	errors = append(errors, c.sheetsProblems()...)
	if len(errors) > 0 {
		return fmt.Errorf("mirror configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

func (c *Config) sheetsProblems() []string {
	var problems []string
	if c.GoogleSpreadsheetID == "" {
		problems = append(problems, "Google Spreadsheet ID is required when using sheets")
	}
	hasJSON := c.GoogleServiceAccountJSON != ""
	hasFile := c.GoogleServiceAccountFile != ""
	if !hasJSON && !hasFile {
		problems = append(problems, "either GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE must be provided when using sheets")
	}
	if !hasJSON && hasFile {
		if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
			problems = append(problems, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
		}
	}
	return problems
}

func validAzureTableName(name string) bool {
	if len(name) < 3 || len(name) > 63 {
		return false
	}
	for i, r := range name {
		letter := r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z'
		if !letter && (i == 0 || r < '0' || r > '9') {
			return false
		}
	}
	return true
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
