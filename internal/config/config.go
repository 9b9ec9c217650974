// Package config reads the service settings from the environment through
// viper. A .env file, when present, is loaded first by the caller.
package config

import (
	"errors"
	"strings"
	"time"

	"ap_business_tools/internal/notifications"
	"ap_business_tools/internal/retry"
	"ap_business_tools/internal/sheets"

	"github.com/spf13/viper"
)

const (
	KeyPort                 = "PORT"
	KeyEnv                  = "ENV"
	KeyLogLevel             = "LOGLEVEL"
	KeySpreadsheetID        = "SPREADSHEET_ID"
	KeyCredentials          = "GOOGLE_CREDENTIALS"
	KeyCredentialsFile      = "GOOGLE_CREDENTIALS_FILE"
	KeySheetsEndpoint       = "SHEETS_ENDPOINT"
	KeySheetsStrictSchema   = "SHEETS_STRICT_SCHEMA"
	KeySheetsMaxRetries     = "SHEETS_MAX_RETRIES"
	KeySheetsRetryBaseDelay = "SHEETS_RETRY_BASE_DELAY"
	KeySheetsRetryMaxDelay  = "SHEETS_RETRY_MAX_DELAY"
	KeySheetsTimeout        = "SHEETS_TIMEOUT"
	KeyNtfyEnabled          = "NTFY_ENABLED"
	KeyNtfyURL              = "NTFY_URL"
	KeyNtfyTopic            = "NTFY_TOPIC"
	KeyNtfyPriority         = "NTFY_PRIORITY"
)

// ErrMissingSpreadsheetID is returned when SPREADSHEET_ID is unset.
var ErrMissingSpreadsheetID = errors.New("SPREADSHEET_ID environment variable is required")

type Config struct {
	Port          int
	Env           string
	LogLevel      string
	Sheets        sheets.Config
	Notifications notifications.Config
}

// Production reports whether ENV=production.
func (c Config) Production() bool {
	return strings.EqualFold(c.Env, "production")
}

// SpreadsheetURL is the browser link to the configured spreadsheet.
func (c Config) SpreadsheetURL() string {
	return "https://docs.google.com/spreadsheets/d/" + c.Sheets.SpreadsheetID
}

// SetDefaults registers the default of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyPort, 5000)
	v.SetDefault(KeyEnv, "development")
	v.SetDefault(KeyLogLevel, "")
	v.SetDefault(KeySpreadsheetID, "")
	v.SetDefault(KeyCredentials, "")
	v.SetDefault(KeyCredentialsFile, "credentials.json")
	v.SetDefault(KeySheetsEndpoint, "")
	v.SetDefault(KeySheetsStrictSchema, false)
	v.SetDefault(KeySheetsMaxRetries, 0)
	v.SetDefault(KeySheetsRetryBaseDelay, time.Second)
	v.SetDefault(KeySheetsRetryMaxDelay, 10*time.Second)
	v.SetDefault(KeySheetsTimeout, time.Duration(0))
	v.SetDefault(KeyNtfyEnabled, false)
	v.SetDefault(KeyNtfyURL, "https://ntfy.sh")
	v.SetDefault(KeyNtfyTopic, "ap-business-leads")
	v.SetDefault(KeyNtfyPriority, "")
}

// NotificationRetry is the backoff used for ntfy pushes.
var NotificationRetry = retry.Config{
	MaxRetries: 3,
	BaseDelay:  1 * time.Second,
	MaxDelay:   10 * time.Second,
	Timeout:    10 * time.Second,
}

// Load reads every key from v, falling back to the environment and then the
// defaults.
func Load(v *viper.Viper) (*Config, error) {
	SetDefaults(v)
	v.AutomaticEnv()

	cfg := &Config{
		Port:     v.GetInt(KeyPort),
		Env:      v.GetString(KeyEnv),
		LogLevel: strings.ToLower(v.GetString(KeyLogLevel)),
		Sheets: sheets.Config{
			SpreadsheetID:   strings.TrimSpace(v.GetString(KeySpreadsheetID)),
			CredentialsJSON: v.GetString(KeyCredentials),
			CredentialsFile: v.GetString(KeyCredentialsFile),
			Endpoint:        v.GetString(KeySheetsEndpoint),
			StrictSchema:    v.GetBool(KeySheetsStrictSchema),
			Retry: retry.Config{
				MaxRetries: v.GetInt(KeySheetsMaxRetries),
				BaseDelay:  v.GetDuration(KeySheetsRetryBaseDelay),
				MaxDelay:   v.GetDuration(KeySheetsRetryMaxDelay),
				Timeout:    v.GetDuration(KeySheetsTimeout),
			},
		},
		Notifications: notifications.Config{
			Enabled:  v.GetBool(KeyNtfyEnabled),
			BaseURL:  strings.TrimRight(v.GetString(KeyNtfyURL), "/"),
			Topic:    v.GetString(KeyNtfyTopic),
			Priority: v.GetString(KeyNtfyPriority),
			Retry:    NotificationRetry,
		},
	}

	if cfg.Sheets.SpreadsheetID == "" {
		return cfg, ErrMissingSpreadsheetID
	}
	if cfg.Sheets.Retry.MaxRetries < 0 {
		return cfg, errors.New("SHEETS_MAX_RETRIES must not be negative")
	}
	return cfg, nil
}
