package app

import (
	"os"
	"time"

	"ap_business_tools/internal/config"
	"ap_business_tools/internal/leads"
	"ap_business_tools/internal/notifications"
	"ap_business_tools/internal/sheets"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LoadDotEnv loads .env if it exists. The result is reported by
// SetupLogging once the logger is configured.
func LoadDotEnv() error {
	return godotenv.Load()
}

// SetupLogging configures zerolog output and log level.
func SetupLogging(cfg *config.Config, dotEnvErr error) {
	if cfg.Production() {
		zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
		log.Logger = log.Output(os.Stderr)
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	switch cfg.LogLevel {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn", "warning":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	case "fatal":
		zerolog.SetGlobalLevel(zerolog.FatalLevel)
	case "panic":
		zerolog.SetGlobalLevel(zerolog.PanicLevel)
	case "disabled":
		zerolog.SetGlobalLevel(zerolog.Disabled)
	case "":
		// Default based on environment
		if cfg.Production() {
			zerolog.SetGlobalLevel(zerolog.WarnLevel)
		} else {
			zerolog.SetGlobalLevel(zerolog.InfoLevel)
		}
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
		log.Warn().Msgf("Unknown LOGLEVEL '%s', defaulting to info.", cfg.LogLevel)
	}

	// wait until now to report on the .env file so we have the chance to set up logging first
	if dotEnvErr == nil {
		log.Debug().Msg("Loaded environment variables from .env file.")
	} else {
		log.Debug().Msg("No .env file found or error loading .env file; proceeding with existing environment variables.")
	}
}

// App is the wired service graph shared by the serve and setup commands.
type App struct {
	Config   *config.Config
	Gateway  *sheets.Gateway
	Notifier *notifications.Client
	Leads    *leads.Service
}

// New builds the gateway, notifier and lead service from cfg.
func New(cfg *config.Config) *App {
	log.Debug().Msg("Initializing clients")

	gateway := sheets.NewGateway(cfg.Sheets)
	notifier := InitializeNotificationClient(cfg.Notifications)

	log.Debug().Msg("Clients initialized successfully")
	return &App{
		Config:   cfg,
		Gateway:  gateway,
		Notifier: notifier,
		Leads:    leads.NewService(gateway, leads.WithNotifier(notifier)),
	}
}

// InitializeNotificationClient creates and returns the notification client
func InitializeNotificationClient(cfg notifications.Config) *notifications.Client {
	log.Debug().
		Bool("enabled", cfg.Enabled).
		Str("base_url", cfg.BaseURL).
		Str("topic", cfg.Topic).
		Msg("Initializing notification client")

	client := notifications.NewClient(cfg)

	if cfg.Enabled {
		log.Info().Str("topic", cfg.Topic).Msg("Notifications enabled")
	} else {
		log.Debug().Msg("Notifications disabled")
	}

	return client
}

// Close waits for notifications still in flight.
func (a *App) Close() {
	a.Notifier.Wait()
	sent, failed := a.Notifier.GetMetrics()
	log.Debug().Int64("sent", sent).Int64("failed", failed).Msg("Notification client drained")
}
