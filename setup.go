package main

import (
	"fmt"

	"ap_business_tools/internal/app"
	"ap_business_tools/internal/config"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Create any missing tabs with their headers",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setupEnvironment()
		if err != nil {
			return err
		}
		defer a.Close()

		tabs, err := a.Leads.Setup(cmd.Context())
		if err != nil {
			return fmt.Errorf("setup tabs: %w", err)
		}
		for _, tab := range tabs {
			fmt.Fprintln(cmd.OutOrStdout(), tab)
		}
		return nil
	},
}

// setupEnvironment loads .env, reads the configuration, configures zerolog
// and wires the service graph.
func setupEnvironment() (*app.App, error) {
	dotEnvErr := app.LoadDotEnv()

	cfg, err := config.Load(v)
	app.SetupLogging(cfg, dotEnvErr)
	if err != nil {
		return nil, err
	}

	log.Debug().
		Str("spreadsheet_id", cfg.Sheets.SpreadsheetID).
		Bool("strict_schema", cfg.Sheets.StrictSchema).
		Int("max_retries", cfg.Sheets.Retry.MaxRetries).
		Msg("Configuration loaded")
	return app.New(cfg), nil
}
