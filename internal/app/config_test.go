package app

import (
	"errors"
	"testing"

	"ap_business_tools/internal/config"
	"ap_business_tools/internal/sheets"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupLoggingLevels(t *testing.T) {
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	tests := []struct {
		env, level string
		want       zerolog.Level
	}{
		{"development", "", zerolog.InfoLevel},
		{"production", "", zerolog.WarnLevel},
		{"development", "debug", zerolog.DebugLevel},
		{"production", "warning", zerolog.WarnLevel},
		{"development", "disabled", zerolog.Disabled},
		{"development", "loud", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.env+"/"+tt.level, func(t *testing.T) {
			SetupLogging(&config.Config{Env: tt.env, LogLevel: tt.level}, errors.New("no .env"))
			assert.Equal(t, tt.want, zerolog.GlobalLevel())
		})
	}
}

func TestNewWiresServices(t *testing.T) {
	cfg := &config.Config{Sheets: sheets.Config{SpreadsheetID: "abc"}}

	a := New(cfg)
	require.NotNil(t, a.Leads)
	assert.Equal(t, "abc", a.Gateway.SpreadsheetID())

	a.Close()
	sent, failed := a.Notifier.GetMetrics()
	assert.Zero(t, sent)
	assert.Zero(t, failed)
}
