package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ap_business_tools/internal/api"
	"ap_business_tools/internal/config"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const shutdownTimeout = 10 * time.Second

var v = viper.New()

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "apbiz",
	Short:         "Lead, estimate and job pipeline backend for a painting business",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().Int("port", 5000, "port to listen on")
	_ = v.BindPFlag(config.KeyPort, serveCmd.Flags().Lookup("port"))

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(setupCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := setupEnvironment()
	if err != nil {
		return err
	}
	defer a.Close()

	if a.Config.Production() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := api.NewRouter(a.Leads)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.Config.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Info().
		Int("port", a.Config.Port).
		Str("spreadsheet", a.Config.SpreadsheetURL()).
		Msg("AP Business Tools server starting")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
