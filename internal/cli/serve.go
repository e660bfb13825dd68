package cli

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/AI2HU/askdb/internal/api"
	"github.com/AI2HU/askdb/internal/logger"
	"github.com/AI2HU/askdb/internal/scheduler"
)

var (
	serveHost  string
	servePort  string
	corsOrigin string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the askdb HTTP server",
	Long: `Start the askdb HTTP server. It serves the front end at / and the JSON API
under /api/v0, and evicts old questions from the cache on a schedule.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&serveHost, "host", "H", "", "host to bind the server to (overrides config)")
	serveCmd.Flags().StringVarP(&servePort, "port", "p", "", "port to run the server on (overrides config)")
	serveCmd.Flags().StringVarP(&corsOrigin, "cors-origin", "c", "", "CORS origin to allow, '*' for all (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	if serveHost != "" {
		cfg.Server.Host = serveHost
	}
	if servePort != "" {
		cfg.Server.Port = servePort
	}
	if corsOrigin != "" {
		cfg.Server.CORSOrigin = corsOrigin
	}

	ctx := context.Background()
	a, err := newApp(ctx, cfg, true)
	if err != nil {
		logger.Error("Startup failed: %v", err)
		return err
	}
	defer a.close(ctx)

	sweeper := scheduler.New(a.cache, cfg.Cache.TTL, cfg.Cache.SweepCron)
	if err := sweeper.Start(ctx); err != nil {
		return fmt.Errorf("failed to start cache sweeper: %w", err)
	}
	defer sweeper.Stop()

	server := api.NewServer(a.questions, a.training, cfg.Server)
	address := net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)

	fmt.Println(FormatHeader("askdb server"))
	fmt.Println(FormatLabelValue("URL:", fmt.Sprintf("http://%s", address)))
	fmt.Println(FormatLabelValue("API:", fmt.Sprintf("http://%s/api/v0", address)))
	fmt.Println(FormatLabelValue("Docs:", fmt.Sprintf("http://%s/apidocs/openapi.json", address)))
	fmt.Println(FormatLabelValue("CORS origin:", cfg.Server.CORSOrigin))
	if cfg.Server.APIKey != "" {
		fmt.Println(FormatLabelValue("API key:", maskSensitiveData(cfg.Server.APIKey, "*")))
	}
	fmt.Println(FormatDim("Press Ctrl+C to stop the server"))
	fmt.Println()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Run(address)
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sig)

	select {
	case err := <-errCh:
		return err
	case <-sig:
		logger.Info("Shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return <-errCh
}
