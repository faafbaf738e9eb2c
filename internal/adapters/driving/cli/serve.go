package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/swiss-ai/dsl25-7-center-bot/internal/logger"
)

const serveShutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the Slack bot server",
	Long: `Starts the HTTP server for Slack events and the background sync
scheduler, and blocks until interrupted.

Point your Slack app's Event Subscriptions request URL at
http://<host><addr>/slack/events.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "HTTP listen address")
	rootCmd.AddCommand(serveCmd)
}

// newServeMux builds the HTTP routes. The server runs without Slack
// wiring too: the scheduler and the health probe do not need it.
func newServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	if eventsHandler != nil {
		mux.Handle("/slack/events", eventsHandler)
	} else {
		logger.Warn("Slack events endpoint disabled: bot not fully configured")
	}
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})
	return mux
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if schedulerService != nil {
		go func() {
			if err := schedulerService.Start(ctx); err != nil {
				logger.Error("Scheduler stopped: %v", err)
			}
		}()
		defer func() {
			if err := schedulerService.Stop(); err != nil {
				logger.Warn("Scheduler shutdown: %v", err)
			}
		}()
	}

	server := &http.Server{
		Addr:              serveAddr,
		Handler:           newServeMux(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	cmd.Printf("Listening on %s\n", serveAddr)

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	cmd.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), serveShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}
