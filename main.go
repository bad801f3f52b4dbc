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

	"ticketbari/config"
	"ticketbari/logger"
	"ticketbari/metrics"
	"ticketbari/middleware"
	"ticketbari/routes"

	"github.com/rs/cors"
	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "ticketbari",
	Short: "TicketBari ticket marketplace API",
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(indexesCmd)
	rootCmd.AddCommand(bootstrapAdminCmd)
	rootCmd.AddCommand(tokenCmd)
}

// ticketbari serve: start the HTTP server.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		logger.Setup(cfg.Environment)
		if err := cfg.Validate(); err != nil {
			return err
		}
		return serve(cmd.Context(), cfg)
	},
}

// newHandler applies middleware: CORS → security headers → request id →
// logging → metrics → recover → timeout → router.
func newHandler(cfg *config.Config, router http.Handler) http.Handler {
	var h http.Handler = router
	h = middleware.Timeout(cfg.RequestTimeout)(h)
	h = middleware.Recover(h)
	h = metrics.Middleware(h)
	h = middleware.Logging(h)
	h = middleware.RequestID(h)
	h = middleware.SecurityHeaders(h)

	return cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins(),
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "Idempotency-Key"},
		ExposedHeaders:   []string{"X-Request-ID", "Idempotent-Replayed"},
		AllowCredentials: true,
	}).Handler(h)
}

func serve(ctx context.Context, cfg *config.Config) error {
	st, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	svc, err := newServices(ctx, cfg, st)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		svc.Close(closeCtx)
	}()

	verifier, err := newVerifier(ctx, cfg)
	if err != nil {
		return err
	}
	router := routes.New(newDeps(verifier, st, svc))

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           newHandler(cfg, router),
		ReadTimeout:       7 * time.Second,
		WriteTimeout:      cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.L.Info("server listening", "addr", server.Addr, "env", cfg.Environment, "store", cfg.StoreDriver)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case <-sigCh:
	}

	logger.L.Info("shutdown signal received; shutting down gracefully")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	logger.L.Info("server stopped cleanly")
	return nil
}
