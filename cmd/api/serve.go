package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"workshop/api/internal/app"
)

func newServeCmd(envFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), *envFile)
		},
	}
}

func runServe(ctx context.Context, envFile string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	rt, err := bootstrap(ctx, envFile, nil)
	if err != nil {
		return err
	}
	defer rt.Close()
	log := rt.log

	go rt.search.ReindexAll(ctx)

	done := make(chan struct{})
	defer close(done)
	limiter := app.NewRateLimiter(rt.cfg.RateLimitRPS, rt.cfg.RateLimitBurst, log)
	if limiter != nil {
		if err := limiter.TrustProxies(rt.cfg.TrustedProxies); err != nil {
			return err
		}
		limiter.StartCleanup(5*time.Minute, done)
	}

	httpServer := app.NewHTTPServer(rt.service, rt.cfg.CORSOrigin, limiter, log)
	server := &http.Server{
		Addr:              rt.cfg.Addr,
		Handler:           httpServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		// Deck PDFs and AI grouping can take a while.
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("workshop API listening on %s", rt.cfg.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("shutdown error")
	}
	log.Info("server stopped")
	return nil
}
