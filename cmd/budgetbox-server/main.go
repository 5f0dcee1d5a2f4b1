package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"budgetbox/internal/amqp"
	"budgetbox/internal/auth"
	"budgetbox/internal/config"
	"budgetbox/internal/httpapi"
	"budgetbox/internal/log"
	"budgetbox/internal/remote"

	"golang.org/x/sync/errgroup"
)

func main() {
	cfg := config.Load()

	logger := log.New(log.DefaultConfig())
	log.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration", log.FieldError, err)
		os.Exit(1)
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("Server exited with error", log.FieldError, err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *log.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The event broker is optional: without one, pushes are stored but not
	// announced.
	var events httpapi.EventPublisher
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP broker unavailable, sync events disabled", log.FieldError, err)
		} else {
			defer amqpClient.Close()
			events = amqpClient
		}
	}

	srv := httpapi.NewServer(":"+cfg.Port, remote.NewMemoryStore(), auth.NewAuthenticator(), events, logger)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Sync server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("Shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
