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

	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	router "github.com/dkeye/Scribe/internal/adapters/http"
	"github.com/dkeye/Scribe/internal/app/hub"
	"github.com/dkeye/Scribe/internal/app/token"
	"github.com/dkeye/Scribe/internal/app/worker"
	"github.com/dkeye/Scribe/internal/config"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	config.SetupLogger("info")

	fs := pflag.NewFlagSet("scribe-server", pflag.ExitOnError)
	fs.Int("port", 8000, "listen port")
	fs.String("log-level", "info", "log level")
	_ = fs.Parse(os.Args[1:])

	cfg, err := config.Load(fs)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	config.SetupLogger(cfg.LogLevel)

	if err := run(ctx, cfg.Server); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
	log.Info().Msg("Server exited gracefully")
}

func run(ctx context.Context, cfg config.ServerConfig) error {
	issuer, err := token.NewIssuer(cfg.APIKey, cfg.APISecret, cfg.TokenTTL)
	if err != nil {
		return err
	}
	policy, err := hub.PolicyByName(cfg.Backpressure)
	if err != nil {
		return err
	}
	streams := hub.New(cfg.SubscriberBuffer, policy)
	workers := worker.New(worker.Config{
		Command:     cfg.WorkerCommand,
		IngestURL:   cfg.IngestURL(),
		MediaURL:    cfg.MediaURL,
		IdleTimeout: cfg.WorkerIdleTimeout,
		CheckPeriod: cfg.WorkerCheckPeriod,
	}, issuer, streams)

	r := router.SetupRouter(ctx, cfg, &router.API{
		Tokens:  issuer,
		Hub:     streams,
		Workers: workers,
	})
	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", addr).Msg("Scribe server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down")
		// Open transcript streams never finish on their own.
		streams.Close()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Server forced to shutdown")
		}
		workers.StopAll()
		return nil
	})
	return g.Wait()
}
