package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"github.com/dkeye/Scribe/internal/adapters/backend"
	"github.com/dkeye/Scribe/internal/adapters/rtc"
	"github.com/dkeye/Scribe/internal/adapters/stream"
	"github.com/dkeye/Scribe/internal/app/intent"
	"github.com/dkeye/Scribe/internal/app/orch"
	"github.com/dkeye/Scribe/internal/app/transcript"
	"github.com/dkeye/Scribe/internal/config"
	"github.com/dkeye/Scribe/internal/core"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	config.SetupLogger("warn")

	fs := pflag.NewFlagSet("scribe", pflag.ExitOnError)
	room := fs.String("room", "", "room id to join")
	name := fs.String("name", "", "display name")
	joinURL := fs.String("join-url", "", "shared join link carrying roomId and displayName")
	fs.String("backend-url", "", "backend base URL")
	fs.String("signal-url", "", "media signalling URL, overrides the one in the credential")
	fs.String("log-level", "warn", "log level")
	_ = fs.Parse(os.Args[1:])

	cfg, err := config.Load(fs)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	config.SetupLogger(cfg.LogLevel)

	params, err := initialParams(*joinURL, *room, *name)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid arguments")
	}
	o, err := newOrchestrator(cfg.Client)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up session")
	}

	shareBase := *joinURL
	if shareBase == "" {
		shareBase = strings.TrimRight(cfg.Client.BackendURL, "/") + "/"
	}
	c := newConsole(os.Stdout, o, intent.NewResolver(params), shareBase)
	if err := c.run(ctx, os.Stdin); err != nil {
		log.Error().Err(err).Msg("client stopped")
		os.Exit(1)
	}
}

func newOrchestrator(cfg config.ClientConfig) (*orch.Orchestrator, error) {
	api, err := backend.NewClient(backend.Config{
		BaseURL:    cfg.BackendURL,
		TokenPath:  cfg.TokenPath,
		AttachPath: cfg.AttachPath,
	})
	if err != nil {
		return nil, err
	}
	streams, err := stream.NewClient(stream.Config{BaseURL: cfg.BackendURL, Path: cfg.StreamPath})
	if err != nil {
		return nil, err
	}
	return &orch.Orchestrator{
		Credentials: api,
		Activator:   api,
		Stream:      streams,
		NewMedia: func() core.MediaSession {
			return rtc.NewSession(rtc.Config{SignalURL: cfg.SignalURL, ICEServers: cfg.ICEServers})
		},
		CredentialTimeout: cfg.CredentialTimeout,
		ActivationTimeout: cfg.ActivationTimeout,
		Transcript: transcript.Options{
			Reconnects:     cfg.StreamReconnects,
			ReconnectDelay: cfg.StreamReconnectDelay,
		},
	}, nil
}
