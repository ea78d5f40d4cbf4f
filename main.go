package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"bazachat/config"
	"bazachat/internal/api"
	"bazachat/internal/botclient"
	"bazachat/internal/connectivity"
	"bazachat/internal/pipeline"
	"bazachat/internal/profile"
	"bazachat/internal/queue"
	"bazachat/internal/store"
	"bazachat/pkg/logger"
)

func main() {
	logger.Init()

	log.Info().Msg("Loading configuration...")
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	kv, err := store.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open durable store")
	}
	defer kv.Close()

	botClient, err := botclient.NewClient(cfg.BackendURL, cfg.RequestTimeout)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize conversation service client")
	}

	queueStore := queue.New(kv)
	profileStore := profile.NewStore(kv)
	monitor := connectivity.NewMonitor()

	pipe := pipeline.New(botClient, queueStore, monitor, pipeline.Options{
		MaxDrainAttempts: cfg.DrainMaxAttempts,
		DefaultLanguage:  cfg.DefaultLanguage,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// One goroutine consumes connectivity transitions and drains the
	// queue to completion before the next transition is read.
	go monitor.Run(ctx, pipe.Drain)

	if cfg.ProbeURL != "" {
		prober := connectivity.NewProber(monitor, cfg.ProbeURL, cfg.ProbeInterval, cfg.RequestTimeout)
		go prober.Run(ctx)
	}

	// Resend anything left over from a previous run once at startup.
	go func() {
		if err := pipe.Drain(ctx); err != nil {
			log.Error().Err(err).Msg("Startup drain failed")
		}
	}()

	apiServer := api.NewServer(pipe, monitor, queueStore, profileStore)
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      apiServer.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	<-stop
	log.Info().Msg("Shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
	}
	log.Info().Msg("Server stopped")
}
