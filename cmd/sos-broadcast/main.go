package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Gagankhurana-12/Yatri-Kavach/internal/config"
	"github.com/Gagankhurana-12/Yatri-Kavach/internal/logging"
	"github.com/Gagankhurana-12/Yatri-Kavach/internal/pushclient"
	"github.com/Gagankhurana-12/Yatri-Kavach/internal/server"
	"github.com/Gagankhurana-12/Yatri-Kavach/internal/service"
	"github.com/Gagankhurana-12/Yatri-Kavach/internal/storage"
	"github.com/Gagankhurana-12/Yatri-Kavach/internal/storage/bolt"
	"github.com/Gagankhurana-12/Yatri-Kavach/internal/storage/memory"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.Log.Level, cfg.Log.Format)

	pushClient, err := pushclient.New(cfg.Push.Endpoint, cfg.Push.AccessToken, cfg.Push.RequestTimeout)
	if err != nil {
		logger.Fatal().Err(err).Msg("init push client")
	}

	store, err := openStore(cfg)
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.Storage.Driver).Msg("open store")
	}
	defer store.Close()

	authSvc, err := service.NewAuthService(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("init auth")
	}
	deviceSvc := service.NewDeviceService(store, logger)
	proximitySvc := service.NewProximityService(deviceSvc, cfg.Registry.MaxAge)
	dispatchSvc := service.NewDispatchService(pushClient, store, service.DispatchOptions{
		BatchSize:   cfg.Push.BatchSize,
		Concurrency: cfg.Push.Concurrency,
		Sound:       cfg.Push.Sound,
	}, logger)
	broadcastSvc := service.NewBroadcastService(proximitySvc, dispatchSvc, service.BroadcastOptions{
		DefaultRadius: cfg.Broadcast.DefaultRadius,
		MaxRadius:     cfg.Broadcast.MaxRadius,
		DefaultTitle:  cfg.Broadcast.DefaultTitle,
		DefaultBody:   cfg.Broadcast.DefaultBody,
	}, logger)
	logSvc := service.NewDeliveryLogService(store, deviceSvc)

	srv := server.New(cfg, logger, deviceSvc, broadcastSvc, logSvc, authSvc)

	logger.Info().
		Str("storage", cfg.Storage.Driver).
		Str("push_endpoint", pushClient.Endpoint()).
		Dur("max_age", cfg.Registry.MaxAge).
		Msg("sos-broadcast starting")

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error().Err(err).Msg("server stopped")
		}
		return
	case sig := <-waitForSignal():
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.WriteTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("shutdown error")
	}
}

func openStore(cfg *config.Config) (storage.Store, error) {
	switch cfg.Storage.Driver {
	case config.StorageDriverMemory:
		return memory.New(), nil
	case config.StorageDriverBolt:
		return bolt.New(cfg.Storage.Path)
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Storage.Driver)
	}
}

func waitForSignal() <-chan os.Signal {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	return sigCh
}
