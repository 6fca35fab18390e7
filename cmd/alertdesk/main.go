package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"alert-desk/internal/backendapi"
	"alert-desk/internal/config"
	"alert-desk/internal/engine"
	"alert-desk/internal/handlers"
	"alert-desk/internal/middleware"
	"alert-desk/internal/models"
	"alert-desk/internal/notices"
	"alert-desk/internal/notify"
	"alert-desk/internal/protocol"
	"alert-desk/internal/settings"
	"alert-desk/internal/sideeffect"
	"alert-desk/internal/sound"
	"alert-desk/internal/transport"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

func main() {
	config.Init()

	level, err := zerolog.ParseLevel(config.LogLevel())
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	logger.Info().Msg("Starting alert-desk")

	settingsPath := config.SettingsPath()
	if settingsPath == "" {
		settingsPath, err = settings.DefaultPath()
		if err != nil {
			logger.Fatal().Err(err).Msg("Could not resolve settings path")
		}
	}

	store := settings.NewStore(settingsPath, logger)
	store.Load()

	backend := backendapi.NewClient(store.ServerURL, logger)
	store.AttachRemote(backend)

	feed := notices.NewFeed(config.NoticesMax(), logger)

	catalog := sound.NewCatalog()
	player := sound.NewPlayer(catalog, store.ServerURL, logger)
	notifier := notify.NewDesktop(logger)
	effects := sideeffect.NewDispatcher(player, notifier, store, logger)

	eng := engine.New(logger)
	eng.Subscribe(effects.HandleEvent)

	var channel *transport.Channel
	dispatcher := protocol.NewDispatcher(protocol.Handlers{
		OnStatus: func(m protocol.BridgeStatus) {
			channel.SetBridgeConnected(m.ConnectedToBridge)
		},
		OnAlert: func(m protocol.AlertEvent) {
			eng.ApplySingle(m.Alert)
		},
		OnSnapshot: func(m protocol.AlertsSnapshot) {
			eng.ApplySnapshot(m.Alerts)
		},
		OnSounds: func(m protocol.SoundCatalog) {
			catalog.Replace(m.Sounds)
		},
	}, logger)
	channel = transport.NewChannel(store.ServerURL, dispatcher.Dispatch, logger)
	channel.OnStateChange(func(cs models.ConnectionState) {
		logger.Info().
			Bool("connected", cs.Connected).
			Bool("bridge_connected", cs.BridgeConnected).
			Int("reconnect_attempts", cs.ReconnectAttempts).
			Msg("Connection state changed")
	})

	// Best-effort remote settings hydration; local values stand on failure.
	{
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if _, err := store.FetchRemote(ctx); err != nil {
			logger.Warn().Err(err).Msg("Could not fetch remote settings")
		}
		cancel()
	}

	if store.Current().AutoConnect {
		if err := channel.Open(); err != nil {
			logger.Warn().Err(err).Msg("Auto-connect failed, will retry")
		}
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.Logger(logger))
	router.Use(middleware.RequestID())

	api := handlers.NewAPI(eng, channel, store, catalog, effects, backend, feed, logger)
	api.RegisterRoutes(router)

	srv := &http.Server{
		Addr:    config.UIListen(),
		Handler: router,
	}
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("Local UI API listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Local UI API failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down")
	effects.StopAll()
	channel.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("Local UI API shutdown failed")
	}
}
