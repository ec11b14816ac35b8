package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/breakawayhl/breakaway/internal/dbconfig"
	"github.com/breakawayhl/breakaway/internal/gateway"
	"github.com/breakawayhl/breakaway/internal/outbox"
	"github.com/breakawayhl/breakaway/internal/store"
	"github.com/breakawayhl/breakaway/internal/webhook"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

func main() {
	cfg, err := LoadConfig()
	if err != nil {
		fallback := zerolog.New(os.Stderr)
		fallback.Fatal().Err(err).Msg("failed to load config")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	st, err := store.New(ctx, dbconfig.NewConfigFromEnv().DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("store init failed")
	}
	defer st.Close()

	if err := st.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("db ping failed")
	}
	if err := st.Bootstrap(ctx); err != nil {
		log.Fatal().Err(err).Msg("schema bootstrap failed")
	}

	svcs := BuildServices(st, cfg, log)

	// Outbox worker: drains staged events onto NATS.
	natsCfg := outbox.DefaultNATSConfig()
	natsCfg.URL = cfg.NATSURL
	publisher, err := outbox.NewNATSPublisher(natsCfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("nats publisher init failed")
	}
	defer publisher.Close()

	worker := outbox.NewWorker(store.NewTxRunner(st.Pool), svcs.OutboxRepo, publisher,
		outbox.DefaultWorkerConfig(), clockwork.NewRealClock(), log)
	if err := worker.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("outbox worker start failed")
	}
	defer worker.Stop()

	// Websocket gateway: NATS events out to clients.
	cm := gateway.NewConnectionManager(gateway.DefaultConnectionConfig(), log)
	go cm.Start(ctx)

	consumerCfg := gateway.DefaultConsumerConfig()
	consumerCfg.URL = cfg.NATSURL
	consumer, err := gateway.NewEventConsumer(cm, consumerCfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("gateway consumer init failed")
	}
	if err := consumer.Start(); err != nil {
		log.Fatal().Err(err).Msg("gateway consumer start failed")
	}
	defer consumer.Stop()

	gatewayServer := &http.Server{
		Addr:              cfg.GatewayAddr,
		Handler:           gateway.NewHandler(cm, log).Mux(cfg.AllowedOrigins),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info().Str("addr", cfg.GatewayAddr).Msg("gateway listening")
		if err := gatewayServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("gateway server stopped")
			cancel()
		}
	}()

	// Webhook ingest: signed score reports from the game server.
	webhookServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           webhook.NewServer(svcs.Reports, svcs.Seasons, svcs.Standings, cfg.WebhookSecret, log).Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("webhook listening")
		if err := webhookServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("webhook server stopped")
			cancel()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = webhookServer.Shutdown(shutdownCtx)
	_ = gatewayServer.Shutdown(shutdownCtx)
}
