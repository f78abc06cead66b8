package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/SebiosJade/Boluntik-sub004/internal/config"
	"github.com/SebiosJade/Boluntik-sub004/internal/handler"
	"github.com/SebiosJade/Boluntik-sub004/internal/hub"
	"github.com/SebiosJade/Boluntik-sub004/internal/kafka"
	"github.com/SebiosJade/Boluntik-sub004/internal/presence"
	"github.com/SebiosJade/Boluntik-sub004/internal/service"
	"github.com/SebiosJade/Boluntik-sub004/internal/store"
	"github.com/SebiosJade/Boluntik-sub004/pkg/jwt"
	pkglog "github.com/SebiosJade/Boluntik-sub004/pkg/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		l := pkglog.L()
		l.Fatal().Err(err).Msg("failed to load config")
	}

	pkglog.Init(pkglog.Config{
		Level:       cfg.Log.Level,
		Pretty:      cfg.Log.Pretty,
		ServiceName: "realtime-service",
	})
	logger := pkglog.L()

	tokens, err := jwt.NewManager(cfg.Auth.JWTSecret, 24*time.Hour, cfg.Auth.Issuer)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create token manager")
	}

	// Connect collaborators in parallel; none depends on another.
	var (
		mongoClient *store.Client
		reg         *presence.RedisRegistry
		producer    kafka.MessageProducer = kafka.NopProducer{}
	)

	g, gCtx := errgroup.WithContext(context.Background())
	g.Go(func() error {
		var err error
		mongoClient, err = store.Connect(gCtx, cfg.Mongo)
		return err
	})
	g.Go(func() error {
		var err error
		reg, err = presence.NewRedisRegistry(cfg.Redis)
		return err
	})
	g.Go(func() error {
		if cfg.Kafka.Brokers == "" {
			return nil
		}
		var err error
		producer, err = kafka.NewConfluentProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.Partitions)
		return err
	})
	if err := g.Wait(); err != nil {
		logger.Fatal().Err(err).Msg("failed to connect collaborators")
	}
	defer mongoClient.Close(context.Background())
	defer reg.Close()
	logger.Info().Str("mongo", cfg.Mongo.URI).Str("redis", cfg.Redis.Address).Msg("collaborators connected")

	conversations := store.NewConversationRepository(mongoClient)
	messages := store.NewMessageRepository(mongoClient)
	notifications := store.NewNotificationRepository(mongoClient)

	wsHub := hub.NewHub(cfg.WebSocket)
	go wsHub.Run()

	relay := service.NewRelayService(wsHub, conversations, messages, notifications, producer, reg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := relay.Start(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to start relay service")
	}
	defer relay.Stop()

	wsHandler := handler.NewWSHandler(wsHub, relay, tokens, cfg.WebSocket)
	httpHandler := handler.NewHTTPHandler(wsHub, wsHandler, reg)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(pkglog.GinMiddleware(logger))
	httpHandler.RegisterRoutes(r)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", server.Addr).Msg("realtime service listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down realtime service")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server forced to shutdown")
	}

	logger.Info().Msg("realtime service stopped")
}
