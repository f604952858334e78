package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/samber/lo"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"chatroom-service/internal/chat"
	"chatroom-service/internal/config"
	"chatroom-service/internal/db"
	"chatroom-service/internal/handlers"
	"chatroom-service/internal/logging"
	"chatroom-service/internal/middleware"
	"chatroom-service/internal/observability"
	"chatroom-service/internal/presence"
	"chatroom-service/internal/rabbitmq"
	"chatroom-service/internal/repositories"
	"chatroom-service/internal/telemetry"
	"chatroom-service/internal/ws"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML or JSON config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.NewLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.InitTracing(ctx, cfg.Tracing.OTLPEndpoint, cfg.ServiceName, cfg.Environment)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownGracePeriod)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			logger.Warn("tracing shutdown", zap.Error(err))
		}
	}()

	store, err := openStorage(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.close()

	publisher := rabbitmq.NewPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange, logger.Named("rabbitmq"))
	defer publisher.Close()
	logger.Info("presence publisher ready",
		zap.String("mode", rabbitmq.PublisherMode(publisher)),
		zap.String("noop_reason", rabbitmq.PublisherNoopReason(publisher)))

	hub := ws.NewHub(logger.Named("ws"))
	hooks := chat.Hooks{
		Broadcaster: hub,
		Presence:    telemetry.NewPresenceEmitter(publisher, cfg.ServiceName, cfg.Environment, logger),
	}

	registry := chat.NewRegistry(store.participants, hooks, logger.Named("registry"))
	messageLog := chat.NewMessageLog(store.participants, store.messages, hooks, logger.Named("messages"))

	reaper := presence.NewReaper(store.participants, hooks, presence.Config{
		Interval:          cfg.Reaper.Interval,
		InactivityTimeout: cfg.Reaper.InactivityTimeout,
		SweepTimeout:      cfg.Reaper.SweepTimeout,
	}, logger)
	if err := reaper.Start(ctx); err != nil {
		return err
	}
	defer reaper.Stop()

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	// middlewares
	router.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.Identity(),
		middleware.AccessLog(logger.Named("http")),
		observability.HTTPMetricsMiddleware(),
		otelgin.Middleware(cfg.ServiceName),
		cors.New(corsConfig(cfg.HTTP.CORSOrigins)),
		middleware.Timeout(cfg.HTTP.RequestTimeout),
	)

	handlers.RegisterRoutes(router,
		handlers.NewParticipantHandler(registry),
		handlers.NewMessageHandler(messageLog),
		handlers.NewHealthHandler(store.pinger))
	router.GET("/ws", ws.NewHandler(hub, registry, logger.Named("ws")).Handle)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("addr", srv.Addr), zap.String("storage", cfg.Storage.Driver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down", zap.Duration("grace_period", cfg.HTTP.ShutdownGracePeriod))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownGracePeriod)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

type storage struct {
	participants repositories.ParticipantRepository
	messages     repositories.MessageRepository
	pinger       handlers.Pinger
	close        func()
}

func openStorage(ctx context.Context, cfg config.Config, logger *zap.Logger) (storage, error) {
	switch cfg.Storage.Driver {
	case config.DriverBadger:
		bdb, err := db.OpenBadger(cfg.Storage.BadgerPath, logger.Named("badger"))
		if err != nil {
			return storage{}, err
		}
		store, err := repositories.NewBadgerStore(bdb)
		if err != nil {
			bdb.Close()
			return storage{}, err
		}
		return storage{
			participants: store,
			messages:     store,
			pinger:       store,
			close: func() {
				if err := store.Close(); err != nil {
					logger.Warn("release badger sequence", zap.Error(err))
				}
				if err := bdb.Close(); err != nil {
					logger.Warn("close badger", zap.Error(err))
				}
			},
		}, nil
	default:
		database, err := db.Connect(ctx, cfg.Storage.Driver, cfg.Storage.DSN, logger)
		if err != nil {
			return storage{}, err
		}
		return storage{
			participants: repositories.NewParticipantRepo(database),
			messages:     repositories.NewMessageRepo(database),
			pinger:       database,
			close: func() {
				if err := database.Close(); err != nil {
					logger.Warn("close database", zap.Error(err))
				}
			},
		}, nil
	}
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	cfg.AllowHeaders = append(cfg.AllowHeaders, middleware.UserHeader, middleware.RequestIDHeader)
	cfg.ExposeHeaders = []string{middleware.RequestIDHeader}
	if len(origins) == 0 || lo.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	return cfg
}
