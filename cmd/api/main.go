package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"edu-gen/cmd/api/auth"
	"edu-gen/cmd/api/event/dispatcher"
	"edu-gen/cmd/api/quota"
	"edu-gen/cmd/api/router"
	"edu-gen/cmd/api/services"
	"edu-gen/cmd/internal/eventbus"
	"edu-gen/cmd/internal/logger"
	"edu-gen/config"
	"edu-gen/db"
	"edu-gen/repositories"
)

// @title           edu-gen API
// @version         1.0
// @description     AI educational content generation: quota-guarded requests, async generation, article browsing
// @BasePath        /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	config.InitApp()
	cfg := config.GetConfig()
	logger.Init(cfg.Logging.Level, "api")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := db.Init(ctx); err != nil {
		logger.Log.Errorf("failed to initialize MongoDB: %v", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = db.Disconnect(shutdownCtx)
	}()
	database := db.Database()

	tokens, err := auth.NewJWTManagerFromEnv()
	if err != nil {
		logger.Log.Errorf("failed to initialize JWT manager: %v", err)
		os.Exit(1)
	}

	tracker, closeTracker, err := quota.NewFromConfig(cfg.Quota, database)
	if err != nil {
		logger.Log.Errorf("failed to initialize quota tracker: %v", err)
		os.Exit(1)
	}
	defer closeTracker()

	brokers := eventbus.GetBrokers()
	if err := eventbus.EnsureTopics(brokers, eventbus.TopicGenerationEvents, 3); err != nil {
		logger.Log.Errorf("failed to ensure eventbus topics: %v", err)
	}
	bus, err := eventbus.NewKafkaEventBus(brokers)
	if err != nil {
		logger.Log.Errorf("failed to create event bus: %v", err)
		os.Exit(1)
	}
	defer bus.Close()

	articles := repositories.NewArticleRepository(database)
	r := router.New(router.Deps{
		Generation: services.NewGenerationService(
			tracker,
			dispatcher.NewEventDispatcher(bus, "api"),
			repositories.NewGenerationRepository(database),
			articles,
		),
		Articles:       services.NewArticleService(articles),
		Tokens:         tokens,
		AllowedOrigins: cfg.API.AllowedOrigins,
		Health: func(ctx context.Context) error {
			return db.Client().Ping(ctx, nil)
		},
	})

	srv := &http.Server{Addr: cfg.API.Addr, Handler: r}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Log.Errorf("api server shutdown error: %v", err)
		}
	}()

	logger.Log.Infof("starting api server on %s (quota backend=%s, daily limit=%d)", cfg.API.Addr, cfg.Quota.Backend, tracker.Limit())
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Log.Errorf("api server error: %v", err)
		os.Exit(1)
	}
	logger.Log.Info("api server stopped")
}
