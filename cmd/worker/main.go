package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"edu-gen/cmd/internal/eventbus"
	"edu-gen/cmd/internal/logger"
	"edu-gen/cmd/internal/metrics"
	"edu-gen/cmd/worker/event/dispatcher"
	"edu-gen/cmd/worker/event/handler"
	"edu-gen/cmd/worker/generator"
	"edu-gen/cmd/worker/quota"
	"edu-gen/config"
	"edu-gen/db"
	"edu-gen/repositories"
)

func main() {
	config.InitApp()
	cfg := config.GetConfig()
	logger.Init(cfg.Logging.Level, "worker")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// MongoDB 초기화
	if err := db.Init(ctx); err != nil {
		logger.Log.Errorf("failed to initialize MongoDB: %v", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = db.Disconnect(shutdownCtx)
	}()

	// EventBus 초기화 및 토픽 보장
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

	provider, err := generator.NewFromConfig(ctx, cfg.LLM)
	if err != nil {
		logger.Log.Errorf("failed to create AI provider: %v", err)
		os.Exit(1)
	}

	// 서비스 초기화
	database := db.Database()
	generations := repositories.NewGenerationRepository(database)
	eventHandler := handler.NewEventHandlers(
		generations,
		repositories.NewArticleRepository(database),
		repositories.NewAILogRepository(database),
		dispatcher.NewEventDispatcher(bus),
		provider,
		quota.NewGenerationPacerFromConfig(cfg.Worker),
		cfg.Worker.ProviderTimeout,
	)

	groupID := eventbus.GetGroupID()
	g, gctx := errgroup.WithContext(ctx)

	// 같은 그룹의 컨슈머 N 개: 파티션이 나뉘어 병렬 처리된다.
	for i := 0; i < cfg.Worker.Consumers; i++ {
		g.Go(func() error {
			err := bus.Subscribe(gctx, groupID, eventbus.TopicGenerationEvents, eventHandler.HandleEvent)
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Log.Errorf("eventbus subscribe error (consumer %d): %v", i, err)
				return err
			}
			return nil
		})
	}

	recovery := handler.NewRecoveryService(generations, eventHandler, cfg.Worker.RecoveryGrace)
	g.Go(func() error {
		return recovery.Run(gctx, cfg.Worker.RecoveryInterval)
	})

	metricsServer := &http.Server{Addr: cfg.Worker.MetricsAddr, Handler: metricsMux()}
	g.Go(func() error {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Errorf("metrics server error: %v", err)
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return metricsServer.Shutdown(shutdownCtx)
	})

	logger.Log.Infof("starting worker service with %d consumers (provider=%s, model=%s)",
		cfg.Worker.Consumers, provider.Name(), cfg.LLM.ModelName)

	if err := g.Wait(); err != nil {
		logger.Log.Errorf("worker service stopped with error: %v", err)
		return
	}
	logger.Log.Info("worker service stopped")
}

func metricsMux() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	return mux
}
