package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"golang.org/x/sync/errgroup"

	"edu-gen/cmd/internal/eventbus"
	"edu-gen/cmd/internal/logger"
)

func main() {
	// config.yaml 없이 뜨므로 로그 레벨은 LOG_LEVEL 로만 받는다.
	logger.Init(os.Getenv("LOG_LEVEL"), "retryworker")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	brokers := eventbus.GetBrokers()
	for _, t := range eventbus.AllTopics {
		if err := eventbus.EnsureTopics(brokers, t, 3); err != nil {
			logger.Log.Errorf("failed to ensure eventbus topics for %s: %v", t.Base(), err)
		}
	}

	bus, err := eventbus.NewKafkaEventBus(brokers)
	if err != nil {
		logger.Log.Errorf("failed to create event bus: %v", err)
		os.Exit(1)
	}
	defer bus.Close()

	groupID := eventbus.GetGroupID() + "-retry-worker"

	logger.Log.Info("starting retry worker service with eventbus...")

	g, gctx := errgroup.WithContext(ctx)
	for _, topic := range eventbus.AllTopics {
		g.Go(func() error {
			topicGroupID := groupID + "-" + strings.ReplaceAll(topic.Base(), ".", "-")
			err := bus.StartRetryReinjector(gctx, topicGroupID, topic)
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Log.Errorf("eventbus retry reinjector error for %s: %v", topic.Base(), err)
				return err
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		logger.Log.Errorf("retry worker stopped with error: %v", err)
		os.Exit(1)
	}
	logger.Log.Info("retry worker service stopped")
}
