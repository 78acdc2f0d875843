package quota

import (
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"

	"edu-gen/config"
	"edu-gen/repositories"
)

// NewFromConfig 는 quota.backend 설정에 맞는 Tracker 를 만든다. 반환된 close 는 항상 호출해도 된다.
func NewFromConfig(cfg config.QuotaConfig, db *mongo.Database) (Tracker, func(), error) {
	noop := func() {}
	switch cfg.Backend {
	case config.QuotaBackendMemory:
		return NewMemoryTracker(cfg.DailyLimit), noop, nil
	case config.QuotaBackendRedis:
		client, err := DialRedis(cfg.RedisURL)
		if err != nil {
			return nil, noop, err
		}
		return NewRedisTracker(client, cfg.DailyLimit), func() { _ = client.Close() }, nil
	case config.QuotaBackendMongo, "":
		if db == nil {
			return nil, noop, fmt.Errorf("mongo quota backend requires a database")
		}
		return NewMongoTracker(repositories.NewUsageRepository(db), cfg.DailyLimit), noop, nil
	default:
		return nil, noop, fmt.Errorf("unknown quota backend %q", cfg.Backend)
	}
}
