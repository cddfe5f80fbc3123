package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"dinediscover/internal/api"
	"dinediscover/internal/common/config"
	"dinediscover/internal/common/database"
	rs "dinediscover/internal/workers/restaurant-search/record-search"
)

// Infra holds the optional backing stores. A nil field means the store is switched off.
type Infra struct {
	Postgres      *database.PostgresClient
	Elasticsearch *database.ElasticsearchClient
	Redis         *database.RedisClient
}

// RetryWithBackoff doubles the delay after every failed attempt.
func RetryWithBackoff(ctx context.Context, operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		if err = operation(); err == nil {
			return nil
		}
		if i == maxRetries-1 {
			break
		}

		log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
			zap.Error(err),
			zap.Int("attempt", i+1),
			zap.Int("maxRetries", maxRetries),
			zap.Duration("nextRetryIn", delay),
		)
		select {
		case <-ctx.Done():
			return fmt.Errorf("%s cancelled: %w", operationName, ctx.Err())
		case <-time.After(delay):
		}
		delay *= 2
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

// Connect opens every store enabled in cfg. On error the stores opened so far are closed.
func Connect(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Infra, error) {
	infra := &Infra{}
	const attempts = 5
	const delay = 2 * time.Second

	if pgCfg := cfg.Database.Postgres; pgCfg.Enabled {
		err := RetryWithBackoff(ctx, func() error {
			pg, err := database.NewPostgres(pgCfg)
			if err != nil {
				return err
			}
			if err := pg.Ping(ctx); err != nil {
				pg.Close()
				return err
			}
			infra.Postgres = pg
			return nil
		}, attempts, delay, log, "PostgreSQL connection")
		if err != nil {
			infra.Close()
			return nil, err
		}
		if err := rs.EnsureSchema(ctx, infra.Postgres); err != nil {
			infra.Close()
			return nil, fmt.Errorf("search log schema: %w", err)
		}
		log.Info("PostgreSQL connected")
	}

	if esCfg := cfg.Database.Elasticsearch; esCfg.Enabled || cfg.Places.Provider == config.ProviderElasticsearch {
		err := RetryWithBackoff(ctx, func() error {
			es, err := database.NewElasticsearch(esCfg)
			if err != nil {
				return err
			}
			if err := es.Ping(ctx); err != nil {
				return err
			}
			infra.Elasticsearch = es
			return nil
		}, attempts, delay, log, "Elasticsearch connection")
		if err != nil {
			infra.Close()
			return nil, err
		}
		log.Info("Elasticsearch connected")
	}

	if redisCfg := cfg.Database.Redis; redisCfg.Enabled {
		err := RetryWithBackoff(ctx, func() error {
			r, err := database.NewRedis(redisCfg)
			if err != nil {
				return err
			}
			if err := r.Ping(ctx); err != nil {
				r.Close()
				return err
			}
			infra.Redis = r
			return nil
		}, attempts, delay, log, "Redis connection")
		if err != nil {
			infra.Close()
			return nil, err
		}
		log.Info("Redis connected")
	}

	return infra, nil
}

// Checks returns one readiness probe per connected store.
func (i *Infra) Checks() map[string]api.ReadinessCheck {
	checks := map[string]api.ReadinessCheck{}
	if i.Postgres != nil {
		checks["postgres"] = i.Postgres.Ping
	}
	if i.Elasticsearch != nil {
		checks["elasticsearch"] = i.Elasticsearch.Ping
	}
	if i.Redis != nil {
		checks["redis"] = i.Redis.Ping
	}
	return checks
}

func (i *Infra) Close() {
	if i.Postgres != nil {
		i.Postgres.Close()
	}
	if i.Redis != nil {
		i.Redis.Close()
	}
}
