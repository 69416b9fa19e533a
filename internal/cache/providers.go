// Package cache — read-through кеш справочника врачей в Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Leganyst/clinic-calendar/internal/model"
	"github.com/Leganyst/clinic-calendar/internal/repository"
)

// Providers кеширует врачей отделения. Остальные запросы уходят в репозиторий.
// Ошибки Redis не фатальны: запрос обслуживается из базы.
type Providers struct {
	repository.ProviderRepository

	redis  *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

func NewProviders(inner repository.ProviderRepository, client *redis.Client, ttl time.Duration, logger zerolog.Logger) *Providers {
	return &Providers{
		ProviderRepository: inner,
		redis:              client,
		ttl:                ttl,
		logger:             logger.With().Str("component", "provider_cache").Logger(),
	}
}

func (c *Providers) key(department string) string {
	return fmt.Sprintf("calendar:providers:%s", department)
}

func (c *Providers) ListByDepartment(ctx context.Context, department string) ([]model.Provider, error) {
	data, err := c.redis.Get(ctx, c.key(department)).Bytes()
	switch {
	case err == nil:
		var list []model.Provider
		if err := json.Unmarshal(data, &list); err == nil {
			return list, nil
		}
		c.logger.Warn().Str("department", department).Msg("corrupted cache entry, reloading")
	case !errors.Is(err, redis.Nil):
		c.logger.Warn().Err(err).Str("department", department).Msg("redis get failed")
	}

	list, err := c.ProviderRepository.ListByDepartment(ctx, department)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(list); err == nil {
		if err := c.redis.Set(ctx, c.key(department), data, c.ttl).Err(); err != nil {
			c.logger.Warn().Err(err).Str("department", department).Msg("redis set failed")
		}
	}
	return list, nil
}

// Upsert пишет в базу и сбрасывает кеш затронутых отделений.
func (c *Providers) Upsert(ctx context.Context, p *model.Provider) error {
	var oldDepartment string
	if prev, err := c.ProviderRepository.GetByID(ctx, p.ID); err == nil {
		oldDepartment = prev.Department
	}

	if err := c.ProviderRepository.Upsert(ctx, p); err != nil {
		return err
	}

	keys := []string{c.key(p.Department)}
	if oldDepartment != "" && oldDepartment != p.Department {
		keys = append(keys, c.key(oldDepartment))
	}
	if err := c.redis.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warn().Err(err).Str("provider_id", p.ID).Msg("redis invalidate failed")
	}
	return nil
}
