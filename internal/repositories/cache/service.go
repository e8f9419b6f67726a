// Package cache provides a Redis-backed cache used for scheme rate maps and
// rendered settlement report payloads.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrCacheMiss is returned when a key is absent.
var ErrCacheMiss = errors.New("cache miss")

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// NewRedisClient creates a Redis client from config.
func NewRedisClient(cfg *RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// Service is a thin JSON cache over Redis.
type Service struct {
	client *redis.Client
	ttl    time.Duration
}

// NewService creates a cache service with a default TTL.
func NewService(client *redis.Client, defaultTTL time.Duration) *Service {
	return &Service{client: client, ttl: defaultTTL}
}

// Set stores value under key with the default TTL.
func (s *Service) Set(ctx context.Context, key string, value interface{}) error {
	return s.SetWithTTL(ctx, key, value, s.ttl)
}

// SetWithTTL stores value under key with an explicit TTL.
func (s *Service) SetWithTTL(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}
	return s.client.Set(ctx, key, data, ttl).Err()
}

// Get loads key into dest. Returns ErrCacheMiss when absent.
func (s *Service) Get(ctx context.Context, key string, dest interface{}) error {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrCacheMiss
		}
		return err
	}
	return json.Unmarshal(data, dest)
}

// Delete removes a key.
func (s *Service) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}

// HealthCheck pings Redis.
func (s *Service) HealthCheck(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis connection failed: %w", err)
	}
	return nil
}

// Close shuts the underlying client down.
func (s *Service) Close() error {
	return s.client.Close()
}

// ReportKey builds the cache key for a rendered settlement report.
func ReportKey(reference string) string {
	return "settlement:report:" + reference
}

// RateMapKey builds the cache key for the scheme rates of a period and
// currency set.
func RateMapKey(start, end time.Time, currencies []string) string {
	sorted := make([]string, len(currencies))
	copy(sorted, currencies)
	sort.Strings(sorted)
	return fmt.Sprintf("settlement:rates:%s:%s:%s",
		start.Format("2006-01-02"), end.Format("2006-01-02"), strings.Join(sorted, ","))
}
