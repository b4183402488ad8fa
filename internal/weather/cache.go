package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/smukkama/riskwatch/internal/riskengine"
)

// CityStore is the shared weather cache/mock store consulted before any
// live provider or synthetic fallback. Entries are keyed by city.
type CityStore struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewCityStore creates a store over a redis client
func NewCityStore(redisClient *redis.Client, ttl time.Duration) *CityStore {
	return &CityStore{redis: redisClient, ttl: ttl}
}

func cityKey(city string) string {
	return fmt.Sprintf("weather_city:%s", strings.ToLower(strings.TrimSpace(city)))
}

// Get returns the cached reading for a city, or found=false on a miss
func (s *CityStore) Get(ctx context.Context, city string) (riskengine.Reading, bool, error) {
	data, err := s.redis.Get(ctx, cityKey(city)).Result()
	if err == redis.Nil {
		return riskengine.Reading{}, false, nil
	}
	if err != nil {
		return riskengine.Reading{}, false, fmt.Errorf("failed to get weather from redis: %w", err)
	}

	var reading riskengine.Reading
	if err := json.Unmarshal([]byte(data), &reading); err != nil {
		return riskengine.Reading{}, false, fmt.Errorf("failed to unmarshal weather entry: %w", err)
	}

	return reading, true, nil
}

// Set stores a reading for a city with the configured TTL
func (s *CityStore) Set(ctx context.Context, city string, reading riskengine.Reading) error {
	data, err := json.Marshal(reading)
	if err != nil {
		return fmt.Errorf("failed to marshal weather entry: %w", err)
	}

	if err := s.redis.Set(ctx, cityKey(city), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set weather in redis: %w", err)
	}

	return nil
}
