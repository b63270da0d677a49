package cache

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/recupera/backend/internal/config"
	"github.com/recupera/backend/internal/services/registry"
)

const registryKeyPrefix = "registry:cnpj:"

// RegistryCache caches registry lookup responses in Redis so repeated
// enrichment runs do not burn upstream quota on CNPJs fetched recently
type RegistryCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRegistryCache connects to Redis and returns a cache. Returns nil
// (cache disabled) when no Redis URL is configured or the connection
// fails; enrichment works without it.
func NewRegistryCache(cfg config.RedisConfig, ttl time.Duration) *RegistryCache {
	if cfg.URL == "" {
		return nil
	}

	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		log.Printf("registry cache: invalid redis url, caching disabled: %v", err)
		return nil
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}
	opts.DB = cfg.DB

	client := redis.NewClient(opts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		log.Printf("registry cache: redis unreachable, caching disabled: %v", err)
		return nil
	}

	return &RegistryCache{client: client, ttl: ttl}
}

// Get returns the cached record for a CNPJ, if any
func (c *RegistryCache) Get(ctx context.Context, cnpj string) (*registry.Record, bool) {
	data, err := c.client.Get(ctx, registryKeyPrefix+cnpj).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Printf("registry cache: get failed for %s: %v", cnpj, err)
		}
		return nil, false
	}

	var record registry.Record
	if err := json.Unmarshal(data, &record); err != nil {
		log.Printf("registry cache: corrupt entry for %s: %v", cnpj, err)
		return nil, false
	}
	return &record, true
}

// Set stores a record with the configured TTL. Failures are logged and
// swallowed; the cache is best effort.
func (c *RegistryCache) Set(ctx context.Context, cnpj string, record *registry.Record) {
	data, err := json.Marshal(record)
	if err != nil {
		log.Printf("registry cache: marshal failed for %s: %v", cnpj, err)
		return
	}
	if err := c.client.Set(ctx, registryKeyPrefix+cnpj, data, c.ttl).Err(); err != nil {
		log.Printf("registry cache: set failed for %s: %v", cnpj, err)
	}
}
