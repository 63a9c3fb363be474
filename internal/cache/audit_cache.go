package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/haysimo/siteops/internal/config"
	"github.com/haysimo/siteops/internal/domain"
)

const (
	auditListKeyPrefix = "audit:list"
	auditScanBatchSize = 100
)

// AuditFilter narrows an audit listing. Kind empty means every kind; Date nil
// means every day. Date matching is UTC calendar-day equality.
type AuditFilter struct {
	Kind domain.MutationKind
	Date *time.Time
}

// AuditCache is a read-through cache for audit listings. Every mutation and
// every restore invalidates it wholesale.
type AuditCache interface {
	Get(ctx context.Context, filter AuditFilter) ([]domain.AuditEntry, bool, error)
	Set(ctx context.Context, filter AuditFilter, entries []domain.AuditEntry) error
	InvalidateAll(ctx context.Context) error
}

type redisAuditCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopAuditCache struct{}

func NewAuditCache(cfg config.CacheConfig) (AuditCache, error) {
	if !cfg.Enabled {
		return &noopAuditCache{}, nil
	}

	client, ttl, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	return &redisAuditCache{client: client, ttl: ttl}, nil
}

func NewNoopAuditCache() AuditCache {
	return &noopAuditCache{}
}

func (c *redisAuditCache) Get(ctx context.Context, filter AuditFilter) ([]domain.AuditEntry, bool, error) {
	payload, err := c.client.Get(ctx, buildAuditListKey(filter)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var entries []domain.AuditEntry
	if err := json.Unmarshal(payload, &entries); err != nil {
		return nil, false, fmt.Errorf("decode audit list cache: %w", err)
	}

	return entries, true, nil
}

func (c *redisAuditCache) Set(ctx context.Context, filter AuditFilter, entries []domain.AuditEntry) error {
	payload, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encode audit list cache: %w", err)
	}

	if err := c.client.Set(ctx, buildAuditListKey(filter), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisAuditCache) InvalidateAll(ctx context.Context) error {
	return deleteKeysWithPrefix(ctx, c.client, auditListKeyPrefix, auditScanBatchSize)
}

func (n *noopAuditCache) Get(ctx context.Context, filter AuditFilter) ([]domain.AuditEntry, bool, error) {
	return nil, false, nil
}

func (n *noopAuditCache) Set(ctx context.Context, filter AuditFilter, entries []domain.AuditEntry) error {
	return nil
}

func (n *noopAuditCache) InvalidateAll(ctx context.Context) error {
	return nil
}

func buildAuditListKey(filter AuditFilter) string {
	return fmt.Sprintf("%s:%s", auditListKeyPrefix, auditFilterHash(filter))
}

func auditFilterHash(filter AuditFilter) string {
	parts := []string{}
	if filter.Kind != "" {
		parts = append(parts, "kind="+string(filter.Kind))
	}
	if filter.Date != nil {
		parts = append(parts, "date="+filter.Date.UTC().Format("2006-01-02"))
	}

	if len(parts) == 0 {
		return "default"
	}

	sum := sha1.Sum([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}
