// internal/service/audit.go
package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/haysimo/siteops/internal/cache"
	"github.com/haysimo/siteops/internal/domain"
	"github.com/haysimo/siteops/internal/repository"
)

// AuditService reads the append-only mutation log. Writes happen only inside
// the ledger engine's commit.
type AuditService struct {
	store repository.Store
	cache cache.AuditCache
}

func NewAuditService(store repository.Store, auditCache cache.AuditCache) *AuditService {
	if auditCache == nil {
		auditCache = cache.NewNoopAuditCache()
	}
	return &AuditService{store: store, cache: auditCache}
}

// List returns audit entries matching the filter, newest first. Entries with
// a missing or unreadable timestamp order as epoch zero and so come last;
// they are never dropped.
func (s *AuditService) List(ctx context.Context, filter cache.AuditFilter) ([]domain.AuditEntry, error) {
	if entries, hit, err := s.cache.Get(ctx, filter); err != nil {
		log.Warn().Err(err).Msg("audit cache read failed")
	} else if hit {
		return entries, nil
	}

	kinds := domain.MutationKinds()
	if filter.Kind != "" {
		kinds = []domain.MutationKind{filter.Kind}
	}

	var entries []domain.AuditEntry
	for _, kind := range kinds {
		docs, err := s.store.ListDocuments(ctx, repository.AuditCollection(kind))
		if err != nil {
			return nil, fmt.Errorf("could not list %s entries: %w", kind, err)
		}
		for _, doc := range docs {
			entry := domain.AuditEntryFromFields(kind, doc.ID, doc.Fields)
			if filter.Date != nil && !sameUTCDay(entry.Timestamp, *filter.Date) {
				continue
			}
			entries = append(entries, entry)
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})

	if err := s.cache.Set(ctx, filter, entries); err != nil {
		log.Warn().Err(err).Msg("audit cache write failed")
	}
	return entries, nil
}

// sameUTCDay reports calendar-day equality in UTC. An entry with no usable
// timestamp never matches a date filter.
func sameUTCDay(ts, day time.Time) bool {
	if ts.IsZero() {
		return false
	}
	y1, m1, d1 := ts.UTC().Date()
	y2, m2, d2 := day.UTC().Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}
