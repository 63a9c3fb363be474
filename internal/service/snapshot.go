// internal/service/snapshot.go
package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/haysimo/siteops/internal/cache"
	"github.com/haysimo/siteops/internal/repository"
	"github.com/haysimo/siteops/internal/snapshot"
)

// SnapshotService exports and restores the full dataset. Export reads each
// collection independently and may run alongside live mutations; the result
// is consistent per collection, not across collections. Restore replaces
// state wholesale and must not run concurrently with ledger traffic — that
// serialization is the caller's job.
type SnapshotService struct {
	store repository.Store
	cache cache.AuditCache
}

func NewSnapshotService(store repository.Store, auditCache cache.AuditCache) *SnapshotService {
	if auditCache == nil {
		auditCache = cache.NewNoopAuditCache()
	}
	return &SnapshotService{store: store, cache: auditCache}
}

// Export serializes every tracked collection into a portable JSON document.
func (s *SnapshotService) Export(ctx context.Context) ([]byte, error) {
	var (
		mu          sync.Mutex
		collections = make(map[string][]repository.StoredDocument)
	)

	g, gctx := errgroup.WithContext(ctx)
	for _, name := range repository.TrackedCollections() {
		g.Go(func() error {
			docs, err := s.store.ListDocuments(gctx, name)
			if err != nil {
				return fmt.Errorf("could not export collection %s: %w", name, err)
			}
			mu.Lock()
			collections[name] = docs
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return snapshot.Marshal(snapshot.Encode(collections))
}

// Import decodes a serialized snapshot and atomically replaces the content
// of every collection it names. Any decode failure aborts with no effect.
// This is the one operation allowed to discard the audit log; it is
// irreversible.
func (s *SnapshotService) Import(ctx context.Context, data []byte) error {
	snap, err := snapshot.Unmarshal(data)
	if err != nil {
		return err
	}

	collections, err := snapshot.Decode(snap)
	if err != nil {
		return err
	}

	if err := s.store.ReplaceAll(ctx, collections); err != nil {
		return fmt.Errorf("could not restore snapshot: %w", err)
	}

	if err := s.cache.InvalidateAll(ctx); err != nil {
		log.Warn().Err(err).Msg("could not invalidate audit cache after restore")
	}

	log.Info().Int("collections", len(collections)).Msg("snapshot restored")
	return nil
}
