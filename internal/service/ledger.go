// internal/service/ledger.go
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/haysimo/siteops/internal/cache"
	"github.com/haysimo/siteops/internal/domain"
	"github.com/haysimo/siteops/internal/repository"
)

// maxMutationAttempts bounds the optimistic retry loop. Past this the
// conflict is surfaced to the caller as retryable.
const maxMutationAttempts = 5

var (
	// ErrStockRecordMissing means the shared stock document was never
	// initialized. Fatal; there is nothing to retry against.
	ErrStockRecordMissing = errors.New("stock record missing")
	// ErrConflictExhausted means the bounded retry loop lost every attempt to
	// a concurrent writer. The caller may resubmit.
	ErrConflictExhausted = errors.New("transaction conflict retries exhausted")
	// ErrItemNotSellable rejects a sale that targets a chemical item.
	ErrItemNotSellable = errors.New("item cannot be sold")
)

// MutationMeta carries caller metadata for a mutation. Only sales use it.
type MutationMeta struct {
	Customer string
}

// LedgerService applies inventory mutations. It is safe for concurrent use;
// serialization happens entirely through the store's conditional writes.
type LedgerService struct {
	store repository.Store
	cache cache.AuditCache
	now   func() time.Time
}

func NewLedgerService(store repository.Store, auditCache cache.AuditCache) *LedgerService {
	if auditCache == nil {
		auditCache = cache.NewNoopAuditCache()
	}
	return &LedgerService{
		store: store,
		cache: auditCache,
		now:   time.Now,
	}
}

// ApplyMutation applies one logical sale, usage or addition. The stock write
// and its audit entry commit together or not at all. An empty effective delta
// set is a successful no-op and writes nothing; the returned entry id is
// empty in that case.
func (s *LedgerService) ApplyMutation(ctx context.Context, kind domain.MutationKind, deltas map[string]domain.ItemDelta, meta MutationMeta) (string, error) {
	for attempt := 0; attempt < maxMutationAttempts; attempt++ {
		stockDoc, err := s.store.GetDocument(ctx, repository.CollectionInventory, repository.StockDocumentID)
		if errors.Is(err, repository.ErrDocumentNotFound) {
			return "", ErrStockRecordMissing
		}
		if err != nil {
			return "", fmt.Errorf("could not read stock record: %w", err)
		}

		record := domain.StockRecordFromFields(stockDoc.Fields)
		applied := effectiveDeltas(record, deltas)
		if len(applied) == 0 {
			return "", nil
		}

		if kind == domain.MutationSale {
			for key := range applied {
				if !record[key].Sellable() {
					return "", fmt.Errorf("%w: %s", ErrItemNotSellable, key)
				}
			}
		}

		for key, delta := range applied {
			override, _ := domain.ParseUnit(delta.Unit)
			record[key] = record[key].ApplyDelta(kind.Additive(), delta.Value, override)
		}

		entry := domain.AuditEntry{
			Kind:      kind,
			Customer:  meta.Customer,
			Items:     applied,
			Timestamp: s.now().UTC(),
		}

		entryID, err := s.store.CommitMutation(ctx,
			repository.CollectionInventory, repository.StockDocumentID,
			stockDoc.Version, record.Fields(),
			repository.AuditCollection(kind), entry.Fields())
		if errors.Is(err, repository.ErrVersionConflict) {
			log.Debug().
				Str("kind", string(kind)).
				Int("attempt", attempt+1).
				Msg("stock version conflict, retrying")
			continue
		}
		if errors.Is(err, repository.ErrDocumentNotFound) {
			return "", ErrStockRecordMissing
		}
		if err != nil {
			return "", fmt.Errorf("could not commit %s mutation: %w", kind, err)
		}

		if err := s.cache.InvalidateAll(ctx); err != nil {
			log.Warn().Err(err).Msg("could not invalidate audit cache")
		}
		return entryID, nil
	}

	return "", ErrConflictExhausted
}

// Stock returns the current stock record.
func (s *LedgerService) Stock(ctx context.Context) (domain.StockRecord, error) {
	doc, err := s.store.GetDocument(ctx, repository.CollectionInventory, repository.StockDocumentID)
	if errors.Is(err, repository.ErrDocumentNotFound) {
		return nil, ErrStockRecordMissing
	}
	if err != nil {
		return nil, fmt.Errorf("could not read stock record: %w", err)
	}
	return domain.StockRecordFromFields(doc.Fields), nil
}

// InitStock creates the shared stock document if it does not exist yet.
// Existing stock is left untouched.
func (s *LedgerService) InitStock(ctx context.Context, record domain.StockRecord) error {
	_, err := s.store.GetDocument(ctx, repository.CollectionInventory, repository.StockDocumentID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, repository.ErrDocumentNotFound) {
		return fmt.Errorf("could not read stock record: %w", err)
	}
	return s.store.PutDocument(ctx, repository.CollectionInventory, repository.StockDocumentID, record.Fields())
}

// effectiveDeltas keeps only strictly-positive deltas on keys the ledger
// knows about. Zero, negative, absent and unknown-key entries fall out here,
// which also keeps them out of the audit entry.
func effectiveDeltas(record domain.StockRecord, deltas map[string]domain.ItemDelta) map[string]domain.ItemDelta {
	applied := make(map[string]domain.ItemDelta, len(deltas))
	for key, delta := range deltas {
		if delta.Value <= 0 {
			continue
		}
		if _, known := record[key]; !known {
			continue
		}
		applied[key] = delta
	}
	return applied
}
