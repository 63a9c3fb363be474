// internal/service/ledger_test.go
package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haysimo/siteops/internal/domain"
	"github.com/haysimo/siteops/internal/repository"
	"github.com/haysimo/siteops/internal/repository/memory"
)

func newLedgerFixture(t *testing.T, record domain.StockRecord) (*LedgerService, repository.Store) {
	t.Helper()
	store := memory.NewStore()
	svc := NewLedgerService(store, nil)
	require.NoError(t, svc.InitStock(context.Background(), record))
	return svc, store
}

func baseRecord() domain.StockRecord {
	return domain.StockRecord{
		"water_250ml":        {Kind: domain.ItemScalar, Count: 10},
		"water_500ml":        {Kind: domain.ItemScalar, Count: 10},
		"water_500ml_carton": {Kind: domain.ItemCarton, Cartons: 5},
		"chlorine":           {Kind: domain.ItemMeasured, Value: 4, Unit: domain.UnitKg},
	}
}

func TestApplySaleMutation(t *testing.T) {
	svc, store := newLedgerFixture(t, baseRecord())
	ctx := context.Background()

	entryID, err := svc.ApplyMutation(ctx, domain.MutationSale,
		map[string]domain.ItemDelta{"water_500ml": {Value: 3}},
		MutationMeta{Customer: "Hadiza"})
	require.NoError(t, err)
	require.NotEmpty(t, entryID)

	record, err := svc.Stock(ctx)
	require.NoError(t, err)
	assert.Equal(t, 7, record["water_500ml"].Count)
	assert.Equal(t, 10, record["water_250ml"].Count, "untouched keys keep their value")

	entries, err := store.ListDocuments(ctx, repository.CollectionSales)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Hadiza", entries[0].Fields["customer_name"])
}

func TestSparseDeltaSkipsZeroEntries(t *testing.T) {
	svc, store := newLedgerFixture(t, baseRecord())
	ctx := context.Background()

	entryID, err := svc.ApplyMutation(ctx, domain.MutationSale,
		map[string]domain.ItemDelta{
			"water_250ml": {Value: 0},
			"water_500ml": {Value: 3},
		}, MutationMeta{})
	require.NoError(t, err)
	require.NotEmpty(t, entryID)

	record, err := svc.Stock(ctx)
	require.NoError(t, err)
	assert.Equal(t, 10, record["water_250ml"].Count)
	assert.Equal(t, 7, record["water_500ml"].Count)

	// The audit entry only names the key that actually changed.
	entries, err := store.ListDocuments(ctx, repository.CollectionSales)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	items := entries[0].Fields["items"].(map[string]any)
	assert.Len(t, items, 1)
	assert.Contains(t, items, "water_500ml")
}

func TestEmptyDeltaIsSilentNoOp(t *testing.T) {
	svc, store := newLedgerFixture(t, baseRecord())
	ctx := context.Background()

	entryID, err := svc.ApplyMutation(ctx, domain.MutationUsage,
		map[string]domain.ItemDelta{"water_250ml": {Value: 0}}, MutationMeta{})
	require.NoError(t, err)
	assert.Empty(t, entryID)

	entries, err := store.ListDocuments(ctx, repository.CollectionUsage)
	require.NoError(t, err)
	assert.Empty(t, entries, "a no-op writes no audit entry")

	record, err := svc.Stock(ctx)
	require.NoError(t, err)
	assert.Equal(t, baseRecord(), record)
}

func TestUnknownKeysAreIgnored(t *testing.T) {
	svc, store := newLedgerFixture(t, baseRecord())
	ctx := context.Background()

	entryID, err := svc.ApplyMutation(ctx, domain.MutationAddition,
		map[string]domain.ItemDelta{
			"mystery_item": {Value: 5},
			"water_250ml":  {Value: 2},
		}, MutationMeta{})
	require.NoError(t, err)
	require.NotEmpty(t, entryID)

	record, err := svc.Stock(ctx)
	require.NoError(t, err)
	assert.Equal(t, 12, record["water_250ml"].Count)
	_, exists := record["mystery_item"]
	assert.False(t, exists, "mutations never create keys")

	entries, err := store.ListDocuments(ctx, repository.CollectionAdditions)
	require.NoError(t, err)
	items := entries[0].Fields["items"].(map[string]any)
	assert.NotContains(t, items, "mystery_item")
}

func TestSaleRejectsChemicalItems(t *testing.T) {
	svc, store := newLedgerFixture(t, baseRecord())
	ctx := context.Background()

	_, err := svc.ApplyMutation(ctx, domain.MutationSale,
		map[string]domain.ItemDelta{"chlorine": {Value: 1}}, MutationMeta{})
	assert.ErrorIs(t, err, ErrItemNotSellable)

	// Nothing was written.
	record, err := svc.Stock(ctx)
	require.NoError(t, err)
	assert.Equal(t, baseRecord(), record)
	entries, err := store.ListDocuments(ctx, repository.CollectionSales)
	require.NoError(t, err)
	assert.Empty(t, entries)

	// Usage against the same key is fine.
	_, err = svc.ApplyMutation(ctx, domain.MutationUsage,
		map[string]domain.ItemDelta{"chlorine": {Value: 1}}, MutationMeta{})
	assert.NoError(t, err)
}

func TestAdditionRelabelsMeasuredUnit(t *testing.T) {
	svc, _ := newLedgerFixture(t, baseRecord())
	ctx := context.Background()

	_, err := svc.ApplyMutation(ctx, domain.MutationAddition,
		map[string]domain.ItemDelta{"chlorine": {Value: 500, Unit: "g"}}, MutationMeta{})
	require.NoError(t, err)

	record, err := svc.Stock(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.UnitGram, record["chlorine"].Unit)
	assert.Equal(t, float64(504), record["chlorine"].Value)
}

func TestMissingStockRecord(t *testing.T) {
	svc := NewLedgerService(memory.NewStore(), nil)

	_, err := svc.ApplyMutation(context.Background(), domain.MutationSale,
		map[string]domain.ItemDelta{"water_250ml": {Value: 1}}, MutationMeta{})
	assert.ErrorIs(t, err, ErrStockRecordMissing)

	_, err = svc.Stock(context.Background())
	assert.ErrorIs(t, err, ErrStockRecordMissing)
}

func TestInitStockKeepsExistingRecord(t *testing.T) {
	svc, _ := newLedgerFixture(t, baseRecord())
	ctx := context.Background()

	require.NoError(t, svc.InitStock(ctx, domain.StockRecord{}))

	record, err := svc.Stock(ctx)
	require.NoError(t, err)
	assert.Equal(t, baseRecord(), record)
}

// conflictStore makes every commit lose until the remaining counter runs out.
type conflictStore struct {
	repository.Store
	mu        sync.Mutex
	conflicts int
}

func (s *conflictStore) CommitMutation(ctx context.Context, stockCollection, stockID string, expectedVersion int64, stockFields repository.Document, entryCollection string, entryFields repository.Document) (string, error) {
	s.mu.Lock()
	remaining := s.conflicts
	if remaining > 0 {
		s.conflicts--
	}
	s.mu.Unlock()

	if remaining > 0 {
		return "", repository.ErrVersionConflict
	}
	return s.Store.CommitMutation(ctx, stockCollection, stockID, expectedVersion, stockFields, entryCollection, entryFields)
}

func TestConflictRetrySucceeds(t *testing.T) {
	inner := memory.NewStore()
	store := &conflictStore{Store: inner, conflicts: 3}
	svc := NewLedgerService(store, nil)
	ctx := context.Background()
	require.NoError(t, svc.InitStock(ctx, baseRecord()))

	entryID, err := svc.ApplyMutation(ctx, domain.MutationSale,
		map[string]domain.ItemDelta{"water_250ml": {Value: 1}}, MutationMeta{})
	require.NoError(t, err)
	assert.NotEmpty(t, entryID)

	record, err := svc.Stock(ctx)
	require.NoError(t, err)
	assert.Equal(t, 9, record["water_250ml"].Count)
}

func TestConflictRetryExhaustion(t *testing.T) {
	inner := memory.NewStore()
	store := &conflictStore{Store: inner, conflicts: maxMutationAttempts}
	svc := NewLedgerService(store, nil)
	ctx := context.Background()
	require.NoError(t, svc.InitStock(ctx, baseRecord()))

	_, err := svc.ApplyMutation(ctx, domain.MutationSale,
		map[string]domain.ItemDelta{"water_250ml": {Value: 1}}, MutationMeta{})
	assert.ErrorIs(t, err, ErrConflictExhausted)

	// The losing attempts left no partial state behind.
	record, err := svc.Stock(ctx)
	require.NoError(t, err)
	assert.Equal(t, 10, record["water_250ml"].Count)
	entries, err := inner.ListDocuments(ctx, repository.CollectionSales)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestConcurrentSalesStaySerialized(t *testing.T) {
	svc, store := newLedgerFixture(t, domain.StockRecord{
		"water_250ml": {Kind: domain.ItemScalar, Count: 1},
	})
	ctx := context.Background()

	const writers = 4
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.ApplyMutation(ctx, domain.MutationSale,
				map[string]domain.ItemDelta{"water_250ml": {Value: 1}}, MutationMeta{})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	// Every sale landed exactly once: no lost updates, no double application.
	record, err := svc.Stock(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1-writers, record["water_250ml"].Count)

	entries, err := store.ListDocuments(ctx, repository.CollectionSales)
	require.NoError(t, err)
	assert.Len(t, entries, writers)
}

func TestMutationTimestampIsUTC(t *testing.T) {
	svc, store := newLedgerFixture(t, baseRecord())
	lagos := time.FixedZone("WAT", 60*60)
	svc.now = func() time.Time {
		return time.Date(2025, 6, 1, 13, 0, 0, 0, lagos)
	}
	ctx := context.Background()

	_, err := svc.ApplyMutation(ctx, domain.MutationUsage,
		map[string]domain.ItemDelta{"chlorine": {Value: 1}}, MutationMeta{})
	require.NoError(t, err)

	entries, err := store.ListDocuments(ctx, repository.CollectionUsage)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	ts := entries[0].Fields["timestamp"].(time.Time)
	assert.Equal(t, time.UTC, ts.Location())
	assert.Equal(t, 12, ts.Hour())
}
