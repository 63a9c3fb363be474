// internal/service/audit_test.go
package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haysimo/siteops/internal/cache"
	"github.com/haysimo/siteops/internal/domain"
	"github.com/haysimo/siteops/internal/repository"
	"github.com/haysimo/siteops/internal/repository/memory"
)

func seedAuditEntries(t *testing.T, store repository.Store) {
	t.Helper()
	ctx := context.Background()

	puts := []struct {
		collection string
		id         string
		fields     repository.Document
	}{
		{repository.CollectionSales, "s-early", repository.Document{
			"customer_name": "Bola",
			"items":         map[string]any{"water_250ml": 2},
			"timestamp":     time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC),
		}},
		{repository.CollectionSales, "s-late", repository.Document{
			"customer_name": "Chidi",
			"items":         map[string]any{"water_500ml": 1},
			"timestamp":     time.Date(2025, 6, 1, 17, 0, 0, 0, time.UTC),
		}},
		{repository.CollectionUsage, "u-1", repository.Document{
			"items":     map[string]any{"chlorine": map[string]any{"value": 0.5, "unit": "Kg"}},
			"timestamp": time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC),
		}},
		{repository.CollectionAdditions, "a-broken", repository.Document{
			"items": map[string]any{"water_250ml": map[string]any{"value": 100.0}},
			// no timestamp at all
		}},
	}
	for _, p := range puts {
		require.NoError(t, store.PutDocument(ctx, p.collection, p.id, p.fields))
	}
}

func TestAuditListAllKindsNewestFirst(t *testing.T) {
	store := memory.NewStore()
	seedAuditEntries(t, store)
	svc := NewAuditService(store, nil)

	entries, err := svc.List(context.Background(), cache.AuditFilter{})
	require.NoError(t, err)
	require.Len(t, entries, 4)

	assert.Equal(t, "u-1", entries[0].ID)
	assert.Equal(t, "s-late", entries[1].ID)
	assert.Equal(t, "s-early", entries[2].ID)
	// The entry with no readable timestamp sorts last but is never dropped.
	assert.Equal(t, "a-broken", entries[3].ID)
	assert.True(t, entries[3].Timestamp.IsZero())
}

func TestAuditListKindFilter(t *testing.T) {
	store := memory.NewStore()
	seedAuditEntries(t, store)
	svc := NewAuditService(store, nil)

	entries, err := svc.List(context.Background(), cache.AuditFilter{Kind: domain.MutationSale})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.Equal(t, domain.MutationSale, e.Kind)
	}
}

func TestAuditListDateFilter(t *testing.T) {
	store := memory.NewStore()
	seedAuditEntries(t, store)
	svc := NewAuditService(store, nil)

	day := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	entries, err := svc.List(context.Background(), cache.AuditFilter{Date: &day})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "s-late", entries[0].ID)
	assert.Equal(t, "s-early", entries[1].ID)

	// Entries without a usable timestamp never match a date filter.
	empty := time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)
	entries, err = svc.List(context.Background(), cache.AuditFilter{Date: &empty})
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestAuditListDateFilterIsUTC(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	// 23:30 UTC on June 1st is already June 2nd in UTC+1; the filter must
	// stay on UTC calendar days.
	require.NoError(t, store.PutDocument(ctx, repository.CollectionSales, "s-night", repository.Document{
		"items":     map[string]any{"water_250ml": 1},
		"timestamp": time.Date(2025, 6, 1, 23, 30, 0, 0, time.UTC),
	}))
	svc := NewAuditService(store, nil)

	june1 := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	entries, err := svc.List(ctx, cache.AuditFilter{Date: &june1})
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	june2 := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	entries, err = svc.List(ctx, cache.AuditFilter{Date: &june2})
	require.NoError(t, err)
	assert.Empty(t, entries)
}
