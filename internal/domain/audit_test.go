// internal/domain/audit_test.go
package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMutationKind(t *testing.T) {
	for _, label := range []string{"sale", "SALE", " usage ", "addition"} {
		_, ok := ParseMutationKind(label)
		assert.True(t, ok, label)
	}

	_, ok := ParseMutationKind("refund")
	assert.False(t, ok)
}

func TestAdditive(t *testing.T) {
	assert.True(t, MutationAddition.Additive())
	assert.False(t, MutationSale.Additive())
	assert.False(t, MutationUsage.Additive())
}

func TestAuditEntryFieldsSale(t *testing.T) {
	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	entry := AuditEntry{
		Kind:      MutationSale,
		Customer:  "Musa",
		Items:     map[string]ItemDelta{"water_500ml": {Value: 3}},
		Timestamp: ts,
	}

	fields := entry.Fields()
	assert.Equal(t, "Musa", fields["customer_name"])
	assert.Equal(t, ts, fields["timestamp"])

	items := fields["items"].(map[string]any)
	assert.Equal(t, 3, items["water_500ml"], "sale quantities are stored as bare integers")
}

func TestAuditEntryFieldsUsage(t *testing.T) {
	entry := AuditEntry{
		Kind:  MutationUsage,
		Items: map[string]ItemDelta{"chlorine": {Value: 0.5, Unit: "Kg"}},
	}

	fields := entry.Fields()
	_, hasCustomer := fields["customer_name"]
	assert.False(t, hasCustomer, "only sales carry a customer")

	items := fields["items"].(map[string]any)
	chlorine := items["chlorine"].(map[string]any)
	assert.Equal(t, 0.5, chlorine["value"])
	assert.Equal(t, "Kg", chlorine["unit"])
}

func TestAuditEntryFromFieldsRoundTrip(t *testing.T) {
	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	entry := AuditEntry{
		Kind:      MutationAddition,
		Items:     map[string]ItemDelta{"antiscalant": {Value: 20, Unit: "Ltr"}},
		Timestamp: ts,
	}

	got := AuditEntryFromFields(MutationAddition, "abc", entry.Fields())
	assert.Equal(t, "abc", got.ID)
	assert.Equal(t, entry.Items, got.Items)
	assert.True(t, got.Timestamp.Equal(ts))
}

func TestAuditEntryFromFieldsTimestampHandling(t *testing.T) {
	got := AuditEntryFromFields(MutationSale, "a", map[string]any{
		"timestamp": "2025-06-01T12:00:00Z",
		"items":     map[string]any{"water_250ml": 2},
	})
	require.False(t, got.Timestamp.IsZero())
	assert.Equal(t, ItemDelta{Value: 2}, got.Items["water_250ml"])

	// Unreadable timestamps degrade to the zero time instead of dropping the
	// entry.
	got = AuditEntryFromFields(MutationSale, "b", map[string]any{
		"timestamp": "not a timestamp",
	})
	assert.True(t, got.Timestamp.IsZero())

	got = AuditEntryFromFields(MutationSale, "c", map[string]any{})
	assert.True(t, got.Timestamp.IsZero())
}
