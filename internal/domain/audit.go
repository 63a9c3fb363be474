// internal/domain/audit.go
package domain

import (
	"strings"
	"time"
)

// MutationKind is the kind of one logical ledger mutation.
type MutationKind string

const (
	MutationSale     MutationKind = "sale"
	MutationUsage    MutationKind = "usage"
	MutationAddition MutationKind = "addition"
)

// MutationKinds lists every kind, in the order audit listings merge them.
func MutationKinds() []MutationKind {
	return []MutationKind{MutationSale, MutationUsage, MutationAddition}
}

// ParseMutationKind returns the kind for a label (case-insensitive).
func ParseMutationKind(label string) (MutationKind, bool) {
	switch MutationKind(strings.ToLower(strings.TrimSpace(label))) {
	case MutationSale:
		return MutationSale, true
	case MutationUsage:
		return MutationUsage, true
	case MutationAddition:
		return MutationAddition, true
	}
	return "", false
}

// Additive reports whether the mutation adds stock. Sales and usage deduct.
func (k MutationKind) Additive() bool {
	return k == MutationAddition
}

// ItemDelta is one caller-supplied quantity for a single item key. Unit is
// only honoured on additions against measured items.
type ItemDelta struct {
	Value float64 `json:"value"`
	Unit  string  `json:"unit,omitempty"`
}

// AuditEntry is the immutable record of one applied mutation. Entries are
// created only by the ledger engine, alongside the stock write they describe.
type AuditEntry struct {
	ID        string               `json:"id"`
	Kind      MutationKind         `json:"kind"`
	Customer  string               `json:"customer_name,omitempty"`
	Items     map[string]ItemDelta `json:"items"`
	Timestamp time.Time            `json:"timestamp"`
}

// Fields flattens the entry into a plain document for storage. Sale items are
// stored as bare integer quantities; usage and addition items keep value+unit.
func (e AuditEntry) Fields() map[string]any {
	items := make(map[string]any, len(e.Items))
	for key, d := range e.Items {
		if e.Kind == MutationSale {
			items[key] = int(d.Value)
			continue
		}
		item := map[string]any{"value": d.Value}
		if d.Unit != "" {
			item["unit"] = d.Unit
		}
		items[key] = item
	}

	fields := map[string]any{
		"items":     items,
		"timestamp": e.Timestamp,
	}
	if e.Kind == MutationSale {
		fields["customer_name"] = e.Customer
	}
	return fields
}

// AuditEntryFromFields rebuilds an entry of the given kind from a stored
// document. A missing or unreadable timestamp yields the zero time; the entry
// is still returned so listings never drop records.
func AuditEntryFromFields(kind MutationKind, id string, fields map[string]any) AuditEntry {
	entry := AuditEntry{
		ID:    id,
		Kind:  kind,
		Items: map[string]ItemDelta{},
	}

	if customer, ok := fields["customer_name"].(string); ok {
		entry.Customer = customer
	}

	switch ts := fields["timestamp"].(type) {
	case time.Time:
		entry.Timestamp = ts
	case string:
		if parsed, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			entry.Timestamp = parsed
		}
	}

	items, _ := fields["items"].(map[string]any)
	for key, raw := range items {
		switch v := raw.(type) {
		case map[string]any:
			d := ItemDelta{Value: asFloat(v["value"])}
			if unit, ok := v["unit"].(string); ok {
				d.Unit = unit
			}
			entry.Items[key] = d
		default:
			entry.Items[key] = ItemDelta{Value: asFloat(raw)}
		}
	}

	return entry
}
