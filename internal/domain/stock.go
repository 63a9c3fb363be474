// internal/domain/stock.go
package domain

import "encoding/json"

// Unit is the measurement unit attached to a chemical stock item.
type Unit string

const (
	UnitKg   Unit = "Kg"
	UnitLtr  Unit = "Ltr"
	UnitGram Unit = "g"
	UnitMl   Unit = "ml"
)

var knownUnits = map[Unit]bool{
	UnitKg:   true,
	UnitLtr:  true,
	UnitGram: true,
	UnitMl:   true,
}

// ParseUnit validates a caller-supplied unit label.
func ParseUnit(s string) (Unit, bool) {
	u := Unit(s)
	return u, knownUnits[u]
}

// ItemKind discriminates the three stock item variants. A key keeps the same
// kind for its whole lifetime; mutations only touch the numeric fields.
type ItemKind string

const (
	ItemScalar   ItemKind = "scalar"   // finished goods counted by piece
	ItemCarton   ItemKind = "carton"   // finished goods tracked by whole cartons
	ItemMeasured ItemKind = "measured" // chemicals, value + unit
)

// StockItem is the tagged variant for one inventory key. Only the fields
// matching Kind are meaningful.
type StockItem struct {
	Kind    ItemKind `json:"kind"`
	Count   int      `json:"count,omitempty"`
	Cartons int      `json:"cartons,omitempty"`
	Value   float64  `json:"value,omitempty"`
	Unit    Unit     `json:"unit,omitempty"`
}

// ApplyDelta returns the item updated by delta. Additions add, usage and
// sales subtract. Counted variants truncate to integer; no floor is applied,
// so values may go negative. On an addition a valid unit override relabels a
// measured item; deductions never change the stored unit.
func (it StockItem) ApplyDelta(additive bool, delta float64, unitOverride Unit) StockItem {
	signed := delta
	if !additive {
		signed = -delta
	}

	switch it.Kind {
	case ItemScalar:
		it.Count = int(float64(it.Count) + signed)
	case ItemCarton:
		it.Cartons = int(float64(it.Cartons) + signed)
	case ItemMeasured:
		it.Value += signed
		if additive && knownUnits[unitOverride] {
			it.Unit = unitOverride
		}
	}

	return it
}

// Sellable reports whether the item may appear in a sale mutation. Chemicals
// are internal-use only.
func (it StockItem) Sellable() bool {
	return it.Kind == ItemScalar || it.Kind == ItemCarton
}

// Quantity returns the numeric amount currently on hand, whatever the variant.
func (it StockItem) Quantity() float64 {
	switch it.Kind {
	case ItemCarton:
		return float64(it.Cartons)
	case ItemMeasured:
		return it.Value
	default:
		return float64(it.Count)
	}
}

// StockRecord is the single shared document mapping item key to its variant.
type StockRecord map[string]StockItem

// Fields flattens the record into a plain document for storage.
func (r StockRecord) Fields() map[string]any {
	fields := make(map[string]any, len(r))
	for key, item := range r {
		encoded := map[string]any{"kind": string(item.Kind)}
		switch item.Kind {
		case ItemScalar:
			encoded["count"] = item.Count
		case ItemCarton:
			encoded["cartons"] = item.Cartons
		case ItemMeasured:
			encoded["value"] = item.Value
			encoded["unit"] = string(item.Unit)
		}
		fields[key] = encoded
	}
	return fields
}

// StockRecordFromFields rebuilds the record from a stored document. Fields
// that do not look like a stock item are skipped rather than failing the
// whole read.
func StockRecordFromFields(fields map[string]any) StockRecord {
	record := make(StockRecord, len(fields))
	for key, raw := range fields {
		encoded, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		kind, ok := encoded["kind"].(string)
		if !ok {
			continue
		}

		item := StockItem{Kind: ItemKind(kind)}
		switch item.Kind {
		case ItemScalar:
			item.Count = int(asFloat(encoded["count"]))
		case ItemCarton:
			item.Cartons = int(asFloat(encoded["cartons"]))
		case ItemMeasured:
			item.Value = asFloat(encoded["value"])
			if unit, ok := encoded["unit"].(string); ok {
				item.Unit = Unit(unit)
			}
		default:
			continue
		}
		record[key] = item
	}
	return record
}

func asFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case json.Number:
		f, _ := n.Float64()
		return f
	default:
		return 0
	}
}

// DefaultStockRecord returns the keyset a fresh site starts with: bottled
// water by piece and by carton, plus the treatment chemicals. Counts start at
// zero; additions bring real quantities in.
func DefaultStockRecord() StockRecord {
	return StockRecord{
		"water_250ml":         {Kind: ItemScalar},
		"water_500ml":         {Kind: ItemScalar},
		"water_1500ml":        {Kind: ItemScalar},
		"water_250ml_carton":  {Kind: ItemCarton},
		"water_500ml_carton":  {Kind: ItemCarton},
		"water_1500ml_carton": {Kind: ItemCarton},
		"chlorine":            {Kind: ItemMeasured, Unit: UnitKg},
		"antiscalant":         {Kind: ItemMeasured, Unit: UnitLtr},
	}
}

// cartonPieces maps carton-tracked item keys to the piece count of one
// carton. Display only; never consulted when mutating stock.
var cartonPieces = map[string]int{
	"water_250ml_carton":  24,
	"water_500ml_carton":  12,
	"water_1500ml_carton": 6,
}

// CartonConversions returns a copy of the carton-to-piece conversion table.
func CartonConversions() map[string]int {
	out := make(map[string]int, len(cartonPieces))
	for k, v := range cartonPieces {
		out[k] = v
	}
	return out
}
