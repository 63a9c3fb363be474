// internal/repository/store.go
package repository

import (
	"context"
	"errors"

	"github.com/haysimo/siteops/internal/domain"
)

// Document is the schemaless field set of one stored document. Values are
// plain JSON-compatible Go values plus time.Time for server timestamps.
type Document map[string]any

// StoredDocument is a document together with its identity and version. The
// version increments on every write and backs the compare-and-swap update.
type StoredDocument struct {
	ID      string
	Version int64
	Fields  Document
}

var (
	// ErrDocumentNotFound is returned when a collection/id pair does not exist.
	ErrDocumentNotFound = errors.New("document not found")
	// ErrVersionConflict is returned by conditional writes when the document
	// changed since it was read. Callers re-read and retry.
	ErrVersionConflict = errors.New("document version conflict")
)

// Persisted collection layout shared by the ledger, snapshot and API layers.
const (
	CollectionInventory  = "inventory"
	CollectionSales      = "sales"
	CollectionUsage      = "usage"
	CollectionAdditions  = "additions"
	CollectionComplaints = "complaints"
	CollectionEmployees  = "employees"
	CollectionMachines   = "machines"

	// StockDocumentID is the id of the single shared stock record inside
	// CollectionInventory.
	StockDocumentID = "stock"
)

// AuditCollection maps a mutation kind to the collection its entries live in.
func AuditCollection(kind domain.MutationKind) string {
	switch kind {
	case domain.MutationSale:
		return CollectionSales
	case domain.MutationUsage:
		return CollectionUsage
	default:
		return CollectionAdditions
	}
}

// TrackedCollections is the full set of collections covered by snapshot
// export and eligible for restore.
func TrackedCollections() []string {
	return []string{
		CollectionInventory,
		CollectionSales,
		CollectionUsage,
		CollectionAdditions,
		CollectionComplaints,
		CollectionEmployees,
		CollectionMachines,
	}
}

// Store is the document-store handle injected into every service. Both the
// postgres and the in-memory implementation satisfy it.
type Store interface {
	// GetDocument returns one document or ErrDocumentNotFound.
	GetDocument(ctx context.Context, collection, id string) (*StoredDocument, error)

	// InsertDocument stores a new document under a generated id.
	InsertDocument(ctx context.Context, collection string, fields Document) (string, error)

	// PutDocument creates or unconditionally replaces a document.
	PutDocument(ctx context.Context, collection, id string, fields Document) error

	// UpdateDocument replaces a document only if its version still equals
	// expectedVersion; otherwise ErrVersionConflict.
	UpdateDocument(ctx context.Context, collection, id string, expectedVersion int64, fields Document) error

	// DeleteDocument removes a document; missing documents are not an error.
	DeleteDocument(ctx context.Context, collection, id string) error

	// ListDocuments returns every document in a collection.
	ListDocuments(ctx context.Context, collection string) ([]StoredDocument, error)

	// CommitMutation writes the new stock fields (conditioned on
	// expectedVersion) and appends one audit entry as a single atomic unit.
	// Returns the generated entry id, ErrDocumentNotFound if the stock
	// document does not exist, or ErrVersionConflict on a stale version.
	CommitMutation(ctx context.Context, stockCollection, stockID string, expectedVersion int64, stockFields Document, entryCollection string, entryFields Document) (string, error)

	// ReplaceAll atomically replaces the entire content of every listed
	// collection. Collections not listed are untouched.
	ReplaceAll(ctx context.Context, collections map[string][]StoredDocument) error
}
