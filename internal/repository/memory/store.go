// Package memory is an in-memory Store used by tests and local tooling. It
// keeps the same versioning and atomicity semantics as the postgres store.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/haysimo/siteops/internal/repository"
)

type document struct {
	version int64
	fields  repository.Document
}

// Store holds every collection behind one mutex; commit and replace
// operations are therefore trivially atomic.
type Store struct {
	mu          sync.RWMutex
	collections map[string]map[string]*document
}

func NewStore() *Store {
	return &Store{collections: make(map[string]map[string]*document)}
}

var _ repository.Store = (*Store)(nil)

func (s *Store) GetDocument(ctx context.Context, collection, id string) (*repository.StoredDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.collections[collection][id]
	if !ok {
		return nil, repository.ErrDocumentNotFound
	}

	return &repository.StoredDocument{
		ID:      id,
		Version: doc.version,
		Fields:  cloneFields(doc.fields),
	}, nil
}

func (s *Store) InsertDocument(ctx context.Context, collection string, fields repository.Document) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.NewString()
	s.put(collection, id, fields, 1)
	return id, nil
}

func (s *Store) PutDocument(ctx context.Context, collection, id string, fields repository.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	version := int64(1)
	if existing, ok := s.collections[collection][id]; ok {
		version = existing.version + 1
	}
	s.put(collection, id, fields, version)
	return nil
}

func (s *Store) UpdateDocument(ctx context.Context, collection, id string, expectedVersion int64, fields repository.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.collections[collection][id]
	if !ok {
		return repository.ErrDocumentNotFound
	}
	if existing.version != expectedVersion {
		return repository.ErrVersionConflict
	}

	s.put(collection, id, fields, expectedVersion+1)
	return nil
}

func (s *Store) DeleteDocument(ctx context.Context, collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.collections[collection], id)
	return nil
}

func (s *Store) ListDocuments(ctx context.Context, collection string) ([]repository.StoredDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := make([]repository.StoredDocument, 0, len(s.collections[collection]))
	for id, doc := range s.collections[collection] {
		docs = append(docs, repository.StoredDocument{
			ID:      id,
			Version: doc.version,
			Fields:  cloneFields(doc.fields),
		})
	}
	return docs, nil
}

func (s *Store) CommitMutation(ctx context.Context, stockCollection, stockID string, expectedVersion int64, stockFields repository.Document, entryCollection string, entryFields repository.Document) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stock, ok := s.collections[stockCollection][stockID]
	if !ok {
		return "", repository.ErrDocumentNotFound
	}
	if stock.version != expectedVersion {
		return "", repository.ErrVersionConflict
	}

	s.put(stockCollection, stockID, stockFields, expectedVersion+1)

	entryID := uuid.NewString()
	s.put(entryCollection, entryID, entryFields, 1)
	return entryID, nil
}

func (s *Store) ReplaceAll(ctx context.Context, collections map[string][]repository.StoredDocument) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for name, docs := range collections {
		fresh := make(map[string]*document, len(docs))
		for _, doc := range docs {
			version := doc.Version
			if version <= 0 {
				version = 1
			}
			fresh[doc.ID] = &document{version: version, fields: cloneFields(doc.Fields)}
		}
		s.collections[name] = fresh
	}
	return nil
}

// put assumes the caller holds the write lock.
func (s *Store) put(collection, id string, fields repository.Document, version int64) {
	coll, ok := s.collections[collection]
	if !ok {
		coll = make(map[string]*document)
		s.collections[collection] = coll
	}
	coll[id] = &document{version: version, fields: cloneFields(fields)}
}

// cloneFields deep-copies a document so callers never share nested maps with
// the store.
func cloneFields(fields repository.Document) repository.Document {
	if fields == nil {
		return repository.Document{}
	}
	return cloneValue(map[string]any(fields)).(map[string]any)
}

func cloneValue(v any) any {
	switch typed := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(typed))
		for k, inner := range typed {
			out[k] = cloneValue(inner)
		}
		return out
	case repository.Document:
		return cloneValue(map[string]any(typed))
	case []any:
		out := make([]any, len(typed))
		for i, inner := range typed {
			out[i] = cloneValue(inner)
		}
		return out
	case time.Time:
		return typed
	default:
		return typed
	}
}
