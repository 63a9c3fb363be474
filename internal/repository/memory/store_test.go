// internal/repository/memory/store_test.go
package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haysimo/siteops/internal/repository"
)

func TestGetMissingDocument(t *testing.T) {
	store := NewStore()
	_, err := store.GetDocument(context.Background(), "inventory", "stock")
	assert.ErrorIs(t, err, repository.ErrDocumentNotFound)
}

func TestInsertAndGet(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	id, err := store.InsertDocument(ctx, "complaints", repository.Document{"machine": "filler-1"})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	doc, err := store.GetDocument(ctx, "complaints", id)
	require.NoError(t, err)
	assert.Equal(t, int64(1), doc.Version)
	assert.Equal(t, "filler-1", doc.Fields["machine"])
}

func TestUpdateDocumentCAS(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	require.NoError(t, store.PutDocument(ctx, "inventory", "stock", repository.Document{"n": 1}))

	doc, err := store.GetDocument(ctx, "inventory", "stock")
	require.NoError(t, err)

	// A write with the current version succeeds and bumps the version.
	require.NoError(t, store.UpdateDocument(ctx, "inventory", "stock", doc.Version, repository.Document{"n": 2}))

	// The stale version now loses.
	err = store.UpdateDocument(ctx, "inventory", "stock", doc.Version, repository.Document{"n": 3})
	assert.ErrorIs(t, err, repository.ErrVersionConflict)

	err = store.UpdateDocument(ctx, "inventory", "missing", 1, repository.Document{})
	assert.ErrorIs(t, err, repository.ErrDocumentNotFound)
}

func TestCommitMutationAtomicity(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	require.NoError(t, store.PutDocument(ctx, "inventory", "stock", repository.Document{"n": 1}))

	// A stale commit writes neither the stock nor the audit entry.
	_, err := store.CommitMutation(ctx, "inventory", "stock", 99,
		repository.Document{"n": 2}, "sales", repository.Document{"items": 1})
	assert.ErrorIs(t, err, repository.ErrVersionConflict)

	entries, err := store.ListDocuments(ctx, "sales")
	require.NoError(t, err)
	assert.Empty(t, entries)

	doc, err := store.GetDocument(ctx, "inventory", "stock")
	require.NoError(t, err)
	assert.Equal(t, 1, doc.Fields["n"])

	// A commit at the right version writes both.
	entryID, err := store.CommitMutation(ctx, "inventory", "stock", doc.Version,
		repository.Document{"n": 2}, "sales", repository.Document{"items": 1})
	require.NoError(t, err)
	require.NotEmpty(t, entryID)

	entries, err = store.ListDocuments(ctx, "sales")
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestCommitMutationMissingStock(t *testing.T) {
	store := NewStore()
	_, err := store.CommitMutation(context.Background(), "inventory", "stock", 1,
		repository.Document{}, "sales", repository.Document{})
	assert.ErrorIs(t, err, repository.ErrDocumentNotFound)
}

func TestReplaceAll(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	require.NoError(t, store.PutDocument(ctx, "sales", "old", repository.Document{"n": 1}))
	require.NoError(t, store.PutDocument(ctx, "machines", "m-1", repository.Document{"name": "pump"}))

	err := store.ReplaceAll(ctx, map[string][]repository.StoredDocument{
		"sales": {{ID: "new", Fields: repository.Document{"n": 2}}},
	})
	require.NoError(t, err)

	// The named collection is replaced wholesale.
	_, err = store.GetDocument(ctx, "sales", "old")
	assert.ErrorIs(t, err, repository.ErrDocumentNotFound)
	doc, err := store.GetDocument(ctx, "sales", "new")
	require.NoError(t, err)
	assert.Equal(t, 2, doc.Fields["n"])
	assert.Equal(t, int64(1), doc.Version)

	// Unnamed collections are untouched.
	_, err = store.GetDocument(ctx, "machines", "m-1")
	assert.NoError(t, err)
}

func TestDocumentsAreIsolatedFromCallers(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	fields := repository.Document{"nested": map[string]any{"count": 1}}
	require.NoError(t, store.PutDocument(ctx, "inventory", "stock", fields))

	// Mutating the caller's map must not leak into the store.
	fields["nested"].(map[string]any)["count"] = 99

	doc, err := store.GetDocument(ctx, "inventory", "stock")
	require.NoError(t, err)
	assert.Equal(t, 1, doc.Fields["nested"].(map[string]any)["count"])

	// And mutating a read result must not leak back either.
	doc.Fields["nested"].(map[string]any)["count"] = 42
	again, err := store.GetDocument(ctx, "inventory", "stock")
	require.NoError(t, err)
	assert.Equal(t, 1, again.Fields["nested"].(map[string]any)["count"])
}
