// internal/repository/postgres/store.go
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/haysimo/siteops/internal/repository"
	"github.com/haysimo/siteops/internal/snapshot"
)

// Store implements repository.Store over a single jsonb documents table.
// Timestamp values inside fields are persisted with the snapshot codec's
// tagged wrapper so they come back as time.Time.
type Store struct {
	db *DB
}

func NewStore(db *DB) *Store {
	return &Store{db: db}
}

var _ repository.Store = (*Store)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	collection TEXT   NOT NULL,
	id         TEXT   NOT NULL,
	version    BIGINT NOT NULL DEFAULT 1,
	fields     JSONB  NOT NULL,
	PRIMARY KEY (collection, id)
)`

// Migrate creates the documents table if it does not exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("could not create documents table: %w", err)
	}
	return nil
}

func (s *Store) GetDocument(ctx context.Context, collection, id string) (*repository.StoredDocument, error) {
	var row struct {
		Version int64  `db:"version"`
		Fields  []byte `db:"fields"`
	}

	err := s.db.GetContext(ctx, &row,
		`SELECT version, fields FROM documents WHERE collection = $1 AND id = $2`, collection, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrDocumentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("could not read document %s/%s: %w", collection, id, err)
	}

	fields, err := unmarshalFields(row.Fields)
	if err != nil {
		return nil, err
	}

	return &repository.StoredDocument{ID: id, Version: row.Version, Fields: fields}, nil
}

func (s *Store) InsertDocument(ctx context.Context, collection string, fields repository.Document) (string, error) {
	payload, err := marshalFields(fields)
	if err != nil {
		return "", err
	}

	id := uuid.NewString()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO documents (collection, id, version, fields) VALUES ($1, $2, 1, $3)`,
		collection, id, payload)
	if err != nil {
		return "", fmt.Errorf("could not insert document into %s: %w", collection, err)
	}
	return id, nil
}

func (s *Store) PutDocument(ctx context.Context, collection, id string, fields repository.Document) error {
	payload, err := marshalFields(fields)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO documents (collection, id, version, fields)
		VALUES ($1, $2, 1, $3)
		ON CONFLICT (collection, id)
		DO UPDATE SET fields = EXCLUDED.fields, version = documents.version + 1`,
		collection, id, payload)
	if err != nil {
		return fmt.Errorf("could not upsert document %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *Store) UpdateDocument(ctx context.Context, collection, id string, expectedVersion int64, fields repository.Document) error {
	payload, err := marshalFields(fields)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE documents SET fields = $4, version = version + 1
		WHERE collection = $1 AND id = $2 AND version = $3`,
		collection, id, expectedVersion, payload)
	if err != nil {
		return fmt.Errorf("could not update document %s/%s: %w", collection, id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not read update result: %w", err)
	}
	if affected == 0 {
		// Distinguish a stale version from a missing document.
		var exists bool
		if err := s.db.GetContext(ctx, &exists,
			`SELECT EXISTS (SELECT 1 FROM documents WHERE collection = $1 AND id = $2)`, collection, id); err != nil {
			return fmt.Errorf("could not check document %s/%s: %w", collection, id, err)
		}
		if !exists {
			return repository.ErrDocumentNotFound
		}
		return repository.ErrVersionConflict
	}
	return nil
}

func (s *Store) DeleteDocument(ctx context.Context, collection, id string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM documents WHERE collection = $1 AND id = $2`, collection, id); err != nil {
		return fmt.Errorf("could not delete document %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *Store) ListDocuments(ctx context.Context, collection string) ([]repository.StoredDocument, error) {
	rows, err := s.db.QueryxContext(ctx,
		`SELECT id, version, fields FROM documents WHERE collection = $1 ORDER BY id`, collection)
	if err != nil {
		return nil, fmt.Errorf("could not list collection %s: %w", collection, err)
	}
	defer rows.Close()

	var docs []repository.StoredDocument
	for rows.Next() {
		var (
			id      string
			version int64
			payload []byte
		)
		if err := rows.Scan(&id, &version, &payload); err != nil {
			return nil, fmt.Errorf("could not scan document: %w", err)
		}
		fields, err := unmarshalFields(payload)
		if err != nil {
			return nil, err
		}
		docs = append(docs, repository.StoredDocument{ID: id, Version: version, Fields: fields})
	}
	return docs, rows.Err()
}

func (s *Store) CommitMutation(ctx context.Context, stockCollection, stockID string, expectedVersion int64, stockFields repository.Document, entryCollection string, entryFields repository.Document) (string, error) {
	stockPayload, err := marshalFields(stockFields)
	if err != nil {
		return "", err
	}
	entryPayload, err := marshalFields(entryFields)
	if err != nil {
		return "", err
	}

	entryID := uuid.NewString()
	err = s.db.WithTx(ctx, func(tx *sql.Tx) error {
		var version int64
		err := tx.QueryRowContext(ctx,
			`SELECT version FROM documents WHERE collection = $1 AND id = $2 FOR UPDATE`,
			stockCollection, stockID).Scan(&version)
		if errors.Is(err, sql.ErrNoRows) {
			return repository.ErrDocumentNotFound
		}
		if err != nil {
			return fmt.Errorf("could not lock stock document: %w", err)
		}
		if version != expectedVersion {
			return repository.ErrVersionConflict
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE documents SET fields = $3, version = version + 1
			WHERE collection = $1 AND id = $2`,
			stockCollection, stockID, stockPayload); err != nil {
			return fmt.Errorf("could not write stock document: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO documents (collection, id, version, fields) VALUES ($1, $2, 1, $3)`,
			entryCollection, entryID, entryPayload); err != nil {
			return fmt.Errorf("could not append audit entry: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return entryID, nil
}

func (s *Store) ReplaceAll(ctx context.Context, collections map[string][]repository.StoredDocument) error {
	return s.db.WithTx(ctx, func(tx *sql.Tx) error {
		for name, docs := range collections {
			if _, err := tx.ExecContext(ctx,
				`DELETE FROM documents WHERE collection = $1`, name); err != nil {
				return fmt.Errorf("could not clear collection %s: %w", name, err)
			}

			for _, doc := range docs {
				payload, err := marshalFields(doc.Fields)
				if err != nil {
					return err
				}
				version := doc.Version
				if version <= 0 {
					version = 1
				}
				if _, err := tx.ExecContext(ctx,
					`INSERT INTO documents (collection, id, version, fields) VALUES ($1, $2, $3, $4)`,
					name, doc.ID, version, payload); err != nil {
					return fmt.Errorf("could not restore document %s/%s: %w", name, doc.ID, err)
				}
			}
		}
		return nil
	})
}

func marshalFields(fields repository.Document) ([]byte, error) {
	encoded := snapshot.EncodeDocument(repository.StoredDocument{Fields: fields})
	delete(encoded, snapshot.IDKey)
	payload, err := json.Marshal(encoded)
	if err != nil {
		return nil, fmt.Errorf("could not encode document fields: %w", err)
	}
	return payload, nil
}

func unmarshalFields(payload []byte) (repository.Document, error) {
	var encoded map[string]any
	if err := json.Unmarshal(payload, &encoded); err != nil {
		return nil, fmt.Errorf("could not decode document fields: %w", err)
	}

	doc, err := snapshot.DecodeDocument(encoded)
	if err != nil {
		return nil, fmt.Errorf("could not decode stored timestamps: %w", err)
	}
	return doc.Fields, nil
}
