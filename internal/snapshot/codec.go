// Package snapshot converts the full set of tracked collections to and from
// a portable JSON document. Native timestamps are carried as a tagged wrapper
// so they survive plain serialization; document identity rides along as an
// explicit _id field.
package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/haysimo/siteops/internal/repository"
)

const (
	// TimestampKey tags a wrapped server timestamp inside an encoded document.
	TimestampKey = "_serverTimestamp"
	// IDKey carries document identity through the encoded form.
	IDKey = "_id"
)

// ErrMalformedSnapshot is returned when a wrapper-shaped field does not hold
// a well-formed ISO-8601 timestamp, or the snapshot document itself cannot be
// parsed. Restore aborts entirely on this error.
var ErrMalformedSnapshot = errors.New("malformed snapshot")

// Snapshot maps collection name to its encoded documents.
type Snapshot map[string][]map[string]any

// Encode builds a snapshot from raw collection contents. Every field is
// copied verbatim except time.Time values, which become tagged wrappers.
func Encode(collections map[string][]repository.StoredDocument) Snapshot {
	snap := make(Snapshot, len(collections))
	for name, docs := range collections {
		encoded := make([]map[string]any, 0, len(docs))
		for _, doc := range docs {
			encoded = append(encoded, EncodeDocument(doc))
		}
		snap[name] = encoded
	}
	return snap
}

// EncodeDocument encodes a single document, embedding its id as _id.
func EncodeDocument(doc repository.StoredDocument) map[string]any {
	out := make(map[string]any, len(doc.Fields)+1)
	out[IDKey] = doc.ID
	for key, value := range doc.Fields {
		out[key] = encodeValue(value)
	}
	return out
}

// Decode is the inverse of Encode: wrappers become time.Time values again and
// _id is lifted back out as document identity. Any malformed wrapper fails
// the whole decode.
func Decode(snap Snapshot) (map[string][]repository.StoredDocument, error) {
	collections := make(map[string][]repository.StoredDocument, len(snap))
	for name, docs := range snap {
		decoded := make([]repository.StoredDocument, 0, len(docs))
		for i, doc := range docs {
			stored, err := DecodeDocument(doc)
			if err != nil {
				return nil, fmt.Errorf("collection %s document %d: %w", name, i, err)
			}
			decoded = append(decoded, stored)
		}
		collections[name] = decoded
	}
	return collections, nil
}

// DecodeDocument decodes a single encoded document.
func DecodeDocument(encoded map[string]any) (repository.StoredDocument, error) {
	stored := repository.StoredDocument{Fields: make(repository.Document, len(encoded))}

	for key, value := range encoded {
		if key == IDKey {
			id, ok := value.(string)
			if !ok {
				return repository.StoredDocument{}, fmt.Errorf("%w: non-string %s field", ErrMalformedSnapshot, IDKey)
			}
			stored.ID = id
			continue
		}

		decoded, err := decodeValue(value)
		if err != nil {
			return repository.StoredDocument{}, fmt.Errorf("field %s: %w", key, err)
		}
		stored.Fields[key] = decoded
	}

	return stored, nil
}

// Marshal serializes a snapshot for download or archival.
func Marshal(snap Snapshot) ([]byte, error) {
	return json.MarshalIndent(snap, "", "  ")
}

// Unmarshal parses a serialized snapshot.
func Unmarshal(data []byte) (Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSnapshot, err)
	}
	return snap, nil
}

func encodeValue(value any) any {
	switch typed := value.(type) {
	case time.Time:
		return map[string]any{TimestampKey: typed.UTC().Format(time.RFC3339Nano)}
	case map[string]any:
		out := make(map[string]any, len(typed))
		for k, v := range typed {
			out[k] = encodeValue(v)
		}
		return out
	case repository.Document:
		return encodeValue(map[string]any(typed))
	case []any:
		out := make([]any, len(typed))
		for i, v := range typed {
			out[i] = encodeValue(v)
		}
		return out
	default:
		return typed
	}
}

// decodeValue rewrites tagged wrappers back into time.Time. Only an object
// shaped exactly like the wrapper counts; a string that happens to contain
// the tag text stays a plain string.
func decodeValue(value any) (any, error) {
	switch typed := value.(type) {
	case map[string]any:
		if raw, ok := typed[TimestampKey]; ok {
			if len(typed) != 1 {
				return nil, fmt.Errorf("%w: wrapper with extra fields", ErrMalformedSnapshot)
			}
			text, ok := raw.(string)
			if !ok {
				return nil, fmt.Errorf("%w: non-string timestamp", ErrMalformedSnapshot)
			}
			ts, err := time.Parse(time.RFC3339Nano, text)
			if err != nil {
				return nil, fmt.Errorf("%w: invalid timestamp %q", ErrMalformedSnapshot, text)
			}
			return ts, nil
		}

		out := make(map[string]any, len(typed))
		for k, v := range typed {
			decoded, err := decodeValue(v)
			if err != nil {
				return nil, err
			}
			out[k] = decoded
		}
		return out, nil
	case []any:
		out := make([]any, len(typed))
		for i, v := range typed {
			decoded, err := decodeValue(v)
			if err != nil {
				return nil, err
			}
			out[i] = decoded
		}
		return out, nil
	default:
		return typed, nil
	}
}
