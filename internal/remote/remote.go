// Package remote defines the contract with the structured store that
// marker records are synchronized into, plus the two implementations:
// the Notion REST API client and an embedded SQLite store for offline
// use and tests.
package remote

import (
	"context"
	"errors"
)

// ErrUnavailable reports that the store cannot be reached or refused the
// call (network, auth, not-found). Reads degrade to an incomplete
// snapshot; writes fail the individual record only.
var ErrUnavailable = errors.New("remote store unavailable")

// Record is the remote side of a synchronized marker. The store owns it;
// the engine only ever holds a read-through snapshot valid for one pass.
type Record struct {
	// Key is the opaque store-assigned key (a Notion page id, a SQLite
	// row key). Mutations address records by Key, never by ID.
	Key string

	// ID is the embedded marker identifier used to join back to local
	// records. Records without a valid ID are never matched to anything.
	ID string

	Text   string
	Kind   string
	Status string
	File   string
	Line   int
}

// Fields carries the semantic fields for a create or update call.
type Fields struct {
	ID     string
	Text   string
	Kind   string
	Status string
	File   string
	Line   int
}

// Store is the remote collaborator consumed by the reconciliation engine.
//
// Implementations must treat ArchiveRecord as a soft delete: the record
// transitions to its terminal status and stays listable, it is never
// removed from the store.
type Store interface {
	// ListRecords fetches every record in the store.
	ListRecords(ctx context.Context) ([]Record, error)

	// CreateRecord adds a record and returns its store-assigned key.
	CreateRecord(ctx context.Context, fields Fields) (string, error)

	// UpdateRecord rewrites the semantic fields of the record at key.
	UpdateRecord(ctx context.Context, key string, fields Fields) error

	// ArchiveRecord transitions the record at key to the terminal status.
	ArchiveRecord(ctx context.Context, key string) error

	// DescribeSchema returns the store's field name -> field type mapping.
	// Callers use it to omit fields the store does not define instead of
	// failing whole operations.
	DescribeSchema(ctx context.Context) (map[string]string, error)
}
