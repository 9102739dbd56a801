// Package store defines the document store the game engine runs on: point
// reads, retried read-modify-write transactions over named documents, and
// change subscriptions.
package store

import (
	"context"
	"encoding/json"
)

// DefaultMaxRetries bounds how many times a conflicting transaction body is
// re-run before giving up.
const DefaultMaxRetries = 25

// Txn is the view a transaction body gets. Reads go through the transaction
// and see its own pending writes. Writes are buffered until commit.
type Txn interface {
	// Get decodes the document into dst, or returns domain.ErrNotFound.
	Get(ctx context.Context, key string, dst any) error
	// Put stages v as the new content of key.
	Put(key string, v any) error
}

// TxnFunc is a transaction body. It may run more than once and must not have
// side effects outside the Txn.
type TxnFunc func(ctx context.Context, tx Txn) error

type Store interface {
	// Read decodes the latest committed document into dst.
	Read(ctx context.Context, key string, dst any) error
	// Transact runs fn and commits its writes atomically. A commit that
	// conflicts with a concurrent one re-runs fn. An error from fn aborts
	// the transaction with nothing written.
	Transact(ctx context.Context, fn TxnFunc) error
	// Subscribe calls fn with the current snapshot of key and then after
	// every committed change, in commit order. The returned func cancels.
	Subscribe(ctx context.Context, key string, fn func(Snapshot)) (func(), error)
}

// Snapshot is one committed version of a document.
type Snapshot struct {
	Key     string          `json:"key"`
	Version int64           `json:"version"`
	Exists  bool            `json:"exists"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Decode unmarshals the snapshot content.
func (s Snapshot) Decode(dst any) error {
	return json.Unmarshal(s.Data, dst)
}
