// Package docstore defines the document store the confirmation engine runs
// against: schemaless documents grouped into collections, addressed by id,
// with multi-document atomic transactions.
package docstore

import (
	"context"
	"errors"
)

// Doc is one schemaless document.
type Doc map[string]any

// Collection names used by the service.
const (
	CollectionOrders = "orders"
	CollectionItems  = "bakeryItems"
)

// serverTimestamp is the sentinel type behind ServerTimestamp.
type serverTimestamp struct{}

// ServerTimestamp marks a field to be filled with the store's clock when the
// transaction's writes are applied.
var ServerTimestamp = serverTimestamp{}

// IsServerTimestamp reports whether v is the ServerTimestamp sentinel.
func IsServerTimestamp(v any) bool {
	_, ok := v.(serverTimestamp)
	return ok
}

// Tx is the handle passed to a transaction body. All Gets must happen before
// the first Update; implementations reject a Get issued after a write.
type Tx interface {
	Get(ctx context.Context, collection, id string) (Doc, bool, error)
	// Update merges fields into an existing document. The write is staged and
	// becomes visible only when the transaction commits.
	Update(ctx context.Context, collection, id string, fields Doc) error
}

// Store runs transaction bodies under snapshot isolation.
//
// The body may be invoked more than once: on a write conflict with a
// concurrent transaction the store discards the attempt and re-runs the body
// against a fresh snapshot, up to an internal retry budget. Bodies must
// therefore be side-effect free outside the Tx. A body returning an error
// aborts the transaction with no writes applied, and the error is returned
// unchanged.
type Store interface {
	RunTransaction(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Reader is the non-transactional read surface for collaborators outside the
// engine (status endpoints, seeding checks). The engine itself never uses it.
type Reader interface {
	Lookup(ctx context.Context, collection, id string) (Doc, bool, error)
}

var (
	// ErrConflict is the conflict cause wrapped by stores when the retry
	// budget is exhausted.
	ErrConflict = errors.New("docstore: write conflict")

	// ErrReadAfterWrite is returned by Tx.Get once the body has staged a write.
	ErrReadAfterWrite = errors.New("docstore: read issued after write")
)
