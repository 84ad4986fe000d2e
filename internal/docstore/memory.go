package docstore

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Memory is an in-memory Store with optimistic concurrency: each document
// carries a version, a transaction records the versions it read, and commit
// re-checks them under the lock. A mismatch re-runs the body against the new
// state, mirroring how the durable store retries on write conflict.
type Memory struct {
	mu   sync.Mutex
	data map[string]map[string]memDoc // collection -> id -> doc

	// MaxAttempts caps body re-runs on conflict. Zero means the default.
	MaxAttempts int
}

type memDoc struct {
	fields  Doc
	version uint64
}

const defaultMaxAttempts = 5

func NewMemory() *Memory {
	return &Memory{data: map[string]map[string]memDoc{}}
}

// Put writes a document outside any transaction. Seeding and ops tooling
// only; the engine never touches the store except through RunTransaction.
func (m *Memory) Put(ctx context.Context, collection, id string, fields Doc) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	col := m.data[collection]
	if col == nil {
		col = map[string]memDoc{}
		m.data[collection] = col
	}
	prev := col[id]
	col[id] = memDoc{fields: copyDoc(fields), version: prev.version + 1}
	return nil
}

// Lookup reads one document outside any transaction.
func (m *Memory) Lookup(ctx context.Context, collection, id string) (Doc, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.data[collection][id]
	if !ok {
		return nil, false, nil
	}
	return copyDoc(d.fields), true, nil
}

func (m *Memory) RunTransaction(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	attempts := m.MaxAttempts
	if attempts <= 0 {
		attempts = defaultMaxAttempts
	}
	for i := 0; i < attempts; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		tx := &memTx{store: m, reads: map[string]uint64{}}
		if err := fn(ctx, tx); err != nil {
			return err // aborted by the body, nothing staged is applied
		}
		if m.commit(tx) {
			return nil
		}
	}
	return fmt.Errorf("transaction retry budget exhausted after %d attempts: %w", attempts, ErrConflict)
}

// commit validates the read set and applies staged writes atomically.
func (m *Memory) commit(tx *memTx) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, version := range tx.reads {
		col, id := splitKey(key)
		if m.data[col][id].version != version {
			return false
		}
	}
	now := time.Now().UTC()
	for _, w := range tx.writes {
		col := m.data[w.collection]
		if col == nil {
			col = map[string]memDoc{}
			m.data[w.collection] = col
		}
		cur := col[w.id]
		merged := copyDoc(cur.fields)
		if merged == nil {
			merged = Doc{}
		}
		for k, v := range w.fields {
			if _, ok := v.(serverTimestamp); ok {
				v = now
			}
			merged[k] = v
		}
		col[w.id] = memDoc{fields: merged, version: cur.version + 1}
	}
	return true
}

type memWrite struct {
	collection, id string
	fields         Doc
}

type memTx struct {
	store  *Memory
	reads  map[string]uint64 // key -> version observed (0 = absent)
	writes []memWrite
}

func (t *memTx) Get(ctx context.Context, collection, id string) (Doc, bool, error) {
	if len(t.writes) > 0 {
		return nil, false, ErrReadAfterWrite
	}
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	d, ok := t.store.data[collection][id]
	t.reads[joinKey(collection, id)] = d.version
	if !ok {
		return nil, false, nil
	}
	return copyDoc(d.fields), true, nil
}

func (t *memTx) Update(ctx context.Context, collection, id string, fields Doc) error {
	t.writes = append(t.writes, memWrite{collection: collection, id: id, fields: copyDoc(fields)})
	return nil
}

func joinKey(collection, id string) string { return collection + "/" + id }

func splitKey(key string) (string, string) {
	for i := 0; i < len(key); i++ {
		if key[i] == '/' {
			return key[:i], key[i+1:]
		}
	}
	return key, ""
}

func copyDoc(d Doc) Doc {
	if d == nil {
		return nil
	}
	out := make(Doc, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}
