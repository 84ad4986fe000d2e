package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bakeshop/order-confirm/internal/docstore"
)

// DocStore implements docstore.Store over jsonb tables. Transactions run at
// SERIALIZABLE so concurrent confirmations against the same documents cannot
// both commit; losers get a serialization failure and the body is re-run.
type DocStore struct {
	Pool *pgxpool.Pool

	// MaxAttempts caps body re-runs on serialization failure. Zero means the
	// default.
	MaxAttempts int
}

const defaultMaxAttempts = 5

var tables = map[string]string{
	docstore.CollectionOrders: "orders",
	docstore.CollectionItems:  "bakery_items",
}

func tableFor(collection string) (string, error) {
	t, ok := tables[collection]
	if !ok {
		return "", fmt.Errorf("unknown collection %q", collection)
	}
	return t, nil
}

func (s *DocStore) RunTransaction(ctx context.Context, fn func(ctx context.Context, tx docstore.Tx) error) error {
	attempts := s.MaxAttempts
	if attempts <= 0 {
		attempts = defaultMaxAttempts
	}
	for i := 0; i < attempts; i++ {
		err := s.attempt(ctx, fn)
		if err == nil {
			return nil
		}
		if !retryable(err) {
			return err
		}
		// brief backoff before re-running against a fresh snapshot
		select {
		case <-time.After(time.Duration(i+1) * 20 * time.Millisecond):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return fmt.Errorf("transaction retry budget exhausted after %d attempts: %w", attempts, docstore.ErrConflict)
}

func (s *DocStore) attempt(ctx context.Context, fn func(ctx context.Context, tx docstore.Tx) error) error {
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(ctx, &pgTx{tx: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// retryable reports whether the error is a serialization failure or deadlock,
// the two conflict shapes the store resolves by re-running the body.
func retryable(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "40001" || pgErr.Code == "40P01"
}

type pgTx struct {
	tx    pgx.Tx
	wrote bool
}

func (t *pgTx) Get(ctx context.Context, collection, id string) (docstore.Doc, bool, error) {
	if t.wrote {
		return nil, false, docstore.ErrReadAfterWrite
	}
	table, err := tableFor(collection)
	if err != nil {
		return nil, false, err
	}
	var raw []byte
	err = t.tx.QueryRow(ctx, `SELECT data FROM `+table+` WHERE doc_id = $1`, id).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var doc docstore.Doc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, false, fmt.Errorf("decode %s/%s: %w", collection, id, err)
	}
	return doc, true, nil
}

func (t *pgTx) Update(ctx context.Context, collection, id string, fields docstore.Doc) error {
	table, err := tableFor(collection)
	if err != nil {
		return err
	}
	t.wrote = true
	b, err := json.Marshal(resolveTimestamps(fields))
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", collection, id, err)
	}
	ct, err := t.tx.Exec(ctx, `UPDATE `+table+` SET data = data || $2::jsonb WHERE doc_id = $1`, id, b)
	if err != nil {
		return err
	}
	if ct.RowsAffected() != 1 {
		return fmt.Errorf("update %s/%s: document does not exist", collection, id)
	}
	return nil
}

// resolveTimestamps substitutes the ServerTimestamp sentinel with the store's
// clock at write-apply time.
func resolveTimestamps(fields docstore.Doc) docstore.Doc {
	out := make(docstore.Doc, len(fields))
	now := time.Now().UTC()
	for k, v := range fields {
		if docstore.IsServerTimestamp(v) {
			v = now
		}
		out[k] = v
	}
	return out
}

// Put upserts a document outside any transaction. Seeding and ops tooling.
func (s *DocStore) Put(ctx context.Context, collection, id string, fields docstore.Doc) error {
	table, err := tableFor(collection)
	if err != nil {
		return err
	}
	b, err := json.Marshal(resolveTimestamps(fields))
	if err != nil {
		return err
	}
	_, err = s.Pool.Exec(ctx, `INSERT INTO `+table+` (doc_id, data) VALUES ($1, $2::jsonb)
		ON CONFLICT (doc_id) DO UPDATE SET data = EXCLUDED.data`, id, b)
	return err
}

// Lookup reads one document outside any transaction.
func (s *DocStore) Lookup(ctx context.Context, collection, id string) (docstore.Doc, bool, error) {
	table, err := tableFor(collection)
	if err != nil {
		return nil, false, err
	}
	var raw []byte
	err = s.Pool.QueryRow(ctx, `SELECT data FROM `+table+` WHERE doc_id = $1`, id).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var doc docstore.Doc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, false, err
	}
	return doc, true, nil
}
