package snapshot

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/vamsi-krishn/EHR-system/internal/repository/memory"
)

const schema = `
CREATE TABLE IF NOT EXISTS ledger_snapshots (
	collection TEXT PRIMARY KEY,
	document   TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL
)`

// SQLStore keeps snapshots in a ledger_snapshots table. It works against
// both postgres and sqlite3; queries are rebound per driver.
type SQLStore struct {
	db    *sqlx.DB
	codec codec
}

type snapshotRow struct {
	Collection string `db:"collection"`
	Document   string `db:"document"`
}

// NewSQLStore connects with driver ("postgres" or "sqlite3") and creates the
// table when missing.
func NewSQLStore(ctx context.Context, driver, dsn string, opts ...Option) (*SQLStore, error) {
	db, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if driver == "sqlite3" {
		// a single connection keeps ":memory:" databases shared
		db.SetMaxOpenConns(1)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create snapshot table: %w", err)
	}
	return &SQLStore{db: db, codec: newCodec(opts)}, nil
}

func (s *SQLStore) Save(ctx context.Context, snap *memory.Snapshot) error {
	docs, err := s.codec.encode(snap)
	if err != nil {
		return err
	}

	query := s.db.Rebind(`
		INSERT INTO ledger_snapshots (collection, document, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (collection) DO UPDATE
		SET document = excluded.document, updated_at = excluded.updated_at`)
	now := time.Now().UTC()

	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		for name, doc := range docs {
			if _, err := tx.ExecContext(ctx, query, name, string(doc), now); err != nil {
				return fmt.Errorf("failed to save %s: %w", name, err)
			}
		}
		return nil
	})
}

func (s *SQLStore) Load(ctx context.Context) (*memory.Snapshot, error) {
	var rows []snapshotRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT collection, document FROM ledger_snapshots`); err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}
	docs := make(map[string][]byte, len(rows))
	for _, r := range rows {
		docs[r.Collection] = []byte(r.Document)
	}
	return s.codec.decode(docs)
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

func (s *SQLStore) withTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit()
}
