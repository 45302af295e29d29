package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/nonibytes/docplan/docplan/storage/sqlbuilder"
)

const (
	metaMagicKey   = "docplan_magic"
	metaMagic      = "docplan"
	metaVersionKey = "docplan_version"
	metaVersion    = "1"
)

// SQLCatalog is a Backend over a database/sql connection. The dialect comes
// from its Adapter.
type SQLCatalog struct {
	adapter Adapter
	db      *sql.DB
}

// OpenSQL connects through a. The catalog tables are created by Init.
func OpenSQL(ctx context.Context, a Adapter) (*SQLCatalog, error) {
	db, err := a.Connect(ctx)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", a.Backend(), err)
	}
	return &SQLCatalog{adapter: a, db: db}, nil
}

func (c *SQLCatalog) Kind() BackendKind { return c.adapter.Backend() }
func (c *SQLCatalog) ID() string        { return c.adapter.ID() }

// DB exposes the underlying connection.
func (c *SQLCatalog) DB() *sql.DB { return c.db }

// Init creates the catalog tables if missing and stamps the meta table. A
// database stamped by something else is rejected with ErrNotCatalog.
func (c *SQLCatalog) Init(ctx context.Context) error {
	if err := c.adapter.CreateCatalog(ctx, c.db); err != nil {
		return fmt.Errorf("create catalog: %w", err)
	}

	sqlt := c.adapter.SQL()
	var magic string
	err := c.db.QueryRowContext(ctx, sqlt.GetMeta, metaMagicKey).Scan(&magic)
	switch {
	case err == nil:
		if magic != metaMagic {
			return ErrNotCatalog
		}
		return nil
	case !errors.Is(err, sql.ErrNoRows):
		return err
	}

	if _, err := c.db.ExecContext(ctx, sqlt.SetMeta, metaMagicKey, metaMagic); err != nil {
		return err
	}
	_, err = c.db.ExecContext(ctx, sqlt.SetMeta, metaVersionKey, metaVersion)
	return err
}

func (c *SQLCatalog) PutIndex(ctx context.Context, rec IndexRecord) (IndexRecord, error) {
	sqlt := c.adapter.SQL()
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return IndexRecord{}, err
	}
	defer func() { _ = tx.Rollback() }()

	var seq int64
	err = tx.QueryRowContext(ctx, sqlt.FindIndex, rec.Collection, rec.Name).Scan(&seq)
	switch {
	case err == nil:
		return IndexRecord{}, fmt.Errorf("index %s.%s: %w", rec.Collection, rec.Name, ErrDuplicate)
	case !errors.Is(err, sql.ErrNoRows):
		return IndexRecord{}, err
	}

	if err := tx.QueryRowContext(ctx, sqlt.InsertIndex,
		rec.Collection, rec.Name, string(rec.KeyPattern), rec.CreatedAtMS).Scan(&rec.Seq); err != nil {
		return IndexRecord{}, err
	}
	if err := tx.Commit(); err != nil {
		return IndexRecord{}, err
	}
	return rec, nil
}

func (c *SQLCatalog) DropIndex(ctx context.Context, collection, name string) (bool, error) {
	res, err := c.db.ExecContext(ctx, c.adapter.SQL().DeleteIndex, collection, name)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Indexes lists the indexes of collection in catalog order. An empty
// collection lists every index, grouped by collection.
func (c *SQLCatalog) Indexes(ctx context.Context, collection string) ([]IndexRecord, error) {
	q := sqlbuilder.New(c.adapter.PlaceholderStyle())
	q.Write(c.adapter.SQL().SelectIndexes)
	if collection != "" {
		q.Where("collection = " + q.Arg(collection))
	}
	q.Write(" ORDER BY collection, seq")

	rows, err := c.db.QueryContext(ctx, q.SQL(), q.Args()...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []IndexRecord
	for rows.Next() {
		var (
			rec IndexRecord
			kp  string
		)
		if err := rows.Scan(&rec.Collection, &rec.Name, &kp, &rec.Seq, &rec.CreatedAtMS); err != nil {
			return nil, err
		}
		rec.KeyPattern = []byte(kp)
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (c *SQLCatalog) Collections(ctx context.Context) ([]string, error) {
	rows, err := c.db.QueryContext(ctx, c.adapter.SQL().ListCollections)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

func (c *SQLCatalog) Close() error {
	return c.db.Close()
}
