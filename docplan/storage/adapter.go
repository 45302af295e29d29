package storage

import (
	"context"
	"database/sql"
	"errors"

	"github.com/nonibytes/docplan/docplan/storage/sqlbuilder"
)

type BackendKind string

const (
	BackendSQLite   BackendKind = "sqlite"
	BackendPostgres BackendKind = "postgres"
	BackendRedis    BackendKind = "redis"
)

var (
	ErrDuplicate = errors.New("already exists")
	// ErrNotCatalog is returned when a database holds something other than a
	// docplan catalog.
	ErrNotCatalog = errors.New("not a docplan catalog")
)

// IndexRecord is one index definition as stored in the catalog. KeyPattern is
// the JSON document form of the key pattern.
type IndexRecord struct {
	Collection  string
	Name        string
	KeyPattern  []byte
	Seq         int64
	CreatedAtMS int64
}

// Backend stores index definitions per collection. Indexes of a collection
// are returned in catalog order, which is the order they were created in.
type Backend interface {
	Kind() BackendKind
	ID() string

	// Init creates the catalog structures if missing. It is idempotent.
	Init(ctx context.Context) error
	// PutIndex appends rec to its collection. It fails with ErrDuplicate when
	// the collection already has an index of that name.
	PutIndex(ctx context.Context, rec IndexRecord) (IndexRecord, error)
	DropIndex(ctx context.Context, collection, name string) (bool, error)
	Indexes(ctx context.Context, collection string) ([]IndexRecord, error)
	Collections(ctx context.Context) ([]string, error)

	Close() error
}

// Adapter abstracts database-specific operations of the SQL backends
type Adapter interface {
	Backend() BackendKind
	PlaceholderStyle() sqlbuilder.PlaceholderStyle
	ID() string

	Connect(ctx context.Context) (*sql.DB, error)
	CreateCatalog(ctx context.Context, db *sql.DB) error

	SQL() SQL
}

// SQL holds prepared SQL templates for catalog operations
type SQL struct {
	GetMeta string
	SetMeta string

	FindIndex   string
	InsertIndex string
	DeleteIndex string

	// SelectIndexes has no WHERE clause; filters are appended with a
	// placeholder builder.
	SelectIndexes   string
	ListCollections string
}
