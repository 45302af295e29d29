package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/nonibytes/docplan/docplan/storage"
	"github.com/nonibytes/docplan/docplan/storage/sqlbuilder"
)

// DefaultDriver is the pure Go driver registered by modernc.org/sqlite.
// The cgo driver from github.com/mattn/go-sqlite3 registers as "sqlite3".
const DefaultDriver = "sqlite"

type Adapter struct {
	Path       string
	DriverName string
}

func New(path string) *Adapter {
	return &Adapter{Path: path, DriverName: DefaultDriver}
}

func NewWithDriver(path, driver string) *Adapter {
	if driver == "" {
		driver = DefaultDriver
	}
	return &Adapter{Path: path, DriverName: driver}
}

func (a *Adapter) Backend() storage.BackendKind {
	return storage.BackendSQLite
}

func (a *Adapter) PlaceholderStyle() sqlbuilder.PlaceholderStyle {
	return sqlbuilder.PlaceholderQuestion
}

func (a *Adapter) ID() string {
	return a.Path
}

func (a *Adapter) Connect(ctx context.Context) (*sql.DB, error) {
	db, err := sql.Open(a.DriverName, a.dsn())
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// dsn adds a busy timeout in the dialect of the selected driver.
func (a *Adapter) dsn() string {
	param := "_pragma=busy_timeout(5000)"
	if a.DriverName == "sqlite3" {
		param = "_busy_timeout=5000"
	}
	if strings.Contains(a.Path, "?") {
		return a.Path + "&" + param
	}
	return a.Path + "?" + param
}

func (a *Adapter) SQL() storage.SQL {
	return SQLTemplates
}

func (a *Adapter) CreateCatalog(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, ddlBase); err != nil {
		return err
	}
	_, _ = db.ExecContext(ctx, "PRAGMA journal_mode=WAL;")
	_, _ = db.ExecContext(ctx, "PRAGMA synchronous=NORMAL;")
	return nil
}

// Open connects to the catalog at path and returns it as a storage backend.
func Open(ctx context.Context, path, driver string) (*storage.SQLCatalog, error) {
	return storage.OpenSQL(ctx, NewWithDriver(path, driver))
}
