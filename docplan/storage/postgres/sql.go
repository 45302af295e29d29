package postgres

import "github.com/nonibytes/docplan/docplan/storage"

// key_pattern is TEXT: JSONB does not keep field order.
const ddlBase = `
CREATE TABLE IF NOT EXISTS meta (
  key   TEXT PRIMARY KEY,
  value TEXT
);

CREATE TABLE IF NOT EXISTS catalog_indexes (
  seq         BIGSERIAL PRIMARY KEY,
  collection  TEXT   NOT NULL,
  name        TEXT   NOT NULL,
  key_pattern TEXT   NOT NULL,
  created_at  BIGINT NOT NULL,
  UNIQUE (collection, name)
);
CREATE INDEX IF NOT EXISTS idx_catalog_collection ON catalog_indexes(collection, seq);
`

var SQLTemplates = storage.SQL{
	GetMeta:         "SELECT value FROM meta WHERE key = $1",
	SetMeta:         "INSERT INTO meta(key,value) VALUES($1,$2) ON CONFLICT(key) DO UPDATE SET value=excluded.value",
	FindIndex:       "SELECT seq FROM catalog_indexes WHERE collection = $1 AND name = $2",
	InsertIndex:     "INSERT INTO catalog_indexes(collection, name, key_pattern, created_at) VALUES($1, $2, $3, $4) RETURNING seq",
	DeleteIndex:     "DELETE FROM catalog_indexes WHERE collection = $1 AND name = $2",
	SelectIndexes:   "SELECT collection, name, key_pattern, seq, created_at FROM catalog_indexes",
	ListCollections: "SELECT DISTINCT collection FROM catalog_indexes ORDER BY collection",
}
