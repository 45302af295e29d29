package docplan

const (
	// DefaultSQLitePath is the catalog file used when none is configured.
	DefaultSQLitePath  = "docplan.db"
	DefaultRedisAddr   = "localhost:6379"
	DefaultPGSchema    = "docplan"
	DefaultMetricsName = "docplan"

	// MaxKeyFields bounds the number of fields in one index key pattern.
	MaxKeyFields = 32
)
