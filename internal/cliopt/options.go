package cliopt

import (
	"errors"
	"flag"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/nonibytes/docplan/docplan"
)

// EnvPrefix prefixes environment overrides: --sqlite-path is read from
// DOCPLAN_SQLITE_PATH.
const EnvPrefix = "DOCPLAN"

// GlobalOptions are parsed once at the CLI root and passed to subcommands.
//
// NOTE: This is a separate package to avoid import cycles between the root
// command router and per-command code.
type GlobalOptions struct {
	Backend string

	SQLitePath   string
	SQLiteDriver string

	PostgresDSN string
	PGSchema    string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	LogLevel  string
	LogFormat string

	Config string
}

func DefaultGlobalOptions() GlobalOptions {
	return GlobalOptions{
		Backend:      "sqlite",
		SQLitePath:   docplan.DefaultSQLitePath,
		SQLiteDriver: "sqlite",
		PGSchema:     docplan.DefaultPGSchema,
		RedisAddr:    docplan.DefaultRedisAddr,
		LogLevel:     "info",
		LogFormat:    "logfmt",
	}
}

func BindGlobalFlags(fs *flag.FlagSet, g *GlobalOptions) {
	fs.StringVar(&g.Backend, "backend", g.Backend, "backend: sqlite|postgres|redis")

	fs.StringVar(&g.SQLitePath, "sqlite-path", g.SQLitePath, "sqlite catalog file")
	fs.StringVar(&g.SQLiteDriver, "sqlite-driver", g.SQLiteDriver, "database/sql driver: sqlite|sqlite3")

	fs.StringVar(&g.PostgresDSN, "pg-dsn", g.PostgresDSN, "postgres DSN")
	fs.StringVar(&g.PGSchema, "pg-schema", g.PGSchema, "postgres schema holding the catalog")

	fs.StringVar(&g.RedisAddr, "redis-addr", g.RedisAddr, "redis address host:port")
	fs.StringVar(&g.RedisPassword, "redis-password", g.RedisPassword, "redis password")
	fs.IntVar(&g.RedisDB, "redis-db", g.RedisDB, "redis db number")

	fs.StringVar(&g.LogLevel, "log-level", g.LogLevel, "log level: debug|info|warn|error")
	fs.StringVar(&g.LogFormat, "log-format", g.LogFormat, "log format: logfmt|json")

	fs.StringVar(&g.Config, "config", g.Config, "config file (yaml, json or toml)")
}

// Resolve loads fs like Load and then validates the backend selection.
func Resolve(fs *flag.FlagSet, g *GlobalOptions) error {
	if err := Load(fs, g); err != nil {
		return err
	}
	return g.Validate()
}

// Load fills every flag of fs that was not given on the command line from
// the environment and then from the --config file, if any. fs must already be
// parsed. Explicit flags always win.
func Load(fs *flag.FlagSet, g *GlobalOptions) error {
	explicit := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { explicit[f.Name] = true })

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if g.Config != "" {
		v.SetConfigFile(g.Config)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", g.Config, err)
		}
	}

	var errs []error
	fs.VisitAll(func(f *flag.Flag) {
		if explicit[f.Name] || f.Name == "config" || !v.IsSet(f.Name) {
			return
		}
		if err := fs.Set(f.Name, v.GetString(f.Name)); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", f.Name, err))
		}
	})
	return errors.Join(errs...)
}

// Validate checks the backend selection and its required settings.
func (g GlobalOptions) Validate() error {
	switch strings.ToLower(g.Backend) {
	case "sqlite":
		if g.SQLitePath == "" {
			return errors.New("sqlite backend requires --sqlite-path")
		}
	case "postgres", "pg":
		if g.PostgresDSN == "" {
			return errors.New("postgres backend requires --pg-dsn")
		}
	case "redis":
		if g.RedisAddr == "" {
			return errors.New("redis backend requires --redis-addr")
		}
	default:
		return fmt.Errorf("unknown backend %q (want sqlite|postgres|redis)", g.Backend)
	}
	return nil
}
