package cliutil

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/nonibytes/docplan/docplan/storage"
	"github.com/nonibytes/docplan/docplan/storage/postgres"
	"github.com/nonibytes/docplan/docplan/storage/redis"
	"github.com/nonibytes/docplan/docplan/storage/sqlite"
	"github.com/nonibytes/docplan/internal/cliopt"
)

type OutputFormat string

const (
	FormatPretty OutputFormat = "pretty"
	FormatJSON   OutputFormat = "json"
)

func ParseOutputFormat(s string) OutputFormat {
	switch OutputFormat(s) {
	case FormatPretty, FormatJSON:
		return OutputFormat(s)
	default:
		return FormatPretty
	}
}

func PrintJSON(w io.Writer, v any) {
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Fprintln(w, string(b))
}

// Streams are the standard streams a command reads from and writes to.
type Streams struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

func StdStreams() Streams {
	return Streams{Stdin: os.Stdin, Stdout: os.Stdout, Stderr: os.Stderr}
}

// NewLogger builds the CLI logger. Logs always go to w (stderr) so command
// output on stdout stays machine readable.
func NewLogger(w io.Writer, lvl, format string) log.Logger {
	var logger log.Logger
	switch strings.ToLower(format) {
	case "json":
		logger = log.NewJSONLogger(log.NewSyncWriter(w))
	default:
		logger = log.NewLogfmtLogger(log.NewSyncWriter(w))
	}
	logger = log.With(logger, "ts", log.DefaultTimestampUTC)
	return level.NewFilter(logger, levelOption(lvl))
}

func levelOption(lvl string) level.Option {
	switch strings.ToLower(lvl) {
	case "debug":
		return level.AllowDebug()
	case "warn", "warning":
		return level.AllowWarn()
	case "error":
		return level.AllowError()
	case "none":
		return level.AllowNone()
	default:
		return level.AllowInfo()
	}
}

// OpenBackend connects to the catalog backend selected by g.
func OpenBackend(ctx context.Context, g cliopt.GlobalOptions) (storage.Backend, error) {
	switch strings.ToLower(g.Backend) {
	case "sqlite":
		cat, err := sqlite.Open(ctx, g.SQLitePath, g.SQLiteDriver)
		if err != nil {
			return nil, err
		}
		return cat, nil
	case "postgres", "pg":
		cat, err := postgres.Open(ctx, g.PostgresDSN, g.PGSchema)
		if err != nil {
			return nil, err
		}
		return cat, nil
	case "redis":
		b, err := redis.New(ctx, redis.Options{
			Addr:     g.RedisAddr,
			Password: g.RedisPassword,
			DB:       g.RedisDB,
		})
		if err != nil {
			return nil, err
		}
		return b, nil
	default:
		return nil, fmt.Errorf("unknown backend %q", g.Backend)
	}
}
