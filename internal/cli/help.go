package cli

import (
	"fmt"
	"io"
)

func PrintRootHelp(w io.Writer) {
	fmt.Fprintln(w, `docplan - index catalog and query planner for a document store

USAGE
  docplan [global flags] <command> [args]

GLOBAL FLAGS
  --backend sqlite|postgres|redis
  --sqlite-path <file.db>
  --sqlite-driver sqlite|sqlite3
  --pg-dsn <dsn>
  --pg-schema <schema>
  --redis-addr <host:port>
  --redis-password <pw>
  --redis-db <n>
  --log-level debug|info|warn|error
  --log-format logfmt|json
  --config <file>

  Unset flags are read from DOCPLAN_<FLAG> (e.g. DOCPLAN_SQLITE_PATH),
  then from the --config file.

COMMANDS
  init
  index create -c <collection> -k <key pattern json> [--name <name>]
  index list [-c <collection>]
  index drop -c <collection> -n <name>
  collections
  plan -c <collection> -q <predicate json> [-s <sort json>] [--explain] [--strict] [--format pretty|json]
  match -q <predicate json> [--count]    (JSON lines on stdin)`)
}
