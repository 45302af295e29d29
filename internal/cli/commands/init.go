package commands

import (
	"context"
	"flag"
	"fmt"

	"github.com/nonibytes/docplan/internal/cliopt"
	"github.com/nonibytes/docplan/internal/cliutil"
)

// RunInit creates the catalog structures of the selected backend.
func RunInit(g cliopt.GlobalOptions, s cliutil.Streams, argv []string) int {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	fs.SetOutput(s.Stderr)
	if err := fs.Parse(argv); err != nil {
		return 2
	}
	ctx := context.Background()
	cat, err := openCatalog(ctx, g, s)
	if err != nil {
		fmt.Fprintln(s.Stderr, err)
		return 1
	}
	defer cat.Close()
	fmt.Fprintf(s.Stdout, "catalog ready (%s)\n", g.Backend)
	return 0
}
