package commands

import (
	"context"
	"flag"
	"fmt"

	"github.com/nonibytes/docplan/internal/cliopt"
	"github.com/nonibytes/docplan/internal/cliutil"
)

func RunCollections(g cliopt.GlobalOptions, s cliutil.Streams, argv []string) int {
	fs := flag.NewFlagSet("collections", flag.ContinueOnError)
	fs.SetOutput(s.Stderr)
	var format string
	fs.StringVar(&format, "format", "pretty", "output format: pretty|json")
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

	colls, err := cat.Collections(ctx)
	if err != nil {
		fmt.Fprintln(s.Stderr, err)
		return 1
	}
	if cliutil.ParseOutputFormat(format) == cliutil.FormatJSON {
		if colls == nil {
			colls = []string{}
		}
		cliutil.PrintJSON(s.Stdout, colls)
		return 0
	}
	for _, c := range colls {
		fmt.Fprintln(s.Stdout, c)
	}
	return 0
}
