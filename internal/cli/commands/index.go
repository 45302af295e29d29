package commands

import (
	"context"
	"flag"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/nonibytes/docplan/docplan"
	"github.com/nonibytes/docplan/docplan/query"
	"github.com/nonibytes/docplan/internal/cliopt"
	"github.com/nonibytes/docplan/internal/cliutil"
)

type indexView struct {
	Collection string           `json:"collection"`
	Name       string           `json:"name"`
	KeyPattern query.KeyPattern `json:"key_pattern"`
	CreatedAt  string           `json:"created_at"`
}

func newIndexView(spec docplan.IndexSpec) indexView {
	return indexView{
		Collection: spec.Collection,
		Name:       spec.Name,
		KeyPattern: spec.KeyPattern,
		CreatedAt:  time.UnixMilli(spec.CreatedAtMS).UTC().Format(time.RFC3339),
	}
}

func RunIndex(g cliopt.GlobalOptions, s cliutil.Streams, argv []string) int {
	if len(argv) == 0 {
		fmt.Fprintln(s.Stderr, "index requires a subcommand: create|list|drop")
		return 2
	}
	verb := argv[0]
	args := argv[1:]
	switch verb {
	case "create":
		return runIndexCreate(g, s, args)
	case "list":
		return runIndexList(g, s, args)
	case "drop":
		return runIndexDrop(g, s, args)
	case "--help", "-h", "help":
		fmt.Fprintln(s.Stdout, "index subcommands: create|list|drop")
		return 0
	default:
		fmt.Fprintf(s.Stderr, "unknown index subcommand: %s\n", verb)
		return 2
	}
}

func runIndexCreate(g cliopt.GlobalOptions, s cliutil.Streams, argv []string) int {
	fs := flag.NewFlagSet("index create", flag.ContinueOnError)
	fs.SetOutput(s.Stderr)
	var collection, key, name, format string
	fs.StringVar(&collection, "collection", "", "collection")
	fs.StringVar(&collection, "c", "", "collection")
	fs.StringVar(&key, "key", "", `key pattern json, e.g. {"a":1,"b":-1}`)
	fs.StringVar(&key, "k", "", "key pattern json")
	fs.StringVar(&name, "name", "", "index name (default derived from the key pattern)")
	fs.StringVar(&format, "format", "pretty", "output format: pretty|json")
	if err := fs.Parse(argv); err != nil {
		return 2
	}
	if collection == "" || key == "" {
		fmt.Fprintln(s.Stderr, "missing --collection or --key")
		return 2
	}
	ctx := context.Background()
	cat, err := openCatalog(ctx, g, s)
	if err != nil {
		fmt.Fprintln(s.Stderr, err)
		return 1
	}
	defer cat.Close()

	spec, err := cat.CreateIndex(ctx, collection, []byte(key), name)
	if err != nil {
		fmt.Fprintln(s.Stderr, err)
		return 1
	}
	if cliutil.ParseOutputFormat(format) == cliutil.FormatJSON {
		cliutil.PrintJSON(s.Stdout, newIndexView(spec))
		return 0
	}
	fmt.Fprintf(s.Stdout, "created %s.%s %s\n", spec.Collection, spec.Name, spec.KeyPattern)
	return 0
}

func runIndexList(g cliopt.GlobalOptions, s cliutil.Streams, argv []string) int {
	fs := flag.NewFlagSet("index list", flag.ContinueOnError)
	fs.SetOutput(s.Stderr)
	var collection, format string
	fs.StringVar(&collection, "collection", "", "collection (default all)")
	fs.StringVar(&collection, "c", "", "collection (default all)")
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

	specs, err := cat.ListIndexes(ctx, collection)
	if err != nil {
		fmt.Fprintln(s.Stderr, err)
		return 1
	}
	if cliutil.ParseOutputFormat(format) == cliutil.FormatJSON {
		views := make([]indexView, 0, len(specs))
		for _, spec := range specs {
			views = append(views, newIndexView(spec))
		}
		cliutil.PrintJSON(s.Stdout, views)
		return 0
	}
	tw := tabwriter.NewWriter(s.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "COLLECTION\tNAME\tKEY")
	for _, spec := range specs {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", spec.Collection, spec.Name, spec.KeyPattern)
	}
	tw.Flush()
	return 0
}

func runIndexDrop(g cliopt.GlobalOptions, s cliutil.Streams, argv []string) int {
	fs := flag.NewFlagSet("index drop", flag.ContinueOnError)
	fs.SetOutput(s.Stderr)
	var collection, name string
	fs.StringVar(&collection, "collection", "", "collection")
	fs.StringVar(&collection, "c", "", "collection")
	fs.StringVar(&name, "name", "", "index name")
	fs.StringVar(&name, "n", "", "index name")
	if err := fs.Parse(argv); err != nil {
		return 2
	}
	if collection == "" || name == "" {
		fmt.Fprintln(s.Stderr, "missing --collection or --name")
		return 2
	}
	ctx := context.Background()
	cat, err := openCatalog(ctx, g, s)
	if err != nil {
		fmt.Fprintln(s.Stderr, err)
		return 1
	}
	defer cat.Close()

	dropped, err := cat.DropIndex(ctx, collection, name)
	if err != nil {
		fmt.Fprintln(s.Stderr, err)
		return 1
	}
	if !dropped {
		fmt.Fprintln(s.Stderr, docplan.NotFoundError("index "+collection+"."+name))
		return 1
	}
	fmt.Fprintf(s.Stdout, "dropped %s.%s\n", collection, name)
	return 0
}
