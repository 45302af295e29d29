package commands

import (
	"context"

	"github.com/nonibytes/docplan/docplan"
	"github.com/nonibytes/docplan/internal/cliopt"
	"github.com/nonibytes/docplan/internal/cliutil"
)

func openCatalog(ctx context.Context, g cliopt.GlobalOptions, s cliutil.Streams) (*docplan.Catalog, error) {
	backend, err := cliutil.OpenBackend(ctx, g)
	if err != nil {
		return nil, docplan.Wrap(docplan.ErrBackend, "open "+g.Backend+" backend", err)
	}
	opts := docplan.DefaultCatalogOptions()
	opts.Logger = cliutil.NewLogger(s.Stderr, g.LogLevel, g.LogFormat)
	return docplan.Open(ctx, backend, opts)
}
