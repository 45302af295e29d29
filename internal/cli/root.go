package cli

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/nonibytes/docplan/internal/cli/commands"
	"github.com/nonibytes/docplan/internal/cliopt"
	"github.com/nonibytes/docplan/internal/cliutil"
)

// Execute runs the CLI on the process streams and returns an exit code.
func Execute(argv []string) int {
	return Run(argv, os.Stdin, os.Stdout, os.Stderr)
}

// Run runs the CLI on the given streams and returns an exit code.
func Run(argv []string, stdin io.Reader, stdout, stderr io.Writer) int {
	s := cliutil.Streams{Stdin: stdin, Stdout: stdout, Stderr: stderr}

	globalFS := flag.NewFlagSet("docplan", flag.ContinueOnError)
	globalFS.SetOutput(stderr)
	g := cliopt.DefaultGlobalOptions()
	cliopt.BindGlobalFlags(globalFS, &g)

	if err := globalFS.Parse(argv); err != nil {
		// flag package already printed the error
		return 2
	}

	args := globalFS.Args()
	if len(args) == 0 {
		PrintRootHelp(stdout)
		return 0
	}

	verb := args[0]
	rest := args[1:]

	switch verb {
	case "--help", "-h", "help":
		PrintRootHelp(stdout)
		return 0
	}

	if err := cliopt.Load(globalFS, &g); err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}
	if verb == "match" {
		// match runs without a backend.
		return commands.RunMatch(g, s, rest)
	}
	if err := g.Validate(); err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}

	switch verb {
	case "init":
		return commands.RunInit(g, s, rest)
	case "index":
		return commands.RunIndex(g, s, rest)
	case "collections":
		return commands.RunCollections(g, s, rest)
	case "plan":
		return commands.RunPlan(g, s, rest)
	default:
		fmt.Fprintf(stderr, "unknown command: %s\n\n", verb)
		PrintRootHelp(stderr)
		return 2
	}
}
