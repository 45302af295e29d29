package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/nonibytes/docplan/docplan"
	"github.com/nonibytes/docplan/internal/cliopt"
	"github.com/nonibytes/docplan/internal/cliutil"
)

// RunPlan prints the candidate scans for a predicate and sort order.
func RunPlan(g cliopt.GlobalOptions, s cliutil.Streams, argv []string) int {
	fs := flag.NewFlagSet("plan", flag.ContinueOnError)
	fs.SetOutput(s.Stderr)
	var collection, predicate, sortSpec, format string
	var explain, strict bool
	fs.StringVar(&collection, "collection", "", "collection")
	fs.StringVar(&collection, "c", "", "collection")
	fs.StringVar(&predicate, "query", "{}", "predicate json")
	fs.StringVar(&predicate, "q", "{}", "predicate json")
	fs.StringVar(&sortSpec, "sort", "", "sort key pattern json")
	fs.StringVar(&sortSpec, "s", "", "sort key pattern json")
	fs.BoolVar(&explain, "explain", false, "include the planner trace")
	fs.BoolVar(&strict, "strict", false, "fail on unsatisfiable predicates")
	fs.StringVar(&format, "format", "pretty", "output format: pretty|json")
	if err := fs.Parse(argv); err != nil {
		return 2
	}
	if collection == "" {
		fmt.Fprintln(s.Stderr, "missing --collection")
		return 2
	}
	ctx := context.Background()
	cat, err := openCatalog(ctx, g, s)
	if err != nil {
		fmt.Fprintln(s.Stderr, err)
		return 1
	}
	defer cat.Close()

	res, err := cat.Plan(ctx, collection, []byte(predicate), []byte(sortSpec), docplan.PlanOptions{
		Explain:             explain,
		RejectUnsatisfiable: strict,
	})
	if err != nil {
		fmt.Fprintln(s.Stderr, err)
		return 1
	}
	if cliutil.ParseOutputFormat(format) == cliutil.FormatJSON {
		cliutil.PrintJSON(s.Stdout, res)
		return 0
	}
	printPlan(s.Stdout, res)
	return 0
}

func printPlan(w io.Writer, res docplan.PlanResult) {
	if res.Unsatisfiable {
		fmt.Fprintf(w, "unsatisfiable: %s\n", res.Reason)
	} else {
		fmt.Fprintf(w, "%d candidate(s), %d index(es) evaluated", len(res.Candidates), res.Evaluated)
		if res.ShortCircuited {
			fmt.Fprint(w, ", short-circuited")
		}
		fmt.Fprintln(w)
		for i, c := range res.Candidates {
			fmt.Fprintf(w, "  %d. %s\n", i+1, describeCandidate(c))
		}
	}
	fmt.Fprintf(w, "catalog fingerprint %s\n", res.Fingerprint)
	if len(res.ExplainSteps) > 0 {
		fmt.Fprintln(w, "=== Explain ===")
		for _, step := range res.ExplainSteps {
			fmt.Fprintf(w, "  %s\n", step)
		}
	}
}

func describeCandidate(c docplan.Candidate) string {
	var b strings.Builder
	if c.FullScan {
		b.WriteString("full scan")
	} else {
		fmt.Fprintf(&b, "%s %s %s", c.Index, c.KeyPattern, c.ScanDirection)
	}
	var flags []string
	if c.Optimal {
		flags = append(flags, "optimal")
	}
	if c.RequiresExtraSort {
		flags = append(flags, "extra sort")
	}
	if c.ExactKeyMatch {
		flags = append(flags, "exact key match")
	} else if c.KeyMatch {
		flags = append(flags, "key match")
	}
	if len(flags) > 0 {
		fmt.Fprintf(&b, " [%s]", strings.Join(flags, ", "))
	}
	return b.String()
}
