package commands

import (
	"bufio"
	"flag"
	"fmt"
	"strings"

	"github.com/nonibytes/docplan/docplan"
	"github.com/nonibytes/docplan/docplan/value"
	"github.com/nonibytes/docplan/internal/cliopt"
	"github.com/nonibytes/docplan/internal/cliutil"
)

// RunMatch filters JSON lines from stdin through a predicate and echoes the
// documents that satisfy it. It needs no backend.
func RunMatch(_ cliopt.GlobalOptions, s cliutil.Streams, argv []string) int {
	fs := flag.NewFlagSet("match", flag.ContinueOnError)
	fs.SetOutput(s.Stderr)
	var predicate string
	var count bool
	fs.StringVar(&predicate, "query", "{}", "predicate json")
	fs.StringVar(&predicate, "q", "{}", "predicate json")
	fs.BoolVar(&count, "count", false, "print only the number of matches")
	if err := fs.Parse(argv); err != nil {
		return 2
	}
	m, err := docplan.CompileMatcher([]byte(predicate))
	if err != nil {
		fmt.Fprintln(s.Stderr, err)
		return 1
	}

	scanner := bufio.NewScanner(s.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	matched, lineNo := 0, 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		doc, err := value.ParseDoc([]byte(line))
		if err != nil {
			fmt.Fprintf(s.Stderr, "line %d: %v\n", lineNo, err)
			return 1
		}
		if !m.Matches(doc) {
			continue
		}
		matched++
		if !count {
			fmt.Fprintln(s.Stdout, line)
		}
	}
	if err := scanner.Err(); err != nil {
		fmt.Fprintf(s.Stderr, "read stdin: %v\n", err)
		return 1
	}
	if count {
		fmt.Fprintln(s.Stdout, matched)
	}
	return 0
}
