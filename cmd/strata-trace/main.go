// Command strata-trace inspects trace files written by the runtime's
// trace logger, for example via strata-headless -trace.
//
// Usage:
//
//	strata-trace <command> [flags] <file.strace>
//
// Commands:
//
//	view     print events in human-readable form
//	export   convert a trace to JSONL or CSV
//	filter   copy a matching subset into a new trace file
//	stats    summarize sessions, frames and errors
//
// Examples:
//
//	strata-trace view run.strace
//	strata-trace view -layer frame run.strace
//	strata-trace export -format csv -o run.csv run.strace
//	strata-trace filter -session session-1 -o out.strace run.strace
//	strata-trace stats run.strace
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/strata-xr/strata-go/cmd/strata-trace/commands"
)

const usage = `strata-trace - Strata Runtime Trace Analyzer

Usage:
  strata-trace <command> [flags] <file.strace>

Commands:
  view     print events in human-readable form
  export   convert a trace to JSONL or CSV
  filter   copy a matching subset into a new trace file
  stats    summarize sessions, frames and errors

Use "strata-trace <command> -help" for more information about a command.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	args := os.Args[2:]
	switch os.Args[1] {
	case "view":
		runView(args)
	case "export":
		runExport(args)
	case "filter":
		runFilter(args)
	case "stats":
		runStats(args)
	case "-h", "-help", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

// newFlagSet builds a per-command flag set whose usage text names the
// subcommand and its one-line purpose.
func newFlagSet(name, purpose string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "strata-trace %s - %s\n\nUsage:\n  strata-trace %s [flags] <file.strace>\n\nFlags:\n", name, purpose, name)
		fs.PrintDefaults()
	}
	return fs
}

// traceArg parses args and returns the positional trace file path,
// exiting with usage when it is missing.
func traceArg(fs *flag.FlagSet, args []string) string {
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: trace file path required")
		fs.Usage()
		os.Exit(1)
	}
	return fs.Arg(0)
}

func runView(args []string) {
	fs := newFlagSet("view", "print events in human-readable form")
	layer := fs.String("layer", "", "only this layer (lifecycle, frame, input)")
	category := fs.String("category", "", "only this category (state, frame, input, binding, error)")
	session := fs.String("session", "", "only this session name")
	path := traceArg(fs, args)

	filter := commands.ViewFilter{SessionName: *session}
	if *layer != "" {
		l, err := commands.ParseLayerFlag(*layer)
		if err != nil {
			fatal(err)
		}
		filter.Layer = &l
	}
	if *category != "" {
		c, err := commands.ParseCategoryFlag(*category)
		if err != nil {
			fatal(err)
		}
		filter.Category = &c
	}

	if err := commands.RunView(path, filter, os.Stdout); err != nil {
		fatal(err)
	}
}

func runExport(args []string) {
	fs := newFlagSet("export", "convert a trace to JSONL or CSV")
	format := fs.String("format", "jsonl", "output format (jsonl, csv)")
	output := fs.String("o", "", "output file (default: stdout)")
	path := traceArg(fs, args)

	if err := commands.RunExport(path, *format, *output); err != nil {
		fatal(err)
	}
}

func runFilter(args []string) {
	fs := newFlagSet("filter", "copy a matching subset into a new trace file")
	output := fs.String("o", "", "output file (required)")
	runID := fs.String("run-id", "", "only this instance run ID")
	session := fs.String("session", "", "only this session name")
	timeStart := fs.String("time-start", "", "events at or after this time (RFC3339)")
	timeEnd := fs.String("time-end", "", "events before this time (RFC3339)")
	layer := fs.String("layer", "", "only this layer (lifecycle, frame, input)")
	category := fs.String("category", "", "only this category (state, frame, input, binding, error)")
	path := traceArg(fs, args)

	if *output == "" {
		fmt.Fprintln(os.Stderr, "Error: output file (-o) required")
		fs.Usage()
		os.Exit(1)
	}

	opts := commands.FilterOptions{
		Output:    *output,
		RunID:     *runID,
		Session:   *session,
		TimeStart: *timeStart,
		TimeEnd:   *timeEnd,
		Layer:     *layer,
		Category:  *category,
	}
	if err := commands.RunFilter(path, opts); err != nil {
		fatal(err)
	}
}

func runStats(args []string) {
	fs := newFlagSet("stats", "summarize sessions, frames and errors")
	path := traceArg(fs, args)

	if err := commands.RunStats(path, os.Stdout); err != nil {
		fatal(err)
	}
}
