// Command shutter-log views and analyzes shutter protocol capture files.
//
// Capture files are written by shutter-device and shutter-companion when run
// with the -protocol-log flag.
//
// Usage:
//
//	shutter-log <command> [flags] <file.shlog>
//
// Commands:
//
//	view     View events in human-readable format
//	stats    Show statistics about the capture
//	export   Export events to JSONL or CSV
//	filter   Write matching events to a new capture file
//
// Every command accepts the filter flags --session, --layer, --category,
// --direction, --role, --time-start and --time-end.
//
// Examples:
//
//	# View only capture machine and timer events
//	shutter-log view --layer core device.shlog
//
//	# Per-session intent and ack counts
//	shutter-log stats device.shlog
//
//	# Keep one session
//	shutter-log filter --session 3f2a9c1e -o one.shlog device.shlog
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/shutter-remote/shutter-go/cmd/shutter-log/commands"
)

const usage = `shutter-log - Shutter Protocol Log Analyzer

Usage:
  shutter-log <command> [flags] <file.shlog>

Commands:
  view     View events in human-readable format
  stats    Show statistics about the capture
  export   Export events to JSONL or CSV
  filter   Write matching events to a new capture file

Use "shutter-log <command> -help" for more information about a command.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "view":
		err = runView(args)
	case "stats":
		err = runStats(args)
	case "export":
		err = runExport(args)
	case "filter":
		err = runFilter(args)
	case "-h", "-help", "--help", "help":
		fmt.Print(usage)
		return
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newFlagSet creates a flag set with the shared filter flags registered.
func newFlagSet(name, summary string, opts *commands.FilterOptions) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "shutter-log %s - %s\n\nUsage:\n  shutter-log %s [flags] <file.shlog>\n\nFlags:\n", name, summary, name)
		fs.PrintDefaults()
	}
	fs.StringVar(&opts.Session, "session", "", "Filter by session ID")
	fs.StringVar(&opts.Layer, "layer", "", "Filter by layer (transport, wire, core)")
	fs.StringVar(&opts.Category, "category", "", "Filter by category (message, control, state, error, timer)")
	fs.StringVar(&opts.Direction, "direction", "", "Filter by direction (in, out)")
	fs.StringVar(&opts.Role, "role", "", "Filter by logging side (device, companion)")
	fs.StringVar(&opts.TimeStart, "time-start", "", "Filter by start time (RFC3339)")
	fs.StringVar(&opts.TimeEnd, "time-end", "", "Filter by end time (RFC3339)")
	return fs
}

// logPath parses args and returns the capture file argument.
func logPath(fs *flag.FlagSet, args []string) (string, error) {
	if err := fs.Parse(args); err != nil {
		return "", err
	}
	if fs.NArg() < 1 {
		fs.Usage()
		return "", fmt.Errorf("log file path required")
	}
	return fs.Arg(0), nil
}

func runView(args []string) error {
	var opts commands.FilterOptions
	fs := newFlagSet("view", "View events in human-readable format", &opts)
	path, err := logPath(fs, args)
	if err != nil {
		return err
	}
	return commands.RunView(path, opts, os.Stdout)
}

func runStats(args []string) error {
	var opts commands.FilterOptions
	fs := newFlagSet("stats", "Show statistics about the capture", &opts)
	path, err := logPath(fs, args)
	if err != nil {
		return err
	}
	return commands.RunStats(path, opts, os.Stdout)
}

func runExport(args []string) error {
	var opts commands.FilterOptions
	fs := newFlagSet("export", "Export events to JSONL or CSV", &opts)
	format := fs.String("format", "jsonl", "Output format (jsonl, csv)")
	output := fs.String("o", "", "Output file (default: stdout)")
	path, err := logPath(fs, args)
	if err != nil {
		return err
	}
	return commands.RunExport(path, *format, *output, opts, os.Stdout)
}

func runFilter(args []string) error {
	var opts commands.FilterOptions
	fs := newFlagSet("filter", "Write matching events to a new capture file", &opts)
	output := fs.String("o", "", "Output file (required)")
	path, err := logPath(fs, args)
	if err != nil {
		return err
	}
	if *output == "" {
		fs.Usage()
		return fmt.Errorf("output file (-o) required")
	}
	return commands.RunFilter(path, *output, opts, os.Stdout)
}
