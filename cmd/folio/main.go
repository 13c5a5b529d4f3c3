// Package main is the entry point for the folio command.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/dshills/folio/internal/app"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// globalOptions are accepted by every subcommand.
type globalOptions struct {
	configPath string
	logLevel   string
	readOnly   bool
	addr       string
}

func (g *globalOptions) register(fs *flag.FlagSet) {
	fs.StringVar(&g.configPath, "config", "", "Path to configuration file (TOML or YAML)")
	fs.StringVar(&g.configPath, "c", "", "Path to configuration file (shorthand)")
	fs.StringVar(&g.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
}

func (g *globalOptions) appOptions(stdout, stderr io.Writer) app.Options {
	return app.Options{
		ConfigPath: g.configPath,
		LogLevel:   g.logLevel,
		ReadOnly:   g.readOnly,
		Addr:       g.addr,
		Stdout:     stdout,
		Stderr:     stderr,
	}
}

type command struct {
	name    string
	usage   string
	summary string
	run     func(ctx context.Context, args []string, stdout, stderr io.Writer) int
}

var commands []command

func init() {
	commands = []command{
		{"render", "render [-o out.html] [-published] <doc.html|doc.md>", "Normalize a document to canonical HTML", runRender},
		{"run", "run [-o out.html] [-published] <script.lua> <doc.html|doc.md>", "Apply a Lua script to a document", runScript},
		{"watch", "watch [-o out.html] [-published] <doc.html|doc.md>", "Re-render a document whenever it changes", runWatch},
		{"serve", "serve [-addr :8080]", "Serve the HTTP editing API", runServe},
	}
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		usage(stderr)
		return 2
	}

	switch args[0] {
	case "-h", "-help", "--help", "help":
		usage(stdout)
		return 0
	case "-v", "-version", "--version", "version":
		fmt.Fprintf(stdout, "folio %s\n", version)
		fmt.Fprintf(stdout, "Commit: %s\n", commit)
		fmt.Fprintf(stdout, "Built: %s\n", date)
		return 0
	}

	for _, c := range commands {
		if c.name != args[0] {
			continue
		}
		// Handle signals for graceful shutdown
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return c.run(ctx, args[1:], stdout, stderr)
	}

	fmt.Fprintf(stderr, "Error: unknown command %q\n\n", args[0])
	usage(stderr)
	return 2
}

func usage(w io.Writer) {
	fmt.Fprintf(w, "folio - rich document engine\n\n")
	fmt.Fprintf(w, "Usage: folio <command> [options] [args]\n\n")
	fmt.Fprintf(w, "Commands:\n")
	for _, c := range commands {
		fmt.Fprintf(w, "  %-8s %s\n", c.name, c.summary)
	}
	fmt.Fprintf(w, "\nEvery command accepts -config and -log-level. Run 'folio <command> -h' for details.\n")
	fmt.Fprintf(w, "\nExamples:\n")
	fmt.Fprintf(w, "  folio render notes.md               Print canonical HTML\n")
	fmt.Fprintf(w, "  folio run tidy.lua page.html        Edit page.html in place\n")
	fmt.Fprintf(w, "  folio watch -o site/a.html a.md     Rebuild on every save\n")
	fmt.Fprintf(w, "  folio serve -c folio.toml           Start the HTTP API\n")
}

// newFlagSet builds the flag set for a subcommand with the global options
// registered.
func newFlagSet(name string, stderr io.Writer, g *globalOptions) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	g.register(fs)
	for _, c := range commands {
		c := c
		if c.name == name {
			fs.Usage = func() {
				fmt.Fprintf(stderr, "Usage: folio %s\n\n%s.\n\nOptions:\n", c.usage, c.summary)
				fs.PrintDefaults()
			}
		}
	}
	return fs
}

// parse parses args and checks the positional argument count. It returns
// the exit code to use when parsing fails.
func parse(fs *flag.FlagSet, args []string, positional int) (int, bool) {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0, false
		}
		return 2, false
	}
	if fs.NArg() != positional {
		fs.Usage()
		return 2, false
	}
	return 0, true
}

func newApp(g *globalOptions, stdout, stderr io.Writer) (*app.Application, int) {
	application, err := app.New(g.appOptions(stdout, stderr))
	if err != nil {
		fmt.Fprintf(stderr, "Error: failed to initialize: %v\n", err)
		return nil, 1
	}
	return application, 0
}

func runRender(_ context.Context, args []string, stdout, stderr io.Writer) int {
	var g globalOptions
	fs := newFlagSet("render", stderr, &g)
	out := fs.String("o", "", "Write the HTML to this file instead of stdout")
	published := fs.Bool("published", false, "Write the compacted publishing form")
	warnings := fs.Bool("warnings", false, "Print import warnings to stderr")
	if code, ok := parse(fs, args, 1); !ok {
		return code
	}

	application, code := newApp(&g, stdout, stderr)
	if application == nil {
		return code
	}
	defer application.Shutdown()

	doc, err := application.OpenDocument(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if *warnings {
		for _, w := range doc.Warnings {
			fmt.Fprintf(stderr, "warning: %s\n", w)
		}
	}
	return emit(doc, *out, *published, stdout, stderr)
}

func runScript(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	var g globalOptions
	fs := newFlagSet("run", stderr, &g)
	out := fs.String("o", "", "Write the result to this file instead of the document")
	published := fs.Bool("published", false, "Write the compacted publishing form")
	dryRun := fs.Bool("n", false, "Print the result to stdout and leave the document alone")
	if code, ok := parse(fs, args, 2); !ok {
		return code
	}

	application, code := newApp(&g, stdout, stderr)
	if application == nil {
		return code
	}
	defer application.Shutdown()

	doc, err := application.OpenDocument(fs.Arg(1))
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	res, err := application.RunScript(ctx, fs.Arg(0), doc)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	fmt.Fprintf(stderr, "%d commands, %d changed\n", res.Commands, res.Changed)

	switch {
	case *dryRun:
		return emit(doc, "", *published, stdout, stderr)
	case *out != "":
		return emit(doc, *out, *published, stdout, stderr)
	case !doc.IsModified():
		return 0
	}
	if err := doc.Save(); err != nil {
		fmt.Fprintf(stderr, "Error: %v (use -o to write elsewhere)\n", err)
		return 1
	}
	return 0
}

func runWatch(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	var g globalOptions
	fs := newFlagSet("watch", stderr, &g)
	out := fs.String("o", "", "Output file (default: the document name with .html)")
	published := fs.Bool("published", false, "Write the compacted publishing form")
	if code, ok := parse(fs, args, 1); !ok {
		return code
	}

	src := fs.Arg(0)
	dst := *out
	if dst == "" {
		dst = strings.TrimSuffix(src, filepath.Ext(src)) + ".html"
		if dst == src {
			fmt.Fprintf(stderr, "Error: %s would overwrite itself; use -o\n", src)
			return 2
		}
	}

	application, code := newApp(&g, stdout, stderr)
	if application == nil {
		return code
	}
	defer application.Shutdown()

	if err := application.WatchRender(ctx, src, dst, *published, nil); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func runServe(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	var g globalOptions
	fs := newFlagSet("serve", stderr, &g)
	fs.BoolVar(&g.readOnly, "readonly", false, "Reject every edit")
	fs.StringVar(&g.addr, "addr", "", "Listen address (overrides server.addr)")
	if code, ok := parse(fs, args, 0); !ok {
		return code
	}

	application, code := newApp(&g, stdout, stderr)
	if application == nil {
		return code
	}
	defer application.Shutdown()

	if err := application.Serve(ctx); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func emit(doc *app.Document, out string, published bool, stdout, stderr io.Writer) int {
	if out != "" {
		if err := doc.SaveAs(out, published); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		return 0
	}
	html, err := doc.HTML(published)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	fmt.Fprintln(stdout, html)
	return 0
}
