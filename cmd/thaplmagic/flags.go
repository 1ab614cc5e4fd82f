package main

import (
	"errors"
	"fmt"

	flag "github.com/spf13/pflag"
)

// Publish targets for --publish.
const (
	publishJSON    = "json"
	publishMsgpack = "msgpack"
	publishDir     = "dir"
)

// ErrInvalidPublish is returned for an unknown --publish value.
var ErrInvalidPublish = errors.New("invalid publish target")

// ErrConflictingArgs is returned when --line and cell args after "--" are both given.
var ErrConflictingArgs = errors.New("use either --line or cell arguments after --, not both")

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config  string
	quiet   bool
	verbose bool
}

// renderFlags holds all flags for the render command.
type renderFlags struct {
	common    commonFlags
	publish   string
	output    string
	workers   int
	timeout   string
	engine    string
	pdf2svg   string
	line      string
	logJSON   bool
	inputs    []string // cell files; empty or "-" reads stdin
	cellArgs  []string // tokens after "--"
	lineIsSet bool
}

// addCommonFlags adds common flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "show pipeline stages and commands")
}

// parseRenderFlags parses render flags. Arguments after "--" are cell
// arguments and are not interpreted here.
func parseRenderFlags(args []string) (*renderFlags, error) {
	fs := flag.NewFlagSet(cmdRender, flag.ContinueOnError)
	fs.SetOutput(discard{})
	f := &renderFlags{}

	fs.StringVarP(&f.publish, "publish", "P", publishJSON, "display target: json, msgpack, dir")
	fs.StringVarP(&f.output, "output", "o", "", "output directory for --publish dir")
	fs.IntVarP(&f.workers, "workers", "w", 0, "parallel renders (0 = auto)")
	fs.StringVarP(&f.timeout, "timeout", "t", "", "per-render timeout (e.g., 30s, 2m)")
	fs.StringVar(&f.engine, "engine", "", "LaTeX engine executable")
	fs.StringVar(&f.pdf2svg, "pdf2svg", "", "pdf2svg executable")
	fs.StringVarP(&f.line, "line", "l", "", "cell arguments as one shell-quoted line")
	fs.BoolVar(&f.logJSON, "log-json", false, "write diagnostics as JSON lines")
	addCommonFlags(fs, &f.common)

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	positional := fs.Args()
	if dash := fs.ArgsLenAtDash(); dash >= 0 {
		f.inputs = positional[:dash]
		f.cellArgs = positional[dash:]
	} else {
		f.inputs = positional
	}
	f.lineIsSet = fs.Changed("line")

	switch f.publish {
	case publishJSON, publishMsgpack, publishDir:
	default:
		return nil, fmt.Errorf("%w: %q (want json, msgpack or dir)", ErrInvalidPublish, f.publish)
	}
	if f.lineIsSet && len(f.cellArgs) > 0 {
		return nil, ErrConflictingArgs
	}

	return f, nil
}

// discard swallows pflag's own error output; errors are reported by the caller.
type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }
