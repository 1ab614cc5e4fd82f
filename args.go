package thaplmagic

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/kballard/go-shellquote"
	flag "github.com/spf13/pflag"

	"github.com/alnah/go-thaplmagic/internal/fileutil"
)

// multiCharShorthands maps the cell magic's two-letter short options onto
// their long names. pflag shorthands are a single character, so "-sc" would
// otherwise parse as "-s c".
var multiCharShorthands = map[string]string{
	"-sc": "--scale",
	"-po": "--pictureoptions",
	"-ct": "--circuitikz",
}

// cellFlags holds raw flag values before normalization.
type cellFlags struct {
	scale          string
	size           string
	format         string
	encoding       string
	preamble       string
	packages       string
	libraries      string
	save           string
	imageMagick    string
	pictureOptions string
	tikzOptions    string
	showLaTeX      bool
	circuitikz     bool
}

// newCellFlagSet declares the cell argument schema.
func newCellFlagSet(f *cellFlags, d Defaults) *flag.FlagSet {
	fs := flag.NewFlagSet("thapl", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&f.scale, "scale", DefaultScale, "scaling factor of plots (-sc)")
	fs.StringVarP(&f.size, "size", "s", d.size(), "pixel size of plots, \"w,h\"")
	fs.StringVarP(&f.format, "format", "f", d.format(), "plot format (png, svg or jpg)")
	fs.StringVarP(&f.encoding, "encoding", "e", d.encoding(), "text encoding, e.g. utf-8")
	fs.StringVarP(&f.preamble, "preamble", "x", "", "LaTeX preamble inserted before the document")
	fs.StringVarP(&f.packages, "package", "p", "", "LaTeX packages to load, e.g. pgfplots,textcomp")
	fs.StringVarP(&f.libraries, "library", "l", "", "TikZ libraries to load, e.g. matrix,arrows")
	fs.StringVarP(&f.save, "save", "S", "", "save a copy of the image to this file")
	fs.StringVarP(&f.imageMagick, "imagemagick", "i", d.imageMagick(), "ImageMagick executable, optionally with full path")
	fs.StringVar(&f.pictureOptions, "pictureoptions", "", "options for the picture environment (-po)")
	fs.BoolVar(&f.showLaTeX, "showlatex", false, "print the source instead of rendering")
	fs.BoolVar(&f.circuitikz, "circuitikz", false, "use CircuiTikZ instead of TikZ (-ct)")
	fs.StringVar(&f.tikzOptions, "tikzoptions", "", "options passed when loading TikZ or CircuiTikZ")

	return fs
}

// CellUsage writes the cell argument reference to w.
func CellUsage(w io.Writer) {
	var f cellFlags
	fs := newCellFlagSet(&f, Defaults{})
	fmt.Fprint(w, fs.FlagUsages())
}

// ParseLine tokenizes a cell argument line with POSIX shell quoting and
// resolves it against the built-in defaults. cell is the cell body; inline
// code tokens from the line are prepended to it.
func ParseLine(line, cell string) (*RenderRequest, error) {
	return parseLine(line, cell, Defaults{})
}

// ParseArgs resolves already tokenized cell arguments.
func ParseArgs(args []string, cell string) (*RenderRequest, error) {
	return parseArgs(args, cell, Defaults{})
}

func parseLine(line, cell string, d Defaults) (*RenderRequest, error) {
	// POSIX quoting: within double quotes a backslash is kept unless it
	// precedes one of $ ` " \ or a newline, so "\usepackage{x}" survives.
	args, err := shellquote.Split(line)
	if err != nil {
		return nil, fmt.Errorf("%w: tokenizing %q: %v", ErrInvalidArguments, line, err)
	}
	return parseArgs(args, cell, d)
}

func parseArgs(args []string, cell string, d Defaults) (*RenderRequest, error) {
	var f cellFlags
	fs := newCellFlagSet(&f, d)

	expanded, err := expandShorthands(fs, args)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArguments, err)
	}
	if err := fs.Parse(expanded); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, fmt.Errorf("%w: help requested", ErrInvalidArguments)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidArguments, err)
	}

	size, err := ParseSize(f.size)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidArguments, err)
	}

	req := &RenderRequest{
		Scale:          f.scale,
		Size:           size,
		Format:         f.format,
		Encoding:       f.encoding,
		Preamble:       f.preamble,
		Packages:       fileutil.SplitList(f.packages),
		Libraries:      fileutil.SplitList(f.libraries),
		SavePath:       f.save,
		ImageMagick:    f.imageMagick,
		PictureOptions: f.pictureOptions,
		TikZOptions:    f.tikzOptions,
		ShowLaTeX:      f.showLaTeX,
		CircuiTikZ:     f.circuitikz,
		Source:         strings.Join(fs.Args(), "") + cell,
	}

	if err := req.Validate(); err != nil {
		return nil, err
	}
	return req, nil
}

// expandShorthands rewrites "-sc", "-po" and "-ct" (and their "=value"
// forms) to long options. A token consumed as the value of the previous
// flag is never rewritten, and an option-like token in that position is an
// error. Tokens after "--" are left alone.
func expandShorthands(fs *flag.FlagSet, args []string) ([]string, error) {
	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			return append(out, args[i:]...), nil
		}
		name, value, hasValue := strings.Cut(arg, "=")
		if long, ok := multiCharShorthands[name]; ok {
			if hasValue {
				arg = long + "=" + value
			} else {
				arg = long
			}
		}
		out = append(out, arg)

		if hasValue || !takesValue(fs, arg) || i+1 == len(args) {
			continue
		}
		i++
		next := args[i]
		if looksLikeOption(next) {
			return nil, fmt.Errorf("flag %s expected one argument, got %q", args[i-1], next)
		}
		out = append(out, next)
	}
	return out, nil
}

// takesValue reports whether arg is a lone "--name" or "-n" flag that
// consumes the following token.
func takesValue(fs *flag.FlagSet, arg string) bool {
	var f *flag.Flag
	switch {
	case strings.HasPrefix(arg, "--"):
		f = fs.Lookup(arg[2:])
	case len(arg) == 2 && arg[0] == '-':
		f = fs.ShorthandLookup(arg[1:])
	}
	return f != nil && f.NoOptDefVal == ""
}

// looksLikeOption mirrors argparse: a dash-prefixed token is an option
// unless it is a lone "-" or a negative number.
func looksLikeOption(tok string) bool {
	if len(tok) < 2 || tok[0] != '-' {
		return false
	}
	_, err := strconv.ParseFloat(tok, 64)
	return err != nil
}
