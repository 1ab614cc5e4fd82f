package thaplmagic

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/alnah/go-thaplmagic/internal/fileutil"
)

// Output format constants.
const (
	FormatPNG  = "png"
	FormatSVG  = "svg"
	FormatJPG  = "jpg"
	FormatJPEG = "jpeg"
)

// Default cell argument values.
const (
	DefaultScale       = "1"
	DefaultSize        = "400,240"
	DefaultFormat      = FormatPNG
	DefaultEncoding    = "utf-8"
	DefaultImageMagick = "convert"
)

// Size is an image size in pixels.
type Size struct {
	Width  int
	Height int
}

// ParseSize parses a "W,H" pair of positive integers.
func ParseSize(s string) (Size, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return Size{}, fmt.Errorf("%w: %q (want \"W,H\")", ErrInvalidSize, s)
	}

	width, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return Size{}, fmt.Errorf("%w: %q: width is not an integer", ErrInvalidSize, s)
	}
	height, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return Size{}, fmt.Errorf("%w: %q: height is not an integer", ErrInvalidSize, s)
	}

	size := Size{Width: width, Height: height}
	if err := size.Validate(); err != nil {
		return Size{}, err
	}
	return size, nil
}

// Validate checks that both dimensions are positive.
func (s Size) Validate() error {
	if s.Width <= 0 || s.Height <= 0 {
		return fmt.Errorf("%w: %dx%d (dimensions must be positive)", ErrInvalidSize, s.Width, s.Height)
	}
	return nil
}

// String returns the size in "W,H" form.
func (s Size) String() string {
	return strconv.Itoa(s.Width) + "," + strconv.Itoa(s.Height)
}

// RenderRequest is the normalized configuration for one cell run.
type RenderRequest struct {
	Scale          string   // numeric string, carried but not used by the document
	Size           Size     // pixel size applied to svg output
	Format         string   // png, svg, jpg, jpeg; other extensions pass through
	Encoding       string   // encoding of magic.thapl and magic.tex
	Preamble       string   // inserted verbatim before \begin{document}
	Packages       []string // one \usepackage line each
	Libraries      []string // one \usetikzlibrary line each
	SavePath       string   // copy of the artifact (empty = none)
	ImageMagick    string   // converter executable, may include a subcommand
	PictureOptions string   // carried but not used by the document
	TikZOptions    string   // options for the tikz/circuitikz package
	ShowLaTeX      bool     // print the source instead of rendering
	CircuiTikZ     bool     // load circuitikz instead of tikz
	Source         string   // Thapl code
}

// DefaultRequest returns a request holding the built-in defaults.
func DefaultRequest() *RenderRequest {
	size, _ := ParseSize(DefaultSize)
	return &RenderRequest{
		Scale:       DefaultScale,
		Size:        size,
		Format:      DefaultFormat,
		Encoding:    DefaultEncoding,
		ImageMagick: DefaultImageMagick,
	}
}

// Validate checks the request invariants.
// Every error wraps ErrInvalidArguments.
func (r *RenderRequest) Validate() error {
	if err := r.Size.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidArguments, err)
	}
	if scale, err := strconv.ParseFloat(strings.TrimSpace(r.Scale), 64); err != nil || scale <= 0 {
		return fmt.Errorf("%w: %w: %q", ErrInvalidArguments, ErrInvalidScale, r.Scale)
	}
	if err := fileutil.ValidateExtension(r.Format); err != nil {
		return fmt.Errorf("%w: %w: %q: %v", ErrInvalidArguments, ErrInvalidFormat, r.Format, err)
	}
	if _, err := lookupEncoding(r.Encoding); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidArguments, err)
	}
	return nil
}

// IsJPEG reports whether the request asks for JPEG output.
func (r *RenderRequest) IsJPEG() bool {
	return r.Format == FormatJPG || r.Format == FormatJPEG
}

// IsSVG reports whether the request asks for SVG output.
func (r *RenderRequest) IsSVG() bool {
	return r.Format == FormatSVG
}

// Defaults overrides built-in cell argument defaults.
// Empty fields keep the built-in value.
type Defaults struct {
	Format      string
	Size        string
	Encoding    string
	ImageMagick string
}

func (d Defaults) format() string      { return orDefault(d.Format, DefaultFormat) }
func (d Defaults) size() string        { return orDefault(d.Size, DefaultSize) }
func (d Defaults) encoding() string    { return orDefault(d.Encoding, DefaultEncoding) }
func (d Defaults) imageMagick() string { return orDefault(d.ImageMagick, DefaultImageMagick) }

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// Default executables.
const (
	DefaultEngine  = "xelatex"
	DefaultPDF2SVG = "pdf2svg"
)

// Tools names the external executables used by the pipeline.
// ImageMagick is a per-request setting (-i/--imagemagick).
type Tools struct {
	Engine  string // LaTeX engine, run with --shell-escape
	PDF2SVG string // PDF to SVG converter
}

// Option configures a Service.
type Option func(*Service)

// serviceConfig holds internal configuration for Service.
type serviceConfig struct {
	timeout      time.Duration // 0 = no timeout
	tools        Tools
	renderer     Renderer
	defaults     Defaults
	artifactName string
	workDir      string // empty = process working directory at run time
}

// WithTimeout bounds every subprocess of a run.
// Panics if d <= 0 (programmer error, similar to time.NewTicker).
func WithTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("thaplmagic: WithTimeout duration must be positive")
	}
	return func(s *Service) {
		s.cfg.timeout = d
	}
}

// WithTools overrides the engine and pdf2svg executables.
// Empty fields keep the defaults.
func WithTools(t Tools) Option {
	return func(s *Service) {
		if t.Engine != "" {
			s.cfg.tools.Engine = t.Engine
		}
		if t.PDF2SVG != "" {
			s.cfg.tools.PDF2SVG = t.PDF2SVG
		}
	}
}

// WithRenderer configures the Thapl interpreter command embedded in the document.
func WithRenderer(r Renderer) Option {
	return func(s *Service) {
		if r.Command != "" {
			s.cfg.renderer.Command = r.Command
		}
		s.cfg.renderer.PythonPath = r.PythonPath
	}
}

// WithDefaults overrides the cell argument defaults used by RunCell.
func WithDefaults(d Defaults) Option {
	return func(s *Service) {
		s.cfg.defaults = d
	}
}

// WithArtifactName sets the base name of the published file (default "tikz").
func WithArtifactName(name string) Option {
	return func(s *Service) {
		if name != "" {
			s.cfg.artifactName = name
		}
	}
}

// WithWorkDir sets the caller directory prepended to TEXINPUTS.
func WithWorkDir(dir string) Option {
	return func(s *Service) {
		s.cfg.workDir = dir
	}
}

// WithRunner injects the subprocess runner.
func WithRunner(r CommandRunner) Option {
	return func(s *Service) {
		s.runner = r
	}
}

// WithPublisher sets the display collaborator.
func WithPublisher(p Publisher) Option {
	return func(s *Service) {
		s.publisher = p
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

// WithStderr sets the writer receiving --showlatex output (default os.Stderr).
func WithStderr(w io.Writer) Option {
	return func(s *Service) {
		s.stderr = w
	}
}

// WithEnviron sets the source of the base subprocess environment
// (default os.Environ). The returned slice is copied, never mutated.
func WithEnviron(fn func() []string) Option {
	return func(s *Service) {
		s.environ = fn
	}
}
