package thaplmagic

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/alnah/go-thaplmagic/internal/fileutil"
	"github.com/alnah/go-thaplmagic/internal/logging"
)

// Pipeline states, logged at debug level as each one is reached.
const (
	stateDocumentWritten    = "document-written"
	stateRendered           = "rendered"
	stateFailed             = "failed"
	stateConvertedOrSkipped = "converted-or-skipped"
	stateDone               = "done"
)

// maxStderrLog bounds the subprocess stderr attached to a diagnostic.
const maxStderrLog = 2048

// Service runs cells through the render pipeline and publishes the result.
// A Service holds no per-run state and is safe for concurrent use.
type Service struct {
	cfg       serviceConfig
	runner    CommandRunner
	publisher Publisher
	logger    *zap.Logger
	environ   func() []string
	stderr    io.Writer
}

// New creates a Service with default configuration.
// Without options it runs xelatex, publishes JSON lines on stdout and logs
// diagnostics to stderr.
func New(opts ...Option) *Service {
	s := &Service{
		cfg: serviceConfig{
			tools:        Tools{Engine: DefaultEngine, PDF2SVG: DefaultPDF2SVG},
			renderer:     Renderer{Command: DefaultRendererCommand},
			artifactName: DefaultArtifactName,
		},
		runner:  &ExecRunner{},
		environ: os.Environ,
		stderr:  os.Stderr,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = logging.New(os.Stderr, logging.Options{})
	}
	if s.publisher == nil {
		s.publisher = NewJSONPublisher(os.Stdout)
	}

	return s
}

// RunCell parses a magic line and runs the cell body.
// Argument errors wrap ErrInvalidArguments and happen before any side effect.
func (s *Service) RunCell(ctx context.Context, line, cell string) (*Outcome, error) {
	req, err := parseLine(line, cell, s.cfg.defaults)
	if err != nil {
		return nil, err
	}
	return s.Run(ctx, req)
}

// RunArgs is RunCell for an already tokenized argument list.
func (s *Service) RunArgs(ctx context.Context, args []string, cell string) (*Outcome, error) {
	req, err := parseArgs(args, cell, s.cfg.defaults)
	if err != nil {
		return nil, err
	}
	return s.Run(ctx, req)
}

// Run renders req and publishes the image, or the engine log on failure.
//
// Only argument errors, workspace failures and publisher failures are
// returned. Engine, conversion and artifact problems are logged and
// reflected in the Outcome status. When publishing fails, the outcome is
// returned along with an error wrapping ErrPublish.
func (s *Service) Run(ctx context.Context, req *RenderRequest) (*Outcome, error) {
	if req == nil {
		return nil, fmt.Errorf("%w: nil request", ErrInvalidArguments)
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if req.ShowLaTeX {
		if _, err := fmt.Fprintln(s.stderr, req.Source); err != nil {
			s.logger.Warn("writing source", zap.Error(err))
		}
		return &Outcome{Status: StatusShowLaTeX}, nil
	}

	runCtx := ctx
	if s.cfg.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.cfg.timeout)
		defer cancel()
	}

	ws, err := NewWorkspace(s.logger)
	if err != nil {
		return nil, err
	}
	defer func() { _ = ws.Close() }()

	logger := s.logger.With(zap.String("workspace", ws.Dir()))

	if err := s.writeDocument(ws, req); err != nil {
		return nil, err
	}
	logger.Debug("stage", zap.String("state", stateDocumentWritten))

	if ok, latexLog, cause := s.runLatex(runCtx, ws, logger); !ok {
		logger.Debug("stage", zap.String("state", stateFailed))
		out := &Outcome{Status: StatusFailed, Log: latexLog, Cause: cause}
		return out, s.publish(ctx, out)
	}
	logger.Debug("stage", zap.String("state", stateRendered))

	s.convert(runCtx, ws, req, logger)
	logger.Debug("stage", zap.String("state", stateConvertedOrSkipped))

	out, err := s.publishArtifact(ctx, ws, req, logger)
	logger.Debug("stage", zap.String("state", stateDone), zap.Stringer("status", out.Status))
	return out, err
}

// writeDocument writes the source and the assembled document, both in the
// request encoding.
func (s *Service) writeDocument(ws *Workspace, req *RenderRequest) error {
	source, err := encodeText(req.Encoding, req.Source)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrWorkspace, sourceFileName, err)
	}
	if err := ws.WriteFile(sourceFileName, source); err != nil {
		return err
	}

	doc := AssembleDocument(req, s.cfg.renderer)
	document, err := encodeText(req.Encoding, doc.String())
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrWorkspace, documentFileName, err)
	}
	return ws.WriteFile(documentFileName, document)
}

// runLatex runs the engine in the workspace. On failure it returns the
// content of the engine log, or an empty log when none can be read, and the
// context error if the run was cut short.
func (s *Service) runLatex(ctx context.Context, ws *Workspace, logger *zap.Logger) (bool, string, error) {
	cmd := Command{
		Name: s.cfg.tools.Engine,
		Args: []string{"--shell-escape", documentFileName},
		Dir:  ws.Dir(),
		Env:  engineEnv(s.environ(), s.callerDir(logger)),
	}
	logger.Debug("running", zap.Stringer("command", cmd))

	_, stderr, err := s.runner.Run(ctx, cmd)
	if err == nil {
		return true, "", nil
	}

	fields := []zap.Field{
		zap.String("tool", cmd.Name),
		zap.Int("exit_code", exitCode(err)),
		zap.Error(err),
	}
	ctxErr := ctx.Err()
	if ctxErr != nil {
		fields = append(fields, zap.NamedError("cause", ctxErr))
	}
	if stderr = strings.TrimSpace(stderr); stderr != "" {
		fields = append(fields, zap.String("stderr", tail(stderr, maxStderrLog)))
	}
	logger.Warn(ErrRenderFailed.Error(), fields...)

	data, err := ws.ReadFile(logFileName)
	if err != nil {
		logger.Warn(ErrLogUnreadable.Error(), zap.String("path", ws.Path(logFileName)), zap.Error(err))
		return false, "", ctxErr
	}
	return false, string(data), ctxErr
}

// convert runs the format conversion, if any. Failures are logged only.
// The requested size is not forwarded to the converters.
func (s *Service) convert(ctx context.Context, ws *Workspace, req *RenderRequest, logger *zap.Logger) {
	var cmd Command
	switch {
	case req.IsJPEG():
		name, args := splitCommand(req.ImageMagick)
		args = append(args, pngFileName, "-quality", "100", "-background", "white", "-flatten", jpgFileName)
		cmd = Command{Name: name, Args: args}
	case req.IsSVG():
		cmd = Command{Name: s.cfg.tools.PDF2SVG, Args: []string{pdfFileName, svgFileName}}
	default:
		return
	}
	cmd.Dir = ws.Dir()
	cmd.Env = s.environ()
	logger.Debug("running", zap.Stringer("command", cmd))

	_, stderr, err := s.runner.Run(ctx, cmd)
	if err == nil {
		return
	}
	fields := []zap.Field{
		zap.String("tool", cmd.Name),
		zap.Int("exit_code", exitCode(err)),
		zap.Error(err),
	}
	if stderr = strings.TrimSpace(stderr); stderr != "" {
		fields = append(fields, zap.String("stderr", tail(stderr, maxStderrLog)))
	}
	logger.Warn(ErrConversionFailed.Error(), fields...)
}

// publishArtifact reads the image, saves a copy, fixes SVG sizes and
// publishes it. A missing image is logged and nothing is published.
func (s *Service) publishArtifact(ctx context.Context, ws *Workspace, req *RenderRequest, logger *zap.Logger) (*Outcome, error) {
	name := s.cfg.artifactName + "." + req.Format
	raw, err := ws.ReadFile(name)
	if err != nil {
		logger.Warn(ErrArtifactMissing.Error(), zap.String("path", ws.Path(name)), zap.Error(err))
		return &Outcome{Status: StatusNoArtifact}, nil
	}

	if req.SavePath != "" {
		if err := fileutil.WriteFile(req.SavePath, raw); err != nil {
			logger.Warn("saving image", zap.String("path", req.SavePath), zap.Error(err))
		}
	}

	out := &Outcome{Status: StatusPublished, Data: raw, MIME: MIMEType(req.Format)}
	if req.IsSVG() {
		size := req.Size
		if fixed, err := FixSVGSize(raw, &size); err != nil {
			logger.Warn("fixing SVG size", zap.String("path", ws.Path(name)), zap.Error(err))
		} else {
			out.Data = fixed
		}
		out.Metadata = isolatedMetadata()
	}

	return out, s.publish(ctx, out)
}

func (s *Service) publish(ctx context.Context, out *Outcome) error {
	if err := s.publisher.Publish(ctx, out.Payload()); err != nil {
		return fmt.Errorf("%w: %v", ErrPublish, err)
	}
	return nil
}

// callerDir is the directory prepended to TEXINPUTS so that \input and
// \includegraphics resolve relative to where the cell was run.
func (s *Service) callerDir(logger *zap.Logger) string {
	if s.cfg.workDir != "" {
		return s.cfg.workDir
	}
	dir, err := os.Getwd()
	if err != nil {
		logger.Warn("resolving working directory", zap.Error(err))
		return ""
	}
	return dir
}

// tail returns at most the last n bytes of s.
func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}
