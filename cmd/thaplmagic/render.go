package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"time"

	flag "github.com/spf13/pflag"
	"go.uber.org/zap"

	thaplmagic "github.com/alnah/go-thaplmagic"
	"github.com/alnah/go-thaplmagic/internal/config"
	"github.com/alnah/go-thaplmagic/internal/hints"
	"github.com/alnah/go-thaplmagic/internal/logging"
)

// Sentinel errors for render command setup.
var (
	ErrInvalidWorkerCount = errors.New("invalid worker count")
	ErrInvalidTimeout     = errors.New("invalid timeout")
	ErrOutputDir          = errors.New("failed to create output directory")
)

// defaultConfigName is looked up silently when no config is requested.
const defaultConfigName = "thaplmagic"

// dirPermissions is used for the --publish dir output directory.
const dirPermissions = 0o750 // rwxr-x---: owner full, group read+execute

// Worker limits for batch rendering.
const (
	minWorkers = 1
	maxWorkers = 32
)

// runRenderCmd executes the render command and returns an exit code.
func runRenderCmd(args []string, env *Environment) int {
	flags, err := parseRenderFlags(args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			printRenderUsage(env.Stdout)
			return ExitSuccess
		}
		fmt.Fprintf(env.Stderr, "error: %v\n", err)
		printRenderUsage(env.Stderr)
		return ExitUsage
	}

	ctx, stop := notifyContext(context.Background())
	defer stop()

	if err := runRender(ctx, flags, env); err != nil {
		fmt.Fprintf(env.Stderr, "error: %v%s\n", err, hintFor(err))
		return exitCodeFor(err)
	}
	return ExitSuccess
}

// runRender loads configuration, renders every input and reports results.
func runRender(ctx context.Context, flags *renderFlags, env *Environment) error {
	warnUnknownEnvVars(env.Stderr)
	envCfg := loadEnvConfig()

	cfg, err := loadConfig(flags.common.config, envCfg)
	if err != nil {
		return err
	}
	applyEnvConfig(envCfg, cfg)
	mergeFlags(flags, cfg)

	timeout, err := resolveTimeout(flags.timeout, envCfg, cfg)
	if err != nil {
		return err
	}
	workers, err := resolveWorkers(flags.workers, envCfg)
	if err != nil {
		return err
	}

	logger := logging.New(env.Stderr, logging.Options{
		Verbose: flags.common.verbose,
		Quiet:   flags.common.quiet,
		JSON:    flags.logJSON,
	})
	defer func() { _ = logger.Sync() }()

	jobs, err := collectJobs(flags, cfg, env)
	if err != nil {
		return err
	}

	outputDir := ""
	if flags.publish == publishDir {
		outputDir = resolveOutputDir(flags.output, cfg)
		if err := os.MkdirAll(outputDir, dirPermissions); err != nil {
			return fmt.Errorf("%w: %v", ErrOutputDir, err)
		}
	}

	factory := &serviceFactory{
		base:      buildServiceOptions(cfg, timeout, logger, env),
		publish:   flags.publish,
		outputDir: outputDir,
		shared:    sharedPublisher(flags.publish, env),
	}

	logger.Debug("rendering", zap.Int("inputs", len(jobs)), zap.Int("workers", workers))
	results := renderBatch(ctx, factory, jobs, workers)
	return reportResults(results, flags.common, env)
}

// loadConfig resolves the config file. An explicit --config or
// THAPLMAGIC_CONFIG must exist; the default name is optional.
func loadConfig(flagConfig string, envCfg *envConfig) (*config.Config, error) {
	name := flagConfig
	if name == "" {
		name = envCfg.ConfigPath
	}
	if name != "" {
		return config.LoadConfig(name)
	}

	cfg, err := config.LoadConfig(defaultConfigName)
	if errors.Is(err, config.ErrConfigNotFound) {
		return config.DefaultConfig(), nil
	}
	return cfg, err
}

// mergeFlags applies command-line tool overrides to cfg.
func mergeFlags(flags *renderFlags, cfg *config.Config) {
	if flags.engine != "" {
		cfg.Tools.Engine = flags.engine
	}
	if flags.pdf2svg != "" {
		cfg.Tools.PDF2SVG = flags.pdf2svg
	}
}

// resolveTimeout returns the per-render timeout, 0 meaning none.
// Priority: flag > env > config.
func resolveTimeout(flagValue string, envCfg *envConfig, cfg *config.Config) (time.Duration, error) {
	if flagValue != "" {
		d, err := time.ParseDuration(flagValue)
		if err != nil {
			return 0, fmt.Errorf("%w: %q: %v", ErrInvalidTimeout, flagValue, err)
		}
		if d <= 0 {
			return 0, fmt.Errorf("%w: %q: must be positive", ErrInvalidTimeout, flagValue)
		}
		return d, nil
	}
	if envCfg.Timeout > 0 {
		return envCfg.Timeout, nil
	}
	return cfg.TimeoutDuration()
}

// resolveWorkers determines the number of concurrent renders.
// Priority: explicit flag > env > GOMAXPROCS-based calculation.
func resolveWorkers(flagWorkers int, envCfg *envConfig) (int, error) {
	if flagWorkers < 0 || flagWorkers > maxWorkers {
		return 0, fmt.Errorf("%w: %d (must be 0-%d)", ErrInvalidWorkerCount, flagWorkers, maxWorkers)
	}
	if flagWorkers > 0 {
		return flagWorkers, nil
	}
	if envCfg.Workers > 0 {
		return min(envCfg.Workers, maxWorkers), nil
	}

	// Auto-calculate based on GOMAXPROCS (adjusted by automaxprocs for containers).
	// Each render runs a LaTeX engine, so leave headroom.
	n := runtime.GOMAXPROCS(0) / 2
	return max(minWorkers, min(n, 8)), nil
}

// resolveOutputDir returns the --publish dir target. Priority: flag > config > ".".
func resolveOutputDir(flagOutput string, cfg *config.Config) string {
	if flagOutput != "" {
		return flagOutput
	}
	if cfg.Output.Dir != "" {
		return cfg.Output.Dir
	}
	return "."
}

// buildServiceOptions translates the merged configuration into Service options.
func buildServiceOptions(cfg *config.Config, timeout time.Duration, logger *zap.Logger, env *Environment) []thaplmagic.Option {
	opts := []thaplmagic.Option{
		thaplmagic.WithTools(thaplmagic.Tools{
			Engine:  cfg.Tools.Engine,
			PDF2SVG: cfg.Tools.PDF2SVG,
		}),
		thaplmagic.WithRenderer(thaplmagic.Renderer{
			Command:    cfg.Renderer.Command,
			PythonPath: cfg.Renderer.PythonPath,
		}),
		thaplmagic.WithDefaults(thaplmagic.Defaults{
			Format:      cfg.Defaults.Format,
			Size:        cfg.Defaults.Size,
			Encoding:    cfg.Defaults.Encoding,
			ImageMagick: cfg.Tools.ImageMagick,
		}),
		thaplmagic.WithArtifactName(cfg.Output.ArtifactName),
		thaplmagic.WithLogger(logger),
		thaplmagic.WithStderr(env.Stderr),
	}
	if timeout > 0 {
		opts = append(opts, thaplmagic.WithTimeout(timeout))
	}
	if env.Runner != nil {
		opts = append(opts, thaplmagic.WithRunner(env.Runner))
	}
	if env.Environ != nil {
		opts = append(opts, thaplmagic.WithEnviron(env.Environ))
	}
	return opts
}

// hintFor returns an actionable hint for a top-level error, if any.
func hintFor(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return hints.ForTimeout()
	case errors.Is(err, config.ErrConfigNotFound):
		return hints.ForConfigNotFound(config.SearchPaths(defaultConfigName))
	case errors.Is(err, ErrOutputDir):
		return hints.ForOutputDirectory()
	case errors.Is(err, thaplmagic.ErrInvalidArguments):
		return hints.ForArguments()
	case errors.Is(err, thaplmagic.ErrRenderFailed):
		return hints.ForRenderFailure()
	}
	return ""
}
