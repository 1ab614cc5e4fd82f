package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	flag "github.com/spf13/pflag"

	thaplmagic "github.com/alnah/go-thaplmagic"
	"github.com/alnah/go-thaplmagic/internal/hints"
)

// Doctor status values.
const (
	statusReady    = "ready"
	statusWarnings = "warnings"
	statusErrors   = "errors"
)

// doctorProbeTimeout bounds each version or package probe.
const doctorProbeTimeout = 10 * time.Second

// bashfulPackage is the LaTeX package the generated document loads.
const bashfulPackage = "bashful.sty"

// doctorResult holds all diagnostic information.
type doctorResult struct {
	Status   string     `json:"status"` // "ready", "warnings", "errors"
	Tools    []toolInfo `json:"tools"`
	Bashful  bool       `json:"bashful"`
	Env      envInfo    `json:"environment"`
	System   systemInfo `json:"system"`
	Warnings []string   `json:"warnings,omitempty"`
	Errors   []string   `json:"errors,omitempty"`
}

// toolInfo holds the detection result of one external executable.
type toolInfo struct {
	Role     string `json:"role"` // engine, renderer, pdf2svg, imagemagick
	Name     string `json:"name"`
	Found    bool   `json:"found"`
	Path     string `json:"path,omitempty"`
	Version  string `json:"version,omitempty"`
	Required bool   `json:"required"`
}

// envInfo holds environment detection results.
type envInfo struct {
	OS            string `json:"os"`
	Arch          string `json:"arch"`
	Container     bool   `json:"container"`
	ContainerHint string `json:"container_hint,omitempty"`
	CI            bool   `json:"ci"`
	ConfigFile    string `json:"config_file,omitempty"`
}

// systemInfo holds system check results.
type systemInfo struct {
	TempWritable bool `json:"temp_writable"`
}

// doctorTool describes an executable to probe.
type doctorTool struct {
	role     string
	name     string
	envVar   string
	required bool
	version  bool // run "<name> --version"
}

// runDoctorCmd executes the doctor command and returns an exit code.
// Exit codes: 0 = OK (including warnings), 1 = errors found.
func runDoctorCmd(args []string, env *Environment) int {
	fs := flag.NewFlagSet(cmdDoctor, flag.ContinueOnError)
	fs.SetOutput(discard{})
	var jsonOutput bool
	var configName string
	fs.BoolVar(&jsonOutput, "json", false, "machine-readable output")
	fs.StringVarP(&configName, "config", "c", "", "config file name or path")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			printDoctorUsage(env.Stdout)
			return ExitSuccess
		}
		fmt.Fprintf(env.Stderr, "error: %v\n", err)
		printDoctorUsage(env.Stderr)
		return ExitUsage
	}

	envCfg := loadEnvConfig()
	cfg, err := loadConfig(configName, envCfg)
	if err != nil {
		fmt.Fprintf(env.Stderr, "error: %v%s\n", err, hintFor(err))
		return exitCodeFor(err)
	}
	applyEnvConfig(envCfg, cfg)

	tools := []doctorTool{
		{role: "engine", name: orDefault(cfg.Tools.Engine, thaplmagic.DefaultEngine), envVar: "THAPLMAGIC_ENGINE", required: true, version: true},
		{role: "renderer", name: interpreterOf(cfg.Renderer.Command), required: true},
		{role: "pdf2svg", name: orDefault(cfg.Tools.PDF2SVG, thaplmagic.DefaultPDF2SVG), envVar: "THAPLMAGIC_PDF2SVG"},
		{role: "imagemagick", name: interpreterOf(orDefault(cfg.Tools.ImageMagick, thaplmagic.DefaultImageMagick)), envVar: "THAPLMAGIC_IMAGEMAGICK"},
	}

	ctx, stop := notifyContext(context.Background())
	defer stop()

	result := runDoctor(ctx, env, tools)
	if configName != "" || envCfg.ConfigPath != "" {
		result.Env.ConfigFile = orDefault(configName, envCfg.ConfigPath)
	}

	if jsonOutput {
		enc := json.NewEncoder(env.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(result)
	} else {
		printDoctorResult(env.Stdout, result)
	}

	if result.Status == statusErrors {
		return ExitGeneral
	}
	return ExitSuccess
}

// runDoctor performs all diagnostic checks.
func runDoctor(ctx context.Context, env *Environment, tools []doctorTool) *doctorResult {
	result := &doctorResult{
		Status: statusReady,
		Env: envInfo{
			OS:   runtime.GOOS,
			Arch: runtime.GOARCH,
		},
	}

	for _, t := range tools {
		checkTool(ctx, env, t, result)
	}
	checkBashful(ctx, env, result)
	checkEnvironment(result)
	checkSystem(result)

	if len(result.Errors) > 0 {
		result.Status = statusErrors
	} else if len(result.Warnings) > 0 {
		result.Status = statusWarnings
	}

	return result
}

// checkTool resolves an executable and optionally records its version.
// A missing required tool is an error, a missing optional one a warning.
func checkTool(ctx context.Context, env *Environment, t doctorTool, result *doctorResult) {
	info := toolInfo{Role: t.role, Name: t.name, Required: t.required}
	defer func() { result.Tools = append(result.Tools, info) }()

	path, err := env.LookPath(t.name)
	if err != nil {
		msg := fmt.Sprintf("%s not found (%s)%s", t.name, t.role, hints.ForToolNotFound(t.name, t.envVar))
		if t.required {
			result.Errors = append(result.Errors, msg)
		} else {
			result.Warnings = append(result.Warnings, msg)
		}
		return
	}
	info.Found = true
	info.Path = path

	if !t.version || env.Runner == nil {
		return
	}

	probeCtx, cancel := context.WithTimeout(ctx, doctorProbeTimeout)
	defer cancel()
	stdout, _, err := env.Runner.Run(probeCtx, thaplmagic.Command{Name: path, Args: []string{"--version"}})
	if err != nil {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("could not get %s version: %v", t.name, err))
		return
	}
	info.Version = firstLine(stdout)
}

// checkBashful asks kpsewhich whether the bashful package is installed.
func checkBashful(ctx context.Context, env *Environment, result *doctorResult) {
	if env.Runner == nil {
		return
	}
	probeCtx, cancel := context.WithTimeout(ctx, doctorProbeTimeout)
	defer cancel()

	stdout, _, err := env.Runner.Run(probeCtx, thaplmagic.Command{Name: "kpsewhich", Args: []string{bashfulPackage}})
	if err != nil || strings.TrimSpace(stdout) == "" {
		result.Warnings = append(result.Warnings,
			"LaTeX package bashful not found by kpsewhich; install it with tlmgr or your TeX distribution")
		return
	}
	result.Bashful = true
}

// checkEnvironment detects container and CI environments.
func checkEnvironment(result *doctorResult) {
	result.Env.Container, result.Env.ContainerHint = isContainer()

	ciVars := []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "CIRCLECI"}
	for _, v := range ciVars {
		if os.Getenv(v) != "" {
			result.Env.CI = true
			break
		}
	}
}

// isContainer detects if running in a container environment.
// Returns (isContainer, hint) where hint indicates which signal was detected.
func isContainer() (bool, string) {
	if os.Getenv("THAPLMAGIC_CONTAINER") == "1" {
		return true, "THAPLMAGIC_CONTAINER=1"
	}
	if hints.IsInContainer() {
		return true, "/.dockerenv"
	}
	// Podman / systemd-nspawn
	if v := os.Getenv("container"); v != "" {
		return true, "container=" + v
	}
	if os.Getenv("KUBERNETES_SERVICE_HOST") != "" {
		return true, "KUBERNETES_SERVICE_HOST"
	}
	return false, ""
}

// checkSystem verifies that render workspaces can be created.
func checkSystem(result *doctorResult) {
	tmpDir := os.TempDir()
	testFile := filepath.Join(tmpDir, "thaplmagic-doctor-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o600); err != nil {
		result.Errors = append(result.Errors,
			fmt.Sprintf("temp directory not writable: %s", tmpDir))
		return
	}
	_ = os.Remove(testFile)
	result.System.TempWritable = true
}

// printDoctorResult outputs human-readable diagnostic results.
func printDoctorResult(w io.Writer, r *doctorResult) {
	fmt.Fprintln(w, "thaplmagic doctor")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Tools")
	for _, t := range r.Tools {
		switch {
		case t.Found:
			fmt.Fprintf(w, "  [OK] %s: %s\n", t.Role, t.Path)
			if t.Version != "" {
				fmt.Fprintf(w, "  [OK] %s version: %s\n", t.Role, t.Version)
			}
		case t.Required:
			fmt.Fprintf(w, "  [ERROR] %s: %s not found\n", t.Role, t.Name)
		default:
			fmt.Fprintf(w, "  [WARN] %s: %s not found\n", t.Role, t.Name)
		}
	}
	if r.Bashful {
		fmt.Fprintln(w, "  [OK] bashful.sty: installed")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Environment")
	fmt.Fprintf(w, "  [OK] Platform: %s/%s\n", r.Env.OS, r.Env.Arch)
	if r.Env.Container {
		fmt.Fprintf(w, "  [OK] Container: detected (%s)\n", r.Env.ContainerHint)
	}
	if r.Env.CI {
		fmt.Fprintln(w, "  [OK] CI: detected")
	}
	if r.Env.ConfigFile != "" {
		fmt.Fprintf(w, "  [OK] Config: %s\n", r.Env.ConfigFile)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "System")
	if r.System.TempWritable {
		fmt.Fprintln(w, "  [OK] Temp directory: writable")
	} else {
		fmt.Fprintln(w, "  [ERROR] Temp directory: not writable")
	}
	fmt.Fprintln(w)

	if len(r.Warnings) > 0 {
		fmt.Fprintln(w, "Warnings:")
		for _, warn := range r.Warnings {
			fmt.Fprintf(w, "  [WARN] %s\n", warn)
		}
		fmt.Fprintln(w)
	}

	if len(r.Errors) > 0 {
		fmt.Fprintln(w, "Errors:")
		for _, err := range r.Errors {
			fmt.Fprintf(w, "  [ERROR] %s\n", err)
		}
		fmt.Fprintln(w)
	}

	switch r.Status {
	case statusReady:
		fmt.Fprintln(w, "Status: Ready to render")
	case statusWarnings:
		fmt.Fprintln(w, "Status: Ready with warnings")
	case statusErrors:
		fmt.Fprintln(w, "Status: Not ready (see errors above)")
	}
}

// interpreterOf returns the executable of a command line.
func interpreterOf(command string) string {
	command = orDefault(command, thaplmagic.DefaultRendererCommand)
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
