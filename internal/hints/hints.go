// Package hints provides actionable error hints for common failure scenarios.
// Hints are formatted consistently as "\n  hint: <text>" for appending to error messages.
package hints

import (
	"os"
	"strings"

	"github.com/alnah/go-thaplmagic/internal/fileutil"
)

// IsInContainer detects if running inside a Docker container or similar.
// Checks for /.dockerenv file which Docker creates automatically.
var IsInContainer = func() bool {
	return fileutil.FileExists("/.dockerenv")
}

// inCI reports whether a common CI environment variable is set.
func inCI() bool {
	return os.Getenv("CI") != "" ||
		os.Getenv("GITHUB_ACTIONS") != "" ||
		os.Getenv("GITLAB_CI") != "" ||
		os.Getenv("JENKINS_URL") != ""
}

// ForToolNotFound returns hints for a missing external executable.
// envVar names the environment variable overriding the tool, if any.
func ForToolNotFound(tool, envVar string) string {
	var hints []string

	if inCI() || IsInContainer() {
		hints = append(hints, "install "+tool+" in the image (TeX Live, pdf2svg and ImageMagick are separate packages)")
	} else {
		hints = append(hints, "install "+tool+" or add it to PATH")
	}
	if envVar != "" && os.Getenv(envVar) == "" {
		hints = append(hints, "set "+envVar+" to use another executable")
	}

	return formatHints(hints)
}

// ForRenderFailure returns hints for a failed LaTeX run.
func ForRenderFailure() string {
	return format("rerun with --showlatex to print the source, or --verbose for the engine output")
}

// ForArguments returns hints for malformed cell arguments.
func ForArguments() string {
	return format("run 'thaplmagic help cell' for the argument list; quote inline LaTeX, a bare backslash escapes the next character")
}

// ForTimeout returns a hint about increasing timeout for slow operations.
func ForTimeout() string {
	return format("for large pictures, use --timeout flag or THAPLMAGIC_TIMEOUT")
}

// ForConfigNotFound returns hints for config file not found errors.
// Suggests --config flag and creating a config in the user config directory.
func ForConfigNotFound(searchedPaths []string) string {
	hint := "use --config /path/to/file.yaml"

	// Find a user config path to suggest
	for _, p := range searchedPaths {
		if strings.Contains(p, "thaplmagic"+string(os.PathSeparator)) {
			hint += " or create " + p
			break
		}
	}

	return format(hint)
}

// ForOutputDirectory returns hints for output directory creation errors.
func ForOutputDirectory() string {
	return format("check parent directory exists and is writable")
}

// format creates a single hint string with consistent formatting.
func format(hint string) string {
	if hint == "" {
		return ""
	}
	return "\n  hint: " + hint
}

// formatHints joins multiple hints with consistent formatting.
func formatHints(hints []string) string {
	if len(hints) == 0 {
		return ""
	}
	return format(strings.Join(hints, "; "))
}
