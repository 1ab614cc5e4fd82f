package main

import (
	"errors"
	"os"

	thaplmagic "github.com/alnah/go-thaplmagic"
	"github.com/alnah/go-thaplmagic/internal/config"
)

// Exit codes for thaplmagic CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess = 0 // Successful render
	ExitGeneral = 1 // General/unexpected error
	ExitUsage   = 2 // Invalid flags, cell arguments or config
	ExitIO      = 3 // File not found, permission denied, publish failure
	ExitRender  = 4 // LaTeX engine failure or missing image
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	// Render errors (exit 4)
	if errors.Is(err, thaplmagic.ErrRenderFailed) ||
		errors.Is(err, thaplmagic.ErrArtifactMissing) {
		return ExitRender
	}

	// Usage/config/validation errors (exit 2)
	if errors.Is(err, thaplmagic.ErrInvalidArguments) ||
		errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrFieldTooLong) ||
		errors.Is(err, config.ErrInvalidValue) ||
		errors.Is(err, ErrInvalidWorkerCount) ||
		errors.Is(err, ErrInvalidTimeout) ||
		errors.Is(err, ErrInvalidPublish) ||
		errors.Is(err, ErrConflictingArgs) {
		return ExitUsage
	}

	// I/O errors (exit 3)
	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, ErrReadInput) ||
		errors.Is(err, ErrOutputDir) ||
		errors.Is(err, thaplmagic.ErrWorkspace) ||
		errors.Is(err, thaplmagic.ErrPublish) {
		return ExitIO
	}

	return ExitGeneral
}
