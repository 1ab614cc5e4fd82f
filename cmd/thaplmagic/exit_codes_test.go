package main

// Notes:
// - exitCodeFor: we test sentinel errors from the library, config and CLI,
//   plus wrapped errors to verify errors.Is() chain works correctly.
// - Exit code constants: we verify Unix conventions (0=success, 1=general, 2=usage)
//   and custom codes are below 126.
// These are acceptable gaps: we test observable behavior, not implementation details.

import (
	"errors"
	"fmt"
	"os"
	"testing"

	thaplmagic "github.com/alnah/go-thaplmagic"
	"github.com/alnah/go-thaplmagic/internal/config"
)

// ---------------------------------------------------------------------------
// TestExitCodeFor - Error to exit code mapping
// ---------------------------------------------------------------------------

func TestExitCodeFor(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil error", nil, ExitSuccess},

		// Render errors (exit 4)
		{"render failed", thaplmagic.ErrRenderFailed, ExitRender},
		{"artifact missing", thaplmagic.ErrArtifactMissing, ExitRender},
		{"wrapped render failed", fmt.Errorf("2 of 3 renders failed: %w", thaplmagic.ErrRenderFailed), ExitRender},

		// I/O errors (exit 3)
		{"file not exist", os.ErrNotExist, ExitIO},
		{"permission denied", os.ErrPermission, ExitIO},
		{"read input", ErrReadInput, ExitIO},
		{"output dir", ErrOutputDir, ExitIO},
		{"workspace", thaplmagic.ErrWorkspace, ExitIO},
		{"publish", thaplmagic.ErrPublish, ExitIO},
		{"wrapped read input", fmt.Errorf("%w: %w", ErrReadInput, os.ErrNotExist), ExitIO},

		// Usage errors (exit 2)
		{"invalid arguments", thaplmagic.ErrInvalidArguments, ExitUsage},
		{"config not found", config.ErrConfigNotFound, ExitUsage},
		{"config parse", config.ErrConfigParse, ExitUsage},
		{"field too long", config.ErrFieldTooLong, ExitUsage},
		{"invalid config value", config.ErrInvalidValue, ExitUsage},
		{"worker count", ErrInvalidWorkerCount, ExitUsage},
		{"timeout", ErrInvalidTimeout, ExitUsage},
		{"publish target", ErrInvalidPublish, ExitUsage},
		{"conflicting args", ErrConflictingArgs, ExitUsage},
		{"wrapped invalid arguments", fmt.Errorf("cell: %w", thaplmagic.ErrInvalidArguments), ExitUsage},

		// General errors (exit 1)
		{"unknown error", errors.New("boom"), ExitGeneral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := exitCodeFor(tt.err); got != tt.want {
				t.Errorf("exitCodeFor(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestExitCodeValues - Unix conventions
// ---------------------------------------------------------------------------

func TestExitCodeValues(t *testing.T) {
	t.Parallel()

	if ExitSuccess != 0 || ExitGeneral != 1 || ExitUsage != 2 {
		t.Errorf("standard codes = %d/%d/%d, want 0/1/2", ExitSuccess, ExitGeneral, ExitUsage)
	}
	for _, code := range []int{ExitIO, ExitRender} {
		if code <= ExitUsage || code >= 126 {
			t.Errorf("custom code %d must be in (2, 126)", code)
		}
	}
}
