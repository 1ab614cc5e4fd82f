package thaplmagic

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
)

// Workspace is the private, temporary directory of one run. It holds the
// source, the document, the engine outputs and the converted image.
type Workspace struct {
	dir    string
	logger *zap.Logger
	once   sync.Once
}

// NewWorkspace creates a fresh directory under the system temp dir.
func NewWorkspace(logger *zap.Logger) (*Workspace, error) {
	dir, err := os.MkdirTemp("", "thaplmagic-*")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWorkspace, err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Workspace{dir: dir, logger: logger}, nil
}

// Dir returns the workspace directory.
func (w *Workspace) Dir() string {
	return w.dir
}

// Path returns the path of name inside the workspace.
func (w *Workspace) Path(name string) string {
	return filepath.Join(w.dir, name)
}

// WriteFile writes data to name inside the workspace.
func (w *Workspace) WriteFile(name string, data []byte) error {
	if err := os.WriteFile(w.Path(name), data, 0o600); err != nil {
		return fmt.Errorf("%w: writing %s: %v", ErrWorkspace, name, err)
	}
	return nil
}

// ReadFile reads name from the workspace.
func (w *Workspace) ReadFile(name string) ([]byte, error) {
	return os.ReadFile(w.Path(name)) // #nosec G304 -- fixed names inside a private temp dir
}

// Close removes the directory and everything in it. Only the first call
// does any work. A removal failure is logged and returned.
func (w *Workspace) Close() error {
	var err error
	w.once.Do(func() {
		if err = os.RemoveAll(w.dir); err != nil {
			w.logger.Warn("removing workspace", zap.String("path", w.dir), zap.Error(err))
		}
	})
	return err
}
