// Package fileutil provides file and path utility functions.
package fileutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Sentinel errors for file utility operations.
var (
	ErrExtensionEmpty         = errors.New("extension cannot be empty")
	ErrExtensionPathTraversal = errors.New("extension contains path separator or null byte")
	ErrEmptyPath              = errors.New("path cannot be empty")
)

// FilePermissions is used for every file written outside a workspace.
const FilePermissions = 0o644 // rw-r--r--: owner read+write, others read

// ValidateExtension checks that the extension is safe for use in file names
// such as "tikz.<extension>".
func ValidateExtension(extension string) error {
	if extension == "" {
		return ErrExtensionEmpty
	}
	if strings.ContainsAny(extension, "/\\\x00") || extension == "." || extension == ".." {
		return ErrExtensionPathTraversal
	}
	return nil
}

// WriteFile writes data to path, replacing any existing file.
// The parent directory must exist. Data goes to a temporary file in the same
// directory that is then renamed over path, so concurrent writers to one
// path never leave a torn file behind; the last rename wins.
func WriteFile(path string, data []byte) (err error) {
	if path == "" {
		return ErrEmptyPath
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	// #nosec G302 -- rendered images are meant to be readable
	if err = tmp.Chmod(FilePermissions); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// FileExists returns true if the path exists and is a regular file.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// IsFilePath returns true if the string looks like a file path rather than a name.
// A string containing path separators (/, \) is treated as a path.
//
// Examples:
//   - "thaplmagic" -> false (name)
//   - "./thaplmagic.yaml" -> true (relative path)
//   - "/etc/thaplmagic.yaml" -> true (absolute)
//   - "C:\config\thaplmagic.yaml" -> true (Windows)
func IsFilePath(s string) bool {
	return strings.ContainsAny(s, "/\\")
}

// SplitList splits a comma-separated list, dropping empty entries.
// Entries are kept verbatim (no trimming).
func SplitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
