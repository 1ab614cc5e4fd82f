package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	thaplmagic "github.com/alnah/go-thaplmagic"
)

// ---------------------------------------------------------------------------
// Test Infrastructure - Fake toolchain
// ---------------------------------------------------------------------------

// fakeRunner stands in for the LaTeX toolchain. handle decides, per
// command, what the tool writes and how it exits.
type fakeRunner struct {
	mu     sync.Mutex
	calls  []thaplmagic.Command
	handle func(cmd thaplmagic.Command) (stdout string, err error)
}

func (r *fakeRunner) Run(_ context.Context, cmd thaplmagic.Command) (string, string, error) {
	r.mu.Lock()
	r.calls = append(r.calls, cmd)
	r.mu.Unlock()

	if r.handle == nil {
		return "", "", nil
	}
	out, err := r.handle(cmd)
	return out, "", err
}

func (r *fakeRunner) names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, len(r.calls))
	for i, c := range r.calls {
		names[i] = c.Name
	}
	return names
}

// engineWriting returns a handler whose engine writes files into the
// workspace and exits successfully. Other commands succeed silently.
func engineWriting(files map[string]string) func(thaplmagic.Command) (string, error) {
	return func(cmd thaplmagic.Command) (string, error) {
		if cmd.Name != thaplmagic.DefaultEngine {
			return "", nil
		}
		for name, content := range files {
			if err := os.WriteFile(filepath.Join(cmd.Dir, name), []byte(content), 0o600); err != nil {
				return "", err
			}
		}
		return "", nil
	}
}

// engineFailing returns a handler whose engine writes log and fails.
func engineFailing(log string) func(thaplmagic.Command) (string, error) {
	return func(cmd thaplmagic.Command) (string, error) {
		if cmd.Name != thaplmagic.DefaultEngine {
			return "", nil
		}
		if err := os.WriteFile(filepath.Join(cmd.Dir, "thapl.log"), []byte(log), 0o600); err != nil {
			return "", err
		}
		return "", errors.New("exit status 1")
	}
}

// testEnv builds an Environment over buffers and the given runner.
func testEnv(stdin string, runner thaplmagic.CommandRunner) (*Environment, *bytes.Buffer, *bytes.Buffer) {
	var stdout, stderr bytes.Buffer
	return &Environment{
		Stdin:    strings.NewReader(stdin),
		Stdout:   &stdout,
		Stderr:   &stderr,
		Runner:   runner,
		LookPath: func(file string) (string, error) { return "/usr/bin/" + file, nil },
		Environ:  func() []string { return []string{"PATH=/usr/bin"} },
	}, &stdout, &stderr
}

// isolate points the config search and the working directory at fresh
// temp directories and clears THAPLMAGIC_* variables. Uses t.Setenv and
// t.Chdir, so callers cannot run in parallel.
func isolate(t *testing.T) string {
	t.Helper()

	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	t.Setenv("AppData", filepath.Join(home, "AppData"))
	for name := range knownEnvVars {
		t.Setenv(name, "")
	}

	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

// writeFile writes content to dir/name and returns the path.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
	return path
}
