package thaplmagic

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
	"time"

	"github.com/mattn/go-shellwords"

	"github.com/alnah/go-thaplmagic/internal/process"
)

// waitDelay bounds how long Run waits for output pipes held open by
// grandchildren after the process is killed.
const waitDelay = 2 * time.Second

// Command describes one subprocess invocation.
type Command struct {
	Name string
	Args []string
	Dir  string   // working directory; the caller's directory is never changed
	Env  []string // complete environment; nil inherits the parent's
}

// String returns the command line, for diagnostics.
func (c Command) String() string {
	return strings.Join(append([]string{c.Name}, c.Args...), " ")
}

// CommandRunner abstracts command execution to enable testing without real subprocesses.
type CommandRunner interface {
	Run(ctx context.Context, cmd Command) (stdout string, stderr string, err error)
}

// ExecRunner implements CommandRunner using os/exec.
// Each command runs in its own process group; cancelling ctx kills the group.
type ExecRunner struct{}

func (r *ExecRunner) Run(ctx context.Context, c Command) (string, string, error) {
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	cmd.Env = c.Env
	cmd.WaitDelay = waitDelay

	process.SetProcessGroup(cmd)
	cmd.Cancel = func() error {
		process.KillProcessGroup(cmd.Process.Pid)
		return cmd.Process.Kill()
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}

// exitCode extracts the exit status from a runner error, or -1 when the
// process did not exit normally (launch failure, kill, timeout).
func exitCode(err error) int {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

// splitCommand splits a configured executable such as "magick convert"
// into name and leading arguments. Unparseable values are used verbatim.
func splitCommand(s string) (string, []string) {
	words, err := shellwords.Parse(s)
	if err != nil || len(words) == 0 {
		return s, nil
	}
	return words[0], words[1:]
}
