package main

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/automaxprocs/maxprocs"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	// Configure GOMAXPROCS before any worker pool is sized.
	undo := configureMaxProcs(os.Args, os.Stderr)
	code := runMain(os.Args, DefaultEnv())
	undo()
	os.Exit(code)
}

// runMain dispatches the command and returns the process exit code.
func runMain(args []string, env *Environment) int {
	if len(args) < 2 {
		printUsage(env.Stderr)
		return ExitUsage
	}

	switch args[1] {
	case cmdRender:
		return runRenderCmd(args[2:], env)
	case cmdDoctor:
		return runDoctorCmd(args[2:], env)
	case cmdVersion, "--version":
		fmt.Fprintf(env.Stdout, "thaplmagic %s\n", Version)
		return ExitSuccess
	case cmdHelp, "-h", "--help":
		return runHelp(args[2:], env)
	default:
		fmt.Fprintf(env.Stderr, "Unknown command: %s\n", args[1])
		printUsage(env.Stderr)
		return ExitUsage
	}
}

// Command names.
const (
	cmdRender  = "render"
	cmdDoctor  = "doctor"
	cmdVersion = "version"
	cmdHelp    = "help"
)

// configureMaxProcs aligns GOMAXPROCS with the container CPU quota.
// The maxprocs log line is shown only with -v/--verbose.
// Error ignored: maxprocs.Set only fails if GOMAXPROCS env is invalid,
// in which case Go runtime defaults apply and the program continues safely.
func configureMaxProcs(args []string, w io.Writer) func() {
	logf := func(string, ...interface{}) {}
	if hasVerboseFlag(args) {
		logf = func(format string, a ...interface{}) {
			fmt.Fprintf(w, format+"\n", a...)
		}
	}
	undo, _ := maxprocs.Set(maxprocs.Logger(logf))
	if undo == nil {
		return func() {}
	}
	return undo
}

// hasVerboseFlag scans the command flags (before "--") for -v/--verbose.
func hasVerboseFlag(args []string) bool {
	for _, a := range args {
		if a == "--" {
			return false
		}
		if a == "-v" || a == "--verbose" {
			return true
		}
	}
	return false
}
