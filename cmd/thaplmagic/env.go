package main

import (
	"io"
	"os"
	"os/exec"

	thaplmagic "github.com/alnah/go-thaplmagic"
)

// Environment holds injectable dependencies for testability.
// Includes I/O, subprocess execution and executable lookup.
type Environment struct {
	Stdin    io.Reader
	Stdout   io.Writer
	Stderr   io.Writer
	Runner   thaplmagic.CommandRunner          // executes pipeline and doctor subprocesses
	LookPath func(file string) (string, error) // resolves executables for doctor
	Environ  func() []string                   // base subprocess environment
}

// DefaultEnv returns the production environment.
func DefaultEnv() *Environment {
	return &Environment{
		Stdin:    os.Stdin,
		Stdout:   os.Stdout,
		Stderr:   os.Stderr,
		Runner:   &thaplmagic.ExecRunner{},
		LookPath: exec.LookPath,
		Environ:  os.Environ,
	}
}
