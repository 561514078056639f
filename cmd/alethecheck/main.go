// Command alethecheck parses, checks, and optionally elaborates Alethe
// proof certificates against their originating SMT-LIB problem.
package main

import (
	"errors"
	"os"

	"github.com/hashicorp/go-hclog"
)

func main() {
	logger := hclog.New(&hclog.LoggerOptions{
		Name:  "alethecheck",
		Level: hclog.Info,
	})

	cmd := NewRootCmd(logger)
	err := cmd.Execute()
	os.Exit(exitCode(err))
}

// exitCode maps a command error to the process exit status named in
// spec.md §6.4: 0 success, 1 checker/parser error, 2 I/O error.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var ioErr *ioFailure
	if errors.As(err, &ioErr) {
		return 2
	}
	return 1
}

// ioFailure wraps an error that originates from the filesystem (a missing
// file, a permission problem) rather than from parsing or checking a
// proof, so main can tell the two apart for exit-code purposes.
type ioFailure struct{ error }

func (e *ioFailure) Unwrap() error { return e.error }

func wrapIOFailure(err error) error {
	if err == nil {
		return nil
	}
	return &ioFailure{err}
}
