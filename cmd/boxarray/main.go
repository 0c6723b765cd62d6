// Command boxarray generates functions that build fixed-size arrays
// directly on the heap.
//
// Declare constructors next to the code that uses them and run the tool
// from go generate:
//
//	//go:generate go run github.com/alexhholmes/boxarray/cmd/boxarray
//
//	// @boxed name=Seq size=3
//
// This writes <file>_boxed.go containing
//
//	func Seq[T any, F ~func(int) T](init F) *[3]T
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// ExitError carries a specific exit code.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

func usageError(format string, args ...any) error {
	return &ExitError{Code: 2, Err: fmt.Errorf(format, args...)}
}

func main() {
	if err := run(os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "boxarray: %v\n", err)

		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}

// run executes the root command with args, for main and tests.
func run(stdout, stderr io.Writer, args []string) error {
	cmd := newRootCmd()
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(args)
	return cmd.Execute()
}
