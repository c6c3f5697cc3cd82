package internal

import (
	"errors"
	"fmt"
)

var (
	ErrArgument      = errors.New("invalid arguments")
	ErrInvalidRoot   = errors.New("invalid root path")
	ErrPathInvalid   = errors.New("not a valid path")
	ErrDirectoryRead = errors.New("cannot read directory")
	ErrFileRead      = errors.New("cannot read file")
	ErrFilteredOut   = errors.New("filtered out")
)

// Diagnostic is a recovered per-entry problem. It unwraps to both its kind
// and the underlying cause.
type Diagnostic struct {
	Kind error
	Path string
	Err  error
}

func (d Diagnostic) Error() string {
	if d.Err == nil {
		return fmt.Sprintf("%s: %v", d.Path, d.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", d.Path, d.Kind, d.Err)
}

func (d Diagnostic) Unwrap() []error {
	if d.Err == nil {
		return []error{d.Kind}
	}
	return []error{d.Kind, d.Err}
}

// Failure reports whether d counts as an error. Filter skips are notices.
func (d Diagnostic) Failure() bool { return !errors.Is(d.Kind, ErrFilteredOut) }
