package lsim

import "github.com/pkg/errors"

// ErrNotFound is the cause of errors returned when a circuit, port, library or
// component type lookup fails. Use errors.Cause to test for it.
//
var ErrNotFound = errors.New("not found")

// IsNotFound returns true if the cause of err is ErrNotFound.
//
func IsNotFound(err error) bool {
	return err != nil && errors.Cause(err) == ErrNotFound
}
