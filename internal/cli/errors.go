package cli

import (
	"errors"

	"github.com/mesh-intelligence/pantry/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// exitError carries the process exit code and an optional user-visible
// message for a failed command.
type exitError struct {
	code int
	msg  string
	err  error
}

func (e *exitError) Error() string {
	if e.msg != "" {
		return e.msg
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

func userError(err error) error {
	return &exitError{code: exitUserError, err: err}
}

func sysError(err error) error {
	return &exitError{code: exitSysError, err: err}
}

// opError classifies an inventory operation failure and attaches the
// message the view-model derived for it.
func opError(msg string, err error) error {
	code := exitUserError
	if errors.Is(err, types.ErrStoreUnavailable) {
		code = exitSysError
	}
	return &exitError{code: code, msg: msg, err: err}
}

// exitCode maps an error returned by a command to the process exit code.
// Errors that are not classified, such as cobra argument errors, are user
// errors.
func exitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	if errors.Is(err, types.ErrStoreUnavailable) {
		return exitSysError
	}
	return exitUserError
}
