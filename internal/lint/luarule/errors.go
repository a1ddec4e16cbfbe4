package luarule

import (
	"errors"
	"fmt"
)

// Errors for Lua rule execution.
var (
	// ErrStateClosed is returned when running a closed rule.
	ErrStateClosed = errors.New("lua state is closed")

	// ErrExecutionTimeout is returned when a script runs past its deadline.
	ErrExecutionTimeout = errors.New("lua execution timeout")

	// ErrNoHook is returned by Load when a script defines no phase hook.
	ErrNoHook = errors.New("script defines no on_syntax, on_semantic or on_format function")
)

// ScriptError is a Lua error raised while loading or running a rule script.
type ScriptError struct {
	Rule string
	Err  error
}

// Error implements the error interface.
func (e *ScriptError) Error() string {
	return fmt.Sprintf("lua rule %s: %v", e.Rule, e.Err)
}

// Unwrap returns the underlying error.
func (e *ScriptError) Unwrap() error {
	return e.Err
}
