package service

import (
	"errors"
	"fmt"
)

// ErrPluginExists indicates a plugin id was registered twice.
var ErrPluginExists = errors.New("plugin already registered")

// PluginError wraps a failure raised by a plugin during a dispatch.
// Provider failures abort the dispatch; this type only adds where it happened.
type PluginError struct {
	PluginID string
	Feature  string
	Err      error
}

// Error implements the error interface.
func (e *PluginError) Error() string {
	return fmt.Sprintf("plugin %s (%s): %v", e.PluginID, e.Feature, e.Err)
}

// Unwrap returns the underlying error.
func (e *PluginError) Unwrap() error {
	return e.Err
}

// RuleError wraps a failure raised by a lint rule during a rule pass.
type RuleError struct {
	RuleID string
	Phase  string
	Err    error
}

// Error implements the error interface.
func (e *RuleError) Error() string {
	return fmt.Sprintf("rule %s (%s): %v", e.RuleID, e.Phase, e.Err)
}

// Unwrap returns the underlying error.
func (e *RuleError) Unwrap() error {
	return e.Err
}
