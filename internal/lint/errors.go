package lint

import "errors"

// Errors returned by the lint package.
var (
	// ErrRuleExists indicates a rule name was registered twice.
	ErrRuleExists = errors.New("rule already registered")

	// ErrNilRule indicates an attempt to register a nil rule.
	ErrNilRule = errors.New("nil rule")

	// ErrUnknownPhase indicates an unrecognized phase name.
	ErrUnknownPhase = errors.New("unknown lint phase")

	// ErrBadPattern indicates an invalid glob in a rule scope.
	ErrBadPattern = errors.New("invalid file pattern")
)
