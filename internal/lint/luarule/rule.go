package luarule

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/embedls/internal/lint"
)

// DefaultTimeout bounds a single hook invocation.
const DefaultTimeout = 2 * time.Second

var hookNames = map[lint.Phase]string{
	lint.PhaseSyntax:   "on_syntax",
	lint.PhaseSemantic: "on_semantic",
	lint.PhaseFormat:   "on_format",
}

// Rule is a lint rule implemented by a Lua script. The script defines one
// global function per phase it takes part in:
//
//	function on_syntax(ctx)
//	  local s, e = string.find(ctx.text, "\t")
//	  if s then ctx.report{message = "tab character", from = s, to = e} end
//	end
//
// Each Rule owns its own Lua state. Runs are serialized.
type Rule struct {
	name    string
	timeout time.Duration
	logger  *slog.Logger

	mu     sync.Mutex
	L      *lua.LState
	closed bool
}

// Option configures a Rule.
type Option func(*Rule)

// WithTimeout sets the per-invocation deadline. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(r *Rule) {
		r.timeout = d
	}
}

// WithLogger sets the logger print output and diagnostics go to.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Rule) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// Load compiles and runs a rule script's top level. chunk names the script
// in Lua error messages.
func Load(ctx context.Context, name, chunk, source string, opts ...Option) (*Rule, error) {
	r := &Rule{
		name:    name,
		timeout: DefaultTimeout,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.L = newState(r.logger, name)

	fn, err := r.L.Load(strings.NewReader(source), chunk)
	if err != nil {
		r.L.Close()
		return nil, &ScriptError{Rule: name, Err: err}
	}

	err = r.call(ctx, func() error {
		r.L.Push(fn)
		return r.L.PCall(0, 0, nil)
	})
	if err != nil {
		r.L.Close()
		return nil, err
	}

	if len(r.phases()) == 0 {
		r.L.Close()
		return nil, fmt.Errorf("%w: %s", ErrNoHook, name)
	}
	return r, nil
}

// LoadFile loads a rule script from disk.
func LoadFile(ctx context.Context, name, path string, opts ...Option) (*Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rule %s: %w", name, err)
	}
	return Load(ctx, name, filepath.Base(path), string(data), opts...)
}

// Name returns the rule name.
func (r *Rule) Name() string {
	return r.name
}

// Phases returns the phases the script defines a hook for.
func (r *Rule) Phases() []lint.Phase {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	return r.phases()
}

func (r *Rule) phases() []lint.Phase {
	var phases []lint.Phase
	for _, phase := range []lint.Phase{lint.PhaseSyntax, lint.PhaseSemantic, lint.PhaseFormat} {
		if _, ok := r.L.GetGlobal(hookNames[phase]).(*lua.LFunction); ok {
			phases = append(phases, phase)
		}
	}
	return phases
}

// Run implements lint.Rule by calling the script's hook for phase. A script
// without a hook for phase reports nothing.
func (r *Rule) Run(ctx context.Context, phase lint.Phase, rc lint.RuleContext) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrStateClosed
	}

	fn, ok := r.L.GetGlobal(hookNames[phase]).(*lua.LFunction)
	if !ok {
		return nil
	}

	arg := r.contextTable(ctx, rc)
	before := settingsSnapshot(arg)
	err := r.call(ctx, func() error {
		return r.L.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true}, arg)
	})
	if err != nil {
		return err
	}
	syncSettings(rc.Settings, before, arg.RawGetString("settings"))
	return nil
}

// call runs fn with the state bound to a deadline-limited context and
// classifies the resulting error.
func (r *Rule) call(ctx context.Context, fn func() error) error {
	runCtx, cancel := ctx, context.CancelFunc(func() {})
	if r.timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, r.timeout)
	}
	defer cancel()

	r.L.SetContext(runCtx)
	defer r.L.RemoveContext()

	err := r.doWithRecovery(fn)
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s after %s", ErrExecutionTimeout, r.name, r.timeout)
	}
	return &ScriptError{Rule: r.name, Err: err}
}

func (r *Rule) doWithRecovery(fn func() error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("lua panic: %v", rec)
		}
	}()
	return fn()
}

// Close releases the Lua state. Run fails with ErrStateClosed afterwards.
func (r *Rule) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.L.Close()
	r.closed = true
	return nil
}
