// Package quanta is the public embedding API of spec §6: a host Go
// program links this package, not internal/interpreter directly, to run
// scripts and exchange values with them. Grounded on the teacher's
// pkg/dwscript embedding surface (a functional-options-configured Engine
// wrapping the internal evaluator) but rebuilt from scratch — the
// teacher's pkg/dwscript shipped only orphaned tests, no implementation,
// so there was nothing to adapt; this package instead follows the same
// "functional options over a small Engine struct" shape cobra-based CLI
// tools in the examples pack use for their own root commands.
package quanta

import (
	"io"
	"os"

	"github.com/solarbrowser/quanta/internal/ast"
	"github.com/solarbrowser/quanta/internal/builtins"
	"github.com/solarbrowser/quanta/internal/engineconfig"
	"github.com/solarbrowser/quanta/internal/errors"
	"github.com/solarbrowser/quanta/internal/interpreter"
	"github.com/solarbrowser/quanta/internal/parser"
	"github.com/solarbrowser/quanta/internal/profiler"
	"github.com/solarbrowser/quanta/internal/value"
)

// Engine is one script execution environment: its own global object,
// prototype set, profiler, and event loop (spec §5's "one engine, one
// interpreter, one event loop" — Engine is not safe to share across
// goroutines, matching that single-threaded model).
type Engine struct {
	interp   *interpreter.Interpreter
	cfg      *engineconfig.Config
	stdout   io.Writer
	filename string
}

// Option configures a new Engine.
type Option func(*options)

type options struct {
	cfg      *engineconfig.Config
	stdout   io.Writer
	filename string
}

// WithCallStackLimit overrides the engine's maximum call-stack depth
// (spec §4.11: exceeding it converts to a RangeError rather than an OS
// stack overflow).
func WithCallStackLimit(n int) Option {
	return func(o *options) { o.cfg.CallStackLimit = n }
}

// WithJITThresholds overrides the tier-promotion thresholds of spec §4.8
// (bytecode/optimized/machine-code execution counts and the monomorphic
// feedback fraction).
func WithJITThresholds(bytecode, optimized, machineCode int, monomorphicFraction float64) Option {
	return func(o *options) {
		o.cfg.Tiers.BytecodeThreshold = bytecode
		o.cfg.Tiers.OptimizedThreshold = optimized
		o.cfg.Tiers.MachineCodeThreshold = machineCode
		o.cfg.Tiers.MonomorphicFraction = monomorphicFraction
	}
}

// WithOutput sets the Writer a host (cmd/quanta's `run`/`eval`) prints a
// script's completion value to; defaults to os.Stdout. The engine itself
// never writes to it directly — Stdout() just hands it back to the host.
func WithOutput(w io.Writer) Option {
	return func(o *options) { o.stdout = w }
}

// WithSeed records seed in the engine's configuration (Config.Seed).
// Math.random() does not read it: it draws from math/rand's package-level
// source.
func WithSeed(seed int64) Option {
	return func(o *options) { o.cfg.Seed = seed }
}

// WithFilename sets the display name RunFile/Eval report in stack traces
// (defaults to "<quanta>").
func WithFilename(name string) Option {
	return func(o *options) { o.filename = name }
}

// WithConfig replaces the engine's whole tuning configuration (as loaded
// by internal/engineconfig from quanta.config.yaml), overriding any
// Option applied before it.
func WithConfig(cfg *engineconfig.Config) Option {
	return func(o *options) { o.cfg = cfg }
}

// New creates an Engine with its built-ins registered and ready to run
// scripts.
func New(opts ...Option) *Engine {
	o := &options{cfg: engineconfig.Default(), stdout: os.Stdout, filename: "<quanta>"}
	for _, opt := range opts {
		opt(o)
	}

	i := interpreter.NewWithThresholds(o.cfg.CallStackLimit, o.filename, profiler.Thresholds{
		Bytecode:            o.cfg.Tiers.BytecodeThreshold,
		Optimized:            o.cfg.Tiers.OptimizedThreshold,
		MachineCode:          o.cfg.Tiers.MachineCodeThreshold,
		MonomorphicFraction:  o.cfg.Tiers.MonomorphicFraction,
		DeoptDisable:         o.cfg.Tiers.DeoptDisableThreshold,
	})
	i.BindGlobals(builtins.Register(i))

	return &Engine{interp: i, cfg: o.cfg, stdout: o.stdout, filename: o.filename}
}

// Profiler exposes the engine's execution profiler (spec §4.8), for a
// host that wants to print hot-node reports (cmd/quanta's `bench`
// subcommand does exactly this via internal/profiler.Report).
func (e *Engine) Profiler() *profiler.Profiler { return e.interp.Profiler }

// Stdout returns the Writer configured via WithOutput (os.Stdout by
// default), for a host to print a script's completion value to.
func (e *Engine) Stdout() io.Writer { return e.stdout }

// Eval parses and runs source as a single program, returning its
// completion value. Pending microtasks (resolved promises' .then
// callbacks) are drained before Eval returns, per spec §4.7.
func (e *Engine) Eval(source string) (value.Value, error) {
	p := parser.New(source)
	prog := p.ParseProgram()
	if errs := p.Errors(); len(errs) > 0 {
		return value.Undefined(), &ParseError{Errors: errs}
	}
	v, err := e.interp.RunProgram(prog)
	if err != nil {
		return value.Undefined(), err
	}
	if err := e.interp.RunMicrotasks(); err != nil {
		return value.Undefined(), err
	}
	return v, nil
}

// Run executes an already-parsed program (see Parse), draining microtasks
// same as Eval. Reusing one *ast.Program across repeated Run calls is how
// a host benchmarks tier promotion: profiled nodes are keyed by AST node
// identity, so re-parsing the same source text on every iteration would
// silently reset every node's counter instead of accumulating it.
func (e *Engine) Run(prog *ast.Program) (value.Value, error) {
	v, err := e.interp.RunProgram(prog)
	if err != nil {
		return value.Undefined(), err
	}
	if err := e.interp.RunMicrotasks(); err != nil {
		return value.Undefined(), err
	}
	return v, nil
}

// RunFile reads and evaluates the script at path. Stack traces report the
// filename the Engine was constructed with (WithFilename), not path;
// construct the Engine per-file if per-script names matter to the host.
func (e *Engine) RunFile(path string) (value.Value, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return value.Undefined(), err
	}
	return e.Eval(string(data))
}

// Parse exposes the parser directly, for a host that wants the AST
// without running it (cmd/quanta's potential future `parse`/`fmt`
// subcommands; not currently wired to any command).
func Parse(source string) (*ast.Program, error) {
	p := parser.New(source)
	prog := p.ParseProgram()
	if errs := p.Errors(); len(errs) > 0 {
		return nil, &ParseError{Errors: errs}
	}
	return prog, nil
}

// ParseError wraps every syntax error a parse run accumulated (spec §6
// doesn't mandate stopping at the first one).
type ParseError struct {
	Errors []error
}

func (e *ParseError) Error() string {
	if len(e.Errors) == 0 {
		return "quanta: parse error"
	}
	msg := e.Errors[0].Error()
	if len(e.Errors) > 1 {
		msg += " (+ more)"
	}
	return "quanta: " + msg
}

// IsEngineError reports whether err is a host-raised engine error of the
// given kind (a thrown script exception reports as *function.ThrownValue
// instead, which IsEngineError does not match — callers that need the
// thrown Value should type-assert directly).
func IsEngineError(err error, kind errors.Kind) bool {
	return errors.IsKind(err, kind)
}
