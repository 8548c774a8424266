// Package profiler implements spec §4.8: per-AST-node and per-function
// execution counters plus type feedback, driving the tier-promotion
// decisions the bytecode VM (§4.9) and JIT (§4.10) act on. Grounded on
// internal/bytecode's Chunk side-tables (map[int]TryInfo keyed by
// instruction offset) generalized one level up, to a map keyed by AST
// node identity instead of bytecode offset — the same "sparse side-table
// next to the thing it annotates" shape, one level higher in the tier
// stack.
package profiler

import (
	"sync"

	"github.com/solarbrowser/quanta/internal/ast"
	"github.com/solarbrowser/quanta/internal/function"
)

// Tier is one of the four execution tiers spec §4.8/§4.9/§4.10 promote a
// node or function through.
type Tier int

const (
	TierInterpreter Tier = iota
	TierBytecode
	TierOptimized
	TierMachineCode
)

func (t Tier) String() string {
	switch t {
	case TierBytecode:
		return "bytecode"
	case TierOptimized:
		return "optimized"
	case TierMachineCode:
		return "machine-code"
	default:
		return "interpreter"
	}
}

// Default promotion thresholds (spec §4.8).
const (
	BytecodeThreshold     = 3
	OptimizedThreshold    = 8
	MachineCodeThreshold  = 15
	MonomorphicFraction   = 0.95
	DeoptDisableThreshold = 3
)

// feedback tallies the result type tag seen at one node across every
// evaluation, the input to the monomorphic-speculation check.
type feedback struct {
	counts map[string]int
	total  int
}

func (f *feedback) record(tag string) {
	if f.counts == nil {
		f.counts = make(map[string]int)
	}
	f.counts[tag]++
	f.total++
}

// monomorphic reports whether one tag accounts for at least fraction of
// every recorded observation.
func (f *feedback) monomorphic(fraction float64) (tag string, ok bool) {
	if f.total == 0 {
		return "", false
	}
	for t, n := range f.counts {
		if float64(n)/float64(f.total) >= fraction {
			return t, true
		}
	}
	return "", false
}

// NodeStats is one profilable node's accumulated execution history.
type NodeStats struct {
	Count      int
	Tier       Tier
	DeoptCount int
	fb         feedback
}

// Thresholds parameterizes tier promotion so a host can retune it (spec
// §4.8's defaults, overridable via pkg/quanta.WithJITThresholds or
// quanta.config.yaml's `tiers` block).
type Thresholds struct {
	Bytecode            int
	Optimized            int
	MachineCode          int
	MonomorphicFraction  float64
	DeoptDisable         int
}

// DefaultThresholds mirrors the package-level constants above.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Bytecode:            BytecodeThreshold,
		Optimized:            OptimizedThreshold,
		MachineCode:          MachineCodeThreshold,
		MonomorphicFraction:  MonomorphicFraction,
		DeoptDisable:         DeoptDisableThreshold,
	}
}

// Profiler is the engine-wide table of per-node and per-closure execution
// history. One Profiler backs one Interpreter; it is not safe for
// concurrent use across goroutines beyond the mutex-guarded node table,
// matching the engine's single-threaded execution model (spec §5).
type Profiler struct {
	mu     sync.Mutex
	nodes  map[ast.Node]*NodeStats
	thresh Thresholds
}

// New creates an empty Profiler using spec §4.8's default thresholds.
func New() *Profiler {
	return NewWithThresholds(DefaultThresholds())
}

// NewWithThresholds creates an empty Profiler tuned to t, for a host that
// overrides the defaults (pkg/quanta.WithJITThresholds/WithConfig).
func NewWithThresholds(t Thresholds) *Profiler {
	return &Profiler{nodes: make(map[ast.Node]*NodeStats), thresh: t}
}

// RecordNode increments node's execution counter and records typeTag for
// its type-feedback history (spec §4.8: "On every interpreter evaluation
// of a profilable node ... increment the node's counter and record the
// tag of the result"), returning the tier the node should now run at.
// Profilable node kinds are the interpreter's concern to select (binary
// expressions, calls, loops, member access); RecordNode itself does not
// filter by kind.
func (p *Profiler) RecordNode(node ast.Node, typeTag string) Tier {
	p.mu.Lock()
	defer p.mu.Unlock()
	st, ok := p.nodes[node]
	if !ok {
		st = &NodeStats{}
		p.nodes[node] = st
	}
	st.Count++
	st.fb.record(typeTag)
	if st.DeoptCount > 0 && st.DeoptCount >= p.thresh.DeoptDisable {
		return st.Tier // pinned at the bytecode tier by RecordDeopt
	}
	st.Tier = tierFor(st.Count, st.Tier, p.thresh)
	return st.Tier
}

func tierFor(count int, current Tier, t Thresholds) Tier {
	switch {
	case count >= t.MachineCode:
		return TierMachineCode
	case count >= t.Optimized:
		if current == TierMachineCode {
			return current
		}
		return TierOptimized
	case count >= t.Bytecode:
		if current == TierOptimized || current == TierMachineCode {
			return current
		}
		return TierBytecode
	default:
		return current
	}
}

// Stats returns a copy of node's accumulated stats, or the zero value if
// node has never been recorded.
func (p *Profiler) Stats(node ast.Node) NodeStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	if st, ok := p.nodes[node]; ok {
		return *st
	}
	return NodeStats{}
}

// Monomorphic reports whether node's type feedback is monomorphic (spec
// §4.8's speculation-candidate test) and, if so, the winning tag.
func (p *Profiler) Monomorphic(node ast.Node) (tag string, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	st, found := p.nodes[node]
	if !found {
		return "", false
	}
	return st.fb.monomorphic(p.thresh.MonomorphicFraction)
}

// RecordDeopt records a guard-failure deoptimization for node, demoting
// it to the bytecode tier; a node that accumulates DeoptDisableThreshold
// deopts is pinned at the bytecode tier and never recompiled to machine
// code again (spec §4.10's "three deopts disable further compilation").
func (p *Profiler) RecordDeopt(node ast.Node) {
	p.mu.Lock()
	defer p.mu.Unlock()
	st, ok := p.nodes[node]
	if !ok {
		return
	}
	st.DeoptCount++
	st.Tier = TierBytecode
}

// Disabled reports whether node has deopted enough times that the JIT
// must never attempt it again.
func (p *Profiler) Disabled(node ast.Node) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	st, ok := p.nodes[node]
	return ok && st.DeoptCount >= p.thresh.DeoptDisable
}

// HotSpot is one profiled node's stats paired with its source position,
// the unit report.go formats for `quanta bench`'s output.
type HotSpot struct {
	Line       int
	Column     int
	Count      int
	Tier       Tier
	DeoptCount int
}

// Snapshot returns every currently-profiled node's stats, unordered (the
// caller sorts — report.go natural-sorts by position).
func (p *Profiler) Snapshot() []HotSpot {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]HotSpot, 0, len(p.nodes))
	for node, st := range p.nodes {
		pos := node.Pos()
		out = append(out, HotSpot{
			Line:       pos.Line,
			Column:     pos.Column,
			Count:      st.Count,
			Tier:       st.Tier,
			DeoptCount: st.DeoptCount,
		})
	}
	return out
}

// RecordCall tallies one invocation of cl against its own counter
// (function.Closure.Touch, called by the interpreter before every body
// evaluation) and promotes cl's tier using the same thresholds as
// RecordNode, mirroring spec §4.8's function-level granularity alongside
// its node-level granularity.
func (p *Profiler) RecordCall(cl *function.Closure) {
	p.mu.Lock()
	t := p.thresh
	p.mu.Unlock()
	cl.SetTier(int(tierFor(int(cl.ExecCount()), Tier(cl.Tier()), t)))
}
