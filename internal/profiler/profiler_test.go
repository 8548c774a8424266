package profiler

import (
	"testing"

	"github.com/solarbrowser/quanta/internal/ast"
	"github.com/solarbrowser/quanta/internal/function"
)

func TestRecordNodePromotesThroughTiers(t *testing.T) {
	p := New()
	node := &ast.NumberLiteral{}

	var last Tier
	for i := 0; i < MachineCodeThreshold; i++ {
		last = p.RecordNode(node, "number")
	}
	if last != TierMachineCode {
		t.Fatalf("after %d evaluations expected TierMachineCode, got %v", MachineCodeThreshold, last)
	}

	stats := p.Stats(node)
	if stats.Count != MachineCodeThreshold {
		t.Errorf("expected Count=%d, got %d", MachineCodeThreshold, stats.Count)
	}
}

func TestRecordNodeNeverDemotesOnFewerHitsLater(t *testing.T) {
	p := New()
	a, b := &ast.NumberLiteral{}, &ast.NumberLiteral{}

	for i := 0; i < MachineCodeThreshold; i++ {
		p.RecordNode(a, "number")
	}
	p.RecordNode(b, "number")

	if tier := p.Stats(a).Tier; tier != TierMachineCode {
		t.Fatalf("node a: expected TierMachineCode, got %v", tier)
	}
	if tier := p.Stats(b).Tier; tier != TierInterpreter {
		t.Fatalf("node b: expected TierInterpreter after one hit, got %v", tier)
	}
}

func TestCustomThresholdsOverrideDefaults(t *testing.T) {
	p := NewWithThresholds(Thresholds{Bytecode: 1, Optimized: 2, MachineCode: 3, MonomorphicFraction: 0.5, DeoptDisable: 1})
	node := &ast.NumberLiteral{}

	if tier := p.RecordNode(node, "number"); tier != TierBytecode {
		t.Fatalf("expected TierBytecode after 1 hit with Bytecode=1, got %v", tier)
	}
	if tier := p.RecordNode(node, "number"); tier != TierOptimized {
		t.Fatalf("expected TierOptimized after 2 hits with Optimized=2, got %v", tier)
	}
	if tier := p.RecordNode(node, "number"); tier != TierMachineCode {
		t.Fatalf("expected TierMachineCode after 3 hits with MachineCode=3, got %v", tier)
	}
}

func TestMonomorphicFeedback(t *testing.T) {
	p := New()
	node := &ast.NumberLiteral{}

	for i := 0; i < 19; i++ {
		p.RecordNode(node, "number")
	}
	p.RecordNode(node, "string")

	tag, ok := p.Monomorphic(node)
	if !ok || tag != "number" {
		t.Fatalf("expected monomorphic(number) at 95%% with threshold %v, got tag=%q ok=%v", MonomorphicFraction, tag, ok)
	}

	p.RecordNode(node, "string")
	if _, ok := p.Monomorphic(node); ok {
		t.Fatal("expected feedback to lose monomorphic status once below the fraction")
	}
}

func TestDeoptDisablesAfterThreshold(t *testing.T) {
	p := New()
	node := &ast.NumberLiteral{}
	p.RecordNode(node, "number")

	for i := 0; i < DeoptDisableThreshold; i++ {
		if p.Disabled(node) {
			t.Fatalf("node disabled after only %d deopts, want %d", i, DeoptDisableThreshold)
		}
		p.RecordDeopt(node)
	}
	if !p.Disabled(node) {
		t.Fatalf("expected node disabled after %d deopts", DeoptDisableThreshold)
	}
	if tier := p.Stats(node).Tier; tier != TierBytecode {
		t.Errorf("expected a deopted node demoted to TierBytecode, got %v", tier)
	}
}

func TestRecordCallPromotesClosureTier(t *testing.T) {
	p := New()
	cl := &function.Closure{}

	for i := 0; i < BytecodeThreshold; i++ {
		cl.Touch()
		p.RecordCall(cl)
	}
	if Tier(cl.Tier()) != TierBytecode {
		t.Fatalf("expected closure promoted to TierBytecode after %d calls, got %v", BytecodeThreshold, Tier(cl.Tier()))
	}
}

func TestSnapshotReportsEveryNode(t *testing.T) {
	p := New()
	a, b := &ast.NumberLiteral{}, &ast.NumberLiteral{}
	p.RecordNode(a, "number")
	p.RecordNode(b, "number")
	p.RecordNode(b, "number")

	spots := p.Snapshot()
	if len(spots) != 2 {
		t.Fatalf("expected 2 snapshot entries, got %d", len(spots))
	}
	total := 0
	for _, s := range spots {
		total += s.Count
	}
	if total != 3 {
		t.Errorf("expected counts to sum to 3, got %d", total)
	}
}
