package engineconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/solarbrowser/quanta/internal/profiler"
)

func TestDefaultMatchesProfilerConstants(t *testing.T) {
	d := Default()
	if d.Tiers.BytecodeThreshold != profiler.BytecodeThreshold ||
		d.Tiers.OptimizedThreshold != profiler.OptimizedThreshold ||
		d.Tiers.MachineCodeThreshold != profiler.MachineCodeThreshold ||
		d.Tiers.MonomorphicFraction != profiler.MonomorphicFraction ||
		d.Tiers.DeoptDisableThreshold != profiler.DeoptDisableThreshold {
		t.Errorf("expected Default() tiers to equal the profiler constants, got %+v", d.Tiers)
	}
	if d.CallStackLimit <= 0 {
		t.Errorf("expected a positive default call stack limit, got %d", d.CallStackLimit)
	}
	if err := d.validate(); err != nil {
		t.Errorf("Default() failed its own validate(): %v", err)
	}
}

func TestParseFillsOmittedFields(t *testing.T) {
	cfg, err := Parse([]byte("tiers:\n  bytecode_threshold: 5\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Tiers.BytecodeThreshold != 5 {
		t.Errorf("expected explicit bytecode_threshold=5, got %d", cfg.Tiers.BytecodeThreshold)
	}
	if cfg.Tiers.OptimizedThreshold != Default().Tiers.OptimizedThreshold {
		t.Errorf("expected omitted optimized_threshold to fall back to the default, got %d", cfg.Tiers.OptimizedThreshold)
	}
	if cfg.CallStackLimit != Default().CallStackLimit {
		t.Errorf("expected omitted call_stack_limit to fall back to the default, got %d", cfg.CallStackLimit)
	}
}

func TestParseRejectsNonIncreasingThresholds(t *testing.T) {
	_, err := Parse([]byte("tiers:\n  bytecode_threshold: 10\n  optimized_threshold: 5\n  machine_code_threshold: 20\n"))
	if err == nil {
		t.Fatal("expected an error for optimized_threshold <= bytecode_threshold")
	}
}

func TestParseRejectsOutOfRangeFraction(t *testing.T) {
	_, err := Parse([]byte("tiers:\n  monomorphic_fraction: 1.5\n"))
	if err == nil {
		t.Fatal("expected an error for monomorphic_fraction > 1")
	}
}

func TestFindWalksUpToParent(t *testing.T) {
	root := t.TempDir()
	child := filepath.Join(root, "scripts", "nested")
	if err := os.MkdirAll(child, 0o755); err != nil {
		t.Fatal(err)
	}
	cfgPath := filepath.Join(root, "quanta.config.yaml")
	if err := os.WriteFile(cfgPath, []byte("call_stack_limit: 4096\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	found, err := Find(child)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if found != cfgPath {
		t.Errorf("expected to find %s, got %s", cfgPath, found)
	}
}

func TestFindReturnsEmptyWhenMissing(t *testing.T) {
	dir := t.TempDir()
	found, err := Find(dir)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if found != "" {
		t.Errorf("expected no config found, got %s", found)
	}
}
