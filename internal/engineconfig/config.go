// Package engineconfig loads quanta.config.yaml: the engine-tuning knobs
// (tier-promotion thresholds, call-stack depth, the value arena's initial
// capacity) spec §4.8/§5 calls out as defaults rather than fixed constants.
// Grounded on funvibe-funxy's internal/ext.LoadConfig/ParseConfig shape
// (read file, unmarshal, validate, fill defaults), swapped to
// github.com/goccy/go-yaml per SPEC_FULL.md's domain-stack table.
package engineconfig

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-yaml"

	"github.com/solarbrowser/quanta/internal/profiler"
)

// Config is quanta.config.yaml's top-level shape. Every field is optional;
// zero values fall back to Default()'s values via setDefaults.
type Config struct {
	CallStackLimit int `yaml:"call_stack_limit,omitempty"`

	Tiers struct {
		BytecodeThreshold     int     `yaml:"bytecode_threshold,omitempty"`
		OptimizedThreshold    int     `yaml:"optimized_threshold,omitempty"`
		MachineCodeThreshold  int     `yaml:"machine_code_threshold,omitempty"`
		MonomorphicFraction   float64 `yaml:"monomorphic_fraction,omitempty"`
		DeoptDisableThreshold int     `yaml:"deopt_disable_threshold,omitempty"`
	} `yaml:"tiers,omitempty"`

	// ArenaCapacity is spec §5's "GC arena size" tuning knob. The engine
	// relies on Go's garbage collector rather than a custom arena
	// allocator; the value is parsed and defaulted here but nothing else
	// in the engine reads it.
	ArenaCapacity int `yaml:"arena_capacity,omitempty"`

	Seed int64 `yaml:"seed,omitempty"`
}

// Default returns the configuration the engine uses when no
// quanta.config.yaml is found, mirroring profiler's own package-level
// defaults so the two can never silently disagree.
func Default() *Config {
	c := &Config{
		CallStackLimit: 2048,
		ArenaCapacity:  256,
	}
	c.Tiers.BytecodeThreshold = profiler.BytecodeThreshold
	c.Tiers.OptimizedThreshold = profiler.OptimizedThreshold
	c.Tiers.MachineCodeThreshold = profiler.MachineCodeThreshold
	c.Tiers.MonomorphicFraction = profiler.MonomorphicFraction
	c.Tiers.DeoptDisableThreshold = profiler.DeoptDisableThreshold
	return c
}

// Load reads and parses path, filling any omitted field from Default().
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	return Parse(data)
}

// Parse parses quanta.config.yaml content from bytes.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.setDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) setDefaults() {
	d := Default()
	if c.CallStackLimit == 0 {
		c.CallStackLimit = d.CallStackLimit
	}
	if c.ArenaCapacity == 0 {
		c.ArenaCapacity = d.ArenaCapacity
	}
	if c.Tiers.BytecodeThreshold == 0 {
		c.Tiers.BytecodeThreshold = d.Tiers.BytecodeThreshold
	}
	if c.Tiers.OptimizedThreshold == 0 {
		c.Tiers.OptimizedThreshold = d.Tiers.OptimizedThreshold
	}
	if c.Tiers.MachineCodeThreshold == 0 {
		c.Tiers.MachineCodeThreshold = d.Tiers.MachineCodeThreshold
	}
	if c.Tiers.MonomorphicFraction == 0 {
		c.Tiers.MonomorphicFraction = d.Tiers.MonomorphicFraction
	}
	if c.Tiers.DeoptDisableThreshold == 0 {
		c.Tiers.DeoptDisableThreshold = d.Tiers.DeoptDisableThreshold
	}
}

func (c *Config) validate() error {
	if c.CallStackLimit <= 0 {
		return fmt.Errorf("call_stack_limit must be positive, got %d", c.CallStackLimit)
	}
	if c.Tiers.BytecodeThreshold <= 0 || c.Tiers.OptimizedThreshold <= c.Tiers.BytecodeThreshold ||
		c.Tiers.MachineCodeThreshold <= c.Tiers.OptimizedThreshold {
		return fmt.Errorf("tier thresholds must be strictly increasing (bytecode < optimized < machine-code), got %d < %d < %d",
			c.Tiers.BytecodeThreshold, c.Tiers.OptimizedThreshold, c.Tiers.MachineCodeThreshold)
	}
	if c.Tiers.MonomorphicFraction <= 0 || c.Tiers.MonomorphicFraction > 1 {
		return fmt.Errorf("monomorphic_fraction must be in (0, 1], got %v", c.Tiers.MonomorphicFraction)
	}
	return nil
}

// Find searches dir and its parents for quanta.config.yaml/.yml, the same
// upward-walk FindConfig uses in the example this package is grounded on.
// Returns "" with a nil error when no config file exists.
func Find(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving directory: %w", err)
	}
	for {
		for _, name := range []string{"quanta.config.yaml", "quanta.config.yml"} {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate, nil
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}
