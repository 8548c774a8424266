package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	// Version information (set by build flags).
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "quanta",
	Short: "Quanta ECMAScript-flavored scripting engine",
	Long: `quanta is a tree-walking-to-bytecode-to-native-code scripting engine.

A script starts executing under a plain AST-walking interpreter. Hot
expressions are profiled and promoted through a bytecode VM tier, a
peephole-optimized bytecode tier, and finally (on amd64) a small native
machine-code tier for number-only binary/unary/logical expressions —
falling back down a tier whenever a speculative guard fails.`,
	Version: Version,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(`{{with .Name}}{{printf "%%s " .}}{{end}}{{printf "version %%s" .Version}}
Commit: %s
Built:  %s
`, GitCommit, BuildDate))

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
