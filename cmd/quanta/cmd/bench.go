package cmd

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/solarbrowser/quanta/internal/profiler"
	"github.com/solarbrowser/quanta/pkg/quanta"
)

var benchIterations int

var benchCmd = &cobra.Command{
	Use:   "bench [file]",
	Short: "Run a script repeatedly and report its hottest nodes by tier",
	Long: `Run a script file a number of times in one engine, then print every
profiled node's final execution tier and deopt count (spec §4.8's
promotion machinery, observed from the outside).

Example:
  quanta bench --iterations 10000 script.qs`,
	Args: cobra.ExactArgs(1),
	RunE: runBench,
}

func init() {
	rootCmd.AddCommand(benchCmd)
	benchCmd.Flags().StringVar(&configPath, "config", "", "path to quanta.config.yaml (searched upward from the script's directory if omitted)")
	benchCmd.Flags().IntVar(&benchIterations, "iterations", 1000, "number of times to re-run the script body")
}

func runBench(cmd *cobra.Command, args []string) error {
	filename := args[0]
	e, err := loadEngine(dirOf(filename), filename)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return err
	}
	prog, err := quanta.Parse(string(data))
	if err != nil {
		return err
	}

	start := time.Now()
	for n := 0; n < benchIterations; n++ {
		if _, err := e.Run(prog); err != nil {
			return err
		}
	}

	return profiler.Report(os.Stdout, e.Profiler().Snapshot(), start)
}
