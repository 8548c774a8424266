package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/solarbrowser/quanta/internal/engineconfig"
	"github.com/solarbrowser/quanta/pkg/quanta"
)

var configPath string

var runCmd = &cobra.Command{
	Use:   "run [file]",
	Short: "Run a script file",
	Long: `Execute a script from a file.

Examples:
  # Run a script file
  quanta run script.qs

  # Run with an explicit tuning config
  quanta run --config quanta.config.yaml script.qs`,
	Args: cobra.ExactArgs(1),
	RunE: runScript,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVar(&configPath, "config", "", "path to quanta.config.yaml (searched upward from the script's directory if omitted)")
}

func loadEngine(scriptDir, filename string) (*quanta.Engine, error) {
	path := configPath
	if path == "" {
		found, err := engineconfig.Find(scriptDir)
		if err != nil {
			return nil, err
		}
		path = found
	}

	opts := []quanta.Option{quanta.WithOutput(os.Stdout), quanta.WithFilename(filename)}
	if path != "" {
		cfg, err := engineconfig.Load(path)
		if err != nil {
			return nil, fmt.Errorf("loading config %s: %w", path, err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "using config: %s\n", path)
		}
		opts = append(opts, quanta.WithConfig(cfg))
	}
	return quanta.New(opts...), nil
}

func runScript(cmd *cobra.Command, args []string) error {
	filename := args[0]
	e, err := loadEngine(dirOf(filename), filename)
	if err != nil {
		return err
	}

	v, err := e.RunFile(filename)
	if err != nil {
		return err
	}
	if verbose {
		fmt.Fprintln(os.Stderr, "completion value:", v.ToString())
	}
	return nil
}
