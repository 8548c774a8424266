package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/solarbrowser/quanta/pkg/quanta"
)

var evalCmd = &cobra.Command{
	Use:   "eval [code]",
	Short: "Evaluate an inline snippet and print its completion value",
	Long: `Evaluate a snippet of code given directly on the command line.

Example:
  quanta eval "1 + 2 * 3"`,
	Args: cobra.ExactArgs(1),
	RunE: evalSnippet,
}

func init() {
	rootCmd.AddCommand(evalCmd)
	evalCmd.Flags().StringVar(&configPath, "config", "", "path to quanta.config.yaml (searched upward from the current directory if omitted)")
}

func evalSnippet(cmd *cobra.Command, args []string) error {
	e, err := loadEngine(".", "<eval>")
	if err != nil {
		return err
	}

	v, err := e.Eval(args[0])
	if err != nil {
		return err
	}
	fmt.Fprintln(os.Stdout, v.ToString())
	return nil
}
