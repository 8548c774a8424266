// Command quanta is the CLI front end for the engine: run scripts, eval
// inline snippets, and inspect tier-promotion hot spots.
package main

import (
	"fmt"
	"os"

	"github.com/solarbrowser/quanta/cmd/quanta/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
