package cmd

import "path/filepath"

// dirOf returns path's containing directory, for config-file discovery
// rooted at a script's location.
func dirOf(path string) string {
	return filepath.Dir(path)
}
