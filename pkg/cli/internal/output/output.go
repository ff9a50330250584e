// Package output holds the terminal formatting helpers shared by the
// CLI commands.
package output

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
)

// JSON writes v to stdout as indented JSON, for --json output.
func JSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Table returns an aligned table writer for stdout. The caller must
// Flush it after the last row.
func Table() *tabwriter.Writer {
	return tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
}

// Warn prints a non-fatal warning to stderr. Used on shutdown paths
// where the command still exits zero.
func Warn(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Warning: "+format+"\n", args...)
}
