package main

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var rootCmd = &cobra.Command{
	Use:   "rfspec",
	Short: "Specialize and JIT-compile functions from a textual IR module",
}

// isOutputTerminal reports whether cmd's stdout is an interactive terminal.
// --ui's spinner and closing table are only worth driving when there's a
// TTY to redraw them; piped or redirected output falls back to the plain
// per-task lines run.go already prints.
func isOutputTerminal(cmd *cobra.Command) bool {
	f, ok := cmd.OutOrStdout().(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

func init() {
	rootCmd.PersistentFlags().String("trace", "", "write structured trace events to this path (empty or - writes to stderr; --trace-level=off disables tracing)")
	rootCmd.PersistentFlags().String("trace-level", "off", "trace verbosity: off|error|phase|detail|debug")
	rootCmd.PersistentFlags().String("trace-mode", "stream", "trace storage mode: stream|ring")
	rootCmd.PersistentFlags().Int("trace-ring-size", 4096, "ring buffer capacity when --trace-mode=ring")
	rootCmd.PersistentFlags().Duration("trace-heartbeat", 0, "emit a heartbeat event on this interval when > 0")
	rootCmd.PersistentFlags().String("config", "", "path to an rfspec.toml engine configuration file")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(runCmd)
}
