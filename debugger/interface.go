// Package debugger's only remaining entry points: launch the read-only
// TUI or GUI over an already-running service.Driver. The teacher's
// RunCLI (an interactive "(arm-dbg) " command-loop REPL around
// Debugger.ExecuteCommand) has no counterpart here -- there is no
// command language left once breakpoints, watchpoints and expression
// evaluation moved out of this package (see DESIGN.md) -- so the CLI
// entry point in the root main.go drives a service.Driver directly instead
// of going through this package.
package debugger

import "github.com/rv32sim/rv32sim/service"

// RunTUI runs the terminal debugger front end, blocking until the user
// quits (Ctrl+C).
func RunTUI(driver *service.Driver) error {
	tui := NewTUI(driver)
	return tui.Run()
}

// RunGUI (windowed front end) is defined in gui.go.
