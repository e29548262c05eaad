// Package debugger provides read-only live inspectors for a running
// machine: a terminal UI (this file, github.com/gdamore/tcell/v2 +
// github.com/rivo/tview) and a windowed GUI (gui.go, fyne.io/fyne/v2).
// Both poll a *service.Driver rather than owning a command language or
// breakpoint/watchpoint model of their own -- those live in
// service.Driver and the api package now, addressed directly from the
// CLI/API instead of through an interactive debugger shell (spec.md
// §4.8 "a read-only live view of the register file, PC, mode, trap
// CSRs, oracle UART output and the last N trace records").
//
// Adapted from the teacher's debugger/tui.go: same panel-based
// tview.Flex layout and key-binding style, re-themed from ARM
// register/CPSR/source/stack panels to RV32 register/trap-CSR/oracle/
// trace panels, and with the command-input field removed since there
// is no command language left to type into.
package debugger

import (
	"context"
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/rv32sim/rv32sim/service"
)

// TUI is the terminal front end over a service.Driver.
type TUI struct {
	Driver *service.Driver
	App    *tview.Application

	MainLayout   *tview.Flex
	RegisterView *tview.TextView
	TrapView     *tview.TextView
	OracleView   *tview.TextView
	TraceView    *tview.TextView
	StatusView   *tview.TextView
}

// NewTUI builds a TUI bound to driver.
func NewTUI(driver *service.Driver) *TUI {
	t := &TUI{Driver: driver, App: tview.NewApplication()}
	t.initializeViews()
	t.buildLayout()
	t.setupKeyBindings()
	return t
}

func (t *TUI) initializeViews() {
	t.RegisterView = tview.NewTextView().SetDynamicColors(true)
	t.RegisterView.SetBorder(true).SetTitle(" Registers ")

	t.TrapView = tview.NewTextView().SetDynamicColors(true)
	t.TrapView.SetBorder(true).SetTitle(" Trap CSRs ")

	t.OracleView = tview.NewTextView().SetDynamicColors(true).SetWrap(true)
	t.OracleView.SetBorder(true).SetTitle(" Oracle / UART ")

	t.TraceView = tview.NewTextView().SetDynamicColors(true).SetScrollable(true)
	t.TraceView.SetBorder(true).SetTitle(" Recent Trace ")

	t.StatusView = tview.NewTextView().SetDynamicColors(true)
	t.StatusView.SetBorder(true).SetTitle(" Status (F5 run, F11 step, Ctrl+C quit) ")
}

func (t *TUI) buildLayout() {
	top := tview.NewFlex().
		AddItem(t.RegisterView, 0, 2, false).
		AddItem(t.TrapView, 0, 1, false)

	middle := tview.NewFlex().
		AddItem(t.OracleView, 0, 1, false).
		AddItem(t.TraceView, 0, 2, false)

	t.MainLayout = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(top, 0, 2, false).
		AddItem(middle, 0, 3, false).
		AddItem(t.StatusView, 3, 0, false)
}

func (t *TUI) setupKeyBindings() {
	t.App.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyF11:
			if err := t.Driver.Step(); err != nil {
				t.setStatus(fmt.Sprintf("[red]step error: %v", err))
			}
			t.RefreshAll()
			return nil
		case tcell.KeyF5:
			go t.runOneBurst()
			return nil
		case tcell.KeyCtrlC:
			t.App.Stop()
			return nil
		case tcell.KeyCtrlL:
			t.RefreshAll()
			return nil
		}
		return event
	})
}

// runOneBurst drives the machine forward until it stops (breakpoint,
// stationary PC, fault, or budget) and refreshes the display. It runs
// off the tview goroutine so Run()'s own event loop stays responsive.
func (t *TUI) runOneBurst() {
	state, err := t.Driver.Run(context.Background())
	t.App.QueueUpdateDraw(func() {
		if err != nil {
			t.setStatus(fmt.Sprintf("[red]run stopped: %v", err))
		} else {
			t.setStatus(fmt.Sprintf("[green]run stopped: %s", state))
		}
		t.RefreshAll()
	})
}

func (t *TUI) setStatus(text string) {
	t.StatusView.SetText(text)
}

// RefreshAll redraws every panel from the driver's current snapshot.
func (t *TUI) RefreshAll() {
	snap := t.Driver.Snapshot()

	var regLines []string
	for row := 0; row < 8; row++ {
		var cols []string
		for col := 0; col < 4; col++ {
			idx := row*4 + col
			cols = append(cols, fmt.Sprintf("x%-2d: 0x%08X", idx, snap.Registers.Registers[idx]))
		}
		regLines = append(regLines, strings.Join(cols, "  "))
	}
	regLines = append(regLines, "")
	regLines = append(regLines, fmt.Sprintf("pc: 0x%08X  mode: %s  cycle: %d", snap.Registers.PC, snap.Registers.Mode, snap.Registers.Cycle))
	t.RegisterView.SetText(strings.Join(regLines, "\n"))

	trapLines := []string{
		fmt.Sprintf("mstatus:  0x%08X", snap.Trap.Status),
		fmt.Sprintf("mie:      0x%08X", snap.Trap.IE),
		fmt.Sprintf("mip:      0x%08X", snap.Trap.IP),
		fmt.Sprintf("mtvec:    0x%08X", snap.Trap.TVec),
		fmt.Sprintf("mscratch: 0x%08X", snap.Trap.Scratch),
		fmt.Sprintf("mepc:     0x%08X", snap.Trap.EPC),
		fmt.Sprintf("mcause:   0x%08X", snap.Trap.Cause),
		fmt.Sprintf("mtval:    0x%08X", snap.Trap.TVal),
		fmt.Sprintf("satp:     0x%08X", snap.Satp),
	}
	t.TrapView.SetText(strings.Join(trapLines, "\n"))

	var oracleLines []string
	if len(snap.UARTText) == 0 {
		oracleLines = append(oracleLines, "[yellow]no UART output yet")
	} else {
		for _, line := range snap.UARTText {
			oracleLines = append(oracleLines, line)
		}
	}
	t.OracleView.SetText(strings.Join(oracleLines, "\n"))

	var traceLines []string
	for _, event := range t.Driver.RecentEvents(64) {
		traceLines = append(traceLines, formatTraceEvent(event))
	}
	t.TraceView.SetText(strings.Join(traceLines, "\n"))
	t.TraceView.ScrollToEnd()

	if snap.HostError != "" {
		t.setStatus(fmt.Sprintf("[red]host fault: %s", snap.HostError))
	} else {
		t.setStatus(fmt.Sprintf("[green]%s", snap.State))
	}
}

// Run starts the TUI event loop.
func (t *TUI) Run() error {
	t.RefreshAll()
	return t.App.SetRoot(t.MainLayout, true).Run()
}

// Stop stops the TUI application.
func (t *TUI) Stop() {
	t.App.Stop()
}
