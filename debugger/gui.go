// Windowed equivalent of the TUI (spec.md §4.8): the same read-only
// panels -- registers, trap CSRs, oracle/UART text, recent trace --
// rendered with fyne.io/fyne/v2 instead of tview, and refreshed on a
// timer rather than a key press since there is no terminal event loop
// to hook into. Adapted from the teacher's debugger/gui.go: same
// App/Window/toolbar/panel shape, re-themed from ARM
// source+register+memory+stack+breakpoints panels to RV32
// register+trap-CSR+oracle+trace panels, with the source view,
// interactive breakpoint list and console-input widget removed since
// this GUI no longer owns a command language or an assembler source
// map.
package debugger

import (
	"fmt"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/rv32sim/rv32sim/service"
)

const guiRefreshInterval = 200 * time.Millisecond

// GUI is the windowed front end over a service.Driver.
type GUI struct {
	Driver *service.Driver
	App    fyne.App
	Window fyne.Window

	RegisterView *widget.TextGrid
	TrapView     *widget.TextGrid
	OracleView   *widget.TextGrid
	TraceView    *widget.TextGrid
	StatusLabel  *widget.Label
	Toolbar      *widget.Toolbar

	stop chan struct{}
}

// RunGUI builds and shows the GUI, blocking until the window closes.
func RunGUI(driver *service.Driver) error {
	g := newGUI(driver)
	g.Window.ShowAndRun()
	return nil
}

func newGUI(driver *service.Driver) *GUI {
	myApp := app.New()
	myWindow := myApp.NewWindow("RV32 Simulator")

	g := &GUI{Driver: driver, App: myApp, Window: myWindow, stop: make(chan struct{})}
	g.initializeViews()
	g.buildLayout()
	g.setupToolbar()
	g.refreshViews()

	myWindow.Resize(fyne.NewSize(1100, 700))
	myWindow.SetOnClosed(func() { close(g.stop) })

	go g.pollLoop()

	return g
}

func (g *GUI) initializeViews() {
	g.RegisterView = widget.NewTextGrid()
	g.TrapView = widget.NewTextGrid()
	g.OracleView = widget.NewTextGrid()
	g.TraceView = widget.NewTextGrid()
	g.StatusLabel = widget.NewLabel("Ready")
}

func (g *GUI) buildLayout() {
	registerPanel := container.NewBorder(widget.NewLabel("Registers"), nil, nil, nil, container.NewScroll(g.RegisterView))
	trapPanel := container.NewBorder(widget.NewLabel("Trap CSRs"), nil, nil, nil, container.NewScroll(g.TrapView))
	oraclePanel := container.NewBorder(widget.NewLabel("Oracle / UART"), nil, nil, nil, container.NewScroll(g.OracleView))
	tracePanel := container.NewBorder(widget.NewLabel("Recent Trace"), nil, nil, nil, container.NewScroll(g.TraceView))

	top := container.NewHSplit(registerPanel, trapPanel)
	top.SetOffset(0.6)

	bottom := container.NewHSplit(oraclePanel, tracePanel)
	bottom.SetOffset(0.35)

	main := container.NewVSplit(top, bottom)
	main.SetOffset(0.45)

	statusBar := container.NewBorder(nil, nil, nil, nil, g.StatusLabel)
	content := container.NewBorder(g.Toolbar, statusBar, nil, nil, main)
	g.Window.SetContent(content)
}

func (g *GUI) setupToolbar() {
	g.Toolbar = widget.NewToolbar(
		widget.NewToolbarAction(theme.MediaPlayIcon(), func() { go g.runOneBurst() }),
		widget.NewToolbarAction(theme.MediaSkipNextIcon(), func() { g.stepOnce() }),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.ViewRefreshIcon(), func() { g.refreshViews() }),
	)
}

func (g *GUI) stepOnce() {
	if err := g.Driver.Step(); err != nil {
		g.StatusLabel.SetText("step error: " + err.Error())
	}
	g.refreshViews()
}

func (g *GUI) runOneBurst() {
	ctx, cancel := contextWithStop(g.stop)
	defer cancel()
	state, err := g.Driver.Run(ctx)
	if err != nil {
		g.StatusLabel.SetText(fmt.Sprintf("run stopped: %v", err))
	} else {
		g.StatusLabel.SetText(fmt.Sprintf("run stopped: %s", state))
	}
	g.refreshViews()
}

// pollLoop refreshes the read-only panels on a timer so state advanced
// by a concurrent Run (triggered from the toolbar, or by the CLI/API
// sharing this driver) still shows up without an explicit refresh.
func (g *GUI) pollLoop() {
	ticker := time.NewTicker(guiRefreshInterval)
	defer ticker.Stop()
	for {
		select {
		case <-g.stop:
			return
		case <-ticker.C:
			g.refreshViews()
		}
	}
}

func (g *GUI) refreshViews() {
	snap := g.Driver.Snapshot()

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
	g.RegisterView.SetText(strings.Join(regLines, "\n"))

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
	g.TrapView.SetText(strings.Join(trapLines, "\n"))

	if len(snap.UARTText) == 0 {
		g.OracleView.SetText("no UART output yet")
	} else {
		g.OracleView.SetText(strings.Join(snap.UARTText, "\n"))
	}

	var traceLines []string
	for _, event := range g.Driver.RecentEvents(128) {
		traceLines = append(traceLines, formatTraceEvent(event))
	}
	g.TraceView.SetText(strings.Join(traceLines, "\n"))

	if snap.HostError != "" {
		g.StatusLabel.SetText("host fault: " + snap.HostError)
	} else {
		g.StatusLabel.SetText(string(snap.State))
	}
}
