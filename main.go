package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rv32sim/rv32sim/api"
	"github.com/rv32sim/rv32sim/config"
	"github.com/rv32sim/rv32sim/debugger"
	"github.com/rv32sim/rv32sim/delegation"
	"github.com/rv32sim/rv32sim/loader"
	"github.com/rv32sim/rv32sim/oracle"
	"github.com/rv32sim/rv32sim/service"
	"github.com/rv32sim/rv32sim/trace"
	"github.com/rv32sim/rv32sim/vm"
)

// Version information - can be overridden at build time with:
// go build -ldflags "-X main.Version=v1.2.3"
var (
	Version = "dev"     // Version number (set by git tag at build time)
	Commit  = "unknown" // Git commit hash
	Date    = "unknown" // Build date
)

func main() {
	var (
		showVersion = flag.Bool("version", false, "Show version information")
		showHelp    = flag.Bool("help", false, "Show help information")
		configPath  = flag.String("config", "", "Path to config TOML file (default: platform config dir)")

		symbolsFile = flag.String("symbols", "", "Path to a flat symbol file (addr<TAB>name per line)")
		preset      = flag.String("preset", "", "ISA feature preset: full-im or proving-subset (default: from config)")
		sv32        = flag.Bool("sv32", false, "Enable Sv32 address translation (default: from config)")
		entryFlag   = flag.String("entry", "", "Entry point address, hex or decimal (default: from config)")
		maxCycles   = flag.Uint64("max-cycles", 0, "Maximum proc-cycles before halt, 0 uses config (default: from config)")

		enableTrace = flag.Bool("trace", false, "Record every architectural event (default: from config)")
		traceFile   = flag.String("trace-file", "", "Write the recorded trace as NDJSON to this path on exit")

		tuiMode   = flag.Bool("tui", false, "Run the read-only terminal inspector instead of running to completion")
		guiMode   = flag.Bool("gui", false, "Run the read-only windowed inspector instead of running to completion")
		apiServer = flag.Bool("api-server", false, "Start the HTTP+WebSocket trace-streaming server")
		apiPort   = flag.Int("api-port", 0, "API server port, 0 uses config (default: from config)")
	)

	flag.Parse()

	if *showVersion {
		fmt.Printf("rv32sim %s\n", Version)
		if Commit != "unknown" {
			fmt.Printf("Commit: %s\n", Commit)
		}
		if Date != "unknown" {
			fmt.Printf("Built: %s\n", Date)
		}
		os.Exit(0)
	}

	if *showHelp || (flag.NArg() == 0 && !*apiServer) {
		printHelp()
		os.Exit(0)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	applyOverrides(cfg, *preset, *sv32, *entryFlag, *maxCycles, *enableTrace, *apiPort)

	entryPoint, err := cfg.ParseEntryPoint()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	features := featuresForPreset(cfg.FeaturesPresetName())
	var translator vm.Translator = vm.IdentityTranslator{}
	if cfg.ISA.Sv32 {
		translator = vm.Sv32Translator{}
	}

	var recorder *trace.Recorder
	var tracer trace.Tracer = trace.NopTracer{}
	if cfg.Trace.Enabled {
		recorder = trace.NewRecorder(cfg.Trace.MaxEntries)
		tracer = recorder
	}

	machine := vm.NewMachine(entryPoint, features, translator, tracer, cfg.MemoryWordCount())

	o := oracle.New(oracle.Config{
		MockReadsBeforeWrites:  cfg.Oracle.MockReadsBeforeWrites,
		IgnoreWritesAfterReads: cfg.Oracle.IgnoreWritesAfterReads,
	})
	machine.RegisterPort(vm.CSRNonDeterminism, o)

	kernels := delegation.NewKernels(o)
	kernels.RegisterAll(machine)

	if flag.NArg() > 0 {
		imagePath := flag.Arg(0)
		f, err := os.Open(imagePath) // #nosec G304 -- user-specified image path
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening image %s: %v\n", imagePath, err)
			os.Exit(1)
		}
		err = loader.LoadImage(machine, f, entryPoint)
		_ = f.Close()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading image: %v\n", err)
			os.Exit(1)
		}
	}

	var symbols []loader.Symbol
	if *symbolsFile != "" {
		f, err := os.Open(*symbolsFile) // #nosec G304 -- user-specified symbols path
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening symbols file: %v\n", err)
			os.Exit(1)
		}
		symbols, err = loader.LoadSymbols(f)
		_ = f.Close()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading symbols: %v\n", err)
			os.Exit(1)
		}
	}

	driver := service.NewDriver(machine, recorder, entryPoint, cfg.Execution.MaxCycles)
	driver.SetOracle(o)
	driver.LoadSymbols(symbols)

	switch {
	case *apiServer:
		runAPIServer(driver, machine, cfg.API.Port)
	case *tuiMode:
		if err := debugger.RunTUI(driver); err != nil {
			fmt.Fprintf(os.Stderr, "TUI error: %v\n", err)
			os.Exit(1)
		}
	case *guiMode:
		if err := debugger.RunGUI(driver); err != nil {
			fmt.Fprintf(os.Stderr, "GUI error: %v\n", err)
			os.Exit(1)
		}
	default:
		runToCompletion(driver, machine)
	}

	if recorder != nil && *traceFile != "" {
		if err := writeTraceFile(*traceFile, recorder); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing trace file: %v\n", err)
			os.Exit(1)
		}
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFrom(path)
	}
	return config.Load()
}

func applyOverrides(cfg *config.Config, preset string, sv32 bool, entry string, maxCycles uint64, enableTrace bool, apiPort int) {
	if preset != "" {
		cfg.ISA.Preset = preset
	}
	if sv32 {
		cfg.ISA.Sv32 = true
	}
	if entry != "" {
		cfg.Execution.EntryPoint = entry
	}
	if maxCycles != 0 {
		cfg.Execution.MaxCycles = maxCycles
	}
	if enableTrace {
		cfg.Trace.Enabled = true
	}
	if apiPort != 0 {
		cfg.API.Port = apiPort
	}
}

func featuresForPreset(name string) vm.Features {
	if name == "proving-subset" {
		return vm.ProvingSubset()
	}
	return vm.FullIM()
}

// runToCompletion drives the machine until Run reports a terminal
// state, printing a final summary the way the teacher's direct-
// execution mode prints exit code and cycle counts.
func runToCompletion(driver *service.Driver, machine *vm.Machine) {
	state, err := driver.Run(context.Background())
	snap := driver.Snapshot()

	fmt.Printf("state: %s\n", state)
	fmt.Printf("pc: 0x%08X  cycle: %d\n", snap.Registers.PC, snap.Cycle)
	if snap.HostError != "" {
		fmt.Fprintf(os.Stderr, "host fault: %s\n", snap.HostError)
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "run stopped: %v\n", err)
		os.Exit(1)
	}
	_ = machine
}

// runAPIServer starts the trace-streaming server and blocks until a
// SIGINT/SIGTERM triggers a graceful shutdown, mirroring the teacher's
// main.go API-server mode minus the external-process-monitor shutdown
// path (this simulator is never launched as a child of a GUI shell).
func runAPIServer(driver *service.Driver, machine *vm.Machine, port int) {
	broadcaster := api.NewBroadcaster()
	machine.Tracer = api.WrapTracerForBroadcast(machine.Tracer, broadcaster)

	server := api.NewServer(driver, broadcaster, port)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	var shutdownOnce sync.Once
	performShutdown := func() {
		shutdownOnce.Do(func() {
			fmt.Println("\nShutting down API server...")
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := server.Shutdown(ctx); err != nil {
				fmt.Fprintf(os.Stderr, "Error during shutdown: %v\n", err)
				os.Exit(1)
			}
			fmt.Println("API server stopped")
			os.Exit(0)
		})
	}

	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			fmt.Fprintf(os.Stderr, "API server error: %v\n", err)
			os.Exit(1)
		}
	}()

	<-sigChan
	performShutdown()
}

// writeTraceFile dumps every recorded event as one JSON object per
// line (NDJSON), the same wire shape the API streams over WebSocket
// (api/websocket.go), so a downstream constraint-generation consumer
// can read a live stream or a saved run with one decoder.
func writeTraceFile(path string, recorder *trace.Recorder) error {
	f, err := os.Create(path) // #nosec G304 -- user-specified trace output path
	if err != nil {
		return fmt.Errorf("failed to create trace file: %w", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	for _, event := range recorder.Snapshot() {
		if err := enc.Encode(event); err != nil {
			return fmt.Errorf("failed to encode trace event: %w", err)
		}
	}
	if dropped := recorder.Dropped(); dropped > 0 {
		fmt.Fprintf(os.Stderr, "Warning: %d trace events dropped (max_entries reached)\n", dropped)
	}
	return nil
}

func printHelp() {
	fmt.Printf(`rv32sim %s

Usage: rv32sim [options] <image-file>
       rv32sim -api-server [-api-port N]

Options:
  -help              Show this help message
  -version           Show version information
  -config FILE       Path to config TOML file (default: platform config dir)
  -symbols FILE       Flat symbol file (addr<TAB>name per line)
  -preset NAME        ISA feature preset: full-im or proving-subset
  -sv32               Enable Sv32 address translation
  -entry ADDR         Entry point address (hex or decimal)
  -max-cycles N       Maximum proc-cycles before halt

Tracing:
  -trace              Record every architectural event
  -trace-file FILE    Write the recorded trace as NDJSON on exit

Front ends:
  -tui                Read-only terminal inspector (registers/CSRs/oracle/trace)
  -gui                Read-only windowed inspector
  -api-server         Start the HTTP+WebSocket trace-streaming server
  -api-port N         API server port (used with -api-server)

Examples:
  rv32sim program.bin
  rv32sim -trace -trace-file run.ndjson program.bin
  rv32sim -symbols program.sym -tui program.bin
  rv32sim -api-server -api-port 9790
`, Version)
}
