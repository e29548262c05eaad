// Package loader reads a raw binary image into a machine's memory and,
// optionally, a flat symbol table for service.Driver's SymbolForAddress
// and tools/xref. Adapted from the teacher's loader/loader.go, which
// additionally resolved assembly directives (.word, .byte, .ascii,
// literal pools) against a parsed assembly program; this simulator's
// external interface defines only the binary-image format (spec.md §6),
// so that logic is dropped and only the segment-preparation and
// word-write pattern survives.
package loader

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rv32sim/rv32sim/vm"
)

// LoadImage reads every byte of r into machine's memory starting at
// entryPoint, and positions the CPU's program counter there. The image
// length must be a multiple of 4 (spec.md §6 "Binary image"); anything
// else is rejected rather than silently padded.
func LoadImage(machine *vm.Machine, r io.Reader, entryPoint uint32) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("loader: failed to read image: %w", err)
	}
	if len(data)%4 != 0 {
		return fmt.Errorf("loader: image length %d is not a multiple of 4", len(data))
	}

	if err := machine.Memory.LoadBytes(entryPoint, data); err != nil {
		return fmt.Errorf("loader: failed to load image at %#08x: %w", entryPoint, err)
	}

	machine.CPU.PC = entryPoint
	return nil
}

// Symbol pairs an address with a name, as loaded from a flat symbol
// file.
type Symbol struct {
	Address uint32
	Name    string
}

// LoadSymbols reads a flat symbol table, one "<hex-addr>\t<name>" pair
// per line (blank lines and lines starting with '#' are skipped). The
// cycle engine never consults this table; it exists purely for
// service.Driver's SymbolForAddress and tools/xref to annotate addresses with names
// (spec.md §4.9).
func LoadSymbols(r io.Reader) ([]Symbol, error) {
	var symbols []Symbol

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.SplitN(line, "\t", 2)
		if len(fields) != 2 {
			fields = strings.Fields(line)
		}
		if len(fields) != 2 {
			return nil, fmt.Errorf("loader: symbol file line %d: expected \"<addr>\\t<name>\", got %q", lineNo, line)
		}

		addrField := strings.TrimPrefix(strings.TrimSpace(fields[0]), "0x")
		addr, err := strconv.ParseUint(addrField, 16, 32)
		if err != nil {
			return nil, fmt.Errorf("loader: symbol file line %d: invalid address %q: %w", lineNo, fields[0], err)
		}

		symbols = append(symbols, Symbol{Address: uint32(addr), Name: strings.TrimSpace(fields[1])})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("loader: failed to scan symbol file: %w", err)
	}

	return symbols, nil
}
