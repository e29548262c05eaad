// Package tools holds ambient developer tooling used alongside the
// simulator itself: trace pretty-printing, an oracle query-id registry
// linter, and symbol-to-trace-address cross-referencing (spec.md
// §4.8's "pretty-printing and cross-referencing aids" mention).
// Adapted from the teacher's tools package: same FormatOptions/
// Formatter, LintLevel/LintIssue/Linter and XRefGenerator/Symbol/
// Reference shapes, retargeted from ARM assembly source to the RV32
// trace event stream, the oracle query-id registry and the flat
// symbol file respectively.
package tools

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rv32sim/rv32sim/trace"
)

// FormatStyle controls how much detail a formatted trace line carries.
type FormatStyle int

const (
	FormatDefault  FormatStyle = iota // one line per event, all fields
	FormatCompact                     // one line per event, values only
	FormatExpanded                    // one line per event plus a decoded note
)

// FormatOptions controls the trace Formatter.
type FormatOptions struct {
	Style         FormatStyle
	CycleColumn   int // column width reserved for the proc-cycle number
	KindColumn    int // column width reserved for the event kind name
	ShowTimestamp bool
}

// DefaultFormatOptions returns the default column layout.
func DefaultFormatOptions() *FormatOptions {
	return &FormatOptions{Style: FormatDefault, CycleColumn: 8, KindColumn: 11, ShowTimestamp: true}
}

// CompactFormatOptions narrows every column to the minimum needed.
func CompactFormatOptions() *FormatOptions {
	return &FormatOptions{Style: FormatCompact, CycleColumn: 1, KindColumn: 1, ShowTimestamp: false}
}

// ExpandedFormatOptions widens columns and appends a decoded note for
// x0 rd-writes and address-translation events.
func ExpandedFormatOptions() *FormatOptions {
	return &FormatOptions{Style: FormatExpanded, CycleColumn: 10, KindColumn: 24, ShowTimestamp: true}
}

// Formatter pretty-prints a recorded trace for human inspection --
// the textual counterpart to the NDJSON a downstream constraint
// generator consumes (api/websocket.go, main.go's -trace-file).
type Formatter struct {
	options *FormatOptions
}

// NewFormatter creates a Formatter; nil options fall back to defaults.
func NewFormatter(options *FormatOptions) *Formatter {
	if options == nil {
		options = DefaultFormatOptions()
	}
	return &Formatter{options: options}
}

// Format renders every event in events as one line of text each.
func (f *Formatter) Format(events []trace.Event) string {
	var sb strings.Builder
	for _, e := range events {
		f.formatEvent(&sb, e)
	}
	return sb.String()
}

func (f *Formatter) formatEvent(sb *strings.Builder, e trace.Event) {
	kind := kindName(e.Kind)

	if f.options.Style == FormatCompact {
		fmt.Fprintf(sb, "%d %s %s\n", e.ProcCycle, kind, compactFields(e))
		return
	}

	cycleCol := fmt.Sprintf("%*d", f.options.CycleColumn, e.ProcCycle)
	kindCol := fmt.Sprintf("%-*s", f.options.KindColumn, kind)
	fmt.Fprintf(sb, "[%s] %s %s", cycleCol, kindCol, compactFields(e))
	if f.options.ShowTimestamp {
		fmt.Fprintf(sb, " ts=%d", e.Timestamp)
	}
	if f.options.Style == FormatExpanded {
		if note := expandedNote(e); note != "" {
			fmt.Fprintf(sb, "  ; %s", note)
		}
	}
	sb.WriteByte('\n')
}

func kindName(k trace.EventKind) string {
	switch k {
	case trace.EventOpcodeRead:
		return "opcode-read"
	case trace.EventRs1Read:
		return "rs1-read"
	case trace.EventRs2Read:
		return "rs2-read"
	case trace.EventRdWrite:
		return "rd-write"
	case trace.EventNonDeterminismRead:
		return "oracle-read"
	case trace.EventNonDeterminismWrite:
		return "oracle-write"
	case trace.EventRamRead:
		return "ram-read"
	case trace.EventRamReadWrite:
		return "ram-rmw"
	case trace.EventAddressTranslation:
		return "translate"
	case trace.EventBatchMemoryAccess:
		return "batch-access"
	case trace.EventCycleStart:
		return "cycle-start"
	case trace.EventCycleEnd:
		return "cycle-end"
	default:
		return "unknown"
	}
}

func compactFields(e trace.Event) string {
	switch e.Kind {
	case trace.EventOpcodeRead, trace.EventRamRead:
		return fmt.Sprintf("addr=0x%08X val=0x%08X", e.PhysAddr, e.NewValue)
	case trace.EventRs1Read, trace.EventRs2Read:
		return fmt.Sprintf("x%d=0x%08X", e.RegIdx, e.NewValue)
	case trace.EventRdWrite, trace.EventRamReadWrite:
		return fmt.Sprintf("0x%08X->0x%08X", e.OldValue, e.NewValue)
	case trace.EventNonDeterminismRead, trace.EventNonDeterminismWrite:
		return fmt.Sprintf("val=0x%08X", e.NewValue)
	case trace.EventAddressTranslation:
		return fmt.Sprintf("virt=0x%08X phys=0x%08X", e.VirtAddr, e.PhysAddr)
	case trace.EventBatchMemoryAccess:
		return fmt.Sprintf("id=%d n=%d", e.AccessID, len(e.Accesses))
	default:
		return ""
	}
}

func expandedNote(e trace.Event) string {
	switch e.Kind {
	case trace.EventRdWrite:
		if e.RegIdx == 0 {
			return "write to x0 is architecturally discarded"
		}
	case trace.EventAddressTranslation:
		return fmt.Sprintf("satp=0x%08X", e.SatpValue)
	}
	return ""
}

// Summarize counts events by kind, sorted by count descending then
// name, for a quick "what dominated this run" readout.
func Summarize(events []trace.Event) string {
	counts := make(map[trace.EventKind]int)
	for _, e := range events {
		counts[e.Kind]++
	}

	type row struct {
		kind  string
		count int
	}
	rows := make([]row, 0, len(counts))
	for k, c := range counts {
		rows = append(rows, row{kindName(k), c})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].count != rows[j].count {
			return rows[i].count > rows[j].count
		}
		return rows[i].kind < rows[j].kind
	})

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d events total\n", len(events))
	for _, r := range rows {
		fmt.Fprintf(&sb, "%-16s %d\n", r.kind, r.count)
	}
	return sb.String()
}
