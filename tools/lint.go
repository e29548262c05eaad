package tools

import (
	"fmt"
	"sort"

	"github.com/rv32sim/rv32sim/oracle"
)

// LintLevel represents the severity of a lint finding.
type LintLevel int

const (
	LintError   LintLevel = iota // an id the oracle would reject at runtime
	LintWarning                  // a registration that shadows or is shadowed
)

func (l LintLevel) String() string {
	switch l {
	case LintError:
		return "error"
	case LintWarning:
		return "warning"
	default:
		return "unknown"
	}
}

// LintIssue is a single finding against a query-id registration list.
type LintIssue struct {
	Level   LintLevel
	ID      oracle.QueryID
	Message string
	Code    string
}

func (i *LintIssue) String() string {
	return fmt.Sprintf("query id %d: %s: %s [%s]", uint32(i.ID), i.Level, i.Message, i.Code)
}

// Registration pairs a query id with the name of the processor a
// deployment intends to install for it via oracle.RegisterProcessor,
// so it can be checked before the oracle is ever constructed.
type Registration struct {
	ID          oracle.QueryID
	ProcessorID string // a label identifying the processor, for diagnostics only
}

var knownQueryIDs = map[oracle.QueryID]string{
	oracle.QueryTransactionSize:    "QueryTransactionSize",
	oracle.QueryTransactionContent: "QueryTransactionContent",
	oracle.QueryIOInitializer:      "QueryIOInitializer",
	oracle.QueryStorageReadProof:   "QueryStorageReadProof",
	oracle.QueryStorageWriteProof:  "QueryStorageWriteProof",
	oracle.QueryPreimageLength:     "QueryPreimageLength",
	oracle.QueryPreimageWords:      "QueryPreimageWords",
	oracle.QueryInitialStorageSlot: "QueryInitialStorageSlot",
	oracle.QueryFrameStart:         "QueryFrameStart",
	oracle.QueryFrameEnd:           "QueryFrameEnd",
	oracle.QueryProofForIndex:      "QueryProofForIndex",
	oracle.QueryNeighboursIndex:    "QueryNeighboursIndex",
	oracle.QueryExactIndex:         "QueryExactIndex",
	oracle.QueryUARTOutput:         "QueryUARTOutput",
	oracle.QueryDisconnect:         "QueryDisconnect",
}

// LintRegistrations validates a deployment's planned
// oracle.RegisterProcessor calls before any of them run: spec.md §4.5
// says a query id outside the oracle's fixed family is a protocol
// violation (vm.OracleProtocolError) discovered only at run time, once
// a guest actually issues that query. This catches the same mistake
// at configuration time by checking every id against the registry
// oracle.New ships, and flags duplicate registrations for the same id
// (the last one registered silently wins at runtime, which is worth a
// warning).
func LintRegistrations(regs []Registration) []*LintIssue {
	var issues []*LintIssue
	seen := make(map[oracle.QueryID]string)

	for _, reg := range regs {
		if _, ok := knownQueryIDs[reg.ID]; !ok {
			issues = append(issues, &LintIssue{
				Level:   LintError,
				ID:      reg.ID,
				Message: "not a recognized query id; the oracle will fault any guest query using it",
				Code:    "UNKNOWN_QUERY_ID",
			})
			continue
		}
		if prior, ok := seen[reg.ID]; ok {
			issues = append(issues, &LintIssue{
				Level:   LintWarning,
				ID:      reg.ID,
				Message: fmt.Sprintf("processor %q shadows earlier registration %q for the same id", reg.ProcessorID, prior),
				Code:    "DUPLICATE_REGISTRATION",
			})
		}
		seen[reg.ID] = reg.ProcessorID
	}

	sort.Slice(issues, func(i, j int) bool { return issues[i].ID < issues[j].ID })
	return issues
}

// UnregisteredQueryIDs reports every known query id that regs never
// mentions -- those fall back to the oracle's default empty-response
// processor, which is valid but worth surfacing before a deployment
// ships with silently-empty transaction or storage data.
func UnregisteredQueryIDs(regs []Registration) []oracle.QueryID {
	covered := make(map[oracle.QueryID]bool, len(regs))
	for _, reg := range regs {
		covered[reg.ID] = true
	}

	var missing []oracle.QueryID
	for id := range knownQueryIDs {
		if !covered[id] {
			missing = append(missing, id)
		}
	}
	sort.Slice(missing, func(i, j int) bool { return missing[i] < missing[j] })
	return missing
}
