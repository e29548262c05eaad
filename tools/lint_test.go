package tools

import (
	"testing"

	"github.com/rv32sim/rv32sim/oracle"
)

func TestLintRegistrationsFlagsUnknownID(t *testing.T) {
	issues := LintRegistrations([]Registration{{ID: oracle.QueryID(999), ProcessorID: "bogus"}})
	if len(issues) != 1 {
		t.Fatalf("expected 1 issue, got %d", len(issues))
	}
	if issues[0].Level != LintError || issues[0].Code != "UNKNOWN_QUERY_ID" {
		t.Fatalf("expected UNKNOWN_QUERY_ID error, got %+v", issues[0])
	}
}

func TestLintRegistrationsFlagsDuplicate(t *testing.T) {
	regs := []Registration{
		{ID: oracle.QueryUARTOutput, ProcessorID: "first"},
		{ID: oracle.QueryUARTOutput, ProcessorID: "second"},
	}
	issues := LintRegistrations(regs)
	if len(issues) != 1 {
		t.Fatalf("expected 1 issue, got %d", len(issues))
	}
	if issues[0].Level != LintWarning || issues[0].Code != "DUPLICATE_REGISTRATION" {
		t.Fatalf("expected DUPLICATE_REGISTRATION warning, got %+v", issues[0])
	}
}

func TestLintRegistrationsAcceptsValidSet(t *testing.T) {
	regs := []Registration{
		{ID: oracle.QueryTransactionSize, ProcessorID: "tx"},
		{ID: oracle.QueryDisconnect, ProcessorID: "disconnect"},
	}
	if issues := LintRegistrations(regs); len(issues) != 0 {
		t.Fatalf("expected no issues, got %+v", issues)
	}
}

func TestUnregisteredQueryIDsReportsEveryOmission(t *testing.T) {
	regs := []Registration{{ID: oracle.QueryTransactionSize, ProcessorID: "tx"}}
	missing := UnregisteredQueryIDs(regs)
	if len(missing) != len(knownQueryIDs)-1 {
		t.Fatalf("expected %d missing ids, got %d", len(knownQueryIDs)-1, len(missing))
	}
	for _, id := range missing {
		if id == oracle.QueryTransactionSize {
			t.Fatalf("registered id should not be reported missing")
		}
	}
}
