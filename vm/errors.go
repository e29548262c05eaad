package vm

import (
	"errors"
	"fmt"
)

// Simulator-host failure sentinels (spec.md §7). Guest program bugs
// always surface as TrapReason values delivered to the guest's own
// trap handler; these sentinels are reserved for violations of the
// guest-host contract itself, which the oracle and delegation packages
// report through Machine.Fault. Grounded on the teacher's error
// wrapping idiom (sentinel vars defined once, wrapped per-occurrence
// with fmt.Errorf and %w, e.g. vm/memory.go's ErrOutOfBounds).
var (
	ErrOracleProtocol = errors.New("oracle protocol violation")
	ErrDelegationABI  = errors.New("delegation kernel ABI violation")
)

// OracleProtocolError wraps ErrOracleProtocol with the detail that
// distinguishes one malformed-query report from another.
func OracleProtocolError(detail string) error {
	return fmt.Errorf("%w: %s", ErrOracleProtocol, detail)
}

// DelegationABIError wraps ErrDelegationABI similarly.
func DelegationABIError(detail string) error {
	return fmt.Errorf("%w: %s", ErrDelegationABI, detail)
}
