package house

import (
	"errors"
	"fmt"
)

// Sentinel errors for conditions that carry no extra context.
var (
	// ErrZeroCommitment rejects an empty commitment hash at commit time.
	ErrZeroCommitment = errors.New("zero commitment is invalid")

	// ErrUnrevealed rejects a withdrawal while the caller's commitment is
	// still unopened. EmergencyReveal is the escape hatch.
	ErrUnrevealed = errors.New("sealed bid has not been revealed")

	// ErrNoSealedBid is returned when an operation references a bidder
	// with no sealed-bid record.
	ErrNoSealedBid = errors.New("no sealed bid for bidder")

	// ErrNotOwner gates owner-only operations.
	ErrNotOwner = errors.New("caller is not the auction owner")
)

// ConfigError reports invalid auction parameters at creation time. The
// auctioneer must retry with valid parameters; no state was changed.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid auction configuration: %s", e.Reason)
}

// PhaseError reports an operation invoked outside its valid phase window.
// Depending on the operation the caller must either wait or has missed the
// window permanently.
type PhaseError struct {
	Op     string
	Status Status
	Now    uint32
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("%s not allowed in status %s at time %d", e.Op, e.Status, e.Now)
}

// OpeningMismatchError reports a reveal whose recomputed commitment does not
// match the stored one. Both hashes are carried for diagnosis.
type OpeningMismatchError struct {
	Stored     string
	Recomputed string
}

func (e *OpeningMismatchError) Error() string {
	return fmt.Sprintf("bid opening does not match commitment: stored %s, recomputed %s",
		e.Stored, e.Recomputed)
}
