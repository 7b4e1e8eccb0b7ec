// Package errs holds the sentinel error taxonomy shared by every pipeline
// stage, in the style of the old batch package's errors.go: a flat var block
// of wrapped errors.New values, matched by callers with errors.Is/errors.As.
package errs

import "errors"

var (
	// ErrConfiguration marks a missing or malformed configuration value.
	// Fatal; never retried.
	ErrConfiguration = errors.New("configuration error")

	// ErrIntegrity marks a structural violation of the data model: a
	// duplicate GPS device across contacts, a self-referral, a duplicate
	// route ID, or an unresolved device outside the known-unassigned list.
	ErrIntegrity = errors.New("integrity error")

	// ErrTransientRemote marks a retryable failure talking to an external
	// collaborator (HTTP 5xx, RPC timeout, counter throttling).
	ErrTransientRemote = errors.New("transient remote error")

	// ErrBudgetExhausted is returned when a stage stops early because its
	// time budget ran out. Not fatal: the caller should treat it as a
	// partial-success exit.
	ErrBudgetExhausted = errors.New("time budget exhausted")

	// ErrBenignChainRevert marks a revert that indicates the record is
	// already on-chain from a previous run.
	ErrBenignChainRevert = errors.New("benign chain revert")

	// ErrRecoverableChainRevert marks a revert that can be corrected with
	// one rebuilt-and-resubmitted transaction.
	ErrRecoverableChainRevert = errors.New("recoverable chain revert")

	// ErrFatalChainError marks any other on-chain failure. Aborts the batch.
	ErrFatalChainError = errors.New("fatal chain error")
)

// ConfigurationError wraps ErrConfiguration with the list of offending fields
// so Validate() can report every problem in one pass instead of the first.
type ConfigurationError struct {
	Fields []string
}

func (e *ConfigurationError) Error() string {
	msg := "configuration error:"
	for _, f := range e.Fields {
		msg += "\n  - " + f
	}
	return msg
}

func (e *ConfigurationError) Unwrap() error { return ErrConfiguration }

// IntegrityError names the specific devices or identifiers that violated an
// invariant, so an operational notification can list them verbatim.
type IntegrityError struct {
	Reason string
	Items  []string
}

func (e *IntegrityError) Error() string {
	if len(e.Items) == 0 {
		return e.Reason
	}
	msg := e.Reason + ":"
	for _, item := range e.Items {
		msg += " " + item
	}
	return msg
}

func (e *IntegrityError) Unwrap() error { return ErrIntegrity }
