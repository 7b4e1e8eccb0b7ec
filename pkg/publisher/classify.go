package publisher

import (
	"fmt"
	"strings"

	"github.com/certen/independant-validator/pkg/errs"
)

// classifyRevert maps a revert reason string (possibly empty, if the node
// stripped it) to the error taxonomy spec.md section 4.3/7 defines. The
// payment-specific fallback ("generic revert is already accounted") only
// applies when isPayment is true.
func classifyRevert(reason string, isPayment bool) error {
	lower := strings.ToLower(reason)

	switch {
	case strings.Contains(lower, "already minted"), strings.Contains(lower, "already exists"):
		return fmt.Errorf("%w: %s", errs.ErrBenignChainRevert, reason)
	case isPayment && strings.Contains(lower, "overflow"):
		return fmt.Errorf("%w: %s", errs.ErrRecoverableChainRevert, reason)
	case isPayment:
		return fmt.Errorf("%w: %s", errs.ErrBenignChainRevert, reason)
	default:
		return fmt.Errorf("%w: %s", errs.ErrFatalChainError, reason)
	}
}
