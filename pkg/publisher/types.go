// Package publisher implements the generic Blockchain Publisher (spec.md
// section 4.3): idempotent, resumable, timeout-aware batch submission of
// route/credit/payment records as chain transactions, one per record,
// signed by the master account.
package publisher

import "math/big"

// Record is one pending row to submit, already bound to a contract method
// and its packed-call arguments. IsPayment/CreditID/AmountArgIndex exist
// only to support the recoverable-overflow-revert retry spec.md section
// 4.3 describes for payments; routes and credits leave them zero.
type Record struct {
	// Key identifies the record for idempotency (a route ID, credit ID, or
	// payment ID, as a decimal string).
	Key    string
	Method string
	Args   []interface{}

	IsPayment      bool
	CreditID       *big.Int
	AmountArgIndex int // index into Args holding the payment amount
}

// Sink is the idempotency and persistence boundary a publisher batch talks
// to: it reports whether a record is already published (via either of the
// two signals spec.md section 4.3/4.9 describes — relational published-flag
// or object-store checkpoint map), marks records published as the batch
// progresses, and flushes whatever backing store it wraps.
type Sink interface {
	IsPublished(key string) bool
	MarkPublished(key, txHash string) error
	Flush() error
}

// Result reports the outcome of one batch.
type Result struct {
	AllSuccess     bool
	PublishedCount int
}
