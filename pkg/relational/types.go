// Package relational is an HTTPS REST client for the no-code relational
// store (spec.md's "Airtable"), built over net/http rather than a SQL
// driver because the wire contract is a per-view REST projection, not a
// database connection — but shaped like this codebase's other repositories
// (Client + XRepository{client}, context-scoped methods, %w-wrapped errors).
package relational

import "time"

// ContactStatus mirrors the relational store's client status enum.
type ContactStatus string

const (
	StatusStarted  ContactStatus = "STARTED"
	StatusActive   ContactStatus = "ACTIVE"
	StatusRejected ContactStatus = "REJECTED"
	StatusInactive ContactStatus = "INACTIVE"
)

// CreditStatus mirrors the relational store's credit status enum.
type CreditStatus string

const (
	CreditStarted  CreditStatus = "STARTED"
	CreditPaid     CreditStatus = "PAID"
	CreditLost     CreditStatus = "LOST"
	CreditInactive CreditStatus = "INACTIVE"
	CreditRejected CreditStatus = "REJECTED"
	CreditPending  CreditStatus = "PENDING"
)

// inProcessStatuses are credit statuses considered "Créditos en Proceso":
// per the glossary, a credit-in-process is any credit whose status is
// neither PAID, LOST, nor REJECTED.
var inProcessStatuses = map[CreditStatus]bool{
	CreditStarted:  true,
	CreditPending:  true,
	CreditInactive: true,
}

// IsInProcess reports whether a credit is still being serviced.
func (s CreditStatus) IsInProcess() bool {
	return inProcessStatuses[s]
}

// Contact is a client record from the relational store's contacts table.
type Contact struct {
	RecordID        string
	ClientID        uint64
	Status          ContactStatus
	GPSIDs          []string
	CeloAddress     string
	ReferrerID      *uint64
	IsRodaReferral  bool // "¿Referido RODA?" qualifying flag (SPEC_FULL supplement)
	AvgCreditAmount *float64
	RealCreditCount *int
}

// Credit is a credit record from the relational store.
type Credit struct {
	CreditID             uint64
	ClientID             uint64
	Status               CreditStatus
	Principal            int64
	TotalRepayment       int64
	IssuanceDate         time.Time
	TermDays             int
	AvgDelayDays         float64
	CumulativeDelayDays  float64
	FulfilledAgreements  int
	TotalAgreements      int
	LostFlag             bool
	PublishedFlag        bool
}

// Payment is a payment record from the relational store.
type Payment struct {
	PaymentID          uint64
	CreditID           uint64
	Date               time.Time
	Amount             int64
	PublishedFlag      bool
	CreditPublishedFlag bool
}
