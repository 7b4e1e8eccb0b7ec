package publisher

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/certen/independant-validator/pkg/relational"
)

// PendingPayment pairs a payment with its relational record ID. Its credit
// is already published by construction: ListPendingForEnv only returns
// payments whose credit's published flag is already set.
type PendingPayment struct {
	RecordID string
	Payment  *relational.Payment
}

// PublishPayments submits one recordPayment transaction per pending payment.
// This is spec.md's PaymentPublisher stage; the payment/credit publish
// ordering invariant is enforced upstream by the relational store's
// ListPendingForEnv query, not here.
func PublishPayments(ctx context.Context, p *Publisher, marker FlagMarker, publishedFlagField string, pending []PendingPayment, from common.Address, privateKey *ecdsa.PrivateKey, timeoutSeconds float64) (Result, error) {
	records := make([]Record, 0, len(pending))
	recordIDByKey := make(map[string]string, len(pending))

	for _, pp := range pending {
		key := fmt.Sprintf("%d", pp.Payment.PaymentID)
		recordIDByKey[key] = pp.RecordID

		amountArgIndex := 2
		records = append(records, Record{
			Key:    key,
			Method: "recordPayment",
			Args: []interface{}{
				new(big.Int).SetUint64(pp.Payment.CreditID),
				new(big.Int).SetUint64(pp.Payment.PaymentID),
				big.NewInt(pp.Payment.Amount),
				big.NewInt(pp.Payment.Date.Unix()),
			},
			IsPayment:      true,
			CreditID:       new(big.Int).SetUint64(pp.Payment.CreditID),
			AmountArgIndex: amountArgIndex,
		})
	}

	sink := NewRelationalSink(ctx, marker, publishedFlagField, recordIDByKey)
	return p.Batch(ctx, records, sink, from, privateKey, timeoutSeconds)
}
