package publisher

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/certen/independant-validator/pkg/relational"
)

// PendingCredit pairs a credit with its relational record ID and the
// client's chain address, resolved before publishing.
type PendingCredit struct {
	RecordID string
	Credit   *relational.Credit
	Address  string
}

// PublishCredits submits one issueCredit transaction per pending, not-yet-
// published credit. This is spec.md's CreditPublisher stage.
func PublishCredits(ctx context.Context, p *Publisher, marker FlagMarker, publishedFlagField string, pending []PendingCredit, from common.Address, privateKey *ecdsa.PrivateKey, timeoutSeconds float64) (Result, error) {
	records := make([]Record, 0, len(pending))
	recordIDByKey := make(map[string]string, len(pending))

	for _, pc := range pending {
		if pc.Address == "" {
			continue
		}
		key := fmt.Sprintf("%d", pc.Credit.CreditID)
		recordIDByKey[key] = pc.RecordID

		records = append(records, Record{
			Key:    key,
			Method: "issueCredit",
			Args: []interface{}{
				common.HexToAddress(pc.Address),
				new(big.Int).SetUint64(pc.Credit.CreditID),
				big.NewInt(pc.Credit.Principal),
				big.NewInt(pc.Credit.TotalRepayment),
				big.NewInt(pc.Credit.IssuanceDate.Unix()),
				big.NewInt(int64(pc.Credit.TermDays)),
			},
		})
	}

	sink := NewRelationalSink(ctx, marker, publishedFlagField, recordIDByKey)
	return p.Batch(ctx, records, sink, from, privateKey, timeoutSeconds)
}
