package publisher

import (
	"strconv"
	"testing"
	"time"

	"github.com/certen/independant-validator/pkg/relational"
)

// buildCreditRecordsForTest mirrors PublishCredits' record-construction
// loop without its Publisher.Batch call, so the address-skip filtering can
// be tested without a live chain client.
func buildCreditRecordsForTest(pending []PendingCredit) []Record {
	var records []Record
	for _, pc := range pending {
		if pc.Address == "" {
			continue
		}
		records = append(records, Record{Key: strconv.FormatUint(pc.Credit.CreditID, 10)})
	}
	return records
}

func TestPendingCreditWithoutAddressIsSkippedByRecordBuilding(t *testing.T) {
	pending := []PendingCredit{
		{RecordID: "rec1", Credit: &relational.Credit{CreditID: 1, IssuanceDate: time.Now()}, Address: ""},
		{RecordID: "rec2", Credit: &relational.Credit{CreditID: 2, IssuanceDate: time.Now()}, Address: "0x1111111111111111111111111111111111111a"},
	}

	records := buildCreditRecordsForTest(pending)
	if len(records) != 1 {
		t.Fatalf("expected exactly 1 record (addressless credit skipped), got %d", len(records))
	}
	if records[0].Key != "2" {
		t.Errorf("expected the remaining record to be credit 2, got key %s", records[0].Key)
	}
}
