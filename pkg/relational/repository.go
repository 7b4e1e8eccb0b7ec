package relational

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// View names per SPEC_FULL.md section 6.
const (
	ViewCreditToCelo  = "CREDIT_TO_CELO_PIPELINE_VIEW"
	ViewPaymentToCelo = "PAYMENT_TO_CELO_PIPELINE_VIEW"
	ViewTribu         = "TRIBU_PIPELINE_VIEW"
	ViewScoring       = "Scoring_View"
)

// ContactRepository reads and writes contact records.
type ContactRepository struct{ client *Client }

func NewContactRepository(c *Client) *ContactRepository { return &ContactRepository{client: c} }

// ListForScoring returns every contact in the scoring view, used by both the
// Address Synchronizer and the Scoring Engine.
func (r *ContactRepository) ListForScoring(ctx context.Context) ([]*Contact, error) {
	recs, err := r.client.listView(ctx, ViewScoring, "")
	if err != nil {
		return nil, fmt.Errorf("relational: failed to list contacts for scoring: %w", err)
	}

	contacts := make([]*Contact, 0, len(recs))
	for _, rec := range recs {
		c := contactFromRecord(rec)
		c.RecordID = rec.ID
		contacts = append(contacts, c)
	}
	return contacts, nil
}

func contactFromRecord(rec record) *Contact {
	c := &Contact{
		ClientID:       uint64Field(rec.Fields["ID Cliente"]),
		Status:         ContactStatus(stringField(rec.Fields["Status"])),
		CeloAddress:    stringField(rec.Fields["celo_address"]),
		IsRodaReferral: boolField(rec.Fields["¿Referido RODA?"]),
	}
	if gpsRaw, ok := rec.Fields["GPS IDs"].(string); ok && gpsRaw != "" {
		for _, id := range strings.Split(gpsRaw, ",") {
			id = strings.TrimSpace(id)
			if id != "" {
				c.GPSIDs = append(c.GPSIDs, id)
			}
		}
	}
	if refRaw, ok := rec.Fields["ID Referidor"]; ok {
		if n := uint64Field(refRaw); n != 0 {
			c.ReferrerID = &n
		}
	}
	if v, ok := rec.Fields["Monto_Prom_Creditos"]; ok {
		f := float64Field(v)
		c.AvgCreditAmount = &f
	}
	if v, ok := rec.Fields["Num_Creditos"]; ok {
		n := intField(v)
		c.RealCreditCount = &n
	}
	return c
}

// UpdateCeloAddress persists a newly minted chain address back to the
// contact's record. Immutable once written: callers must not call this for
// a contact that already has a CeloAddress.
func (r *ContactRepository) UpdateCeloAddress(ctx context.Context, recordID, address string) error {
	return r.client.patchFields(ctx, recordID, map[string]interface{}{"celo_address": address})
}

// UpdateScore writes the final scoring output back to a contact record,
// including the audit fields the SPEC_FULL ScoreReturn supplement adds.
func (r *ContactRepository) UpdateScore(ctx context.Context, recordID string, rawScore, adjustedScore float64, referidoPerdido, afectadoPorRed bool) error {
	return r.client.patchFields(ctx, recordID, map[string]interface{}{
		"Puntaje_Final":          rawScore,
		"Puntaje_Final_Ajustado": adjustedScore,
		"REFERIDO_Perdido":       referidoPerdido,
		"Afectado_x_red":         afectadoPorRed,
	})
}

// CreditRepository reads and writes credit records.
type CreditRepository struct{ client *Client }

func NewCreditRepository(c *Client) *CreditRepository { return &CreditRepository{client: c} }

// ListPendingForEnv returns credits not yet published in the given
// environment, from CREDIT_TO_CELO_PIPELINE_VIEW filtered by the
// environment's PublishedToCelo{Env} flag.
func (r *CreditRepository) ListPendingForEnv(ctx context.Context, publishedFlagField string) ([]recordWithCredit, error) {
	formula := fmt.Sprintf("NOT({%s})", publishedFlagField)
	recs, err := r.client.listView(ctx, ViewCreditToCelo, formula)
	if err != nil {
		return nil, fmt.Errorf("relational: failed to list pending credits: %w", err)
	}

	out := make([]recordWithCredit, 0, len(recs))
	for _, rec := range recs {
		out = append(out, recordWithCredit{RecordID: rec.ID, Credit: creditFromRecord(rec)})
	}
	return out, nil
}

// ListForScoring returns all credits (any status) used by the scoring view.
func (r *CreditRepository) ListForScoring(ctx context.Context) ([]*Credit, error) {
	recs, err := r.client.listView(ctx, ViewScoring, "")
	if err != nil {
		return nil, fmt.Errorf("relational: failed to list credits for scoring: %w", err)
	}
	out := make([]*Credit, 0, len(recs))
	for _, rec := range recs {
		out = append(out, creditFromRecord(rec))
	}
	return out, nil
}

var leadingIntRE = regexp.MustCompile(`^\s*(\d+)`)

// parseDaysFromRepayment extracts the leading integer from a free-text term
// field like "45 días (6 semanas)", per SPEC_FULL's supplemented
// parse_days_from_credit_repayment behavior.
func parseDaysFromRepayment(s string) int {
	m := leadingIntRE.FindStringSubmatch(s)
	if m == nil {
		return 0
	}
	n, _ := strconv.Atoi(m[1])
	return n
}

func creditFromRecord(rec record) *Credit {
	c := &Credit{
		CreditID:            uint64Field(rec.Fields["ID Credito"]),
		ClientID:            uint64Field(rec.Fields["ID Cliente"]),
		Status:              CreditStatus(stringField(rec.Fields["Status"])),
		Principal:           int64(float64Field(rec.Fields["Monto Principal"])),
		TotalRepayment:      int64(float64Field(rec.Fields["Deuda Total"])),
		AvgDelayDays:        float64Field(rec.Fields["Promedio Dias de Atraso"]),
		CumulativeDelayDays: float64Field(rec.Fields["Acumulado Dias de Atraso"]),
		FulfilledAgreements: intField(rec.Fields["Acuerdos Cumplidos"]),
		TotalAgreements:     intField(rec.Fields["Total Acuerdos"]),
		LostFlag:            boolField(rec.Fields["Tiene Credito Perdido"]),
		PublishedFlag:       boolField(rec.Fields["PublishedToCelo"]),
	}
	if termRaw, ok := rec.Fields["Plazo"].(string); ok {
		c.TermDays = parseDaysFromRepayment(termRaw)
	} else {
		c.TermDays = intField(rec.Fields["Plazo"])
	}
	if dateRaw, ok := rec.Fields["Fecha Emision"].(string); ok {
		if t, err := time.Parse("2006-01-02", dateRaw); err == nil {
			c.IssuanceDate = t
		}
	}
	return c
}

// MarkPublished sets the per-environment published flag on a credit.
func (r *CreditRepository) MarkPublished(ctx context.Context, recordID, publishedFlagField string) error {
	return r.client.patchFields(ctx, recordID, map[string]interface{}{publishedFlagField: true})
}

type recordWithCredit struct {
	RecordID string
	Credit   *Credit
}

// PaymentRepository reads and writes payment records.
type PaymentRepository struct{ client *Client }

func NewPaymentRepository(c *Client) *PaymentRepository { return &PaymentRepository{client: c} }

type recordWithPayment struct {
	RecordID string
	Payment  *Payment
}

// ListPendingForEnv returns payments whose credit is already published and
// which are not yet published themselves.
func (r *PaymentRepository) ListPendingForEnv(ctx context.Context, publishedFlagField, creditPublishedFlagField string) ([]recordWithPayment, error) {
	formula := fmt.Sprintf("AND(NOT({%s}), {%s})", publishedFlagField, creditPublishedFlagField)
	recs, err := r.client.listView(ctx, ViewPaymentToCelo, formula)
	if err != nil {
		return nil, fmt.Errorf("relational: failed to list pending payments: %w", err)
	}

	out := make([]recordWithPayment, 0, len(recs))
	for _, rec := range recs {
		p := &Payment{
			PaymentID:           uint64Field(rec.Fields["ID Pago"]),
			CreditID:            uint64Field(rec.Fields["ID Credito"]),
			Amount:              int64(float64Field(rec.Fields["Monto"])),
			PublishedFlag:       boolField(rec.Fields[publishedFlagField]),
			CreditPublishedFlag: boolField(rec.Fields[creditPublishedFlagField]),
		}
		if dateRaw, ok := rec.Fields["Fecha Pago"].(string); ok {
			if t, err := time.Parse("2006-01-02", dateRaw); err == nil {
				p.Date = t
			}
		}
		out = append(out, recordWithPayment{RecordID: rec.ID, Payment: p})
	}
	return out, nil
}

// MarkPublished sets the per-environment published flag on a payment.
func (r *PaymentRepository) MarkPublished(ctx context.Context, recordID, publishedFlagField string) error {
	return r.client.patchFields(ctx, recordID, map[string]interface{}{publishedFlagField: true})
}
