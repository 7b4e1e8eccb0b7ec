package scoring

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strconv"

	"github.com/certen/independant-validator/pkg/objectstore"
	"github.com/certen/independant-validator/pkg/relational"
)

// csvColumns is the schema written to objectstore.DailyScoringKey and read
// back by ScoreReturn.
var csvColumns = []string{"client_id", "record_id", "raw_score", "adjusted_score", "referido_perdido", "afectado_x_red"}

// ContactCreditLister is the subset of relational repositories the engine
// needs to list every scored contact; credits come from CreditLister.
type ContactCreditLister interface {
	ListForScoring(ctx context.Context) ([]*relational.Contact, error)
}

type CreditLister interface {
	ListForScoring(ctx context.Context) ([]*relational.Credit, error)
}

// Engine computes the daily scoring run (spec.md section 4.4) and writes
// its output to the object store for ScoreReturn to pick up.
type Engine struct {
	contacts ContactCreditLister
	credits  CreditLister
	store    *objectstore.Client
	params   SocialParams
	logger   *log.Logger
}

func NewEngine(contacts ContactCreditLister, credits CreditLister, store *objectstore.Client) *Engine {
	return &Engine{
		contacts: contacts,
		credits:  credits,
		store:    store,
		params:   DefaultSocialParams(),
		logger:   log.New(log.Writer(), "[Scoring] ", log.LstdFlags),
	}
}

// clientScore is the engine's per-client working state and final output.
type clientScore struct {
	contact *relational.Contact
	raw     float64
	adj     *Adjustment
	final   float64
}

// Run computes every client's raw and socially-adjusted score and writes
// the result as a CSV keyed by date. Returns the number of clients scored.
func (e *Engine) Run(ctx context.Context, date string) (int, error) {
	contacts, err := e.contacts.ListForScoring(ctx)
	if err != nil {
		return 0, fmt.Errorf("scoring: failed to list contacts: %w", err)
	}
	allCredits, err := e.credits.ListForScoring(ctx)
	if err != nil {
		return 0, fmt.Errorf("scoring: failed to list credits: %w", err)
	}

	creditsByClient := make(map[uint64][]*relational.Credit)
	for _, c := range allCredits {
		creditsByClient[c.ClientID] = append(creditsByClient[c.ClientID], c)
	}

	avgAmountPopulation, realCountPopulation := cohortPopulations(contacts)

	scores := make(map[uint64]*clientScore, len(contacts))
	nodes := make([]*ClientNode, 0, len(contacts))

	for _, contact := range contacts {
		credits := creditsByClient[contact.ClientID]
		raw := RawScore(contact, credits, avgAmountPopulation, realCountPopulation)
		scores[contact.ClientID] = &clientScore{contact: contact, raw: raw}

		node := &ClientNode{
			ClientID:   contact.ClientID,
			RecordID:   contact.RecordID,
			Status:     contact.Status,
			ReferrerID: contact.ReferrerID,
			RawScore:   raw,
		}
		for _, c := range credits {
			if c.LostFlag {
				node.LostFlag = true
			}
			if c.Status.IsInProcess() {
				node.HasInProcessCredit = true
			}
		}
		node.LatestInProcessDelay = latestInProcessDelay(credits)
		nodes = append(nodes, node)
	}

	adjustments := AdjustSocialGraph(nodes, e.params)

	for clientID, cs := range scores {
		adj := adjustments[clientID]
		cs.adj = adj
		cs.final = FinalScore(cs.raw, adj)
	}

	rows := make([][]string, 0, len(scores))
	for _, cs := range scores {
		rows = append(rows, []string{
			strconv.FormatUint(cs.contact.ClientID, 10),
			cs.contact.RecordID,
			strconv.FormatFloat(cs.raw, 'f', 4, 64),
			strconv.FormatFloat(cs.final, 'f', 4, 64),
			strconv.FormatBool(cs.adj.ReferidoPerdido),
			strconv.FormatBool(cs.adj.AfectadoPorRed),
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i][0] < rows[j][0] })

	if err := e.store.PutCSV(ctx, objectstore.DailyScoringKey(date), csvColumns, rows); err != nil {
		return 0, fmt.Errorf("scoring: failed to write scores for %s: %w", date, err)
	}

	e.logger.Printf("scored %d clients for %s", len(rows), date)
	return len(rows), nil
}

// cohortPopulations collects the raw inputs QuartileScore needs across the
// whole scored cohort, skipping contacts with no recorded value.
func cohortPopulations(contacts []*relational.Contact) (avgAmounts, realCounts []float64) {
	for _, c := range contacts {
		if c.AvgCreditAmount != nil {
			avgAmounts = append(avgAmounts, *c.AvgCreditAmount)
		}
		if c.RealCreditCount != nil {
			realCounts = append(realCounts, float64(*c.RealCreditCount))
		}
	}
	return avgAmounts, realCounts
}

// latestInProcessDelay returns the avgDelayDays of the most recently issued
// in-process credit, or 0 if the client has none.
func latestInProcessDelay(credits []*relational.Credit) float64 {
	var latest *relational.Credit
	for _, c := range credits {
		if !c.Status.IsInProcess() {
			continue
		}
		if latest == nil || c.IssuanceDate.After(latest.IssuanceDate) {
			latest = c
		}
	}
	if latest == nil {
		return 0
	}
	return latest.AvgDelayDays
}
