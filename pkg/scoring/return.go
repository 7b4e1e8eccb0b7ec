package scoring

import (
	"context"
	"fmt"
	"log"
	"strconv"

	"github.com/certen/independant-validator/pkg/objectstore"
)

// ScoreWriter is the relational-store side of the ScoreReturn stage: write
// one contact's final scoring output back to its record.
type ScoreWriter interface {
	UpdateScore(ctx context.Context, recordID string, rawScore, adjustedScore float64, referidoPerdido, afectadoPorRed bool) error
}

// ScoreReturn reads the Engine's CSV output back from the object store and
// writes each row to the relational store, per spec.md section 1's
// Extract/Transform/.../ScoreReturn pipeline.
type ScoreReturn struct {
	store  *objectstore.Client
	writer ScoreWriter
	logger *log.Logger
}

func NewScoreReturn(store *objectstore.Client, writer ScoreWriter) *ScoreReturn {
	return &ScoreReturn{
		store:  store,
		writer: writer,
		logger: log.New(log.Writer(), "[ScoreReturn] ", log.LstdFlags),
	}
}

// Run reads the scoring CSV for date and writes every row back to the
// relational store. Returns the number of records written.
func (s *ScoreReturn) Run(ctx context.Context, date string) (int, error) {
	header, rows, err := s.store.GetCSV(ctx, objectstore.DailyScoringKey(date))
	if err != nil {
		return 0, fmt.Errorf("scoring: failed to read scores for %s: %w", date, err)
	}
	if len(rows) == 0 {
		s.logger.Printf("no scores found for %s", date)
		return 0, nil
	}

	col := make(map[string]int, len(header))
	for i, name := range header {
		col[name] = i
	}

	written := 0
	for _, row := range rows {
		recordID := row[col["record_id"]]
		raw, err := strconv.ParseFloat(row[col["raw_score"]], 64)
		if err != nil {
			return written, fmt.Errorf("scoring: malformed raw_score for record %s: %w", recordID, err)
		}
		adjusted, err := strconv.ParseFloat(row[col["adjusted_score"]], 64)
		if err != nil {
			return written, fmt.Errorf("scoring: malformed adjusted_score for record %s: %w", recordID, err)
		}
		referidoPerdido, _ := strconv.ParseBool(row[col["referido_perdido"]])
		afectadoPorRed, _ := strconv.ParseBool(row[col["afectado_x_red"]])

		if err := s.writer.UpdateScore(ctx, recordID, raw, adjusted, referidoPerdido, afectadoPorRed); err != nil {
			return written, fmt.Errorf("scoring: failed to write score for record %s: %w", recordID, err)
		}
		written++
	}

	s.logger.Printf("returned %d scores for %s", written, date)
	return written, nil
}
