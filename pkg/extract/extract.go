// Package extract implements the Extract stage: authenticate to the fleet
// API and persist the day's raw route rows to the object store, unmodified,
// for the Transform stage to pick up.
package extract

import (
	"context"
	"fmt"
	"log"

	"github.com/certen/independant-validator/pkg/objectstore"
	"github.com/certen/independant-validator/pkg/tribu"
)

// Stage wires the fleet API client to the object store.
type Stage struct {
	fleet  *tribu.Client
	store  *objectstore.Client
	logger *log.Logger
}

// NewStage builds an Extract stage over an already-connected fleet client
// and object store.
func NewStage(fleet *tribu.Client, store *objectstore.Client) *Stage {
	return &Stage{
		fleet:  fleet,
		store:  store,
		logger: log.New(log.Writer(), "[Extract] ", log.LstdFlags),
	}
}

// Run fetches routes for source over [date, date] and writes them to
// objectstore.RawRouteKey (tribu_data/date={date}/source={source}.csv).
func (s *Stage) Run(ctx context.Context, date, source string) (int, error) {
	routes, err := s.fleet.FetchRoutes(ctx, source, date, date)
	if err != nil {
		return 0, fmt.Errorf("extract: failed to fetch routes for %s/%s: %w", date, source, err)
	}

	header := []string{"k_dispositivo", "o_fecha_inicial", "o_fecha_final", "f_distancia", "id_ruta"}
	rows := make([][]string, 0, len(routes))
	for _, r := range routes {
		rows = append(rows, []string{
			r.GPSID,
			r.TimestampStart,
			r.TimestampEnd,
			fmt.Sprintf("%v", r.MeasuredDistance),
			r.ExternalRouteKey,
		})
	}

	key := objectstore.RawRouteKey(date, source)
	if err := s.store.PutCSV(ctx, key, header, rows); err != nil {
		return 0, fmt.Errorf("extract: failed to write raw partition %s: %w", key, err)
	}

	s.logger.Printf("extracted %d raw routes for date=%s source=%s -> %s", len(routes), date, source, key)
	return len(routes), nil
}
