package publisher

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/certen/independant-validator/pkg/objectstore"
)

// canonicalColumns mirrors pkg/transform's output schema; duplicated here
// (rather than imported) because the publisher only needs column names, not
// the transform package's row types or parsing logic.
var canonicalColumns = []string{"gpsID", "timestampStart", "timestampEnd", "measuredDistance", "celoAddress", "routeID"}

// PublishRoutes reads the canonical route partition for (date, source),
// submits one recordRoute transaction per row not already checkpointed, and
// returns a Result. This is spec.md's RoutePublisher stage.
func PublishRoutes(ctx context.Context, p *Publisher, store *objectstore.Client, env, date, source string, from common.Address, privateKey *ecdsa.PrivateKey, timeoutSeconds float64) (Result, error) {
	header, rows, err := store.GetCSV(ctx, objectstore.CanonicalRouteKey(date, source))
	if err != nil {
		return Result{}, fmt.Errorf("publisher: failed to read canonical routes for %s/%s: %w", date, source, err)
	}
	if len(rows) == 0 {
		return Result{AllSuccess: true}, nil
	}

	col := columnIndex(header, canonicalColumns)

	records := make([]Record, 0, len(rows))
	for _, row := range rows {
		routeID := row[col["routeID"]]
		address := row[col["celoAddress"]]
		if address == "" {
			continue
		}

		routeIDBig, ok := new(big.Int).SetString(routeID, 10)
		if !ok {
			return Result{}, fmt.Errorf("publisher: malformed routeID %q", routeID)
		}
		startUnix, err := parseTimestampUnix(row[col["timestampStart"]])
		if err != nil {
			return Result{}, err
		}
		endUnix, err := parseTimestampUnix(row[col["timestampEnd"]])
		if err != nil {
			return Result{}, err
		}
		distance, err := strconv.Atoi(row[col["measuredDistance"]])
		if err != nil {
			return Result{}, fmt.Errorf("publisher: malformed measuredDistance for route %s: %w", routeID, err)
		}

		records = append(records, Record{
			Key:    routeID,
			Method: "recordRoute",
			Args: []interface{}{
				common.HexToAddress(address),
				routeIDBig,
				big.NewInt(startUnix),
				big.NewInt(endUnix),
				big.NewInt(int64(distance)),
			},
		})
	}

	sink, err := NewCheckpointSink(ctx, store, env, date)
	if err != nil {
		return Result{}, fmt.Errorf("publisher: failed to load route checkpoint: %w", err)
	}
	return p.Batch(ctx, records, sink, from, privateKey, timeoutSeconds)
}

func columnIndex(header, expected []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[name] = i
	}
	// Fall back to the expected position-order schema if the header was
	// renamed downstream of transform's ColumnRenames.
	for _, name := range expected {
		if _, ok := idx[name]; !ok {
			idx = make(map[string]int, len(expected))
			for i, name := range expected {
				idx[name] = i
			}
			break
		}
	}
	return idx
}

func parseTimestampUnix(s string) (int64, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return 0, fmt.Errorf("publisher: malformed timestamp %q: %w", s, err)
	}
	return t.Unix(), nil
}
