// Package transform implements the Transform stage (spec.md section 4.1):
// parse, filter, reconcile distance, split long routes, resolve chain
// addresses, issue stable route IDs, and emit the canonical partition.
package transform

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"log"
	"math/rand"
	"strconv"
	"time"

	"github.com/certen/independant-validator/pkg/errs"
	"github.com/certen/independant-validator/pkg/notify"
	"github.com/certen/independant-validator/pkg/objectstore"
)

// Stage wires the transform algorithms to the object store and counter
// service for one {date, source} partition.
type Stage struct {
	store   *objectstore.Client
	counter Counter
	notify  *notify.Client
	logger  *log.Logger
}

// NewStage builds a Transform stage. notifier may be nil to skip
// operational notifications (e.g. in tests).
func NewStage(store *objectstore.Client, counter Counter, notifier *notify.Client) *Stage {
	return &Stage{
		store:   store,
		counter: counter,
		notify:  notifier,
		logger:  log.New(log.Writer(), "[Transform] ", log.LstdFlags),
	}
}

// Run executes the full transform for one {date, source} partition and
// returns the number of canonical rows emitted.
func (s *Stage) Run(ctx context.Context, env, date, source string) (int, error) {
	header, rawRows, err := s.store.GetCSV(ctx, objectstore.RawRouteKey(date, source))
	if err != nil {
		return 0, fmt.Errorf("transform: failed to read raw partition: %w", err)
	}
	if len(rawRows) == 0 {
		s.logger.Printf("no raw rows for date=%s source=%s; nothing to do", date, source)
		return 0, nil
	}

	var params Params
	if err := s.store.GetYAML(ctx, objectstore.TransformParamsKey(source), &params); err != nil {
		return 0, fmt.Errorf("transform: failed to read transform params for %s: %w", source, err)
	}

	var addrMap AddressMap
	if err := s.store.GetYAML(ctx, objectstore.GPSAddressMapKey(), &addrMap); err != nil {
		return 0, fmt.Errorf("transform: failed to read GPS address map: %w", err)
	}

	var known KnownUnassignedDevices
	if err := s.store.GetYAML(ctx, objectstore.KnownUnassignedDevicesKey(), &known); err != nil {
		return 0, fmt.Errorf("transform: failed to read known-unassigned device list: %w", err)
	}

	history, err := s.loadHistory(ctx, env, source)
	if err != nil {
		return 0, err
	}

	parsed := ParseRows(header, rawRows, params, s.logger)
	filtered := ApplyRangeFilters(parsed, params, s.logger)
	ceiled := ApplyDistanceCeiling(filtered, params)

	rng := rand.New(rand.NewSource(partitionSeed(date, source)))
	var split []RawRoute
	for _, r := range ceiled {
		split = append(split, Split(r, params.Split, rng)...)
	}

	resolved, addresses, err := ResolveAddresses(split, addrMap, known, params.FallbackAddress)
	if err != nil {
		s.notifyIntegrityError(ctx, env, "transform", err)
		return 0, err
	}

	issuer := NewIssuer(s.counter, "RouteID", history)
	canonical := make([]CanonicalRoute, 0, len(resolved))
	for _, r := range resolved {
		id, err := issuer.Issue(ctx, r, params.IDPrefix)
		if err != nil {
			return 0, err
		}
		canonical = append(canonical, CanonicalRoute{
			GPSID:            r.GPSID,
			TimestampStart:   r.TimestampStart,
			TimestampEnd:     r.TimestampEnd,
			MeasuredDistance: int(r.MeasuredDistance),
			CeloAddress:      addresses[r.GPSID],
			RouteID:          id,
		})
	}

	if err := s.emit(ctx, date, source, canonical, params); err != nil {
		return 0, err
	}
	if err := s.saveHistory(ctx, env, source, issuer.History()); err != nil {
		return 0, err
	}

	s.logger.Printf("transformed date=%s source=%s: %d raw -> %d canonical", date, source, len(rawRows), len(canonical))
	return len(canonical), nil
}

func partitionSeed(date, source string) int64 {
	h := fnv.New64a()
	h.Write([]byte(date + "/" + source))
	return int64(h.Sum64())
}

// canonicalColumns is the default output column order before renaming.
var canonicalColumns = []string{"gpsID", "timestampStart", "timestampEnd", "measuredDistance", "celoAddress", "routeID"}

func (s *Stage) emit(ctx context.Context, date, source string, routes []CanonicalRoute, params Params) error {
	outputFormat := params.OutputTimestampFormat
	if outputFormat == "" {
		outputFormat = time.RFC3339
	}

	header := renameColumns(canonicalColumns, params.ColumnRenames)
	rows := make([][]string, 0, len(routes))
	for _, r := range routes {
		rows = append(rows, []string{
			r.GPSID,
			r.TimestampStart.Format(outputFormat),
			r.TimestampEnd.Format(outputFormat),
			strconv.Itoa(r.MeasuredDistance),
			r.CeloAddress,
			strconv.FormatUint(r.RouteID, 10),
		})
	}

	key := objectstore.CanonicalRouteKey(date, source)
	if err := s.store.PutCSV(ctx, key, header, rows); err != nil {
		return fmt.Errorf("transform: failed to emit canonical partition %s: %w", key, err)
	}
	return nil
}

func renameColumns(columns []string, renames map[string]string) []string {
	out := make([]string, len(columns))
	for i, c := range columns {
		if renamed, ok := renames[c]; ok {
			out[i] = renamed
		} else {
			out[i] = c
		}
	}
	return out
}

func (s *Stage) loadHistory(ctx context.Context, env, source string) (map[string]uint64, error) {
	header, rows, err := s.store.GetCSV(ctx, objectstore.RouteIDHistoryKey(env, source))
	if err != nil {
		return nil, fmt.Errorf("transform: failed to read route ID history for %s: %w", source, err)
	}
	_ = header
	history := make(map[string]uint64, len(rows))
	for _, row := range rows {
		if len(row) < 2 {
			continue
		}
		id, err := strconv.ParseUint(row[1], 10, 64)
		if err != nil {
			continue
		}
		history[row[0]] = id
	}
	return history, nil
}

func (s *Stage) saveHistory(ctx context.Context, env, source string, history map[string]uint64) error {
	header := []string{"external_route_key", "route_id"}
	rows := make([][]string, 0, len(history))
	for key, id := range history {
		rows = append(rows, []string{key, strconv.FormatUint(id, 10)})
	}
	key := objectstore.RouteIDHistoryKey(env, source)
	if err := s.store.PutCSV(ctx, key, header, rows); err != nil {
		return fmt.Errorf("transform: failed to persist route ID history for %s: %w", source, err)
	}
	return nil
}

func (s *Stage) notifyIntegrityError(ctx context.Context, env, stage string, err error) {
	if s.notify == nil {
		return
	}
	reason := "unresolved devices"
	items := []string{err.Error()}
	var integrityErr *errs.IntegrityError
	if errors.As(err, &integrityErr) {
		reason = integrityErr.Reason
		items = integrityErr.Items
	}
	_ = s.notify.PublishIntegrityAlert(ctx, &notify.IntegrityAlert{
		Environment: env,
		Stage:       stage,
		Reason:      reason,
		Items:       items,
		OccurredAt:  time.Now(),
	})
}
