package transform

import (
	"log"
	"strconv"
	"time"
)

// ParseRows coerces raw CSV rows (header + records, as returned by the
// fleet API and persisted verbatim by the Extract stage) into RawRoute
// values. A row where any required column fails to coerce is dropped
// locally with a structured log line, matching spec.md section 4.1's
// "parse and normalize" step and section 7's "transforms drop bad rows
// locally" propagation rule.
func ParseRows(header []string, rows [][]string, params Params, logger *log.Logger) []RawRoute {
	idx := columnIndex(header)
	out := make([]RawRoute, 0, len(rows))

	for i, row := range rows {
		gpsIdx, ok := idx["k_dispositivo"]
		if !ok || gpsIdx >= len(row) {
			logger.Printf("dropping row %d: missing k_dispositivo column", i)
			continue
		}
		gpsID := row[gpsIdx]

		start, err := parseTimestamp(row, idx, "o_fecha_inicial", params.InputTimestampFormat)
		if err != nil {
			logger.Printf("dropping row %d (gps=%s): %v", i, gpsID, err)
			continue
		}
		end, err := parseTimestamp(row, idx, "o_fecha_final", params.InputTimestampFormat)
		if err != nil {
			logger.Printf("dropping row %d (gps=%s): %v", i, gpsID, err)
			continue
		}

		distIdx, ok := idx["f_distancia"]
		if !ok || distIdx >= len(row) {
			logger.Printf("dropping row %d (gps=%s): missing f_distancia column", i, gpsID)
			continue
		}
		distance, err := strconv.ParseFloat(row[distIdx], 64)
		if err != nil {
			logger.Printf("dropping row %d (gps=%s): unparseable distance %q", i, gpsID, row[distIdx])
			continue
		}

		var externalKey string
		if keyIdx, ok := idx["id_ruta"]; ok && keyIdx < len(row) {
			externalKey = row[keyIdx]
		}

		out = append(out, RawRoute{
			GPSID:            gpsID,
			TimestampStart:   start,
			TimestampEnd:     end,
			MeasuredDistance: distance,
			ExternalRouteKey: externalKey,
		})
	}
	return out
}

func columnIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[name] = i
	}
	return idx
}

func parseTimestamp(row []string, idx map[string]int, column, format string) (time.Time, error) {
	i, ok := idx[column]
	if !ok || i >= len(row) {
		return time.Time{}, errMissingColumn(column)
	}
	if format == "" {
		format = time.RFC3339
	}
	t, err := time.Parse(format, row[i])
	if err != nil {
		return time.Time{}, errUnparseableTimestamp(column, row[i])
	}
	return t, nil
}

type missingColumnError string

func (e missingColumnError) Error() string { return "missing column " + string(e) }
func errMissingColumn(column string) error { return missingColumnError(column) }

type unparseableTimestampError struct {
	column, value string
}

func (e unparseableTimestampError) Error() string {
	return "unparseable timestamp in " + e.column + ": " + e.value
}
func errUnparseableTimestamp(column, value string) error {
	return unparseableTimestampError{column: column, value: value}
}
