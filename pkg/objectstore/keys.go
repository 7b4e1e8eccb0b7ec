package objectstore

import "fmt"

// Key layout per SPEC_FULL.md section 6 / spec.md section 6. Centralizing
// this here keeps every stage computing the same partition path.

func CredentialsKey(name string) string {
	return "credentials/" + name
}

func RawRouteKey(date, source string) string {
	return fmt.Sprintf("tribu_data/date=%s/source=%s.csv", date, source)
}

func CanonicalRouteKey(date, source string) string {
	return fmt.Sprintf("rappi_driver_routes/date=%s/source=tribu_%s.csv", date, source)
}

func PublishedRoutesKey(env, date string) string {
	return fmt.Sprintf("%s/celo_published_routes/date=%s/already_published_routes.json", env, date)
}

func DailyScoringKey(date string) string {
	return fmt.Sprintf("daily_scoring/date_%s_scores.csv", date)
}

func GPSAddressMapKey() string {
	return "roda_metadata/gps_to_celo_address_map.yaml"
}

func TransformParamsKey(source string) string {
	return fmt.Sprintf("tribu_metadata/transformations_%s.yaml", source)
}

func KnownUnassignedDevicesKey() string {
	return "tribu_metadata/tribu_known_unassigned_divices.yaml"
}

// RouteIDHistoryKey is a supplemental idempotency aid (SPEC_FULL "Route-ID
// history file reconciliation"): maps external route key to issued route ID
// so a re-run recognizes a route it already minted an ID for.
func RouteIDHistoryKey(env, source string) string {
	return fmt.Sprintf("%s/poderosita_ids/%s_id_history.csv", env, source)
}
