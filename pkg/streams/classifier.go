package streams

// IsLikelyStreamless inspects a session's raw provider payload and
// reports whether Strava is structurally incapable of serving streams
// for it. Manually-entered and device-less activities carry neither an
// external_id nor an upload_id, and asking the API for their streams
// only burns rate-limit budget.
//
// A nil payload returns false: absence of information is not evidence of
// ineligibility.
func IsLikelyStreamless(raw map[string]interface{}) bool {
	if raw == nil {
		return false
	}
	return !hasLinkage(raw, "external_id") && !hasLinkage(raw, "upload_id")
}

// hasLinkage reports whether key holds a usable linkage value. Payloads
// arrive both straight from the Strava API (json.Unmarshal: float64) and
// round-tripped through Firestore (int64), so all numeric shapes are
// handled; zero and empty string count as absent, matching how Strava
// nulls these fields on manual activities.
func hasLinkage(raw map[string]interface{}, key string) bool {
	v, ok := raw[key]
	if !ok || v == nil {
		return false
	}
	switch t := v.(type) {
	case string:
		return t != ""
	case float64:
		return t != 0
	case int64:
		return t != 0
	case int:
		return t != 0
	default:
		// Unknown shape: assume it is real linkage rather than skip a
		// fetch that might have worked.
		return true
	}
}
