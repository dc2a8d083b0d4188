package firestore

import (
	"time"

	"github.com/pacemate/server/src/go/pkg/types"
)

// Helper to safely get string from map
func getString(m map[string]interface{}, key string) string {
	if v, ok := m[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// Helper to safely get bool from map
func getBool(m map[string]interface{}, key string) bool {
	if v, ok := m[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return false
}

// Helper to safely get int from map.
// Firestore stores numbers as int64, float64 or int depending on the writer.
func getInt(m map[string]interface{}, key string) int {
	if v, ok := m[key]; ok {
		switch n := v.(type) {
		case int64:
			return int(n)
		case int:
			return n
		case float64:
			return int(n)
		}
	}
	return 0
}

// Helper to safely get time from map (handles time.Time from Firestore)
func getTime(m map[string]interface{}, key string) time.Time {
	if v, ok := m[key]; ok {
		if t, ok := v.(time.Time); ok {
			return t
		}
	}
	return time.Time{}
}

func getTimePtr(m map[string]interface{}, key string) *time.Time {
	if v, ok := m[key]; ok {
		if t, ok := v.(time.Time); ok {
			return &t
		}
	}
	return nil
}

func getStringSlice(m map[string]interface{}, key string) []string {
	if vs, ok := m[key].([]interface{}); ok {
		out := make([]string, 0, len(vs))
		for _, v := range vs {
			if s, ok := v.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	if vs, ok := m[key].([]string); ok {
		return vs
	}
	return nil
}

func getMap(m map[string]interface{}, key string) map[string]interface{} {
	if v, ok := m[key].(map[string]interface{}); ok {
		return v
	}
	return nil
}

// --- UserRecord Converters ---

func UserToFirestore(u *types.UserRecord) map[string]interface{} {
	m := map[string]interface{}{
		"user_id":    u.UserID,
		"created_at": u.CreatedAt,
	}

	if u.Integrations != nil {
		integrations := make(map[string]interface{})
		if u.Integrations.Strava != nil {
			s := map[string]interface{}{
				"enabled":       u.Integrations.Strava.Enabled,
				"access_token":  u.Integrations.Strava.AccessToken,
				"refresh_token": u.Integrations.Strava.RefreshToken,
				"athlete_id":    u.Integrations.Strava.AthleteID,
			}
			if u.Integrations.Strava.ExpiresAt != nil {
				s["expires_at"] = *u.Integrations.Strava.ExpiresAt
			}
			integrations["strava"] = s
		}
		m["integrations"] = integrations
	}

	if len(u.FCMTokens) > 0 {
		m["fcm_tokens"] = u.FCMTokens
	}

	return m
}

func FirestoreToUser(m map[string]interface{}) *types.UserRecord {
	u := &types.UserRecord{
		UserID:    getString(m, "user_id"),
		CreatedAt: getTime(m, "created_at"),
		FCMTokens: getStringSlice(m, "fcm_tokens"),
	}
	if u.UserID == "" {
		u.UserID = getString(m, "id")
	}

	if iMap := getMap(m, "integrations"); iMap != nil {
		u.Integrations = &types.Integrations{}
		if sMap := getMap(iMap, "strava"); sMap != nil {
			u.Integrations.Strava = &types.StravaIntegration{
				Enabled:      getBool(sMap, "enabled"),
				AccessToken:  getString(sMap, "access_token"),
				RefreshToken: getString(sMap, "refresh_token"),
				ExpiresAt:    getTimePtr(sMap, "expires_at"),
				AthleteID:    getString(sMap, "athlete_id"),
			}
		}
	}

	return u
}

// --- SessionRecord Converters ---

func SessionToFirestore(s *types.SessionRecord) map[string]interface{} {
	m := map[string]interface{}{
		"user_id":      s.UserID,
		"title":        s.Title,
		"sequence":     s.Sequence,
		"week":         s.Week,
		"has_streams":  s.HasStreams,
		"stream_count": s.StreamCount,
		"created_at":   s.CreatedAt,
	}

	if s.Date != nil {
		m["date"] = *s.Date
	}
	if s.Source != "" {
		m["source"] = s.Source
	}
	if s.ExternalID != "" {
		m["external_id"] = s.ExternalID
	}
	if s.SourceStatus != "" {
		m["source_status"] = s.SourceStatus
	}
	if s.Raw != nil {
		m["raw"] = s.Raw
	}

	return m
}

func FirestoreToSession(m map[string]interface{}) *types.SessionRecord {
	return &types.SessionRecord{
		ID:           getString(m, "id"),
		UserID:       getString(m, "user_id"),
		Title:        getString(m, "title"),
		Date:         getTimePtr(m, "date"),
		Sequence:     getInt(m, "sequence"),
		Week:         getInt(m, "week"),
		Source:       getString(m, "source"),
		ExternalID:   getString(m, "external_id"),
		SourceStatus: getString(m, "source_status"),
		Raw:          getMap(m, "raw"),
		HasStreams:   getBool(m, "has_streams"),
		StreamCount:  getInt(m, "stream_count"),
		CreatedAt:    getTime(m, "created_at"),
	}
}

// StreamsToFirestore flattens a StreamSet for persistence under the session
// document. Data slices are stored as-is; Firestore handles the mixed
// number/array values Strava returns.
func StreamsToFirestore(set types.StreamSet) map[string]interface{} {
	streams := make(map[string]interface{}, len(set))
	for key, s := range set {
		if s == nil {
			continue
		}
		streams[key] = map[string]interface{}{
			"series_type":   s.SeriesType,
			"original_size": s.OriginalSize,
			"resolution":    s.Resolution,
			"data":          s.Data,
		}
	}
	return streams
}

// --- ExecutionRecord Converters ---

func ExecutionToFirestore(e *types.ExecutionRecord) map[string]interface{} {
	m := map[string]interface{}{
		"execution_id": e.ExecutionID,
		"service":      e.Service,
		"status":       string(e.Status),
		"started_at":   e.StartedAt,
	}

	if e.UserID != "" {
		m["user_id"] = e.UserID
	}
	if e.TestRunID != "" {
		m["test_run_id"] = e.TestRunID
	}
	if e.TriggerType != "" {
		m["trigger_type"] = e.TriggerType
	}
	if e.Error != "" {
		m["error"] = e.Error
	}
	if e.Outputs != nil {
		m["outputs"] = e.Outputs
	}
	if e.FinishedAt != nil {
		m["finished_at"] = *e.FinishedAt
	}

	return m
}

func FirestoreToExecution(m map[string]interface{}) *types.ExecutionRecord {
	return &types.ExecutionRecord{
		ExecutionID: getString(m, "execution_id"),
		Service:     getString(m, "service"),
		UserID:      getString(m, "user_id"),
		TestRunID:   getString(m, "test_run_id"),
		TriggerType: getString(m, "trigger_type"),
		Status:      types.ExecutionStatus(getString(m, "status")),
		Error:       getString(m, "error"),
		Outputs:     getMap(m, "outputs"),
		StartedAt:   getTime(m, "started_at"),
		FinishedAt:  getTimePtr(m, "finished_at"),
	}
}
