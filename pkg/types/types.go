package types

import "time"

// PubSubMessage is the payload of a Pub/Sub event via Cloud Event.
type PubSubMessage struct {
	Message struct {
		Data       []byte            `json:"data"`
		Attributes map[string]string `json:"attributes,omitempty"`
	} `json:"message"`
}

// SessionRecord is a training session as stored in users/{uid}/sessions/{id}.
type SessionRecord struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`
	Title  string `json:"title,omitempty"`

	// Date is the calendar day of the session, truncated to midnight UTC.
	// Nil for sessions that have not been scheduled yet; undated sessions
	// are excluded from sequence/week ranking.
	Date *time.Time `json:"date,omitempty"`

	// Sequence and Week are user-scoped dense ranks assigned by the
	// position calculator. See pkg/domain/sessionorder.
	Sequence int `json:"sequence"`
	Week     int `json:"week"`

	// Provider linkage.
	Source       string `json:"source,omitempty"`
	ExternalID   string `json:"external_id,omitempty"`
	SourceStatus string `json:"source_status,omitempty"`

	// Raw is the provider's activity payload as received (untouched).
	Raw map[string]interface{} `json:"raw,omitempty"`

	// HasStreams is set once stream state is resolved: either streams were
	// persisted (StreamCount > 0) or the session was confirmed streamless
	// (StreamCount == 0, the known-streamless marker).
	HasStreams  bool `json:"has_streams"`
	StreamCount int  `json:"stream_count"`

	CreatedAt time.Time `json:"created_at"`
}

// DatedSession is the lightweight projection the position calculator and
// the recalculation worker operate on.
type DatedSession struct {
	ID        string
	Date      time.Time
	CreatedAt time.Time
	Sequence  int
	Week      int
}

// SessionProjection is the lightweight projection the stream enrichment
// pipeline classifies. Loaded in one batch per Enrich call.
type SessionProjection struct {
	ID           string
	Source       string
	ExternalID   string
	SourceStatus string
	HasStreams   bool
	StreamCount  int
	Raw          map[string]interface{}
}

// --- Streams ---

// Stream is a single time-series from the provider (heartrate, latlng, ...).
type Stream struct {
	SeriesType   string        `json:"series_type,omitempty"`
	OriginalSize int           `json:"original_size,omitempty"`
	Resolution   string        `json:"resolution,omitempty"`
	Data         []interface{} `json:"data"`
}

// StreamSet maps stream type to its series, keyed the way Strava's
// key_by_type=true responses are.
type StreamSet map[string]*Stream

type StreamFetchStatus string

const (
	StreamFetchOK        StreamFetchStatus = "ok"
	StreamFetchNoStreams StreamFetchStatus = "no_streams"
	StreamFetchError     StreamFetchStatus = "error"
)

// StreamFetchResult is the three-way outcome of a provider stream fetch.
type StreamFetchResult struct {
	Status  StreamFetchStatus
	Streams StreamSet
}

// --- Users ---

type UserRecord struct {
	UserID       string        `json:"user_id"`
	CreatedAt    time.Time     `json:"created_at"`
	FCMTokens    []string      `json:"fcm_tokens,omitempty"`
	Integrations *Integrations `json:"integrations,omitempty"`
}

type Integrations struct {
	Strava *StravaIntegration `json:"strava,omitempty"`
}

type StravaIntegration struct {
	Enabled      bool       `json:"enabled"`
	AccessToken  string     `json:"access_token,omitempty"`
	RefreshToken string     `json:"refresh_token,omitempty"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
	AthleteID    string     `json:"athlete_id,omitempty"`
}

// --- Executions ---

type ExecutionStatus string

const (
	StatusStarted ExecutionStatus = "STATUS_STARTED"
	StatusSuccess ExecutionStatus = "STATUS_SUCCESS"
	StatusFailure ExecutionStatus = "STATUS_FAILURE"
	StatusSkipped ExecutionStatus = "STATUS_SKIPPED"
)

// ExecutionRecord tracks one function/service invocation in Firestore.
type ExecutionRecord struct {
	ExecutionID string                 `json:"execution_id"`
	Service     string                 `json:"service"`
	UserID      string                 `json:"user_id,omitempty"`
	TestRunID   string                 `json:"test_run_id,omitempty"`
	TriggerType string                 `json:"trigger_type,omitempty"`
	Status      ExecutionStatus        `json:"status"`
	Error       string                 `json:"error,omitempty"`
	Outputs     map[string]interface{} `json:"outputs,omitempty"`
	StartedAt   time.Time              `json:"started_at"`
	FinishedAt  *time.Time             `json:"finished_at,omitempty"`
}

// --- Event payloads ---

// EnrichStreamsRequest is the Pub/Sub payload that triggers the
// stream-enricher function.
type EnrichStreamsRequest struct {
	UserID     string   `json:"user_id"`
	SessionIDs []string `json:"session_ids"`
}

// StreamsEnrichedEvent is published after a bulk enrichment completes.
type StreamsEnrichedEvent struct {
	UserID            string   `json:"user_id"`
	Requested         int      `json:"requested"`
	Enriched          int      `json:"enriched"`
	AlreadyHasStreams int      `json:"already_has_streams"`
	MissingStrava     int      `json:"missing_strava"`
	NotFound          int      `json:"not_found"`
	Failed            int      `json:"failed"`
	FailedIDs         []string `json:"failed_ids,omitempty"`
}
