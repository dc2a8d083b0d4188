package shared

const (
	ProjectID = "pacemate-project" // Can be overridden by env var in main if needed

	TopicStreamEnrichment = "topic-stream-enrichment" // Bulk stream enrichment entry point
	TopicStreamsEnriched  = "topic-streams-enriched"
	TopicSessionsRecalced = "topic-sessions-recalculated"

	CollectionUsers      = "users"
	CollectionSessions   = "sessions"
	CollectionExecutions = "executions"

	// SourceStrava is the only provider the stream pipeline fetches from.
	SourceStrava = "strava"

	// SourceStatusNoStreams is the persisted marker on the linked external
	// record meaning the provider confirmed there is no time-series data.
	SourceStatusNoStreams = "no_streams"
)
