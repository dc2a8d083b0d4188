package pubsub

import (
	cloudevents "github.com/cloudevents/sdk-go/v2"
)

// CloudEvent type and source URNs used across the pipeline.
const (
	EventTypeEnrichStreamsRequested = "com.pacemate.streams.enrich.requested"
	EventTypeStreamsEnriched        = "com.pacemate.streams.enriched"
	EventTypeSessionsRecalced       = "com.pacemate.sessions.recalculated"

	EventSourceAPI            = "urn:pacemate:service:api"
	EventSourceStreamEnricher = "urn:pacemate:function:stream-enricher"
)

// NewCloudEvent creates a standardized CloudEvent v1.0
func NewCloudEvent(source, eventType string, data interface{}) (cloudevents.Event, error) {
	e := cloudevents.NewEvent()
	e.SetSpecVersion("1.0")
	e.SetType(eventType)
	e.SetSource(source)

	if err := e.SetData(cloudevents.ApplicationJSON, data); err != nil {
		return e, err
	}

	return e, nil
}
