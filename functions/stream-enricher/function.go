package streamenricher

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	"github.com/cloudevents/sdk-go/v2/event"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	shared "github.com/pacemate/server/src/go/pkg"
	"github.com/pacemate/server/src/go/pkg/bootstrap"
	"github.com/pacemate/server/src/go/pkg/framework"
	infrapubsub "github.com/pacemate/server/src/go/pkg/infrastructure/pubsub"
	"github.com/pacemate/server/src/go/pkg/integrations/strava"
	"github.com/pacemate/server/src/go/pkg/streams"
	"github.com/pacemate/server/src/go/pkg/types"
)

var (
	svc     *bootstrap.Service
	svcOnce sync.Once
	svcErr  error
)

func init() {
	functions.CloudEvent("EnrichStreams", EnrichStreams)
}

func initService(ctx context.Context) (*bootstrap.Service, error) {
	if svc != nil {
		return svc, nil
	}
	svcOnce.Do(func() {
		svc, svcErr = bootstrap.NewService(ctx)
		if svcErr != nil {
			slog.Error("Failed to initialize service", "error", svcErr)
		}
	})
	return svc, svcErr
}

// EnrichStreams is the entry point
func EnrichStreams(ctx context.Context, e event.Event) error {
	svc, err := initService(ctx)
	if err != nil {
		return fmt.Errorf("service init failed: %v", err)
	}
	return framework.WrapCloudEvent("stream-enricher", svc, enrichHandler)(ctx, e)
}

// enrichHandler contains the business logic
func enrichHandler(ctx context.Context, e event.Event, fwCtx *framework.FrameworkContext) (interface{}, error) {
	var req types.EnrichStreamsRequest
	if err := e.DataAs(&req); err != nil {
		return nil, fmt.Errorf("event.DataAs: %v", err)
	}

	if req.UserID == "" {
		return nil, fmt.Errorf("missing user_id in payload")
	}
	if len(req.SessionIDs) == 0 {
		fwCtx.Logger.Info("No session IDs requested, nothing to do")
		return map[string]interface{}{"status": "skipped"}, nil
	}

	fwCtx.Logger.Info("Starting bulk stream enrichment", "session_count", len(req.SessionIDs))

	bucketName := fwCtx.Service.Config.GCSArtifactBucket
	if bucketName == "" {
		bucketName = "pacemate-artifacts"
	}

	fetcher := strava.NewFetcher(fwCtx.Service.DB, fwCtx.Logger)
	enricher := streams.NewBulkEnricher(fwCtx.Service.DB, fetcher, fwCtx.Service.Store, bucketName, fwCtx.Logger)

	report, err := enricher.Enrich(ctx, req.UserID, req.SessionIDs)
	if err != nil {
		return nil, fmt.Errorf("bulk enrichment: %w", err)
	}

	publishEnrichedEvent(ctx, fwCtx, req.UserID, report)
	notifyUser(ctx, fwCtx, req.UserID, report)

	// Report becomes the execution outputs
	outputs := map[string]interface{}{}
	if data, err := json.Marshal(report); err == nil {
		var m map[string]interface{}
		if err := json.Unmarshal(data, &m); err == nil {
			outputs = m
		}
	}
	return outputs, nil
}

func publishEnrichedEvent(ctx context.Context, fwCtx *framework.FrameworkContext, userID string, report *streams.Report) {
	evt, err := infrapubsub.NewCloudEvent(
		infrapubsub.EventSourceStreamEnricher,
		infrapubsub.EventTypeStreamsEnriched,
		types.StreamsEnrichedEvent{
			UserID:            userID,
			Requested:         report.Summary.Requested,
			Enriched:          report.Summary.Enriched,
			AlreadyHasStreams: report.Summary.AlreadyHasStreams,
			MissingStrava:     report.Summary.MissingStrava,
			NotFound:          report.Summary.NotFound,
			Failed:            report.Summary.Failed,
			FailedIDs:         report.IDs.Failed,
		},
	)
	if err != nil {
		fwCtx.Logger.Error("Failed to build enriched event", "error", err)
		return
	}

	msgID, err := fwCtx.Service.Pub.PublishCloudEvent(ctx, shared.TopicStreamsEnriched, evt)
	if err != nil {
		fwCtx.Logger.Error("Failed to publish enriched event", "error", err)
		return
	}
	fwCtx.Logger.Info("Published enriched event", "message_id", msgID)
}

// notifyUser pushes a digest when at least one session actually gained
// streams. Silent for all-skipped runs.
func notifyUser(ctx context.Context, fwCtx *framework.FrameworkContext, userID string, report *streams.Report) {
	if report.Summary.Enriched == 0 {
		return
	}

	user, err := fwCtx.Service.DB.GetUser(ctx, userID)
	if err != nil {
		fwCtx.Logger.Warn("Failed to load user for notification", "error", err)
		return
	}
	if user == nil || len(user.FCMTokens) == 0 {
		return
	}

	p := message.NewPrinter(language.English)
	body := p.Sprintf("%d of %d sessions now have detailed stream data.",
		report.Summary.Enriched, report.Summary.Requested)
	if report.Summary.Failed > 0 {
		body = p.Sprintf("%d of %d sessions now have detailed stream data (%d failed).",
			report.Summary.Enriched, report.Summary.Requested, report.Summary.Failed)
	}

	err = fwCtx.Service.Notify.SendPushNotification(ctx, userID,
		"Session streams updated", body, user.FCMTokens,
		map[string]string{"type": "streams_enriched"})
	if err != nil {
		fwCtx.Logger.Warn("Failed to send push notification", "error", err)
	}
}
