package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	shared "github.com/pacemate/server/src/go/pkg"
	"github.com/pacemate/server/src/go/pkg/bootstrap"
	"github.com/pacemate/server/src/go/pkg/domain/sessionorder"
	infrapubsub "github.com/pacemate/server/src/go/pkg/infrastructure/pubsub"
	"github.com/pacemate/server/src/go/pkg/integrations/strava"
	"github.com/pacemate/server/src/go/pkg/sequencing"
	"github.com/pacemate/server/src/go/pkg/streams"
	"github.com/pacemate/server/src/go/pkg/types"
)

// Server wires the session API handlers to their dependencies.
type Server struct {
	svc      *bootstrap.Service
	recalc   *sequencing.Recalculator
	enricher *streams.BulkEnricher
	logger   *slog.Logger
}

func NewServer(svc *bootstrap.Service, logger *slog.Logger) *Server {
	bucket := svc.Config.GCSArtifactBucket
	if bucket == "" {
		bucket = "pacemate-artifacts"
	}

	fetcher := strava.NewFetcher(svc.DB, logger)
	return &Server{
		svc:      svc,
		recalc:   sequencing.NewRecalculator(svc.DB, logger),
		enricher: streams.NewBulkEnricher(svc.DB, fetcher, svc.Store, bucket, logger),
		logger:   logger,
	}
}

func (s *Server) Close() {
	s.recalc.Close()
}

func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)

	r.Route("/v1/users/{userID}/sessions", func(r chi.Router) {
		r.Post("/", s.handleCreateSession)
		r.Delete("/", s.handleDeleteSessions)
		r.Post("/enrich-streams", s.handleEnrichStreams)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type createSessionRequest struct {
	Title      string                 `json:"title"`
	Date       *time.Time             `json:"date,omitempty"`
	Source     string                 `json:"source,omitempty"`
	ExternalID string                 `json:"external_id,omitempty"`
	Raw        map[string]interface{} `json:"raw,omitempty"`
}

// handleCreateSession creates a session and assigns its sequence and week
// rank synchronously so the response already carries the final position.
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid body: %w", err))
		return
	}

	record := &types.SessionRecord{
		Title:      req.Title,
		Date:       req.Date,
		Source:     req.Source,
		ExternalID: req.ExternalID,
		Raw:        req.Raw,
		CreatedAt:  time.Now().UTC(),
	}

	if req.Date != nil {
		existing, err := s.svc.DB.ListDatedSessions(r.Context(), userID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, fmt.Errorf("failed to list sessions: %w", err))
			return
		}
		pos := sessionorder.ComputePosition(existing, *req.Date)
		record.Sequence = pos.Sequence
		record.Week = pos.Week
	}

	if err := s.svc.DB.CreateSession(r.Context(), userID, record); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Errorf("failed to create session: %w", err))
		return
	}

	// Inserting mid-history shifts later sessions; fix them up in the
	// background.
	if req.Date != nil {
		s.recalc.Schedule(userID)
	}

	s.logger.Info("Session created", "user_id", userID, "session_id", record.ID,
		"sequence", record.Sequence, "week", record.Week)
	writeJSON(w, http.StatusCreated, record)
}

type deleteSessionsRequest struct {
	SessionIDs []string `json:"session_ids"`
}

// handleDeleteSessions removes the given sessions and schedules a position
// recalculation. Deletion is acknowledged before positions settle, hence 202.
func (s *Server) handleDeleteSessions(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	var req deleteSessionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid body: %w", err))
		return
	}
	if len(req.SessionIDs) == 0 {
		writeError(w, http.StatusBadRequest, fmt.Errorf("session_ids is required"))
		return
	}

	if err := s.svc.DB.DeleteSessions(r.Context(), userID, req.SessionIDs); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Errorf("failed to delete sessions: %w", err))
		return
	}

	s.recalc.Schedule(userID)

	s.logger.Info("Sessions deleted", "user_id", userID, "count", len(req.SessionIDs))
	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"deleted": len(req.SessionIDs),
	})
}

type enrichStreamsRequest struct {
	SessionIDs []string `json:"session_ids"`
	Async      bool     `json:"async,omitempty"`
}

// handleEnrichStreams runs bulk stream enrichment. Synchronous by default;
// with async=true the request is handed to the stream-enricher function via
// Pub/Sub instead.
func (s *Server) handleEnrichStreams(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	var req enrichStreamsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid body: %w", err))
		return
	}
	if len(req.SessionIDs) == 0 {
		writeError(w, http.StatusBadRequest, fmt.Errorf("session_ids is required"))
		return
	}

	if req.Async {
		evt, err := infrapubsub.NewCloudEvent(
			infrapubsub.EventSourceAPI,
			infrapubsub.EventTypeEnrichStreamsRequested,
			types.EnrichStreamsRequest{UserID: userID, SessionIDs: req.SessionIDs},
		)
		if err != nil {
			writeError(w, http.StatusInternalServerError, fmt.Errorf("failed to build event: %w", err))
			return
		}
		msgID, err := s.svc.Pub.PublishCloudEvent(r.Context(), shared.TopicStreamEnrichment, evt)
		if err != nil {
			writeError(w, http.StatusInternalServerError, fmt.Errorf("failed to publish: %w", err))
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]string{"message_id": msgID})
		return
	}

	report, err := s.enricher.Enrich(r.Context(), userID, req.SessionIDs)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Errorf("enrichment failed: %w", err))
		return
	}

	writeJSON(w, http.StatusOK, report)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
