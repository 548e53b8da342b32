// Package handlers provides HTTP handlers for the claim assistant API.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/drfirst/dental-claims/internal/api/middleware"
	"github.com/drfirst/dental-claims/internal/domain/claim"
	"github.com/drfirst/dental-claims/internal/llm"
	"github.com/drfirst/dental-claims/internal/observability/metrics"
	"github.com/drfirst/dental-claims/internal/reference"
	"github.com/drfirst/dental-claims/internal/session"
)

// ClaimDeps are the collaborators of the session endpoints.
type ClaimDeps struct {
	Sessions   *session.Store
	Patients   *reference.Patients
	Codes      *reference.Codes
	FieldNames []string
	Mapper     *claim.Mapper
	Suggester  llm.Suggester
	Store      claim.Store
	// Publisher is optional. When nil no submission events are emitted.
	Publisher claim.Publisher
	Topic     string
	// PublishTimeout bounds each event publish. Defaults to DefaultPublishTimeout.
	PublishTimeout time.Duration
	Metrics        *metrics.Metrics
}

// DefaultPublishTimeout bounds the best-effort event publish after a submit.
const DefaultPublishTimeout = 2 * time.Second

// ClaimHandler drives claim sessions from patient selection to submission.
type ClaimHandler struct {
	deps   ClaimDeps
	logger *zap.Logger
}

// NewClaimHandler creates a new handler
func NewClaimHandler(deps ClaimDeps, logger *zap.Logger) *ClaimHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if deps.Mapper == nil {
		deps.Mapper = claim.NewMapper()
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.New(prometheus.NewRegistry())
	}
	if deps.PublishTimeout <= 0 {
		deps.PublishTimeout = DefaultPublishTimeout
	}
	return &ClaimHandler{deps: deps, logger: logger}
}

// Routes returns the handler routes
func (h *ClaimHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Delete("/{id}", h.End)
	r.Put("/{id}/patient", h.SelectPatient)
	r.Post("/{id}/suggest", h.Suggest)
	r.Post("/{id}/confirm", h.Confirm)
	r.Post("/{id}/start-over", h.StartOver)
	r.Patch("/{id}/form", h.EditForm)
	r.Post("/{id}/submit", h.Submit)
	return r
}

// PatientRequest names a patient from the roster.
type PatientRequest struct {
	Patient string `json:"patient"`
}

// EditRequest carries form values keyed by field name.
type EditRequest struct {
	Fields map[string]string `json:"fields"`
}

// Create handles POST /sessions
func (h *ClaimHandler) Create(w http.ResponseWriter, r *http.Request) {
	p, ok := h.decodePatient(w, r)
	if !ok {
		return
	}

	sess := h.deps.Sessions.Create(p)
	h.deps.Metrics.ActiveSessions.Set(float64(h.deps.Sessions.Count()))

	h.logger.Info("session created",
		zap.String("session_id", sess.ID()),
		zap.String("patient", p.Name),
		zap.String("request_id", middleware.GetRequestID(r.Context())),
	)

	sess.Lock()
	view := sess.View()
	sess.Unlock()
	writeJSON(w, http.StatusCreated, view)
}

// Get handles GET /sessions/{id}
func (h *ClaimHandler) Get(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	sess.Lock()
	view := sess.View()
	sess.Unlock()
	writeJSON(w, http.StatusOK, view)
}

// End handles DELETE /sessions/{id}. The session and its unsubmitted form
// are discarded.
func (h *ClaimHandler) End(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	h.deps.Sessions.Delete(sess.ID())
	h.deps.Metrics.ActiveSessions.Set(float64(h.deps.Sessions.Count()))
	h.logger.Info("session ended",
		zap.String("session_id", sess.ID()),
		zap.String("request_id", middleware.GetRequestID(r.Context())),
	)
	w.WriteHeader(http.StatusNoContent)
}

// SelectPatient handles PUT /sessions/{id}/patient
func (h *ClaimHandler) SelectPatient(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	p, ok := h.decodePatient(w, r)
	if !ok {
		return
	}

	sess.Lock()
	defer sess.Unlock()
	if err := sess.SelectPatient(p); err != nil {
		h.domainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess.View())
}

// Suggest handles POST /sessions/{id}/suggest. The session stays locked
// while the completion call is in flight; a failed call leaves it as it was.
func (h *ClaimHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tracer := otel.Tracer("claim-handler")
	ctx, span := tracer.Start(ctx, "suggest_code")
	defer span.End()

	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	sess.Lock()
	span.SetAttributes(attribute.String("session_id", sess.ID()))
	rec, err := sess.Record()
	if err != nil {
		sess.Unlock()
		h.domainError(w, err)
		return
	}

	start := time.Now()
	sub, err := h.deps.Store.Insert(ctx, rec)
	h.deps.Metrics.SubmitDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		sess.Unlock()
		h.deps.Metrics.ClaimsFailed.Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		h.logger.Error("claim insert failed",
			zap.String("session_id", sess.ID()),
			zap.Error(err),
		)
		jsonError(w, "failed to submit claim: "+err.Error(), http.StatusBadGateway)
		return
	}
	if err := sess.MarkSubmitted(sub); err != nil {
		sess.Unlock()
		h.domainError(w, err)
		return
	}
	patientID := sess.Patient().PatientID
	view := sess.View()
	sess.Unlock()

	h.deps.Metrics.ClaimsSubmitted.Inc()
	span.SetAttributes(attribute.String("claim_id", sub.ID))
	h.logger.Info("claim submitted",
		zap.String("session_id", sess.ID()),
		zap.String("claim_id", sub.ID),
		zap.String("code", claim.ClaimCode(sub.Fields)),
		zap.String("request_id", middleware.GetRequestID(ctx)),
	)

	h.publish(ctx, sess.ID(), patientID, sub)
	writeJSON(w, http.StatusOK, view)
}

// publish emits the submission event without holding the session lock.
// Failures are logged and counted but never change the submission outcome.
func (h *ClaimHandler) publish(ctx context.Context, sessionID, patientID string, sub *claim.Submission) {
	if h.deps.Publisher == nil {
		return
	}
	evt, err := claim.NewClaimSubmittedEvent(sessionID, patientID, sub)
	if err == nil {
		evt.CorrelationID = middleware.GetRequestID(ctx)
		var payload []byte
		if payload, err = json.Marshal(evt); err == nil {
			pubCtx, cancel := context.WithTimeout(ctx, h.deps.PublishTimeout)
			err = h.deps.Publisher.Publish(pubCtx, h.deps.Topic, sub.ID, payload)
			cancel()
		}
	}
	if err != nil {
		h.deps.Metrics.EventsFailed.Inc()
		h.logger.Warn("failed to publish claim event",
			zap.String("claim_id", sub.ID),
			zap.Error(err),
		)
		return
	}
	h.deps.Metrics.EventsPublished.Inc()
}

func (h *ClaimHandler) session(w http.ResponseWriter, r *http.Request) (*claim.Session, bool) {
	id := chi.URLParam(r, "id")
	sess, ok := h.deps.Sessions.Get(id)
	if !ok {
		jsonError(w, "session not found", http.StatusNotFound)
		return nil, false
	}
	return sess, true
}

func (h *ClaimHandler) decodePatient(w http.ResponseWriter, r *http.Request) (reference.Patient, bool) {
	var req PatientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return reference.Patient{}, false
	}
	if req.Patient == "" {
		jsonError(w, "patient is required", http.StatusBadRequest)
		return reference.Patient{}, false
	}
	p, ok := h.deps.Patients.ByName(req.Patient)
	if !ok {
		jsonError(w, "patient not found", http.StatusNotFound)
		return reference.Patient{}, false
	}
	return p, true
}

func (h *ClaimHandler) domainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, claim.ErrInvalidTransition), errors.Is(err, claim.ErrNoCode):
		jsonError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, claim.ErrUnknownField):
		jsonError(w, err.Error(), http.StatusBadRequest)
	default:
		h.logger.Error("unexpected error", zap.Error(err))
		jsonError(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
