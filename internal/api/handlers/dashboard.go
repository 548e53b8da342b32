package handlers

import (
	"bytes"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/drfirst/dental-claims/internal/domain/claim"
	"github.com/drfirst/dental-claims/internal/export"
)

// DashboardHandler serves the submitted claims and their summary.
type DashboardHandler struct {
	store  claim.Store
	logger *zap.Logger
}

// NewDashboardHandler creates a new handler
func NewDashboardHandler(store claim.Store, logger *zap.Logger) *DashboardHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardHandler{store: store, logger: logger}
}

// Routes returns the handler routes
func (h *DashboardHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Get("/export.xlsx", h.Export)
	return r
}

// DashboardResponse is the response for GET /claims
type DashboardResponse struct {
	Summary claim.Summary      `json:"summary"`
	Claims  []claim.Submission `json:"claims"`
}

// List handles GET /claims. The summary always covers every stored row;
// ?limit=N only trims the listing.
func (h *DashboardHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("dashboard-handler").Start(r.Context(), "list_claims")
	defer span.End()

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			jsonError(w, "limit must be a non-negative integer", http.StatusBadRequest)
			return
		}
		limit = n
	}

	rows, err := h.store.List(ctx, 0)
	if err != nil {
		span.RecordError(err)
		h.logger.Error("list claims failed", zap.Error(err))
		jsonError(w, "failed to load claims: "+err.Error(), http.StatusBadGateway)
		return
	}
	span.SetAttributes(attribute.Int("rows", len(rows)))

	resp := DashboardResponse{Summary: claim.Summarize(rows), Claims: rows}
	if limit > 0 && len(rows) > limit {
		resp.Claims = rows[:limit]
	}
	if resp.Claims == nil {
		resp.Claims = []claim.Submission{}
	}
	writeJSON(w, http.StatusOK, resp)
}

// Export handles GET /claims/export.xlsx
func (h *DashboardHandler) Export(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("dashboard-handler").Start(r.Context(), "export_claims")
	defer span.End()

	rows, err := h.store.List(ctx, 0)
	if err != nil {
		span.RecordError(err)
		h.logger.Error("list claims failed", zap.Error(err))
		jsonError(w, "failed to load claims: "+err.Error(), http.StatusBadGateway)
		return
	}

	// Render fully before writing headers so a failure can still be reported as JSON.
	var buf bytes.Buffer
	if err := export.WriteClaimsXLSX(&buf, rows, claim.Summarize(rows)); err != nil {
		h.logger.Error("export failed", zap.Error(err))
		jsonError(w, "failed to export claims", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="claims.xlsx"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}
