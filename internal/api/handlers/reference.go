package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/drfirst/dental-claims/internal/reference"
)

// PatientHandler serves the patient roster.
type PatientHandler struct {
	patients *reference.Patients
}

// NewPatientHandler creates a new handler
func NewPatientHandler(patients *reference.Patients) *PatientHandler {
	return &PatientHandler{patients: patients}
}

// Routes returns the handler routes
func (h *PatientHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Get("/{name}", h.Get)
	return r
}

// List handles GET /patients
func (h *PatientHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"names":    h.patients.Names(),
		"patients": h.patients.All(),
	})
}

// Get handles GET /patients/{name}
func (h *PatientHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, ok := h.patients.ByName(chi.URLParam(r, "name"))
	if !ok {
		jsonError(w, "patient not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// CodeHandler serves the CDT reference table.
type CodeHandler struct {
	codes *reference.Codes
}

// NewCodeHandler creates a new handler
func NewCodeHandler(codes *reference.Codes) *CodeHandler {
	return &CodeHandler{codes: codes}
}

// Routes returns the handler routes
func (h *CodeHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Get("/{code}", h.Get)
	return r
}

// List handles GET /codes
func (h *CodeHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.codes.All())
}

// Get handles GET /codes/{code}
func (h *CodeHandler) Get(w http.ResponseWriter, r *http.Request) {
	c, ok := h.codes.Lookup(chi.URLParam(r, "code"))
	if !ok {
		jsonError(w, "code not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, c)
}
