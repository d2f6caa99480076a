package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/Tally/internal/evaluation"
)

type RubricsHandler struct {
	svc *evaluation.Service
}

func NewRubricsHandler(svc *evaluation.Service) *RubricsHandler {
	return &RubricsHandler{svc: svc}
}

// Validate resolves criteria and reports their weight total without storing.
// POST /api/v1/rubrics/validate
func (h *RubricsHandler) Validate(w http.ResponseWriter, r *http.Request) {
	var req evaluation.RubricInput
	if _, ok := decodeValidated(w, r, rubricSchema(false), &req); !ok {
		return
	}
	reg, report, err := h.svc.ValidateCriteria(req.Criteria)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"criteria": reg.All(),
		"weights":  report,
	})
}

// POST /api/v1/rubrics
func (h *RubricsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req evaluation.RubricInput
	if _, ok := decodeValidated(w, r, rubricSchema(true), &req); !ok {
		return
	}
	rubric, report, err := h.svc.CreateRubric(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"rubric":  rubric,
		"weights": report,
	})
}

func (h *RubricsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid rubric id"})
		return
	}
	rubric, err := h.svc.GetRubric(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rubric)
}

// Weights reports how far a stored rubric's weights are from the target.
// GET /api/v1/rubrics/{id}/weights
func (h *RubricsHandler) Weights(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid rubric id"})
		return
	}
	report, err := h.svc.CheckRubric(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
