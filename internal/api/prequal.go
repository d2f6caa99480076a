package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MikeSquared-Agency/Tally/internal/evaluation"
	"github.com/MikeSquared-Agency/Tally/internal/scoring"
)

type PrequalHandler struct {
	svc *evaluation.Service
}

func NewPrequalHandler(svc *evaluation.Service) *PrequalHandler {
	return &PrequalHandler{svc: svc}
}

type PrequalRequest struct {
	Responses []scoring.Response `json:"responses"`
}

func (h *PrequalHandler) Questions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Questions())
}

// Score returns live progress for a partially filled questionnaire. Nothing
// is stored.
// POST /api/v1/prequalification/score
func (h *PrequalHandler) Score(w http.ResponseWriter, r *http.Request) {
	var req PrequalRequest
	if _, ok := decodeValidated(w, r, prequalSchema(h.svc.Questions()), &req); !ok {
		return
	}
	result, err := h.svc.ScorePrequalification(r.Context(), "", req.Responses, false)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Submit scores and stores a vendor's final answers.
// POST /api/v1/vendors/{id}/prequalification
func (h *PrequalHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req PrequalRequest
	if _, ok := decodeValidated(w, r, prequalSchema(h.svc.Questions()), &req); !ok {
		return
	}
	result, err := h.svc.ScorePrequalification(r.Context(), chi.URLParam(r, "id"), req.Responses, true)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (h *PrequalHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.GetPrequalification(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
