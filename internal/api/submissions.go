package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/Tally/internal/evaluation"
	"github.com/MikeSquared-Agency/Tally/internal/store"
)

type SubmissionsHandler struct {
	svc *evaluation.Service
}

func NewSubmissionsHandler(svc *evaluation.Service) *SubmissionsHandler {
	return &SubmissionsHandler{svc: svc}
}

type CreateSubmissionRequest struct {
	RubricID string `json:"rubric_id"`
	VendorID string `json:"vendor_id"`
	Title    string `json:"title,omitempty"`
	Status   string `json:"status,omitempty"`
}

type RecordScoreRequest struct {
	CriterionID string  `json:"criterion_id"`
	Value       float64 `json:"value"`
	Comment     string  `json:"comment,omitempty"`
}

type ConsensusRequest struct {
	ScoreValue float64 `json:"score_value"`
	Notes      string  `json:"notes,omitempty"`
}

func (h *SubmissionsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateSubmissionRequest
	if _, ok := decodeValidated(w, r, submissionSchema, &req); !ok {
		return
	}
	rubricID, err := uuid.Parse(req.RubricID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid rubric_id"})
		return
	}

	sub := &store.Submission{
		RubricID: rubricID,
		VendorID: req.VendorID,
		Title:    req.Title,
		Status:   store.SubmissionStatus(req.Status),
	}
	if err := h.svc.CreateSubmission(r.Context(), sub); err != nil {
		writeError(w, err)
		return
	}

	scored, err := h.svc.GetSubmission(r.Context(), sub.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, scored)
}

func (h *SubmissionsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.SubmissionFilter{VendorID: q.Get("vendor_id")}
	if s := q.Get("rubric_id"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid rubric_id"})
			return
		}
		filter.RubricID = &id
	}
	if s := q.Get("status"); s != "" {
		status := store.SubmissionStatus(s)
		filter.Status = &status
	}
	if s := q.Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			filter.Limit = n
		}
	}
	if s := q.Get("offset"); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			filter.Offset = n
		}
	}

	subs, err := h.svc.ListSubmissions(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, subs)
}

func (h *SubmissionsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := submissionID(w, r)
	if !ok {
		return
	}
	sub, err := h.svc.GetSubmission(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

// Explain returns the per-criterion consensus breakdown.
// GET /api/v1/submissions/{id}/explain
func (h *SubmissionsHandler) Explain(w http.ResponseWriter, r *http.Request) {
	id, ok := submissionID(w, r)
	if !ok {
		return
	}
	b, err := h.svc.ExplainSubmission(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// RecordScore stores the calling evaluator's score for one criterion. The
// value must fall inside the criterion's scale.
// POST /api/v1/submissions/{id}/scores
func (h *SubmissionsHandler) RecordScore(w http.ResponseWriter, r *http.Request) {
	id, ok := submissionID(w, r)
	if !ok {
		return
	}
	var req RecordScoreRequest
	body, ok := decodeValidated(w, r, scoreEnvelopeSchema, &req)
	if !ok {
		return
	}

	c, err := h.svc.Criterion(r.Context(), id, req.CriterionID)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := validateBody(scoreSchema(c), body); err != nil {
		writeError(w, err)
		return
	}

	sc := &store.RawScore{
		SubmissionID: id,
		EvaluatorID:  r.Header.Get(EvaluatorHeader),
		CriterionKey: c.ID,
		Value:        req.Value,
		Comment:      req.Comment,
	}
	rev, err := h.svc.RecordScore(r.Context(), sc)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"score":    sc,
		"revision": rev,
	})
}

// SetConsensus records the reconciled score for a criterion and returns the
// recomputed block.
// PUT /api/v1/submissions/{id}/consensus/{criterion_id}
func (h *SubmissionsHandler) SetConsensus(w http.ResponseWriter, r *http.Request) {
	id, ok := submissionID(w, r)
	if !ok {
		return
	}
	c, err := h.svc.Criterion(r.Context(), id, chi.URLParam(r, "criterion_id"))
	if err != nil {
		writeError(w, err)
		return
	}

	body, err := readBody(w, r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if err := validateBody(consensusSchema(c), body); err != nil {
		writeError(w, err)
		return
	}
	var req ConsensusRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	cons := &store.Consensus{
		SubmissionID: id,
		CriterionKey: c.ID,
		ScoreValue:   req.ScoreValue,
		ReconciledBy: r.Header.Get(EvaluatorHeader),
		Notes:        req.Notes,
	}
	rev, err := h.svc.SetConsensus(r.Context(), cons)
	if err != nil {
		writeError(w, err)
		return
	}
	scores, err := h.svc.SubmissionScores(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"consensus": cons,
		"revision":  rev,
		"scores":    scores,
	})
}

// ClearConsensus removes a reconciled score, including orphans.
// DELETE /api/v1/submissions/{id}/consensus/{criterion_id}
func (h *SubmissionsHandler) ClearConsensus(w http.ResponseWriter, r *http.Request) {
	id, ok := submissionID(w, r)
	if !ok {
		return
	}
	rev, err := h.svc.ClearConsensus(r.Context(), id, chi.URLParam(r, "criterion_id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"revision": rev})
}

func submissionID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid submission id"})
		return uuid.Nil, false
	}
	return id, true
}
