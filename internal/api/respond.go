package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/MikeSquared-Agency/Tally/internal/evaluation"
	"github.com/MikeSquared-Agency/Tally/internal/scoring"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps service and engine errors onto HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	var verr *scoring.ValidationError
	var serr *schemaError
	switch {
	case errors.As(err, &serr):
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"error": "request validation failed", "details": serr.details})
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": verr.Error(), "field": verr.Field})
	case errors.Is(err, evaluation.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, evaluation.ErrInvalid), errors.Is(err, evaluation.ErrUnknownCriterion):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, evaluation.ErrInvalid
	}
	return body, nil
}

// decodeValidated reads the body, checks it against schema and decodes it
// into v. It writes the error response itself and reports whether the
// handler may continue.
func decodeValidated(w http.ResponseWriter, r *http.Request, schema map[string]interface{}, v interface{}) ([]byte, bool) {
	body, err := readBody(w, r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return nil, false
	}
	if err := validateBody(schema, body); err != nil {
		var serr *schemaError
		if errors.As(err, &serr) {
			writeError(w, err)
		} else {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		}
		return nil, false
	}
	if err := json.Unmarshal(body, v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return nil, false
	}
	return body, true
}
