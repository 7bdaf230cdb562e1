package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/roach88/collabevents/internal/apperr"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Kind    string            `json:"kind"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// statusFor maps an engine error kind to an HTTP status.
func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindForbidden:
		return http.StatusForbidden
	case apperr.KindConflict:
		return http.StatusConflict
	case apperr.KindValidation:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("write response failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, kind, message string, details map[string]string) {
	writeJSON(w, status, errorBody{Error: errorDetail{Kind: kind, Message: message, Details: details}})
}

// writeEngineError reports an engine error. Storage failures never expose
// their cause.
func writeEngineError(w http.ResponseWriter, err error) {
	kind := apperr.KindOf(err)
	if kind == "" || kind == apperr.KindStorage {
		slog.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, string(apperr.KindStorage), "internal storage failure", nil)
		return
	}

	var e *apperr.Error
	msg := err.Error()
	if errors.As(err, &e) {
		msg = e.Message
	}
	writeError(w, statusFor(kind), string(kind), msg, apperr.DetailsOf(err))
}

func badRequest(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, string(apperr.KindValidation), message, nil)
}

// decodeJSON reads a JSON body, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		badRequest(w, "malformed request body: "+err.Error())
		return false
	}
	return true
}

// pathID parses an integer path value.
func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		badRequest(w, name+" must be a positive integer")
		return 0, false
	}
	return id, true
}
