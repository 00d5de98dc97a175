package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"modelstudio/internal/apperr"
)

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, kind, message string) {
	writeJSON(w, status, errorBody{Error: errorDetail{Kind: kind, Message: message}})
}

// fail renders a classified error. Internal failures are logged and replaced with a
// generic message.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *apperr.Error
	if !errors.As(err, &appErr) || appErr.Kind == apperr.KindInternal {
		s.logger.Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("request failed")
		writeError(w, http.StatusInternalServerError, string(apperr.KindInternal), "Internal server error")
		return
	}
	writeError(w, appErr.Kind.HTTPStatus(), string(appErr.Kind), appErr.Message)
}

func decodeBody(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.BadRequest("request body is required")
		}
		return apperr.BadRequest("invalid request body: %v", err)
	}
	return nil
}

// decodeOptionalBody is decodeBody for endpoints where every field is optional: an
// empty body, chunked or not, leaves dst untouched.
func decodeOptionalBody(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return apperr.BadRequest("invalid request body: %v", err)
	}
	return nil
}

func pathID(r *http.Request, what string) (string, error) {
	return checkID(mux.Vars(r)["id"], what)
}

func checkID(raw, what string) (string, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", apperr.BadRequest("invalid %s id %q", what, raw)
	}
	return id.String(), nil
}
