package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/starford/docsadmin/internal/apperr"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", slog.String("error", err.Error()))
	}
}

type errResponse struct {
	Error string `json:"error" validate:"required"`
}

func errorBody(msg string) errResponse {
	return errResponse{Error: msg}
}

// notEmptyResponse is returned when a folder delete needs confirmation.
type notEmptyResponse struct {
	Error        string `json:"error"`
	IsEmpty      bool   `json:"isEmpty"`
	FilesCount   int    `json:"filesCount"`
	FoldersCount int    `json:"foldersCount"`
	TotalItems   int    `json:"totalItems"`
}

// writeError maps the apperr taxonomy onto status codes. Anything outside
// it is logged and reported as a generic 500.
func writeError(w http.ResponseWriter, op string, err error) {
	var notEmpty *apperr.NotEmptyError
	switch {
	case errors.As(err, &notEmpty):
		writeJSON(w, http.StatusBadRequest, notEmptyResponse{
			Error:        apperr.ErrNotEmpty.Error(),
			IsEmpty:      false,
			FilesCount:   notEmpty.FilesCount,
			FoldersCount: notEmpty.FoldersCount,
			TotalItems:   notEmpty.TotalItems,
		})
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody(err.Error()))
	case errors.Is(err, apperr.ErrInvalidPath),
		errors.Is(err, apperr.ErrInvalidInput),
		errors.Is(err, apperr.ErrConflict):
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
	case errors.Is(err, apperr.ErrUnauthorized):
		writeJSON(w, http.StatusUnauthorized, errorBody("unauthorized"))
	default:
		slog.Error(op+" failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}

// decodeJSON reads a request body into v and runs its validation.
func decodeJSON(w http.ResponseWriter, r *http.Request, v validatable) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		return apperr.InvalidInput("invalid JSON body")
	}
	if err := v.Validate(); err != nil {
		return apperr.InvalidInput("%s", strings.TrimSuffix(err.Error(), "."))
	}
	return nil
}
