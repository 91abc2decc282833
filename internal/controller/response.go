package controller

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"

	appErrors "github.com/unclebandit/opsboard-backend/internal/errors"
	"github.com/unclebandit/opsboard-backend/internal/logging"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Warn("failed to encode response")
	}
}

// StatusFor maps a service error to its HTTP status.
func StatusFor(err error) int {
	var (
		notFound   *appErrors.NotFoundError
		validation *appErrors.ValidationError
		noTemplate *appErrors.NoTemplateConfiguredError
		clipboard  *appErrors.ClipboardError
		aborted    *appErrors.ImportAbortedError
	)
	switch {
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &validation),
		errors.Is(err, appErrors.ErrUnknownKind),
		errors.Is(err, appErrors.ErrKindImmutable):
		return http.StatusBadRequest
	case errors.As(err, &noTemplate), errors.As(err, &aborted):
		return http.StatusUnprocessableEntity
	case errors.As(err, &clipboard):
		return http.StatusBadGateway
	case errors.Is(err, appErrors.ErrConfirmationRequired):
		return http.StatusPreconditionRequired
	case errors.Is(err, appErrors.ErrDuplicateEntity):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		logging.LogError("http_request_failed", err, log.Fields{
			"method":     r.Method,
			"path":       r.URL.Path,
			"request_id": middleware.GetReqID(r.Context()),
		})
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func pathInt(r *http.Request, name string) (int, error) {
	v, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil {
		return 0, appErrors.NewValidation(name, "must be an integer")
	}
	return v, nil
}

func queryBool(r *http.Request, name string) (bool, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, appErrors.NewValidation(name, "must be a boolean")
	}
	return b, nil
}

func decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return appErrors.NewValidation("", fmt.Sprintf("invalid body: %v", err))
	}
	return nil
}
