package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/arefin-anik/docmarket/internal/model"
	"github.com/arefin-anik/docmarket/internal/storage"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error string `json:"error"`
}

// writeDomainError maps the service error taxonomy onto HTTP statuses. The
// two conflict cases keep distinct messages so clients can tell a stale
// listing from a lost race.
func writeDomainError(ctx context.Context, w http.ResponseWriter, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, model.ErrValidation):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
	case errors.Is(err, model.ErrNotBookable):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: "this doctor cannot currently be booked"})
	case errors.Is(err, model.ErrInvalidSlot):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: "the requested time is not an offered slot"})
	case errors.Is(err, model.ErrSlotTaken):
		writeJSON(w, http.StatusConflict, errorBody{Error: "this time slot is no longer available"})
	case errors.Is(err, model.ErrConcurrentBooking):
		writeJSON(w, http.StatusConflict, errorBody{Error: "this time slot was just booked by someone else"})
	case errors.Is(err, model.ErrNotAuthorized):
		writeJSON(w, http.StatusForbidden, errorBody{Error: "not authorized"})
	case errors.Is(err, model.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: "not found"})
	case errors.Is(err, storage.ErrDuplicateEmail):
		writeJSON(w, http.StatusConflict, errorBody{Error: "email already registered"})
	default:
		logger.ErrorContext(ctx, "request failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid JSON body"})
		return false
	}
	return true
}

func requirePost(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: "method not allowed"})
		return false
	}
	return true
}

func requireGet(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: "method not allowed"})
		return false
	}
	return true
}
