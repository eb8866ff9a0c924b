package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/rentscore/rent-service/internal/middleware"
	"github.com/rentscore/rent-service/internal/repository"
	"github.com/rentscore/rent-service/internal/service"
)

type Handler struct {
	svc *service.Service
	log *logrus.Logger
}

func NewHandler(svc *service.Service, log *logrus.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Errorf("Failed to encode response: %v", err)
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrInvalidConfiguration),
		errors.Is(err, service.ErrWrongAmount):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrInvalidCredentials):
		status = http.StatusUnauthorized
	case errors.Is(err, service.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, repository.ErrNotFound),
		errors.Is(err, repository.ErrNoAccount):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrLeaseExpired),
		errors.Is(err, service.ErrScheduleExhausted),
		errors.Is(err, repository.ErrDuplicateEmail):
		status = http.StatusConflict
	case errors.Is(err, repository.ErrInsufficientFunds):
		status = http.StatusPaymentRequired
	}
	if status == http.StatusInternalServerError {
		h.log.Errorf("Internal error: %v", err)
		h.writeJSON(w, status, errorResponse{Error: "internal error"})
		return
	}
	h.writeJSON(w, status, errorResponse{Error: err.Error()})
}

// caller resolves the authenticated user or writes 401.
func (h *Handler) caller(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return 0, false
	}
	return userID, true
}
