package handler

import (
	"encoding/json"
	"net/http"
)

type createAccountRequest struct {
	Currency string `json:"currency"`
}

// CreateAccount handles account creation for the authenticated user
func (h *Handler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}
	var req createAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	account, err := h.svc.CreateAccount(r.Context(), userID, req.Currency)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, account)
}

// GetAccount returns the authenticated user's account
func (h *Handler) GetAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}
	account, err := h.svc.GetAccount(r.Context(), userID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, account)
}

type depositRequest struct {
	Amount int64 `json:"amount"`
}

// Deposit credits the authenticated user's account
func (h *Handler) Deposit(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}
	var req depositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	account, err := h.svc.Deposit(r.Context(), userID, req.Amount)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, account)
}
