package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/rentscore/rent-service/internal/service"
)

type createLeaseRequest struct {
	RenterID     int64     `json:"renter_id"`
	LandlordID   int64     `json:"landlord_id"`
	RentAmount   int64     `json:"rent_amount"`
	StartDate    time.Time `json:"start_date"`
	EndDate      time.Time `json:"end_date"`
	FirstDueDate time.Time `json:"first_due_date"`
	Location     string    `json:"location"`
}

// CreateLease handles lease creation
func (h *Handler) CreateLease(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}
	var req createLeaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	lease, err := h.svc.CreateLease(r.Context(), userID, service.CreateLeaseParams{
		RenterID:     req.RenterID,
		LandlordID:   req.LandlordID,
		RentAmount:   req.RentAmount,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
		FirstDueDate: req.FirstDueDate,
		Location:     req.Location,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, lease)
}

// ListLeases returns the caller's leases; ?role=landlord switches the view
func (h *Handler) ListLeases(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}
	leases, err := h.svc.ListLeases(r.Context(), userID, r.URL.Query().Get("role"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, leases)
}

func (h *Handler) leaseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid lease id", http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

type payRentRequest struct {
	Amount int64 `json:"amount"`
}

// PayRent processes a rent payment by the authenticated payer
func (h *Handler) PayRent(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}
	id, ok := h.leaseID(w, r)
	if !ok {
		return
	}
	var req payRentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	payment, err := h.svc.PayRent(r.Context(), id, userID, req.Amount)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, payment)
}

type scoreResponse struct {
	LeaseID string `json:"lease_id"`
	Score   int    `json:"score"`
}

// GetScore returns the lease's current score
func (h *Handler) GetScore(w http.ResponseWriter, r *http.Request) {
	id, ok := h.leaseID(w, r)
	if !ok {
		return
	}
	score, err := h.svc.GetScore(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, scoreResponse{LeaseID: id.String(), Score: score})
}

// GetPayments returns the full payment schedule
func (h *Handler) GetPayments(w http.ResponseWriter, r *http.Request) {
	id, ok := h.leaseID(w, r)
	if !ok {
		return
	}
	slots, err := h.svc.GetPayments(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, slots)
}

type reassignLandlordRequest struct {
	LandlordID int64 `json:"landlord_id"`
}

// ReassignLandlord transfers the landlord role; current landlord only
func (h *Handler) ReassignLandlord(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}
	id, ok := h.leaseID(w, r)
	if !ok {
		return
	}
	var req reassignLandlordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.svc.ReassignLandlord(r.Context(), id, userID, req.LandlordID); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetArrears returns the informational arrears-interest estimate
func (h *Handler) GetArrears(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}
	id, ok := h.leaseID(w, r)
	if !ok {
		return
	}
	report, err := h.svc.EstimateArrears(r.Context(), id, userID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, report)
}
