package handlers

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/arefin-anik/docmarket/internal/entitlement"
	"github.com/arefin-anik/docmarket/internal/model"
)

// AdminHandler exposes the verification and subscription operations only
// admins may perform. Route-level role checks back up the engine's own
// actor checks.
type AdminHandler struct {
	Engine *entitlement.Engine
	Logger *slog.Logger
}

type verificationRequest struct {
	DoctorID string `json:"doctor_id"`
	Decision string `json:"decision"`
}

type verificationResponse struct {
	DoctorID   string `json:"doctor_id"`
	Status     string `json:"status"`
	VerifiedBy string `json:"verified_by"`
	VerifiedAt string `json:"verified_at,omitempty"`
}

// Verification handles POST /api/v1/admin/verification.
func (h *AdminHandler) Verification(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	actor, _ := ActorFrom(r.Context())

	var req verificationRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	doctorID := strings.TrimSpace(req.DoctorID)

	var rec model.VerificationRecord
	var err error
	switch strings.TrimSpace(req.Decision) {
	case "approve":
		rec, err = h.Engine.Approve(r.Context(), actor, doctorID)
	case "reject":
		rec, err = h.Engine.Reject(r.Context(), actor, doctorID)
	default:
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "decision must be approve or reject"})
		return
	}
	if err != nil {
		writeDomainError(r.Context(), w, h.Logger, err)
		return
	}

	resp := verificationResponse{
		DoctorID:   rec.DoctorID,
		Status:     string(rec.Status),
		VerifiedBy: rec.VerifiedBy,
	}
	if rec.VerifiedAt != nil {
		resp.VerifiedAt = rec.VerifiedAt.UTC().Format(time.RFC3339)
	}
	writeJSON(w, http.StatusOK, resp)
}

type paymentRequest struct {
	DoctorID    string `json:"doctor_id"`
	Plan        string `json:"plan"`
	AmountCents int64  `json:"amount_cents"`
}

type subscriptionResponse struct {
	DoctorID    string `json:"doctor_id"`
	Status      string `json:"status"`
	Plan        string `json:"plan,omitempty"`
	ExpiresAt   string `json:"expires_at,omitempty"`
	GraceEndsAt string `json:"grace_ends_at,omitempty"`
}

func toSubscriptionResponse(rec model.SubscriptionRecord) subscriptionResponse {
	resp := subscriptionResponse{
		DoctorID: rec.DoctorID,
		Status:   string(rec.Status),
		Plan:     string(rec.Plan),
	}
	if !rec.ExpiresAt.IsZero() {
		resp.ExpiresAt = rec.ExpiresAt.UTC().Format(time.RFC3339)
	}
	if !rec.GraceEndsAt.IsZero() {
		resp.GraceEndsAt = rec.GraceEndsAt.UTC().Format(time.RFC3339)
	}
	return resp
}

// RecordPayment handles POST /api/v1/admin/subscription/payment: manual entry
// for payments that arrived outside the payment provider (bank transfer,
// comped accounts). Provider payments flow through the webhook instead.
func (h *AdminHandler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	var req paymentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	rec, err := h.Engine.RecordPayment(r.Context(), strings.TrimSpace(req.DoctorID), model.Plan(strings.TrimSpace(req.Plan)), req.AmountCents)
	if err != nil {
		writeDomainError(r.Context(), w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toSubscriptionResponse(rec))
}

type extendRequest struct {
	DoctorID string `json:"doctor_id"`
	Amount   int    `json:"amount"`
	Unit     string `json:"unit"`
}

// Extend handles POST /api/v1/admin/subscription/extend.
func (h *AdminHandler) Extend(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	actor, _ := ActorFrom(r.Context())

	var req extendRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	rec, err := h.Engine.Extend(r.Context(), actor, strings.TrimSpace(req.DoctorID), req.Amount, strings.TrimSpace(req.Unit))
	if err != nil {
		writeDomainError(r.Context(), w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toSubscriptionResponse(rec))
}

type overrideRequest struct {
	DoctorID  string `json:"doctor_id"`
	Status    string `json:"status"`
	ExpiresAt string `json:"expires_at"`
}

// Override handles POST /api/v1/admin/subscription/override.
func (h *AdminHandler) Override(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	actor, _ := ActorFrom(r.Context())

	var req overrideRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	var expiresAt *time.Time
	if s := strings.TrimSpace(req.ExpiresAt); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "expires_at must be RFC 3339"})
			return
		}
		expiresAt = &t
	}

	rec, err := h.Engine.AdminOverride(r.Context(), actor, strings.TrimSpace(req.DoctorID), model.SubscriptionStatus(strings.TrimSpace(req.Status)), expiresAt)
	if err != nil {
		writeDomainError(r.Context(), w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toSubscriptionResponse(rec))
}
