package handlers

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/arefin-anik/docmarket/internal/model"
	"github.com/arefin-anik/docmarket/internal/storage"
)

// RulesHandler manages a doctor's recurring availability windows. Doctors and
// their assistants edit only their own calendar; admins may edit any.
type RulesHandler struct {
	Repo   *storage.RuleRepo
	Logger *slog.Logger
}

type ruleRequest struct {
	DoctorID string `json:"doctor_id"`
	Weekday  int    `json:"weekday"`
	Start    string `json:"start"`
	End      string `json:"end"`
}

type ruleResponse struct {
	ID       string `json:"id"`
	DoctorID string `json:"doctor_id"`
	Weekday  int    `json:"weekday"`
	Start    string `json:"start"`
	End      string `json:"end"`
	Active   bool   `json:"active"`
}

func toRuleResponse(r model.AvailabilityRule) ruleResponse {
	return ruleResponse{
		ID:       r.ID,
		DoctorID: r.DoctorID,
		Weekday:  int(r.Weekday),
		Start:    r.Start.String(),
		End:      r.End.String(),
		Active:   r.Active,
	}
}

// targetDoctor picks the doctor whose calendar is being edited and checks the
// actor may act for them.
func (h *RulesHandler) targetDoctor(w http.ResponseWriter, r *http.Request, requested string) (string, bool) {
	actor, _ := ActorFrom(r.Context())
	doctorID := strings.TrimSpace(requested)
	if doctorID == "" {
		doctorID = actor.DoctorID
	}
	if doctorID == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "doctor_id is required"})
		return "", false
	}
	if !actor.ActsForDoctor(doctorID) {
		writeJSON(w, http.StatusForbidden, errorBody{Error: "not authorized"})
		return "", false
	}
	return doctorID, true
}

// Rules dispatches /api/v1/doctor/rules: GET lists, POST creates.
func (h *RulesHandler) Rules(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.list(w, r)
	case http.MethodPost:
		h.create(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: "method not allowed"})
	}
}

func (h *RulesHandler) create(w http.ResponseWriter, r *http.Request) {
	var req ruleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	doctorID, ok := h.targetDoctor(w, r, req.DoctorID)
	if !ok {
		return
	}

	start, err := model.ParseClock(req.Start)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "start must be HH:MM"})
		return
	}
	end, err := model.ParseClock(req.End)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "end must be HH:MM"})
		return
	}

	rule, err := h.Repo.Create(r.Context(), model.AvailabilityRule{
		DoctorID: doctorID,
		Weekday:  time.Weekday(req.Weekday),
		Start:    start,
		End:      end,
		Active:   true,
	})
	if err != nil {
		writeDomainError(r.Context(), w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, toRuleResponse(rule))
}

func (h *RulesHandler) list(w http.ResponseWriter, r *http.Request) {
	doctorID, ok := h.targetDoctor(w, r, r.URL.Query().Get("doctor_id"))
	if !ok {
		return
	}

	rules, err := h.Repo.ListByDoctor(r.Context(), doctorID)
	if err != nil {
		writeDomainError(r.Context(), w, h.Logger, err)
		return
	}
	out := make([]ruleResponse, 0, len(rules))
	for _, rule := range rules {
		out = append(out, toRuleResponse(rule))
	}
	writeJSON(w, http.StatusOK, map[string]any{"rules": out})
}

type ruleToggleRequest struct {
	DoctorID string `json:"doctor_id"`
	RuleID   string `json:"rule_id"`
	Active   bool   `json:"active"`
}

// SetActive handles POST /api/v1/doctor/rules/toggle. Deactivating a rule
// stops new slots from being offered; existing appointments are untouched.
func (h *RulesHandler) SetActive(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	var req ruleToggleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	doctorID, ok := h.targetDoctor(w, r, req.DoctorID)
	if !ok {
		return
	}

	if err := h.Repo.SetActive(r.Context(), strings.TrimSpace(req.RuleID), doctorID, req.Active); err != nil {
		writeDomainError(r.Context(), w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rule_id": req.RuleID, "active": req.Active})
}

type ruleDeleteRequest struct {
	DoctorID string `json:"doctor_id"`
	RuleID   string `json:"rule_id"`
}

// Delete handles POST /api/v1/doctor/rules/delete.
func (h *RulesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	var req ruleDeleteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	doctorID, ok := h.targetDoctor(w, r, req.DoctorID)
	if !ok {
		return
	}

	if err := h.Repo.Delete(r.Context(), strings.TrimSpace(req.RuleID), doctorID); err != nil {
		writeDomainError(r.Context(), w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rule_id": req.RuleID, "deleted": true})
}
