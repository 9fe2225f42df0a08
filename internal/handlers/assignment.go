package handlers

import (
	"log/slog"
	"net/http"

	"github.com/arefin-anik/docmarket/internal/assignment"
)

type AssignmentHandler struct {
	Resolver *assignment.Resolver
	Logger   *slog.Logger
}

type assignmentResponse struct {
	AssistantID string `json:"assistant_id"`
	DoctorID    string `json:"doctor_id,omitempty"`
	Assigned    bool   `json:"assigned"`
}

// Assignment handles GET /api/v1/assistant/assignment: the assistant's
// resolved working scope. Unassigned is a valid answer, not an error.
func (h *AssignmentHandler) Assignment(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}
	actor, _ := ActorFrom(r.Context())

	doctorID, found, err := h.Resolver.ResolveAssignedDoctor(r.Context(), actor.UserID)
	if err != nil {
		writeDomainError(r.Context(), w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, assignmentResponse{
		AssistantID: actor.UserID,
		DoctorID:    doctorID,
		Assigned:    found,
	})
}
