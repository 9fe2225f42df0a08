package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/arefin-anik/docmarket/internal/booking"
	"github.com/arefin-anik/docmarket/internal/model"
)

// DoctorDirectory lists currently bookable doctors as of an instant.
type DoctorDirectory interface {
	ListBookable(ctx context.Context, asOf time.Time) ([]model.DoctorProfile, error)
}

type BookingHandler struct {
	Service   *booking.Service
	Directory DoctorDirectory
	Logger    *slog.Logger
}

type bookRequest struct {
	DoctorID string `json:"doctor_id"`
	Date     string `json:"date"`
	Start    string `json:"start"`
	Notes    string `json:"notes"`
}

type appointmentResponse struct {
	ID        string `json:"id"`
	DoctorID  string `json:"doctor_id"`
	PatientID string `json:"patient_id"`
	StartsAt  string `json:"starts_at"`
	EndsAt    string `json:"ends_at"`
	Status    string `json:"status"`
}

func toAppointmentResponse(a model.Appointment) appointmentResponse {
	return appointmentResponse{
		ID:        a.ID,
		DoctorID:  a.DoctorID,
		PatientID: a.PatientID,
		StartsAt:  a.StartsAt.UTC().Format(time.RFC3339),
		EndsAt:    a.EndsAt.UTC().Format(time.RFC3339),
		Status:    string(a.Status),
	}
}

// Book handles POST /api/v1/public/book.
func (h *BookingHandler) Book(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	actor, _ := ActorFrom(r.Context())

	var req bookRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	date, err := time.Parse("2006-01-02", strings.TrimSpace(req.Date))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "date must be YYYY-MM-DD"})
		return
	}
	slot, err := model.ParseClock(req.Start)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "start must be HH:MM"})
		return
	}

	appt, err := h.Service.Book(r.Context(), actor, strings.TrimSpace(req.DoctorID), date, slot, strings.TrimSpace(req.Notes))
	if err != nil {
		writeDomainError(r.Context(), w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAppointmentResponse(appt))
}

type slotsResponse struct {
	DoctorID string   `json:"doctor_id"`
	Date     string   `json:"date"`
	AsOf     string   `json:"as_of"`
	Slots    []string `json:"slots"`
}

// Slots handles GET /api/v1/public/slots?doctor_id=...&date=YYYY-MM-DD.
func (h *BookingHandler) Slots(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}
	doctorID := strings.TrimSpace(r.URL.Query().Get("doctor_id"))
	date, err := time.Parse("2006-01-02", strings.TrimSpace(r.URL.Query().Get("date")))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "date must be YYYY-MM-DD"})
		return
	}

	listing, err := h.Service.Slots(r.Context(), doctorID, date)
	if err != nil {
		writeDomainError(r.Context(), w, h.Logger, err)
		return
	}

	resp := slotsResponse{
		DoctorID: listing.DoctorID,
		Date:     listing.Date.Format("2006-01-02"),
		AsOf:     listing.AsOf.UTC().Format(time.RFC3339),
		Slots:    make([]string, 0, len(listing.Slots)),
	}
	for _, s := range listing.Slots {
		resp.Slots = append(resp.Slots, s.String())
	}
	writeJSON(w, http.StatusOK, resp)
}

type doctorItem struct {
	DoctorID  string `json:"doctor_id"`
	Name      string `json:"name"`
	Specialty string `json:"specialty"`
}

type doctorsResponse struct {
	AsOf    string       `json:"as_of"`
	Doctors []doctorItem `json:"doctors"`
}

// Doctors handles GET /api/v1/public/doctors: the patient-facing directory of
// currently bookable doctors.
func (h *BookingHandler) Doctors(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}
	asOf := time.Now().UTC()
	profiles, err := h.Directory.ListBookable(r.Context(), asOf)
	if err != nil {
		writeDomainError(r.Context(), w, h.Logger, err)
		return
	}

	resp := doctorsResponse{
		AsOf:    asOf.Format(time.RFC3339),
		Doctors: make([]doctorItem, 0, len(profiles)),
	}
	for _, p := range profiles {
		resp.Doctors = append(resp.Doctors, doctorItem{DoctorID: p.DoctorID, Name: p.Name, Specialty: p.Specialty})
	}
	writeJSON(w, http.StatusOK, resp)
}

type transitionRequest struct {
	AppointmentID string `json:"appointment_id"`
}

func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.Service.Cancel)
}

func (h *BookingHandler) Complete(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.Service.Complete)
}

func (h *BookingHandler) NoShow(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.Service.NoShow)
}

func (h *BookingHandler) transition(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, actor model.Actor, id string) (model.Appointment, error)) {
	if !requirePost(w, r) {
		return
	}
	actor, _ := ActorFrom(r.Context())

	var req transitionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	appt, err := fn(r.Context(), actor, strings.TrimSpace(req.AppointmentID))
	if err != nil {
		writeDomainError(r.Context(), w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
}

// Schedule handles GET /api/v1/doctor/schedule?doctor_id=&from=&to=.
func (h *BookingHandler) Schedule(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}
	actor, _ := ActorFrom(r.Context())

	doctorID := strings.TrimSpace(r.URL.Query().Get("doctor_id"))
	if doctorID == "" {
		doctorID = actor.DoctorID
	}
	from, err := time.Parse("2006-01-02", strings.TrimSpace(r.URL.Query().Get("from")))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "from must be YYYY-MM-DD"})
		return
	}
	to, err := time.Parse("2006-01-02", strings.TrimSpace(r.URL.Query().Get("to")))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "to must be YYYY-MM-DD"})
		return
	}

	appts, err := h.Service.Schedule(r.Context(), actor, doctorID, from, to.AddDate(0, 0, 1))
	if err != nil {
		writeDomainError(r.Context(), w, h.Logger, err)
		return
	}
	out := make([]appointmentResponse, 0, len(appts))
	for _, a := range appts {
		out = append(out, toAppointmentResponse(a))
	}
	writeJSON(w, http.StatusOK, map[string]any{"appointments": out})
}
