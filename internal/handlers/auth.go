package handlers

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/arefin-anik/docmarket/internal/model"
	"github.com/arefin-anik/docmarket/internal/storage"
	"github.com/arefin-anik/docmarket/libs/auth"
)

type AuthHandler struct {
	Users        *storage.UserRepo
	Entitlements *storage.EntitlementRepo
	Logger       *slog.Logger
	Secret       string
	TokenTTL     time.Duration
}

type registerRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	Name      string `json:"name"`
	Role      string `json:"role"`
	Specialty string `json:"specialty"`
}

type userResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// Register creates an account. Doctor accounts additionally get a directory
// profile and a pending verification record; they stay invisible to patients
// until an admin approves them and a subscription is paid.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	var req registerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	req.Name = strings.TrimSpace(req.Name)
	req.Role = strings.TrimSpace(req.Role)

	if req.Email == "" || req.Name == "" || len(req.Password) < 8 {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "email, name, and a password of at least 8 characters are required"})
		return
	}
	switch req.Role {
	case model.RolePatient, model.RoleDoctor, model.RoleAssistant:
	default:
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "role must be patient, doctor, or assistant"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		writeDomainError(r.Context(), w, h.Logger, err)
		return
	}

	user, err := h.Users.Create(r.Context(), model.User{
		Email:        req.Email,
		PasswordHash: string(hash),
		Name:         req.Name,
		Role:         req.Role,
	})
	if err != nil {
		writeDomainError(r.Context(), w, h.Logger, err)
		return
	}

	if user.Role == model.RoleDoctor {
		err := h.Entitlements.CreateDoctorProfile(r.Context(), model.DoctorProfile{
			DoctorID:  user.ID,
			Name:      user.Name,
			Specialty: strings.TrimSpace(req.Specialty),
			Email:     user.Email,
		})
		if err != nil {
			writeDomainError(r.Context(), w, h.Logger, err)
			return
		}
	}

	h.Logger.InfoContext(r.Context(), "user registered", "user_id", user.ID, "role", user.Role)
	writeJSON(w, http.StatusCreated, userResponse{ID: user.ID, Email: user.Email, Name: user.Name, Role: user.Role})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.Users.GetByEmail(r.Context(), strings.TrimSpace(req.Email))
	if err != nil {
		// Same response for unknown email and wrong password.
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: "invalid credentials"})
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: "invalid credentials"})
		return
	}

	ttl := h.TokenTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	now := time.Now()
	claims := auth.Claims{
		Sub:  user.ID,
		Role: user.Role,
		Exp:  now.Add(ttl).Unix(),
		Iat:  now.Unix(),
	}
	if user.Role == model.RoleDoctor {
		claims.DoctorID = user.ID
	}
	token, err := auth.SignHS256(claims, h.Secret)
	if err != nil {
		writeDomainError(r.Context(), w, h.Logger, err)
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		Token: token,
		User:  userResponse{ID: user.ID, Email: user.Email, Name: user.Name, Role: user.Role},
	})
}
