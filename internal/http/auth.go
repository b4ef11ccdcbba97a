package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	httpmiddleware "github.com/civicflow/api/internal/http/middleware"
	"github.com/civicflow/api/internal/identity"
	"github.com/civicflow/api/internal/occupancy"
	"github.com/civicflow/api/internal/service"
)

// AuthHandler exposes registration, login and session routes.
type AuthHandler struct {
	auth     *service.AuthService
	identity *identity.Service
}

// NewAuthHandler creates the handler.
func NewAuthHandler(auth *service.AuthService, identitySvc *identity.Service) *AuthHandler {
	return &AuthHandler{auth: auth, identity: identitySvc}
}

// RegisterPublicRoutes mounts the unauthenticated auth routes.
func (h *AuthHandler) RegisterPublicRoutes(r chi.Router) {
	r.Post("/auth/register", h.handleRegister)
	r.Post("/auth/login", h.handleLogin)
	r.Post("/auth/refresh", h.handleRefresh)
}

// RegisterProtectedRoutes mounts the authenticated auth routes.
func (h *AuthHandler) RegisterProtectedRoutes(r chi.Router) {
	r.Get("/auth/me", h.handleMe)
	r.Post("/auth/logout", h.handleLogout)
}

type registerPayload struct {
	Username      string `json:"username"`
	Email         string `json:"email"`
	Password      string `json:"password"`
	Block         string `json:"block"`
	Floor         int    `json:"floor"`
	RoomNumber    int    `json:"room_number"`
	ContactNumber string `json:"contact_number"`
}

func (h *AuthHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var payload registerPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "invalid JSON", nil)
		return
	}

	resident, err := h.identity.RegisterResident(r.Context(), identity.RegisterResidentInput{
		Username:      payload.Username,
		Email:         payload.Email,
		Password:      payload.Password,
		Unit:          occupancy.UnitAddress{Block: payload.Block, Floor: payload.Floor, RoomNumber: payload.RoomNumber},
		ContactNumber: payload.ContactNumber,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	tokens, err := h.auth.IssueTokens(r.Context(), &resident.User)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, map[string]any{
		"resident":      resident,
		"access_token":  tokens.AccessToken,
		"refresh_token": tokens.RefreshToken,
	})
}

type loginPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var payload loginPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "invalid JSON", nil)
		return
	}

	result, err := h.auth.Login(r.Context(), payload.Email, payload.Password)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, result)
}

type refreshPayload struct {
	RefreshToken string `json:"refresh_token"`
}

func (h *AuthHandler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var payload refreshPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "invalid JSON", nil)
		return
	}

	result, err := h.auth.Refresh(r.Context(), payload.RefreshToken)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, result)
}

func (h *AuthHandler) handleLogout(w http.ResponseWriter, r *http.Request) {
	var payload refreshPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "invalid JSON", nil)
		return
	}

	if err := h.auth.Logout(r.Context(), payload.RefreshToken); err != nil {
		writeDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"logged_out": true})
}

// handleMe returns the caller's account plus its role-specific profile.
func (h *AuthHandler) handleMe(w http.ResponseWriter, r *http.Request) {
	subject, err := uuid.Parse(httpmiddleware.GetSubject(r.Context()))
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "AUTH", "invalid identity", nil)
		return
	}

	switch httpmiddleware.GetRole(r.Context()) {
	case identity.RoleResident:
		resident, err := h.identity.GetResident(r.Context(), subject)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, map[string]any{"user": resident})
	case identity.RoleWorker:
		worker, err := h.identity.GetWorker(r.Context(), subject)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, map[string]any{"user": worker})
	default:
		user, err := h.identity.GetUser(r.Context(), subject)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, map[string]any{"user": user})
	}
}
