package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	authservice "alumnet/internal/auth/service"
	identitymodels "alumnet/internal/identity/models"
	identityservice "alumnet/internal/identity/service"
)

// AuthHandler exposes registration, login, and the token lifecycles.
type AuthHandler struct {
	identities *identityservice.Service
	sessions   *authservice.Service
}

func NewAuthHandler(identities *identityservice.Service, sessions *authservice.Service) *AuthHandler {
	return &AuthHandler{identities: identities, sessions: sessions}
}

func (h *AuthHandler) Register(r chi.Router) {
	r.Post("/auth/register", h.handleRegister)
	r.Post("/auth/login", h.handleLogin)
	r.Get("/auth/verify-email/{token}", h.handleVerifyEmail)
	r.Post("/auth/forgot-password", h.handleForgotPassword)
	r.Post("/auth/reset-password", h.handleResetPassword)
}

// RegisterAuthenticated wires the routes that sit behind requireAuth.
func (h *AuthHandler) RegisterAuthenticated(r chi.Router) {
	r.Post("/auth/logout", h.handleLogout)
	r.Get("/me", h.handleMe)
	r.Put("/me/profile", h.handleUpdateProfile)
}

func (h *AuthHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FullName    string `json:"full_name"`
		Email       string `json:"email"`
		Password    string `json:"password"`
		Role        string `json:"role"`
		CollegeName string `json:"college_name"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	res, err := h.identities.Register(r.Context(), req.FullName, req.Email, req.Password, req.Role, req.CollegeName)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"user":              res.Identity,
		"requires_approval": res.RequiresApproval,
	})
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	res, err := h.sessions.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"user":  res.Identity,
		"token": res.SessionToken,
	})
}

func (h *AuthHandler) handleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	profile, err := h.identities.VerifyByToken(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": profile})
}

func (h *AuthHandler) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if _, err := h.sessions.BeginPasswordReset(r.Context(), req.Email); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "reset email sent"})
}

func (h *AuthHandler) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token    string `json:"token"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := h.sessions.CompletePasswordReset(r.Context(), req.Token, req.Password); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "password updated"})
}

func (h *AuthHandler) handleLogout(w http.ResponseWriter, r *http.Request) {
	bearer, err := bearerToken(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.sessions.Logout(r.Context(), bearer); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) handleMe(w http.ResponseWriter, r *http.Request) {
	user := identityFrom(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"user":                 user.Public(),
		"profile_completeness": user.ProfileCompleteness(),
	})
}

func (h *AuthHandler) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	user := identityFrom(r.Context())
	var profile identitymodels.Profile
	if err := decodeJSON(r, &profile); err != nil {
		writeError(w, err)
		return
	}
	updated, err := h.identities.UpdateProfile(r.Context(), user.ID, profile)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": updated})
}
