package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"alumnet/internal/auth/guard"
	collegeservice "alumnet/internal/college/service"
	id "alumnet/pkg/domain"
)

// CollegeHandler exposes tenant lookups and administration. All routes
// sit behind requireAuth; the admin routes additionally require tenant
// admin.
type CollegeHandler struct {
	colleges *collegeservice.Registry
	guard    *guard.Guard
}

func NewCollegeHandler(colleges *collegeservice.Registry, g *guard.Guard) *CollegeHandler {
	return &CollegeHandler{colleges: colleges, guard: g}
}

func (h *CollegeHandler) Register(r chi.Router) {
	r.Get("/college", h.handleGetOwn)
	r.Get("/colleges/{slug}", h.handleGetBySlug)
	r.Post("/college/admins", h.handleAddAdmin)
	r.Post("/college/deactivate", h.handleDeactivate)
	r.Post("/college/reactivate", h.handleReactivate)
}

func (h *CollegeHandler) handleGetOwn(w http.ResponseWriter, r *http.Request) {
	user := identityFrom(r.Context())
	college, err := h.colleges.Get(r.Context(), user.CollegeID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"college": college})
}

func (h *CollegeHandler) handleGetBySlug(w http.ResponseWriter, r *http.Request) {
	user := identityFrom(r.Context())
	college, err := h.colleges.GetBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.guard.RequireSameTenant(user, college.ID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"college": college})
}

func (h *CollegeHandler) handleAddAdmin(w http.ResponseWriter, r *http.Request) {
	user := identityFrom(r.Context())
	if err := h.guard.RequireTenantAdmin(r.Context(), user); err != nil {
		writeError(w, err)
		return
	}
	var req struct {
		UserID string `json:"user_id"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	adminID, err := id.ParseUserID(req.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.colleges.AddAdmin(r.Context(), user.CollegeID, adminID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CollegeHandler) handleDeactivate(w http.ResponseWriter, r *http.Request) {
	user := identityFrom(r.Context())
	if err := h.guard.RequireTenantAdmin(r.Context(), user); err != nil {
		writeError(w, err)
		return
	}
	college, err := h.colleges.Deactivate(r.Context(), user.CollegeID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"college": college})
}

func (h *CollegeHandler) handleReactivate(w http.ResponseWriter, r *http.Request) {
	user := identityFrom(r.Context())
	if err := h.guard.RequireTenantAdmin(r.Context(), user); err != nil {
		writeError(w, err)
		return
	}
	college, err := h.colleges.Reactivate(r.Context(), user.CollegeID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"college": college})
}
