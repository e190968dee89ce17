package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"alumnet/internal/auth/guard"
	referralmodels "alumnet/internal/referral/models"
	referralservice "alumnet/internal/referral/service"
	id "alumnet/pkg/domain"
)

// ReferralHandler exposes the referral workflow. All routes sit behind
// requireAuth.
type ReferralHandler struct {
	referrals *referralservice.Service
	guard     *guard.Guard
}

func NewReferralHandler(referrals *referralservice.Service, g *guard.Guard) *ReferralHandler {
	return &ReferralHandler{referrals: referrals, guard: g}
}

func (h *ReferralHandler) Register(r chi.Router) {
	r.Post("/referrals", h.handleCreate)
	r.Get("/referrals/sent", h.handleListSent)
	r.Get("/referrals/received", h.handleListReceived)
	r.Get("/referrals/{id}", h.handleGet)
	r.Post("/referrals/{id}/respond", h.handleRespond)
	r.Post("/referrals/{id}/status", h.handleAdvance)
}

func (h *ReferralHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	user := identityFrom(r.Context())
	if err := h.guard.RequireRole(user, id.RoleStudent); err != nil {
		writeError(w, err)
		return
	}
	var req struct {
		AlumniID    string `json:"alumni_id"`
		Company     string `json:"company"`
		Position    string `json:"position"`
		JobURL      string `json:"job_url"`
		JobID       string `json:"job_id"`
		Message     string `json:"message"`
		Resume      string `json:"resume"`
		CoverLetter string `json:"cover_letter"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	alumniID, err := id.ParseUserID(req.AlumniID)
	if err != nil {
		writeError(w, err)
		return
	}
	var jobID *id.JobID
	if req.JobID != "" {
		parsed, err := id.ParseJobID(req.JobID)
		if err != nil {
			writeError(w, err)
			return
		}
		jobID = &parsed
	}
	referral, err := h.referrals.Create(r.Context(), user.ID, user.CollegeID, referralservice.CreateRequest{
		AlumniID:    alumniID,
		Company:     req.Company,
		Position:    req.Position,
		JobURL:      req.JobURL,
		JobID:       jobID,
		Message:     req.Message,
		Resume:      req.Resume,
		CoverLetter: req.CoverLetter,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"referral": referral})
}

func (h *ReferralHandler) handleListSent(w http.ResponseWriter, r *http.Request) {
	user := identityFrom(r.Context())
	referrals, err := h.referrals.ListForStudent(r.Context(), user.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"referrals": referrals})
}

func (h *ReferralHandler) handleListReceived(w http.ResponseWriter, r *http.Request) {
	user := identityFrom(r.Context())
	referrals, err := h.referrals.ListForAlumni(r.Context(), user.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"referrals": referrals})
}

func (h *ReferralHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	user := identityFrom(r.Context())
	referralID, err := id.ParseReferralID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	referral, err := h.referrals.Get(r.Context(), referralID)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.guard.RequireSameTenant(user, referral.CollegeID); err != nil {
		writeError(w, err)
		return
	}
	if referral.StudentID != user.ID && referral.AlumniID != user.ID {
		if err := h.guard.RequireTenantAdmin(r.Context(), user); err != nil {
			writeError(w, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"referral": referral})
}

func (h *ReferralHandler) handleRespond(w http.ResponseWriter, r *http.Request) {
	user := identityFrom(r.Context())
	referralID, err := id.ParseReferralID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	var req struct {
		Accept  bool   `json:"accept"`
		Message string `json:"message"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	referral, err := h.referrals.Respond(r.Context(), referralID, user.ID, req.Accept, req.Message)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"referral": referral})
}

func (h *ReferralHandler) handleAdvance(w http.ResponseWriter, r *http.Request) {
	user := identityFrom(r.Context())
	referralID, err := id.ParseReferralID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	var req struct {
		Status string `json:"status"`
		Note   string `json:"note"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	status, err := referralmodels.ParseStatus(req.Status)
	if err != nil {
		writeError(w, err)
		return
	}
	referral, err := h.referrals.Advance(r.Context(), referralID, user.ID, status, req.Note)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"referral": referral})
}
