package httptransport

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"alumnet/internal/auth/guard"
	jobmodels "alumnet/internal/job/models"
	jobservice "alumnet/internal/job/service"
	id "alumnet/pkg/domain"
)

// JobHandler exposes the job board. All routes sit behind requireAuth.
type JobHandler struct {
	jobs  *jobservice.Service
	guard *guard.Guard
}

func NewJobHandler(jobs *jobservice.Service, g *guard.Guard) *JobHandler {
	return &JobHandler{jobs: jobs, guard: g}
}

func (h *JobHandler) Register(r chi.Router) {
	r.Post("/jobs", h.handleCreate)
	r.Get("/jobs", h.handleList)
	r.Get("/jobs/mine", h.handleListMine)
	r.Get("/jobs/pending", h.handleListPending)
	r.Get("/jobs/{id}", h.handleGet)
	r.Post("/jobs/{id}/approve", h.handleApprove)
	r.Post("/jobs/{id}/apply-click", h.handleApplyClick)
	r.Delete("/jobs/{id}", h.handleRemove)
}

func (h *JobHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	user := identityFrom(r.Context())
	if err := h.guard.RequireRole(user, id.RoleAlumni, id.RoleFaculty, id.RoleAdmin); err != nil {
		writeError(w, err)
		return
	}
	var req struct {
		Title           string                 `json:"title"`
		Company         string                 `json:"company"`
		Description     string                 `json:"description"`
		Location        string                 `json:"location"`
		LocationType    string                 `json:"location_type"`
		EmploymentType  string                 `json:"employment_type"`
		ExperienceLevel string                 `json:"experience_level"`
		Skills          []string               `json:"skills"`
		Salary          *jobmodels.SalaryRange `json:"salary"`
		ApplicationURL  string                 `json:"application_url"`
		Deadline        *time.Time             `json:"deadline"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	locationType, err := jobmodels.ParseLocationType(req.LocationType)
	if err != nil {
		writeError(w, err)
		return
	}
	employmentType, err := jobmodels.ParseEmploymentType(req.EmploymentType)
	if err != nil {
		writeError(w, err)
		return
	}
	experienceLevel, err := jobmodels.ParseExperienceLevel(req.ExperienceLevel)
	if err != nil {
		writeError(w, err)
		return
	}
	job, err := h.jobs.Post(r.Context(), user.ID, user.CollegeID, jobmodels.Job{
		Title:           req.Title,
		Company:         req.Company,
		Description:     req.Description,
		Location:        req.Location,
		LocationType:    locationType,
		EmploymentType:  employmentType,
		ExperienceLevel: experienceLevel,
		Skills:          req.Skills,
		Salary:          req.Salary,
		ApplicationURL:  req.ApplicationURL,
		Deadline:        req.Deadline,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"job": job})
}

func (h *JobHandler) handleList(w http.ResponseWriter, r *http.Request) {
	user := identityFrom(r.Context())
	jobs, err := h.jobs.ListPublished(r.Context(), user.CollegeID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"jobs": jobs})
}

func (h *JobHandler) handleListMine(w http.ResponseWriter, r *http.Request) {
	user := identityFrom(r.Context())
	jobs, err := h.jobs.ListMine(r.Context(), user.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"jobs": jobs})
}

func (h *JobHandler) handleListPending(w http.ResponseWriter, r *http.Request) {
	user := identityFrom(r.Context())
	if err := h.guard.RequireTenantAdmin(r.Context(), user); err != nil {
		writeError(w, err)
		return
	}
	jobs, err := h.jobs.ListPendingApproval(r.Context(), user.CollegeID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"jobs": jobs})
}

func (h *JobHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	user := identityFrom(r.Context())
	jobID, err := id.ParseJobID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	job, err := h.jobs.Get(r.Context(), jobID)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.guard.RequireSameTenant(user, job.CollegeID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"job": job})
}

func (h *JobHandler) handleApprove(w http.ResponseWriter, r *http.Request) {
	user := identityFrom(r.Context())
	if err := h.guard.RequireTenantAdmin(r.Context(), user); err != nil {
		writeError(w, err)
		return
	}
	jobID, err := id.ParseJobID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	job, err := h.jobs.Approve(r.Context(), jobID, user.CollegeID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"job": job})
}

func (h *JobHandler) handleApplyClick(w http.ResponseWriter, r *http.Request) {
	jobID, err := id.ParseJobID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.jobs.RecordApplicationClick(r.Context(), jobID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *JobHandler) handleRemove(w http.ResponseWriter, r *http.Request) {
	user := identityFrom(r.Context())
	jobID, err := id.ParseJobID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	asAdmin := h.guard.RequireTenantAdmin(r.Context(), user) == nil
	job, err := h.jobs.Remove(r.Context(), jobID, user.ID, asAdmin)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"job": job})
}
