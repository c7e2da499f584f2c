package employees

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/thrivewell/wellness-platform/internal/http/envelope"
	"github.com/thrivewell/wellness-platform/internal/tenancy"
	"github.com/thrivewell/wellness-platform/pkg/logging"
)

// Handler serves the employee roster endpoints.
type Handler struct {
	repo           Repository
	logger         *logging.Logger
	defaultPerPage int
	maxPerPage     int
}

// NewHandler creates an employees handler.
func NewHandler(repo Repository, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		repo:           repo,
		logger:         logger,
		defaultPerPage: 10,
		maxPerPage:     100,
	}
}

// SetPageLimits overrides pagination defaults from configuration.
func (h *Handler) SetPageLimits(defaultPerPage, maxPerPage int) {
	if defaultPerPage > 0 {
		h.defaultPerPage = defaultPerPage
	}
	if maxPerPage > 0 {
		h.maxPerPage = maxPerPage
	}
}

// List handles GET /employees.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	orgID, ok := tenancy.OrgIDFromContext(r.Context())
	if !ok {
		envelope.Error(w, http.StatusUnauthorized, "missing organization context")
		return
	}

	filter := h.filterFromQuery(r)
	items, total, err := h.repo.List(r.Context(), orgID, filter)
	if err != nil {
		h.logger.Error("failed to list employees", "error", err, "org_id", orgID)
		envelope.Error(w, http.StatusInternalServerError, "failed to list employees")
		return
	}
	if items == nil {
		items = []*Employee{}
	}
	envelope.List(w, items, total, filter.Page, filter.PerPage)
}

// Create handles POST /employees.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	orgID, ok := tenancy.OrgIDFromContext(r.Context())
	if !ok {
		envelope.Error(w, http.StatusUnauthorized, "missing organization context")
		return
	}

	var req CreateEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		envelope.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		if ve, ok := AsValidationError(err); ok {
			envelope.ValidationError(w, "validation failed", ve.Fields)
			return
		}
		envelope.Error(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	emp, err := h.repo.Create(r.Context(), orgID, &req)
	if errors.Is(err, ErrDuplicateEmail) {
		envelope.ValidationError(w, "validation failed", map[string][]string{
			"email": {"email is already enrolled"},
		})
		return
	}
	if err != nil {
		h.logger.Error("failed to create employee", "error", err, "org_id", orgID)
		envelope.Error(w, http.StatusInternalServerError, "failed to create employee")
		return
	}

	h.logger.Info("employee enrolled", "employee_id", emp.ID, "org_id", orgID)
	envelope.Created(w, emp)
}

// AssignPrograms handles POST /employees/{id}/programs.
func (h *Handler) AssignPrograms(w http.ResponseWriter, r *http.Request) {
	orgID, ok := tenancy.OrgIDFromContext(r.Context())
	if !ok {
		envelope.Error(w, http.StatusUnauthorized, "missing organization context")
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		envelope.Error(w, http.StatusBadRequest, "invalid employee id")
		return
	}

	var req AssignProgramsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		envelope.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Normalize()

	emp, err := h.repo.AssignPrograms(r.Context(), orgID, id, req.Programs)
	if errors.Is(err, ErrNotFound) {
		envelope.Error(w, http.StatusNotFound, "employee not found")
		return
	}
	if err != nil {
		h.logger.Error("failed to assign programs", "error", err, "employee_id", id)
		envelope.Error(w, http.StatusInternalServerError, "failed to assign programs")
		return
	}

	h.logger.Info("programs assigned", "employee_id", emp.ID, "org_id", orgID, "count", len(emp.ProgramAssignments))
	envelope.OK(w, emp)
}

func (h *Handler) filterFromQuery(r *http.Request) ListFilter {
	q := r.URL.Query()
	filter := ListFilter{
		Search:           q.Get("search"),
		Department:       q.Get("department"),
		EnrollmentStatus: q.Get("enrollment_status"),
		EngagementStatus: q.Get("engagement_status"),
		RiskCategory:     q.Get("risk_category"),
		Page:             1,
		PerPage:          h.defaultPerPage,
	}
	if v, err := strconv.Atoi(q.Get("page")); err == nil && v > 0 {
		filter.Page = v
	}
	if v, err := strconv.Atoi(q.Get("per_page")); err == nil && v > 0 && v <= h.maxPerPage {
		filter.PerPage = v
	}
	return filter
}
