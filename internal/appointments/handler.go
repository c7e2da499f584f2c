package appointments

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/thrivewell/wellness-platform/internal/http/envelope"
	"github.com/thrivewell/wellness-platform/internal/observability/metrics"
	"github.com/thrivewell/wellness-platform/internal/tenancy"
	"github.com/thrivewell/wellness-platform/pkg/logging"
)

// Notifier is told about lifecycle events. Failures are the notifier's
// problem; the request that triggered the event has already succeeded.
type Notifier interface {
	AppointmentBooked(ctx context.Context, appt *Appointment)
	AppointmentCancelled(ctx context.Context, appt *Appointment)
}

// Handler serves the appointment endpoints.
type Handler struct {
	repo           Repository
	notifier       Notifier
	metrics        *metrics.AppointmentMetrics
	logger         *logging.Logger
	defaultPerPage int
	maxPerPage     int
	now            func() time.Time
}

// NewHandler creates an appointments handler.
func NewHandler(repo Repository, notifier Notifier, m *metrics.AppointmentMetrics, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		repo:           repo,
		notifier:       notifier,
		metrics:        m,
		logger:         logger,
		defaultPerPage: 10,
		maxPerPage:     100,
		now:            time.Now,
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

// ListOrganization handles GET /appointments: every appointment in the org.
func (h *Handler) ListOrganization(w http.ResponseWriter, r *http.Request) {
	orgID, ok := tenancy.OrgIDFromContext(r.Context())
	if !ok {
		envelope.Error(w, http.StatusUnauthorized, "missing organization context")
		return
	}
	h.list(w, r, orgID, h.filterFromQuery(r))
}

// ListMine handles GET /appointments/my-appointments: appointments where the
// authenticated admin is the provider.
func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	orgID, ok := tenancy.OrgIDFromContext(r.Context())
	if !ok {
		envelope.Error(w, http.StatusUnauthorized, "missing organization context")
		return
	}
	userID, ok := tenancy.UserIDFromContext(r.Context())
	if !ok {
		envelope.Error(w, http.StatusUnauthorized, "missing user context")
		return
	}
	filter := h.filterFromQuery(r)
	filter.ProviderID = userID
	h.list(w, r, orgID, filter)
}

// ListEmployee handles GET /employee/appointments: the authenticated
// employee's own appointments.
func (h *Handler) ListEmployee(w http.ResponseWriter, r *http.Request) {
	orgID, ok := tenancy.OrgIDFromContext(r.Context())
	if !ok {
		envelope.Error(w, http.StatusUnauthorized, "missing organization context")
		return
	}
	userID, ok := tenancy.UserIDFromContext(r.Context())
	if !ok {
		envelope.Error(w, http.StatusUnauthorized, "missing user context")
		return
	}
	filter := h.filterFromQuery(r)
	filter.EmployeeID = userID
	h.list(w, r, orgID, filter)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request, orgID string, filter ListFilter) {
	items, total, err := h.repo.List(r.Context(), orgID, filter)
	if err != nil {
		h.logger.Error("failed to list appointments", "error", err, "org_id", orgID)
		envelope.Error(w, http.StatusInternalServerError, "failed to list appointments")
		return
	}
	if items == nil {
		items = []*Appointment{}
	}
	envelope.List(w, items, total, filter.Page, filter.PerPage)
}

// Get handles GET /appointments/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	orgID, ok := tenancy.OrgIDFromContext(r.Context())
	if !ok {
		envelope.Error(w, http.StatusUnauthorized, "missing organization context")
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		envelope.Error(w, http.StatusBadRequest, "invalid appointment id")
		return
	}

	appt, err := h.repo.GetForOrg(r.Context(), orgID, id)
	if errors.Is(err, ErrNotFound) {
		envelope.Error(w, http.StatusNotFound, "appointment not found")
		return
	}
	if err != nil {
		h.logger.Error("failed to load appointment", "error", err, "appointment_id", id)
		envelope.Error(w, http.StatusInternalServerError, "failed to load appointment")
		return
	}
	envelope.OK(w, appt)
}

// Book handles POST /employee/appointments.
func (h *Handler) Book(w http.ResponseWriter, r *http.Request) {
	orgID, ok := tenancy.OrgIDFromContext(r.Context())
	if !ok {
		envelope.Error(w, http.StatusUnauthorized, "missing organization context")
		return
	}
	employeeID, ok := tenancy.UserIDFromContext(r.Context())
	if !ok {
		envelope.Error(w, http.StatusUnauthorized, "missing user context")
		return
	}

	var req BookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		envelope.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Normalize()
	if err := req.Validate(h.now(), nil); err != nil {
		h.writeValidation(w, err)
		return
	}

	appt, err := h.repo.Create(r.Context(), orgID, &req, employeeID)
	if errors.Is(err, ErrProviderNotFound) {
		envelope.ValidationError(w, "validation failed", map[string][]string{
			"provider_id": {"provider is not available"},
		})
		return
	}
	if err != nil {
		h.logger.Error("failed to book appointment", "error", err, "org_id", orgID)
		envelope.Error(w, http.StatusInternalServerError, "failed to book appointment")
		return
	}

	h.logger.Info("appointment booked",
		"appointment_id", appt.ID,
		"org_id", orgID,
		"employee_id", employeeID,
		"type", appt.AppointmentType,
		"date", appt.AppointmentDate,
	)
	h.metrics.ObserveBooked(string(appt.AppointmentType))
	if h.notifier != nil {
		h.notifier.AppointmentBooked(r.Context(), appt)
	}
	envelope.Created(w, appt)
}

// UpdateStatus handles PUT /appointments/{id}/status.
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	orgID, ok := tenancy.OrgIDFromContext(r.Context())
	if !ok {
		envelope.Error(w, http.StatusUnauthorized, "missing organization context")
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		envelope.Error(w, http.StatusBadRequest, "invalid appointment id")
		return
	}

	var update StatusUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		envelope.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	appt, err := h.repo.UpdateStatus(r.Context(), orgID, id, &update)
	if errors.Is(err, ErrNotFound) {
		envelope.Error(w, http.StatusNotFound, "appointment not found")
		return
	}
	if err != nil {
		if _, ok := AsValidationError(err); ok {
			h.writeValidation(w, err)
			return
		}
		h.logger.Error("failed to update appointment status", "error", err, "appointment_id", id)
		envelope.Error(w, http.StatusInternalServerError, "failed to update appointment status")
		return
	}

	h.logger.Info("appointment status updated",
		"appointment_id", appt.ID,
		"org_id", orgID,
		"status", appt.Status,
	)
	h.metrics.ObserveTransition(string(appt.Status))
	if appt.Status == StatusCancelled && h.notifier != nil {
		h.notifier.AppointmentCancelled(r.Context(), appt)
	}
	envelope.OK(w, appt)
}

// Statistics handles GET /appointments/statistics.
func (h *Handler) Statistics(w http.ResponseWriter, r *http.Request) {
	orgID, ok := tenancy.OrgIDFromContext(r.Context())
	if !ok {
		envelope.Error(w, http.StatusUnauthorized, "missing organization context")
		return
	}

	var start, end *time.Time
	if s := r.URL.Query().Get("start_date"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			envelope.Error(w, http.StatusBadRequest, "start_date must be a YYYY-MM-DD date")
			return
		}
		start = &t
	}
	if s := r.URL.Query().Get("end_date"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			envelope.Error(w, http.StatusBadRequest, "end_date must be a YYYY-MM-DD date")
			return
		}
		// end_date is inclusive; the range is half-open internally.
		t = t.Add(24 * time.Hour)
		end = &t
	}
	if (start == nil) != (end == nil) {
		envelope.Error(w, http.StatusBadRequest, "start_date and end_date must be supplied together")
		return
	}

	stats, err := h.repo.Statistics(r.Context(), orgID, start, end)
	if err != nil {
		h.logger.Error("failed to compute appointment statistics", "error", err, "org_id", orgID)
		envelope.Error(w, http.StatusInternalServerError, "failed to compute statistics")
		return
	}
	envelope.OK(w, stats)
}

// Providers handles GET /employee/appointments/available-providers.
func (h *Handler) Providers(w http.ResponseWriter, r *http.Request) {
	orgID, ok := tenancy.OrgIDFromContext(r.Context())
	if !ok {
		envelope.Error(w, http.StatusUnauthorized, "missing organization context")
		return
	}
	providers, err := h.repo.Providers(r.Context(), orgID, r.URL.Query().Get("type"))
	if err != nil {
		h.logger.Error("failed to list providers", "error", err, "org_id", orgID)
		envelope.Error(w, http.StatusInternalServerError, "failed to list providers")
		return
	}
	if providers == nil {
		providers = []Provider{}
	}
	envelope.OK(w, providers)
}

// Partners handles GET /appointments/available-partners.
func (h *Handler) Partners(w http.ResponseWriter, r *http.Request) {
	orgID, ok := tenancy.OrgIDFromContext(r.Context())
	if !ok {
		envelope.Error(w, http.StatusUnauthorized, "missing organization context")
		return
	}
	partners, err := h.repo.Partners(r.Context(), orgID)
	if err != nil {
		h.logger.Error("failed to list partners", "error", err, "org_id", orgID)
		envelope.Error(w, http.StatusInternalServerError, "failed to list partners")
		return
	}
	if partners == nil {
		partners = []Provider{}
	}
	envelope.OK(w, partners)
}

func (h *Handler) writeValidation(w http.ResponseWriter, err error) {
	if ve, ok := AsValidationError(err); ok {
		envelope.ValidationError(w, "validation failed", ve.Fields)
		return
	}
	envelope.Error(w, http.StatusUnprocessableEntity, err.Error())
}

func (h *Handler) filterFromQuery(r *http.Request) ListFilter {
	q := r.URL.Query()
	filter := ListFilter{
		Status:    Status(q.Get("status")),
		Type:      Type(q.Get("type")),
		Filter:    q.Get("filter"),
		StartDate: q.Get("start_date"),
		EndDate:   q.Get("end_date"),
		Page:      1,
		PerPage:   h.defaultPerPage,
	}
	if v, err := strconv.ParseInt(q.Get("provider_id"), 10, 64); err == nil && v > 0 {
		filter.ProviderID = v
	}
	if v, err := strconv.Atoi(q.Get("page")); err == nil && v > 0 {
		filter.Page = v
	}
	if v, err := strconv.Atoi(q.Get("per_page")); err == nil && v > 0 && v <= h.maxPerPage {
		filter.PerPage = v
	}
	return filter
}
