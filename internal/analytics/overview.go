// Package analytics aggregates cross-domain numbers for the admin dashboard.
package analytics

import (
	"context"
	"fmt"
	"net/http"

	"github.com/thrivewell/wellness-platform/internal/appointments"
	"github.com/thrivewell/wellness-platform/internal/employees"
	"github.com/thrivewell/wellness-platform/internal/http/envelope"
	"github.com/thrivewell/wellness-platform/internal/tenancy"
	"github.com/thrivewell/wellness-platform/pkg/logging"
)

// Overview is the dashboard landing payload.
type Overview struct {
	TotalEmployees       int                         `json:"total_employees"`
	ActiveEmployees      int                         `json:"active_employees"`
	Appointments         *appointments.Statistics    `json:"appointments"`
	UpcomingAppointments []*appointments.Appointment `json:"upcoming_appointments"`
}

// Service composes the domain repositories into dashboard aggregates.
type Service struct {
	appointments appointments.Repository
	employees    employees.Repository
}

func NewService(appts appointments.Repository, emps employees.Repository) *Service {
	return &Service{appointments: appts, employees: emps}
}

// Overview builds the dashboard payload for an org. The upcoming list is
// capped at five entries.
func (s *Service) Overview(ctx context.Context, orgID string) (*Overview, error) {
	stats, err := s.appointments.Statistics(ctx, orgID, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("analytics: appointment stats: %w", err)
	}

	upcoming, _, err := s.appointments.List(ctx, orgID, appointments.ListFilter{
		Filter:  "upcoming",
		Page:    1,
		PerPage: 5,
	})
	if err != nil {
		return nil, fmt.Errorf("analytics: upcoming appointments: %w", err)
	}
	if upcoming == nil {
		upcoming = []*appointments.Appointment{}
	}

	_, total, err := s.employees.List(ctx, orgID, employees.ListFilter{Page: 1, PerPage: 1})
	if err != nil {
		return nil, fmt.Errorf("analytics: employee count: %w", err)
	}
	_, activeTotal, err := s.employees.List(ctx, orgID, employees.ListFilter{
		EngagementStatus: employees.EngagementActive,
		Page:             1,
		PerPage:          1,
	})
	if err != nil {
		return nil, fmt.Errorf("analytics: active employee count: %w", err)
	}

	return &Overview{
		TotalEmployees:       total,
		ActiveEmployees:      activeTotal,
		Appointments:         stats,
		UpcomingAppointments: upcoming,
	}, nil
}

// Handler serves GET /dashboard/overview.
type Handler struct {
	service *Service
	logger  *logging.Logger
}

func NewHandler(service *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Overview(w http.ResponseWriter, r *http.Request) {
	orgID, ok := tenancy.OrgIDFromContext(r.Context())
	if !ok {
		envelope.Error(w, http.StatusUnauthorized, "missing organization context")
		return
	}
	overview, err := h.service.Overview(r.Context(), orgID)
	if err != nil {
		h.logger.Error("failed to build dashboard overview", "error", err, "org_id", orgID)
		envelope.Error(w, http.StatusInternalServerError, "failed to build overview")
		return
	}
	envelope.OK(w, overview)
}
