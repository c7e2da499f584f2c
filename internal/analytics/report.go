package analytics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/thrivewell/wellness-platform/internal/appointments"
	"github.com/thrivewell/wellness-platform/internal/employees"
	"github.com/thrivewell/wellness-platform/internal/http/envelope"
	"github.com/thrivewell/wellness-platform/internal/tenancy"
)

// EmployeeBreakdown summarizes the roster for a report.
type EmployeeBreakdown struct {
	Total    int `json:"total"`
	Active   int `json:"active"`
	Enrolled int `json:"enrolled"`
	HighRisk int `json:"high_risk"`
}

// Report is the exportable engagement summary, optionally bounded to a
// created-at date range for the appointment numbers.
type Report struct {
	StartDate    string                   `json:"start_date,omitempty"`
	EndDate      string                   `json:"end_date,omitempty"`
	GeneratedAt  time.Time                `json:"generated_at"`
	Appointments *appointments.Statistics `json:"appointments"`
	Employees    EmployeeBreakdown        `json:"employees"`
}

// Report assembles the engagement report for an org. start and end bound the
// appointment statistics; nil means all time.
func (s *Service) Report(ctx context.Context, orgID string, start, end *time.Time) (*Report, error) {
	stats, err := s.appointments.Statistics(ctx, orgID, start, end)
	if err != nil {
		return nil, fmt.Errorf("analytics: appointment stats: %w", err)
	}

	breakdown := EmployeeBreakdown{}
	counts := []struct {
		filter employees.ListFilter
		out    *int
	}{
		{employees.ListFilter{}, &breakdown.Total},
		{employees.ListFilter{EngagementStatus: employees.EngagementActive}, &breakdown.Active},
		{employees.ListFilter{EnrollmentStatus: employees.EnrollmentEnrolled}, &breakdown.Enrolled},
		{employees.ListFilter{RiskCategory: employees.RiskHigh}, &breakdown.HighRisk},
	}
	for _, c := range counts {
		c.filter.Page = 1
		c.filter.PerPage = 1
		_, total, err := s.employees.List(ctx, orgID, c.filter)
		if err != nil {
			return nil, fmt.Errorf("analytics: employee count: %w", err)
		}
		*c.out = total
	}

	return &Report{
		GeneratedAt:  time.Now().UTC(),
		Appointments: stats,
		Employees:    breakdown,
	}, nil
}

// Report serves GET /dashboard/reports. start_date and end_date are optional
// but must be supplied together; the end date is inclusive.
func (h *Handler) Report(w http.ResponseWriter, r *http.Request) {
	orgID, ok := tenancy.OrgIDFromContext(r.Context())
	if !ok {
		envelope.Error(w, http.StatusUnauthorized, "missing organization context")
		return
	}

	startStr := r.URL.Query().Get("start_date")
	endStr := r.URL.Query().Get("end_date")
	if (startStr == "") != (endStr == "") {
		envelope.Error(w, http.StatusBadRequest, "start_date and end_date must be supplied together")
		return
	}

	var start, end *time.Time
	if startStr != "" {
		s, err := time.Parse("2006-01-02", startStr)
		if err != nil {
			envelope.Error(w, http.StatusBadRequest, "start_date must be a YYYY-MM-DD date")
			return
		}
		e, err := time.Parse("2006-01-02", endStr)
		if err != nil {
			envelope.Error(w, http.StatusBadRequest, "end_date must be a YYYY-MM-DD date")
			return
		}
		e = e.Add(24 * time.Hour)
		start, end = &s, &e
	}

	report, err := h.service.Report(r.Context(), orgID, start, end)
	if err != nil {
		h.logger.Error("failed to build report", "error", err, "org_id", orgID)
		envelope.Error(w, http.StatusInternalServerError, "failed to build report")
		return
	}
	report.StartDate = startStr
	report.EndDate = endStr
	envelope.OK(w, report)
}
