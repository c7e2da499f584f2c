package orgclient

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DefaultNotes is substituted when a booking is submitted with no notes.
const DefaultNotes = "no notes provided"

// MaxNoteLength bounds free-text notes and cancellation reasons.
const MaxNoteLength = 500

// AllowedDurations is the fixed set of bookable durations in minutes.
var AllowedDurations = []int{15, 30, 45, 60, 90, 120}

// AllowedTransitions returns the lifecycle states an appointment in the
// given state may move to. Completed and cancelled are terminal. no_show is
// also terminal and never a permitted target: the scheduling backend assigns
// it out of band.
func AllowedTransitions(from Status) []Status {
	switch from {
	case StatusScheduled:
		return []Status{StatusConfirmed, StatusCompleted, StatusCancelled}
	case StatusConfirmed:
		return []Status{StatusCompleted, StatusCancelled}
	default:
		return nil
	}
}

// CanTransition reports whether an appointment may move from one state to
// another.
func CanTransition(from, to Status) bool {
	for _, s := range AllowedTransitions(from) {
		if s == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are permitted.
func IsTerminal(s Status) bool {
	return len(AllowedTransitions(s)) == 0
}

// AppointmentListParams filters appointment listings. Zero values are
// omitted from the query.
type AppointmentListParams struct {
	Status     Status
	Type       AppointmentType
	ProviderID int64
	// Filter selects a relative window: "upcoming", "past" or "today".
	Filter    string
	StartDate string // YYYY-MM-DD
	EndDate   string // YYYY-MM-DD
	Page      int
	PerPage   int
}

func (p AppointmentListParams) query() url.Values {
	q := url.Values{}
	if p.Status != "" {
		q.Set("status", string(p.Status))
	}
	if p.Type != "" {
		q.Set("type", string(p.Type))
	}
	if p.ProviderID > 0 {
		q.Set("provider_id", strconv.FormatInt(p.ProviderID, 10))
	}
	if p.Filter != "" {
		q.Set("filter", p.Filter)
	}
	if p.StartDate != "" {
		q.Set("start_date", p.StartDate)
	}
	if p.EndDate != "" {
		q.Set("end_date", p.EndDate)
	}
	if p.Page > 0 {
		q.Set("page", strconv.Itoa(p.Page))
	}
	if p.PerPage > 0 {
		q.Set("per_page", strconv.Itoa(p.PerPage))
	}
	return q
}

// ListAppointments lists every appointment in the organization. Requires an
// organization admin session.
func (c *Client) ListAppointments(ctx context.Context, params AppointmentListParams) ([]Appointment, Page, error) {
	var items []Appointment
	page, err := c.getList(ctx, "/api/org/appointments/", params.query(), &items)
	return items, page, err
}

// MyAppointments lists appointments where the logged-in admin is the
// provider.
func (c *Client) MyAppointments(ctx context.Context, params AppointmentListParams) ([]Appointment, Page, error) {
	var items []Appointment
	page, err := c.getList(ctx, "/api/org/appointments/my-appointments", params.query(), &items)
	return items, page, err
}

// EmployeeAppointments lists the logged-in employee's own appointments.
func (c *Client) EmployeeAppointments(ctx context.Context, params AppointmentListParams) ([]Appointment, Page, error) {
	var items []Appointment
	page, err := c.getList(ctx, "/api/org/employee/appointments/", params.query(), &items)
	return items, page, err
}

// GetAppointment fetches a single appointment by ID.
func (c *Client) GetAppointment(ctx context.Context, id int64) (*Appointment, error) {
	var appt Appointment
	err := c.get(ctx, fmt.Sprintf("/api/org/appointments/%d", id), nil, &appt)
	if err != nil {
		return nil, err
	}
	return &appt, nil
}

// AvailableProviders lists providers the logged-in employee can book with.
func (c *Client) AvailableProviders(ctx context.Context) ([]Provider, error) {
	var providers []Provider
	err := c.get(ctx, "/api/org/employee/appointments/available-providers", nil, &providers)
	return providers, err
}

// AvailablePartners lists partner organizations offering appointments.
// Requires an organization admin session.
func (c *Client) AvailablePartners(ctx context.Context) ([]Provider, error) {
	var partners []Provider
	err := c.get(ctx, "/api/org/appointments/available-partners", nil, &partners)
	return partners, err
}

// BookingRequest is a request to book a new appointment.
type BookingRequest struct {
	ProviderID      int64           `json:"provider_id"`
	ProviderType    ProviderType    `json:"provider_type"`
	AppointmentType AppointmentType `json:"appointment_type"`
	AppointmentDate string          `json:"appointment_date"` // YYYY-MM-DD
	AppointmentTime string          `json:"appointment_time"` // HH:MM
	DurationMinutes int             `json:"duration_minutes"`
	Notes           string          `json:"notes,omitempty"`
}

// Validate checks the booking against today's calendar date and, when a
// provider list fetched via AvailableProviders or AvailablePartners is
// supplied, confirms the provider is one of the offered options. It returns
// a *ValidationError on failure so a booking with a past date or unsupported
// duration never leaves the client.
func (r *BookingRequest) Validate(today time.Time, providers []Provider) error {
	fields := map[string][]string{}

	if r.ProviderID <= 0 {
		fields["provider_id"] = append(fields["provider_id"], "a provider is required")
	} else if providers != nil && !providerOffered(r.ProviderID, providers) {
		fields["provider_id"] = append(fields["provider_id"], "provider is not available")
	}
	if r.ProviderType != ProviderTypeUser && r.ProviderType != ProviderTypeOrgAdmin {
		fields["provider_type"] = append(fields["provider_type"], "unknown provider type")
	}
	switch r.AppointmentType {
	case TypeCoaching, TypeMentalHealth, TypeNutrition, TypeGeneral, TypeConsultation:
	default:
		fields["appointment_type"] = append(fields["appointment_type"], "unknown appointment type")
	}

	if r.AppointmentDate == "" {
		fields["appointment_date"] = append(fields["appointment_date"], "a date is required")
	} else if date, err := time.Parse("2006-01-02", r.AppointmentDate); err != nil {
		fields["appointment_date"] = append(fields["appointment_date"], "must be a YYYY-MM-DD date")
	} else if dayBefore(date, today) {
		fields["appointment_date"] = append(fields["appointment_date"], "must not be in the past")
	}

	if r.AppointmentTime == "" {
		fields["appointment_time"] = append(fields["appointment_time"], "a time is required")
	} else if _, err := time.Parse("15:04", r.AppointmentTime); err != nil {
		fields["appointment_time"] = append(fields["appointment_time"], "must be an HH:MM time")
	}

	if !durationAllowed(r.DurationMinutes) {
		fields["duration_minutes"] = append(fields["duration_minutes"], "must be one of 15, 30, 45, 60, 90 or 120")
	}
	if len(r.Notes) > MaxNoteLength {
		fields["notes"] = append(fields["notes"], "must be 500 characters or fewer")
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func providerOffered(id int64, providers []Provider) bool {
	for _, p := range providers {
		if p.ID == id {
			return true
		}
	}
	return false
}

// BookAppointment books an appointment for the logged-in employee. The
// request is validated locally first: an invalid booking never reaches the
// network. Pass the provider list from AvailableProviders or
// AvailablePartners to also confirm the provider is actually offered; nil
// skips that check. Empty notes are replaced with DefaultNotes.
func (c *Client) BookAppointment(ctx context.Context, req BookingRequest, providers []Provider) (*Appointment, error) {
	req.Notes = strings.TrimSpace(req.Notes)
	if req.Notes == "" {
		req.Notes = DefaultNotes
	}
	if err := req.Validate(time.Now(), providers); err != nil {
		return nil, err
	}

	var appt Appointment
	if err := c.post(ctx, "/api/org/employee/appointments/", req, &appt); err != nil {
		return nil, err
	}
	c.logger.Info("appointment booked", "appointment_id", appt.ID, "date", appt.AppointmentDate)
	return &appt, nil
}

// StatusUpdate is a requested lifecycle transition.
type StatusUpdate struct {
	Status             Status `json:"status"`
	Notes              string `json:"notes,omitempty"`
	CancellationReason string `json:"cancellation_reason,omitempty"`
}

// Validate checks the transition against the appointment's current state. A
// move to cancelled requires a non-empty trimmed reason.
func (u *StatusUpdate) Validate(current Status) error {
	fields := map[string][]string{}

	switch u.Status {
	case StatusScheduled, StatusConfirmed, StatusCompleted, StatusCancelled, StatusNoShow:
		if !CanTransition(current, u.Status) {
			if IsTerminal(current) {
				fields["status"] = append(fields["status"], "appointment is "+string(current)+" and can no longer change")
			} else {
				fields["status"] = append(fields["status"], "cannot move from "+string(current)+" to "+string(u.Status))
			}
		}
	default:
		fields["status"] = append(fields["status"], "unknown status")
	}

	if u.Status == StatusCancelled && strings.TrimSpace(u.CancellationReason) == "" {
		fields["cancellation_reason"] = append(fields["cancellation_reason"], "a cancellation reason is required")
	}
	if len(u.CancellationReason) > MaxNoteLength {
		fields["cancellation_reason"] = append(fields["cancellation_reason"], "must be 500 characters or fewer")
	}
	if len(u.Notes) > MaxNoteLength {
		fields["notes"] = append(fields["notes"], "must be 500 characters or fewer")
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// UpdateAppointmentStatus moves an appointment to a new lifecycle state.
// current is the appointment's state as last seen by the caller; the
// transition is validated against it locally, so an impossible move is
// rejected without a network call. The server revalidates against its own
// copy of the record.
func (c *Client) UpdateAppointmentStatus(ctx context.Context, id int64, current Status, update StatusUpdate) (*Appointment, error) {
	if err := update.Validate(current); err != nil {
		return nil, err
	}

	var appt Appointment
	if err := c.put(ctx, fmt.Sprintf("/api/org/appointments/%d/status", id), update, &appt); err != nil {
		return nil, err
	}
	return &appt, nil
}

func durationAllowed(minutes int) bool {
	for _, d := range AllowedDurations {
		if d == minutes {
			return true
		}
	}
	return false
}

// dayBefore compares calendar days, ignoring the time of day.
func dayBefore(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	if ay != by {
		return ay < by
	}
	if am != bm {
		return am < bm
	}
	return ad < bd
}
