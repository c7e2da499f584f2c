// Package appointments implements the appointment lifecycle: booking,
// status transitions, querying, and statistics.
package appointments

import "time"

// Status is the lifecycle state of an appointment.
type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusNoShow    Status = "no_show"
)

// Type categorizes the appointment.
type Type string

const (
	TypeCoaching     Type = "coaching"
	TypeMentalHealth Type = "mental_health"
	TypeNutrition    Type = "nutrition"
	TypeGeneral      Type = "general"
	TypeConsultation Type = "consultation"
)

// ProviderType tags who delivers the appointment.
type ProviderType string

const (
	ProviderTypeUser     ProviderType = "user"
	ProviderTypeOrgAdmin ProviderType = "organization_admin"
)

// ValidStatus reports whether s is a recognized lifecycle state.
func ValidStatus(s Status) bool {
	switch s {
	case StatusScheduled, StatusConfirmed, StatusCompleted, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}

// ValidType reports whether t is a recognized appointment type.
func ValidType(t Type) bool {
	switch t {
	case TypeCoaching, TypeMentalHealth, TypeNutrition, TypeGeneral, TypeConsultation:
		return true
	}
	return false
}

// ValidProviderType reports whether p is a recognized provider type.
func ValidProviderType(p ProviderType) bool {
	return p == ProviderTypeUser || p == ProviderTypeOrgAdmin
}

// Provider is a bookable staff member or partner-organization admin.
type Provider struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
	Type  string `json:"type"`
}

// PersonSummary is the denormalized participant view attached for display.
type PersonSummary struct {
	ID        int64  `json:"id"`
	Firstname string `json:"firstname"`
	Lastname  string `json:"lastname"`
	Email     string `json:"email"`
}

// Appointment is the lifecycle record. Dates and times are wire-format
// strings: appointment_date is YYYY-MM-DD, appointment_time is HH:MM.
// The server owns the record; clients hold read-only projections.
type Appointment struct {
	ID                    int64          `json:"id"`
	EmployeeID            int64          `json:"employee_id"`
	ProviderID            int64          `json:"provider_id"`
	ProviderType          ProviderType   `json:"provider_type"`
	PartnerOrganizationID *int64         `json:"partner_organization_id,omitempty"`
	AppointmentType       Type           `json:"appointment_type"`
	AppointmentDate       string         `json:"appointment_date"`
	AppointmentTime       string         `json:"appointment_time"`
	DurationMinutes       int            `json:"duration_minutes"`
	Status                Status         `json:"status"`
	Notes                 string         `json:"notes,omitempty"`
	CancellationReason    string         `json:"cancellation_reason,omitempty"`
	CreatedAt             time.Time      `json:"created_at"`
	UpdatedAt             *time.Time     `json:"updated_at,omitempty"`
	ProviderDetails       *Provider      `json:"provider_details,omitempty"`
	Employee              *PersonSummary `json:"employee,omitempty"`
	Provider              *PersonSummary `json:"provider,omitempty"`
}

// Statistics aggregates appointment counts for an organization.
type Statistics struct {
	Total          int64   `json:"total"`
	Scheduled      int64   `json:"scheduled"`
	Confirmed      int64   `json:"confirmed"`
	Completed      int64   `json:"completed"`
	Cancelled      int64   `json:"cancelled"`
	NoShow         int64   `json:"no_show"`
	Upcoming       int64   `json:"upcoming"`
	CompletionRate float64 `json:"completion_rate"`
}
