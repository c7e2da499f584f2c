package orgclient

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

// AppointmentType categorizes the appointment.
type AppointmentType string

const (
	TypeCoaching     AppointmentType = "coaching"
	TypeMentalHealth AppointmentType = "mental_health"
	TypeNutrition    AppointmentType = "nutrition"
	TypeGeneral      AppointmentType = "general"
	TypeConsultation AppointmentType = "consultation"
)

// ProviderType tags who delivers an appointment.
type ProviderType string

const (
	ProviderTypeUser     ProviderType = "user"
	ProviderTypeOrgAdmin ProviderType = "organization_admin"
)

// User is the authenticated account attached to a session.
type User struct {
	ID        int64  `json:"id"`
	OrgID     string `json:"org_id"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	Firstname string `json:"firstname"`
	Lastname  string `json:"lastname"`
}

// Session is the result of a successful login or refresh.
type Session struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
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

// Appointment is the server's lifecycle record as seen by the client.
// appointment_date is YYYY-MM-DD and appointment_time is HH:MM.
type Appointment struct {
	ID                    int64           `json:"id"`
	EmployeeID            int64           `json:"employee_id"`
	ProviderID            int64           `json:"provider_id"`
	ProviderType          ProviderType    `json:"provider_type"`
	PartnerOrganizationID *int64          `json:"partner_organization_id,omitempty"`
	AppointmentType       AppointmentType `json:"appointment_type"`
	AppointmentDate       string          `json:"appointment_date"`
	AppointmentTime       string          `json:"appointment_time"`
	DurationMinutes       int             `json:"duration_minutes"`
	Status                Status          `json:"status"`
	Notes                 string          `json:"notes,omitempty"`
	CancellationReason    string          `json:"cancellation_reason,omitempty"`
	CreatedAt             time.Time       `json:"created_at"`
	UpdatedAt             *time.Time      `json:"updated_at,omitempty"`
	ProviderDetails       *Provider       `json:"provider_details,omitempty"`
	Employee              *PersonSummary  `json:"employee,omitempty"`
	Provider              *PersonSummary  `json:"provider,omitempty"`
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

// Employee is a wellness program participant.
type Employee struct {
	ID                 int64      `json:"id"`
	Firstname          string     `json:"firstname"`
	Lastname           string     `json:"lastname"`
	Email              string     `json:"email"`
	Phone              string     `json:"phone,omitempty"`
	Department         string     `json:"department,omitempty"`
	Position           string     `json:"position,omitempty"`
	EnrollmentStatus   string     `json:"enrollment_status"`
	EngagementStatus   string     `json:"engagement_status"`
	ProgramAssignments []string   `json:"program_assignments"`
	RiskCategory       string     `json:"risk_category"`
	LastActiveAt       *time.Time `json:"last_active_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
}

// Overview is the dashboard summary for an organization.
type Overview struct {
	TotalEmployees       int           `json:"total_employees"`
	ActiveEmployees      int           `json:"active_employees"`
	Appointments         *Statistics   `json:"appointments"`
	UpcomingAppointments []Appointment `json:"upcoming_appointments"`
}

// EmployeeBreakdown summarizes the roster for a report.
type EmployeeBreakdown struct {
	Total    int `json:"total"`
	Active   int `json:"active"`
	Enrolled int `json:"enrolled"`
	HighRisk int `json:"high_risk"`
}

// Report is the exportable engagement summary.
type Report struct {
	StartDate    string            `json:"start_date,omitempty"`
	EndDate      string            `json:"end_date,omitempty"`
	GeneratedAt  time.Time         `json:"generated_at"`
	Appointments *Statistics       `json:"appointments"`
	Employees    EmployeeBreakdown `json:"employees"`
}

// Page describes the slice of a paginated listing that was returned.
type Page struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	TotalPages int `json:"total_pages"`
}

// TotalPages computes the page count for total records at perPage per page,
// rounding up. It matches the server's pagination math.
func TotalPages(total, perPage int) int {
	if perPage <= 0 || total <= 0 {
		return 0
	}
	return (total + perPage - 1) / perPage
}
