package employees

import (
	"strings"
	"time"
)

// Enrollment and engagement states tracked per employee.
const (
	EnrollmentEnrolled   = "enrolled"
	EnrollmentPending    = "pending"
	EnrollmentUnenrolled = "unenrolled"

	EngagementActive   = "active"
	EngagementInactive = "inactive"

	RiskLow     = "low"
	RiskMedium  = "medium"
	RiskHigh    = "high"
	RiskUnknown = "unknown"
)

// Employee is an org member eligible for wellness programs. Risk category and
// last activity are computed server-side; clients only display them.
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
	LastActiveAt       *time.Time `json:"last_active_at"`
	CreatedAt          time.Time  `json:"created_at"`
}

// CreateEmployeeRequest is the request body for enrolling an employee.
type CreateEmployeeRequest struct {
	Firstname  string `json:"firstname"`
	Lastname   string `json:"lastname"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Department string `json:"department"`
	Position   string `json:"position"`
}

// Normalize trims whitespace and lowercases the email.
func (r *CreateEmployeeRequest) Normalize() {
	r.Firstname = strings.TrimSpace(r.Firstname)
	r.Lastname = strings.TrimSpace(r.Lastname)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.Phone = strings.TrimSpace(r.Phone)
	r.Department = strings.TrimSpace(r.Department)
	r.Position = strings.TrimSpace(r.Position)
}

// Validate checks required fields and reports every failure at once.
func (r *CreateEmployeeRequest) Validate() error {
	ve := &ValidationError{Fields: map[string][]string{}}
	if r.Firstname == "" {
		ve.Add("firstname", "firstname is required")
	}
	if r.Lastname == "" {
		ve.Add("lastname", "lastname is required")
	}
	if r.Email == "" {
		ve.Add("email", "email is required")
	} else if !strings.Contains(r.Email, "@") {
		ve.Add("email", "email must be a valid address")
	}
	if len(ve.Fields) > 0 {
		return ve
	}
	return nil
}

// AssignProgramsRequest replaces an employee's wellness program assignments.
type AssignProgramsRequest struct {
	Programs []string `json:"programs"`
}

// Normalize drops empty entries and trims the rest.
func (r *AssignProgramsRequest) Normalize() {
	out := r.Programs[:0]
	for _, p := range r.Programs {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	r.Programs = out
}
