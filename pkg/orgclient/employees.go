package orgclient

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// EmployeeListParams filters the employee roster. Zero values are omitted
// from the query.
type EmployeeListParams struct {
	Search           string
	Department       string
	EnrollmentStatus string
	EngagementStatus string
	RiskCategory     string
	Page             int
	PerPage          int
}

func (p EmployeeListParams) query() url.Values {
	q := url.Values{}
	if p.Search != "" {
		q.Set("search", p.Search)
	}
	if p.Department != "" {
		q.Set("department", p.Department)
	}
	if p.EnrollmentStatus != "" {
		q.Set("enrollment_status", p.EnrollmentStatus)
	}
	if p.EngagementStatus != "" {
		q.Set("engagement_status", p.EngagementStatus)
	}
	if p.RiskCategory != "" {
		q.Set("risk_category", p.RiskCategory)
	}
	if p.Page > 0 {
		q.Set("page", strconv.Itoa(p.Page))
	}
	if p.PerPage > 0 {
		q.Set("per_page", strconv.Itoa(p.PerPage))
	}
	return q
}

// ListEmployees lists the organization's employee roster. Requires an
// organization admin session.
func (c *Client) ListEmployees(ctx context.Context, params EmployeeListParams) ([]Employee, Page, error) {
	var items []Employee
	page, err := c.getList(ctx, "/api/org/employees/", params.query(), &items)
	return items, page, err
}

// CreateEmployeeRequest adds an employee to the roster.
type CreateEmployeeRequest struct {
	Firstname  string `json:"firstname"`
	Lastname   string `json:"lastname"`
	Email      string `json:"email"`
	Phone      string `json:"phone,omitempty"`
	Department string `json:"department,omitempty"`
	Position   string `json:"position,omitempty"`
}

// Validate checks the request locally so an obviously incomplete record
// never reaches the network.
func (r *CreateEmployeeRequest) Validate() error {
	fields := map[string][]string{}
	if strings.TrimSpace(r.Firstname) == "" {
		fields["firstname"] = append(fields["firstname"], "a first name is required")
	}
	if strings.TrimSpace(r.Lastname) == "" {
		fields["lastname"] = append(fields["lastname"], "a last name is required")
	}
	email := strings.TrimSpace(r.Email)
	if email == "" {
		fields["email"] = append(fields["email"], "an email is required")
	} else if !strings.Contains(email, "@") {
		fields["email"] = append(fields["email"], "must be a valid email address")
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// CreateEmployee adds an employee to the roster. Requires an organization
// admin session.
func (c *Client) CreateEmployee(ctx context.Context, req CreateEmployeeRequest) (*Employee, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	var emp Employee
	if err := c.post(ctx, "/api/org/employees/", req, &emp); err != nil {
		return nil, err
	}
	return &emp, nil
}

type assignProgramsRequest struct {
	Programs []string `json:"programs"`
}

// AssignPrograms replaces an employee's wellness program assignments.
// Requires an organization admin session.
func (c *Client) AssignPrograms(ctx context.Context, employeeID int64, programs []string) (*Employee, error) {
	var emp Employee
	err := c.post(ctx, fmt.Sprintf("/api/org/employees/%d/programs", employeeID), assignProgramsRequest{Programs: programs}, &emp)
	if err != nil {
		return nil, err
	}
	return &emp, nil
}
