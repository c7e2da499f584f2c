package orgclient

import (
	"context"
	"strings"
)

// NotificationRequest is a direct message from an admin to one employee.
type NotificationRequest struct {
	EmployeeID int64  `json:"employee_id"`
	Subject    string `json:"subject"`
	Message    string `json:"message"`
}

// Validate checks the notification locally before any request is made.
func (r *NotificationRequest) Validate() error {
	fields := map[string][]string{}
	if r.EmployeeID <= 0 {
		fields["employee_id"] = append(fields["employee_id"], "an employee is required")
	}
	if strings.TrimSpace(r.Subject) == "" {
		fields["subject"] = append(fields["subject"], "a subject is required")
	}
	if strings.TrimSpace(r.Message) == "" {
		fields["message"] = append(fields["message"], "a message is required")
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// SendNotification emails an employee directly. Requires an organization
// admin session.
func (c *Client) SendNotification(ctx context.Context, req NotificationRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	return c.post(ctx, "/api/org/notifications", req, nil)
}
