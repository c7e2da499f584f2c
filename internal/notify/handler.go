package notify

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/thrivewell/wellness-platform/internal/employees"
	"github.com/thrivewell/wellness-platform/internal/http/envelope"
	"github.com/thrivewell/wellness-platform/internal/tenancy"
	"github.com/thrivewell/wellness-platform/pkg/logging"
)

// Handler serves the admin notification endpoint: a direct email to one
// employee on the roster.
type Handler struct {
	email     EmailSender
	employees employees.Repository
	logger    *logging.Logger
}

// NewNotificationHandler creates the notification endpoint handler.
func NewNotificationHandler(email EmailSender, repo employees.Repository, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{email: email, employees: repo, logger: logger}
}

type sendRequest struct {
	EmployeeID int64  `json:"employee_id"`
	Subject    string `json:"subject"`
	Message    string `json:"message"`
}

func (req *sendRequest) validate() map[string][]string {
	fields := map[string][]string{}
	if req.EmployeeID <= 0 {
		fields["employee_id"] = append(fields["employee_id"], "an employee is required")
	}
	if strings.TrimSpace(req.Subject) == "" {
		fields["subject"] = append(fields["subject"], "a subject is required")
	}
	if strings.TrimSpace(req.Message) == "" {
		fields["message"] = append(fields["message"], "a message is required")
	}
	return fields
}

// Send handles POST /notifications. Unlike the lifecycle emails, this is an
// explicit operator action, so a failed send is reported instead of
// swallowed.
func (h *Handler) Send(w http.ResponseWriter, r *http.Request) {
	orgID, ok := tenancy.OrgIDFromContext(r.Context())
	if !ok {
		envelope.Error(w, http.StatusUnauthorized, "missing organization context")
		return
	}

	var req sendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		envelope.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if fields := req.validate(); len(fields) > 0 {
		envelope.ValidationError(w, "validation failed", fields)
		return
	}

	emp, err := h.employees.GetForOrg(r.Context(), orgID, req.EmployeeID)
	if errors.Is(err, employees.ErrNotFound) {
		envelope.Error(w, http.StatusNotFound, "employee not found")
		return
	}
	if err != nil {
		h.logger.Error("failed to load employee for notification", "error", err, "org_id", orgID)
		envelope.Error(w, http.StatusInternalServerError, "failed to send notification")
		return
	}

	if h.email == nil {
		envelope.Error(w, http.StatusServiceUnavailable, "notifications are not configured")
		return
	}

	msg := EmailMessage{
		To:      emp.Email,
		ToName:  emp.Firstname + " " + emp.Lastname,
		Subject: strings.TrimSpace(req.Subject),
		Body:    strings.TrimSpace(req.Message),
	}
	if err := h.email.Send(r.Context(), msg); err != nil {
		h.logger.Error("notification send failed", "error", err, "employee_id", emp.ID)
		envelope.Error(w, http.StatusBadGateway, "failed to send notification")
		return
	}

	h.logger.Info("notification sent", "org_id", orgID, "employee_id", emp.ID)
	envelope.OKMessage(w, "notification sent")
}
