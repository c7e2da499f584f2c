package notify

import (
	"context"
	"fmt"

	"github.com/thrivewell/wellness-platform/internal/appointments"
	"github.com/thrivewell/wellness-platform/pkg/logging"
)

// Service sends appointment lifecycle emails to the employee and the
// provider. Sending is best-effort: the triggering request has already
// succeeded, so failures are logged and swallowed.
type Service struct {
	email  EmailSender
	logger *logging.Logger
}

// NewService creates a notification service.
func NewService(email EmailSender, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{email: email, logger: logger}
}

// AppointmentBooked emails both participants about a new booking.
func (s *Service) AppointmentBooked(ctx context.Context, appt *appointments.Appointment) {
	subject := fmt.Sprintf("Appointment booked for %s at %s", appt.AppointmentDate, appt.AppointmentTime)
	body := fmt.Sprintf(`A %s appointment has been booked.

Date: %s
Time: %s
Duration: %d minutes%s

— ThriveWell`,
		appt.AppointmentType, appt.AppointmentDate, appt.AppointmentTime,
		appt.DurationMinutes, s.participantLines(appt))

	s.sendToParticipants(ctx, appt, subject, body)
}

// AppointmentCancelled emails both participants about a cancellation.
func (s *Service) AppointmentCancelled(ctx context.Context, appt *appointments.Appointment) {
	subject := fmt.Sprintf("Appointment on %s cancelled", appt.AppointmentDate)
	body := fmt.Sprintf(`The %s appointment scheduled for %s at %s has been cancelled.

Reason: %s%s

— ThriveWell`,
		appt.AppointmentType, appt.AppointmentDate, appt.AppointmentTime,
		appt.CancellationReason, s.participantLines(appt))

	s.sendToParticipants(ctx, appt, subject, body)
}

func (s *Service) participantLines(appt *appointments.Appointment) string {
	out := ""
	if appt.Employee != nil {
		out += fmt.Sprintf("\nEmployee: %s %s", appt.Employee.Firstname, appt.Employee.Lastname)
	}
	if appt.ProviderDetails != nil {
		out += fmt.Sprintf("\nProvider: %s", appt.ProviderDetails.Name)
	}
	return out
}

func (s *Service) sendToParticipants(ctx context.Context, appt *appointments.Appointment, subject, body string) {
	if s.email == nil {
		return
	}

	type recipient struct {
		email string
		name  string
	}
	var recipients []recipient
	if appt.Employee != nil && appt.Employee.Email != "" {
		recipients = append(recipients, recipient{
			email: appt.Employee.Email,
			name:  fmt.Sprintf("%s %s", appt.Employee.Firstname, appt.Employee.Lastname),
		})
	}
	if appt.ProviderDetails != nil && appt.ProviderDetails.Email != "" {
		recipients = append(recipients, recipient{
			email: appt.ProviderDetails.Email,
			name:  appt.ProviderDetails.Name,
		})
	}

	for _, r := range recipients {
		msg := EmailMessage{
			To:      r.email,
			ToName:  r.name,
			Subject: subject,
			Body:    body,
		}
		if err := s.email.Send(ctx, msg); err != nil {
			s.logger.Error("notify: appointment email failed", "error", err, "to", r.email, "appointment_id", appt.ID)
			continue
		}
		s.logger.Info("notify: appointment email sent", "to", r.email, "appointment_id", appt.ID)
	}
}
