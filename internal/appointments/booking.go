package appointments

import (
	"strings"
	"time"
)

// DefaultNotes is substituted when a booking arrives with no notes.
const DefaultNotes = "no notes provided"

// AllowedDurations is the fixed set of bookable durations in minutes.
var AllowedDurations = []int{15, 30, 45, 60, 90, 120}

// BookingRequest is a request to book a new appointment.
type BookingRequest struct {
	ProviderID      int64        `json:"provider_id"`
	ProviderType    ProviderType `json:"provider_type"`
	AppointmentType Type         `json:"appointment_type"`
	AppointmentDate string       `json:"appointment_date"` // YYYY-MM-DD
	AppointmentTime string       `json:"appointment_time"` // HH:MM
	DurationMinutes int          `json:"duration_minutes"`
	Notes           string       `json:"notes,omitempty"`
}

// Normalize trims free text and substitutes the default note for empty input.
func (r *BookingRequest) Normalize() {
	r.Notes = strings.TrimSpace(r.Notes)
	if r.Notes == "" {
		r.Notes = DefaultNotes
	}
}

// Validate checks the booking against today's calendar date and, when a
// provider list is supplied, confirms the provider is one of the offered
// options. It returns a *ValidationError on failure; no booking with a past
// date or missing required field should ever reach the server.
func (r *BookingRequest) Validate(today time.Time, providers []Provider) error {
	fields := map[string][]string{}

	if r.ProviderID <= 0 {
		fields["provider_id"] = append(fields["provider_id"], "a provider is required")
	} else if providers != nil && !providerOffered(r.ProviderID, providers) {
		fields["provider_id"] = append(fields["provider_id"], "provider is not available")
	}

	if !ValidProviderType(r.ProviderType) {
		fields["provider_type"] = append(fields["provider_type"], "unknown provider type")
	}
	if !ValidType(r.AppointmentType) {
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
