package appointments

import (
	"context"
	"sort"
	"sync"
	"time"
)

// ListFilter narrows appointment queries. Zero values mean "no filter".
type ListFilter struct {
	Status     Status
	Type       Type
	ProviderID int64
	EmployeeID int64
	Filter     string // "upcoming" or "past", relative to today
	StartDate  string // YYYY-MM-DD inclusive
	EndDate    string // YYYY-MM-DD inclusive
	Page       int
	PerPage    int
}

// Repository defines appointment storage. All reads and writes are scoped to
// one organization; transition rules are enforced on write so a terminal
// record can never change again regardless of caller.
type Repository interface {
	Create(ctx context.Context, orgID string, req *BookingRequest, employeeID int64) (*Appointment, error)
	GetForOrg(ctx context.Context, orgID string, id int64) (*Appointment, error)
	List(ctx context.Context, orgID string, filter ListFilter) ([]*Appointment, int, error)
	UpdateStatus(ctx context.Context, orgID string, id int64, update *StatusUpdate) (*Appointment, error)
	Statistics(ctx context.Context, orgID string, start, end *time.Time) (*Statistics, error)
	Providers(ctx context.Context, orgID string, typeFilter string) ([]Provider, error)
	Partners(ctx context.Context, orgID string) ([]Provider, error)
}

// InMemoryRepository keeps appointments in memory. It backs handler tests and
// lets the API run without a database in development.
type InMemoryRepository struct {
	mu        sync.RWMutex
	nextID    int64
	records   map[int64]*Appointment
	orgs      map[int64]string
	providers map[string][]Provider
	partners  map[string][]Provider
	now       func() time.Time
}

// NewInMemoryRepository creates an empty in-memory repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		nextID:    1,
		records:   make(map[int64]*Appointment),
		orgs:      make(map[int64]string),
		providers: make(map[string][]Provider),
		partners:  make(map[string][]Provider),
		now:       time.Now,
	}
}

// SeedProviders registers bookable providers for an org.
func (r *InMemoryRepository) SeedProviders(orgID string, providers ...Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[orgID] = append(r.providers[orgID], providers...)
}

// SeedPartners registers partner organizations for an org.
func (r *InMemoryRepository) SeedPartners(orgID string, partners ...Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.partners[orgID] = append(r.partners[orgID], partners...)
}

// SetClock overrides the time source for tests.
func (r *InMemoryRepository) SetClock(now func() time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.now = now
}

// Create stores a new scheduled appointment.
func (r *InMemoryRepository) Create(ctx context.Context, orgID string, req *BookingRequest, employeeID int64) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var details *Provider
	for i := range r.providers[orgID] {
		if r.providers[orgID][i].ID == req.ProviderID {
			p := r.providers[orgID][i]
			details = &p
			break
		}
	}
	if details == nil && len(r.providers[orgID]) > 0 {
		return nil, ErrProviderNotFound
	}

	appt := &Appointment{
		ID:              r.nextID,
		EmployeeID:      employeeID,
		ProviderID:      req.ProviderID,
		ProviderType:    req.ProviderType,
		AppointmentType: req.AppointmentType,
		AppointmentDate: req.AppointmentDate,
		AppointmentTime: req.AppointmentTime,
		DurationMinutes: req.DurationMinutes,
		Status:          StatusScheduled,
		Notes:           req.Notes,
		CreatedAt:       r.now().UTC(),
		ProviderDetails: details,
	}
	r.records[appt.ID] = appt
	r.orgs[appt.ID] = orgID
	r.nextID++

	out := *appt
	return &out, nil
}

// GetForOrg returns an appointment scoped to the org.
func (r *InMemoryRepository) GetForOrg(ctx context.Context, orgID string, id int64) (*Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	appt, ok := r.records[id]
	if !ok || r.orgs[id] != orgID {
		return nil, ErrNotFound
	}
	out := *appt
	return &out, nil
}

// List returns a page of matching appointments plus the unpaged total,
// ordered by date then time.
func (r *InMemoryRepository) List(ctx context.Context, orgID string, filter ListFilter) ([]*Appointment, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	today := r.now().UTC().Format("2006-01-02")

	var matched []*Appointment
	for id, appt := range r.records {
		if r.orgs[id] != orgID {
			continue
		}
		if !matches(appt, filter, today) {
			continue
		}
		out := *appt
		matched = append(matched, &out)
	}

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].AppointmentDate != matched[j].AppointmentDate {
			return matched[i].AppointmentDate < matched[j].AppointmentDate
		}
		if matched[i].AppointmentTime != matched[j].AppointmentTime {
			return matched[i].AppointmentTime < matched[j].AppointmentTime
		}
		return matched[i].ID < matched[j].ID
	})

	total := len(matched)
	page, perPage := normalizePage(filter.Page, filter.PerPage)
	start := (page - 1) * perPage
	if start >= total {
		return []*Appointment{}, total, nil
	}
	end := start + perPage
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func matches(appt *Appointment, filter ListFilter, today string) bool {
	if filter.Status != "" && appt.Status != filter.Status {
		return false
	}
	if filter.Type != "" && appt.AppointmentType != filter.Type {
		return false
	}
	if filter.ProviderID != 0 && appt.ProviderID != filter.ProviderID {
		return false
	}
	if filter.EmployeeID != 0 && appt.EmployeeID != filter.EmployeeID {
		return false
	}
	switch filter.Filter {
	case "upcoming":
		if appt.AppointmentDate < today || IsTerminal(appt.Status) {
			return false
		}
	case "past":
		if appt.AppointmentDate >= today {
			return false
		}
	}
	if filter.StartDate != "" && appt.AppointmentDate < filter.StartDate {
		return false
	}
	if filter.EndDate != "" && appt.AppointmentDate > filter.EndDate {
		return false
	}
	return true
}

func normalizePage(page, perPage int) (int, int) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}
	return page, perPage
}

// UpdateStatus applies a validated lifecycle transition. The transition is
// re-checked against the stored record so stale or conflicting requests fail
// rather than corrupt a terminal state.
func (r *InMemoryRepository) UpdateStatus(ctx context.Context, orgID string, id int64, update *StatusUpdate) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	appt, ok := r.records[id]
	if !ok || r.orgs[id] != orgID {
		return nil, ErrNotFound
	}
	if err := update.Validate(appt.Status); err != nil {
		return nil, err
	}

	appt.Status = update.Status
	if update.Notes != "" {
		appt.Notes = update.Notes
	}
	if update.Status == StatusCancelled {
		appt.CancellationReason = update.CancellationReason
	}
	now := r.now().UTC()
	appt.UpdatedAt = &now

	out := *appt
	return &out, nil
}

// Statistics aggregates counts for the org, optionally within [start, end).
func (r *InMemoryRepository) Statistics(ctx context.Context, orgID string, start, end *time.Time) (*Statistics, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	today := r.now().UTC().Format("2006-01-02")
	stats := &Statistics{}
	for id, appt := range r.records {
		if r.orgs[id] != orgID {
			continue
		}
		if start != nil && appt.CreatedAt.Before(*start) {
			continue
		}
		if end != nil && !appt.CreatedAt.Before(*end) {
			continue
		}
		stats.Total++
		switch appt.Status {
		case StatusScheduled:
			stats.Scheduled++
		case StatusConfirmed:
			stats.Confirmed++
		case StatusCompleted:
			stats.Completed++
		case StatusCancelled:
			stats.Cancelled++
		case StatusNoShow:
			stats.NoShow++
		}
		if appt.AppointmentDate >= today && !IsTerminal(appt.Status) {
			stats.Upcoming++
		}
	}
	if stats.Total > 0 {
		stats.CompletionRate = float64(stats.Completed) / float64(stats.Total) * 100
	}
	return stats, nil
}

// Providers lists bookable providers for the org, optionally by type.
func (r *InMemoryRepository) Providers(ctx context.Context, orgID string, typeFilter string) ([]Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Provider
	for _, p := range r.providers[orgID] {
		if typeFilter != "" && p.Type != typeFilter {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

// Partners lists partner organizations bookable by the org's admins.
func (r *InMemoryRepository) Partners(ctx context.Context, orgID string) ([]Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Provider(nil), r.partners[orgID]...), nil
}
