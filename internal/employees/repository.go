package employees

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// ListFilter narrows and pages an employee listing.
type ListFilter struct {
	Search           string
	Department       string
	EnrollmentStatus string
	EngagementStatus string
	RiskCategory     string
	Page             int
	PerPage          int
}

// Repository is the storage contract for employees.
type Repository interface {
	Create(ctx context.Context, orgID string, req *CreateEmployeeRequest) (*Employee, error)
	GetForOrg(ctx context.Context, orgID string, id int64) (*Employee, error)
	List(ctx context.Context, orgID string, filter ListFilter) ([]*Employee, int, error)
	AssignPrograms(ctx context.Context, orgID string, id int64, programs []string) (*Employee, error)
}

// InMemoryRepository keeps employees in process memory. Used by tests and by
// the server when no database is configured.
type InMemoryRepository struct {
	mu      sync.RWMutex
	nextID  int64
	records map[int64]*Employee
	orgs    map[int64]string
	now     func() time.Time
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		nextID:  1,
		records: make(map[int64]*Employee),
		orgs:    make(map[int64]string),
		now:     time.Now,
	}
}

// SetClock overrides the time source for tests.
func (r *InMemoryRepository) SetClock(now func() time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.now = now
}

// Create enrolls an employee. Email is unique within the org.
func (r *InMemoryRepository) Create(ctx context.Context, orgID string, req *CreateEmployeeRequest) (*Employee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, emp := range r.records {
		if r.orgs[id] == orgID && emp.Email == req.Email {
			return nil, ErrDuplicateEmail
		}
	}

	emp := &Employee{
		ID:                 r.nextID,
		Firstname:          req.Firstname,
		Lastname:           req.Lastname,
		Email:              req.Email,
		Phone:              req.Phone,
		Department:         req.Department,
		Position:           req.Position,
		EnrollmentStatus:   EnrollmentEnrolled,
		EngagementStatus:   EngagementActive,
		ProgramAssignments: []string{},
		RiskCategory:       RiskUnknown,
		CreatedAt:          r.now().UTC(),
	}
	r.records[emp.ID] = emp
	r.orgs[emp.ID] = orgID
	r.nextID++

	out := *emp
	return &out, nil
}

// GetForOrg returns an employee scoped to the org.
func (r *InMemoryRepository) GetForOrg(ctx context.Context, orgID string, id int64) (*Employee, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	emp, ok := r.records[id]
	if !ok || r.orgs[id] != orgID {
		return nil, ErrNotFound
	}
	out := *emp
	return &out, nil
}

// List returns a page of employees plus the unpaged total, ordered by
// lastname then firstname.
func (r *InMemoryRepository) List(ctx context.Context, orgID string, filter ListFilter) ([]*Employee, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []*Employee
	for id, emp := range r.records {
		if r.orgs[id] != orgID {
			continue
		}
		if filter.Department != "" && emp.Department != filter.Department {
			continue
		}
		if filter.EnrollmentStatus != "" && emp.EnrollmentStatus != filter.EnrollmentStatus {
			continue
		}
		if filter.EngagementStatus != "" && emp.EngagementStatus != filter.EngagementStatus {
			continue
		}
		if filter.RiskCategory != "" && emp.RiskCategory != filter.RiskCategory {
			continue
		}
		if filter.Search != "" && !matchesSearch(emp, filter.Search) {
			continue
		}
		matched = append(matched, emp)
	}

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].Lastname != matched[j].Lastname {
			return matched[i].Lastname < matched[j].Lastname
		}
		if matched[i].Firstname != matched[j].Firstname {
			return matched[i].Firstname < matched[j].Firstname
		}
		return matched[i].ID < matched[j].ID
	})

	total := len(matched)
	page, perPage := normalizePage(filter.Page, filter.PerPage)
	start := (page - 1) * perPage
	if start >= total {
		return []*Employee{}, total, nil
	}
	end := start + perPage
	if end > total {
		end = total
	}

	out := make([]*Employee, 0, end-start)
	for _, emp := range matched[start:end] {
		cp := *emp
		out = append(out, &cp)
	}
	return out, total, nil
}

// AssignPrograms replaces the employee's program assignments.
func (r *InMemoryRepository) AssignPrograms(ctx context.Context, orgID string, id int64, programs []string) (*Employee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	emp, ok := r.records[id]
	if !ok || r.orgs[id] != orgID {
		return nil, ErrNotFound
	}
	emp.ProgramAssignments = append([]string{}, programs...)

	out := *emp
	return &out, nil
}

func matchesSearch(emp *Employee, search string) bool {
	s := strings.ToLower(search)
	return strings.Contains(strings.ToLower(emp.Firstname), s) ||
		strings.Contains(strings.ToLower(emp.Lastname), s) ||
		strings.Contains(strings.ToLower(emp.Email), s)
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
