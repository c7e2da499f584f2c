package appointments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// pgDB is the slice of pgxpool used by the repository, split out so tests can
// inject pgxmock.
type pgDB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresRepository stores appointments in the relational database.
type PostgresRepository struct {
	db  pgDB
	now func() time.Time
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("appointments: pgx pool required")
	}
	return &PostgresRepository{db: pool, now: time.Now}
}

// NewPostgresRepositoryWithDB allows injecting a mock database for testing.
func NewPostgresRepositoryWithDB(db pgDB) *PostgresRepository {
	return &PostgresRepository{db: db, now: time.Now}
}

const appointmentColumns = `
	a.id, a.employee_id, a.provider_id, a.provider_type, a.partner_organization_id,
	a.appointment_type, a.appointment_date, a.appointment_time, a.duration_minutes,
	a.status, a.notes, a.cancellation_reason, a.created_at, a.updated_at,
	e.id, e.firstname, e.lastname, e.email,
	p.id, p.name, p.email, p.phone, p.type`

const appointmentJoins = `
	FROM appointments a
	LEFT JOIN employees e ON e.id = a.employee_id AND e.org_id = a.org_id
	LEFT JOIN providers p ON p.id = a.provider_id AND p.org_id = a.org_id`

// Create inserts a scheduled appointment after resolving the provider.
func (r *PostgresRepository) Create(ctx context.Context, orgID string, req *BookingRequest, employeeID int64) (*Appointment, error) {
	var providerID int64
	err := r.db.QueryRow(ctx,
		`SELECT id FROM providers WHERE id = $1 AND org_id = $2 AND active`,
		req.ProviderID, orgID,
	).Scan(&providerID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrProviderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("appointments: resolve provider: %w", err)
	}

	var id int64
	var createdAt time.Time
	err = r.db.QueryRow(ctx, `
		INSERT INTO appointments
			(org_id, employee_id, provider_id, provider_type, appointment_type,
			 appointment_date, appointment_time, duration_minutes, status, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at`,
		orgID, employeeID, req.ProviderID, string(req.ProviderType), string(req.AppointmentType),
		req.AppointmentDate, req.AppointmentTime, req.DurationMinutes, string(StatusScheduled), req.Notes,
	).Scan(&id, &createdAt)
	if err != nil {
		return nil, fmt.Errorf("appointments: insert failed: %w", err)
	}

	return r.GetForOrg(ctx, orgID, id)
}

// GetForOrg fetches an appointment with its display details, scoped to the org.
func (r *PostgresRepository) GetForOrg(ctx context.Context, orgID string, id int64) (*Appointment, error) {
	row := r.db.QueryRow(ctx,
		`SELECT`+appointmentColumns+appointmentJoins+`
		WHERE a.id = $1 AND a.org_id = $2`,
		id, orgID)

	appt, err := scanAppointment(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("appointments: select failed: %w", err)
	}
	return appt, nil
}

// List returns a page of appointments plus the unpaged total.
func (r *PostgresRepository) List(ctx context.Context, orgID string, filter ListFilter) ([]*Appointment, int, error) {
	where := []string{"a.org_id = $1"}
	args := []any{orgID}

	add := func(clause string, value any) {
		args = append(args, value)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}

	if filter.Status != "" {
		add("a.status = $%d", string(filter.Status))
	}
	if filter.Type != "" {
		add("a.appointment_type = $%d", string(filter.Type))
	}
	if filter.ProviderID != 0 {
		add("a.provider_id = $%d", filter.ProviderID)
	}
	if filter.EmployeeID != 0 {
		add("a.employee_id = $%d", filter.EmployeeID)
	}
	switch filter.Filter {
	case "upcoming":
		where = append(where, "a.appointment_date >= CURRENT_DATE", "a.status IN ('scheduled', 'confirmed')")
	case "past":
		where = append(where, "a.appointment_date < CURRENT_DATE")
	}
	if filter.StartDate != "" {
		add("a.appointment_date >= $%d", filter.StartDate)
	}
	if filter.EndDate != "" {
		add("a.appointment_date <= $%d", filter.EndDate)
	}

	whereSQL := " WHERE " + strings.Join(where, " AND ")

	var total int
	countSQL := `SELECT COUNT(*) FROM appointments a` + whereSQL
	if err := r.db.QueryRow(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("appointments: count failed: %w", err)
	}

	page, perPage := normalizePage(filter.Page, filter.PerPage)
	args = append(args, perPage, (page-1)*perPage)
	listSQL := fmt.Sprintf(`SELECT`+appointmentColumns+appointmentJoins+whereSQL+`
		ORDER BY a.appointment_date, a.appointment_time, a.id
		LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := r.db.Query(ctx, listSQL, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("appointments: list failed: %w", err)
	}
	defer rows.Close()

	var out []*Appointment
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("appointments: scan failed: %w", err)
		}
		out = append(out, appt)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("appointments: list rows: %w", err)
	}
	return out, total, nil
}

// UpdateStatus applies a lifecycle transition. The stored status is
// re-checked and the UPDATE is guarded on it, so a concurrent transition or a
// terminal record loses cleanly instead of being overwritten.
func (r *PostgresRepository) UpdateStatus(ctx context.Context, orgID string, id int64, update *StatusUpdate) (*Appointment, error) {
	var current Status
	err := r.db.QueryRow(ctx,
		`SELECT status FROM appointments WHERE id = $1 AND org_id = $2`,
		id, orgID,
	).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("appointments: load status: %w", err)
	}

	if err := update.Validate(current); err != nil {
		return nil, err
	}

	tag, err := r.db.Exec(ctx, `
		UPDATE appointments
		SET status = $1,
		    notes = CASE WHEN $2 <> '' THEN $2 ELSE notes END,
		    cancellation_reason = CASE WHEN $1 = 'cancelled' THEN $3 ELSE cancellation_reason END,
		    updated_at = NOW()
		WHERE id = $4 AND org_id = $5 AND status = $6`,
		string(update.Status), update.Notes, update.CancellationReason, id, orgID, string(current),
	)
	if err != nil {
		return nil, fmt.Errorf("appointments: update status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}

	return r.GetForOrg(ctx, orgID, id)
}

// Statistics aggregates appointment counts for the org, optionally limited to
// records created within [start, end).
func (r *PostgresRepository) Statistics(ctx context.Context, orgID string, start, end *time.Time) (*Statistics, error) {
	query := `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE status = 'scheduled'),
		       COUNT(*) FILTER (WHERE status = 'confirmed'),
		       COUNT(*) FILTER (WHERE status = 'completed'),
		       COUNT(*) FILTER (WHERE status = 'cancelled'),
		       COUNT(*) FILTER (WHERE status = 'no_show'),
		       COUNT(*) FILTER (WHERE appointment_date >= CURRENT_DATE AND status IN ('scheduled', 'confirmed'))
		FROM appointments WHERE org_id = $1`
	args := []any{orgID}
	if start != nil && end != nil {
		query += ` AND created_at >= $2 AND created_at < $3`
		args = append(args, *start, *end)
	}

	stats := &Statistics{}
	if err := r.db.QueryRow(ctx, query, args...).Scan(
		&stats.Total, &stats.Scheduled, &stats.Confirmed, &stats.Completed,
		&stats.Cancelled, &stats.NoShow, &stats.Upcoming,
	); err != nil {
		return nil, fmt.Errorf("appointments: statistics: %w", err)
	}
	if stats.Total > 0 {
		stats.CompletionRate = float64(stats.Completed) / float64(stats.Total) * 100
	}
	return stats, nil
}

// Providers lists active bookable providers for the org.
func (r *PostgresRepository) Providers(ctx context.Context, orgID string, typeFilter string) ([]Provider, error) {
	query := `SELECT id, name, email, COALESCE(phone, ''), type FROM providers WHERE org_id = $1 AND active`
	args := []any{orgID}
	if typeFilter != "" {
		query += ` AND type = $2`
		args = append(args, typeFilter)
	}
	query += ` ORDER BY name`

	return r.queryProviders(ctx, query, args...)
}

// Partners lists partner organizations bookable by the org's admins.
func (r *PostgresRepository) Partners(ctx context.Context, orgID string) ([]Provider, error) {
	return r.queryProviders(ctx,
		`SELECT id, name, email, COALESCE(phone, ''), type FROM providers
		 WHERE org_id = $1 AND active AND type = 'partner_organization'
		 ORDER BY name`,
		orgID)
}

func (r *PostgresRepository) queryProviders(ctx context.Context, query string, args ...any) ([]Provider, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("appointments: providers query: %w", err)
	}
	defer rows.Close()

	var out []Provider
	for rows.Next() {
		var p Provider
		if err := rows.Scan(&p.ID, &p.Name, &p.Email, &p.Phone, &p.Type); err != nil {
			return nil, fmt.Errorf("appointments: providers scan: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("appointments: providers rows: %w", err)
	}
	return out, nil
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var appt Appointment
	var apptDate time.Time
	var status, apptType, providerType string
	var notes, reason *string
	var empID, provID *int64
	var empFirst, empLast, empEmail *string
	var provName, provEmail, provPhone, provType *string

	err := row.Scan(
		&appt.ID, &appt.EmployeeID, &appt.ProviderID, &providerType, &appt.PartnerOrganizationID,
		&apptType, &apptDate, &appt.AppointmentTime, &appt.DurationMinutes,
		&status, &notes, &reason, &appt.CreatedAt, &appt.UpdatedAt,
		&empID, &empFirst, &empLast, &empEmail,
		&provID, &provName, &provEmail, &provPhone, &provType,
	)
	if err != nil {
		return nil, err
	}

	appt.ProviderType = ProviderType(providerType)
	appt.AppointmentType = Type(apptType)
	appt.AppointmentDate = apptDate.Format("2006-01-02")
	appt.Status = Status(status)
	if notes != nil {
		appt.Notes = *notes
	}
	if reason != nil {
		appt.CancellationReason = *reason
	}
	if empID != nil {
		appt.Employee = &PersonSummary{ID: *empID}
		if empFirst != nil {
			appt.Employee.Firstname = *empFirst
		}
		if empLast != nil {
			appt.Employee.Lastname = *empLast
		}
		if empEmail != nil {
			appt.Employee.Email = *empEmail
		}
	}
	if provID != nil {
		appt.ProviderDetails = &Provider{ID: *provID}
		if provName != nil {
			appt.ProviderDetails.Name = *provName
		}
		if provEmail != nil {
			appt.ProviderDetails.Email = *provEmail
		}
		if provPhone != nil {
			appt.ProviderDetails.Phone = *provPhone
		}
		if provType != nil {
			appt.ProviderDetails.Type = *provType
		}
	}
	return &appt, nil
}
