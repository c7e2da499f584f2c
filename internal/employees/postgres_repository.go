package employees

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

// PostgresRepository stores employees in the relational database.
type PostgresRepository struct {
	db pgDB
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("employees: pgx pool required")
	}
	return &PostgresRepository{db: pool}
}

// NewPostgresRepositoryWithDB allows injecting a mock database for testing.
func NewPostgresRepositoryWithDB(db pgDB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const employeeColumns = `id, firstname, lastname, email, phone, department, position,
	enrollment_status, engagement_status, program_assignments, risk_category, last_active_at, created_at`

// Create enrolls an employee. The unique (org_id, email) index backs the
// duplicate check.
func (r *PostgresRepository) Create(ctx context.Context, orgID string, req *CreateEmployeeRequest) (*Employee, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO employees (org_id, firstname, lastname, email, phone, department, position)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (org_id, email) DO NOTHING
		RETURNING `+employeeColumns,
		orgID, req.Firstname, req.Lastname, req.Email, req.Phone, req.Department, req.Position,
	)

	emp, err := scanEmployee(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrDuplicateEmail
	}
	if err != nil {
		return nil, fmt.Errorf("employees: insert failed: %w", err)
	}
	return emp, nil
}

// GetForOrg fetches an employee scoped to the org.
func (r *PostgresRepository) GetForOrg(ctx context.Context, orgID string, id int64) (*Employee, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+employeeColumns+` FROM employees WHERE id = $1 AND org_id = $2`,
		id, orgID)

	emp, err := scanEmployee(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("employees: select failed: %w", err)
	}
	return emp, nil
}

// List returns a page of employees plus the unpaged total.
func (r *PostgresRepository) List(ctx context.Context, orgID string, filter ListFilter) ([]*Employee, int, error) {
	where := []string{"org_id = $1"}
	args := []any{orgID}

	add := func(clause string, value any) {
		args = append(args, value)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}

	if filter.Department != "" {
		add("department = $%d", filter.Department)
	}
	if filter.EnrollmentStatus != "" {
		add("enrollment_status = $%d", filter.EnrollmentStatus)
	}
	if filter.EngagementStatus != "" {
		add("engagement_status = $%d", filter.EngagementStatus)
	}
	if filter.RiskCategory != "" {
		add("risk_category = $%d", filter.RiskCategory)
	}
	if filter.Search != "" {
		add("(firstname ILIKE $%d OR lastname ILIKE $%[1]d OR email ILIKE $%[1]d)", "%"+filter.Search+"%")
	}

	whereSQL := " WHERE " + strings.Join(where, " AND ")

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM employees`+whereSQL, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("employees: count failed: %w", err)
	}

	page, perPage := normalizePage(filter.Page, filter.PerPage)
	args = append(args, perPage, (page-1)*perPage)
	listSQL := fmt.Sprintf(`SELECT `+employeeColumns+` FROM employees`+whereSQL+`
		ORDER BY lastname, firstname, id
		LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := r.db.Query(ctx, listSQL, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("employees: list failed: %w", err)
	}
	defer rows.Close()

	var out []*Employee
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("employees: scan failed: %w", err)
		}
		out = append(out, emp)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("employees: list rows: %w", err)
	}
	return out, total, nil
}

// AssignPrograms replaces the employee's program assignments.
func (r *PostgresRepository) AssignPrograms(ctx context.Context, orgID string, id int64, programs []string) (*Employee, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE employees SET program_assignments = $1, updated_at = NOW()
		WHERE id = $2 AND org_id = $3`,
		programs, id, orgID,
	)
	if err != nil {
		return nil, fmt.Errorf("employees: assign programs: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}
	return r.GetForOrg(ctx, orgID, id)
}

func scanEmployee(row pgx.Row) (*Employee, error) {
	var emp Employee
	var phone, department, position *string
	var programs []string
	var lastActive *time.Time
	var createdAt time.Time

	err := row.Scan(
		&emp.ID, &emp.Firstname, &emp.Lastname, &emp.Email,
		&phone, &department, &position,
		&emp.EnrollmentStatus, &emp.EngagementStatus, &programs, &emp.RiskCategory,
		&lastActive, &createdAt,
	)
	if err != nil {
		return nil, err
	}

	if phone != nil {
		emp.Phone = *phone
	}
	if department != nil {
		emp.Department = *department
	}
	if position != nil {
		emp.Position = *position
	}
	if programs == nil {
		programs = []string{}
	}
	emp.ProgramAssignments = programs
	emp.LastActiveAt = lastActive
	emp.CreatedAt = createdAt
	return &emp, nil
}
