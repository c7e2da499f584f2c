package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// InMemoryUserStore holds org users in memory. Used by tests and by the
// server when no database is configured.
type InMemoryUserStore struct {
	mu    sync.RWMutex
	users map[string]*User
}

func NewInMemoryUserStore() *InMemoryUserStore {
	return &InMemoryUserStore{users: make(map[string]*User)}
}

// Seed registers a user with a plaintext password, hashing it for storage.
func (s *InMemoryUserStore) Seed(user User, password string) error {
	hash, err := HashPassword(password)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	user.Email = strings.ToLower(user.Email)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.Email] = &user
	return nil
}

func (s *InMemoryUserStore) FindByEmail(ctx context.Context, email string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[strings.ToLower(email)]
	if !ok {
		return nil, ErrUserNotFound
	}
	out := *user
	return &out, nil
}

// PostgresUserStore reads org users from the database.
type PostgresUserStore struct {
	db interface {
		QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	}
}

func NewPostgresUserStore(pool *pgxpool.Pool) *PostgresUserStore {
	if pool == nil {
		panic("auth: pgx pool required")
	}
	return &PostgresUserStore{db: pool}
}

// NewPostgresUserStoreWithDB allows injecting a mock database for testing.
func NewPostgresUserStoreWithDB(db interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}) *PostgresUserStore {
	return &PostgresUserStore{db: db}
}

func (s *PostgresUserStore) FindByEmail(ctx context.Context, email string) (*User, error) {
	var user User
	err := s.db.QueryRow(ctx, `
		SELECT id, org_id, email, password_hash, role, firstname, lastname
		FROM org_users WHERE email = $1 AND active`,
		strings.ToLower(email),
	).Scan(&user.ID, &user.OrgID, &user.Email, &user.PasswordHash, &user.Role, &user.Firstname, &user.Lastname)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("auth: find user: %w", err)
	}
	return &user, nil
}
