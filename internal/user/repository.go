package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/uptrace/bun"

	"github.com/redforge/authsvc/internal/database"
)

// Constraint names from the users table migration. Uniqueness is enforced
// here, at the store boundary, so concurrent registrations racing on the
// same email or username cannot both succeed.
const (
	emailConstraint    = "users_email_key"
	usernameConstraint = "users_username_key"
)

// Repository is the Postgres-backed Store implementation.
type Repository struct {
	db *bun.DB
}

var _ Store = (*Repository)(nil)

func NewRepository(db *bun.DB) *Repository {
	return &Repository{db: db}
}

// Insert persists a new user. Uniqueness clashes surface as
// ErrDuplicateEmail or ErrDuplicateUsername.
func (r *Repository) Insert(ctx context.Context, u *User) (*User, error) {
	dbUser := mapModelToDBUser(u)

	_, err := r.db.NewInsert().
		Model(dbUser).
		Returning("*").
		Exec(ctx)

	if err != nil {
		if dupErr := mapUniqueViolation(err); dupErr != nil {
			return nil, dupErr
		}
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}

	return mapDBUserToModel(dbUser), nil
}

// FindByEmail retrieves a user by email
func (r *Repository) FindByEmail(ctx context.Context, email string) (*User, error) {
	dbUser := new(database.User)
	err := r.db.NewSelect().
		Model(dbUser).
		Where("email = ?", email).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return mapDBUserToModel(dbUser), nil
}

// FindByUsername retrieves a user by username
func (r *Repository) FindByUsername(ctx context.Context, username string) (*User, error) {
	dbUser := new(database.User)
	err := r.db.NewSelect().
		Model(dbUser).
		Where("username = ?", username).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by username: %w", err)
	}

	return mapDBUserToModel(dbUser), nil
}

// FindByID retrieves a user by ID
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*User, error) {
	dbUser := new(database.User)
	err := r.db.NewSelect().
		Model(dbUser).
		Where("id = ?", id).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}

	return mapDBUserToModel(dbUser), nil
}

// UpdateLastLogin stamps the user's last login time.
func (r *Repository) UpdateLastLogin(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.NewUpdate().
		Model((*database.User)(nil)).
		Set("last_login_at = NOW()").
		Set("updated_at = NOW()").
		Where("id = ?", id).
		Exec(ctx)

	if err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// List returns users ordered by creation time.
func (r *Repository) List(ctx context.Context, offset, limit int) ([]*User, error) {
	var dbUsers []database.User
	err := r.db.NewSelect().
		Model(&dbUsers).
		Order("created_at ASC").
		Offset(offset).
		Limit(limit).
		Scan(ctx)

	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	users := make([]*User, 0, len(dbUsers))
	for i := range dbUsers {
		users = append(users, mapDBUserToModel(&dbUsers[i]))
	}

	return users, nil
}

// mapUniqueViolation translates a Postgres unique-constraint violation into
// the matching domain error, or returns nil for unrelated errors.
func mapUniqueViolation(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != "23505" {
		return nil
	}
	switch pqErr.Constraint {
	case emailConstraint:
		return ErrDuplicateEmail
	case usernameConstraint:
		return ErrDuplicateUsername
	}
	return nil
}

func mapModelToDBUser(u *User) *database.User {
	now := time.Now()
	return &database.User{
		ID:             u.ID,
		Email:          u.Email,
		Username:       u.Username,
		HashedPassword: u.PasswordHash,
		FirstName:      u.FirstName,
		LastName:       u.LastName,
		Role:           string(u.Role),
		IsActive:       u.IsActive,
		IsVerified:     u.IsVerified,
		IsSuperuser:    u.IsSuperuser,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// mapDBUserToModel converts database model to domain model
func mapDBUserToModel(dbu *database.User) *User {
	return &User{
		ID:           dbu.ID,
		Email:        dbu.Email,
		Username:     dbu.Username,
		PasswordHash: dbu.HashedPassword,
		FirstName:    dbu.FirstName,
		LastName:     dbu.LastName,
		Role:         Role(dbu.Role),
		IsActive:     dbu.IsActive,
		IsVerified:   dbu.IsVerified,
		IsSuperuser:  dbu.IsSuperuser,
		CreatedAt:    dbu.CreatedAt,
		UpdatedAt:    dbu.UpdatedAt,
		LastLoginAt:  dbu.LastLoginAt,
	}
}
