package user

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrNotFound          = errors.New("user not found")
	ErrDuplicateEmail    = errors.New("email already registered")
	ErrDuplicateUsername = errors.New("username already taken")
)

// Store is the persistence boundary for user records. The Postgres
// implementation lives in Repository; tests substitute an in-memory one.
//
// Insert must surface uniqueness clashes as ErrDuplicateEmail or
// ErrDuplicateUsername so callers can map them without knowing the
// database engine. Concurrent inserts racing on the same email or
// username result in exactly one success.
type Store interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByUsername(ctx context.Context, username string) (*User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	Insert(ctx context.Context, u *User) (*User, error)
	UpdateLastLogin(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, offset, limit int) ([]*User, error)
}
