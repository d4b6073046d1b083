package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the database representation of a user record.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID             uuid.UUID  `bun:"id,pk,type:uuid"`
	Email          string     `bun:"email,notnull"`
	Username       string     `bun:"username,notnull"`
	HashedPassword string     `bun:"hashed_password,notnull"`
	FirstName      string     `bun:"first_name,nullzero"`
	LastName       string     `bun:"last_name,nullzero"`
	Role           string     `bun:"role,notnull,default:'user'"`
	IsActive       bool       `bun:"is_active,notnull,default:true"`
	IsVerified     bool       `bun:"is_verified,notnull,default:false"`
	IsSuperuser    bool       `bun:"is_superuser,notnull,default:false"`
	CreatedAt      time.Time  `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt      time.Time  `bun:"updated_at,notnull,default:current_timestamp"`
	LastLoginAt    *time.Time `bun:"last_login_at,nullzero"`
}
