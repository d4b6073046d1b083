package user

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestRole_Valid(t *testing.T) {
	t.Parallel()

	for _, role := range []Role{RoleAdmin, RoleUser, RoleModerator} {
		if !role.Valid() {
			t.Errorf("Valid(%q) = false, want true", role)
		}
	}
	for _, role := range []Role{"", "superadmin", "Admin", "USER"} {
		if role.Valid() {
			t.Errorf("Valid(%q) = true, want false", role)
		}
	}
}

func TestUserJSON_NeverExposesSecrets(t *testing.T) {
	t.Parallel()

	now := time.Now()
	u := &User{
		ID:           uuid.New(),
		Email:        "a@x.com",
		Username:     "alice",
		PasswordHash: "$argon2id$v=19$m=65536,t=3,p=4$salt$hash",
		Role:         RoleUser,
		IsActive:     true,
		IsSuperuser:  true,
		CreatedAt:    now,
		UpdatedAt:    now,
		LastLoginAt:  &now,
	}

	for name, value := range map[string]any{"domain model": u, "response": NewResponse(u)} {
		raw, err := json.Marshal(value)
		if err != nil {
			t.Fatalf("marshal %s: %v", name, err)
		}

		var fields map[string]any
		if err := json.Unmarshal(raw, &fields); err != nil {
			t.Fatalf("unmarshal %s: %v", name, err)
		}

		for _, forbidden := range []string{"hashed_password", "password_hash", "PasswordHash", "is_superuser", "IsSuperuser"} {
			if _, ok := fields[forbidden]; ok {
				t.Errorf("%s JSON exposes %q", name, forbidden)
			}
		}
	}
}

func TestNewResponse_Fields(t *testing.T) {
	t.Parallel()

	now := time.Now()
	u := &User{
		ID:         uuid.New(),
		Email:      "a@x.com",
		Username:   "alice",
		FirstName:  "Alice",
		LastName:   "Smith",
		Role:       RoleModerator,
		IsActive:   true,
		IsVerified: true,
		CreatedAt:  now,
	}

	resp := NewResponse(u)
	if resp.ID != u.ID || resp.Email != u.Email || resp.Username != u.Username {
		t.Errorf("identity fields not carried over: %+v", resp)
	}
	if resp.Role != RoleModerator || !resp.IsActive || !resp.IsVerified {
		t.Errorf("status fields not carried over: %+v", resp)
	}
	if !resp.CreatedAt.Equal(now) {
		t.Errorf("CreatedAt = %v, want %v", resp.CreatedAt, now)
	}
}
