package auth

import (
	"errors"
	"strings"
	"testing"
)

func TestHashPassword_VerifyRoundTrip(t *testing.T) {
	t.Parallel()

	hash, err := HashPassword("Passw0rd")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}

	if !strings.HasPrefix(hash, "$argon2id$") {
		t.Errorf("hash = %q, want argon2id encoding", hash)
	}
	if !VerifyPassword(hash, "Passw0rd") {
		t.Errorf("expected correct password to verify")
	}
	if VerifyPassword(hash, "Passw0rd!") {
		t.Errorf("expected different password to fail")
	}
}

func TestVerifyPassword_SingleCharacterMutation(t *testing.T) {
	t.Parallel()

	const password = "Sup3rSecret"
	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}

	for i := range password {
		mutated := []byte(password)
		mutated[i] ^= 0x01
		if VerifyPassword(hash, string(mutated)) {
			t.Errorf("mutation at index %d verified unexpectedly", i)
		}
	}
}

func TestHashPassword_SaltedPerCall(t *testing.T) {
	t.Parallel()

	h1, err := HashPassword("Passw0rd")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}
	h2, err := HashPassword("Passw0rd")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}

	if h1 == h2 {
		t.Errorf("two hashes of the same password are identical; salt missing")
	}
	if !VerifyPassword(h1, "Passw0rd") || !VerifyPassword(h2, "Passw0rd") {
		t.Errorf("both salted hashes should verify the original password")
	}
}

func TestVerifyPassword_MalformedHash(t *testing.T) {
	t.Parallel()

	for _, hash := range []string{"", "plainhash", "$argon2id$v=19$m=65536", "$argon2id$v=19$bad$AAAA$BBBB"} {
		if VerifyPassword(hash, "Passw0rd") {
			t.Errorf("VerifyPassword(%q) = true, want false", hash)
		}
	}
}

func TestValidatePasswordPolicy(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		password string
		wantWeak bool
	}{
		{"valid", "Passw0rd", false},
		{"seven chars", "short1A", true},
		{"no uppercase", "alllowercase1", true},
		{"no lowercase", "ALLUPPER1", true},
		{"no digit", "NoDigitsHere", true},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validatePasswordPolicy(tt.password)
			if tt.wantWeak {
				if !errors.Is(err, ErrWeakPassword) {
					t.Fatalf("expected ErrWeakPassword, got %v", err)
				}
			} else if err != nil {
				t.Fatalf("expected nil, got %v", err)
			}
		})
	}
}
