package auth

import (
	"context"
	"errors"
	"testing"

	"budgetbox/internal/core"

	"golang.org/x/crypto/bcrypt"
)

const (
	fallbackEmail    = "hire-me@anshumat.org"
	fallbackPassword = "HireMe@2025!"
)

func TestAuthenticateFallback(t *testing.T) {
	a := NewAuthenticator()

	id, err := a.Authenticate(context.Background(), fallbackEmail, fallbackPassword)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if id != Fallback {
		t.Fatalf("identity = %+v, want fallback", id)
	}
}

func TestAuthenticateNormalizesEmail(t *testing.T) {
	a := NewAuthenticator()

	if _, err := a.Authenticate(context.Background(), "  Hire-Me@Anshumat.ORG ", fallbackPassword); err != nil {
		t.Fatalf("normalized email should authenticate: %v", err)
	}
}

func TestAuthenticateInvalid(t *testing.T) {
	a := NewAuthenticator()
	ctx := context.Background()

	cases := []struct{ email, password string }{
		{fallbackEmail, "wrong"},
		{"nobody@example.com", fallbackPassword},
		{"", ""},
	}
	for _, tc := range cases {
		if _, err := a.Authenticate(ctx, tc.email, tc.password); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("(%q, %q): expected ErrInvalidCredentials, got %v", tc.email, tc.password, err)
		}
	}
}

func TestRegister(t *testing.T) {
	a := NewAuthenticator()
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret-pass"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	a.Register(core.Identity{ID: "user-2", Email: "Other@Example.com"}, string(hash))

	id, err := a.Authenticate(context.Background(), "other@example.com", "s3cret-pass")
	if err != nil {
		t.Fatalf("authenticate registered user: %v", err)
	}
	if id.ID != "user-2" {
		t.Fatalf("id = %q", id.ID)
	}
}

func TestCheckFallbackIsOffline(t *testing.T) {
	// No authenticator, no store, no network: the embedded credentials
	// alone must be enough.
	id, ok := CheckFallback(fallbackEmail, fallbackPassword)
	if !ok {
		t.Fatal("fallback credentials should verify offline")
	}
	if id.ID != "demo-user-123" {
		t.Fatalf("id = %q", id.ID)
	}

	if _, ok := CheckFallback(fallbackEmail, "wrong"); ok {
		t.Fatal("wrong password must not verify")
	}
	if _, ok := CheckFallback("other@example.com", fallbackPassword); ok {
		t.Fatal("other email must not verify")
	}
}
