package auth

import (
	"errors"
	"testing"

	"github.com/vladislavdragonenkov/shop/internal/domain"
)

func TestStaticAuthenticator_Authenticate(t *testing.T) {
	t.Parallel()

	authenticator := NewStaticAuthenticator()
	authenticator.Register("tok-user", Identity{UserID: "user-1"})
	authenticator.Register("tok-admin", Identity{UserID: "admin-1", Role: RoleAdmin})

	identity, err := authenticator.Authenticate("tok-user")
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if identity.UserID != "user-1" || identity.IsAdmin() {
		t.Fatalf("unexpected identity: %+v", identity)
	}

	identity, err = authenticator.Authenticate("tok-admin")
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if !identity.IsAdmin() {
		t.Fatalf("expected admin role, got %+v", identity)
	}

	if _, err := authenticator.Authenticate("unknown"); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestParseStaticTokens(t *testing.T) {
	t.Parallel()

	authenticator, err := ParseStaticTokens("tok-1:user-1, tok-2:admin-1:admin")
	if err != nil {
		t.Fatalf("ParseStaticTokens failed: %v", err)
	}

	identity, err := authenticator.Authenticate("tok-1")
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if identity.UserID != "user-1" || identity.Role != "" {
		t.Fatalf("unexpected identity: %+v", identity)
	}

	identity, err = authenticator.Authenticate("tok-2")
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if identity.UserID != "admin-1" || !identity.IsAdmin() {
		t.Fatalf("unexpected identity: %+v", identity)
	}
}

func TestParseStaticTokens_Empty(t *testing.T) {
	t.Parallel()

	authenticator, err := ParseStaticTokens("  ")
	if err != nil {
		t.Fatalf("ParseStaticTokens failed: %v", err)
	}
	if _, err := authenticator.Authenticate("anything"); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestParseStaticTokens_Invalid(t *testing.T) {
	t.Parallel()

	cases := []string{
		"just-a-token",
		"tok:user:role:extra",
		":user-1",
		"tok:",
	}
	for _, raw := range cases {
		if _, err := ParseStaticTokens(raw); err == nil {
			t.Fatalf("expected parse error for %q", raw)
		}
	}
}
