package principal

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestJWTProvider_RoundTrip(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	stored := Principal{ID: "p-1", NationalID: "N-1", FullName: "Alice", Role: RoleParent}
	if err := repo.Create(ctx, stored); err != nil {
		t.Fatalf("create: %v", err)
	}

	provider := NewJWTProvider("test-secret", repo)
	token, err := provider.Issue(stored, time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	got, err := provider.Authenticate(ctx, token)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if got.ID != "p-1" || got.NationalID != "N-1" {
		t.Fatalf("unexpected principal: %+v", got)
	}
}

func TestJWTProvider_RejectsGarbage(t *testing.T) {
	provider := NewJWTProvider("test-secret", NewMemoryRepository())
	if _, err := provider.Authenticate(context.Background(), "not-a-token"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected invalid token, got %v", err)
	}
}

func TestJWTProvider_RejectsWrongSecret(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	stored := Principal{ID: "p-1", Role: RoleParent}
	if err := repo.Create(ctx, stored); err != nil {
		t.Fatalf("create: %v", err)
	}

	issuer := NewJWTProvider("secret-a", repo)
	token, err := issuer.Issue(stored, time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	verifier := NewJWTProvider("secret-b", repo)
	if _, err := verifier.Authenticate(ctx, token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected invalid token, got %v", err)
	}
}

func TestJWTProvider_RejectsExpiredToken(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	stored := Principal{ID: "p-1", Role: RoleParent}
	if err := repo.Create(ctx, stored); err != nil {
		t.Fatalf("create: %v", err)
	}

	provider := NewJWTProvider("test-secret", repo)
	token, err := provider.Issue(stored, -time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := provider.Authenticate(ctx, token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected invalid token, got %v", err)
	}
}

func TestJWTProvider_UnknownSubject(t *testing.T) {
	repo := NewMemoryRepository()
	provider := NewJWTProvider("test-secret", repo)
	token, err := provider.Issue(Principal{ID: "ghost"}, time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := provider.Authenticate(context.Background(), token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected invalid token, got %v", err)
	}
}

func TestServiceAllowed(t *testing.T) {
	parent := Principal{Role: RoleParent}
	if !parent.ServiceAllowed("anything") {
		t.Fatal("parents are unrestricted")
	}

	child := Principal{Role: RoleChild, AllowedServices: []string{"school-canteen"}}
	if !child.ServiceAllowed("school-canteen") {
		t.Fatal("allowlisted service should pass")
	}
	if child.ServiceAllowed("game-store") {
		t.Fatal("unlisted service should be denied")
	}
}

func TestVerifyPIN(t *testing.T) {
	hash, err := HashPIN("4321")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	p := Principal{PINHash: hash}
	if !p.VerifyPIN("4321") {
		t.Fatal("correct pin should verify")
	}
	if p.VerifyPIN("0000") {
		t.Fatal("wrong pin must not verify")
	}
}
