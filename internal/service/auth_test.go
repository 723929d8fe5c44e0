package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/msomdec/quill/internal/domain"
	"github.com/msomdec/quill/internal/service"
)

func TestAuthService_Register_Success(t *testing.T) {
	auth, _ := newTestAuthService(t)
	ctx := context.Background()

	res, err := auth.Register(ctx, service.RegisterInput{
		Name:     "New User",
		Email:    "  New@Example.com ",
		Password: "password123",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	if res.User.ID == "" {
		t.Fatal("expected user ID to be set")
	}
	if res.User.Email != "new@example.com" {
		t.Fatalf("expected normalized email new@example.com, got %s", res.User.Email)
	}
	if res.User.Username != "new" {
		t.Fatalf("expected username derived from email, got %s", res.User.Username)
	}
	if res.User.Role != domain.RoleUser {
		t.Fatalf("expected default role User, got %s", res.User.Role)
	}
	if res.User.PasswordHash == "password123" || res.User.PasswordHash == "" {
		t.Fatal("expected password to be hashed")
	}

	id, err := auth.ValidateToken(res.Token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if id.UserID != res.User.ID {
		t.Fatalf("expected token subject %s, got %s", res.User.ID, id.UserID)
	}
	if id.Role != domain.RoleUser {
		t.Fatalf("expected token role User, got %s", id.Role)
	}
}

func TestAuthService_Register_RoleNormalized(t *testing.T) {
	auth, _ := newTestAuthService(t)
	ctx := context.Background()

	res, err := auth.Register(ctx, service.RegisterInput{
		Name: "Admin", Email: "admin@example.com", Password: "password123", Role: "aDmIn",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if res.User.Role != domain.RoleAdmin {
		t.Fatalf("expected role Admin, got %s", res.User.Role)
	}

	_, err = auth.Register(ctx, service.RegisterInput{
		Name: "Bad", Email: "bad@example.com", Password: "password123", Role: "root",
	})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for unknown role, got %v", err)
	}
}

func TestAuthService_Register_DuplicateEmail(t *testing.T) {
	auth, _ := newTestAuthService(t)
	ctx := context.Background()

	_, err := auth.Register(ctx, service.RegisterInput{Name: "User 1", Email: "dup@example.com", Password: "password123", Username: "one"})
	if err != nil {
		t.Fatalf("first register: %v", err)
	}

	_, err = auth.Register(ctx, service.RegisterInput{Name: "User 2", Email: "DUP@example.com", Password: "password456", Username: "two"})
	if !errors.Is(err, domain.ErrDuplicateIdentity) {
		t.Fatalf("expected ErrDuplicateIdentity, got %v", err)
	}
}

func TestAuthService_Register_DuplicateUsername(t *testing.T) {
	auth, _ := newTestAuthService(t)
	ctx := context.Background()

	_, err := auth.Register(ctx, service.RegisterInput{Name: "User 1", Email: "one@example.com", Password: "password123", Username: "same"})
	if err != nil {
		t.Fatalf("first register: %v", err)
	}

	_, err = auth.Register(ctx, service.RegisterInput{Name: "User 2", Email: "two@example.com", Password: "password456", Username: "same"})
	if !errors.Is(err, domain.ErrDuplicateIdentity) {
		t.Fatalf("expected ErrDuplicateIdentity, got %v", err)
	}
}

func TestAuthService_Register_EmptyFields(t *testing.T) {
	auth, _ := newTestAuthService(t)
	ctx := context.Background()

	tests := []struct {
		name string
		in   service.RegisterInput
	}{
		{"empty name", service.RegisterInput{Email: "a@b.com", Password: "password123"}},
		{"empty email", service.RegisterInput{Name: "Name", Password: "password123"}},
		{"empty password", service.RegisterInput{Name: "Name", Email: "a@b.com"}},
		{"blank name", service.RegisterInput{Name: "   ", Email: "a@b.com", Password: "password123"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := auth.Register(ctx, tc.in)
			if !errors.Is(err, domain.ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestAuthService_Login_ByEmailOrUsername(t *testing.T) {
	auth, _ := newTestAuthService(t)
	ctx := context.Background()

	reg, err := auth.Register(ctx, service.RegisterInput{Name: "Login User", Email: "login@example.com", Password: "password123", Username: "loginuser"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	for _, ident := range []string{"login@example.com", "loginuser", "LOGIN@example.com"} {
		res, err := auth.Login(ctx, ident, "password123")
		if err != nil {
			t.Fatalf("Login(%q): %v", ident, err)
		}
		if res.Token == "" {
			t.Fatalf("Login(%q): expected non-empty token", ident)
		}
		if res.User.ID != reg.User.ID {
			t.Fatalf("Login(%q): expected user %s, got %s", ident, reg.User.ID, res.User.ID)
		}
	}
}

func TestAuthService_Login_IdenticalFailures(t *testing.T) {
	auth, _ := newTestAuthService(t)
	ctx := context.Background()

	if _, err := auth.Register(ctx, service.RegisterInput{Name: "User", Email: "wrongpw@example.com", Password: "password123"}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	_, wrongPw := auth.Login(ctx, "wrongpw@example.com", "wrongpassword")
	_, unknown := auth.Login(ctx, "nobody@example.com", "password123")

	if !errors.Is(wrongPw, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for wrong password, got %v", wrongPw)
	}
	if !errors.Is(unknown, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown identifier, got %v", unknown)
	}
	if wrongPw.Error() != unknown.Error() {
		t.Fatalf("expected identical messages, got %q and %q", wrongPw, unknown)
	}
}

// countingHasher records how many password comparisons were made.
type countingHasher struct {
	service.PasswordHasher
	compares int
}

func (h *countingHasher) Compare(hash, password string) (bool, error) {
	h.compares++
	return h.PasswordHasher.Compare(hash, password)
}

func TestAuthService_Login_UnknownIdentifierStillCompares(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	hasher := &countingHasher{PasswordHasher: service.BcryptHasher{Cost: 4}}
	auth := service.NewAuthService(db.Users(), newTestTokens(t), hasher, time.Hour)

	if _, err := auth.Register(ctx, service.RegisterInput{Name: "User", Email: "known@example.com", Password: "password123"}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	hasher.compares = 0
	if _, err := auth.Login(ctx, "nobody@example.com", "password123"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if hasher.compares != 1 {
		t.Fatalf("expected one comparison for unknown identifier, got %d", hasher.compares)
	}

	hasher.compares = 0
	if _, err := auth.Login(ctx, "known@example.com", "wrongpassword"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if hasher.compares != 1 {
		t.Fatalf("expected one comparison for wrong password, got %d", hasher.compares)
	}
}

func TestAuthService_Login_MissingFields(t *testing.T) {
	auth, _ := newTestAuthService(t)
	ctx := context.Background()

	if _, err := auth.Login(ctx, "", "password123"); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if _, err := auth.Login(ctx, "someone", ""); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestAuthService_Login_Argon2idHashes(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	tokens := newTestTokens(t)

	argon := service.NewAuthService(db.Users(), tokens, service.Argon2idHasher{}, time.Hour)
	reg, err := argon.Register(ctx, service.RegisterInput{Name: "A", Email: "argon@example.com", Password: "password123"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if !strings.HasPrefix(reg.User.PasswordHash, "$argon2id$") {
		t.Fatalf("expected argon2id hash, got %q", reg.User.PasswordHash)
	}

	// A deployment switched to bcrypt still verifies existing argon2id hashes.
	bcryptAuth := service.NewAuthService(db.Users(), tokens, service.BcryptHasher{Cost: 4}, time.Hour)
	if _, err := bcryptAuth.Login(ctx, "argon@example.com", "password123"); err != nil {
		t.Fatalf("Login: %v", err)
	}
}

func TestAuthService_UpdateProfile(t *testing.T) {
	auth, _ := newTestAuthService(t)
	ctx := context.Background()

	reg, err := auth.Register(ctx, service.RegisterInput{Name: "Old", Email: "old@example.com", Password: "password123"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := auth.Register(ctx, service.RegisterInput{Name: "Taken", Email: "taken@example.com", Password: "password123"}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	name, pw := "New", "newpassword"
	updated, err := auth.UpdateProfile(ctx, reg.User.ID, service.ProfileUpdate{Name: &name, Password: &pw})
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if updated.Name != "New" {
		t.Fatalf("expected name New, got %s", updated.Name)
	}
	if updated.Role != domain.RoleUser {
		t.Fatalf("expected role unchanged, got %s", updated.Role)
	}

	if _, err := auth.Login(ctx, "old@example.com", "newpassword"); err != nil {
		t.Fatalf("Login with new password: %v", err)
	}
	if _, err := auth.Login(ctx, "old@example.com", "password123"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected old password rejected, got %v", err)
	}

	taken := "taken@example.com"
	if _, err := auth.UpdateProfile(ctx, reg.User.ID, service.ProfileUpdate{Email: &taken}); !errors.Is(err, domain.ErrDuplicateIdentity) {
		t.Fatalf("expected ErrDuplicateIdentity, got %v", err)
	}

	// Re-submitting one's own username is not a conflict.
	own := reg.User.Username
	if _, err := auth.UpdateProfile(ctx, reg.User.ID, service.ProfileUpdate{Username: &own}); err != nil {
		t.Fatalf("UpdateProfile with own username: %v", err)
	}

	if _, err := auth.UpdateProfile(ctx, "missing", service.ProfileUpdate{Name: &name}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAuthService_EnsureAdmin(t *testing.T) {
	auth, _ := newTestAuthService(t)
	ctx := context.Background()

	created, err := auth.EnsureAdmin(ctx, "Root", "root@example.com", "password123")
	if err != nil {
		t.Fatalf("EnsureAdmin: %v", err)
	}
	if !created {
		t.Fatal("expected admin to be created")
	}

	created, err = auth.EnsureAdmin(ctx, "Root", "root@example.com", "password123")
	if err != nil {
		t.Fatalf("EnsureAdmin again: %v", err)
	}
	if created {
		t.Fatal("expected second EnsureAdmin to be a no-op")
	}

	res, err := auth.Login(ctx, "root", "password123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if res.User.Role != domain.RoleAdmin {
		t.Fatalf("expected Admin role, got %s", res.User.Role)
	}
}

func TestAuthService_ExpiredTokenRejected(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	auth := service.NewAuthService(db.Users(), newTestTokens(t), service.BcryptHasher{Cost: 4}, -time.Minute)
	res, err := auth.Register(ctx, service.RegisterInput{Name: "E", Email: "e@example.com", Password: "password123"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	if _, err := auth.ValidateToken(res.Token); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}
