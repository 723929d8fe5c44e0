package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/msomdec/quill/internal/domain"
)

// AuthService handles registration, login, profile updates and token
// issuance. It is the only place passwords are hashed.
type AuthService struct {
	users    domain.UserRepository
	tokens   *TokenService
	hasher   PasswordHasher
	tokenTTL time.Duration

	dummyOnce sync.Once
	dummyHash string
}

// NewAuthService creates a new AuthService.
func NewAuthService(users domain.UserRepository, tokens *TokenService, hasher PasswordHasher, tokenTTL time.Duration) *AuthService {
	return &AuthService{
		users:    users,
		tokens:   tokens,
		hasher:   hasher,
		tokenTTL: tokenTTL,
	}
}

// RegisterInput holds the fields accepted at registration. Role and
// Username are optional.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     string
	Username string
}

// AuthResult is returned by Register and Login.
type AuthResult struct {
	User  *domain.User
	Token string
}

// ProfileUpdate holds the profile fields a user may change. Nil fields are
// left unchanged.
type ProfileUpdate struct {
	Name     *string
	Email    *string
	Username *string
	Password *string
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a new user account and issues a token for it.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	name := strings.TrimSpace(in.Name)
	email := normalizeEmail(in.Email)
	if name == "" || email == "" || in.Password == "" {
		return nil, fmt.Errorf("%w: name, email, and password are required", domain.ErrInvalidInput)
	}

	role, err := domain.ParseRole(in.Role)
	if err != nil {
		return nil, err
	}

	username := strings.TrimSpace(in.Username)
	if username == "" {
		username, _, _ = strings.Cut(email, "@")
	}
	if username == "" {
		return nil, fmt.Errorf("%w: username could not be derived from email", domain.ErrInvalidInput)
	}

	if err := s.checkAvailable(ctx, "", email, username); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Name:         name,
		Email:        email,
		Username:     username,
		PasswordHash: hash,
		Role:         role,
		Favourites:   []string{},
		Articles:     []string{},
	}

	// The unique constraints still catch a concurrent registration that
	// slips past checkAvailable.
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrDuplicateIdentity) {
			return nil, err
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	return s.issue(user)
}

// Login authenticates by email or username. Unknown identifiers and wrong
// passwords produce the same error.
func (s *AuthService) Login(ctx context.Context, identifier, password string) (*AuthResult, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return nil, fmt.Errorf("%w: email/username and password are required", domain.ErrInvalidInput)
	}

	user, err := s.users.FindByEmailOrUsername(ctx, identifier)
	if errors.Is(err, domain.ErrNotFound) && strings.Contains(identifier, "@") {
		user, err = s.users.FindByEmailOrUsername(ctx, normalizeEmail(identifier))
	}
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// Spend the same hashing work as a wrong password.
			s.hasher.Compare(s.dummy(), password)
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	ok, err := s.hasher.Compare(user.PasswordHash, password)
	if err != nil {
		return nil, fmt.Errorf("compare password: %w", err)
	}
	if !ok {
		return nil, domain.ErrInvalidCredentials
	}

	return s.issue(user)
}

// GetUser retrieves a user by ID.
func (s *AuthService) GetUser(ctx context.Context, id string) (*domain.User, error) {
	return s.users.GetByID(ctx, id)
}

// UpdateProfile applies upd to the user. Role cannot be changed here.
func (s *AuthService) UpdateProfile(ctx context.Context, id string, upd ProfileUpdate) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name must not be empty", domain.ErrInvalidInput)
		}
		user.Name = name
	}

	email, username := user.Email, user.Username
	if upd.Email != nil {
		email = normalizeEmail(*upd.Email)
		if email == "" {
			return nil, fmt.Errorf("%w: email must not be empty", domain.ErrInvalidInput)
		}
	}
	if upd.Username != nil {
		username = strings.TrimSpace(*upd.Username)
		if username == "" {
			return nil, fmt.Errorf("%w: username must not be empty", domain.ErrInvalidInput)
		}
	}
	if email != user.Email || username != user.Username {
		if err := s.checkAvailable(ctx, user.ID, email, username); err != nil {
			return nil, err
		}
		user.Email, user.Username = email, username
	}

	if upd.Password != nil {
		if *upd.Password == "" {
			return nil, fmt.Errorf("%w: password must not be empty", domain.ErrInvalidInput)
		}
		hash, err := s.hasher.Hash(*upd.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		user.PasswordHash = hash
	}

	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, domain.ErrDuplicateIdentity) || errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	return user, nil
}

// EnsureAdmin creates an Admin account with the given credentials unless a
// user with that email already exists. It reports whether a user was
// created.
func (s *AuthService) EnsureAdmin(ctx context.Context, name, email, password string) (bool, error) {
	_, err := s.users.FindByEmailOrUsername(ctx, normalizeEmail(email))
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return false, fmt.Errorf("find admin: %w", err)
	}

	_, err = s.Register(ctx, RegisterInput{
		Name:     name,
		Email:    email,
		Password: password,
		Role:     string(domain.RoleAdmin),
	})
	if err != nil {
		return false, fmt.Errorf("seed admin: %w", err)
	}
	return true, nil
}

// ValidateToken verifies a token and returns the identity it carries.
func (s *AuthService) ValidateToken(token string) (domain.Identity, error) {
	return s.tokens.Verify(token)
}

// TokenTTL is the lifetime of issued tokens.
func (s *AuthService) TokenTTL() time.Duration {
	return s.tokenTTL
}

// checkAvailable returns ErrDuplicateIdentity if email or username belongs
// to a user other than selfID.
func (s *AuthService) checkAvailable(ctx context.Context, selfID, email, username string) error {
	for _, ident := range []string{email, username} {
		existing, err := s.users.FindByEmailOrUsername(ctx, ident)
		if errors.Is(err, domain.ErrNotFound) {
			continue
		}
		if err != nil {
			return fmt.Errorf("check identity: %w", err)
		}
		if existing.ID != selfID {
			return domain.ErrDuplicateIdentity
		}
	}
	return nil
}

// dummy returns a hash of a throwaway password made with the configured
// hasher, computed on first use.
func (s *AuthService) dummy() string {
	s.dummyOnce.Do(func() {
		hash, err := s.hasher.Hash("quill-login-timing-placeholder")
		if err != nil {
			slog.Error("hash dummy password", "error", err)
			return
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}

func (s *AuthService) issue(user *domain.User) (*AuthResult, error) {
	token, err := s.tokens.Issue(user.ID, user.Role, s.tokenTTL)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &AuthResult{User: user, Token: token}, nil
}
