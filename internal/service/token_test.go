package service_test

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msomdec/quill/internal/domain"
	"github.com/msomdec/quill/internal/service"
)

func TestNewTokenService_EmptySecret(t *testing.T) {
	_, err := service.NewTokenService("")
	assert.Error(t, err)
}

func TestTokenService_IssueAndVerify(t *testing.T) {
	tokens := newTestTokens(t)

	token, err := tokens.Issue("user-1", domain.RoleAdmin, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	id, err := tokens.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", id.UserID)
	assert.Equal(t, domain.RoleAdmin, id.Role)
}

func TestTokenService_ClaimsCarryJTI(t *testing.T) {
	tokens := newTestTokens(t)

	first, err := tokens.Issue("user-1", domain.RoleUser, time.Hour)
	require.NoError(t, err)
	second, err := tokens.Issue("user-1", domain.RoleUser, time.Hour)
	require.NoError(t, err)
	assert.NotEqual(t, first, second, "tokens issued back to back should differ by jti")

	claims := &service.Claims{}
	_, _, err = jwt.NewParser().ParseUnverified(first, claims)
	require.NoError(t, err)
	assert.NotEmpty(t, claims.ID)
	assert.NotNil(t, claims.IssuedAt)
	assert.NotNil(t, claims.ExpiresAt)
}

func TestTokenService_Expired(t *testing.T) {
	tokens := newTestTokens(t)

	token, err := tokens.Issue("user-1", domain.RoleUser, -time.Minute)
	require.NoError(t, err)

	_, err = tokens.Verify(token)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestTokenService_WrongSecret(t *testing.T) {
	other, err := service.NewTokenService("another-secret-key-that-is-long-enough")
	require.NoError(t, err)

	token, err := other.Issue("user-1", domain.RoleUser, time.Hour)
	require.NoError(t, err)

	_, err = newTestTokens(t).Verify(token)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestTokenService_Tampered(t *testing.T) {
	tokens := newTestTokens(t)

	token, err := tokens.Issue("user-1", domain.RoleUser, time.Hour)
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	// Swap the payload for one claiming Admin, keeping the old signature.
	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, service.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Role: "Admin",
	}).SignedString([]byte("attacker"))
	require.NoError(t, err)
	forgedParts := strings.Split(forged, ".")
	tampered := parts[0] + "." + forgedParts[1] + "." + parts[2]

	_, err = tokens.Verify(tampered)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestTokenService_RejectsOtherAlgorithms(t *testing.T) {
	tokens := newTestTokens(t)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, service.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Role: "Admin",
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = tokens.Verify(unsigned)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, service.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Role: "User",
	}).SignedString([]byte(testJWTSecret))
	require.NoError(t, err)

	_, err = tokens.Verify(hs512)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestTokenService_UnknownRoleAndMissingExpiry(t *testing.T) {
	tokens := newTestTokens(t)
	secret := []byte(testJWTSecret)

	badRole, err := jwt.NewWithClaims(jwt.SigningMethodHS256, service.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Role: "Superuser",
	}).SignedString(secret)
	require.NoError(t, err)
	_, err = tokens.Verify(badRole)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, service.Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "user-1"},
		Role:             "User",
	}).SignedString(secret)
	require.NoError(t, err)
	_, err = tokens.Verify(noExpiry)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestTokenService_RoleIsCaseInsensitive(t *testing.T) {
	tokens := newTestTokens(t)

	lower, err := jwt.NewWithClaims(jwt.SigningMethodHS256, service.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Role: "admin",
	}).SignedString([]byte(testJWTSecret))
	require.NoError(t, err)

	id, err := tokens.Verify(lower)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, id.Role)
}

func TestTokenService_Garbage(t *testing.T) {
	_, err := newTestTokens(t).Verify("not-a-valid-jwt")
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}
