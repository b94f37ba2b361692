package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cursada/planner-api/internal/models"
	appErrors "github.com/cursada/planner-api/pkg/errors"
)

func newTestAuthService() *AuthService {
	return NewAuthService(AuthConfig{
		TokenSecret: "test-secret",
		Issuer:      "cursada-identity",
		Audience:    []string{"cursada-app"},
		TokenTTL:    time.Hour,
	}, nil)
}

func TestAuthServiceIssueAndValidate(t *testing.T) {
	svc := newTestAuthService()

	token, expiresAt, err := svc.IssueToken(alice)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, time.Minute)

	principal, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, alice, *principal)
}

func TestAuthServiceNameFallsBackToEmail(t *testing.T) {
	svc := newTestAuthService()

	token, _, err := svc.IssueToken(models.Principal{UserID: bob.UserID, Email: bob.Email})
	require.NoError(t, err)

	principal, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, bob.Email, principal.DisplayName)
}

func TestAuthServiceRejectsExpiredToken(t *testing.T) {
	svc := newTestAuthService()
	svc.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, _, err := svc.IssueToken(alice)
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.ValidateToken(token)
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
	assert.Equal(t, "token expired", appErrors.FromError(err).Message)
}

func TestAuthServiceRejectsForeignSignature(t *testing.T) {
	other := NewAuthService(AuthConfig{TokenSecret: "other", Issuer: "cursada-identity", Audience: []string{"cursada-app"}}, nil)
	token, _, err := other.IssueToken(alice)
	require.NoError(t, err)

	_, err = newTestAuthService().ValidateToken(token)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}

func TestAuthServiceRejectsWrongAudience(t *testing.T) {
	other := NewAuthService(AuthConfig{TokenSecret: "test-secret", Issuer: "cursada-identity", Audience: []string{"someone-else"}}, nil)
	token, _, err := other.IssueToken(alice)
	require.NoError(t, err)

	_, err = newTestAuthService().ValidateToken(token)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}

func TestAuthServiceRejectsNonUUIDSubject(t *testing.T) {
	claims := models.TokenClaims{
		Email: "x@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-42",
			Issuer:    "cursada-identity",
			Audience:  jwt.ClaimStrings{"cursada-app"},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = newTestAuthService().ValidateToken(token)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}
