package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cursada/planner-api/internal/models"
	appErrors "github.com/cursada/planner-api/pkg/errors"
)

// AuthConfig defines how bearer tokens minted by the identity bridge are verified.
type AuthConfig struct {
	TokenSecret string
	Issuer      string
	Audience    []string
	TokenTTL    time.Duration
}

// AuthService verifies bearer tokens. Credentials are handled upstream; this
// service only trusts tokens signed with the shared secret.
type AuthService struct {
	config AuthConfig
	logger *zap.Logger
	now    func() time.Time
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(config AuthConfig, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.TokenTTL <= 0 {
		config.TokenTTL = 24 * time.Hour
	}
	return &AuthService{config: config, logger: logger, now: time.Now}
}

// ValidateToken parses a bearer token and returns the caller.
func (s *AuthService) ValidateToken(tokenString string) (*models.Principal, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	}
	if s.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(s.config.Issuer))
	}
	if len(s.config.Audience) > 0 {
		options = append(options, jwt.WithAudience(s.config.Audience[0]))
	}

	token, err := jwt.ParseWithClaims(tokenString, &models.TokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.config.TokenSecret), nil
	}, options...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "token expired")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.TokenClaims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}
	if _, err := uuid.Parse(claims.Subject); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token subject")
	}
	if claims.Email == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "token without email")
	}

	principal := claims.Principal()
	return &principal, nil
}

// IssueToken signs a token for principal. Used by the admin CLI for local
// development in place of the identity bridge.
func (s *AuthService) IssueToken(principal models.Principal) (string, time.Time, error) {
	if principal.UserID == "" {
		principal.UserID = uuid.NewString()
	}
	issuedAt := s.now().UTC()
	expiresAt := issuedAt.Add(s.config.TokenTTL)
	claims := models.TokenClaims{
		Email: principal.Email,
		Name:  principal.DisplayName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   principal.UserID,
			Issuer:    s.config.Issuer,
			Audience:  jwt.ClaimStrings(s.config.Audience),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.config.TokenSecret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}
