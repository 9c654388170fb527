package service

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/noah-isme/compliance-case-api/internal/models"
	appErrors "github.com/noah-isme/compliance-case-api/pkg/errors"
)

// TokenConfig defines how access tokens are verified.
type TokenConfig struct {
	Secret   string
	Issuer   string
	Audience []string
	// TTL applies to tokens minted by IssueAccessToken.
	TTL time.Duration
}

// TokenService verifies access tokens minted by the identity provider.
type TokenService struct {
	config TokenConfig
	now    func() time.Time
}

// NewTokenService constructs a TokenService instance.
func NewTokenService(config TokenConfig) *TokenService {
	if config.TTL <= 0 {
		config.TTL = 15 * time.Minute
	}
	return &TokenService{config: config, now: time.Now}
}

// ValidateToken parses and validates an access token returning the claims. Tokens must carry a
// user, an organization and a known role.
func (s *TokenService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	}
	if s.config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.config.Issuer))
	}
	if len(s.config.Audience) > 0 {
		opts = append(opts, jwt.WithAudience(s.config.Audience[0]))
	}

	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.Secret), nil
	}, opts...)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}
	if claims.UserID == "" || claims.OrganizationID == "" || !claims.Role.Valid() {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "token is missing user, organization or role")
	}
	return claims, nil
}

// IssueAccessToken signs a token for user. It backs local tooling and tests; production tokens
// come from the identity provider.
func (s *TokenService) IssueAccessToken(user *models.User) (string, time.Time, error) {
	issuedAt := s.now().UTC()
	expiresAt := issuedAt.Add(s.config.TTL)
	claims := &models.JWTClaims{
		UserID:         user.ID,
		Role:           user.Role,
		OrganizationID: user.OrganizationID,
		Email:          user.Email,
		FullName:       user.FullName,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   user.ID,
			Audience:  s.config.Audience,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.config.Secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}
