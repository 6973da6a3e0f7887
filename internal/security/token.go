package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken   = errors.New("invalid token")
	ErrExpiredToken   = errors.New("token has expired")
	ErrWrongAudience  = errors.New("token not issued for the interaction api")
	ErrUnknownService = errors.New("token issued by an unknown service")
)

const interactionAudience = "interaction-api"

// ServiceClaims identifies the service calling the interaction API
type ServiceClaims struct {
	Service string `json:"service"`
	jwt.RegisteredClaims
}

type TokenManager interface {
	GenerateServiceToken(service string) (string, error)
	ValidateServiceToken(tokenString string) (*ServiceClaims, error)
}

type tokenManager struct {
	secret  []byte
	ttl     time.Duration
	allowed map[string]bool
}

// NewTokenManager returns a manager signing HS256 tokens with secret. When
// allowedServices is non-empty, only tokens issued for those services validate.
func NewTokenManager(secret string, ttl time.Duration, allowedServices ...string) TokenManager {
	allowed := make(map[string]bool, len(allowedServices))
	for _, s := range allowedServices {
		allowed[s] = true
	}
	return &tokenManager{
		secret:  []byte(secret),
		ttl:     ttl,
		allowed: allowed,
	}
}

func (m *tokenManager) GenerateServiceToken(service string) (string, error) {
	now := time.Now()
	claims := ServiceClaims{
		Service: service,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   service,
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    service,
			Audience:  jwt.ClaimStrings{interactionAudience},
			ID:        uuid.NewString(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

func (m *tokenManager) ValidateServiceToken(tokenString string) (*ServiceClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &ServiceClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secret, nil
	}, jwt.WithAudience(interactionAudience))

	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpiredToken
		case errors.Is(err, jwt.ErrTokenInvalidAudience):
			return nil, ErrWrongAudience
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*ServiceClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if len(m.allowed) > 0 && !m.allowed[claims.Service] {
		return nil, ErrUnknownService
	}
	return claims, nil
}
