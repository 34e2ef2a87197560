// Package jwt provides JWT token management.
package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims custom JWT claims
type Claims struct {
	UserID   int64  `json:"user_id"`
	UserType string `json:"user_type"` // agent, admin
	Role     string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// User types
const (
	UserTypeAgent = "agent"
	UserTypeAdmin = "admin"
)

// Config JWT configuration
type Config struct {
	Secret            string
	AccessExpireTime  time.Duration
	RefreshExpireTime time.Duration
	Issuer            string
}

// Manager JWT manager
type Manager struct {
	config *Config
}

// TokenPair access/refresh token pair
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    int64  `json:"expires_at"`
}

// Predefined errors
var (
	ErrTokenInvalid   = errors.New("invalid token")
	ErrTokenExpired   = errors.New("token expired")
	ErrTokenMalformed = errors.New("token malformed")
)

// NewManager creates a JWT manager
func NewManager(config *Config) *Manager {
	return &Manager{config: config}
}

// GenerateTokenPair issues an access/refresh token pair
func (m *Manager) GenerateTokenPair(userID int64, userType, role string) (*TokenPair, error) {
	now := time.Now()
	accessExpireAt := now.Add(m.config.AccessExpireTime)
	refreshExpireAt := now.Add(m.config.RefreshExpireTime)

	accessToken, err := m.generateToken(userID, userType, role, now, accessExpireAt)
	if err != nil {
		return nil, err
	}

	refreshToken, err := m.generateToken(userID, userType, role, now, refreshExpireAt)
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    accessExpireAt.Unix(),
	}, nil
}

// generateToken signs a single token
func (m *Manager) generateToken(userID int64, userType, role string, issuedAt, expiresAt time.Time) (string, error) {
	claims := &Claims{
		UserID:   userID,
		UserType: userType,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(m.config.Secret))
}

// ParseToken validates and parses a token
func (m *Manager) ParseToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return []byte(m.config.Secret), nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, ErrTokenMalformed
		default:
			return nil, ErrTokenInvalid
		}
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}
