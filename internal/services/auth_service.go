package services

import (
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/Wikid82/chimera/backend/internal/config"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAuthDisabled       = errors.New("admin authentication disabled")
	ErrInvalidToken       = errors.New("invalid token")
)

const adminSubject = "admin"

// Claims carried by admin session tokens.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type AuthService struct {
	hash   []byte
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewAuthService builds the admin guard from config. An empty JWT secret is
// replaced with a random one, so sessions do not survive a restart.
func NewAuthService(cfg config.AuthConfig) (*AuthService, error) {
	secret := []byte(cfg.JWTSecret)
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, fmt.Errorf("generate jwt secret: %w", err)
		}
	}
	ttl := cfg.JWTTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &AuthService{
		hash:   []byte(cfg.AdminTokenHash),
		secret: secret,
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// Enabled reports whether an admin token hash is configured.
func (s *AuthService) Enabled() bool {
	return s != nil && len(s.hash) > 0
}

// TTL is the lifetime of issued session tokens.
func (s *AuthService) TTL() time.Duration {
	return s.ttl
}

// Login checks the admin token against the bcrypt hash and issues a signed
// session token.
func (s *AuthService) Login(token string) (string, error) {
	if !s.Enabled() {
		return "", ErrAuthDisabled
	}
	if err := bcrypt.CompareHashAndPassword(s.hash, []byte(token)); err != nil {
		return "", ErrInvalidCredentials
	}

	now := s.now()
	claims := Claims{
		Role: adminSubject,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   adminSubject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Validate parses a session token and returns its claims.
func (s *AuthService) Validate(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject != adminSubject {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// HashToken returns the bcrypt hash to configure as the admin token hash.
func HashToken(token string) (string, error) {
	if token == "" {
		return "", ErrInvalidCredentials
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
