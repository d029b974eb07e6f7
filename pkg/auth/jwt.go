// Package auth issues and validates the session tokens that tell the API who
// is calling. A session asserts a resolved identity; it is not proof of
// wallet ownership.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/vamsi-krishn/EHR-system/internal/model"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims carries the caller's identity.
type Claims struct {
	Address string     `json:"address"`
	Role    model.Role `json:"role"`
	Name    string     `json:"name"`
	jwt.RegisteredClaims
}

// Actor converts the claims back into the caller of an operation.
func (c *Claims) Actor() model.Actor {
	return model.Actor{Role: c.Role, Address: c.Address, ID: c.Subject, Name: c.Name}
}

type JWTService interface {
	GenerateToken(actor model.Actor) (string, time.Time, error)
	ValidateToken(token string) (*Claims, error)
}

type Config struct {
	Secret string
	Issuer string
	TTL    time.Duration
}

type jwtService struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewJWTService(cfg Config) (JWTService, error) {
	if cfg.Secret == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}
	return &jwtService{secret: []byte(cfg.Secret), issuer: cfg.Issuer, ttl: cfg.TTL, now: time.Now}, nil
}

func (s *jwtService) GenerateToken(actor model.Actor) (string, time.Time, error) {
	now := s.now()
	expires := now.Add(s.ttl)
	claims := &Claims{
		Address: model.NormalizeAddress(actor.Address),
		Role:    actor.Role,
		Name:    actor.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actor.ID,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return token, expires, nil
}

func (s *jwtService) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || !claims.Role.Valid() {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
