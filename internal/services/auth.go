package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/soliton-oj/adminserver/internal/store"
	"github.com/soliton-oj/adminserver/internal/validation"
	"github.com/soliton-oj/adminserver/types"
	"golang.org/x/crypto/bcrypt"
)

// DefaultSessionTTL is the fixed lifetime of a session token.
const DefaultSessionTTL = 8 * time.Hour

// DefaultBcryptCost is the cost factor used for admin password hashes.
const DefaultBcryptCost = 12

// fallbackPlaceholderHash is a well-formed cost-12 hash matching no
// password. It stands in when the per-service placeholder cannot be built.
const fallbackPlaceholderHash = "$2a$12$CCCCCCCCCCCCCCCCCCCCC.E5YPO9kmyuRGyh0XouQYb4YMJKvyOeW"

// AdminRepository defines persistence operations for admins.
type AdminRepository interface {
	GetByEmail(ctx context.Context, email string) (types.Admin, error)
	Create(ctx context.Context, admin types.Admin) (types.Admin, error)
	List(ctx context.Context) ([]types.Admin, error)
	Count(ctx context.Context) (int, error)
}

// AuthService verifies admin credentials and issues and verifies the
// signed, stateless session tokens. There is no server-side session
// table: a token is valid until it expires or the secret is rotated.
type AuthService struct {
	admins     AdminRepository
	secret     []byte
	ttl        time.Duration
	bcryptCost int
	now        func() time.Time
	hash       func(password string, cost int) ([]byte, error)

	dummyOnce sync.Once
	dummyHash []byte
}

func NewAuthService(admins AdminRepository, jwtSecret string, ttl time.Duration, bcryptCost int) *AuthService {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = DefaultBcryptCost
	}
	return &AuthService{
		admins:     admins,
		secret:     []byte(jwtSecret),
		ttl:        ttl,
		bcryptCost: bcryptCost,
		now:        time.Now,
		hash:       HashPassword,
	}
}

type sessionClaims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	jwt.RegisteredClaims
}

// Login checks the credentials and returns a fresh session and its token.
// A malformed or incomplete payload, an unknown email and a wrong password
// all yield ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, req types.LoginRequest) (types.Session, string, error) {
	if err := validation.Struct(req); err != nil {
		return types.Session{}, "", ErrInvalidCredentials
	}

	admin, err := s.admins.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Burn the same bcrypt work as a real comparison.
			_ = bcrypt.CompareHashAndPassword(s.placeholderHash(), []byte(req.Password))
			return types.Session{}, "", ErrInvalidCredentials
		}
		return types.Session{}, "", fmt.Errorf("lookup admin: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(req.Password)); err != nil {
		return types.Session{}, "", ErrInvalidCredentials
	}

	return s.Issue(admin)
}

// Issue signs a session token for the admin.
func (s *AuthService) Issue(admin types.Admin) (types.Session, string, error) {
	now := s.now()
	claims := sessionClaims{
		Email: admin.Email,
		Name:  admin.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   admin.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return types.Session{}, "", fmt.Errorf("sign token: %w", err)
	}

	return types.Session{
		AdminID:   admin.ID,
		Email:     admin.Email,
		Name:      admin.Name,
		ExpiresAt: claims.ExpiresAt.Time,
	}, token, nil
}

// Authenticate verifies the token signature and expiry and returns the
// session it carries. It never touches the store.
func (s *AuthService) Authenticate(tokenString string) (types.Session, error) {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return types.Session{}, ErrUnauthorized
	}

	claims := sessionClaims{}
	token, err := jwt.ParseWithClaims(
		tokenString,
		&claims,
		func(token *jwt.Token) (any, error) {
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		return types.Session{}, ErrUnauthorized
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return types.Session{}, ErrUnauthorized
	}

	return types.Session{
		AdminID:   claims.Subject,
		Email:     claims.Email,
		Name:      claims.Name,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// TTL returns the lifetime of issued sessions.
func (s *AuthService) TTL() time.Duration {
	return s.ttl
}

func (s *AuthService) placeholderHash() []byte {
	s.dummyOnce.Do(func() {
		hash, err := s.hash("placeholder-password", s.bcryptCost)
		if err != nil {
			hash = []byte(fallbackPlaceholderHash)
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}
