package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dkochetov/ticketbooking/config"
	"github.com/dkochetov/ticketbooking/internal/domain"
	"github.com/dkochetov/ticketbooking/internal/repository"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

type AuthUseCase interface {
	Register(ctx context.Context, name, email, password string) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	Refresh(ctx context.Context, refreshToken string) (*AuthResult, error)
	VerifyAccessToken(token string) (string, error)
}

type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// AuthResult is the user identity plus a fresh token pair, returned by all
// three auth operations.
type AuthResult struct {
	User         *domain.User
	AccessToken  string
	RefreshToken string
}

type AuthService struct {
	users      repository.UserRepository
	accessKey  []byte
	refreshKey []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewAuthService(users repository.UserRepository, cfg config.AuthConfig) *AuthService {
	return &AuthService{
		users:      users,
		accessKey:  []byte(cfg.AccessTokenSecret),
		refreshKey: []byte(cfg.RefreshTokenSecret),
		accessTTL:  cfg.AccessTokenTTL(),
		refreshTTL: cfg.RefreshTokenTTL(),
	}
}

func (s *AuthService) Register(ctx context.Context, name, email, password string) (*AuthResult, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return s.issueTokens(user)
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}
	return s.issueTokens(user)
}

func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	claims, err := parseToken(refreshToken, s.refreshKey)
	if err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.users.GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	return s.issueTokens(user)
}

// VerifyAccessToken validates an access token and returns the user id it
// carries. Used by the HTTP auth middleware.
func (s *AuthService) VerifyAccessToken(token string) (string, error) {
	claims, err := parseToken(token, s.accessKey)
	if err != nil {
		return "", domain.ErrInvalidCredentials
	}
	return claims.Subject, nil
}

func (s *AuthService) issueTokens(user *domain.User) (*AuthResult, error) {
	access, err := signToken(user, s.accessKey, s.accessTTL)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}
	refresh, err := signToken(user, s.refreshKey, s.refreshTTL)
	if err != nil {
		return nil, fmt.Errorf("sign refresh token: %w", err)
	}
	return &AuthResult{User: user, AccessToken: access, RefreshToken: refresh}, nil
}

func signToken(user *domain.User, key []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		Email: user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
}

func parseToken(tokenStr string, key []byte) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return key, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

var _ AuthUseCase = (*AuthService)(nil)
