// Package auth implements the identity and credential-hashing
// collaborators: registration, authentication, profile edits, and the
// tokens that tie an HTTP caller to a stable user id. The graph core
// only ever sees the opaque password hash produced here.
package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/Lactantius/agnosis-backend/internal/graph"
	"github.com/Lactantius/agnosis-backend/pkg/apperrors"
	"github.com/Lactantius/agnosis-backend/pkg/logger"
)

// Service handles registration, login, and token verification
type Service struct {
	store  graph.Store
	secret []byte
	ttl    time.Duration
	logger *zap.Logger
}

// NewService creates an auth service signing tokens with the given
// secret.
func NewService(store graph.Store, secret string, ttl time.Duration) *Service {
	return &Service{
		store:  store,
		secret: []byte(secret),
		ttl:    ttl,
		logger: logger.Get(),
	}
}

// Credentials couples a user with a freshly issued token
type Credentials struct {
	User  *graph.User `json:"user"`
	Token string      `json:"token"`
}

// Register hashes the password and creates the user. Uniqueness
// violations propagate unchanged from the store.
func (s *Service) Register(ctx context.Context, email, username, password string) (*Credentials, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.store.CreateUser(ctx, email, username, string(hash))
	if err != nil {
		return nil, err
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, err
	}
	s.logger.Info("User registered", zap.String("user_id", user.ID))
	return &Credentials{User: user, Token: token}, nil
}

// Authenticate finds the user by email and checks the password against
// the stored hash. Both failure modes collapse into
// ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*Credentials, error) {
	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperrors.ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, apperrors.ErrInvalidCredentials
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, err
	}
	return &Credentials{User: user, Token: token}, nil
}

// UpdateProfile rewrites a user's email, username, or password after
// re-proving the current password. Empty fields keep their current
// values.
func (s *Service) UpdateProfile(ctx context.Context, userID, currentPassword, email, username, password string) (*graph.User, error) {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, &apperrors.NotFoundError{Entity: "user", ID: userID}
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)) != nil {
		return nil, apperrors.ErrInvalidCredentials
	}

	if email == "" {
		email = user.Email
	}
	if username == "" {
		username = user.Username
	}
	hash := user.PasswordHash
	if password != "" {
		newHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		hash = string(newHash)
	}

	return s.store.UpdateUser(ctx, userID, email, username, hash)
}

func (s *Service) issueToken(user *graph.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":      user.ID,
		"email":    user.Email,
		"username": user.Username,
		"iat":      now.Unix(),
		"nbf":      now.Unix(),
		"exp":      now.Add(s.ttl).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return token, nil
}

// VerifyToken validates a token and returns the user id it was issued
// for.
func (s *Service) VerifyToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return "", apperrors.ErrInvalidCredentials
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", apperrors.ErrInvalidCredentials
	}
	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return "", apperrors.ErrInvalidCredentials
	}
	return sub, nil
}
