// Package identity provides user accounts, session tokens and session resolution.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bissquit/statusboard/internal/domain"
	"github.com/bissquit/statusboard/internal/pkg/ctxlog"
	"github.com/bissquit/statusboard/internal/pkg/metrics"
	"golang.org/x/crypto/bcrypt"
)

// bcryptCost is the work factor for password hashes.
const bcryptCost = 10

// maxPasswordBytes is the longest input bcrypt accepts.
const maxPasswordBytes = 72

// Service implements identity business logic.
type Service struct {
	repo     Repository
	auth     Authenticator
	denylist Denylist
}

// NewService creates a new identity service.
func NewService(repo Repository, auth Authenticator, denylist Denylist) *Service {
	return &Service{
		repo:     repo,
		auth:     auth,
		denylist: denylist,
	}
}

// RegisterInput contains data for user registration.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// Register creates a new user account.
func (s *Service) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	// bcrypt reads at most 72 bytes; the request validator counts runes.
	if len(input.Password) > maxPasswordBytes {
		return nil, ErrPasswordTooLong
	}

	email := normalizeEmail(input.Email)

	existing, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		return nil, fmt.Errorf("check existing user: %w", err)
	}
	if existing != nil {
		return nil, ErrEmailExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Name:     strings.TrimSpace(input.Name),
		Email:    email,
		Password: string(hash),
	}

	if err := s.repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, ErrEmailExists) {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	ctxlog.FromContext(ctx).Info("user registered", "user_id", user.ID)
	return user, nil
}

// LoginInput contains data for user login.
type LoginInput struct {
	Email    string
	Password string
}

// Login verifies credentials and issues a session token.
// Unknown email and wrong password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, input LoginInput) (*domain.User, *Token, error) {
	user, err := s.repo.GetUserByEmail(ctx, normalizeEmail(input.Email))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			metrics.LoginAttempts.WithLabelValues("invalid").Inc()
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, fmt.Errorf("get user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.Password)); err != nil {
		metrics.LoginAttempts.WithLabelValues("invalid").Inc()
		return nil, nil, ErrInvalidCredentials
	}

	token, err := s.auth.IssueToken(user)
	if err != nil {
		return nil, nil, fmt.Errorf("issue token: %w", err)
	}

	metrics.LoginAttempts.WithLabelValues("success").Inc()
	return user, token, nil
}

// Logout revokes the token until its natural expiry. Tokens that are already
// invalid need no revocation and are ignored.
func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}

	claims, err := s.auth.ParseToken(token)
	if err != nil {
		return nil
	}

	if err := s.denylist.Revoke(ctx, claims.TokenID, claims.ExpiresAt); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// CurrentUser returns the user the token was issued to.
func (s *Service) CurrentUser(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}

	claims, err := s.auth.ParseToken(token)
	if err != nil {
		return nil, err
	}

	revoked, err := s.denylist.IsRevoked(ctx, claims.TokenID)
	if err != nil {
		return nil, fmt.Errorf("check revocation: %w", err)
	}
	if revoked {
		return nil, fmt.Errorf("%w: revoked", ErrInvalidToken)
	}

	user, err := s.repo.GetUserByID(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// ResolveSession resolves a raw token into a typed session. A missing or
// rejected token, or a token whose user no longer exists, is anonymous;
// storage failures are reported as SessionError.
func (s *Service) ResolveSession(ctx context.Context, token string) domain.Session {
	user, err := s.CurrentUser(ctx, token)
	switch {
	case err == nil:
		return domain.Session{State: domain.SessionAuthenticated, User: user}
	case errors.Is(err, ErrInvalidToken), errors.Is(err, ErrUserNotFound):
		return domain.Session{State: domain.SessionAnonymous, Err: err}
	default:
		return domain.Session{State: domain.SessionError, Err: err}
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
