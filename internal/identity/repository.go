package identity

import (
	"context"
	"time"

	"github.com/bissquit/statusboard/internal/domain"
)

// Repository stores user accounts.
type Repository interface {
	// CreateUser returns ErrEmailExists when the email is already registered.
	CreateUser(ctx context.Context, user *domain.User) error
	GetUserByID(ctx context.Context, id string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
}

// Denylist records revoked token ids until the tokens would have expired anyway.
type Denylist interface {
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// Claims is the verified content of a session token.
type Claims struct {
	UserID    string
	Email     string
	TokenID   string
	ExpiresAt time.Time
}

// Token is a freshly issued session token.
type Token struct {
	Value     string
	ExpiresAt time.Time
}

// Authenticator issues and verifies session tokens.
type Authenticator interface {
	IssueToken(user *domain.User) (*Token, error)
	// ParseToken returns an error wrapping ErrInvalidToken for malformed,
	// badly signed or expired tokens.
	ParseToken(token string) (*Claims, error)
}
