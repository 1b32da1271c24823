package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/EnzoTheBrown/bribe/internal/repository"
	jwtpkg "github.com/EnzoTheBrown/bribe/pkg/jwt"
)

// TokenTypeBearer is the only token type issued.
const TokenTypeBearer = "Bearer"

// PasswordVerifier checks plaintext passwords against stored hashes.
type PasswordVerifier interface {
	Verify(plain, encoded string) (bool, error)
	Equalize(plain string)
}

// TokenCodec issues and decodes session tokens.
type TokenCodec interface {
	Issue(subject int64, email string) (string, time.Time, error)
	Decode(token string) (*jwtpkg.Claims, error)
}

// Service handles authentication workflows. It holds no mutable state and is
// safe for concurrent use.
type Service struct {
	users  repository.UserRepository
	hasher PasswordVerifier
	tokens TokenCodec
	logger *slog.Logger
}

// New constructs a Service.
func New(users repository.UserRepository, hasher PasswordVerifier, tokens TokenCodec, logger *slog.Logger) Service {
	if logger == nil {
		logger = slog.Default()
	}
	return Service{users: users, hasher: hasher, tokens: tokens, logger: logger}
}

// AccessToken is the result of a successful login.
type AccessToken struct {
	UserID    int64
	Token     string
	TokenType string
	ExpiresAt time.Time
}

// Login authenticates a user by email and password and returns a signed token.
// Unknown email and wrong password fail with different kinds internally but
// callers must not expose the difference.
func (s Service) Login(ctx context.Context, email, password string) (AccessToken, error) {
	const op = "login"
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return AccessToken{}, fail(op, ErrMalformedInput, nil)
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.hasher.Equalize(password)
			return AccessToken{}, fail(op, ErrIdentityNotFound, err)
		}
		return AccessToken{}, fail(op, ErrStorageFailure, err)
	}

	ok, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		return AccessToken{}, fail(op, ErrHashingFailure, err)
	}
	if !ok {
		return AccessToken{}, fail(op, ErrInvalidCredentials, nil)
	}

	token, expires, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return AccessToken{}, fail(op, ErrTokenIssue, err)
	}
	s.logger.InfoContext(ctx, "user logged in", "user_id", user.ID)
	return AccessToken{UserID: user.ID, Token: token, TokenType: TokenTypeBearer, ExpiresAt: expires}, nil
}
