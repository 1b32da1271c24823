package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/EnzoTheBrown/bribe/internal/domain"
	"github.com/EnzoTheBrown/bribe/internal/repository"
)

// Identity is the verified caller of a single request. User is exactly the
// record the repository returned while the request was being admitted.
type Identity struct {
	User      *domain.User
	ExpiresAt time.Time
}

// UserID returns the identifier of the admitted account.
func (i Identity) UserID() int64 {
	if i.User == nil {
		return 0
	}
	return i.User.ID
}

// Admit runs the gate for one request: extract the bearer token from the
// Authorization header, decode it, then resolve the account it names.
// Any failure leaves the caller unauthenticated.
func (s Service) Admit(ctx context.Context, authorization string) (Identity, error) {
	const op = "admit"

	token, err := BearerToken(authorization)
	if err != nil {
		return Identity{}, fail(op, err, nil)
	}

	claims, err := s.tokens.Decode(token)
	if err != nil {
		return Identity{}, fail(op, ErrInvalidToken, err)
	}

	user, err := s.users.GetUserByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Identity{}, fail(op, ErrIdentityNotFound, err)
		}
		return Identity{}, fail(op, ErrStorageFailure, err)
	}
	if user == nil {
		return Identity{}, fail(op, ErrIdentityNotFound, nil)
	}
	if err := ctx.Err(); err != nil {
		return Identity{}, fail(op, ErrStorageFailure, err)
	}

	ident := Identity{User: user}
	if claims.ExpiresAt != nil {
		ident.ExpiresAt = claims.ExpiresAt.Time
	}
	return ident, nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, error) {
	if strings.TrimSpace(header) == "" {
		return "", ErrMissingCredential
	}
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", ErrMalformedCredential
	}
	return parts[1], nil
}
