package repository

import (
	"context"

	"github.com/EnzoTheBrown/bribe/internal/domain"
)

// UserRepository persists users. Lookups return ErrNotFound when no row matches.
type UserRepository interface {
	CreateUser(ctx context.Context, user *domain.User) error
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	GetUserByID(ctx context.Context, id int64) (*domain.User, error)
}
