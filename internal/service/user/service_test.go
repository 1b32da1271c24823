package user

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EnzoTheBrown/bribe/internal/domain"
	"github.com/EnzoTheBrown/bribe/internal/repository"
	"github.com/EnzoTheBrown/bribe/pkg/logger"
)

type repoMock struct {
	createFunc  func(ctx context.Context, user *domain.User) error
	getByIDFunc func(ctx context.Context, id int64) (*domain.User, error)
}

func (m repoMock) CreateUser(ctx context.Context, user *domain.User) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, user)
	}
	user.ID = 1
	return nil
}

func (m repoMock) GetUserByEmail(context.Context, string) (*domain.User, error) {
	return nil, repository.ErrNotFound
}

func (m repoMock) GetUserByID(ctx context.Context, id int64) (*domain.User, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, repository.ErrNotFound
}

type hasherFunc func(string) (string, error)

func (f hasherFunc) Hash(plain string) (string, error) { return f(plain) }

var stubHasher = hasherFunc(func(plain string) (string, error) { return "hashed:" + plain, nil })

func validInput() RegisterInput {
	return RegisterInput{
		FullName:  "Ada Lovelace",
		BirthDate: "1815-12-10",
		Email:     "ada@example.com",
		Password:  "engine",
	}
}

func TestRegisterStoresHashedUser(t *testing.T) {
	var stored *domain.User
	repo := repoMock{createFunc: func(_ context.Context, u *domain.User) error {
		u.ID = 42
		stored = u
		return nil
	}}
	svc := New(repo, stubHasher, logger.Discard())

	user, err := svc.Register(context.Background(), validInput())
	require.NoError(t, err)
	assert.Equal(t, int64(42), user.ID)
	assert.Equal(t, "hashed:engine", stored.PasswordHash)
	assert.Equal(t, "en", user.Lang)
	assert.Equal(t, "1815-12-10", user.Public().BirthDate)
}

func TestRegisterValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*RegisterInput)
	}{
		{name: "missing name", mutate: func(in *RegisterInput) { in.FullName = " " }},
		{name: "missing email", mutate: func(in *RegisterInput) { in.Email = "" }},
		{name: "email without at", mutate: func(in *RegisterInput) { in.Email = "ada.example.com" }},
		{name: "missing password", mutate: func(in *RegisterInput) { in.Password = "" }},
		{name: "bad birth date", mutate: func(in *RegisterInput) { in.BirthDate = "10/12/1815" }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			repo := repoMock{createFunc: func(context.Context, *domain.User) error {
				t.Fatalf("repository must not be called")
				return nil
			}}
			in := validInput()
			tc.mutate(&in)
			_, err := New(repo, stubHasher, logger.Discard()).Register(context.Background(), in)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	repo := repoMock{createFunc: func(context.Context, *domain.User) error {
		return repository.ErrConflict
	}}
	_, err := New(repo, stubHasher, logger.Discard()).Register(context.Background(), validInput())
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestRegisterHashingFailure(t *testing.T) {
	failing := hasherFunc(func(string) (string, error) { return "", errors.New("entropy exhausted") })
	_, err := New(repoMock{}, failing, logger.Discard()).Register(context.Background(), validInput())
	assert.ErrorIs(t, err, ErrHashing)
}

func TestGet(t *testing.T) {
	repo := repoMock{getByIDFunc: func(_ context.Context, id int64) (*domain.User, error) {
		switch id {
		case 1:
			return &domain.User{ID: 1, Email: "a@x.com"}, nil
		case 2:
			return nil, errors.New("db down")
		}
		return nil, repository.ErrNotFound
	}}
	svc := New(repo, stubHasher, logger.Discard())

	user, err := svc.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", user.Email)

	_, err = svc.Get(context.Background(), 9)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Get(context.Background(), 0)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Get(context.Background(), 2)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}
