package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"log/slog"

	"github.com/EnzoTheBrown/bribe/internal/domain"
	"github.com/EnzoTheBrown/bribe/internal/repository"
)

const defaultLang = "en"

var (
	// ErrInvalidInput reports a registration payload that fails validation.
	ErrInvalidInput = errors.New("user: invalid input")
	// ErrEmailTaken reports a registration for an email that already has an account.
	ErrEmailTaken = errors.New("user: email already registered")
	// ErrHashing reports that the password could not be hashed.
	ErrHashing = errors.New("user: password hashing failed")
	// ErrNotFound reports a lookup for an unknown account.
	ErrNotFound = errors.New("user: not found")
)

// PasswordHasher produces stored password hashes.
type PasswordHasher interface {
	Hash(plain string) (string, error)
}

// RegisterInput is the registration payload.
type RegisterInput struct {
	FullName  string `json:"full_name"`
	BirthDate string `json:"birth_date"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Lang      string `json:"lang"`
}

// Service handles account workflows.
type Service struct {
	repo   repository.UserRepository
	hasher PasswordHasher
	logger *slog.Logger
}

// New constructs a Service.
func New(repo repository.UserRepository, hasher PasswordHasher, logger *slog.Logger) Service {
	if logger == nil {
		logger = slog.Default()
	}
	return Service{repo: repo, hasher: hasher, logger: logger}
}

// Register validates input, hashes the password and stores a new account.
func (s Service) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	user, err := in.validate()
	if err != nil {
		return nil, err
	}
	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHashing, err)
	}
	user.PasswordHash = hash
	if err := s.repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	s.logger.InfoContext(ctx, "user registered", "user_id", user.ID)
	return user, nil
}

// Get loads an account by id.
func (s Service) Get(ctx context.Context, id int64) (*domain.User, error) {
	if id <= 0 {
		return nil, ErrNotFound
	}
	user, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

func (in RegisterInput) validate() (*domain.User, error) {
	fullName := strings.TrimSpace(in.FullName)
	if fullName == "" {
		return nil, fmt.Errorf("%w: full_name is required", ErrInvalidInput)
	}
	email := strings.TrimSpace(in.Email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: email is invalid", ErrInvalidInput)
	}
	if in.Password == "" {
		return nil, fmt.Errorf("%w: password is required", ErrInvalidInput)
	}
	birth, err := time.Parse(domain.BirthDateLayout, strings.TrimSpace(in.BirthDate))
	if err != nil {
		return nil, fmt.Errorf("%w: birth_date must be YYYY-MM-DD", ErrInvalidInput)
	}
	lang := strings.TrimSpace(in.Lang)
	if lang == "" {
		lang = defaultLang
	}
	return &domain.User{
		FullName:  fullName,
		BirthDate: birth,
		Email:     email,
		Lang:      lang,
	}, nil
}
