package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EnzoTheBrown/bribe/internal/domain"
	"github.com/EnzoTheBrown/bribe/internal/repository"
	"github.com/EnzoTheBrown/bribe/pkg/crypto"
	jwtpkg "github.com/EnzoTheBrown/bribe/pkg/jwt"
	"github.com/EnzoTheBrown/bribe/pkg/logger"
)

type userRepoMock struct {
	createFunc     func(ctx context.Context, user *domain.User) error
	getByEmailFunc func(ctx context.Context, email string) (*domain.User, error)
	getByIDFunc    func(ctx context.Context, id int64) (*domain.User, error)
}

func (m userRepoMock) CreateUser(ctx context.Context, user *domain.User) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, user)
	}
	return errors.New("not implemented")
}

func (m userRepoMock) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	if m.getByEmailFunc != nil {
		return m.getByEmailFunc(ctx, email)
	}
	return nil, repository.ErrNotFound
}

func (m userRepoMock) GetUserByID(ctx context.Context, id int64) (*domain.User, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, repository.ErrNotFound
}

var testHasher = crypto.NewHasher(crypto.Params{Memory: 1024, Iterations: 1, Threads: 1})

type fixture struct {
	user  *domain.User
	codec *jwtpkg.Codec
	now   time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	hash, err := testHasher.Hash("correct")
	require.NoError(t, err)
	secret, err := jwtpkg.NewSecret("service-test-secret")
	require.NoError(t, err)
	f := &fixture{
		user: &domain.User{ID: 7, Email: "a@x.com", FullName: "A", PasswordHash: hash, Lang: "en"},
		now:  time.Now(),
	}
	f.codec = jwtpkg.NewCodec(secret, jwtpkg.WithTTL(time.Hour), jwtpkg.WithClock(func() time.Time { return f.now }))
	return f
}

func (f *fixture) repo() userRepoMock {
	return userRepoMock{
		getByEmailFunc: func(_ context.Context, email string) (*domain.User, error) {
			if email == f.user.Email {
				return f.user, nil
			}
			return nil, repository.ErrNotFound
		},
		getByIDFunc: func(_ context.Context, id int64) (*domain.User, error) {
			if id == f.user.ID {
				return f.user, nil
			}
			return nil, repository.ErrNotFound
		},
	}
}

func (f *fixture) service(repo repository.UserRepository) Service {
	return New(repo, testHasher, f.codec, logger.Discard())
}

func TestLoginIssuesBearerToken(t *testing.T) {
	f := newFixture(t)
	svc := f.service(f.repo())

	tok, err := svc.Login(context.Background(), " a@x.com ", "correct")
	require.NoError(t, err)
	assert.Equal(t, "Bearer", tok.TokenType)
	assert.NotEmpty(t, tok.Token)
	assert.WithinDuration(t, f.now.Add(time.Hour), tok.ExpiresAt, time.Second)

	claims, err := f.codec.Decode(tok.Token)
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.Subject)
	assert.Equal(t, "a@x.com", claims.Email)
}

func TestLoginFailures(t *testing.T) {
	f := newFixture(t)
	storageErr := errors.New("connection refused")

	tests := []struct {
		name     string
		repo     repository.UserRepository
		email    string
		password string
		wantKind error
		reason   string
	}{
		{name: "wrong password", repo: f.repo(), email: "a@x.com", password: "wrong", wantKind: ErrInvalidCredentials, reason: "invalid_credentials"},
		{name: "unknown email", repo: f.repo(), email: "b@x.com", password: "correct", wantKind: ErrIdentityNotFound, reason: "identity_not_found"},
		{name: "blank email", repo: f.repo(), email: "  ", password: "correct", wantKind: ErrMalformedInput, reason: "malformed_input"},
		{name: "blank password", repo: f.repo(), email: "a@x.com", password: "", wantKind: ErrMalformedInput, reason: "malformed_input"},
		{
			name: "storage down",
			repo: userRepoMock{getByEmailFunc: func(context.Context, string) (*domain.User, error) {
				return nil, storageErr
			}},
			email: "a@x.com", password: "correct", wantKind: ErrStorageFailure, reason: "storage_failure",
		},
		{
			name: "corrupt stored hash",
			repo: userRepoMock{getByEmailFunc: func(context.Context, string) (*domain.User, error) {
				return &domain.User{ID: 7, Email: "a@x.com", PasswordHash: "not-a-hash"}, nil
			}},
			email: "a@x.com", password: "correct", wantKind: ErrHashingFailure, reason: "hashing_failure",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tok, err := f.service(tc.repo).Login(context.Background(), tc.email, tc.password)
			require.ErrorIs(t, err, tc.wantKind)
			assert.Empty(t, tok.Token)
			assert.Equal(t, tc.reason, Reason(err))
			assert.NotContains(t, err.Error(), f.user.PasswordHash)
		})
	}
}

func TestLoginStorageErrorKeepsCause(t *testing.T) {
	f := newFixture(t)
	storageErr := errors.New("connection refused")
	svc := f.service(userRepoMock{getByEmailFunc: func(context.Context, string) (*domain.User, error) {
		return nil, storageErr
	}})

	_, err := svc.Login(context.Background(), "a@x.com", "correct")
	assert.ErrorIs(t, err, storageErr)
	var authErr *Error
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, "login", authErr.Op)
}

type failingCodec struct{ *jwtpkg.Codec }

func (failingCodec) Issue(int64, string) (string, time.Time, error) {
	return "", time.Time{}, errors.New("signer unavailable")
}

func TestLoginTokenIssueFailure(t *testing.T) {
	f := newFixture(t)
	svc := New(f.repo(), testHasher, failingCodec{f.codec}, logger.Discard())

	_, err := svc.Login(context.Background(), "a@x.com", "correct")
	assert.ErrorIs(t, err, ErrTokenIssue)
}

func TestAdmitResolvesIdentity(t *testing.T) {
	f := newFixture(t)
	svc := f.service(f.repo())
	token, _, err := f.codec.Issue(7, "a@x.com")
	require.NoError(t, err)

	ident, err := svc.Admit(context.Background(), "Bearer "+token)
	require.NoError(t, err)
	assert.Same(t, f.user, ident.User)
	assert.Equal(t, int64(7), ident.UserID())
	assert.False(t, ident.ExpiresAt.IsZero())
}

func TestAdmitLoadsFreshRecord(t *testing.T) {
	f := newFixture(t)
	calls := 0
	svc := f.service(userRepoMock{getByIDFunc: func(_ context.Context, id int64) (*domain.User, error) {
		calls++
		return &domain.User{ID: id, Email: "a@x.com", FullName: "call"}, nil
	}})
	token, _, err := f.codec.Issue(7, "a@x.com")
	require.NoError(t, err)

	first, err := svc.Admit(context.Background(), "Bearer "+token)
	require.NoError(t, err)
	second, err := svc.Admit(context.Background(), "Bearer "+token)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.NotSame(t, first.User, second.User)
}

func TestAdmitRejections(t *testing.T) {
	f := newFixture(t)
	valid, _, err := f.codec.Issue(7, "a@x.com")
	require.NoError(t, err)
	orphan, _, err := f.codec.Issue(99, "gone@x.com")
	require.NoError(t, err)

	otherSecret, err := jwtpkg.NewSecret("another-secret")
	require.NoError(t, err)
	foreign, _, err := jwtpkg.NewCodec(otherSecret).Issue(7, "a@x.com")
	require.NoError(t, err)

	tampered := valid[:len(valid)-1] + "A"
	if valid[len(valid)-1] == 'A' {
		tampered = valid[:len(valid)-1] + "Q"
	}

	tests := []struct {
		name     string
		header   string
		repo     repository.UserRepository
		wantKind error
		reason   string
	}{
		{name: "missing header", header: "", wantKind: ErrMissingCredential, reason: "missing_credential"},
		{name: "blank header", header: "   ", wantKind: ErrMissingCredential, reason: "missing_credential"},
		{name: "basic scheme", header: "Basic dXNlcjpwYXNz", wantKind: ErrMalformedCredential, reason: "malformed_credential"},
		{name: "bearer without token", header: "Bearer", wantKind: ErrMalformedCredential, reason: "malformed_credential"},
		{name: "extra segments", header: "Bearer a b", wantKind: ErrMalformedCredential, reason: "malformed_credential"},
		{name: "garbage token", header: "Bearer not-a-jwt", wantKind: ErrInvalidToken, reason: "malformed_token"},
		{name: "tampered token", header: "Bearer " + tampered, wantKind: ErrInvalidToken, reason: "invalid_signature"},
		{name: "foreign secret", header: "Bearer " + foreign, wantKind: ErrInvalidToken, reason: "invalid_signature"},
		{name: "deleted account", header: "Bearer " + orphan, wantKind: ErrIdentityNotFound, reason: "identity_not_found"},
		{
			name:   "storage down",
			header: "Bearer " + valid,
			repo: userRepoMock{getByIDFunc: func(context.Context, int64) (*domain.User, error) {
				return nil, errors.New("timeout")
			}},
			wantKind: ErrStorageFailure, reason: "storage_failure",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			repo := tc.repo
			if repo == nil {
				repo = f.repo()
			}
			ident, err := f.service(repo).Admit(context.Background(), tc.header)
			require.ErrorIs(t, err, tc.wantKind)
			assert.Nil(t, ident.User)
			assert.Equal(t, tc.reason, Reason(err))
		})
	}
}

func TestAdmitRejectsExpiredToken(t *testing.T) {
	f := newFixture(t)
	svc := f.service(f.repo())
	token, _, err := f.codec.Issue(7, "a@x.com")
	require.NoError(t, err)

	f.now = f.now.Add(time.Hour + 2*time.Minute)
	_, err = svc.Admit(context.Background(), "Bearer "+token)
	require.ErrorIs(t, err, ErrInvalidToken)
	assert.ErrorIs(t, err, jwtpkg.ErrExpired)
	assert.Equal(t, "expired_token", Reason(err))
}

func TestAdmitCancelledRequest(t *testing.T) {
	f := newFixture(t)
	token, _, err := f.codec.Issue(7, "a@x.com")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	svc := f.service(userRepoMock{getByIDFunc: func(ctx context.Context, id int64) (*domain.User, error) {
		cancel()
		return nil, ctx.Err()
	}})

	ident, err := svc.Admit(ctx, "Bearer "+token)
	require.ErrorIs(t, err, ErrStorageFailure)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, ident.User)
}

func TestAdmitAbandonsIdentityWhenContextEndsAfterLookup(t *testing.T) {
	f := newFixture(t)
	token, _, err := f.codec.Issue(7, "a@x.com")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	svc := f.service(userRepoMock{getByIDFunc: func(context.Context, int64) (*domain.User, error) {
		cancel()
		return f.user, nil
	}})

	ident, err := svc.Admit(ctx, "Bearer "+token)
	require.ErrorIs(t, err, ErrStorageFailure)
	assert.Nil(t, ident.User)
}

func TestBearerTokenAcceptsCaseInsensitiveScheme(t *testing.T) {
	tok, err := BearerToken("bearer abc.def.ghi")
	require.NoError(t, err)
	assert.Equal(t, "abc.def.ghi", tok)
}

func TestReasonUnknown(t *testing.T) {
	assert.Equal(t, "unknown", Reason(errors.New("boom")))
	assert.Equal(t, "ok", Reason(nil))
}
