package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EnzoTheBrown/bribe/pkg/crypto"
	"github.com/EnzoTheBrown/bribe/pkg/jwt"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := newApp(&out)
	app.ErrWriter = &bytes.Buffer{}
	err := app.RunContext(context.Background(), append([]string{"bribe"}, args...))
	return out.String(), err
}

func TestHashPassword(t *testing.T) {
	t.Setenv("PASSWORD_HASH_MEMORY_KIB", "1024")
	t.Setenv("PASSWORD_HASH_ITERATIONS", "1")

	out, err := run(t, "hash-password", "--password", "hunter2")
	require.NoError(t, err)
	hash := strings.TrimSpace(out)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=1024,t=1,p=1$"), hash)

	ok, err := crypto.ComparePassword(hash, "hunter2")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestIssueToken(t *testing.T) {
	t.Setenv("SECRET_KEY", "cli-secret")

	out, err := run(t, "issue-token", "--user-id", "7", "--email", "a@x.com")
	require.NoError(t, err)

	secret, err := jwt.NewSecret("cli-secret")
	require.NoError(t, err)
	claims, err := jwt.Decode(strings.TrimSpace(out), secret)
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.Subject)
	assert.Equal(t, "a@x.com", claims.Email)
}

func TestIssueTokenRequiresSecret(t *testing.T) {
	t.Setenv("SECRET_KEY", "")
	_, err := run(t, "issue-token", "--user-id", "7", "--email", "a@x.com")
	require.Error(t, err)
}

func TestMigrateUpAndStatus(t *testing.T) {
	t.Setenv("DATABASE_URL", "sqlite://"+filepath.Join(t.TempDir(), "cli.db"))

	_, err := run(t, "migrate", "up")
	require.NoError(t, err)

	out, err := run(t, "migrate", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "00001\tapplied")
}

func TestLoginAndWhoami(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	mux := http.NewServeMux()
	mux.HandleFunc("/login", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"access_token":"tok","token_type":"Bearer"}`))
	})
	mux.HandleFunc("/me", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"unauthorized"}`))
			return
		}
		_, _ = w.Write([]byte(`{"id":7,"full_name":"Ada","email":"a@x.com"}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	_, err := run(t, "whoami", "--api", srv.URL)
	assert.ErrorContains(t, err, "not logged in")

	out, err := run(t, "login", "--email", "a@x.com", "--password", "pw", "--api", srv.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "logged in")

	out, err = run(t, "whoami")
	require.NoError(t, err)
	assert.Equal(t, "7\ta@x.com\tAda\n", out)
}
