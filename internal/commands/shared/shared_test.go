// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package shared

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"

	"github.com/hrmless/adapter/internal/auth"
	"github.com/hrmless/adapter/internal/operation"
	"github.com/hrmless/adapter/internal/secrets"
	"github.com/hrmless/adapter/internal/testing/fakeapi"
	pkgerrors "github.com/hrmless/adapter/pkg/errors"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"explicit", NewMissingInputError("missing", nil), ExitMissingInput},
		{"wrapped explicit", fmt.Errorf("outer: %w", NewInvalidUsageError("bad", nil)), ExitInvalidUsage},
		{"unauthorized", operation.NewUnauthorizedError("a"), ExitAuthRequired},
		{"not found", operation.NewNotFoundError("a", "gone"), ExitNotFound},
		{"validation", operation.NewValidationError("a", "missing"), ExitMissingInput},
		{"http failure", operation.NewHTTPError("a", "GET", "http://x", 500, nil), ExitExecutionFailed},
		{"session", &pkgerrors.SessionError{Reason: "none"}, ExitAuthRequired},
		{"auth test", &auth.AuthTestError{Cause: errors.New("x")}, ExitAuthRequired},
		{"config", &pkgerrors.ConfigError{Reason: "bad"}, ExitInvalidUsage},
		{"plain", errors.New("boom"), ExitExecutionFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCode(tt.err))
		})
	}
}

func TestPrintError_Suggestion(t *testing.T) {
	var buf bytes.Buffer
	PrintError(&buf, fmt.Errorf("perform: %w", operation.NewUnauthorizedError("a")))

	assert.Contains(t, buf.String(), operation.UnauthorizedMessage)
	assert.Contains(t, buf.String(), "Suggestion: Run 'hrmless auth refresh'")

	buf.Reset()
	PrintError(&buf, errors.New("plain"))
	assert.NotContains(t, buf.String(), "Suggestion")
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"json": FormatJSON, "YAML": FormatYAML, "yml": FormatYAML, "text": FormatText} {
		got, err := ParseFormat(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ParseFormat("xml")
	assert.Equal(t, ExitInvalidUsage, ExitCode(err))
}

func TestRender(t *testing.T) {
	v := map[string]any{"id": "pos-1", "name": "Driver"}

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, Render(&buf, FormatJSON, v))
		assert.JSONEq(t, `{"id":"pos-1","name":"Driver"}`, buf.String())
	})

	t.Run("yaml", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, Render(&buf, FormatYAML, v))
		assert.Equal(t, "id: pos-1\nname: Driver\n", buf.String())
	})

	t.Run("text object", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, Render(&buf, FormatText, v))
		assert.Contains(t, buf.String(), "pos-1")
		assert.Contains(t, buf.String(), "FIELD")
	})

	t.Run("text sequence", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, Render(&buf, FormatText, []any{v, map[string]any{"id": "pos-2", "extra": true}}))
		out := buf.String()
		assert.Contains(t, out, "EXTRA")
		assert.Contains(t, out, "pos-2")
	})

	t.Run("text empty sequence", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, Render(&buf, FormatText, []any{}))
		assert.Contains(t, buf.String(), "no results")
	})
}

func TestColumnsOf(t *testing.T) {
	got := columnsOf([]any{
		map[string]any{"b": 1, "a": 2},
		"scalar",
		map[string]any{"c": 3, "a": 4},
	})
	assert.Equal(t, []string{"a", "b", "c"}, got)
}

func TestFormatElapsed(t *testing.T) {
	assert.Equal(t, "12s", formatElapsed(12*time.Second))
	assert.Equal(t, "2m", formatElapsed(2*time.Minute))
	assert.Equal(t, "1m 23s", formatElapsed(83*time.Second))
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "user-1",
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("test-key"))
	require.NoError(t, err)
	return tok
}

func writeEmptyEnv(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, nil, 0o600))
	return path
}

func newRuntime(t *testing.T, api *fakeapi.Server) *Runtime {
	t.Helper()
	keyring.MockInit()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	env := map[string]string{
		"BASE_URL":       api.URL,
		"BASE_LOGIN_URL": api.LoginURL(),
		"LOG_LEVEL":      "error",
	}
	rt, err := NewRuntime(context.Background(), RuntimeOptions{
		EnvFile: writeEmptyEnv(t),
		LookupEnv: func(k string) (string, bool) {
			v, ok := env[k]
			return v, ok
		},
		Backends: []secrets.Backend{secrets.NewKeychainBackend()},
		Stderr:   &bytes.Buffer{},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = rt.Close(context.Background()) })
	return rt
}

func TestRuntime_SessionStates(t *testing.T) {
	api := fakeapi.New()
	t.Cleanup(api.Close)
	ctx := context.Background()

	t.Run("unauthenticated", func(t *testing.T) {
		rt := newRuntime(t, api)
		_, err := rt.Session(ctx)
		var sessErr *pkgerrors.SessionError
		require.ErrorAs(t, err, &sessErr)
		assert.Equal(t, "no stored session", sessErr.Reason)
	})

	t.Run("authenticated", func(t *testing.T) {
		rt := newRuntime(t, api)
		stored := operation.AuthData{AccessToken: signedToken(t, time.Now().Add(time.Hour)), RefreshToken: "r", OrgID: "org-1"}
		require.NoError(t, rt.Store.Save(ctx, stored))

		got, err := rt.Session(ctx)
		require.NoError(t, err)
		assert.Equal(t, stored, got)
	})

	t.Run("expired refreshes and stores", func(t *testing.T) {
		rt := newRuntime(t, api)
		require.NoError(t, rt.Store.Save(ctx, operation.AuthData{
			AccessToken:  signedToken(t, time.Now().Add(-time.Minute)),
			RefreshToken: "refresh-1",
			OrgID:        "org-1",
		}))

		got, err := rt.Session(ctx)
		require.NoError(t, err)
		assert.NotEmpty(t, got.AccessToken)
		assert.Equal(t, "refresh-1", got.RefreshToken)
		assert.Equal(t, "org-1", got.OrgID, "organization survives a refresh")

		stored, err := rt.Store.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, got, stored)
	})

	t.Run("expired without refresh token", func(t *testing.T) {
		rt := newRuntime(t, api)
		require.NoError(t, rt.Store.Save(ctx, operation.AuthData{AccessToken: signedToken(t, time.Now().Add(-time.Minute))}))

		_, err := rt.Session(ctx)
		assert.Equal(t, ExitAuthRequired, ExitCode(err))
	})
}

func TestRuntime_Performer(t *testing.T) {
	api := fakeapi.New()
	t.Cleanup(api.Close)
	api.RequireToken("tok")
	rt := newRuntime(t, api)

	p, err := rt.Performer()
	require.NoError(t, err)
	reg, err := rt.Registry(false)
	require.NoError(t, err)
	action, err := reg.Get("orgSettingsList")
	require.NoError(t, err)

	got, err := p.Perform(context.Background(), action, operation.NewBundle(operation.AuthData{AccessToken: "tok", OrgID: fakeapi.DefaultOrgID}, nil))
	require.NoError(t, err)
	assert.Equal(t, "Acme Corp", got.(map[string]any)["name"])

	families, err := rt.Prometheus.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families, "performs are recorded in the runtime registry")
}

func TestRuntime_InvalidTrace(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	_, err := NewRuntime(context.Background(), RuntimeOptions{
		EnvFile:   writeEmptyEnv(t),
		Trace:     "zipkin",
		LookupEnv: func(string) (string, bool) { return "", false },
		Backends:  []secrets.Backend{secrets.NewEnvBackend()},
	})
	assert.Equal(t, ExitInvalidUsage, ExitCode(err))
}
