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


package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"

	"github.com/hrmless/adapter/internal/cli"
	"github.com/hrmless/adapter/internal/commands/shared"
	"github.com/hrmless/adapter/internal/operation"
	"github.com/hrmless/adapter/internal/secrets"
	"github.com/hrmless/adapter/internal/testing/fakeapi"
)

func setup(t *testing.T) *fakeapi.Server {
	t.Helper()
	keyring.MockInit()
	api := fakeapi.New()
	t.Cleanup(api.Close)

	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("BASE_URL", api.URL)
	t.Setenv("BASE_LOGIN_URL", api.LoginURL())
	t.Setenv("LOG_LEVEL", "error")
	for _, key := range []string{secrets.KeyAccessToken, secrets.KeyRefreshToken, secrets.KeyOrgID} {
		t.Setenv(secrets.EnvName(key), "")
	}
	return api
}

func keychain() *secrets.Store {
	return secrets.NewStore(secrets.NewKeychainBackend())
}

func storeSession(t *testing.T, data operation.AuthData) {
	t.Helper()
	require.NoError(t, keychain().Save(context.Background(), data))
}

func storedSession(t *testing.T) operation.AuthData {
	t.Helper()
	data, err := keychain().Load(context.Background())
	require.NoError(t, err)
	return data
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Cleanup(shared.ResetFlagsForTest)

	root := cli.NewRootCommand()
	root.AddCommand(NewCommand())
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(append([]string{"auth"}, args...))
	err := root.Execute()
	return out.String(), err
}

func runJSON(t *testing.T, args ...string) map[string]any {
	t.Helper()
	out, err := run(t, append(args, "-o", "json")...)
	require.NoError(t, err)
	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	return got
}

func newRuntime(t *testing.T) *shared.Runtime {
	t.Helper()
	rt, err := shared.NewRuntime(context.Background(), shared.RuntimeOptions{Stderr: &bytes.Buffer{}})
	require.NoError(t, err)
	t.Cleanup(func() { _ = rt.Close(context.Background()) })
	return rt
}

// callback follows the authorize URL the way the identity provider would
// and redirects to the login server with code and the given state.
func callback(t *testing.T, state string) func(string) {
	return func(authorizeURL string) {
		u, err := url.Parse(authorizeURL)
		if err != nil {
			t.Errorf("parse authorize URL: %v", err)
			return
		}
		q := u.Query()
		if state == "" {
			state = q.Get("state")
		}
		target := q.Get("redirect_uri") + "?" + url.Values{"code": {"code-1"}, "state": {state}}.Encode()
		resp, err := http.Get(target)
		if err != nil {
			t.Errorf("callback: %v", err)
			return
		}
		_ = resp.Body.Close()
	}
}

func TestLoginFlow(t *testing.T) {
	setup(t)
	rt := newRuntime(t)
	var stderr bytes.Buffer

	flow := loginFlow{addr: "127.0.0.1:0", timeout: 5 * time.Second, stderr: &stderr, visit: callback(t, "")}
	session, err := flow.run(context.Background(), rt)
	require.NoError(t, err)

	assert.Equal(t, "access-1", session.AccessToken)
	assert.Equal(t, fakeapi.DefaultOrgID, session.OrgID)
	assert.Contains(t, stderr.String(), "/protocol/openid-connect/auth?")
	assert.Contains(t, stderr.String(), "HRMLESS Account (org-1)")

	stored := storedSession(t)
	assert.Equal(t, "access-1", stored.AccessToken)
	assert.Equal(t, session.RefreshToken, stored.RefreshToken)
	assert.Equal(t, fakeapi.DefaultOrgID, stored.OrgID)
}

func TestLoginFlow_Failures(t *testing.T) {
	tests := []struct {
		name  string
		visit func(*testing.T) func(string)
	}{
		{"state mismatch", func(t *testing.T) func(string) { return callback(t, "forged") }},
		{"timeout", func(*testing.T) func(string) { return nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setup(t)
			rt := newRuntime(t)

			flow := loginFlow{addr: "127.0.0.1:0", timeout: 200 * time.Millisecond, stderr: &bytes.Buffer{}, visit: tt.visit(t)}
			_, err := flow.run(context.Background(), rt)
			require.Error(t, err)
			assert.Equal(t, shared.ExitExecutionFailed, shared.ExitCode(err))
			assert.Empty(t, storedSession(t).AccessToken)
		})
	}
}

func TestURL(t *testing.T) {
	setup(t)

	got := runJSON(t, "url", "--redirect-uri", "https://example.com/cb")
	assert.Equal(t, "https://example.com/cb", got["redirect_uri"])
	assert.NotEmpty(t, got["code_verifier"])

	u, err := url.Parse(got["authorize_url"].(string))
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, got["state"], q.Get("state"))
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, "S256", q.Get("code_challenge_method"))
	assert.True(t, strings.HasSuffix(u.Path, "/realms/nervai/protocol/openid-connect/auth"))
}

func TestExchange(t *testing.T) {
	setup(t)

	got := runJSON(t, "exchange", "--code", "code-1", "--redirect-uri", "https://example.com/cb", "--verifier", "verifier-1")
	assert.Equal(t, "HRMLESS Account (org-1)", got["connection"])
	assert.Equal(t, true, got["refresh_token"])
	assert.NotContains(t, got, "access_token")

	assert.Equal(t, "access-1", storedSession(t).AccessToken)
}

func TestUsageErrors(t *testing.T) {
	setup(t)

	tests := []struct {
		name string
		args []string
	}{
		{"url without redirect", []string{"url"}},
		{"exchange without code", []string{"exchange", "--redirect-uri", "x", "--verifier", "v"}},
		{"exchange without verifier", []string{"exchange", "--code", "c", "--redirect-uri", "x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.args...)
			require.Error(t, err)
			assert.Equal(t, shared.ExitInvalidUsage, shared.ExitCode(err))
		})
	}
}

func TestRefresh(t *testing.T) {
	setup(t)
	storeSession(t, operation.AuthData{AccessToken: "old-access", RefreshToken: "refresh-1", OrgID: "org-1"})

	got := runJSON(t, "refresh")
	assert.Equal(t, "org-1", got["org_id"])

	stored := storedSession(t)
	assert.Equal(t, operation.AuthData{AccessToken: "access-1", RefreshToken: "refresh-1", OrgID: "org-1"}, stored)
}

func TestRefresh_NoRefreshToken(t *testing.T) {
	setup(t)
	storeSession(t, operation.AuthData{AccessToken: "old-access", OrgID: "org-1"})

	_, err := run(t, "refresh")
	assert.Equal(t, shared.ExitAuthRequired, shared.ExitCode(err))
}

func TestTest(t *testing.T) {
	api := setup(t)
	api.RequireToken("tok-12345678")
	storeSession(t, operation.AuthData{AccessToken: "tok-12345678", OrgID: "org-1"})

	got := runJSON(t, "test")
	assert.Equal(t, map[string]any{"org_id": "org-1"}, got)

	api.RequireToken("other")
	_, err := run(t, "test")
	require.Error(t, err)
	assert.Equal(t, shared.ExitAuthRequired, shared.ExitCode(err))
}

func TestTest_NoSession(t *testing.T) {
	setup(t)

	_, err := run(t, "test")
	assert.Equal(t, shared.ExitAuthRequired, shared.ExitCode(err))
}

func TestStatus(t *testing.T) {
	setup(t)

	got := runJSON(t, "status")
	assert.Equal(t, map[string]any{"state": "unauthenticated"}, got)

	storeSession(t, operation.AuthData{AccessToken: "opaque-token-1234", RefreshToken: "r", OrgID: "org-1"})
	got = runJSON(t, "status")
	assert.Equal(t, map[string]any{
		"state":         "authenticated",
		"access_token":  "...1234",
		"refresh_token": true,
		"org_id":        "org-1",
	}, got)
}

func TestStatusMap_Expired(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	token := signedToken(t, now.Add(-time.Minute))

	got := status(operation.AuthData{AccessToken: token}, now)
	assert.Equal(t, "expired", got["state"])
	assert.Equal(t, "user-1", got["subject"])
	assert.Equal(t, "2025-06-01T11:59:00Z", got["expires_at"])
}

func TestLogout(t *testing.T) {
	setup(t)
	storeSession(t, operation.AuthData{AccessToken: "tok", RefreshToken: "r", OrgID: "org-1"})

	_, err := run(t, "logout")
	require.NoError(t, err)
	assert.Equal(t, operation.AuthData{}, storedSession(t))
}

func signedToken(t *testing.T, expiry time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "user-1",
		ExpiresAt: jwt.NewNumericDate(expiry),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}
