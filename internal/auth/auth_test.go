package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrmless/adapter/internal/log"
	"github.com/hrmless/adapter/internal/operation"
	"github.com/hrmless/adapter/internal/operation/transport"
	"github.com/hrmless/adapter/internal/testing/fakeapi"
	pkgerrors "github.com/hrmless/adapter/pkg/errors"
)

func newClient(t *testing.T, srv *fakeapi.Server) *Client {
	t.Helper()
	c, err := New(Config{
		BaseURL:    srv.URL,
		LoginURL:   srv.LoginURL(),
		HTTPClient: srv.Client(),
		Logger:     log.Discard(),
	})
	require.NoError(t, err)
	return c
}

func formKeys(v url.Values) []string {
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func tokenRequests(srv *fakeapi.Server) []fakeapi.Request {
	var out []fakeapi.Request
	for _, r := range srv.Requests() {
		if r.Path == "/realms/nervai/protocol/openid-connect/token" {
			out = append(out, r)
		}
	}
	return out
}

func TestNew_Validation(t *testing.T) {
	_, err := New(Config{BaseURL: "https://api.example.com"})
	var cfgErr *pkgerrors.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "login_url", cfgErr.Key)

	c, err := New(Config{BaseURL: "https://api.example.com", LoginURL: "https://login.example.com/"})
	require.NoError(t, err)
	assert.Equal(t, "https://login.example.com/realms/nervai/protocol/openid-connect/auth", c.Endpoint().AuthURL)
	assert.Equal(t, "https://login.example.com/realms/nervai/protocol/openid-connect/token", c.Endpoint().TokenURL)
}

func TestAuthorizeURL(t *testing.T) {
	c, err := New(Config{BaseURL: "https://api.example.com", LoginURL: "https://login.example.com"})
	require.NoError(t, err)

	verifier := NewVerifier()
	raw := c.AuthorizeURL("state-1", "http://127.0.0.1:8085/callback", verifier)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "/realms/nervai/protocol/openid-connect/auth", u.Path)

	q := u.Query()
	assert.Equal(t, "zapier", q.Get("client_id"))
	assert.Equal(t, "state-1", q.Get("state"))
	assert.Equal(t, "http://127.0.0.1:8085/callback", q.Get("redirect_uri"))
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, "openid profile email", q.Get("scope"))
	assert.Equal(t, "S256", q.Get("code_challenge_method"))
	assert.NotEmpty(t, q.Get("code_challenge"))
	assert.NotEqual(t, verifier, q.Get("code_challenge"))
}

func TestExchange(t *testing.T) {
	srv := fakeapi.New()
	t.Cleanup(srv.Close)
	c := newClient(t, srv)

	session, err := c.Exchange(context.Background(), "the-code", "http://127.0.0.1/callback", "the-verifier")
	require.NoError(t, err)
	assert.Equal(t, "access-1", session.AccessToken)
	assert.NotEmpty(t, session.RefreshToken)
	assert.Equal(t, fakeapi.DefaultOrgID, session.OrgID)

	reqs := tokenRequests(srv)
	require.Len(t, reqs, 1)
	form := reqs[0].Form
	assert.Equal(t, []string{"client_id", "code", "code_verifier", "grant_type", "redirect_uri"}, formKeys(form))
	assert.Equal(t, "authorization_code", form.Get("grant_type"))
	assert.Equal(t, "zapier", form.Get("client_id"))
	assert.Equal(t, "the-verifier", form.Get("code_verifier"))
	assert.Equal(t, "application/x-www-form-urlencoded", reqs[0].Header.Get("Content-Type"))

	last, ok := srv.LastRequest()
	require.True(t, ok)
	assert.Equal(t, "/org_id", last.Path)
	assert.Equal(t, "Bearer access-1", last.Header.Get("Authorization"))
}

func TestExchange_OrgLookupFailureIsSoft(t *testing.T) {
	srv := fakeapi.New()
	t.Cleanup(srv.Close)
	srv.FailOrgID()
	c := newClient(t, srv)

	session, err := c.Exchange(context.Background(), "code", "http://127.0.0.1/callback", "v")
	require.NoError(t, err)
	assert.NotEmpty(t, session.AccessToken)
	assert.Empty(t, session.OrgID)
}

func TestExchange_TokenFailure(t *testing.T) {
	srv := fakeapi.New()
	t.Cleanup(srv.Close)
	c := newClient(t, srv)

	_, err := c.Exchange(context.Background(), "", "http://127.0.0.1/callback", "v")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "token exchange failed")
}

func TestRefresh(t *testing.T) {
	srv := fakeapi.New()
	t.Cleanup(srv.Close)
	c := newClient(t, srv)

	session, err := c.Refresh(context.Background(), "refresh-1")
	require.NoError(t, err)
	assert.Equal(t, "refresh-1", session.RefreshToken)
	assert.NotEmpty(t, session.AccessToken)
	assert.Empty(t, session.OrgID)

	reqs := tokenRequests(srv)
	require.Len(t, reqs, 1)
	assert.Equal(t, url.Values{
		"client_id":     {"zapier"},
		"grant_type":    {"refresh_token"},
		"refresh_token": {"refresh-1"},
	}, reqs[0].Form)

	_, err = c.Refresh(context.Background(), "")
	var sessErr *pkgerrors.SessionError
	assert.ErrorAs(t, err, &sessErr)
}

func TestTest(t *testing.T) {
	srv := fakeapi.New()
	t.Cleanup(srv.Close)
	srv.RequireToken("good")
	c := newClient(t, srv)

	body, err := c.Test(context.Background(), operation.AuthData{AccessToken: "good"})
	require.NoError(t, err)
	assert.Equal(t, fakeapi.DefaultOrgID, body["org_id"])

	_, err = c.Test(context.Background(), operation.AuthData{AccessToken: "bad"})
	var testErr *AuthTestError
	require.ErrorAs(t, err, &testErr)
	assert.Contains(t, err.Error(), "Authentication test failed: ")
	assert.Contains(t, err.Error(), "HTTP 401")
	assert.False(t, testErr.IsRetryable())
}

func TestIncludeBearerToken(t *testing.T) {
	tests := []struct {
		name  string
		token string
		want  string
	}{
		{"with token", "abc", "Bearer abc"},
		{"without token", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := transport.NewRequest(transport.Options{Method: http.MethodGet, URL: "https://api.example.com/x"})
			require.NoError(t, err)

			err = IncludeBearerToken(context.Background(), req, operation.NewBundle(operation.AuthData{AccessToken: tt.token}, nil))
			require.NoError(t, err)

			got, present := req.Headers["Authorization"]
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want != "", present)
		})
	}
}

func TestConnectionLabel(t *testing.T) {
	assert.Equal(t, "HRMLESS Account (org-7)", ConnectionLabel(operation.AuthData{OrgID: "org-7"}))
}

func signed(t *testing.T, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, accessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			Issuer:    "https://login.example.com/realms/nervai",
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		Email: "jane@example.com",
	})
	s, err := tok.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return s
}

func TestInspect(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	info, err := Inspect(signed(t, exp))
	require.NoError(t, err)
	assert.Equal(t, "user-1", info.Subject)
	assert.Equal(t, "jane@example.com", info.Email)
	assert.True(t, exp.Equal(info.ExpiresAt))
	assert.False(t, info.Expired(time.Now()))
	assert.True(t, info.Expired(exp.Add(time.Second)))

	_, err = Inspect("not-a-jwt")
	assert.Error(t, err)
}

func TestSessionState(t *testing.T) {
	now := time.Now()
	assert.Equal(t, StateUnauthenticated, SessionState(operation.AuthData{}, now))
	assert.Equal(t, StateAuthenticated, SessionState(operation.AuthData{AccessToken: "opaque"}, now))
	assert.Equal(t, StateAuthenticated, SessionState(operation.AuthData{AccessToken: signed(t, now.Add(time.Hour))}, now))
	assert.Equal(t, StateExpired, SessionState(operation.AuthData{AccessToken: signed(t, now.Add(-time.Hour))}, now))
}

func TestLoginServer_Callback(t *testing.T) {
	s, err := NewLoginServer("127.0.0.1:0", "st", log.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.listener.Close() })
	assert.Contains(t, s.RedirectURI(), "/callback")

	h := s.Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?state=wrong&code=c", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	_, err = s.Wait(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "state mismatch")

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?state=st&code=the-code", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	code, err := s.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "the-code", code)
}

func TestLoginServer_WaitCancelled(t *testing.T) {
	s, err := NewLoginServer("127.0.0.1:0", "st", log.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.listener.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.Wait(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
