// Package auth implements the HRMLESS OAuth2 session lifecycle:
// authorization code with PKCE, token refresh, organization lookup, bearer
// injection and the connection test.
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/hrmless/adapter/internal/log"
	"github.com/hrmless/adapter/internal/operation"
	"github.com/hrmless/adapter/internal/operation/transport"
	"github.com/hrmless/adapter/pkg/errors"
	"github.com/hrmless/adapter/pkg/httpclient"
)

// Defaults for the HRMLESS identity provider.
const (
	DefaultRealm    = "nervai"
	DefaultClientID = "zapier"
)

// DefaultScopes are requested on every authorization.
var DefaultScopes = []string{"openid", "profile", "email"}

// Config configures a Client.
type Config struct {
	// BaseURL is the API root used for the organization lookup. Required.
	BaseURL string

	// LoginURL is the identity provider root (BASE_LOGIN_URL). Required.
	LoginURL string

	// Realm defaults to DefaultRealm.
	Realm string

	// ClientID defaults to DefaultClientID.
	ClientID string

	// Scopes default to DefaultScopes.
	Scopes []string

	// HTTPClient is used for token and lookup requests. Defaults to a
	// pkg/httpclient client.
	HTTPClient *http.Client

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Session is the result of an exchange or refresh.
type Session struct {
	AccessToken  string    `json:"access_token" yaml:"access_token"`
	RefreshToken string    `json:"refresh_token" yaml:"refresh_token"`
	OrgID        string    `json:"org_id,omitempty" yaml:"org_id,omitempty"`
	Expiry       time.Time `json:"expiry,omitempty" yaml:"expiry,omitempty"`
}

// AuthData converts the session into the bundle form.
func (s *Session) AuthData() operation.AuthData {
	return operation.AuthData{AccessToken: s.AccessToken, RefreshToken: s.RefreshToken, OrgID: s.OrgID}
}

// Client talks to the identity provider and the organization endpoint.
type Client struct {
	baseURL   string
	oauth     oauth2.Config
	http      *http.Client
	transport transport.Transport
	logger    *slog.Logger
}

// New validates cfg and creates a Client.
func New(cfg Config) (*Client, error) {
	for key, value := range map[string]string{"base_url": cfg.BaseURL, "login_url": cfg.LoginURL} {
		u, err := url.Parse(value)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return nil, &errors.ConfigError{
				Key:    key,
				Reason: fmt.Sprintf("must be an absolute http(s) URL, got %q", value),
				Cause:  err,
			}
		}
	}

	if cfg.Realm == "" {
		cfg.Realm = DefaultRealm
	}
	if cfg.ClientID == "" {
		cfg.ClientID = DefaultClientID
	}
	if len(cfg.Scopes) == 0 {
		cfg.Scopes = DefaultScopes
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.HTTPClient == nil {
		hc := httpclient.DefaultConfig()
		hc.Logger = cfg.Logger
		client, err := httpclient.New(hc)
		if err != nil {
			return nil, errors.Wrap(err, "failed to create HTTP client")
		}
		cfg.HTTPClient = client
	}

	tr, err := transport.NewHTTPTransport(&transport.HTTPTransportConfig{Client: cfg.HTTPClient})
	if err != nil {
		return nil, err
	}

	endpoint := strings.TrimSuffix(cfg.LoginURL, "/") + "/realms/" + url.PathEscape(cfg.Realm) + "/protocol/openid-connect"
	return &Client{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		oauth: oauth2.Config{
			ClientID: cfg.ClientID,
			Endpoint: oauth2.Endpoint{
				AuthURL:   endpoint + "/auth",
				TokenURL:  endpoint + "/token",
				AuthStyle: oauth2.AuthStyleInParams,
			},
			Scopes: cfg.Scopes,
		},
		http:      cfg.HTTPClient,
		transport: tr,
		logger:    log.WithComponent(cfg.Logger, "auth"),
	}, nil
}

// Endpoint returns the identity provider endpoints.
func (c *Client) Endpoint() oauth2.Endpoint {
	return c.oauth.Endpoint
}

// NewVerifier returns a fresh PKCE code verifier.
func NewVerifier() string {
	return oauth2.GenerateVerifier()
}

// AuthorizeURL returns the URL the user opens to grant access. It carries
// client_id, state, redirect_uri, response_type=code, the scopes and the
// S256 challenge derived from verifier.
func (c *Client) AuthorizeURL(state, redirectURI, verifier string) string {
	cfg := c.oauth
	cfg.RedirectURL = redirectURI
	return cfg.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier))
}

// Exchange trades an authorization code for a session. The organization
// is looked up with the new token; a failed lookup is logged and the
// session is returned without it.
func (c *Client) Exchange(ctx context.Context, code, redirectURI, verifier string) (*Session, error) {
	cfg := c.oauth
	cfg.RedirectURL = redirectURI

	tok, err := cfg.Exchange(c.context(ctx), code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, errors.Wrap(err, "token exchange failed")
	}
	session := sessionFromToken(tok)

	orgID, err := c.LookupOrgID(ctx, session.AccessToken)
	if err != nil {
		c.logger.WarnContext(ctx, "could not fetch org_id", log.Error(err))
		return session, nil
	}
	session.OrgID = orgID
	return session, nil
}

// Refresh trades a refresh token for a new token pair. The returned session
// carries no organization; callers keep the one they had.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	if refreshToken == "" {
		return nil, &errors.SessionError{Reason: "no refresh token"}
	}

	src := c.oauth.TokenSource(c.context(ctx), &oauth2.Token{RefreshToken: refreshToken})
	tok, err := src.Token()
	if err != nil {
		return nil, errors.Wrap(err, "token refresh failed")
	}
	return sessionFromToken(tok), nil
}

// LookupOrgID resolves the organization of the token's user.
func (c *Client) LookupOrgID(ctx context.Context, accessToken string) (string, error) {
	body, err := c.getOrgID(ctx, operation.AuthData{AccessToken: accessToken})
	if err != nil {
		return "", err
	}
	orgID, _ := body["org_id"].(string)
	if orgID == "" {
		return "", fmt.Errorf("org_id missing from response")
	}
	return orgID, nil
}

// Test verifies auth by calling the organization endpoint and returns its
// response body.
func (c *Client) Test(ctx context.Context, auth operation.AuthData) (map[string]any, error) {
	body, err := c.getOrgID(ctx, auth)
	if err != nil {
		c.logger.ErrorContext(ctx, "auth test failed", log.Error(err))
		return nil, &AuthTestError{Cause: err}
	}
	return body, nil
}

func (c *Client) getOrgID(ctx context.Context, auth operation.AuthData) (map[string]any, error) {
	req, err := transport.NewRequest(transport.Options{
		Method:  http.MethodGet,
		URL:     c.baseURL + "/org_id",
		Headers: map[string]string{"Accept": "application/json"},
	})
	if err != nil {
		return nil, err
	}
	if err := IncludeBearerToken(ctx, req, operation.NewBundle(auth, nil)); err != nil {
		return nil, err
	}

	resp, err := c.transport.Execute(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := resp.ThrowForStatus(); err != nil {
		return nil, err
	}

	data, err := resp.JSON()
	if err != nil {
		return nil, err
	}
	body, ok := data.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("unexpected org_id response of type %T", data)
	}
	return body, nil
}

func (c *Client) context(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, c.http)
}

func sessionFromToken(tok *oauth2.Token) *Session {
	return &Session{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		Expiry:       tok.Expiry,
	}
}

// IncludeBearerToken sets "Authorization: Bearer <token>" when the bundle
// carries an access token and leaves the request untouched otherwise. It
// is an operation.BeforeRequest.
func IncludeBearerToken(_ context.Context, req *transport.Request, bundle operation.Bundle) error {
	if bundle.AuthData.HasToken() {
		req.SetHeader("Authorization", "Bearer "+bundle.AuthData.AccessToken)
	}
	return nil
}

var _ operation.BeforeRequest = IncludeBearerToken

// ConnectionLabel names the connection in host UIs.
func ConnectionLabel(auth operation.AuthData) string {
	return fmt.Sprintf("HRMLESS Account (%s)", auth.OrgID)
}
