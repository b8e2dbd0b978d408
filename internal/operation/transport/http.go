package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hrmless/adapter/pkg/httpclient"
)

// maxResponseBytes bounds how much of a response body is read.
const maxResponseBytes = 10 << 20

// HTTPTransport implements Transport over net/http.
type HTTPTransport struct {
	client *http.Client
}

// HTTPTransportConfig configures the HTTP transport.
type HTTPTransportConfig struct {
	// Timeout is the request timeout (default: 30s)
	Timeout time.Duration

	// UserAgent overrides the default User-Agent header.
	UserAgent string

	// Client replaces the client built from Timeout and UserAgent.
	Client *http.Client
}

// NewHTTPTransport creates a transport. A nil config uses defaults.
func NewHTTPTransport(config *HTTPTransportConfig) (*HTTPTransport, error) {
	if config == nil {
		config = &HTTPTransportConfig{}
	}
	if config.Client != nil {
		return &HTTPTransport{client: config.Client}, nil
	}

	cfg := httpclient.DefaultConfig()
	if config.Timeout > 0 {
		cfg.Timeout = config.Timeout
	}
	if config.UserAgent != "" {
		cfg.UserAgent = config.UserAgent
	}

	client, err := httpclient.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}
	return &HTTPTransport{client: client}, nil
}

// Client returns the underlying HTTP client.
func (t *HTTPTransport) Client() *http.Client {
	return t.client
}

// Name returns "http".
func (t *HTTPTransport) Name() string {
	return "http"
}

// Execute sends req once and returns the response for any status code.
func (t *HTTPTransport) Execute(ctx context.Context, req *Request) (*Response, error) {
	if err := validateRequest(req); err != nil {
		return nil, &TransportError{
			Type:    ErrorTypeInvalidReq,
			Message: err.Error(),
			Cause:   err,
		}
	}

	httpReq, err := buildHTTPRequest(ctx, req)
	if err != nil {
		return nil, &TransportError{
			Type:    ErrorTypeInvalidReq,
			Message: fmt.Sprintf("failed to build HTTP request: %s", err),
			Cause:   err,
		}
	}

	httpResp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, classifyHTTPError(ctx, err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBytes))
	if err != nil {
		return nil, &TransportError{
			Type:       ErrorTypeConnection,
			StatusCode: httpResp.StatusCode,
			Message:    fmt.Sprintf("failed to read response body: %s", err),
			Cause:      err,
		}
	}

	resp := &Response{
		StatusCode: httpResp.StatusCode,
		Headers:    httpResp.Header,
		Body:       body,
		Metadata:   make(map[string]any),
	}
	if requestID := httpResp.Header.Get("X-Request-ID"); requestID != "" {
		resp.Metadata[MetadataRequestID] = requestID
	}

	return resp, nil
}

func validateRequest(req *Request) error {
	if req == nil {
		return errors.New("request is required")
	}
	if req.Method == "" {
		return errors.New("method is required")
	}

	switch req.Method {
	case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
	default:
		return fmt.Errorf("invalid HTTP method: %q", req.Method)
	}

	if req.URL == "" {
		return errors.New("URL is required")
	}
	u, err := url.Parse(req.URL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid URL %q: scheme must be http or https", req.URL)
	}

	return nil
}

func buildHTTPRequest(ctx context.Context, req *Request) (*http.Request, error) {
	target := req.URL
	if query := EncodeParams(req.Params); query != "" {
		sep := "?"
		if strings.Contains(target, "?") {
			sep = "&"
		}
		target += sep + query
	}

	var bodyReader io.Reader
	if req.Body != nil {
		bodyReader = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, bodyReader)
	if err != nil {
		return nil, err
	}

	for key, value := range req.Headers {
		if value == "" {
			continue
		}
		httpReq.Header.Set(key, value)
	}

	return httpReq, nil
}

func classifyHTTPError(ctx context.Context, err error) *TransportError {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) {
		return &TransportError{
			Type:    ErrorTypeCancelled,
			Message: "request cancelled",
			Cause:   err,
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &TransportError{
			Type:    ErrorTypeTimeout,
			Message: "request timeout",
			Cause:   err,
		}
	}

	return &TransportError{
		Type:    ErrorTypeConnection,
		Message: fmt.Sprintf("HTTP error: %s", err),
		Cause:   err,
	}
}
