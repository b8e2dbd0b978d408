// Package transport is the outbound HTTP surface used by actions and the
// authentication module.
//
// A transport executes exactly one request per call and returns the
// response for every status code. Status inspection is left to the caller
// so actions can map specific codes (404, 401) to domain errors before
// falling back to Response.ThrowForStatus.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// Transport executes requests.
type Transport interface {
	// Execute sends req and returns the response. Non-2xx responses are
	// not errors at this layer. Returns *TransportError on failure.
	Execute(ctx context.Context, req *Request) (*Response, error)

	// Name returns the transport identifier.
	Name() string
}

// Func adapts a function to the Transport interface.
type Func func(ctx context.Context, req *Request) (*Response, error)

// Execute calls f.
func (f Func) Execute(ctx context.Context, req *Request) (*Response, error) {
	return f(ctx, req)
}

// Name implements Transport.
func (f Func) Name() string { return "func" }

// Request represents one outbound call.
type Request struct {
	// Method is the HTTP method. Required.
	Method string

	// URL is the absolute request URL, without query parameters.
	URL string

	// Headers are request headers. An empty value suppresses the header.
	Headers map[string]string

	// Params are encoded into the query string.
	Params map[string]any

	// Body is the encoded request body, nil for bodyless requests.
	Body []byte

	// Metadata carries values for logging and tracing. It is not sent.
	Metadata map[string]any
}

// Options describe a request before missing values are stripped and the
// body is encoded.
type Options struct {
	Method  string
	URL     string
	Headers map[string]string
	Params  map[string]any
	Body    map[string]any
}

// NewRequest builds a Request from opts. Missing values are removed from
// Params and Body; the body is JSON encoded for methods that carry one.
func NewRequest(opts Options) (*Request, error) {
	req := &Request{
		Method:   opts.Method,
		URL:      opts.URL,
		Headers:  make(map[string]string, len(opts.Headers)),
		Params:   RemoveMissingValues(opts.Params),
		Metadata: make(map[string]any),
	}
	for k, v := range opts.Headers {
		req.Headers[k] = v
	}

	if hasBody(opts.Method) {
		body := RemoveMissingValues(opts.Body)
		if body == nil {
			body = map[string]any{}
		}
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, &TransportError{
				Type:    ErrorTypeInvalidReq,
				Message: fmt.Sprintf("failed to encode request body: %s", err),
				Cause:   err,
			}
		}
		req.Body = encoded
	}

	return req, nil
}

// SetHeader sets a header, allocating the map when needed.
func (r *Request) SetHeader(key, value string) {
	if r.Headers == nil {
		r.Headers = make(map[string]string)
	}
	r.Headers[key] = value
}

func hasBody(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return true
	default:
		return false
	}
}

// Response represents the result of one call.
type Response struct {
	// StatusCode is the HTTP status code
	StatusCode int

	// Headers contains response headers
	Headers http.Header

	// Body is the raw response body
	Body []byte

	// Metadata contains transport data such as the service request ID
	Metadata map[string]any
}

// MetadataRequestID is the metadata key for the service request ID.
const MetadataRequestID = "request_id"

// IsSuccess reports whether the status is 2xx.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// IsEmpty reports whether the body has no content.
func (r *Response) IsEmpty() bool {
	return len(bytes.TrimSpace(r.Body)) == 0
}

// JSON decodes the body into a generic JSON value.
func (r *Response) JSON() (any, error) {
	var v any
	if err := json.Unmarshal(r.Body, &v); err != nil {
		return nil, &TransportError{
			Type:       ErrorTypeDecode,
			StatusCode: r.StatusCode,
			Message:    fmt.Sprintf("response is not valid JSON: %s", err),
			Cause:      err,
		}
	}
	return v, nil
}

// ThrowForStatus returns a *TransportError for 4xx and 5xx responses and
// nil otherwise.
func (r *Response) ThrowForStatus() error {
	if r.StatusCode < 400 {
		return nil
	}
	err := classifyStatus(r.StatusCode, r.Body)
	if id, ok := r.Metadata[MetadataRequestID].(string); ok {
		err.RequestID = id
	}
	return err
}
