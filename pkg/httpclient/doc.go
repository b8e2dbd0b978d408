// Package httpclient builds the *http.Client used for every outbound call
// to the HRMLESS API and identity provider.
//
//	client, err := httpclient.New(httpclient.DefaultConfig())
//	if err != nil {
//	    return err
//	}
//
// Requests are logged through log/slog at debug level (warn for 4xx/5xx
// and transport errors) with method, sanitized URL, status, and duration.
// OAuth parameters such as code, code_verifier, and refresh_token are
// redacted. Correlation IDs from the request context are sent as
// X-Correlation-ID.
//
// There is no retry layer: each call is a single round trip.
package httpclient
