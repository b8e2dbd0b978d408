package httpclient

import (
	"net/url"
	"strings"
)

// sensitiveParams are query parameter fragments redacted from logged URLs.
// OAuth callback and token parameters are included.
var sensitiveParams = []string{
	"token",
	"code",
	"verifier",
	"challenge",
	"state",
	"password",
	"secret",
	"key",
}

// sanitizeURL returns u with sensitive query parameters and user info
// redacted.
func sanitizeURL(u *url.URL) string {
	if u == nil {
		return ""
	}

	q := u.Query()
	for param := range q {
		if isSensitiveParam(param) {
			q.Set(param, "[REDACTED]")
		}
	}

	safe := *u
	safe.User = nil
	safe.RawQuery = q.Encode()
	return safe.String()
}

func isSensitiveParam(param string) bool {
	lower := strings.ToLower(param)
	for _, sensitive := range sensitiveParams {
		if strings.Contains(lower, sensitive) {
			return true
		}
	}
	return false
}
